package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxRestorePointsPerDocument 每个文档保留的恢复点上限，超出时淘汰最旧的
const MaxRestorePointsPerDocument = 10

// RestorePoint 恢复点：在正常版本历史之外保留的完整快照
type RestorePoint struct {
	ID            string            `json:"id"`
	DocumentID    string            `json:"document_id"`
	VersionID     string            `json:"version_id"`
	VersionNumber SemanticVersion   `json:"version_number"`
	Snapshot      *DocumentSnapshot `json:"snapshot"`
	Reason        string            `json:"reason"`
	CreatedBy     string            `json:"created_by"`
	Automatic     bool              `json:"automatic"` // 系统自动创建
	CreatedAt     time.Time         `json:"created_at"`
	ExpiresAt     *time.Time        `json:"expires_at,omitempty"`
}

// NewRestorePoint 从版本创建恢复点，快照深拷贝
func NewRestorePoint(version *Version, reason, createdBy string, automatic bool) *RestorePoint {
	return &RestorePoint{
		ID:            uuid.NewString(),
		DocumentID:    version.DocumentID,
		VersionID:     version.ID,
		VersionNumber: version.Number,
		Snapshot:      version.Content.Clone(),
		Reason:        reason,
		CreatedBy:     createdBy,
		Automatic:     automatic,
		CreatedAt:     time.Now(),
	}
}

// Expired 判断恢复点是否已过期
func (p *RestorePoint) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// RollbackStatus 回滚操作状态
type RollbackStatus string

const (
	RollbackPending   RollbackStatus = "pending"
	RollbackCompleted RollbackStatus = "completed"
	RollbackFailed    RollbackStatus = "failed"
)

// RollbackCheck 回滚前/后校验项
type RollbackCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// RollbackOperation 一次回滚操作的完整记录
// 回滚永远产生新的前向版本，不改写既有历史
type RollbackOperation struct {
	ID               string           `json:"id"`
	DocumentID       string           `json:"document_id"`
	FromVersion      SemanticVersion  `json:"from_version"`
	ToVersion        SemanticVersion  `json:"to_version"`
	Reason           string           `json:"reason"`
	RequestedBy      string           `json:"requested_by"`
	RequiresApproval bool             `json:"requires_approval"` // 跨大版本回滚需审批，由调用方执行
	ReverseChanges   []*ChangeRequest `json:"reverse_changes,omitempty"`
	PreChecks        []RollbackCheck  `json:"pre_checks,omitempty"`
	PostChecks       []RollbackCheck  `json:"post_checks,omitempty"`
	ResultVersion    *Version         `json:"result_version,omitempty"`
	Status           RollbackStatus   `json:"status"`
	StartedAt        time.Time        `json:"started_at"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
}

// NewRollbackOperation 创建回滚操作记录
func NewRollbackOperation(documentID string, from, to SemanticVersion, reason, requestedBy string) *RollbackOperation {
	return &RollbackOperation{
		ID:          uuid.NewString(),
		DocumentID:  documentID,
		FromVersion: from,
		ToVersion:   to,
		Reason:      reason,
		RequestedBy: requestedBy,
		Status:      RollbackPending,
		StartedAt:   time.Now(),
	}
}

// Complete 标记回滚完成
func (op *RollbackOperation) Complete(result *Version) {
	now := time.Now()
	op.ResultVersion = result
	op.Status = RollbackCompleted
	op.CompletedAt = &now
}

// Fail 标记回滚失败
func (op *RollbackOperation) Fail() {
	now := time.Now()
	op.Status = RollbackFailed
	op.CompletedAt = &now
}
