package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChangeType 变更类型
type ChangeType string

const (
	ChangeAdd     ChangeType = "add"     // 新增内容
	ChangeUpdate  ChangeType = "update"  // 更新内容
	ChangeDelete  ChangeType = "delete"  // 删除内容
	ChangeMove    ChangeType = "move"    // 移动/重排
	ChangeReplace ChangeType = "replace" // 整体替换
	ChangeMerge   ChangeType = "merge"   // 合并内容
)

// TargetType 变更目标类型
type TargetType string

const (
	TargetDocument TargetType = "document" // 整个文档
	TargetSection  TargetType = "section"  // 章节
	TargetStep     TargetType = "step"     // 步骤
	TargetChart    TargetType = "chart"    // 图表
)

// ChangeTarget 变更目标定位
type ChangeTarget struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id,omitempty"`
	Path string     `json:"path,omitempty"` // 如 "sections/overview/content"
}

// ImpactScope 影响范围
type ImpactScope string

const (
	ScopeDocument ImpactScope = "document" // 全文档
	ScopeSection  ImpactScope = "section"  // 单章节
	ScopeMinimal  ImpactScope = "minimal"  // 局部
)

// ImpactSeverity 影响严重度
type ImpactSeverity string

const (
	SeverityLow      ImpactSeverity = "low"
	SeverityMedium   ImpactSeverity = "medium"
	SeverityHigh     ImpactSeverity = "high"
	SeverityCritical ImpactSeverity = "critical"
)

var severityRank = map[ImpactSeverity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// AtLeast 判断严重度是否不低于给定级别
func (s ImpactSeverity) AtLeast(other ImpactSeverity) bool {
	return severityRank[s] >= severityRank[other]
}

// ChangeImpact 变更影响评估结果
type ChangeImpact struct {
	Scope            ImpactScope    `json:"scope"`
	Severity         ImpactSeverity `json:"severity"`
	AffectedSections []string       `json:"affected_sections,omitempty"` // 一跳文本引用闭包
	EstimatedHours   float64        `json:"estimated_hours"`
	Risks            []string       `json:"risks,omitempty"`
}

// ValidationStatus 变更请求校验状态
type ValidationStatus string

const (
	ValidationPending  ValidationStatus = "pending"
	ValidationPassed   ValidationStatus = "passed"
	ValidationRejected ValidationStatus = "rejected"
)

// ChangeRequest 结构化变更请求
// 由提取器创建、完成校验后，恰好被版本计算器消费一次
type ChangeRequest struct {
	ID               string           `json:"id"`
	Type             ChangeType       `json:"type"`
	Target           ChangeTarget     `json:"target"`
	Operation        string           `json:"operation"` // 原始意图描述
	OldValue         string           `json:"old_value,omitempty"`
	NewValue         string           `json:"new_value,omitempty"`
	Impact           *ChangeImpact    `json:"impact,omitempty"`
	DependsOn        []string         `json:"depends_on,omitempty"` // 依赖的目标 ID
	Validation       ValidationStatus `json:"validation"`
	SourceFeedbackID string           `json:"source_feedback_id,omitempty"`
	CreatedBy        string           `json:"created_by"`
	CreatedAt        time.Time        `json:"created_at"`
}

// NewChangeRequest 创建变更请求
func NewChangeRequest(changeType ChangeType, target ChangeTarget, operation, createdBy string) *ChangeRequest {
	return &ChangeRequest{
		ID:         uuid.NewString(),
		Type:       changeType,
		Target:     target,
		Operation:  operation,
		Validation: ValidationPending,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now(),
	}
}

// Severity 返回变更严重度（未评估时视为 low）
func (c *ChangeRequest) Severity() ImpactSeverity {
	if c.Impact == nil {
		return SeverityLow
	}
	return c.Impact.Severity
}

// IsStructural 是否为结构性变更（新增/删除/移动/合并章节或图表）
func (c *ChangeRequest) IsStructural() bool {
	if c.Target.Type != TargetSection && c.Target.Type != TargetChart {
		return false
	}
	switch c.Type {
	case ChangeAdd, ChangeDelete, ChangeMove, ChangeMerge:
		return true
	}
	return false
}

// ConflictType 变更冲突类型
type ConflictType string

const (
	ConflictSameTarget ConflictType = "same_target" // 相同目标
	ConflictDependency ConflictType = "dependency"  // 依赖顺序
)

// ResolutionStrategy 冲突处置策略
type ResolutionStrategy string

const (
	ResolveManualReview ResolutionStrategy = "manual_review" // 人工评审
	ResolveDefer        ResolutionStrategy = "defer"         // 按依赖顺序延后应用
)

// ChangeConflict 批次内变更冲突
// 冲突以数据形式上报，由外部决策处理，不作为错误抛出
type ChangeConflict struct {
	ID             string             `json:"id"`
	Type           ConflictType       `json:"type"`
	FirstChangeID  string             `json:"first_change_id"`
	SecondChangeID string             `json:"second_change_id"`
	TargetID       string             `json:"target_id,omitempty"`
	Severity       ImpactSeverity     `json:"severity"`
	Strategy       ResolutionStrategy `json:"strategy"`
	Blocking       bool               `json:"blocking"` // 是否阻止自动应用
	Detail         string             `json:"detail,omitempty"`
}
