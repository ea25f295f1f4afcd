package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SemanticVersion 语义化版本三元组，按 (major, minor, patch) 字典序比较
type SemanticVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// ZeroVersion 初始版本 "0.0.0"
var ZeroVersion = SemanticVersion{}

// ParseVersion 解析 "x.y.z" 形式的版本号
func ParseVersion(s string) (SemanticVersion, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return SemanticVersion{}, fmt.Errorf("%w: %q", ErrInvalidVersionFormat, s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return SemanticVersion{}, fmt.Errorf("%w: %q", ErrInvalidVersionFormat, s)
		}
		nums[i] = n
	}

	return SemanticVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParseVersion 解析版本号，非法时 panic（仅用于常量和测试）
func MustParseVersion(s string) SemanticVersion {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String 输出 "x.y.z"
func (v SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare 字典序比较：v>o 返回 1，v<o 返回 -1，相等返回 0
func (v SemanticVersion) Compare(o SemanticVersion) int {
	pairs := [3][2]int{
		{v.Major, o.Major},
		{v.Minor, o.Minor},
		{v.Patch, o.Patch},
	}
	for _, p := range pairs {
		if p[0] > p[1] {
			return 1
		}
		if p[0] < p[1] {
			return -1
		}
	}
	return 0
}

// NewerThan 判断 v 是否严格新于 o
func (v SemanticVersion) NewerThan(o SemanticVersion) bool {
	return v.Compare(o) > 0
}

// BumpKind 版本递增类型
type BumpKind string

const (
	BumpMajor BumpKind = "major"
	BumpMinor BumpKind = "minor"
	BumpPatch BumpKind = "patch"
)

// Increment 按递增类型产生下一个版本号
func (v SemanticVersion) Increment(kind BumpKind) SemanticVersion {
	switch kind {
	case BumpMajor:
		return SemanticVersion{Major: v.Major + 1}
	case BumpMinor:
		return SemanticVersion{Major: v.Major, Minor: v.Minor + 1}
	default:
		return SemanticVersion{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	}
}

// VersionStatus 版本状态
type VersionStatus string

const (
	VersionDraft     VersionStatus = "draft"     // 草稿
	VersionPublished VersionStatus = "published" // 已发布
	VersionArchived  VersionStatus = "archived"  // 已归档
)

// 版本标签
const (
	TagBreakingChange   = "breaking-change"
	TagStructuralChange = "structural-change"
	TagCriticalUpdate   = "critical-update"
	TagMajorRevision    = "major-revision"
	TagRollback         = "rollback"
)

// ChangeRecord 版本内记录的已应用变更（变更请求的不可变摘要）
type ChangeRecord struct {
	ChangeID string     `json:"change_id"`
	Type     ChangeType `json:"type"`
	Author   string     `json:"author"`
	Summary  string     `json:"summary,omitempty"`
}

// Version 文档版本
// 内容与校验和创建后不可变，状态仍可流转（draft→published→archived）
type Version struct {
	ID             string            `json:"id"`
	DocumentID     string            `json:"document_id"`
	Number         SemanticVersion   `json:"number"`
	Content        *DocumentSnapshot `json:"content"`
	AppliedChanges []ChangeRecord    `json:"applied_changes,omitempty"`
	Breaking       bool              `json:"breaking"`
	ChangeSummary  string            `json:"change_summary,omitempty"`
	CreatedBy      string            `json:"created_by"`
	CreatedAt      time.Time         `json:"created_at"`
	Status         VersionStatus     `json:"status"`
	Tags           []string          `json:"tags,omitempty"`
	Checksum       string            `json:"checksum"`
}

// NewVersion 创建版本，内容深拷贝后计算校验和
func NewVersion(documentID string, number SemanticVersion, content *DocumentSnapshot, createdBy string) *Version {
	snapshot := content.Clone()
	return &Version{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Number:     number,
		Content:    snapshot,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now(),
		Status:     VersionDraft,
		Checksum:   snapshot.Checksum(),
	}
}

// Publish 发布版本
func (v *Version) Publish() error {
	if v.Status != VersionDraft {
		return ErrInvalidStatusTransition
	}
	v.Status = VersionPublished
	return nil
}

// Archive 归档版本
func (v *Version) Archive() error {
	if v.Status != VersionPublished {
		return ErrInvalidStatusTransition
	}
	v.Status = VersionArchived
	return nil
}

// HasTag 判断版本是否携带指定标签
func (v *Version) HasTag(tag string) bool {
	for _, t := range v.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
