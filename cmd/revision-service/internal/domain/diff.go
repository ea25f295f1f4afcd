package domain

import (
	"time"

	"github.com/google/uuid"
)

// DiffType 差异类型
type DiffType string

const (
	DiffAdded    DiffType = "added"
	DiffModified DiffType = "modified"
	DiffDeleted  DiffType = "deleted"
	DiffMoved    DiffType = "moved"
)

// Significance 差异显著度
type Significance string

const (
	SignificanceTrivial     Significance = "trivial"
	SignificanceMinor       Significance = "minor"
	SignificanceSignificant Significance = "significant"
	SignificanceMajor       Significance = "major"
	SignificanceBreaking    Significance = "breaking"
)

var significanceRank = map[Significance]int{
	SignificanceTrivial:     0,
	SignificanceMinor:       1,
	SignificanceSignificant: 2,
	SignificanceMajor:       3,
	SignificanceBreaking:    4,
}

// AtLeast 判断显著度是否不低于给定级别
func (s Significance) AtLeast(other Significance) bool {
	return significanceRank[s] >= significanceRank[other]
}

// VersionDifference 两个快照间的一条结构化差异
type VersionDifference struct {
	ID           string       `json:"id"`
	Type         DiffType     `json:"type"`
	Path         string       `json:"path"` // 如 "sections/overview/content"
	OldValue     string       `json:"old_value,omitempty"`
	NewValue     string       `json:"new_value,omitempty"`
	Significance Significance `json:"significance"`
	Description  string       `json:"description,omitempty"`
}

// NewDifference 创建差异记录
func NewDifference(diffType DiffType, path string, significance Significance) *VersionDifference {
	return &VersionDifference{
		ID:           uuid.NewString(),
		Type:         diffType,
		Path:         path,
		Significance: significance,
	}
}

// CompatibilityVerdict 兼容性结论
type CompatibilityVerdict string

const (
	CompatBackward  CompatibilityVerdict = "backward-compatible"
	CompatMigration CompatibilityVerdict = "requires-migration"
	CompatBreaking  CompatibilityVerdict = "breaking-change"
)

// ComparisonSummary 比较汇总
type ComparisonSummary struct {
	CountsByType     map[DiffType]int     `json:"counts_by_type"`
	SignificantCount int                  `json:"significant_count"` // significant 及以上
	Verdict          CompatibilityVerdict `json:"verdict"`
	Description      string               `json:"description,omitempty"`
}

// VersionComparison 一次完整的版本比较结果
type VersionComparison struct {
	ID          string               `json:"id"`
	DocumentID  string               `json:"document_id"`
	FromVersion SemanticVersion      `json:"from_version"`
	ToVersion   SemanticVersion      `json:"to_version"`
	Differences []*VersionDifference `json:"differences"`
	Summary     ComparisonSummary    `json:"summary"`
	ComparedAt  time.Time            `json:"compared_at"`
}
