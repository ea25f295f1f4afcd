package domain

import (
	"fmt"
	"time"
)

// HistoryStats 版本历史聚合统计
type HistoryStats struct {
	TotalVersions    int                `json:"total_versions"`
	TotalChanges     int                `json:"total_changes"`
	Contributors     []string           `json:"contributors,omitempty"`
	ChangesByType    map[ChangeType]int `json:"changes_by_type,omitempty"`
	ChangesByAuthor  map[string]int     `json:"changes_by_author,omitempty"`
	AvgIntervalHours float64            `json:"avg_interval_hours"`
	StabilityScore   float64            `json:"stability_score"` // [0,1]，越高越稳定
}

// VersionHistory 单文档的版本历史（仅追加）
type VersionHistory struct {
	DocumentID string       `json:"document_id"`
	Versions   []*Version   `json:"versions"` // 按版本号升序
	Stats      HistoryStats `json:"stats"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// NewVersionHistory 创建空历史
func NewVersionHistory(documentID string) *VersionHistory {
	return &VersionHistory{
		DocumentID: documentID,
		Versions:   make([]*Version, 0),
		Stats:      HistoryStats{StabilityScore: 1.0},
		UpdatedAt:  time.Now(),
	}
}

// Latest 返回最新版本，空历史返回 nil
func (h *VersionHistory) Latest() *Version {
	if len(h.Versions) == 0 {
		return nil
	}
	return h.Versions[len(h.Versions)-1]
}

// Find 按版本号查找
func (h *VersionHistory) Find(number SemanticVersion) *Version {
	for _, v := range h.Versions {
		if v.Number == number {
			return v
		}
	}
	return nil
}

// CurrentNumber 当前版本号，空历史为 "0.0.0"
func (h *VersionHistory) CurrentNumber() SemanticVersion {
	if latest := h.Latest(); latest != nil {
		return latest.Number
	}
	return ZeroVersion
}

// Append 追加版本，强制单调递增
func (h *VersionHistory) Append(v *Version) error {
	if latest := h.Latest(); latest != nil && !v.Number.NewerThan(latest.Number) {
		return fmt.Errorf("%w: %s after %s", ErrVersionNotMonotonic, v.Number, latest.Number)
	}

	h.Versions = append(h.Versions, v)
	h.UpdatedAt = time.Now()
	return nil
}
