package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sopassistant/cmd/revision-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// DiffEngine 差异引擎：比较两个文档快照，产出带显著度的结构化差异
type DiffEngine struct {
	logger *log.Helper
}

// NewDiffEngine 创建差异引擎
func NewDiffEngine(logger log.Logger) *DiffEngine {
	return &DiffEngine{
		logger: log.NewHelper(log.With(logger, "module", "diff-engine")),
	}
}

// Compare 比较两个版本并生成完整比较记录
func (e *DiffEngine) Compare(ctx context.Context, from, to *domain.Version) *domain.VersionComparison {
	diffs := e.CompareSnapshots(ctx, from.Content, to.Content)

	return &domain.VersionComparison{
		ID:          uuid.NewString(),
		DocumentID:  from.DocumentID,
		FromVersion: from.Number,
		ToVersion:   to.Number,
		Differences: diffs,
		Summary:     e.Summarize(diffs),
		ComparedAt:  time.Now(),
	}
}

// CompareSnapshots 比较两个快照
func (e *DiffEngine) CompareSnapshots(ctx context.Context, from, to *domain.DocumentSnapshot) []*domain.VersionDifference {
	diffs := make([]*domain.VersionDifference, 0)

	// 标量字段
	if from.Title != to.Title {
		d := domain.NewDifference(domain.DiffModified, "title", domain.SignificanceMinor)
		d.OldValue = from.Title
		d.NewValue = to.Title
		d.Description = "document title changed"
		diffs = append(diffs, d)
	}

	diffs = append(diffs, e.compareSections(from, to)...)
	diffs = append(diffs, e.compareCharts(from, to)...)
	diffs = append(diffs, e.compareMetadata(from, to)...)

	return diffs
}

// compareSections 以章节 ID 为键比较章节集合
func (e *DiffEngine) compareSections(from, to *domain.DocumentSnapshot) []*domain.VersionDifference {
	diffs := make([]*domain.VersionDifference, 0)

	fromByID := make(map[string]*domain.Section, len(from.Sections))
	for i := range from.Sections {
		fromByID[from.Sections[i].ID] = &from.Sections[i]
	}

	seen := make(map[string]struct{}, len(to.Sections))
	for i := range to.Sections {
		sec := &to.Sections[i]
		seen[sec.ID] = struct{}{}

		old, ok := fromByID[sec.ID]
		if !ok {
			// 仅目标侧存在 → 新增，恒为 significant
			d := domain.NewDifference(domain.DiffAdded, "sections/"+sec.ID, domain.SignificanceSignificant)
			d.NewValue = sec.Title
			d.Description = fmt.Sprintf("section %q added", sec.Title)
			diffs = append(diffs, d)
			continue
		}

		diffs = append(diffs, e.compareSectionPair(old, sec)...)
	}

	for i := range from.Sections {
		sec := &from.Sections[i]
		if _, ok := seen[sec.ID]; !ok {
			// 仅源侧存在 → 删除，恒为 major
			d := domain.NewDifference(domain.DiffDeleted, "sections/"+sec.ID, domain.SignificanceMajor)
			d.OldValue = sec.Title
			d.Description = fmt.Sprintf("section %q deleted", sec.Title)
			diffs = append(diffs, d)
		}
	}

	return diffs
}

// compareSectionPair 两侧都存在时递归比较章节字段
func (e *DiffEngine) compareSectionPair(old, new *domain.Section) []*domain.VersionDifference {
	diffs := make([]*domain.VersionDifference, 0)
	base := "sections/" + new.ID

	if old.Title != new.Title {
		d := domain.NewDifference(domain.DiffModified, base+"/title", domain.SignificanceMinor)
		d.OldValue = old.Title
		d.NewValue = new.Title
		diffs = append(diffs, d)
	}

	if old.Content != new.Content {
		d := domain.NewDifference(domain.DiffModified, base+"/content", contentSignificance(old.Content, new.Content))
		d.OldValue = old.Content
		d.NewValue = new.Content
		diffs = append(diffs, d)
	}

	if old.Type != new.Type {
		d := domain.NewDifference(domain.DiffModified, base+"/type", domain.SignificanceSignificant)
		d.OldValue = string(old.Type)
		d.NewValue = string(new.Type)
		diffs = append(diffs, d)
	}

	if old.Order != new.Order {
		d := domain.NewDifference(domain.DiffMoved, base, domain.SignificanceMinor)
		d.OldValue = fmt.Sprintf("%d", old.Order)
		d.NewValue = fmt.Sprintf("%d", new.Order)
		d.Description = fmt.Sprintf("section %q moved from position %d to %d", new.Title, old.Order, new.Order)
		diffs = append(diffs, d)
	}

	return diffs
}

// compareCharts 以图表 ID 为键比较图表集合
func (e *DiffEngine) compareCharts(from, to *domain.DocumentSnapshot) []*domain.VersionDifference {
	diffs := make([]*domain.VersionDifference, 0)

	fromByID := make(map[string]*domain.Chart, len(from.Charts))
	for i := range from.Charts {
		fromByID[from.Charts[i].ID] = &from.Charts[i]
	}

	seen := make(map[string]struct{}, len(to.Charts))
	for i := range to.Charts {
		chart := &to.Charts[i]
		seen[chart.ID] = struct{}{}

		old, ok := fromByID[chart.ID]
		if !ok {
			d := domain.NewDifference(domain.DiffAdded, "charts/"+chart.ID, domain.SignificanceMinor)
			d.NewValue = chart.Title
			diffs = append(diffs, d)
			continue
		}

		if old.Spec != chart.Spec || old.Title != chart.Title || old.Type != chart.Type {
			d := domain.NewDifference(domain.DiffModified, "charts/"+chart.ID, domain.SignificanceMinor)
			d.OldValue = old.Title
			d.NewValue = chart.Title
			diffs = append(diffs, d)
		}
	}

	for i := range from.Charts {
		chart := &from.Charts[i]
		if _, ok := seen[chart.ID]; !ok {
			d := domain.NewDifference(domain.DiffDeleted, "charts/"+chart.ID, domain.SignificanceSignificant)
			d.OldValue = chart.Title
			diffs = append(diffs, d)
		}
	}

	return diffs
}

// compareMetadata 比较元数据键值
func (e *DiffEngine) compareMetadata(from, to *domain.DocumentSnapshot) []*domain.VersionDifference {
	diffs := make([]*domain.VersionDifference, 0)

	for k, newVal := range to.Metadata {
		oldVal, ok := from.Metadata[k]
		if !ok {
			d := domain.NewDifference(domain.DiffAdded, "metadata/"+k, domain.SignificanceTrivial)
			d.NewValue = newVal
			diffs = append(diffs, d)
		} else if oldVal != newVal {
			d := domain.NewDifference(domain.DiffModified, "metadata/"+k, domain.SignificanceTrivial)
			d.OldValue = oldVal
			d.NewValue = newVal
			diffs = append(diffs, d)
		}
	}

	for k, oldVal := range from.Metadata {
		if _, ok := to.Metadata[k]; !ok {
			d := domain.NewDifference(domain.DiffDeleted, "metadata/"+k, domain.SignificanceTrivial)
			d.OldValue = oldVal
			diffs = append(diffs, d)
		}
	}

	return diffs
}

// Summarize 汇总差异并给出兼容性结论
// breaking-change：存在删除或 breaking 差异；requires-migration：存在 major；
// 否则 backward-compatible
func (e *DiffEngine) Summarize(diffs []*domain.VersionDifference) domain.ComparisonSummary {
	summary := domain.ComparisonSummary{
		CountsByType: make(map[domain.DiffType]int),
	}

	verdict := domain.CompatBackward
	for _, d := range diffs {
		summary.CountsByType[d.Type]++
		if d.Significance.AtLeast(domain.SignificanceSignificant) {
			summary.SignificantCount++
		}

		if d.Type == domain.DiffDeleted || d.Significance == domain.SignificanceBreaking {
			verdict = domain.CompatBreaking
		} else if verdict != domain.CompatBreaking && d.Significance == domain.SignificanceMajor {
			verdict = domain.CompatMigration
		}
	}

	summary.Verdict = verdict
	summary.Description = fmt.Sprintf("%d added, %d modified, %d deleted, %d moved (%d significant or worse)",
		summary.CountsByType[domain.DiffAdded],
		summary.CountsByType[domain.DiffModified],
		summary.CountsByType[domain.DiffDeleted],
		summary.CountsByType[domain.DiffMoved],
		summary.SignificantCount)

	return summary
}

// ReverseChanges 把 current→target 的差异映射为反向变更请求集合（回滚用）
func (e *DiffEngine) ReverseChanges(ctx context.Context, current, target *domain.DocumentSnapshot, requestedBy string) []*domain.ChangeRequest {
	diffs := e.CompareSnapshots(ctx, current, target)

	changes := make([]*domain.ChangeRequest, 0, len(diffs))
	for _, d := range diffs {
		var changeType domain.ChangeType
		switch d.Type {
		case domain.DiffAdded:
			changeType = domain.ChangeAdd
		case domain.DiffDeleted:
			changeType = domain.ChangeDelete
		case domain.DiffMoved:
			changeType = domain.ChangeMove
		default:
			changeType = domain.ChangeUpdate
		}

		target := targetFromPath(d.Path)
		change := domain.NewChangeRequest(changeType, target, "rollback: "+d.Path, requestedBy)
		change.OldValue = d.OldValue
		change.NewValue = d.NewValue
		change.Validation = domain.ValidationPassed
		changes = append(changes, change)
	}

	return changes
}

// targetFromPath 从差异路径还原变更目标
func targetFromPath(path string) domain.ChangeTarget {
	var targetType domain.TargetType
	var id string

	switch {
	case strings.HasPrefix(path, "sections/"):
		targetType = domain.TargetSection
		id = strings.Split(path, "/")[1]
	case strings.HasPrefix(path, "charts/"):
		targetType = domain.TargetChart
		id = strings.Split(path, "/")[1]
	default:
		targetType = domain.TargetDocument
	}

	return domain.ChangeTarget{Type: targetType, ID: id, Path: path}
}

// contentSignificance 正文变化显著度：归一化长度差比率分桶
// <5% trivial，<20% minor，<50% significant，≥50% major
func contentSignificance(oldContent, newContent string) domain.Significance {
	oldLen := len(oldContent)
	newLen := len(newContent)

	base := oldLen
	if base == 0 {
		base = 1
	}

	delta := newLen - oldLen
	if delta < 0 {
		delta = -delta
	}
	ratio := float64(delta) / float64(base)

	switch {
	case ratio < 0.05:
		return domain.SignificanceTrivial
	case ratio < 0.20:
		return domain.SignificanceMinor
	case ratio < 0.50:
		return domain.SignificanceSignificant
	default:
		return domain.SignificanceMajor
	}
}
