package biz

import (
	"sort"

	"sopassistant/cmd/revision-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// VersionCalculator 版本计算器：由变更批次推导下一个语义版本号并维护历史统计
type VersionCalculator struct {
	logger *log.Helper
}

// NewVersionCalculator 创建版本计算器
func NewVersionCalculator(logger log.Logger) *VersionCalculator {
	return &VersionCalculator{
		logger: log.NewHelper(log.With(logger, "module", "version-calculator")),
	}
}

// NextVersion 计算下一个版本号
// 每批次恰好递增一次，取最高优先级条件：
// critical 或删除章节 → major；add 或 medium → minor；否则 patch
func (c *VersionCalculator) NextVersion(current domain.SemanticVersion, batch []*domain.ChangeRequest) (domain.SemanticVersion, domain.BumpKind) {
	kind := c.bumpKind(batch)
	return current.Increment(kind), kind
}

func (c *VersionCalculator) bumpKind(batch []*domain.ChangeRequest) domain.BumpKind {
	for _, change := range batch {
		if change.Severity() == domain.SeverityCritical {
			return domain.BumpMajor
		}
		if change.Type == domain.ChangeDelete && change.Target.Type == domain.TargetSection {
			return domain.BumpMajor
		}
	}

	for _, change := range batch {
		if change.Type == domain.ChangeAdd || change.Severity() == domain.SeverityMedium {
			return domain.BumpMinor
		}
	}

	return domain.BumpPatch
}

// DeriveTags 由批次推导版本标签
func (c *VersionCalculator) DeriveTags(batch []*domain.ChangeRequest, kind domain.BumpKind) []string {
	tags := make([]string, 0, 4)

	if kind == domain.BumpMajor {
		tags = append(tags, domain.TagBreakingChange)
	}

	for _, change := range batch {
		if change.IsStructural() {
			tags = append(tags, domain.TagStructuralChange)
			break
		}
	}

	for _, change := range batch {
		if change.Severity() == domain.SeverityCritical {
			tags = append(tags, domain.TagCriticalUpdate)
			break
		}
	}

	if len(batch) > 10 {
		tags = append(tags, domain.TagMajorRevision)
	}

	return tags
}

// RecomputeStats 重算历史统计（在每次版本追加后调用）
func (c *VersionCalculator) RecomputeStats(history *domain.VersionHistory) {
	stats := domain.HistoryStats{
		TotalVersions:   len(history.Versions),
		ChangesByType:   make(map[domain.ChangeType]int),
		ChangesByAuthor: make(map[string]int),
	}

	contributors := make(map[string]struct{})
	for _, v := range history.Versions {
		contributors[v.CreatedBy] = struct{}{}
		stats.TotalChanges += len(v.AppliedChanges)

		for _, rec := range v.AppliedChanges {
			stats.ChangesByType[rec.Type]++
			stats.ChangesByAuthor[rec.Author]++
		}
	}

	stats.Contributors = make([]string, 0, len(contributors))
	for name := range contributors {
		stats.Contributors = append(stats.Contributors, name)
	}
	sort.Strings(stats.Contributors)

	stats.AvgIntervalHours = c.avgIntervalHours(history)
	stats.StabilityScore = c.stabilityScore(history, stats)

	history.Stats = stats
}

// avgIntervalHours 相邻版本平均间隔（小时）
func (c *VersionCalculator) avgIntervalHours(history *domain.VersionHistory) float64 {
	n := len(history.Versions)
	if n < 2 {
		return 0
	}

	first := history.Versions[0].CreatedAt
	last := history.Versions[n-1].CreatedAt
	return last.Sub(first).Hours() / float64(n-1)
}

// stabilityScore 稳定性评分
// 单版本历史恒为 1.0；否则按单位时间内的变更量衰减，churn 越高越不稳定，
// 结果截断到 [0,1]
func (c *VersionCalculator) stabilityScore(history *domain.VersionHistory, stats domain.HistoryStats) float64 {
	if len(history.Versions) <= 1 {
		return 1.0
	}

	changesPerVersion := float64(stats.TotalChanges) / float64(len(history.Versions))
	churn := changesPerVersion / (stats.AvgIntervalHours + 1.0)

	score := 1.0 - churn/10.0
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
