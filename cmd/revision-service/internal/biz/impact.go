package biz

import (
	"context"
	"strings"

	"sopassistant/cmd/revision-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// ImpactAssessor 影响评估器：为变更请求计算范围、严重度、工作量和风险
type ImpactAssessor struct {
	logger *log.Helper
}

// 各变更类型的基准工时
var baseEffortHours = map[domain.ChangeType]float64{
	domain.ChangeAdd:     2.0,
	domain.ChangeUpdate:  1.0,
	domain.ChangeDelete:  1.5,
	domain.ChangeMove:    1.0,
	domain.ChangeReplace: 2.0,
	domain.ChangeMerge:   3.0,
}

// NewImpactAssessor 创建影响评估器
func NewImpactAssessor(logger log.Logger) *ImpactAssessor {
	return &ImpactAssessor{
		logger: log.NewHelper(log.With(logger, "module", "impact-assessor")),
	}
}

// Assess 评估单条变更请求的影响并写回 Impact 字段
func (a *ImpactAssessor) Assess(ctx context.Context, change *domain.ChangeRequest, doc *domain.DocumentSnapshot) *domain.ChangeImpact {
	impact := &domain.ChangeImpact{
		Scope:            a.scopeOf(change.Target.Type),
		Severity:         a.severityOf(change, doc),
		AffectedSections: a.affectedSections(change, doc),
		Risks:            a.risksOf(change),
	}

	impact.EstimatedHours = baseEffortHours[change.Type]
	if impact.EstimatedHours == 0 {
		impact.EstimatedHours = 1.0
	}
	// 全文档范围的变更工时翻倍
	if impact.Scope == domain.ScopeDocument {
		impact.EstimatedHours *= 2
	}

	change.Impact = impact
	return impact
}

// AssessBatch 批量评估
func (a *ImpactAssessor) AssessBatch(ctx context.Context, batch []*domain.ChangeRequest, doc *domain.DocumentSnapshot) {
	for _, change := range batch {
		a.Assess(ctx, change, doc)
	}
	a.logger.WithContext(ctx).Infof("assessed impact for %d change(s)", len(batch))
}

// scopeOf 由目标类型推导影响范围
func (a *ImpactAssessor) scopeOf(target domain.TargetType) domain.ImpactScope {
	switch target {
	case domain.TargetDocument:
		return domain.ScopeDocument
	case domain.TargetSection:
		return domain.ScopeSection
	default:
		return domain.ScopeMinimal
	}
}

// severityOf 严重度矩阵：变更类型 × 目标类型
// 章节删除恒为 high 以上；安全章节删除提升为 critical
func (a *ImpactAssessor) severityOf(change *domain.ChangeRequest, doc *domain.DocumentSnapshot) domain.ImpactSeverity {
	if change.Type == domain.ChangeDelete && change.Target.Type == domain.TargetSection {
		if doc != nil {
			if sec := doc.FindSection(change.Target.ID); sec != nil && sec.Type == domain.SectionSafety {
				return domain.SeverityCritical
			}
		}
		return domain.SeverityHigh
	}

	switch change.Type {
	case domain.ChangeDelete, domain.ChangeReplace:
		if change.Target.Type == domain.TargetDocument {
			return domain.SeverityCritical
		}
		return domain.SeverityHigh
	case domain.ChangeMerge, domain.ChangeMove:
		if change.Target.Type == domain.TargetSection {
			return domain.SeverityMedium
		}
		return domain.SeverityLow
	case domain.ChangeAdd:
		if change.Target.Type == domain.TargetDocument {
			return domain.SeverityMedium
		}
		return domain.SeverityLow
	default: // update
		if change.Target.Type == domain.TargetDocument {
			return domain.SeverityMedium
		}
		return domain.SeverityLow
	}
}

// affectedSections 受影响章节闭包：对目标章节的一跳文本引用
func (a *ImpactAssessor) affectedSections(change *domain.ChangeRequest, doc *domain.DocumentSnapshot) []string {
	if doc == nil || change.Target.Type != domain.TargetSection || change.Target.ID == "" {
		return nil
	}

	target := doc.FindSection(change.Target.ID)
	if target == nil {
		return nil
	}

	affected := []string{target.ID}
	for i := range doc.Sections {
		sec := &doc.Sections[i]
		if sec.ID == target.ID {
			continue
		}
		// 其他章节正文提到目标章节的 ID 或标题即视为受影响
		if strings.Contains(sec.Content, target.ID) ||
			(target.Title != "" && containsFold(sec.Content, target.Title)) {
			affected = append(affected, sec.ID)
		}
	}

	return affected
}

// risksOf 文本化风险清单
func (a *ImpactAssessor) risksOf(change *domain.ChangeRequest) []string {
	var risks []string

	switch change.Type {
	case domain.ChangeDelete:
		risks = append(risks, "content will be permanently removed from the new version; data loss if referenced elsewhere")
	case domain.ChangeMove:
		risks = append(risks, "reordering may disrupt established workflow and cross-references")
	case domain.ChangeMerge:
		risks = append(risks, "merging sections may lose distinct context or duplicate checkpoints")
	case domain.ChangeReplace:
		risks = append(risks, "full replacement discards previous wording entirely")
	}

	if change.Target.Type == domain.TargetDocument {
		risks = append(risks, "document-wide change affects all sections")
	}

	return risks
}
