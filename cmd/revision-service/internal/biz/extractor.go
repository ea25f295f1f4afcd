package biz

import (
	"context"
	"regexp"
	"strings"

	"sopassistant/cmd/revision-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// changeRule 变更分类规则
type changeRule struct {
	Name     string
	Type     domain.ChangeType
	Keywords []string
	Patterns []*regexp.Regexp
	Priority int // 越小越优先
}

// ChangeExtractor 变更提取器：把非结构化反馈转为结构化变更请求
type ChangeExtractor struct {
	rules  []*changeRule
	logger *log.Helper
}

// 子句拆分：并列连词与句间分隔符
var clauseSeparator = regexp.MustCompile(`(?i)\s+(?:and then|and also|and|then|also)\s+|[;；。]|，(?:并且|然后|同时|另外)|(?:并且|然后|同时|另外)`)

// 建议文本抽取模式，按优先级排列
var suggestionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"([^"]+)"`),
	regexp.MustCompile(`'([^']+)'`),
	regexp.MustCompile(`[“「]([^”」]+)[”」]`),
	regexp.MustCompile(`(?i)should be\s+(.+)$`),
	regexp.MustCompile(`(?i)change (?:it |this )?to\s+(.+)$`),
	regexp.MustCompile(`(?i)replace (?:it |this )?with\s+(.+)$`),
	regexp.MustCompile(`(?i)add\s+(.+)$`),
	regexp.MustCompile(`改[为成]\s*(.+)$`),
	regexp.MustCompile(`应该是\s*(.+)$`),
	regexp.MustCompile(`添加\s*(.+)$`),
}

var (
	sectionIDPattern = regexp.MustCompile(`(?i)section\s+([A-Za-z][\w-]*)`)
	chartIDPattern   = regexp.MustCompile(`(?i)chart\s+([A-Za-z][\w-]*)`)
	stepPattern      = regexp.MustCompile(`(?i)step\s+(\d+)|第\s*(\d+)\s*步`)
)

// NewChangeExtractor 创建变更提取器
func NewChangeExtractor(logger log.Logger) *ChangeExtractor {
	e := &ChangeExtractor{
		logger: log.NewHelper(log.With(logger, "module", "change-extractor")),
	}
	e.initDefaultRules()
	return e
}

// initDefaultRules 初始化默认分类规则
func (e *ChangeExtractor) initDefaultRules() {
	// 删除优先于新增：诸如 "delete the added note" 应识别为删除
	e.addRule(&changeRule{
		Name: "delete_content",
		Type: domain.ChangeDelete,
		Keywords: []string{
			"remove", "delete", "drop", "eliminate",
			"删除", "移除", "去掉", "去除",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(remove|delete|get rid of)`),
		},
		Priority: 10,
	})

	e.addRule(&changeRule{
		Name: "move_content",
		Type: domain.ChangeMove,
		Keywords: []string{
			"move", "reorder", "rearrange", "relocate",
			"移动", "调整顺序", "重排", "挪到",
		},
		Priority: 20,
	})

	e.addRule(&changeRule{
		Name: "replace_content",
		Type: domain.ChangeReplace,
		Keywords: []string{
			"replace", "substitute", "swap",
			"替换", "换成",
		},
		Priority: 30,
	})

	e.addRule(&changeRule{
		Name: "merge_content",
		Type: domain.ChangeMerge,
		Keywords: []string{
			"merge", "combine", "consolidate",
			"合并", "整合",
		},
		Priority: 40,
	})

	e.addRule(&changeRule{
		Name: "add_content",
		Type: domain.ChangeAdd,
		Keywords: []string{
			"add", "include", "insert", "append",
			"添加", "增加", "插入", "补充",
		},
		Priority: 50,
	})

	// 默认兜底：更新
	e.addRule(&changeRule{
		Name:     "update_content",
		Type:     domain.ChangeUpdate,
		Keywords: []string{},
		Priority: 100,
	})
}

func (e *ChangeExtractor) addRule(rule *changeRule) {
	e.rules = append(e.rules, rule)
}

// Extract 从一条反馈记录提取一个或多个变更请求
// 反馈不合法时整体拒绝，不产生部分变更集
func (e *ChangeExtractor) Extract(ctx context.Context, fb *domain.FeedbackRequest, doc *domain.DocumentSnapshot) ([]*domain.ChangeRequest, error) {
	if err := fb.Validate(); err != nil {
		return nil, err
	}

	clauses := e.splitClauses(fb.Comment)
	changes := make([]*domain.ChangeRequest, 0, len(clauses))

	for _, clause := range clauses {
		change := e.extractOne(fb, clause, doc)
		changes = append(changes, change)
	}

	e.logger.WithContext(ctx).Infof("extracted %d change(s) from feedback %s (source=%s)",
		len(changes), fb.ID, fb.Source)

	return changes, nil
}

// extractOne 从单个子句提取一条变更请求（子句不再递归拆分）
func (e *ChangeExtractor) extractOne(fb *domain.FeedbackRequest, clause string, doc *domain.DocumentSnapshot) *domain.ChangeRequest {
	changeType := e.classify(clause)
	target := e.resolveTarget(fb, clause, doc)

	change := domain.NewChangeRequest(changeType, target, strings.TrimSpace(clause), fb.UserID)
	change.SourceFeedbackID = fb.ID
	change.OldValue = fb.OriginalText
	change.NewValue = e.extractSuggestedText(fb, clause)
	change.Validation = domain.ValidationPassed

	return change
}

// classify 按规则优先级对子句分类，无规则命中时归为 update
func (e *ChangeExtractor) classify(clause string) domain.ChangeType {
	lower := strings.ToLower(clause)

	best := domain.ChangeUpdate
	bestPriority := int(^uint(0) >> 1)

	for _, rule := range e.rules {
		if rule.Priority >= bestPriority {
			continue
		}
		if e.ruleMatches(rule, clause, lower) {
			best = rule.Type
			bestPriority = rule.Priority
		}
	}

	return best
}

func (e *ChangeExtractor) ruleMatches(rule *changeRule, clause, lower string) bool {
	for _, kw := range rule.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, p := range rule.Patterns {
		if p.MatchString(clause) {
			return true
		}
	}
	return false
}

// splitClauses 子句拆分
// 评论含多个动作关键词或并列连词时按连词/分隔符拆分；拆出的子句不再二次拆分
func (e *ChangeExtractor) splitClauses(comment string) []string {
	if e.countActionKeywords(comment) <= 1 && !clauseSeparator.MatchString(comment) {
		return []string{comment}
	}

	parts := clauseSeparator.Split(comment, -1)
	clauses := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			clauses = append(clauses, p)
		}
	}

	if len(clauses) == 0 {
		return []string{comment}
	}
	return clauses
}

// countActionKeywords 统计评论中命中的动作关键词规则数
func (e *ChangeExtractor) countActionKeywords(comment string) int {
	lower := strings.ToLower(comment)
	count := 0
	for _, rule := range e.rules {
		if len(rule.Keywords) == 0 {
			continue
		}
		if e.ruleMatches(rule, comment, lower) {
			count++
		}
	}
	return count
}

// resolveTarget 目标定位
// 优先级：显式章节 ID > 显式图表 ID > 标题/步骤号关键词匹配 > 文档级兜底
func (e *ChangeExtractor) resolveTarget(fb *domain.FeedbackRequest, clause string, doc *domain.DocumentSnapshot) domain.ChangeTarget {
	// 1. 结构化目标提示
	if fb.TargetHint != nil {
		return *fb.TargetHint
	}

	if doc != nil {
		// 2. 显式章节 ID
		if m := sectionIDPattern.FindStringSubmatch(clause); m != nil {
			if sec := doc.FindSection(m[1]); sec != nil {
				return domain.ChangeTarget{
					Type: domain.TargetSection,
					ID:   sec.ID,
					Path: "sections/" + sec.ID,
				}
			}
		}

		// 3. 显式图表 ID
		if m := chartIDPattern.FindStringSubmatch(clause); m != nil {
			if chart := doc.FindChart(m[1]); chart != nil {
				return domain.ChangeTarget{
					Type: domain.TargetChart,
					ID:   chart.ID,
					Path: "charts/" + chart.ID,
				}
			}
		}

		// 4. 章节标题关键词
		for i := range doc.Sections {
			sec := &doc.Sections[i]
			if sec.Title != "" && containsFold(clause, sec.Title) {
				return domain.ChangeTarget{
					Type: domain.TargetSection,
					ID:   sec.ID,
					Path: "sections/" + sec.ID,
				}
			}
		}
	}

	// 5. 步骤号
	if m := stepPattern.FindStringSubmatch(clause); m != nil {
		num := m[1]
		if num == "" {
			num = m[2]
		}
		return domain.ChangeTarget{
			Type: domain.TargetStep,
			ID:   "step-" + num,
			Path: "steps/" + num,
		}
	}

	// 6. 文档级兜底
	return domain.ChangeTarget{Type: domain.TargetDocument, Path: "document"}
}

// extractSuggestedText 建议文本抽取：结构化字段 > 引号内容 > 固定句式，否则为空
func (e *ChangeExtractor) extractSuggestedText(fb *domain.FeedbackRequest, clause string) string {
	if fb.SuggestedText != "" {
		return fb.SuggestedText
	}

	for _, p := range suggestionPatterns {
		if m := p.FindStringSubmatch(clause); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
