package biz

import (
	"context"
	"fmt"

	"sopassistant/cmd/revision-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// ConflictDetector 冲突检测器：发现批次内目标重叠或依赖违例的变更对
//
// 已知边界：仅检测相同目标与显式依赖两类冲突；目标不同但文本内容重叠的
// 变更不会被标记
type ConflictDetector struct {
	logger *log.Helper
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(logger log.Logger) *ConflictDetector {
	return &ConflictDetector{
		logger: log.NewHelper(log.With(logger, "module", "conflict-detector")),
	}
}

// Detect 对批次内每个 (i<j) 变更对做冲突检查
func (d *ConflictDetector) Detect(ctx context.Context, batch []*domain.ChangeRequest) []*domain.ChangeConflict {
	conflicts := make([]*domain.ChangeConflict, 0)

	for i := 0; i < len(batch); i++ {
		for j := i + 1; j < len(batch); j++ {
			if c := d.checkPair(batch[i], batch[j]); c != nil {
				conflicts = append(conflicts, c)
			}
		}
	}

	if len(conflicts) > 0 {
		d.logger.WithContext(ctx).Warnf("detected %d conflict(s) in batch of %d change(s)",
			len(conflicts), len(batch))
	}

	return conflicts
}

// HasBlocking 批次中是否存在阻止自动应用的冲突
func (d *ConflictDetector) HasBlocking(conflicts []*domain.ChangeConflict) bool {
	for _, c := range conflicts {
		if c.Blocking {
			return true
		}
	}
	return false
}

// checkPair 检查单个变更对
func (d *ConflictDetector) checkPair(a, b *domain.ChangeRequest) *domain.ChangeConflict {
	// 相同目标：(type, id) 完全一致
	if a.Target.ID != "" && a.Target.Type == b.Target.Type && a.Target.ID == b.Target.ID {
		return &domain.ChangeConflict{
			ID:             uuid.NewString(),
			Type:           domain.ConflictSameTarget,
			FirstChangeID:  a.ID,
			SecondChangeID: b.ID,
			TargetID:       a.Target.ID,
			Severity:       domain.SeverityHigh,
			Strategy:       domain.ResolveManualReview,
			Blocking:       true,
			Detail:         fmt.Sprintf("both changes target %s %q", a.Target.Type, a.Target.ID),
		}
	}

	// 依赖冲突：一方声明依赖另一方的目标
	if dependsOn(a, b.Target.ID) || dependsOn(b, a.Target.ID) {
		return &domain.ChangeConflict{
			ID:             uuid.NewString(),
			Type:           domain.ConflictDependency,
			FirstChangeID:  a.ID,
			SecondChangeID: b.ID,
			Severity:       domain.SeverityMedium,
			Strategy:       domain.ResolveDefer,
			Blocking:       false,
			Detail:         "changes must be applied in dependency order",
		}
	}

	return nil
}

func dependsOn(change *domain.ChangeRequest, targetID string) bool {
	if targetID == "" {
		return false
	}
	for _, dep := range change.DependsOn {
		if dep == targetID {
			return true
		}
	}
	return false
}
