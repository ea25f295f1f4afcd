package biz

import (
	"context"
	"fmt"

	"sopassistant/cmd/revision-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// 自动恢复点原因
const (
	reasonAutoSnapshot  = "Automatic snapshot before version creation"
	reasonRestorePoint  = "Restore from restore point"
	reasonBeforeRestore = "Automatic snapshot before restore"
)

// VersionUsecase 版本用例：编排变更校验、冲突检查、自动快照与版本追加
type VersionUsecase struct {
	histories domain.VersionHistoryRepository
	locks     domain.DocLocker
	restore   *RestorePointManager
	calc      *VersionCalculator
	differ    *DiffEngine
	conflicts *ConflictDetector
	logger    *log.Helper
}

// NewVersionUsecase 创建版本用例
func NewVersionUsecase(
	histories domain.VersionHistoryRepository,
	locks domain.DocLocker,
	restore *RestorePointManager,
	calc *VersionCalculator,
	differ *DiffEngine,
	conflicts *ConflictDetector,
	logger log.Logger,
) *VersionUsecase {
	return &VersionUsecase{
		histories: histories,
		locks:     locks,
		restore:   restore,
		calc:      calc,
		differ:    differ,
		conflicts: conflicts,
		logger:    log.NewHelper(log.With(logger, "module", "version-usecase")),
	}
}

// CreateVersion 从已校验的变更批次创建新版本
//
// 流程：冲突检查 → 目标校验 → 自动恢复点 → 版本号推导 → 追加 → 统计重算。
// 追加永远产生严格递增的版本号
func (uc *VersionUsecase) CreateVersion(ctx context.Context, documentID string, content *domain.DocumentSnapshot, batch []*domain.ChangeRequest, createdBy string) (*domain.Version, error) {
	if len(batch) == 0 {
		return nil, domain.ErrEmptyChangeBatch
	}

	// 1. 阻塞性冲突拒绝自动应用
	conflicts := uc.conflicts.Detect(ctx, batch)
	if uc.conflicts.HasBlocking(conflicts) {
		return nil, domain.ErrBlockingConflicts
	}

	// 同一文档的读改写序列串行执行
	unlock := uc.locks.Lock(documentID)
	defer unlock()

	// 2. 获取或初始化历史
	history, err := uc.histories.GetHistory(ctx, documentID)
	if err != nil {
		if err != domain.ErrHistoryNotFound {
			return nil, err
		}
		history = domain.NewVersionHistory(documentID)
	}

	// 3. 变更目标必须能在现有内容中定位
	reference := content
	if latest := history.Latest(); latest != nil {
		reference = latest.Content
	}
	if err := uc.validateTargets(batch, reference); err != nil {
		return nil, err
	}

	// 4. 自动恢复点：快照被替换的当前版本
	if latest := history.Latest(); latest != nil {
		if _, err := uc.restore.Create(ctx, latest, reasonAutoSnapshot, createdBy, true); err != nil {
			return nil, err
		}
	}

	// 5. 版本号与标签
	next, kind := uc.calc.NextVersion(history.CurrentNumber(), batch)
	version := domain.NewVersion(documentID, next, content, createdBy)
	version.Tags = uc.calc.DeriveTags(batch, kind)
	version.Breaking = kind == domain.BumpMajor
	version.AppliedChanges = changeRecords(batch)
	version.ChangeSummary = fmt.Sprintf("%d change(s) applied, %s bump", len(batch), kind)
	if err := version.Publish(); err != nil {
		return nil, err
	}

	// 6. 追加并重算统计
	if err := history.Append(version); err != nil {
		return nil, err
	}
	uc.calc.RecomputeStats(history)

	if err := uc.histories.SaveHistory(ctx, history); err != nil {
		return nil, err
	}

	uc.logger.WithContext(ctx).Infof("version %s created for doc=%s (%s bump, %d changes)",
		next, documentID, kind, len(batch))

	return version, nil
}

// GetHistory 获取文档版本历史
func (uc *VersionUsecase) GetHistory(ctx context.Context, documentID string) (*domain.VersionHistory, error) {
	return uc.histories.GetHistory(ctx, documentID)
}

// GetVersion 按版本号获取版本
func (uc *VersionUsecase) GetVersion(ctx context.Context, documentID string, number domain.SemanticVersion) (*domain.Version, error) {
	return uc.histories.GetVersion(ctx, documentID, number)
}

// ListVersions 分页列出版本
func (uc *VersionUsecase) ListVersions(ctx context.Context, documentID string, limit, offset int) ([]*domain.Version, int, error) {
	return uc.histories.ListVersions(ctx, documentID, limit, offset)
}

// CompareVersions 比较文档的任意两个版本
func (uc *VersionUsecase) CompareVersions(ctx context.Context, documentID string, from, to domain.SemanticVersion) (*domain.VersionComparison, error) {
	fromVersion, err := uc.histories.GetVersion(ctx, documentID, from)
	if err != nil {
		return nil, err
	}

	toVersion, err := uc.histories.GetVersion(ctx, documentID, to)
	if err != nil {
		return nil, err
	}

	return uc.differ.Compare(ctx, fromVersion, toVersion), nil
}

// RestoreFromPoint 从恢复点创建新版本
// 恢复点跨文档按 ID 查找，不存在时返回 ErrRestorePointNotFound
func (uc *VersionUsecase) RestoreFromPoint(ctx context.Context, restorePointID, actor string) (*domain.Version, error) {
	point, err := uc.restore.Find(ctx, restorePointID)
	if err != nil {
		return nil, err
	}

	change := domain.NewChangeRequest(domain.ChangeUpdate, domain.ChangeTarget{
		Type: domain.TargetDocument,
		Path: "document",
	}, reasonRestorePoint, actor)
	change.Impact = &domain.ChangeImpact{
		Scope:    domain.ScopeDocument,
		Severity: domain.SeverityMedium,
	}
	change.Validation = domain.ValidationPassed

	version, err := uc.CreateVersion(ctx, point.DocumentID, point.Snapshot.Clone(), []*domain.ChangeRequest{change}, actor)
	if err != nil {
		return nil, err
	}

	uc.logger.WithContext(ctx).Infof("restored doc=%s to version %s from restore point %s",
		point.DocumentID, version.Number, restorePointID)

	return version, nil
}

// validateTargets 校验批次内每个变更目标都能在参照内容中定位
// 新增类变更允许目标尚不存在
func (uc *VersionUsecase) validateTargets(batch []*domain.ChangeRequest, reference *domain.DocumentSnapshot) error {
	if reference == nil {
		return nil
	}

	for _, change := range batch {
		if change.Type == domain.ChangeAdd || change.Target.ID == "" {
			continue
		}

		switch change.Target.Type {
		case domain.TargetSection:
			if reference.FindSection(change.Target.ID) == nil {
				return fmt.Errorf("%w: section %q", domain.ErrChangeTargetInvalid, change.Target.ID)
			}
		case domain.TargetChart:
			if reference.FindChart(change.Target.ID) == nil {
				return fmt.Errorf("%w: chart %q", domain.ErrChangeTargetInvalid, change.Target.ID)
			}
		}
	}

	return nil
}

// changeRecords 把变更批次压缩为版本内的不可变记录
func changeRecords(batch []*domain.ChangeRequest) []domain.ChangeRecord {
	records := make([]domain.ChangeRecord, len(batch))
	for i, change := range batch {
		records[i] = domain.ChangeRecord{
			ChangeID: change.ID,
			Type:     change.Type,
			Author:   change.CreatedBy,
			Summary:  change.Operation,
		}
	}
	return records
}
