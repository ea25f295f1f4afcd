package biz

import (
	"context"
	"errors"
	"fmt"

	"sopassistant/cmd/revision-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// RollbackConfig 回滚协调器配置
type RollbackConfig struct {
	// VerifyChecksum 前置检查中校验目标版本内容与记录的校验和一致
	VerifyChecksum bool
}

// RollbackCoordinator 回滚协调器
//
// 协议：前置检查 → 无条件快照当前版本 → 反向变更集 + 新前向版本 → 后置检查。
// 历史仅追加：回滚产生新版本，不改写既有版本。步骤 3 提交后的失败不自动撤销，
// 已提交的版本保留在历史中
type RollbackCoordinator struct {
	histories domain.VersionHistoryRepository
	locks     domain.DocLocker
	restore   *RestorePointManager
	differ    *DiffEngine
	calc      *VersionCalculator
	config    *RollbackConfig
	logger    *log.Helper
}

// NewRollbackCoordinator 创建回滚协调器
func NewRollbackCoordinator(
	histories domain.VersionHistoryRepository,
	locks domain.DocLocker,
	restore *RestorePointManager,
	differ *DiffEngine,
	calc *VersionCalculator,
	config *RollbackConfig,
	logger log.Logger,
) *RollbackCoordinator {
	if config == nil {
		config = &RollbackConfig{VerifyChecksum: true}
	}

	return &RollbackCoordinator{
		histories: histories,
		locks:     locks,
		restore:   restore,
		differ:    differ,
		calc:      calc,
		config:    config,
		logger:    log.NewHelper(log.With(logger, "module", "rollback-coordinator")),
	}
}

// Rollback 将文档回滚到目标版本
// 当前版本或目标版本缺失时直接失败，不产生任何状态变化
func (rc *RollbackCoordinator) Rollback(ctx context.Context, documentID string, target domain.SemanticVersion, reason, requestedBy string) (*domain.RollbackOperation, error) {
	// 回滚与版本创建共用文档级写锁
	unlock := rc.locks.Lock(documentID)
	defer unlock()

	history, err := rc.histories.GetHistory(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrHistoryNotFound) {
			return nil, fmt.Errorf("Version not found for rollback: %w: doc=%s", domain.ErrVersionNotFound, documentID)
		}
		return nil, err
	}

	current := history.Latest()
	targetVersion := history.Find(target)
	if current == nil || targetVersion == nil {
		return nil, fmt.Errorf("Version not found for rollback: %w: doc=%s target=%s",
			domain.ErrVersionNotFound, documentID, target)
	}

	op := domain.NewRollbackOperation(documentID, current.Number, target, reason, requestedBy)

	// 跨大版本回滚需要审批；执行本身不被阻断，由调用方履行审批
	op.RequiresApproval = current.Number.Major > target.Major

	// 1. 前置检查，失败则在任何变更前中止
	op.PreChecks = rc.preChecks(targetVersion)
	for _, check := range op.PreChecks {
		if !check.Passed {
			op.Fail()
			return op, fmt.Errorf("rollback pre-check %q failed: %s", check.Name, check.Detail)
		}
	}

	// 2. 无条件快照当前版本
	if _, err := rc.restore.Create(ctx, current, fmt.Sprintf("Before rollback to %s", target), requestedBy, true); err != nil {
		op.Fail()
		return op, err
	}

	// 3. 反向变更集 + 新前向版本（此步提交后不再撤销）
	version, err := rc.commitRollbackVersion(ctx, history, current, targetVersion, reason, requestedBy, op)
	if err != nil {
		op.Fail()
		return op, err
	}

	// 4. 后置检查
	op.PostChecks = rc.postChecks(version, targetVersion, history)
	for _, check := range op.PostChecks {
		if !check.Passed {
			op.Fail()
			return op, fmt.Errorf("rollback post-check %q failed: %s", check.Name, check.Detail)
		}
	}

	op.Complete(version)

	rc.logger.WithContext(ctx).Infof("rollback completed: doc=%s %s -> %s (new version %s, approval=%v)",
		documentID, op.FromVersion, target, version.Number, op.RequiresApproval)

	return op, nil
}

// commitRollbackVersion 从目标版本内容创建带回滚来源标记的新前向版本
func (rc *RollbackCoordinator) commitRollbackVersion(ctx context.Context, history *domain.VersionHistory, current, targetVersion *domain.Version, reason, requestedBy string, op *domain.RollbackOperation) (*domain.Version, error) {
	op.ReverseChanges = rc.differ.ReverseChanges(ctx, current.Content, targetVersion.Content, requestedBy)

	next, kind := rc.calc.NextVersion(current.Number, op.ReverseChanges)
	version := domain.NewVersion(history.DocumentID, next, targetVersion.Content, requestedBy)
	version.Tags = append(rc.calc.DeriveTags(op.ReverseChanges, kind), domain.TagRollback)
	version.Breaking = kind == domain.BumpMajor
	version.AppliedChanges = changeRecords(op.ReverseChanges)
	version.ChangeSummary = fmt.Sprintf("Rollback to %s: %s", targetVersion.Number, reason)
	if err := version.Publish(); err != nil {
		return nil, err
	}

	if err := history.Append(version); err != nil {
		return nil, err
	}
	rc.calc.RecomputeStats(history)

	if err := rc.histories.SaveHistory(ctx, history); err != nil {
		return nil, err
	}

	return version, nil
}

// preChecks 回滚前置检查
func (rc *RollbackCoordinator) preChecks(target *domain.Version) []domain.RollbackCheck {
	checks := []domain.RollbackCheck{
		{
			Name:   "target_content_present",
			Passed: target.Content != nil,
			Detail: "target version carries a full snapshot",
		},
	}

	if rc.config.VerifyChecksum && target.Content != nil {
		actual := target.Content.Checksum()
		checks = append(checks, domain.RollbackCheck{
			Name:   "target_checksum_intact",
			Passed: actual == target.Checksum,
			Detail: fmt.Sprintf("recorded=%s actual=%s", target.Checksum, actual),
		})
	}

	return checks
}

// postChecks 回滚后置检查
func (rc *RollbackCoordinator) postChecks(result, target *domain.Version, history *domain.VersionHistory) []domain.RollbackCheck {
	return []domain.RollbackCheck{
		{
			Name:   "content_matches_target",
			Passed: result.Checksum == target.Checksum,
			Detail: "new version content equals rollback target",
		},
		{
			Name:   "history_monotonic",
			Passed: history.Latest() == result && result.Number.NewerThan(target.Number),
			Detail: "rollback produced a strictly newer forward version",
		},
	}
}
