package service

import (
	"context"
	"errors"

	"sopassistant/cmd/revision-service/internal/biz"
	"sopassistant/cmd/revision-service/internal/domain"
	pkgerrors "sopassistant/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// RevisionService 修订引擎对外门面
// 进程内调用契约：输入输出均为领域对象，错误在此统一翻译
type RevisionService struct {
	extractor *biz.ChangeExtractor
	assessor  *biz.ImpactAssessor
	conflicts *biz.ConflictDetector
	versions  *biz.VersionUsecase
	rollback  *biz.RollbackCoordinator
	restore   *biz.RestorePointManager
	logger    *log.Helper
}

// NewRevisionService 创建修订服务
func NewRevisionService(
	extractor *biz.ChangeExtractor,
	assessor *biz.ImpactAssessor,
	conflicts *biz.ConflictDetector,
	versions *biz.VersionUsecase,
	rollback *biz.RollbackCoordinator,
	restore *biz.RestorePointManager,
	logger log.Logger,
) *RevisionService {
	return &RevisionService{
		extractor: extractor,
		assessor:  assessor,
		conflicts: conflicts,
		versions:  versions,
		rollback:  rollback,
		restore:   restore,
		logger:    log.NewHelper(log.With(logger, "module", "revision-service")),
	}
}

// ExtractChanges 从反馈记录提取变更请求并完成影响评估
func (s *RevisionService) ExtractChanges(ctx context.Context, fb *domain.FeedbackRequest, doc *domain.DocumentSnapshot) ([]*domain.ChangeRequest, error) {
	changes, err := s.extractor.Extract(ctx, fb, doc)
	if err != nil {
		return nil, translateErr(err)
	}

	s.assessor.AssessBatch(ctx, changes, doc)
	return changes, nil
}

// AssessImpact 对已提取的变更批次做影响评估
func (s *RevisionService) AssessImpact(ctx context.Context, batch []*domain.ChangeRequest, doc *domain.DocumentSnapshot) {
	s.assessor.AssessBatch(ctx, batch, doc)
}

// DetectConflicts 检测批次内冲突；冲突是数据而非错误
func (s *RevisionService) DetectConflicts(ctx context.Context, batch []*domain.ChangeRequest) []*domain.ChangeConflict {
	return s.conflicts.Detect(ctx, batch)
}

// CreateVersion 从变更批次创建新版本
func (s *RevisionService) CreateVersion(ctx context.Context, documentID string, content *domain.DocumentSnapshot, batch []*domain.ChangeRequest, createdBy string) (*domain.Version, error) {
	version, err := s.versions.CreateVersion(ctx, documentID, content, batch, createdBy)
	if err != nil {
		return nil, translateErr(err)
	}
	return version, nil
}

// GetHistory 获取文档版本历史
func (s *RevisionService) GetHistory(ctx context.Context, documentID string) (*domain.VersionHistory, error) {
	history, err := s.versions.GetHistory(ctx, documentID)
	if err != nil {
		return nil, translateErr(err)
	}
	return history, nil
}

// ListVersions 分页列出版本
func (s *RevisionService) ListVersions(ctx context.Context, documentID string, limit, offset int) ([]*domain.Version, int, error) {
	versions, total, err := s.versions.ListVersions(ctx, documentID, limit, offset)
	if err != nil {
		return nil, 0, translateErr(err)
	}
	return versions, total, nil
}

// CompareVersions 比较文档的任意两个版本
func (s *RevisionService) CompareVersions(ctx context.Context, documentID, from, to string) (*domain.VersionComparison, error) {
	fromNumber, err := domain.ParseVersion(from)
	if err != nil {
		return nil, translateErr(err)
	}
	toNumber, err := domain.ParseVersion(to)
	if err != nil {
		return nil, translateErr(err)
	}

	comparison, err := s.versions.CompareVersions(ctx, documentID, fromNumber, toNumber)
	if err != nil {
		return nil, translateErr(err)
	}
	return comparison, nil
}

// Rollback 回滚文档到目标版本
// 返回的操作记录携带审批标记与检查结果，失败时操作记录与错误同时返回
func (s *RevisionService) Rollback(ctx context.Context, documentID, target, reason, requestedBy string) (*domain.RollbackOperation, error) {
	targetNumber, err := domain.ParseVersion(target)
	if err != nil {
		return nil, translateErr(err)
	}

	op, err := s.rollback.Rollback(ctx, documentID, targetNumber, reason, requestedBy)
	if err != nil {
		return op, translateErr(err)
	}
	return op, nil
}

// CreateRestorePoint 手工创建恢复点
func (s *RevisionService) CreateRestorePoint(ctx context.Context, documentID, versionNumber, reason, createdBy string) (*domain.RestorePoint, error) {
	number, err := domain.ParseVersion(versionNumber)
	if err != nil {
		return nil, translateErr(err)
	}

	version, err := s.versions.GetVersion(ctx, documentID, number)
	if err != nil {
		return nil, translateErr(err)
	}

	point, err := s.restore.Create(ctx, version, reason, createdBy, false)
	if err != nil {
		return nil, translateErr(err)
	}
	return point, nil
}

// RestoreFromPoint 从恢复点恢复文档
func (s *RevisionService) RestoreFromPoint(ctx context.Context, restorePointID, actor string) (*domain.Version, error) {
	version, err := s.versions.RestoreFromPoint(ctx, restorePointID, actor)
	if err != nil {
		return nil, translateErr(err)
	}
	return version, nil
}

// translateErr 领域错误翻译为带错误码的 kratos 错误
func translateErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidFeedback):
		return pkgerrors.NewBadRequest(pkgerrors.CodeFeedbackInvalid, "FEEDBACK_INVALID", err.Error())
	case errors.Is(err, domain.ErrInvalidVersionFormat):
		return pkgerrors.NewBadRequest(pkgerrors.CodeVersionFormatInvalid, "VERSION_FORMAT_INVALID", err.Error())
	case errors.Is(err, domain.ErrVersionNotFound):
		return pkgerrors.NewNotFound(pkgerrors.CodeVersionNotFound, "VERSION_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrHistoryNotFound):
		return pkgerrors.NewNotFound(pkgerrors.CodeHistoryNotFound, "HISTORY_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrRestorePointNotFound):
		return pkgerrors.NewNotFound(pkgerrors.CodeRestorePointNotFound, "RESTORE_POINT_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrBlockingConflicts):
		return pkgerrors.NewConflict(pkgerrors.CodeBlockingConflicts, "BLOCKING_CONFLICTS", err.Error())
	case errors.Is(err, domain.ErrVersionNotMonotonic):
		return pkgerrors.NewConflict(pkgerrors.CodeVersionNotMonotonic, "VERSION_NOT_MONOTONIC", err.Error())
	case errors.Is(err, domain.ErrChangeTargetInvalid), errors.Is(err, domain.ErrEmptyChangeBatch):
		return pkgerrors.NewBadRequest(pkgerrors.CodeChangeBatchInvalid, "CHANGE_BATCH_INVALID", err.Error())
	default:
		return err
	}
}
