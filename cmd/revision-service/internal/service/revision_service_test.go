package service

import (
	"context"
	"testing"
	"time"

	"sopassistant/cmd/revision-service/internal/biz"
	"sopassistant/cmd/revision-service/internal/data"
	"sopassistant/cmd/revision-service/internal/domain"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *RevisionService {
	logger := log.DefaultLogger
	histories := data.NewMemoryHistoryRepository()
	points := data.NewMemoryRestorePointRepository()
	restore := biz.NewRestorePointManager(points, logger)
	calc := biz.NewVersionCalculator(logger)
	differ := biz.NewDiffEngine(logger)
	conflicts := biz.NewConflictDetector(logger)

	locks := data.NewDocLocks()
	versions := biz.NewVersionUsecase(histories, locks, restore, calc, differ, conflicts, logger)
	rollback := biz.NewRollbackCoordinator(histories, locks, restore, differ, calc,
		&biz.RollbackConfig{VerifyChecksum: true}, logger)

	return NewRevisionService(
		biz.NewChangeExtractor(logger),
		biz.NewImpactAssessor(logger),
		conflicts,
		versions,
		rollback,
		restore,
		logger,
	)
}

func serviceDoc() *domain.DocumentSnapshot {
	return &domain.DocumentSnapshot{
		Title: "Pump Maintenance SOP",
		Sections: []domain.Section{
			{ID: "overview", Title: "Overview", Content: "General maintenance overview.", Type: domain.SectionOverview, Order: 1},
			{ID: "startup", Title: "Startup Procedure", Content: "Power on and wait.", Type: domain.SectionProcedure, Order: 2},
		},
	}
}

func TestRevisionService_FeedbackToVersionFlow(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	doc := serviceDoc()

	// 初始版本
	seed := domain.NewChangeRequest(domain.ChangeAdd, domain.ChangeTarget{Type: domain.TargetDocument, Path: "document"}, "initial import", "alice")
	seed.Validation = domain.ValidationPassed
	first, err := svc.CreateVersion(ctx, "doc-1", doc, []*domain.ChangeRequest{seed}, "alice")
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", first.Number.String())

	// 反馈 → 变更提取 + 影响评估
	fb := &domain.FeedbackRequest{
		ID:        "fb-1",
		SOPID:     "doc-1",
		UserID:    "bob",
		Comment:   "remove the note in section startup",
		Source:    domain.SourceVoice,
		CreatedAt: time.Now(),
	}
	changes, err := svc.ExtractChanges(ctx, fb, doc)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeDelete, changes[0].Type)
	require.NotNil(t, changes[0].Impact)
	assert.Equal(t, domain.SeverityHigh, changes[0].Impact.Severity)

	// 冲突以数据返回
	assert.Empty(t, svc.DetectConflicts(ctx, changes))

	// 手工构造的批次可单独评估影响
	manual := domain.NewChangeRequest(domain.ChangeMerge,
		domain.ChangeTarget{Type: domain.TargetSection, ID: "overview", Path: "sections/overview"}, "merge sections", "bob")
	svc.AssessImpact(ctx, []*domain.ChangeRequest{manual}, doc)
	require.NotNil(t, manual.Impact)
	assert.Equal(t, domain.SeverityMedium, manual.Impact.Severity)

	// 章节删除驱动 major 递增
	trimmed := doc.Clone()
	trimmed.Sections = trimmed.Sections[:1]
	v, err := svc.CreateVersion(ctx, "doc-1", trimmed, changes, "bob")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v.Number.String())
	assert.True(t, v.Breaking)

	// 版本比较与回滚
	cmp, err := svc.CompareVersions(ctx, "doc-1", "0.1.0", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, domain.CompatBreaking, cmp.Summary.Verdict)

	op, err := svc.Rollback(ctx, "doc-1", "0.1.0", "premature deletion", "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RollbackCompleted, op.Status)
	assert.Equal(t, first.Checksum, op.ResultVersion.Checksum)

	history, err := svc.GetHistory(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, history.Versions, 3)
}

func TestRevisionService_RestorePointRoundTrip(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	doc := serviceDoc()

	seed := domain.NewChangeRequest(domain.ChangeAdd, domain.ChangeTarget{Type: domain.TargetDocument, Path: "document"}, "initial import", "alice")
	_, err := svc.CreateVersion(ctx, "doc-1", doc, []*domain.ChangeRequest{seed}, "alice")
	require.NoError(t, err)

	point, err := svc.CreateRestorePoint(ctx, "doc-1", "0.1.0", "before experiment", "alice")
	require.NoError(t, err)
	assert.False(t, point.Automatic)

	restored, err := svc.RestoreFromPoint(ctx, point.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, point.Snapshot.Checksum(), restored.Checksum)
}

func TestRevisionService_ErrorTranslation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	doc := serviceDoc()

	t.Run("非法反馈为BadRequest", func(t *testing.T) {
		_, err := svc.ExtractChanges(ctx, &domain.FeedbackRequest{ID: "fb-1"}, doc)
		require.Error(t, err)
		assert.Equal(t, "FEEDBACK_INVALID", kerrors.Reason(err))
		assert.Equal(t, 400, int(kerrors.Code(err)))
		assert.Equal(t, "20000", kerrors.FromError(err).Metadata["code"])
	})

	t.Run("非法版本号为BadRequest", func(t *testing.T) {
		_, err := svc.CompareVersions(ctx, "doc-1", "1.0", "1.0.1")
		require.Error(t, err)
		assert.Equal(t, "VERSION_FORMAT_INVALID", kerrors.Reason(err))
	})

	t.Run("历史缺失为NotFound", func(t *testing.T) {
		_, err := svc.GetHistory(ctx, "doc-missing")
		require.Error(t, err)
		assert.Equal(t, "HISTORY_NOT_FOUND", kerrors.Reason(err))
		assert.Equal(t, 404, int(kerrors.Code(err)))
		assert.Equal(t, "20002", kerrors.FromError(err).Metadata["code"])
	})

	t.Run("回滚目标缺失为NotFound", func(t *testing.T) {
		_, err := svc.Rollback(ctx, "doc-missing", "1.0.0", "r", "alice")
		require.Error(t, err)
		assert.Equal(t, "VERSION_NOT_FOUND", kerrors.Reason(err))
	})

	t.Run("恢复点缺失为NotFound", func(t *testing.T) {
		_, err := svc.RestoreFromPoint(ctx, "missing", "alice")
		require.Error(t, err)
		assert.Equal(t, "RESTORE_POINT_NOT_FOUND", kerrors.Reason(err))
	})

	t.Run("阻塞冲突为Conflict", func(t *testing.T) {
		target := domain.ChangeTarget{Type: domain.TargetSection, ID: "overview", Path: "sections/overview"}
		batch := []*domain.ChangeRequest{
			domain.NewChangeRequest(domain.ChangeUpdate, target, "", "alice"),
			domain.NewChangeRequest(domain.ChangeDelete, target, "", "bob"),
		}
		_, err := svc.CreateVersion(ctx, "doc-1", doc, batch, "alice")
		require.Error(t, err)
		assert.Equal(t, "BLOCKING_CONFLICTS", kerrors.Reason(err))
		assert.Equal(t, 409, int(kerrors.Code(err)))
		assert.Equal(t, "20004", kerrors.FromError(err).Metadata["code"])
	})

	t.Run("空批次为BadRequest", func(t *testing.T) {
		_, err := svc.CreateVersion(ctx, "doc-1", doc, nil, "alice")
		require.Error(t, err)
		assert.Equal(t, "CHANGE_BATCH_INVALID", kerrors.Reason(err))
	})
}
