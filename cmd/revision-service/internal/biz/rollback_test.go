package biz

import (
	"context"
	"errors"
	"testing"

	"sopassistant/cmd/revision-service/internal/data"
	"sopassistant/cmd/revision-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rollbackFixture struct {
	rc        *RollbackCoordinator
	histories *data.MemoryHistoryRepository
	points    *data.MemoryRestorePointRepository
	restore   *RestorePointManager
}

func newRollbackFixture(config *RollbackConfig) *rollbackFixture {
	logger := log.DefaultLogger
	histories := data.NewMemoryHistoryRepository()
	points := data.NewMemoryRestorePointRepository()
	restore := NewRestorePointManager(points, logger)

	rc := NewRollbackCoordinator(
		histories,
		data.NewDocLocks(),
		restore,
		NewDiffEngine(logger),
		NewVersionCalculator(logger),
		config,
		logger,
	)

	return &rollbackFixture{rc: rc, histories: histories, points: points, restore: restore}
}

// seedTwoVersions 构造 1.0.0（完整内容）→ 2.0.0（删除 startup 章节）的历史
func (f *rollbackFixture) seedTwoVersions(t *testing.T, documentID string) (*domain.Version, *domain.Version) {
	t.Helper()

	full := testDoc()
	trimmed := full.Clone()
	trimmed.Sections = append(trimmed.Sections[:1], trimmed.Sections[2:]...)

	history := domain.NewVersionHistory(documentID)
	v1 := domain.NewVersion(documentID, domain.MustParseVersion("1.0.0"), full, "alice")
	v2 := domain.NewVersion(documentID, domain.MustParseVersion("2.0.0"), trimmed, "bob")
	require.NoError(t, history.Append(v1))
	require.NoError(t, history.Append(v2))
	require.NoError(t, f.histories.SaveHistory(context.Background(), history))

	return v1, v2
}

func TestRollbackCoordinator_Rollback(t *testing.T) {
	f := newRollbackFixture(nil)
	ctx := context.Background()
	v1, v2 := f.seedTwoVersions(t, "doc-1")

	op, err := f.rc.Rollback(ctx, "doc-1", v1.Number, "section was deleted by mistake", "carol")
	require.NoError(t, err)
	require.NotNil(t, op)

	assert.Equal(t, domain.RollbackCompleted, op.Status)
	assert.Equal(t, "2.0.0", op.FromVersion.String())
	assert.Equal(t, "1.0.0", op.ToVersion.String())
	assert.NotNil(t, op.CompletedAt)

	// 跨大版本回滚需要审批
	assert.True(t, op.RequiresApproval)

	// 反向变更集：被删章节在回滚方向上表现为新增 → minor 前向版本
	require.Len(t, op.ReverseChanges, 1)
	assert.Equal(t, domain.ChangeAdd, op.ReverseChanges[0].Type)

	result := op.ResultVersion
	require.NotNil(t, result)
	assert.Equal(t, "2.1.0", result.Number.String())
	assert.True(t, result.Number.NewerThan(v2.Number))
	assert.True(t, result.HasTag(domain.TagRollback))
	assert.Equal(t, v1.Checksum, result.Checksum)
	assert.Contains(t, result.ChangeSummary, "Rollback to 1.0.0")

	// 历史仅追加：既有版本原样保留
	history, err := f.histories.GetHistory(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, history.Versions, 3)
	assert.Same(t, result, history.Latest())

	// 回滚前无条件快照当前版本
	points, err := f.restore.List(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "2.0.0", points[0].VersionNumber.String())
	assert.Contains(t, points[0].Reason, "Before rollback to 1.0.0")

	// 前后置检查全部通过
	for _, check := range append(op.PreChecks, op.PostChecks...) {
		assert.True(t, check.Passed, check.Name)
	}
}

func TestRollbackCoordinator_SameMajorNoApproval(t *testing.T) {
	f := newRollbackFixture(nil)
	ctx := context.Background()

	base := testDoc()
	revised := base.Clone()
	revised.Sections[0].Content += " Revised for clarity."

	history := domain.NewVersionHistory("doc-1")
	require.NoError(t, history.Append(domain.NewVersion("doc-1", domain.MustParseVersion("1.0.0"), base, "alice")))
	require.NoError(t, history.Append(domain.NewVersion("doc-1", domain.MustParseVersion("1.1.0"), revised, "alice")))
	require.NoError(t, f.histories.SaveHistory(ctx, history))

	op, err := f.rc.Rollback(ctx, "doc-1", domain.MustParseVersion("1.0.0"), "revert wording", "alice")
	require.NoError(t, err)
	assert.False(t, op.RequiresApproval)
	assert.Equal(t, domain.RollbackCompleted, op.Status)
}

func TestRollbackCoordinator_VersionNotFound(t *testing.T) {
	f := newRollbackFixture(nil)
	ctx := context.Background()
	f.seedTwoVersions(t, "doc-1")

	t.Run("目标版本不存在", func(t *testing.T) {
		op, err := f.rc.Rollback(ctx, "doc-1", domain.MustParseVersion("9.9.9"), "r", "carol")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrVersionNotFound)
		assert.Contains(t, err.Error(), "Version not found for rollback")
		assert.Nil(t, op)
	})

	t.Run("文档无历史", func(t *testing.T) {
		_, err := f.rc.Rollback(ctx, "doc-unknown", domain.MustParseVersion("1.0.0"), "r", "carol")
		assert.ErrorIs(t, err, domain.ErrVersionNotFound)
		assert.Contains(t, err.Error(), "Version not found for rollback")
	})

	// 失败路径不产生新版本，也不产生恢复点
	history, err := f.histories.GetHistory(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, history.Versions, 2)

	points, err := f.restore.List(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestRollbackCoordinator_ChecksumPreCheckAborts(t *testing.T) {
	f := newRollbackFixture(&RollbackConfig{VerifyChecksum: true})
	ctx := context.Background()
	v1, _ := f.seedTwoVersions(t, "doc-1")

	// 模拟目标版本快照损坏
	v1.Checksum = "deadbeef"

	op, err := f.rc.Rollback(ctx, "doc-1", v1.Number, "r", "carol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_checksum_intact")
	require.NotNil(t, op)
	assert.Equal(t, domain.RollbackFailed, op.Status)

	// 前置检查失败在任何变更之前中止
	history, err := f.histories.GetHistory(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, history.Versions, 2)

	points, err := f.restore.List(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, points)
}

// brokenSaveRepo 在落盘阶段注入存储故障
type brokenSaveRepo struct {
	domain.VersionHistoryRepository
}

func (r *brokenSaveRepo) SaveHistory(ctx context.Context, history *domain.VersionHistory) error {
	return errors.New("connection reset by peer")
}

func TestRollbackCoordinator_SaveFailureAfterCommit(t *testing.T) {
	logger := log.DefaultLogger
	inner := data.NewMemoryHistoryRepository()
	points := data.NewMemoryRestorePointRepository()
	restore := NewRestorePointManager(points, logger)
	ctx := context.Background()

	full := testDoc()
	trimmed := full.Clone()
	trimmed.Sections = append(trimmed.Sections[:1], trimmed.Sections[2:]...)

	history := domain.NewVersionHistory("doc-1")
	require.NoError(t, history.Append(domain.NewVersion("doc-1", domain.MustParseVersion("1.0.0"), full, "alice")))
	require.NoError(t, history.Append(domain.NewVersion("doc-1", domain.MustParseVersion("2.0.0"), trimmed, "bob")))
	require.NoError(t, inner.SaveHistory(ctx, history))

	rc := NewRollbackCoordinator(
		&brokenSaveRepo{VersionHistoryRepository: inner},
		data.NewDocLocks(),
		restore,
		NewDiffEngine(logger),
		NewVersionCalculator(logger),
		nil,
		logger,
	)

	op, err := rc.Rollback(ctx, "doc-1", domain.MustParseVersion("1.0.0"), "r", "carol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	// 提交阶段之后的失败：操作记为 FAILED，错误向上传播
	require.NotNil(t, op)
	assert.Equal(t, domain.RollbackFailed, op.Status)
	assert.Nil(t, op.ResultVersion)
	assert.NotNil(t, op.CompletedAt)

	// 已追加的前向版本不撤销，保留在历史中
	require.Len(t, history.Versions, 3)
	latest := history.Latest()
	assert.Equal(t, "2.1.0", latest.Number.String())
	assert.True(t, latest.HasTag(domain.TagRollback))

	// 第 2 步的快照同样保留
	snapshots, err := restore.List(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, "2.0.0", snapshots[0].VersionNumber.String())
}

func TestRollbackCoordinator_ChecksumCheckDisabled(t *testing.T) {
	f := newRollbackFixture(&RollbackConfig{VerifyChecksum: false})
	ctx := context.Background()
	v1, _ := f.seedTwoVersions(t, "doc-1")

	op, err := f.rc.Rollback(ctx, "doc-1", v1.Number, "r", "carol")
	require.NoError(t, err)

	// 关闭校验和检查时前置检查只剩快照存在性
	require.Len(t, op.PreChecks, 1)
	assert.Equal(t, "target_content_present", op.PreChecks[0].Name)
}
