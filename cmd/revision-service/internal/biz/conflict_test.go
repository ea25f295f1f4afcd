package biz

import (
	"context"
	"testing"

	"sopassistant/cmd/revision-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictDetector_SameTarget(t *testing.T) {
	detector := NewConflictDetector(log.DefaultLogger)

	first := domain.NewChangeRequest(domain.ChangeUpdate, sectionTarget("overview"), "fix wording", "alice")
	second := domain.NewChangeRequest(domain.ChangeDelete, sectionTarget("overview"), "drop it", "bob")

	conflicts := detector.Detect(context.Background(), []*domain.ChangeRequest{first, second})
	require.Len(t, conflicts, 1)

	c := conflicts[0]
	assert.Equal(t, domain.ConflictSameTarget, c.Type)
	assert.Equal(t, first.ID, c.FirstChangeID)
	assert.Equal(t, second.ID, c.SecondChangeID)
	assert.Equal(t, "overview", c.TargetID)
	assert.Equal(t, domain.SeverityHigh, c.Severity)
	assert.Equal(t, domain.ResolveManualReview, c.Strategy)
	assert.True(t, c.Blocking)
	assert.True(t, detector.HasBlocking(conflicts))
}

func TestConflictDetector_Dependency(t *testing.T) {
	detector := NewConflictDetector(log.DefaultLogger)

	base := domain.NewChangeRequest(domain.ChangeUpdate, sectionTarget("startup"), "", "alice")
	dependent := domain.NewChangeRequest(domain.ChangeUpdate, sectionTarget("overview"), "", "bob")
	dependent.DependsOn = []string{"startup"}

	conflicts := detector.Detect(context.Background(), []*domain.ChangeRequest{base, dependent})
	require.Len(t, conflicts, 1)

	c := conflicts[0]
	assert.Equal(t, domain.ConflictDependency, c.Type)
	assert.Equal(t, domain.SeverityMedium, c.Severity)
	assert.Equal(t, domain.ResolveDefer, c.Strategy)

	// 依赖冲突按序延后应用即可，不阻止自动应用
	assert.False(t, c.Blocking)
	assert.False(t, detector.HasBlocking(conflicts))
}

func TestConflictDetector_NoConflict(t *testing.T) {
	detector := NewConflictDetector(log.DefaultLogger)

	t.Run("不同章节", func(t *testing.T) {
		batch := []*domain.ChangeRequest{
			domain.NewChangeRequest(domain.ChangeUpdate, sectionTarget("overview"), "", "alice"),
			domain.NewChangeRequest(domain.ChangeUpdate, sectionTarget("startup"), "", "bob"),
		}
		assert.Empty(t, detector.Detect(context.Background(), batch))
	})

	t.Run("文档级目标无ID不算重叠", func(t *testing.T) {
		batch := []*domain.ChangeRequest{
			domain.NewChangeRequest(domain.ChangeUpdate, documentTarget(), "", "alice"),
			domain.NewChangeRequest(domain.ChangeUpdate, documentTarget(), "", "bob"),
		}
		assert.Empty(t, detector.Detect(context.Background(), batch))
	})

	t.Run("单变更批次", func(t *testing.T) {
		batch := []*domain.ChangeRequest{
			domain.NewChangeRequest(domain.ChangeUpdate, sectionTarget("overview"), "", "alice"),
		}
		assert.Empty(t, detector.Detect(context.Background(), batch))
	})
}

func TestConflictDetector_PairwiseCount(t *testing.T) {
	detector := NewConflictDetector(log.DefaultLogger)

	// 三个变更落在同一章节 → C(3,2)=3 对冲突
	batch := []*domain.ChangeRequest{
		domain.NewChangeRequest(domain.ChangeUpdate, sectionTarget("overview"), "", "alice"),
		domain.NewChangeRequest(domain.ChangeUpdate, sectionTarget("overview"), "", "bob"),
		domain.NewChangeRequest(domain.ChangeDelete, sectionTarget("overview"), "", "carol"),
	}

	conflicts := detector.Detect(context.Background(), batch)
	assert.Len(t, conflicts, 3)
}
