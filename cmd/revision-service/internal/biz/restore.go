package biz

import (
	"context"
	"time"

	"sopassistant/cmd/revision-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// RestorePointManager 恢复点管理：创建快照、按保留上限裁剪、清理过期项
type RestorePointManager struct {
	repo   domain.RestorePointRepository
	logger *log.Helper
}

// NewRestorePointManager 创建恢复点管理器
func NewRestorePointManager(repo domain.RestorePointRepository, logger log.Logger) *RestorePointManager {
	return &RestorePointManager{
		repo:   repo,
		logger: log.NewHelper(log.With(logger, "module", "restore-point")),
	}
}

// Create 从版本创建恢复点并按上限裁剪（最旧的先淘汰）
func (m *RestorePointManager) Create(ctx context.Context, version *domain.Version, reason, createdBy string, automatic bool) (*domain.RestorePoint, error) {
	point := domain.NewRestorePoint(version, reason, createdBy, automatic)

	if err := m.repo.Save(ctx, point); err != nil {
		return nil, err
	}

	if err := m.trim(ctx, version.DocumentID); err != nil {
		return nil, err
	}

	m.logger.WithContext(ctx).Infof("restore point created: doc=%s version=%s automatic=%v",
		version.DocumentID, version.Number, automatic)

	return point, nil
}

// Find 跨所有文档按 ID 查找恢复点
func (m *RestorePointManager) Find(ctx context.Context, id string) (*domain.RestorePoint, error) {
	return m.repo.FindByID(ctx, id)
}

// List 列出文档的恢复点
func (m *RestorePointManager) List(ctx context.Context, documentID string) ([]*domain.RestorePoint, error) {
	return m.repo.ListByDocument(ctx, documentID)
}

// PruneExpired 清理文档下已过期的恢复点，返回清理数量
func (m *RestorePointManager) PruneExpired(ctx context.Context, documentID string) (int, error) {
	points, err := m.repo.ListByDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	pruned := 0
	for _, p := range points {
		if p.Expired(now) {
			if err := m.repo.Delete(ctx, p.ID); err != nil {
				return pruned, err
			}
			pruned++
		}
	}

	if pruned > 0 {
		m.logger.WithContext(ctx).Infof("pruned %d expired restore point(s) for doc=%s", pruned, documentID)
	}

	return pruned, nil
}

// trim 超出保留上限时淘汰最旧的恢复点
func (m *RestorePointManager) trim(ctx context.Context, documentID string) error {
	points, err := m.repo.ListByDocument(ctx, documentID)
	if err != nil {
		return err
	}

	excess := len(points) - domain.MaxRestorePointsPerDocument
	for i := 0; i < excess; i++ {
		// ListByDocument 按创建时间升序，最旧的在前
		if err := m.repo.Delete(ctx, points[i].ID); err != nil {
			return err
		}
	}

	return nil
}
