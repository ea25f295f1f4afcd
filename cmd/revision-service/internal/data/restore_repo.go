package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sopassistant/cmd/revision-service/internal/domain"

	"gorm.io/gorm"
)

// RestorePointDO 恢复点数据对象
type RestorePointDO struct {
	ID           string `gorm:"primaryKey"`
	DocumentID   string `gorm:"index"`
	VersionID    string
	Major        int
	Minor        int
	Patch        int
	SnapshotJSON string `gorm:"type:jsonb"`
	Reason       string
	CreatedBy    string
	Automatic    bool
	CreatedAt    time.Time `gorm:"index"`
	ExpiresAt    *time.Time
}

// TableName 指定表名
func (RestorePointDO) TableName() string {
	return "revision.restore_points"
}

// RestorePointRepository 基于 gorm 的恢复点仓储实现
type RestorePointRepository struct {
	db *gorm.DB
}

// NewRestorePointRepository 创建恢复点仓储
func NewRestorePointRepository(db *gorm.DB) domain.RestorePointRepository {
	return &RestorePointRepository{db: db}
}

// Save 保存恢复点
func (r *RestorePointRepository) Save(ctx context.Context, point *domain.RestorePoint) error {
	pointDO, err := r.toDataObject(point)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(pointDO).Error
}

// FindByID 跨所有文档按 ID 查找
func (r *RestorePointRepository) FindByID(ctx context.Context, id string) (*domain.RestorePoint, error) {
	var pointDO RestorePointDO
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pointDO).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRestorePointNotFound
		}
		return nil, err
	}
	return r.toDomain(&pointDO)
}

// ListByDocument 列出文档的恢复点（创建时间升序）
func (r *RestorePointRepository) ListByDocument(ctx context.Context, documentID string) ([]*domain.RestorePoint, error) {
	var pointDOs []RestorePointDO
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&pointDOs).Error; err != nil {
		return nil, err
	}

	points := make([]*domain.RestorePoint, len(pointDOs))
	for i := range pointDOs {
		point, err := r.toDomain(&pointDOs[i])
		if err != nil {
			return nil, err
		}
		points[i] = point
	}
	return points, nil
}

// Delete 删除恢复点
func (r *RestorePointRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&RestorePointDO{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRestorePointNotFound
	}
	return nil
}

// toDataObject 转换为数据对象
func (r *RestorePointRepository) toDataObject(point *domain.RestorePoint) (*RestorePointDO, error) {
	snapshotJSON, err := json.Marshal(point.Snapshot)
	if err != nil {
		return nil, err
	}

	return &RestorePointDO{
		ID:           point.ID,
		DocumentID:   point.DocumentID,
		VersionID:    point.VersionID,
		Major:        point.VersionNumber.Major,
		Minor:        point.VersionNumber.Minor,
		Patch:        point.VersionNumber.Patch,
		SnapshotJSON: string(snapshotJSON),
		Reason:       point.Reason,
		CreatedBy:    point.CreatedBy,
		Automatic:    point.Automatic,
		CreatedAt:    point.CreatedAt,
		ExpiresAt:    point.ExpiresAt,
	}, nil
}

// toDomain 转换为领域对象
func (r *RestorePointRepository) toDomain(pointDO *RestorePointDO) (*domain.RestorePoint, error) {
	point := &domain.RestorePoint{
		ID:            pointDO.ID,
		DocumentID:    pointDO.DocumentID,
		VersionID:     pointDO.VersionID,
		VersionNumber: domain.SemanticVersion{Major: pointDO.Major, Minor: pointDO.Minor, Patch: pointDO.Patch},
		Reason:        pointDO.Reason,
		CreatedBy:     pointDO.CreatedBy,
		Automatic:     pointDO.Automatic,
		CreatedAt:     pointDO.CreatedAt,
		ExpiresAt:     pointDO.ExpiresAt,
	}

	if pointDO.SnapshotJSON != "" {
		point.Snapshot = &domain.DocumentSnapshot{}
		if err := json.Unmarshal([]byte(pointDO.SnapshotJSON), point.Snapshot); err != nil {
			return nil, err
		}
	}

	return point, nil
}
