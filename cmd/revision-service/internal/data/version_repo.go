package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sopassistant/cmd/revision-service/internal/domain"

	"gorm.io/gorm"
)

// VersionDO 版本数据对象
type VersionDO struct {
	ID          string `gorm:"primaryKey"`
	DocumentID  string `gorm:"index"`
	Major       int    `gorm:"index:idx_version_number"`
	Minor       int    `gorm:"index:idx_version_number"`
	Patch       int    `gorm:"index:idx_version_number"`
	ContentJSON string `gorm:"type:jsonb"`
	ChangesJSON string `gorm:"type:jsonb"`
	TagsJSON    string `gorm:"type:jsonb"`
	Breaking    bool
	Summary     string
	Status      string
	Checksum    string
	CreatedBy   string
	CreatedAt   time.Time
}

// TableName 指定表名
func (VersionDO) TableName() string {
	return "revision.versions"
}

// HistoryDO 历史统计数据对象
type HistoryDO struct {
	DocumentID string `gorm:"primaryKey"`
	StatsJSON  string `gorm:"type:jsonb"`
	UpdatedAt  time.Time
}

// TableName 指定表名
func (HistoryDO) TableName() string {
	return "revision.histories"
}

// HistoryRepository 基于 gorm 的版本历史仓储实现
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository 创建版本历史仓储
func NewHistoryRepository(db *gorm.DB) domain.VersionHistoryRepository {
	return &HistoryRepository{db: db}
}

// GetHistory 加载文档的完整版本历史
func (r *HistoryRepository) GetHistory(ctx context.Context, documentID string) (*domain.VersionHistory, error) {
	var historyDO HistoryDO
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).First(&historyDO).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrHistoryNotFound
		}
		return nil, err
	}

	var versionDOs []VersionDO
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("major ASC, minor ASC, patch ASC").
		Find(&versionDOs).Error; err != nil {
		return nil, err
	}

	history := &domain.VersionHistory{
		DocumentID: documentID,
		Versions:   make([]*domain.Version, len(versionDOs)),
		UpdatedAt:  historyDO.UpdatedAt,
	}

	if historyDO.StatsJSON != "" {
		if err := json.Unmarshal([]byte(historyDO.StatsJSON), &history.Stats); err != nil {
			return nil, err
		}
	}

	for i := range versionDOs {
		version, err := r.toDomain(&versionDOs[i])
		if err != nil {
			return nil, err
		}
		history.Versions[i] = version
	}

	return history, nil
}

// SaveHistory 落盘历史：upsert 统计行，补插缺失的版本行
// 版本仅追加，已存在的版本行不更新
func (r *HistoryRepository) SaveHistory(ctx context.Context, history *domain.VersionHistory) error {
	statsJSON, err := json.Marshal(history.Stats)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		historyDO := &HistoryDO{
			DocumentID: history.DocumentID,
			StatsJSON:  string(statsJSON),
			UpdatedAt:  history.UpdatedAt,
		}
		if err := tx.Save(historyDO).Error; err != nil {
			return err
		}

		for _, version := range history.Versions {
			var count int64
			if err := tx.Model(&VersionDO{}).Where("id = ?", version.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			versionDO, err := r.toDataObject(version)
			if err != nil {
				return err
			}
			if err := tx.Create(versionDO).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// GetVersion 按版本号获取单个版本
func (r *HistoryRepository) GetVersion(ctx context.Context, documentID string, number domain.SemanticVersion) (*domain.Version, error) {
	var versionDO VersionDO
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND major = ? AND minor = ? AND patch = ?",
			documentID, number.Major, number.Minor, number.Patch).
		First(&versionDO).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVersionNotFound
		}
		return nil, err
	}

	return r.toDomain(&versionDO)
}

// ListVersions 分页列出版本
func (r *HistoryRepository) ListVersions(ctx context.Context, documentID string, limit, offset int) ([]*domain.Version, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&VersionDO{}).
		Where("document_id = ?", documentID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var versionDOs []VersionDO
	query := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("major ASC, minor ASC, patch ASC").
		Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&versionDOs).Error; err != nil {
		return nil, 0, err
	}

	versions := make([]*domain.Version, len(versionDOs))
	for i := range versionDOs {
		version, err := r.toDomain(&versionDOs[i])
		if err != nil {
			return nil, 0, err
		}
		versions[i] = version
	}

	return versions, int(total), nil
}

// toDataObject 转换为数据对象
func (r *HistoryRepository) toDataObject(version *domain.Version) (*VersionDO, error) {
	contentJSON, err := json.Marshal(version.Content)
	if err != nil {
		return nil, err
	}
	changesJSON, err := json.Marshal(version.AppliedChanges)
	if err != nil {
		return nil, err
	}
	tagsJSON, err := json.Marshal(version.Tags)
	if err != nil {
		return nil, err
	}

	return &VersionDO{
		ID:          version.ID,
		DocumentID:  version.DocumentID,
		Major:       version.Number.Major,
		Minor:       version.Number.Minor,
		Patch:       version.Number.Patch,
		ContentJSON: string(contentJSON),
		ChangesJSON: string(changesJSON),
		TagsJSON:    string(tagsJSON),
		Breaking:    version.Breaking,
		Summary:     version.ChangeSummary,
		Status:      string(version.Status),
		Checksum:    version.Checksum,
		CreatedBy:   version.CreatedBy,
		CreatedAt:   version.CreatedAt,
	}, nil
}

// toDomain 转换为领域对象
func (r *HistoryRepository) toDomain(versionDO *VersionDO) (*domain.Version, error) {
	version := &domain.Version{
		ID:            versionDO.ID,
		DocumentID:    versionDO.DocumentID,
		Number:        domain.SemanticVersion{Major: versionDO.Major, Minor: versionDO.Minor, Patch: versionDO.Patch},
		Breaking:      versionDO.Breaking,
		ChangeSummary: versionDO.Summary,
		CreatedBy:     versionDO.CreatedBy,
		CreatedAt:     versionDO.CreatedAt,
		Status:        domain.VersionStatus(versionDO.Status),
		Checksum:      versionDO.Checksum,
	}

	if versionDO.ContentJSON != "" {
		version.Content = &domain.DocumentSnapshot{}
		if err := json.Unmarshal([]byte(versionDO.ContentJSON), version.Content); err != nil {
			return nil, err
		}
	}
	if versionDO.ChangesJSON != "" {
		if err := json.Unmarshal([]byte(versionDO.ChangesJSON), &version.AppliedChanges); err != nil {
			return nil, err
		}
	}
	if versionDO.TagsJSON != "" {
		if err := json.Unmarshal([]byte(versionDO.TagsJSON), &version.Tags); err != nil {
			return nil, err
		}
	}

	return version, nil
}
