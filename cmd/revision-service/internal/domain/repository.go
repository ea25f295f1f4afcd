package domain

import "context"

// VersionHistoryRepository 版本历史仓储接口
// 存储后端（内存、数据库）可替换，算法核心不感知
type VersionHistoryRepository interface {
	// GetHistory 获取文档的版本历史，不存在返回 ErrHistoryNotFound
	GetHistory(ctx context.Context, documentID string) (*VersionHistory, error)

	// SaveHistory 保存版本历史（追加新版本后整体落盘）
	SaveHistory(ctx context.Context, history *VersionHistory) error

	// GetVersion 按版本号获取单个版本，不存在返回 ErrVersionNotFound
	GetVersion(ctx context.Context, documentID string, number SemanticVersion) (*Version, error)

	// ListVersions 分页列出版本（按版本号升序）
	ListVersions(ctx context.Context, documentID string, limit, offset int) ([]*Version, int, error)
}

// DocLocker 文档级写锁
// 同一文档的读改写序列（GetHistory → Append → SaveHistory）串行执行，
// 不同文档互不阻塞
type DocLocker interface {
	// Lock 锁定文档，返回解锁函数
	Lock(documentID string) (unlock func())
}

// RestorePointRepository 恢复点仓储接口
type RestorePointRepository interface {
	// Save 保存恢复点
	Save(ctx context.Context, point *RestorePoint) error

	// FindByID 跨所有文档按 ID 查找，不存在返回 ErrRestorePointNotFound
	FindByID(ctx context.Context, id string) (*RestorePoint, error)

	// ListByDocument 列出文档的恢复点（按创建时间升序）
	ListByDocument(ctx context.Context, documentID string) ([]*RestorePoint, error)

	// Delete 删除恢复点
	Delete(ctx context.Context, id string) error
}
