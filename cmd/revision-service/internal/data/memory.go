package data

import (
	"context"
	"sync"

	"sopassistant/cmd/revision-service/internal/domain"
)

// DocLocks 按文档 ID 分配的互斥锁，不同文档互不阻塞
type DocLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDocLocks 创建文档级写锁
func NewDocLocks() domain.DocLocker {
	return &DocLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock 锁定文档并返回解锁函数
func (l *DocLocks) Lock(documentID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[documentID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[documentID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// MemoryHistoryRepository 进程内版本历史仓储
// 跨 Get/Save 的读改写序列由调用方持有 DocLocks 串行化
type MemoryHistoryRepository struct {
	mu        sync.RWMutex
	histories map[string]*domain.VersionHistory
}

// NewMemoryHistoryRepository 创建内存版本历史仓储
func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return &MemoryHistoryRepository{
		histories: make(map[string]*domain.VersionHistory),
	}
}

// GetHistory 获取版本历史
func (r *MemoryHistoryRepository) GetHistory(ctx context.Context, documentID string) (*domain.VersionHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history, ok := r.histories[documentID]
	if !ok {
		return nil, domain.ErrHistoryNotFound
	}
	return history, nil
}

// SaveHistory 保存版本历史
func (r *MemoryHistoryRepository) SaveHistory(ctx context.Context, history *domain.VersionHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.histories[history.DocumentID] = history
	return nil
}

// GetVersion 按版本号获取版本
func (r *MemoryHistoryRepository) GetVersion(ctx context.Context, documentID string, number domain.SemanticVersion) (*domain.Version, error) {
	history, err := r.GetHistory(ctx, documentID)
	if err != nil {
		return nil, err
	}

	version := history.Find(number)
	if version == nil {
		return nil, domain.ErrVersionNotFound
	}
	return version, nil
}

// ListVersions 分页列出版本（版本号升序）
func (r *MemoryHistoryRepository) ListVersions(ctx context.Context, documentID string, limit, offset int) ([]*domain.Version, int, error) {
	history, err := r.GetHistory(ctx, documentID)
	if err != nil {
		return nil, 0, err
	}

	total := len(history.Versions)
	if offset >= total {
		return []*domain.Version{}, total, nil
	}

	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	return history.Versions[offset:end], total, nil
}

// MemoryRestorePointRepository 进程内恢复点仓储
type MemoryRestorePointRepository struct {
	mu    sync.RWMutex
	byDoc map[string][]*domain.RestorePoint // 创建时间升序
	byID  map[string]*domain.RestorePoint
}

// NewMemoryRestorePointRepository 创建内存恢复点仓储
func NewMemoryRestorePointRepository() *MemoryRestorePointRepository {
	return &MemoryRestorePointRepository{
		byDoc: make(map[string][]*domain.RestorePoint),
		byID:  make(map[string]*domain.RestorePoint),
	}
}

// Save 保存恢复点
func (r *MemoryRestorePointRepository) Save(ctx context.Context, point *domain.RestorePoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byDoc[point.DocumentID] = append(r.byDoc[point.DocumentID], point)
	r.byID[point.ID] = point
	return nil
}

// FindByID 跨所有文档按 ID 查找
func (r *MemoryRestorePointRepository) FindByID(ctx context.Context, id string) (*domain.RestorePoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	point, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrRestorePointNotFound
	}
	return point, nil
}

// ListByDocument 列出文档的恢复点（创建时间升序）
func (r *MemoryRestorePointRepository) ListByDocument(ctx context.Context, documentID string) ([]*domain.RestorePoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	points := r.byDoc[documentID]
	out := make([]*domain.RestorePoint, len(points))
	copy(out, points)
	return out, nil
}

// Delete 删除恢复点
func (r *MemoryRestorePointRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	point, ok := r.byID[id]
	if !ok {
		return domain.ErrRestorePointNotFound
	}
	delete(r.byID, id)

	points := r.byDoc[point.DocumentID]
	for i, p := range points {
		if p.ID == id {
			r.byDoc[point.DocumentID] = append(points[:i], points[i+1:]...)
			break
		}
	}
	return nil
}
