package data

import (
	"sopassistant/cmd/revision-service/internal/conf"
	"sopassistant/cmd/revision-service/internal/domain"
	"sopassistant/pkg/cache"
	"sopassistant/pkg/database"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"gorm.io/gorm"
)

// ProviderSet data 层依赖注入
var ProviderSet = wire.NewSet(
	NewData,
	NewDocLocks,
	NewHistoryRepositoryFromData,
	NewRestorePointRepositoryFromData,
)

// Data 数据层资源集合
type Data struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *log.Helper
}

// NewData 按配置装配数据层资源
// 未启用数据库时 db 为 nil，仓储退化为进程内实现
func NewData(c *conf.Config, logger log.Logger) (*Data, func(), error) {
	logHelper := log.NewHelper(log.With(logger, "module", "data"))

	d := &Data{logger: logHelper}

	if c.Database.Enabled {
		db, err := database.NewDB(&database.Config{
			Driver:   c.Database.Driver,
			Source:   c.Database.Source,
			Host:     c.Database.Host,
			Port:     c.Database.Port,
			User:     c.Database.User,
			Password: c.Database.Password,
			Database: c.Database.DBName,
			SSLMode:  c.Database.SSLMode,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		d.db = db
	}

	if c.Redis.Enabled {
		d.cache = cache.NewRedisCache(c.Redis.Addr, c.Redis.Password, c.Redis.DB, &cache.Options{
			DefaultTTL: c.Redis.DefaultTTL,
			KeyPrefix:  "sopassistant",
			Serializer: &cache.JSONSerializer{},
		})
	}

	cleanup := func() {
		logHelper.Info("closing data resources")
		if d.cache != nil {
			if err := d.cache.Close(); err != nil {
				logHelper.Errorf("failed to close cache: %v", err)
			}
		}
		if d.db != nil {
			if sqlDB, err := d.db.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					logHelper.Errorf("failed to close database: %v", err)
				}
			}
		}
	}

	return d, cleanup, nil
}

// NewHistoryRepositoryFromData 选择版本历史仓储实现：
// 数据库启用时走 gorm，否则进程内；Redis 启用时叠加统计缓存
func NewHistoryRepositoryFromData(d *Data, logger log.Logger) domain.VersionHistoryRepository {
	var repo domain.VersionHistoryRepository
	if d.db != nil {
		repo = NewHistoryRepository(d.db)
	} else {
		repo = NewMemoryHistoryRepository()
	}

	if d.cache != nil {
		repo = NewCachedHistoryRepository(repo, d.cache, logger)
	}
	return repo
}

// NewRestorePointRepositoryFromData 选择恢复点仓储实现
func NewRestorePointRepositoryFromData(d *Data) domain.RestorePointRepository {
	if d.db != nil {
		return NewRestorePointRepository(d.db)
	}
	return NewMemoryRestorePointRepository()
}
