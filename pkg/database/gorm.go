package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Config 数据库配置
type Config struct {
	Driver   string
	Source   string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// 连接池配置
	MaxIdleConns    int           // 默认 10
	MaxOpenConns    int           // 默认 100
	ConnMaxLifetime time.Duration // 默认 1 小时
	ConnMaxIdleTime time.Duration // 默认 15 分钟

	// 健康检查超时，默认 5 秒
	HealthCheckTimeout time.Duration
}

// NewDB 创建数据库连接并完成健康检查
func NewDB(c *Config, logger log.Logger) (*gorm.DB, error) {
	logHelper := log.NewHelper(logger)

	dsn := c.Source
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
		)
	}

	// 安全日志：不记录密码
	logHelper.Infof("connecting to database: host=%s:%d database=%s user=%s",
		c.Host, c.Port, c.Database, c.User)

	var dialector gorm.Dialector
	switch c.Driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	maxIdleConns := c.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 10
	}
	maxOpenConns := c.MaxOpenConns
	if maxOpenConns == 0 {
		maxOpenConns = 100
	}
	connMaxLifetime := c.ConnMaxLifetime
	if connMaxLifetime == 0 {
		connMaxLifetime = time.Hour
	}
	connMaxIdleTime := c.ConnMaxIdleTime
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 15 * time.Minute
	}

	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	healthCheckTimeout := c.HealthCheckTimeout
	if healthCheckTimeout == 0 {
		healthCheckTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	logHelper.Info("database connected and health check passed")
	return db, nil
}
