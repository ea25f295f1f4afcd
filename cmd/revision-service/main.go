package main

import (
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"sopassistant/cmd/revision-service/internal/conf"
	"sopassistant/cmd/revision-service/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var configFile = flag.String("config", "", "配置文件路径")

// App 应用程序
type App struct {
	Service *service.RevisionService
	logger  *log.Helper
}

func newApp(svc *service.RevisionService, logger log.Logger) *App {
	return &App{
		Service: svc,
		logger:  log.NewHelper(logger),
	}
}

func main() {
	flag.Parse()

	config, err := conf.Load(*configFile)
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initZap(config.Log)
	if err != nil {
		stdlog.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	logger := log.With(NewZapLogger(zapLogger),
		"service", config.Service.Name,
		"version", config.Service.Version,
	)

	app, cleanup, err := initApp(config, logger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize app", zap.Error(err))
	}
	defer cleanup()

	app.logger.Infof("revision engine ready (env=%s, db=%v, redis=%v)",
		config.Service.Environment, config.Database.Enabled, config.Redis.Enabled)

	// 引擎以进程内库形态被宿主消费，此处仅等待停止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.logger.Info("shutting down")
}

// initZap 按配置构建 zap 日志器
func initZap(c conf.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapConfig := zap.NewProductionConfig()
	if c.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	return zapConfig.Build()
}
