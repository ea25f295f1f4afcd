package main

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"go.uber.org/zap"
)

// ZapLogger 把 zap 适配为 kratos log.Logger
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger 创建 zap 适配器
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger}
}

// Log 实现 kratos log.Logger
func (l *ZapLogger) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 || len(keyvals)%2 != 0 {
		l.logger.Warn("malformed log keyvals", zap.Any("keyvals", keyvals))
		return nil
	}

	var msg string
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == log.DefaultMessageKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}

	switch level {
	case log.LevelDebug:
		l.logger.Debug(msg, fields...)
	case log.LevelWarn:
		l.logger.Warn(msg, fields...)
	case log.LevelError:
		l.logger.Error(msg, fields...)
	case log.LevelFatal:
		l.logger.Fatal(msg, fields...)
	default:
		l.logger.Info(msg, fields...)
	}

	return nil
}
