package config

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger строит zap-логгер по LOG_LEVEL. На debug включается
// цветной dev-вывод, иначе production JSON.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level := parseLogLevel(cfg.Level)

	zc := loggerConfig(level)
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.CallerKey = "caller"
	zc.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	return zc.Build()
}

func loggerConfig(level zapcore.Level) zap.Config {
	if level == zapcore.DebugLevel {
		zc := zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zc
	}

	zc := zap.NewProductionConfig()
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc
}

func parseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
