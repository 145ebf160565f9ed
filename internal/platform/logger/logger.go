package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger *zap.Logger

// Init builds the process-wide logger shared by the planner, its adapters and
// the HTTP layer. APP_ENV=production selects JSON output for log shipping;
// local runs get colored console output. LOG_LEVEL overrides the preset
// level when it parses.
func Init(environment string, level string) error {
	var config zap.Config

	if environment == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if l, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(l)
	}

	logger, err := config.Build()
	if err != nil {
		return err
	}

	globalLogger = logger
	return nil
}

// Get returns the shared logger. Tests and tools that never call Init get a
// no-op logger, so packages can log unconditionally.
func Get() *zap.Logger {
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// Sync flushes buffered entries; call it once before the server exits.
func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}
