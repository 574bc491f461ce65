package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New builds the process logger. JSON output uses the production encoder with
// ISO8601 timestamps; console output uses zap's development config.
func New(format string, debugMode bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if debugMode {
		level = zapcore.DebugLevel
	}

	switch format {
	case "", FormatJSON:
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		config.Encoding = FormatJSON
		config.EncoderConfig = zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}
		// Panic recovery attaches its own stack field.
		config.DisableStacktrace = true
		return config.Build()
	case FormatConsole:
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		config.DisableStacktrace = true
		return config.Build()
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
}

// Sync flushes buffered entries. Safe to call with a nil logger.
func Sync(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	return logger.Sync()
}
