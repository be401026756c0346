// Package logging builds the zap loggers used by both binaries.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where logs go
type Config struct {
	LogFile     string
	MaxSize     int // megabytes
	MaxAge      int // days
	MaxBackups  int
	Compress    bool
	Development bool
	// Console disables stdout output when false (the TUI owns the terminal)
	Console bool
}

// DefaultConfig returns the default logging configuration
func DefaultConfig() Config {
	return Config{
		LogFile:    "card-flip-checker.log",
		MaxSize:    50,
		MaxAge:     14,
		MaxBackups: 3,
		Compress:   true,
		Console:    true,
	}
}

// New builds a logger that tees a console encoder on stdout with a JSON
// encoder on a rotated file
func New(cfg Config) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	level := zapcore.InfoLevel
	if cfg.Development {
		level = zapcore.DebugLevel
	}

	var cores []zapcore.Core
	if cfg.Console {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), level))
	}
	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), level))
	}
	if len(cores) == 0 {
		return zap.NewNop()
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// Sync flushes the logger, ignoring the errors stdout returns on some terminals
func Sync(logger *zap.Logger) {
	_ = logger.Sync()
}
