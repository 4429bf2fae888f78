// Package common provides logging and configuration shared by the command line tool
package common

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lni/dragonboat/v4/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// isamLogger implements the ILogger interface on top of a zap SugaredLogger
type isamLogger struct {
	name   string
	level  logger.LogLevel
	logger *zap.SugaredLogger
}

func (l *isamLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *isamLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.logger.Debugf(format, args...)
	}
}

func (l *isamLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.logger.Infof(format, args...)
	}
}

func (l *isamLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.logger.Warnf(format, args...)
	}
}

func (l *isamLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.logger.Errorf(format, args...)
	}
}

func (l *isamLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		panic(fmt.Sprintf("%s: %s", l.name, fmt.Sprintf(format, args...)))
	}
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

var (
	baseMu    sync.Mutex
	base      *zap.Logger
	baseDebug bool
)

// encoderConfig renders lines as "<time> | LEVEL | package         | message"
func encoderConfig(development bool) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	if development {
		cfg = zap.NewDevelopmentEncoderConfig()
	}
	cfg.ConsoleSeparator = " | "
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	cfg.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(fmt.Sprintf("%-5s", level.CapitalString()))
	}
	cfg.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(fmt.Sprintf("%-15s", name))
	}
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	return cfg
}

// baseLogger returns the shared zap logger, building it on first use.
// Debug builds use zap's development config, everything else the production config.
func baseLogger() *zap.Logger {
	baseMu.Lock()
	defer baseMu.Unlock()

	if base != nil {
		return base
	}

	cfg := zap.NewProductionConfig()
	if baseDebug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Encoding = "console"
	cfg.EncoderConfig = encoderConfig(baseDebug)
	cfg.OutputPaths = []string{"stdout"}
	cfg.Sampling = nil
	// levels are filtered by the dragonboat logger
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	base = l
	return base
}

// CreateLogger implements the dragonboat logger Factory interface
func CreateLogger(pkgName string) logger.ILogger {
	return &isamLogger{
		name:   pkgName,
		level:  logger.INFO,
		logger: baseLogger().Named(pkgName).Sugar(),
	}
}

// SyncLoggers flushes buffered log entries
func SyncLoggers() {
	baseMu.Lock()
	defer baseMu.Unlock()
	if base != nil {
		_ = base.Sync()
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// Packages with their own logger
var loggedPackages = []string{"isam", "memjet", "cmd"}

// InitLoggers installs the zap backed factory and sets the level of all package loggers
func InitLoggers(config Config) error {
	level, err := ParseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}

	baseMu.Lock()
	if base != nil {
		_ = base.Sync()
	}
	base = nil
	baseDebug = level == logger.DEBUG
	baseMu.Unlock()

	// Set as the global logger factory for dragonboat
	logger.SetLoggerFactory(CreateLogger)

	for _, pkg := range loggedPackages {
		logger.GetLogger(pkg).SetLevel(level)
	}
	return nil
}
