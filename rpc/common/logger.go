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

// entityLogger implements the ILogger interface on top of a zap logger.
// The level is checked here, the zap core logs everything it is given.
type entityLogger struct {
	mu    sync.RWMutex
	name  string
	level logger.LogLevel
}

func (l *entityLogger) sugar() *zap.SugaredLogger {
	return base().Named(l.name).Sugar()
}

func (l *entityLogger) SetLevel(level logger.LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *entityLogger) enabled(level logger.LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level >= level
}

func (l *entityLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(logger.DEBUG) {
		l.sugar().Debugf(format, args...)
	}
}

func (l *entityLogger) Infof(format string, args ...interface{}) {
	if l.enabled(logger.INFO) {
		l.sugar().Infof(format, args...)
	}
}

func (l *entityLogger) Warningf(format string, args ...interface{}) {
	if l.enabled(logger.WARNING) {
		l.sugar().Warnf(format, args...)
	}
}

func (l *entityLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(logger.ERROR) {
		l.sugar().Errorf(format, args...)
	}
}

func (l *entityLogger) Panicf(format string, args ...interface{}) {
	l.sugar().Panicf(format, args...)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

var (
	baseMu      sync.Mutex
	baseLogger  *zap.Logger
	factoryOnce sync.Once
)

// newZapLogger builds the zap logger backing all package loggers.
// In debug mode a console encoder is used, otherwise the json production setup.
func newZapLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stdout"}
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		// only fails on invalid output paths
		return zap.NewNop()
	}
	return l
}

// base returns the zap logger all package loggers are derived from
func base() *zap.Logger {
	baseMu.Lock()
	defer baseMu.Unlock()
	if baseLogger == nil {
		baseLogger = newZapLogger(false)
	}
	return baseLogger
}

// CreateLogger creates a logger for a package (implements the dragonboat logger.Factory)
func CreateLogger(pkgName string) logger.ILogger {
	return &entityLogger{
		name:  pkgName,
		level: logger.INFO,
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
	case "info", "":
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

// LoggerNames lists the names of all package loggers
var LoggerNames = []string{"store", "rpc", "transport/rpc", "push"}

// InitLoggers installs the zap backed logger factory and sets the level of all package loggers
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	baseMu.Lock()
	baseLogger = newZapLogger(lvl == logger.DEBUG)
	baseMu.Unlock()

	// dragonboat only accepts the factory once
	factoryOnce.Do(func() { logger.SetLoggerFactory(CreateLogger) })
	for _, name := range LoggerNames {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}

// SyncLoggers flushes buffered log entries
func SyncLoggers() {
	_ = base().Sync()
}
