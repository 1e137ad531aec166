package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the different logging levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
)

var levels = [...]struct {
	name string
	zap  zapcore.Level
}{
	DEBUG:   {"DEBUG", zapcore.DebugLevel},
	INFO:    {"INFO", zapcore.InfoLevel},
	WARNING: {"WARNING", zapcore.WarnLevel},
	ERROR:   {"ERROR", zapcore.ErrorLevel},
}

func (l LogLevel) String() string {
	if l < DEBUG || l > ERROR {
		return "UNKNOWN"
	}
	return levels[l].name
}

func (l LogLevel) zapLevel() zapcore.Level {
	if l < DEBUG || l > ERROR {
		return zapcore.InfoLevel
	}
	return levels[l].zap
}

func fromZap(z zapcore.Level) LogLevel {
	for l, entry := range levels {
		if entry.zap == z {
			return LogLevel(l)
		}
	}
	return INFO
}

// ParseLogLevel maps a level name (any case; "warn" is accepted) to a
// LogLevel. Unknown names give INFO.
func ParseLogLevel(level string) LogLevel {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}

	var z zapcore.Level
	if err := z.UnmarshalText([]byte(name)); err != nil {
		return INFO
	}
	return fromZap(z)
}

// Logger is a leveled printf-style logger on top of zap. Loggers derived
// with With share the level of their parent.
type Logger struct {
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
}

var (
	mu     sync.RWMutex
	global *Logger
)

// New builds a logger writing console lines to output (stdout when nil)
func New(level LogLevel, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	atom := zap.NewAtomicLevelAt(level.zapLevel())
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(output), atom)

	return &Logger{level: atom, sugar: zap.New(core).Sugar()}
}

// Init replaces the global logger
func Init(level LogLevel, output io.Writer) {
	l := New(level, output)

	mu.Lock()
	global = l
	mu.Unlock()
}

// GetLogger returns the global logger, creating an INFO one on stdout if
// Init was never called.
func GetLogger() *Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		global = New(INFO, os.Stdout)
	}
	return global
}

// SetLevel changes the level of the global logger and its children
func SetLevel(level LogLevel) {
	GetLogger().level.SetLevel(level.zapLevel())
}

// GetLevel returns the level of the global logger
func GetLevel() LogLevel {
	return fromZap(GetLogger().level.Level())
}

// IsDebugEnabled reports whether debug lines are written
func IsDebugEnabled() bool {
	return GetLevel() == DEBUG
}

// With returns a child logger carrying the given key-value pairs
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{level: l.level, sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(format string, v ...interface{})   { l.sugar.Debugf(format, v...) }
func (l *Logger) Info(format string, v ...interface{})    { l.sugar.Infof(format, v...) }
func (l *Logger) Warning(format string, v ...interface{}) { l.sugar.Warnf(format, v...) }
func (l *Logger) Error(format string, v ...interface{})   { l.sugar.Errorf(format, v...) }

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func Debug(format string, v ...interface{})   { GetLogger().Debug(format, v...) }
func Info(format string, v ...interface{})    { GetLogger().Info(format, v...) }
func Warning(format string, v ...interface{}) { GetLogger().Warning(format, v...) }
func Error(format string, v ...interface{})   { GetLogger().Error(format, v...) }

// With returns a child of the global logger carrying the given fields
func With(keysAndValues ...interface{}) *Logger {
	return GetLogger().With(keysAndValues...)
}
