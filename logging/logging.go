// Package logging defines the Logger interface used throughout stakequorum.
// The log level can be set globally, or per named component, and may be
// changed at runtime.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface used by the quorum core.
// It is based on zap.SugaredLogger.
type Logger interface {
	DPanic(args ...interface{})
	DPanicf(template string, args ...interface{})
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Panic(args ...interface{})
	Panicf(template string, args ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
}

var (
	mut          sync.Mutex
	globalLevel  = zap.InfoLevel
	nameLevels   = make(map[string]zapcore.Level)
	levelHandles = make(map[string][]zap.AtomicLevel)
)

func parseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		panic("invalid log level '" + level + "'")
	}
	return l
}

// SetLogLevel sets the log level for all loggers without a per-name level.
func SetLogLevel(levelStr string) {
	level := parseLevel(levelStr)
	mut.Lock()
	defer mut.Unlock()
	globalLevel = level
	for name, handles := range levelHandles {
		if _, ok := nameLevels[name]; ok {
			continue
		}
		for _, h := range handles {
			h.SetLevel(level)
		}
	}
}

// SetPackageLogLevel sets a log level for the named logger,
// overriding the global level.
func SetPackageLogLevel(name, levelStr string) {
	level := parseLevel(levelStr)
	mut.Lock()
	defer mut.Unlock()
	nameLevels[name] = level
	for _, h := range levelHandles[name] {
		h.SetLevel(level)
	}
}

func register(name string) zap.AtomicLevel {
	mut.Lock()
	defer mut.Unlock()
	level := globalLevel
	if l, ok := nameLevels[name]; ok {
		level = l
	}
	handle := zap.NewAtomicLevelAt(level)
	levelHandles[name] = append(levelHandles[name], handle)
	return handle
}

// New returns a named logger that writes to stderr.
// Set STAKEQUORUM_LOG_TYPE=json for JSON output.
func New(name string) Logger {
	handle := register(name)
	var config zap.Config
	if strings.ToLower(os.Getenv("STAKEQUORUM_LOG_TYPE")) == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}
	config.Level = handle
	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	return l.Sugar().Named(name)
}

// NewWithDest returns a named logger that writes to the given destination.
func NewWithDest(dest io.Writer, name string) Logger {
	handle := register(name)
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(dest),
		handle,
	)
	return zap.New(core, zap.AddCallerSkip(1)).Sugar().Named(name)
}
