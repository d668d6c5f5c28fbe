package logs

import (
	"context"

	"github.com/google/uuid"
)

// LogLevel is the minimum severity a logger emits.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// Logger is the unified logging surface. Format-string style; the Ctx
// variants carry a per-request log ID through the context.
type Logger interface {
	SetLevel(level LogLevel)
	GetLevel() LogLevel

	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	Fatal(format string, v ...interface{})

	CtxDebug(ctx context.Context, format string, v ...interface{})
	CtxInfo(ctx context.Context, format string, v ...interface{})
	CtxWarn(ctx context.Context, format string, v ...interface{})
	CtxError(ctx context.Context, format string, v ...interface{})
	CtxFatal(ctx context.Context, format string, v ...interface{})

	Flush()
}

type ctxKey string

const ctxKeyLogID ctxKey = "log_id"

// Options configures the process-wide logger.
type Options struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     string // stdout, file, both
	File       string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

var logger Logger = newDefaultLogger()

// SetLogger replaces the global logger. Not concurrent-safe; call during
// startup only.
func SetLogger(l Logger) {
	if l == nil {
		return
	}
	logger = l
}

func DefaultLogger() Logger { return logger }

// Init builds a logger from the given options and installs it globally.
func Init(opts Options) error {
	l, err := newConfiguredLogger(opts)
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

func SetLogLevel(level LogLevel) { logger.SetLevel(level) }

func Debug(format string, v ...interface{}) { logger.Debug(format, v...) }
func Info(format string, v ...interface{})  { logger.Info(format, v...) }
func Warn(format string, v ...interface{})  { logger.Warn(format, v...) }
func Error(format string, v ...interface{}) { logger.Error(format, v...) }
func Fatal(format string, v ...interface{}) { logger.Fatal(format, v...) }

func CtxDebug(ctx context.Context, format string, v ...interface{}) { logger.CtxDebug(ctx, format, v...) }
func CtxInfo(ctx context.Context, format string, v ...interface{})  { logger.CtxInfo(ctx, format, v...) }
func CtxWarn(ctx context.Context, format string, v ...interface{})  { logger.CtxWarn(ctx, format, v...) }
func CtxError(ctx context.Context, format string, v ...interface{}) { logger.CtxError(ctx, format, v...) }
func CtxFatal(ctx context.Context, format string, v ...interface{}) { logger.CtxFatal(ctx, format, v...) }

func Flush() { logger.Flush() }

// NewLogID returns a fresh request-scoped log ID.
func NewLogID() string { return uuid.New().String() }

// GetLogID extracts the log ID from ctx, if any.
func GetLogID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	logID, _ := ctx.Value(ctxKeyLogID).(string)
	return logID
}

// SetLogID attaches a log ID to the context.
func SetLogID(ctx context.Context, logID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKeyLogID, logID)
}
