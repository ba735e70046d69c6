package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
)

type contextKey struct{}

var (
	loggerKey       = contextKey{}
	defaultLogger   *slog.Logger
	defaultLoggerMu sync.RWMutex
)

func init() {
	defaultLogger = New("info", os.Stdout)
}

// parseLevel converts a string level to slog.Level
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		defaultLogger.Warn("invalid log level", "level", level)
		return slog.LevelInfo
	}
}

// Format selects the log output encoding
type Format string

const (
	// FormatConsole is the colored human readable output for terminals
	FormatConsole Format = "console"
	// FormatJSON emits one JSON object per line for log collectors
	FormatJSON Format = "json"
)

// NewWithFormat creates a logger for the given format and level
func NewWithFormat(format Format, level string, w io.Writer) (*slog.Logger, error) {
	switch format {
	case FormatConsole, "":
		return New(level, w), nil
	case FormatJSON:
		return NewJSON(level, w), nil
	default:
		return nil, goerr.New("unknown log format", goerr.V("format", format))
	}
}

// NewJSON creates a JSON logger. goerr values are expanded into their
// message and attached values.
func NewJSON(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if err, ok := attr.Value.Any().(error); ok {
				return ErrAttr(attr.Key, err)
			}
			return attr
		},
	})
	return slog.New(handler)
}

// ErrAttr converts err into a group attribute carrying the message and, for goerr
// errors, the values attached along the wrap chain.
func ErrAttr(key string, err error) slog.Attr {
	attrs := []any{slog.String("message", err.Error())}
	if goErr := goerr.Unwrap(err); goErr != nil && len(goErr.Values()) > 0 {
		var kv []any
		for k, v := range goErr.Values() {
			kv = append(kv, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("values", kv...))
	}
	return slog.Group(key, attrs...)
}

// New creates a new slog.Logger with the specified level string
// Accepts: "debug", "info", "warn", "warning", "error" (case-insensitive)
func New(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	// Force console output with colors
	handler := clog.New(
		clog.WithWriter(w),
		clog.WithLevel(parseLevel(level)),
		clog.WithTimeFmt("15:04:05"),
		clog.WithSource(false),
		clog.WithAttrHook(clog.GoerrHook),
	)

	return slog.New(handler)
}

// Default returns the default logger
func Default() *slog.Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger
func SetDefault(logger *slog.Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}

// With returns a new context with the logger attached
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// From retrieves the logger from the context
// If no logger is found, it returns the default logger
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return Default()
}
