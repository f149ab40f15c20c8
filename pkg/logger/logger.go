package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// Init installs the process-wide logger. format "json" writes JSON lines,
// anything else writes tint's human-readable text.
func Init(format, level string) {
	InitTo(os.Stdout, format, level)
}

// InitTo is Init with an explicit destination, e.g. stderr for commands
// whose stdout is their result.
func InitTo(w io.Writer, format, level string) {
	l := New(w, format, level)

	mu.Lock()
	defaultLogger = l
	mu.Unlock()

	slog.SetDefault(l)
}

// New builds a logger writing to w without touching the process default.
func New(w io.Writer, format, level string) *slog.Logger {
	lvl := ParseLevel(level)

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.DateTime,
			NoColor:    !isTerminal(w),
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == "error" && a.Value.Kind() == slog.KindAny {
					if err, ok := a.Value.Any().(error); ok {
						return tint.Err(err)
					}
				}
				return a
			},
		})
	}

	return slog.New(handler)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func LoggerWrapper() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	// lazy initialize a development logger to avoid nil pointer panics
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(os.Stdout, "text", "debug")
		slog.SetDefault(defaultLogger)
	}
	return defaultLogger
}
