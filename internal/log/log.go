// Package log provides structured logging for arbor.
// Entries are written as "timestamp [LEVEL] [category] msg k=v" lines to a
// debug file (enabled via --debug or ARBOR_DEBUG) and published on a broker
// so the log panel and log pane can tail them.
package log

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/arbor/internal/pubsub"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name, case-insensitively. An empty name is
// LevelDebug.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "", "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelDebug, fmt.Errorf("unknown log level %q", name)
}

// Category groups related log messages.
type Category string

const (
	CatSet          Category = "set"          // Renderable set membership
	CatRegistration Category = "registration" // Registration activate/terminate
	CatProjector    Category = "projector"    // Root projector lifecycle and render passes
	CatLifecycle    Category = "lifecycle"    // Host activation, ticks, termination
	CatEngine       Category = "engine"       // Render engines (dom, tui)
	CatScene        Category = "scene"        // Scene loading and reloads
	CatConfig       Category = "config"       // Configuration loading/saving
	CatCache        Category = "cache"        // cache operations
	CatMetrics      Category = "metrics"      // Metrics server
)

// LogEvent is a published log entry, newline included.
type LogEvent = pubsub.Event[string]

// Logger writes entries to one writer and publishes them.
type Logger struct {
	mu       sync.Mutex
	w        io.Writer
	enabled  bool
	minLevel Level
	broker   *pubsub.Broker[string]
}

var std atomic.Pointer[Logger]

func newLogger(w io.Writer) *Logger {
	return &Logger{w: w, enabled: true, minLevel: LevelDebug, broker: pubsub.NewBroker[string]()}
}

// InitWithTeaLog opens path with tea.LogToFile, which also points the
// standard library logger at it with prefix. The returned function closes
// the file.
func InitWithTeaLog(path string, prefix string) (func(), error) {
	f, err := tea.LogToFile(path, prefix)
	if err != nil {
		return nil, err
	}
	l := newLogger(f)
	std.Store(l)
	return func() {
		l.broker.Close()
		_ = f.Close()
	}, nil
}

// InitWithWriter routes entries to w. The returned function restores the
// previous logger.
func InitWithWriter(w io.Writer) func() {
	l := newLogger(w)
	prev := std.Swap(l)
	return func() {
		l.broker.Close()
		std.Store(prev)
	}
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if l := std.Load(); l != nil {
		l.mu.Lock()
		l.enabled = enabled
		l.mu.Unlock()
	}
}

// SetMinLevel drops entries below level.
func SetMinLevel(level Level) {
	if l := std.Load(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	std.Load().log(LevelDebug, cat, msg, fields)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	std.Load().log(LevelInfo, cat, msg, fields)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	std.Load().log(LevelWarn, cat, msg, fields)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	std.Load().log(LevelError, cat, msg, fields)
}

// ErrorErr logs at error level with err as the trailing "error" field.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	value := "<nil>"
	if err != nil {
		value = err.Error()
	}
	std.Load().log(LevelError, cat, msg, append(fields, "error", value))
}

// Subscribe returns a channel of entries logged after the call, closed when
// ctx is done. It returns nil when no logger is installed.
func Subscribe(ctx context.Context) <-chan LogEvent {
	l := std.Load()
	if l == nil {
		return nil
	}
	return l.broker.Subscribe(ctx)
}

func (l *Logger) log(level Level, cat Category, msg string, fields []any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled || level < l.minLevel {
		return
	}

	entry := format(time.Now(), level, cat, msg, fields)
	if l.w != nil {
		_, _ = io.WriteString(l.w, entry)
	}
	l.broker.Publish(pubsub.LoggedEvent, entry)
}

// format renders one entry. An orphan trailing key gets "<missing>".
func format(now time.Time, level Level, cat Category, msg string, fields []any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", now.Format("2006-01-02T15:04:05"), level, cat, msg)
	for i := 0; i < len(fields); i += 2 {
		value := "<missing>"
		if i+1 < len(fields) {
			value = fmt.Sprint(fields[i+1])
		}
		fmt.Fprintf(&b, " %v=%s", fields[i], quote(value))
	}
	b.WriteByte('\n')
	return b.String()
}

// quote keeps values with spaces or '=' on one parseable token.
func quote(v string) string {
	if v == "" || strings.ContainsAny(v, " \t\n=\"") {
		return strconv.Quote(v)
	}
	return v
}
