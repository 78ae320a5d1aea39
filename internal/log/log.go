// Package log provides the structured, category-tagged logger used across
// the catalog. A Logger is built once at start-up and handed to the
// components that need it.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/georgekorob/patterns-project/internal/pubsub"
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

// ParseLevel maps a config string ("debug", "info", "warn", "error") to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Category groups related log messages.
type Category string

const (
	CatDB      Category = "db"      // Connection, pragmas, migrations
	CatMapper  Category = "mapper"  // Row <-> object translation
	CatUoW     Category = "uow"     // Unit of work registration and commit
	CatCatalog Category = "catalog" // Catalog service operations
	CatConfig  Category = "config"  // Configuration loading/saving
	CatCache   Category = "cache"   // Cache hits, misses, invalidation
	CatWatcher Category = "watcher" // Database file watcher
	CatCLI     Category = "cli"     // Command dispatch
)

// Logger writes "timestamp [LEVEL] [category] message k=v" lines.
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	closer   io.Closer
	enabled  bool
	minLevel Level
	broker   *pubsub.Broker[string]
	now      func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithLevel sets the minimum level written.
func WithLevel(level Level) Option {
	return func(l *Logger) { l.minLevel = level }
}

// WithEnabled turns output on or off.
func WithEnabled(enabled bool) Option {
	return func(l *Logger) { l.enabled = enabled }
}

// New creates a logger writing to w.
func New(w io.Writer, opts ...Option) *Logger {
	l := &Logger{
		writer:   w,
		enabled:  true,
		minLevel: LevelInfo,
		broker:   pubsub.NewBroker[string](),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open creates a logger appending to the file at path.
// Close releases the file.
func Open(path string, opts ...Option) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G304: path comes from config
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	l := New(f, opts...)
	l.closer = f
	return l, nil
}

// Nop returns a disabled logger.
func Nop() *Logger {
	return New(io.Discard, WithEnabled(false))
}

// Close releases the underlying file (if any) and the event broker.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.broker.Close()
	if l.closer != nil {
		err := l.closer.Close()
		l.closer = nil
		return err
	}
	return nil
}

// SetEnabled toggles logging on/off.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	l.enabled = enabled
	l.mu.Unlock()
}

// SetMinLevel sets the minimum log level.
func (l *Logger) SetMinLevel(level Level) {
	l.mu.Lock()
	l.minLevel = level
	l.mu.Unlock()
}

// Debug logs at debug level.
func (l *Logger) Debug(cat Category, msg string, fields ...any) {
	l.log(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func (l *Logger) Info(cat Category, msg string, fields ...any) {
	l.log(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func (l *Logger) Warn(cat Category, msg string, fields ...any) {
	l.log(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func (l *Logger) Error(cat Category, msg string, fields ...any) {
	l.log(LevelError, cat, msg, fields...)
}

// ErrorErr logs an error with the error value.
func (l *Logger) ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	l.log(LevelError, cat, msg, fields...)
}

func (l *Logger) log(level Level, cat Category, msg string, fields ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled || level < l.minLevel {
		return
	}

	// Format: 2025-12-06T10:45:00 [ERROR] [db] message key=value key2=value2
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", l.now().Format("2006-01-02T15:04:05"), level, cat, msg)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", fields[len(fields)-1])
	}
	b.WriteByte('\n')
	entry := b.String()

	if l.writer != nil {
		_, _ = io.WriteString(l.writer, entry)
	}
	l.broker.Publish(pubsub.CreatedEvent, entry)
}

// NewListener subscribes to every line this logger writes until ctx is done.
func (l *Logger) NewListener(ctx context.Context) *pubsub.Listener[string] {
	return pubsub.NewListener(ctx, l.broker)
}
