// logging.go — Structured component logger.
// Writes lines of the form "[<component>] [<level>] <message> <meta-json>".
// Metadata is sanitized (see sanitize.go) before serialization so secrets and
// oversized payloads never reach the log sink.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Level is a log severity. Messages below the logger's level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// maxLineJSON caps the serialized metadata appended to a log line.
const maxLineJSON = 4000

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel maps a level name to a Level. Unknown names default to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes structured log lines for a single component.
// Safe for concurrent use; all writes go through one mutex so lines from
// parallel requests never interleave.
type Logger struct {
	component string
	level     Level
	mu        *sync.Mutex
	out       io.Writer
}

// New creates a logger for the given component writing to stderr. The level
// is a name like "debug" or "warn"; unknown names default to info.
func New(component, level string) *Logger {
	return NewWithWriter(component, level, os.Stderr)
}

// NewWithWriter creates a logger with an explicit sink (tests use a buffer).
func NewWithWriter(component, level string, out io.Writer) *Logger {
	return &Logger{component: component, level: ParseLevel(level), mu: &sync.Mutex{}, out: out}
}

// Named returns a logger for a sub-component sharing the sink and level.
func (l *Logger) Named(component string) *Logger {
	return &Logger{component: component, level: l.level, mu: l.mu, out: l.out}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, meta map[string]any) { l.log(LevelDebug, msg, meta) }

// Info logs at info level.
func (l *Logger) Info(msg string, meta map[string]any) { l.log(LevelInfo, msg, meta) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, meta map[string]any) { l.log(LevelWarn, msg, meta) }

// Error logs at error level.
func (l *Logger) Error(msg string, meta map[string]any) { l.log(LevelError, msg, meta) }

func (l *Logger) log(level Level, msg string, meta map[string]any) {
	if l == nil || level < l.level {
		return
	}

	line := fmt.Sprintf("[%s] [%s] %s", l.component, level, msg)
	if len(meta) > 0 {
		sanitized := Sanitize(meta)
		data, err := json.Marshal(sanitized)
		if err != nil {
			data = []byte(`{"sanitize_error":"metadata not serializable"}`)
		}
		text := string(data)
		if len(text) > maxLineJSON {
			text = text[:maxLineJSON] + "...[truncated]"
		}
		line += " " + text
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, line)
}
