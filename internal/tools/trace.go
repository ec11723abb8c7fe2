// trace.go — Per-call trace recording.
// Keeps a bounded ring of recent tool calls for debugging and logs each entry
// at debug level. Entries carry uuid ids so log lines can be correlated with
// client-side traces.
package tools

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashfox/ashfox-mcp/internal/logging"
)

const traceCapacity = 256

// TraceEntry records one completed tool call.
type TraceEntry struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	Revision   string    `json:"revision"`
	DurationMs float64   `json:"durationMs"`
	OK         bool      `json:"ok"`
	At         time.Time `json:"at"`
}

// TraceRecorder stores the most recent tool calls.
type TraceRecorder struct {
	mu      sync.Mutex
	entries []TraceEntry
	next    int
	full    bool
	log     *logging.Logger
}

// NewTraceRecorder creates a recorder logging through the given logger.
func NewTraceRecorder(log *logging.Logger) *TraceRecorder {
	return &TraceRecorder{entries: make([]TraceEntry, traceCapacity), log: log}
}

// Record appends a trace entry.
func (t *TraceRecorder) Record(tool, revision string, duration time.Duration, ok bool) {
	entry := TraceEntry{
		ID:         uuid.NewString(),
		Tool:       tool,
		Revision:   revision,
		DurationMs: float64(duration.Microseconds()) / 1000,
		OK:         ok,
		At:         time.Now(),
	}

	t.mu.Lock()
	t.entries[t.next] = entry
	t.next = (t.next + 1) % traceCapacity
	if t.next == 0 {
		t.full = true
	}
	t.mu.Unlock()

	t.log.Debug("tool call", map[string]any{
		"traceId":    entry.ID,
		"tool":       tool,
		"revision":   revision,
		"durationMs": entry.DurationMs,
		"ok":         ok,
	})
}

// Entries returns recorded entries oldest first.
func (t *TraceRecorder) Entries() []TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.full {
		out := make([]TraceEntry, t.next)
		copy(out, t.entries[:t.next])
		return out
	}
	out := make([]TraceEntry, 0, traceCapacity)
	out = append(out, t.entries[t.next:]...)
	out = append(out, t.entries[:t.next]...)
	return out
}
