// session.go — Per-client MCP session state.
// A session binds a negotiated protocol version, the initialization handshake
// state, any open SSE streams, and the project document the client edits. All
// project mutations for a session run under its mutex, so tool calls against
// the same session serialize and the revision advances one commit at a time.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/ashfox/ashfox-mcp/internal/project"
)

// Session is one client's server-side state.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu              sync.Mutex
	protocolVersion string
	initialized     bool
	lastSeen        time.Time

	eventSeq    uint64
	nextSubID   uint64
	subscribers map[uint64]chan []byte

	project *project.Project
}

func newSession(id string, protocolVersion string, limits project.Limits, now time.Time) *Session {
	return &Session{
		ID:              id,
		CreatedAt:       now,
		protocolVersion: protocolVersion,
		lastSeen:        now,
		subscribers:     make(map[uint64]chan []byte),
		project:         project.New(limits, true),
	}
}

// newSessionID returns a 128-bit random hex identifier.
func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; fall back to a
		// timestamp so the server stays up rather than panics.
		return hex.EncodeToString([]byte(time.Now().Format("20060102150405.000000000")))[:32]
	}
	return hex.EncodeToString(buf)
}

// MarkInitialized records a completed initialize handshake.
func (s *Session) MarkInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
}

// Initialized reports whether the initialize handshake completed.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// ProtocolVersion returns the negotiated protocol version.
func (s *Session) ProtocolVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.protocolVersion
}

// SetProtocolVersion overwrites the negotiated version. Used when a client
// re-initializes an existing session.
func (s *Session) SetProtocolVersion(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protocolVersion = v
}

// Touch refreshes the idle clock.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// LastSeen returns the time of the most recent request on this session.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// WithProject runs fn with exclusive access to the session's project. Every
// read and mutation of project state goes through here so concurrent tool
// calls on one session observe a consistent revision.
func (s *Session) WithProject(fn func(p *project.Project) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.project)
}
