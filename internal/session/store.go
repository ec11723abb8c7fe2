// store.go — Session registry with idle expiry.
// Sessions are keyed by the Mcp-Session-Id header value. Idle sessions are
// pruned lazily on access rather than by a background goroutine, at most once
// per minute, and a session with an open SSE stream is never pruned no matter
// how long since its last request.
package session

import (
	"sync"
	"time"

	"github.com/ashfox/ashfox-mcp/internal/logging"
	"github.com/ashfox/ashfox-mcp/internal/project"
)

const (
	// DefaultTTL is how long an idle session survives without traffic.
	DefaultTTL = 30 * time.Minute

	// pruneInterval is the minimum spacing between prune passes.
	pruneInterval = time.Minute
)

// Store holds all live sessions.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	ttl       time.Duration
	limits    project.Limits
	lastPrune time.Time
	log       *logging.Logger
}

// NewStore creates a session registry. ttl <= 0 disables idle expiry.
func NewStore(ttl time.Duration, log *logging.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		limits:   project.DefaultLimits(),
		log:      log,
	}
}

// Create mints a new session with a fresh random id.
func (st *Store) Create(protocolVersion string) *Session {
	now := time.Now()
	sess := newSession(newSessionID(), protocolVersion, st.limits, now)

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	total := len(st.sessions)
	st.mu.Unlock()

	st.log.Debug("session created", map[string]any{"sessionId": sess.ID, "total": total})
	st.maybePrune(now)
	return sess
}

// Get looks up a session and refreshes its idle clock.
func (st *Store) Get(id string) (*Session, bool) {
	now := time.Now()
	st.maybePrune(now)

	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		sess.Touch(now)
	}
	return sess, ok
}

// Delete removes a session. Returns false when the id is unknown.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	if ok {
		// Wake any streams still attached so their handlers unwind.
		sess.mu.Lock()
		for subID, ch := range sess.subscribers {
			delete(sess.subscribers, subID)
			close(ch)
		}
		sess.mu.Unlock()
		st.log.Debug("session deleted", map[string]any{"sessionId": id})
	}
	return ok
}

// Broadcast publishes an encoded notification to every open SSE stream of
// every session.
func (st *Store) Broadcast(data []byte) {
	st.mu.RLock()
	sessions := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	st.mu.RUnlock()

	for _, s := range sessions {
		s.Publish(data)
	}
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *Store) maybePrune(now time.Time) {
	if st.ttl <= 0 {
		return
	}
	st.mu.Lock()
	due := now.Sub(st.lastPrune) >= pruneInterval
	if due {
		st.lastPrune = now
	}
	st.mu.Unlock()
	if !due {
		return
	}
	if n := st.PruneExpired(now); n > 0 {
		st.log.Info("pruned idle sessions", map[string]any{"count": n})
	}
}

// PruneExpired drops sessions idle past the TTL. Sessions with open SSE
// streams are kept regardless of idle time.
func (st *Store) PruneExpired(now time.Time) int {
	if st.ttl <= 0 {
		return 0
	}

	st.mu.Lock()
	var expired []*Session
	for id, sess := range st.sessions {
		if sess.SubscriberCount() > 0 {
			continue
		}
		if now.Sub(sess.LastSeen()) > st.ttl {
			delete(st.sessions, id)
			expired = append(expired, sess)
		}
	}
	st.mu.Unlock()
	return len(expired)
}
