// sse.go — Long-lived SSE streams and single-event responses.
// A GET on the base path with Accept: text/event-stream attaches the caller
// to its session's notification feed. Keepalive comments go out every 15
// seconds; a write that stays blocked past the write deadline closes the
// stream so one stalled client cannot pin a goroutine.
package transport

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ashfox/ashfox-mcp/internal/router"
)

const (
	keepaliveInterval = 15 * time.Second

	// sseWriteDeadline bounds a single blocked write before the stream is
	// dropped.
	sseWriteDeadline = 10 * time.Second
)

// handleGet serves the long-lived notification stream.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if !acceptsSSE(r) {
		s.writeError(w, r, http.StatusNotAcceptable, "not_acceptable", "GET requires Accept: text/event-stream")
		return
	}

	sess, ok := s.router.AttachStream(r.Header.Get(headerSessionID))
	if !ok {
		s.writeError(w, r, http.StatusNotFound, "unknown_session", "no such session")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, http.StatusInternalServerError, "streaming_unsupported", "response writer cannot stream")
		return
	}

	subID, events := sess.Subscribe()
	defer sess.Unsubscribe(subID)
	s.metrics.StreamOpened()
	defer s.metrics.StreamClosed()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set(headerSessionID, sess.ID)
	w.WriteHeader(http.StatusOK)
	s.metrics.CountRequest(r.Method, http.StatusOK)

	rc := http.NewResponseController(w)

	// The first bytes on the wire are a keepalive so clients see the stream
	// is live before any event arrives.
	if err := s.writeFrame(rc, w, flusher, ": keepalive\n\n"); err != nil {
		return
	}

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	s.log.Debug("sse stream attached", map[string]any{"sessionId": sess.ID})
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := s.writeFrame(rc, w, flusher, ": keepalive\n\n"); err != nil {
				return
			}
		case data, open := <-events:
			if !open {
				// Session deleted out from under the stream.
				return
			}
			frame := fmt.Sprintf("id: %d\nevent: message\ndata: %s\n\n", sess.NextEventID(), data)
			if err := s.writeFrame(rc, w, flusher, frame); err != nil {
				return
			}
		}
	}
}

// writeFrame writes one SSE frame under the write deadline and flushes.
func (s *Server) writeFrame(rc *http.ResponseController, w http.ResponseWriter, flusher http.Flusher, frame string) error {
	_ = rc.SetWriteDeadline(time.Now().Add(sseWriteDeadline))
	if _, err := fmt.Fprint(w, frame); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// writeSingleEvent writes a POST response as one SSE event and ends the
// stream. Used when the client's Accept header asks for text/event-stream.
func (s *Server) writeSingleEvent(w http.ResponseWriter, plan router.ResponsePlan) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(plan.Status)
	fmt.Fprintf(w, "id: 1\nevent: message\ndata: %s\n\n", plan.Body)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
