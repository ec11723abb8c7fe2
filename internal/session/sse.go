// sse.go — SSE subscriber fan-out per session.
// Each open GET stream registers a buffered channel on the session. Publishing
// never blocks: a subscriber that cannot keep up has its oldest event dropped
// in favor of the newest, and the transport closes streams that stall on
// write. Event ids are monotonic per session so clients can resume with
// Last-Event-ID.
package session

import "sync/atomic"

// subscriberBuffer bounds how many undelivered events one stream may queue.
const subscriberBuffer = 16

// Subscribe registers an SSE stream on the session and returns its id and
// delivery channel. The caller must Unsubscribe when the stream closes.
func (s *Session) Subscribe() (uint64, <-chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	ch := make(chan []byte, subscriberBuffer)
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a stream registration.
func (s *Session) Unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		delete(s.subscribers, id)
		close(ch)
	}
}

// SubscriberCount reports how many SSE streams are open on the session.
func (s *Session) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// NextEventID mints the next monotonic SSE event id for this session.
func (s *Session) NextEventID() uint64 {
	return atomic.AddUint64(&s.eventSeq, 1)
}

// Publish delivers an encoded message to every open stream on the session.
// Slow subscribers lose their oldest queued event rather than stalling the
// publisher.
func (s *Session) Publish(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- data:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- data:
			default:
			}
		}
	}
}
