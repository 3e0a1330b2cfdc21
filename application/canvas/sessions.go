package canvas

import (
	"sync"
	"time"
)

// Sessions keeps one canvas per session id and forgets idle ones.
type Sessions struct {
	newCanvas func() *Canvas
	now       func() time.Time

	mu       sync.Mutex
	canvases map[string]*session
}

type session struct {
	canvas   *Canvas
	lastUsed time.Time
}

// NewSessions creates an empty registry. newCanvas builds the canvas for a session
// seen for the first time.
func NewSessions(newCanvas func() *Canvas) *Sessions {
	return &Sessions{
		newCanvas: newCanvas,
		now:       time.Now,
		canvases:  make(map[string]*session),
	}
}

// Get returns the canvas of id, creating it on first use.
func (s *Sessions) Get(id string) *Canvas {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.canvases[id]
	if !ok {
		sess = &session{canvas: s.newCanvas()}
		s.canvases[id] = sess
	}
	sess.lastUsed = s.now()
	return sess.canvas
}

// Lookup returns the canvas of id without creating one.
func (s *Sessions) Lookup(id string) (*Canvas, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.canvases[id]
	if !ok {
		return nil, false
	}
	sess.lastUsed = s.now()
	return sess.canvas, true
}

// Sweep drops sessions idle for longer than maxIdle and returns how many went.
func (s *Sessions) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-maxIdle)
	dropped := 0
	for id, sess := range s.canvases {
		if sess.lastUsed.Before(cutoff) {
			delete(s.canvases, id)
			dropped++
		}
	}
	return dropped
}

// Len is the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.canvases)
}
