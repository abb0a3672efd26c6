package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/podaskai/podask/internal/podcast"
)

var (
	// ErrSessionNotFound is returned by every operation given an unknown
	// session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoActiveQA is returned by Q&A operations when no QASegment is open.
	ErrNoActiveQA = errors.New("no active Q&A session")
	// ErrSegmentNotFound is returned when a segment id cannot be resolved
	// against the session's podcast.
	ErrSegmentNotFound = errors.New("segment not found")
)

// Session is one listener's live playback position and Q&A state against a
// podcast. All mutation happens through Manager operations, which serialize
// on the session's own mutex; is_playing and is_in_qa are never both true.
type Session struct {
	mu sync.Mutex

	id      string
	podcast *podcast.Podcast

	currentSegmentIndex int
	isPlaying           bool
	isInQA              bool
	currentQA           *podcast.QASegment
	qaHistory           []*podcast.QASegment

	voices podcast.Voices

	touched time.Time
}

func newSession(p *podcast.Podcast) *Session {
	return &Session{
		id:      uuid.NewString(),
		podcast: p,
		touched: time.Now(),
	}
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Voices returns the voice pair assigned to this session. Zero values mean
// no assignment has happened yet.
func (s *Session) Voices() podcast.Voices {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voices
}

// currentSegment returns the segment under the cursor, or nil when the
// session is finished. Caller must hold s.mu.
func (s *Session) currentSegment() *podcast.Segment {
	if s.currentSegmentIndex >= 0 && s.currentSegmentIndex < len(s.podcast.Segments) {
		return &s.podcast.Segments[s.currentSegmentIndex]
	}
	return nil
}

// isFinished reports whether the cursor has moved past the last segment.
// Caller must hold s.mu.
func (s *Session) isFinished() bool {
	return s.currentSegmentIndex >= len(s.podcast.Segments)
}

func (s *Session) touch() { s.touched = time.Now() }

// Store owns the map from session id to Session. It is constructed once at
// process start and passed to request handlers; sessions never expire on
// their own, but EvictIdle lets the owner reap abandoned ones.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create builds a new session positioned at segment 0 and registers it.
func (st *Store) Create(p *podcast.Podcast) *Session {
	s := newSession(p)
	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	return s
}

// Get looks up a session by id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// EvictIdle removes sessions untouched for longer than maxIdle and returns
// how many were dropped. Nothing calls this by default; whether sessions
// should ever expire is an open product decision.
func (st *Store) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	st.mu.Lock()
	defer st.mu.Unlock()
	var n int
	for id, s := range st.sessions {
		s.mu.Lock()
		idle := s.touched.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}
