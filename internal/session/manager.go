package session

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/podaskai/podask/internal/podcast"
	"github.com/podaskai/podask/internal/voice"
)

// Operation status values, mirrored in API responses.
const (
	StatusPlaying            = "playing"
	StatusFinished           = "finished"
	StatusHandRaised         = "hand_raised"
	StatusNotInterruptible   = "not_interruptible"
	StatusNeedsClarification = "needs_clarification"
	StatusAnswered           = "answered"
	StatusResuming           = "resuming"
	StatusSkipped            = "skipped"
)

type StartResult struct {
	Status       string           `json:"status"`
	Message      string           `json:"message,omitempty"`
	Segment      *podcast.Segment `json:"segment,omitempty"`
	CanInterrupt bool             `json:"can_interrupt"`
}

type RaiseHandResult struct {
	Status            string `json:"status"`
	Message           string `json:"message,omitempty"`
	TransitionPhrase  string `json:"transition_phrase,omitempty"`
	SegmentTransition string `json:"segment_transition,omitempty"`
	UserQuestion      string `json:"user_question,omitempty"`
	QASegmentID       string `json:"qa_segment_id,omitempty"`
}

type ClarifyResult struct {
	Status              string `json:"status"`
	ClarificationPrompt string `json:"clarification_prompt"`
}

type AnswerResult struct {
	Status         string                 `json:"status"`
	AnswerDialogue []podcast.DialogueLine `json:"answer_dialogue"`
	QASegmentID    string                 `json:"qa_segment_id"`
}

type ResumeResult struct {
	Status            string           `json:"status"`
	ResumePhrase      string           `json:"resume_phrase"`
	NaturalTransition string           `json:"natural_transition"`
	Message           string           `json:"message,omitempty"`
	NextSegment       *podcast.Segment `json:"next_segment,omitempty"`
}

type SkipResult struct {
	Status  string           `json:"status"`
	Segment *podcast.Segment `json:"segment"`
}

// State is a read-only projection of a session.
type State struct {
	SessionID           string           `json:"session_id"`
	PodcastTitle        string           `json:"podcast_title"`
	CurrentSegmentIndex int              `json:"current_segment_index"`
	TotalSegments       int              `json:"total_segments"`
	IsPlaying           bool             `json:"is_playing"`
	IsInQA              bool             `json:"is_in_qa"`
	IsFinished          bool             `json:"is_finished"`
	CurrentSegment      *podcast.Segment `json:"current_segment"`
}

// Manager drives session state: playback, hand raising, Q&A and voice
// assignment. Every operation validates its preconditions before mutating
// anything, and runs under the target session's own mutex.
type Manager struct {
	store  *Store
	voices *voice.Picker

	mu  sync.Mutex
	rng *rand.Rand
}

// NewManager wires a manager over the given store. The random source feeds
// phrase selection and is injectable so tests can pin it; nil means
// time-seeded.
func NewManager(store *Store, picker *voice.Picker, rng *rand.Rand) *Manager {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if picker == nil {
		picker = voice.NewPicker(nil)
	}
	return &Manager{store: store, voices: picker, rng: rng}
}

// Store exposes the underlying session store.
func (m *Manager) Store() *Store { return m.store }

func (m *Manager) pick(pool []string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return pool[m.rng.Intn(len(pool))]
}

// CreateSession builds a session for the podcast at segment 0 and assigns
// its voices.
func (m *Manager) CreateSession(p *podcast.Podcast, opts voice.Options) (*Session, error) {
	v, err := m.voices.Pick(opts)
	if err != nil {
		return nil, err
	}
	s := m.store.Create(p)
	s.mu.Lock()
	s.voices = v
	s.mu.Unlock()
	return s, nil
}

// AssignVoices re-picks the session's voice pair. The previous assignment
// is overwritten; repeated calls are not idempotent (documented behavior).
func (m *Manager) AssignVoices(sessionID string, opts voice.Options) (podcast.Voices, error) {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return podcast.Voices{}, err
	}
	v, err := m.voices.Pick(opts)
	if err != nil {
		return podcast.Voices{}, err
	}
	s.mu.Lock()
	s.voices = v
	s.touch()
	s.mu.Unlock()
	return v, nil
}

// Voices returns the pair assigned to the session.
func (m *Manager) Voices(sessionID string) (podcast.Voices, error) {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return podcast.Voices{}, err
	}
	return s.Voices(), nil
}

// VoiceFor returns the voice id for "host" or "expert", or "" when the role
// is unknown or unassigned.
func (m *Manager) VoiceFor(sessionID, role string) (string, error) {
	v, err := m.Voices(sessionID)
	if err != nil {
		return "", err
	}
	switch role {
	case "host":
		return v.Host, nil
	case "expert":
		return v.Expert, nil
	}
	return "", nil
}

// StartSegment marks the current segment as playing and returns it. A
// finished session reports finished without mutating.
func (m *Manager) StartSegment(sessionID string) (*StartResult, error) {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.isFinished() {
		return &StartResult{Status: StatusFinished, Message: "Podcast has ended"}, nil
	}

	s.isPlaying = true
	seg := s.currentSegment()
	return &StartResult{Status: StatusPlaying, Segment: seg, CanInterrupt: seg.IsInterruptible}, nil
}

// RaiseHand pauses playback and opens a QASegment for the question. On a
// non-interruptible segment it returns the rejection status without
// touching any session state; that is a normal outcome, not an error.
func (m *Manager) RaiseHand(sessionID, userQuestion string) (*RaiseHandResult, error) {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	seg := s.currentSegment()
	if seg == nil {
		return nil, fmt.Errorf("%w: no current segment", ErrSegmentNotFound)
	}
	if !seg.IsInterruptible {
		return &RaiseHandResult{
			Status:  StatusNotInterruptible,
			Message: "Please wait until this section is complete.",
		}, nil
	}

	s.isPlaying = false
	s.isInQA = true

	qa := &podcast.QASegment{
		ID:                fmt.Sprintf("qa_after_%d", seg.ID),
		OriginalSegmentID: seg.ID,
		UserQuestion:      userQuestion,
	}
	s.currentQA = qa

	return &RaiseHandResult{
		Status:            StatusHandRaised,
		TransitionPhrase:  m.pick(handRaiseTransitions),
		SegmentTransition: seg.TransitionToQuestion,
		UserQuestion:      userQuestion,
		QASegmentID:       qa.ID,
	}, nil
}

// RequestClarification marks the open QASegment as needing clarification
// and returns a prompt. Each call overwrites the previous prompt.
func (m *Manager) RequestClarification(sessionID string) (*ClarifyResult, error) {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.currentQA == nil {
		return nil, ErrNoActiveQA
	}
	s.currentQA.NeedsClarification = true
	prompt := m.pick(clarificationPrompts)
	s.currentQA.ClarificationPrompt = prompt

	return &ClarifyResult{Status: StatusNeedsClarification, ClarificationPrompt: prompt}, nil
}

// ProvideAnswer stores the answer dialogue on the open QASegment and marks
// it complete. Resuming is a separate, explicit operation.
func (m *Manager) ProvideAnswer(sessionID string, dialogue []podcast.DialogueLine) (*AnswerResult, error) {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.currentQA == nil {
		return nil, ErrNoActiveQA
	}
	s.currentQA.AnswerDialogue = dialogue
	s.currentQA.IsComplete = true

	return &AnswerResult{Status: StatusAnswered, AnswerDialogue: dialogue, QASegmentID: s.currentQA.ID}, nil
}

// ResumePodcast archives any open QASegment (answered or not), leaves Q&A
// mode and advances to the next segment.
func (m *Manager) ResumePodcast(sessionID string) (*ResumeResult, error) {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.currentQA != nil {
		s.qaHistory = append(s.qaHistory, s.currentQA)
	}

	// The resume phrase belongs to the segment we are leaving.
	var resumePhrase string
	if seg := s.currentSegment(); seg != nil {
		resumePhrase = seg.ResumePhrase
	}
	natural := m.pick(resumeTransitions)

	s.isInQA = false
	s.currentQA = nil
	if s.currentSegmentIndex < len(s.podcast.Segments) {
		s.currentSegmentIndex++
	}

	if s.isFinished() {
		return &ResumeResult{
			Status:            StatusFinished,
			ResumePhrase:      resumePhrase,
			NaturalTransition: natural,
			Message:           "That was the last segment. Podcast complete!",
		}, nil
	}
	return &ResumeResult{
		Status:            StatusResuming,
		ResumePhrase:      resumePhrase,
		NaturalTransition: natural,
		NextSegment:       s.currentSegment(),
	}, nil
}

// SkipToSegment repositions the cursor on the segment with the given id,
// silently abandoning any open Q&A without archiving it.
func (m *Manager) SkipToSegment(sessionID string, segmentID int) (*SkipResult, error) {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	for i := range s.podcast.Segments {
		if s.podcast.Segments[i].ID == segmentID {
			s.currentSegmentIndex = i
			s.isInQA = false
			s.currentQA = nil
			return &SkipResult{Status: StatusSkipped, Segment: s.currentSegment()}, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrSegmentNotFound, segmentID)
}

// Segment returns a copy of the identified segment.
func (m *Manager) Segment(sessionID string, segmentID int) (podcast.Segment, error) {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return podcast.Segment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.podcast.Segments {
		if s.podcast.Segments[i].ID == segmentID {
			return s.podcast.Segments[i], nil
		}
	}
	return podcast.Segment{}, fmt.Errorf("%w: %d", ErrSegmentNotFound, segmentID)
}

// Advance moves playback one segment forward outside of Q&A. The live
// feed walks segments with it; the cursor never passes the segment count.
func (m *Manager) Advance(sessionID string) (*State, error) {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.touch()
	if s.isInQA {
		s.mu.Unlock()
		return nil, fmt.Errorf("session %s: cannot advance during q&a", sessionID)
	}
	if s.currentSegmentIndex < len(s.podcast.Segments) {
		s.currentSegmentIndex++
	}
	s.isPlaying = !s.isFinished()
	s.mu.Unlock()
	return m.GetState(sessionID)
}

// GetState returns a read-only snapshot of the session.
func (m *Manager) GetState(sessionID string) (*State, error) {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return &State{
		SessionID:           s.id,
		PodcastTitle:        s.podcast.Metadata.Title,
		CurrentSegmentIndex: s.currentSegmentIndex,
		TotalSegments:       len(s.podcast.Segments),
		IsPlaying:           s.isPlaying,
		IsInQA:              s.isInQA,
		IsFinished:          s.isFinished(),
		CurrentSegment:      s.currentSegment(),
	}, nil
}

// CurrentQA returns a copy of the open QASegment.
func (m *Manager) CurrentQA(sessionID string) (podcast.QASegment, error) {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return podcast.QASegment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentQA == nil {
		return podcast.QASegment{}, ErrNoActiveQA
	}
	return *s.currentQA, nil
}

// QAHistory returns the archived QASegments in arrival order.
func (m *Manager) QAHistory(sessionID string) ([]podcast.QASegment, error) {
	s, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]podcast.QASegment, 0, len(s.qaHistory))
	for _, qa := range s.qaHistory {
		out = append(out, *qa)
	}
	return out, nil
}
