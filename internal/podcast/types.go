package podcast

// DialogueLine is one spoken line, attributed to "host" or "expert".
type DialogueLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Segment is one pre-scripted block of host/expert dialogue. Segments are
// immutable once the script is generated; sessions only read them.
type Segment struct {
	ID                   int            `json:"id"`
	TopicLabel           string         `json:"topic_label"`
	Dialogue             []DialogueLine `json:"dialogue"`
	KeyTerms             []string       `json:"key_terms"`
	DifficultyLevel      string         `json:"difficulty_level"`
	SourceReference      string         `json:"source_reference"`
	IsInterruptible      bool           `json:"is_interruptible"`
	TransitionToQuestion string         `json:"transition_to_question"`
	ResumePhrase         string         `json:"resume_phrase"`
}

// Voices is the host/expert voice id pair assigned to a session.
type Voices struct {
	Host   string `json:"host"`
	Expert string `json:"expert"`
}

type Metadata struct {
	Title                    string   `json:"title"`
	Summary                  string   `json:"summary"`
	SourcesAnalyzed          int      `json:"sources_analyzed"`
	EstimatedDurationMinutes int      `json:"estimated_duration_minutes"`
	PrimaryTopics            []string `json:"primary_topics"`
	Voices                   Voices   `json:"voices"`
}

// Podcast is a generated episode: metadata plus the ordered segment list.
// One Podcast may back many concurrent sessions.
type Podcast struct {
	Metadata Metadata  `json:"metadata"`
	Segments []Segment `json:"segments"`
}

// QASegment records one raise-hand episode: the question, an optional
// clarification prompt, the answer dialogue and a completion flag. It is
// mutable until archived into the session history, never after.
type QASegment struct {
	ID                  string         `json:"id"`
	OriginalSegmentID   int            `json:"original_segment_id"`
	UserQuestion        string         `json:"user_question"`
	NeedsClarification  bool           `json:"needs_clarification"`
	ClarificationPrompt string         `json:"clarification_prompt,omitempty"`
	AnswerDialogue      []DialogueLine `json:"answer_dialogue"`
	IsComplete          bool           `json:"is_complete"`
}
