package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/podaskai/podask/internal/llm"
	"github.com/podaskai/podask/internal/papers"
	"github.com/podaskai/podask/internal/podcast"
	"github.com/podaskai/podask/internal/session"
	"github.com/podaskai/podask/internal/storage"
	"github.com/podaskai/podask/internal/voice"
)

// PaperSearcher finds and ranks papers for a topic.
type PaperSearcher interface {
	SemanticSearch(ctx context.Context, query, userContext string, maxResults, topN int) (*papers.SearchResult, error)
	GetByID(ctx context.Context, arxivID string) (*papers.Paper, error)
}

// ScriptService writes podcast scripts and in-character answers.
type ScriptService interface {
	GenerateScript(ctx context.Context, documents, topic, difficulty string) (*podcast.Podcast, error)
	AnswerQuestion(ctx context.Context, qc llm.QuestionContext) ([]podcast.DialogueLine, error)
}

// Speech renders text to spoken audio.
type Speech interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// AudioStore keeps rendered audio and episode metadata in remote storage.
type AudioStore interface {
	UploadAudio(key string, data []byte) (string, error)
	SavePodcast(row storage.PodcastRow) error
}

type Handlers struct {
	Sessions *session.Manager
	Search   PaperSearcher
	Script   ScriptService
	TTS      Speech
	STT      Transcriber
	Audio    AudioStore
	AudioDir string
}

func (h Handlers) Register(e *echo.Echo) {
	e.GET("/", h.root)
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	v1 := e.Group("/api/v1")
	v1.POST("/papers/search", h.searchPapers)
	v1.POST("/podcasts/synthesize", h.synthesize)
	v1.GET("/voices", h.voices)

	s := v1.Group("/podcast/session")
	s.POST("", h.createSession)
	s.GET("/:id", h.getSession)
	s.POST("/:id/start", h.startSegment)
	s.POST("/:id/raise-hand", h.raiseHand)
	s.POST("/:id/raise-hand-audio", h.raiseHandAudio)
	s.POST("/:id/clarify", h.clarify)
	s.POST("/:id/answer", h.answer)
	s.POST("/:id/ask", h.ask)
	s.POST("/:id/resume", h.resume)
	s.POST("/:id/skip", h.skip)
	s.POST("/:id/segment-audio/:segmentID", h.segmentAudio)
	s.GET("/:id/live", h.live)

	e.GET("/audio/files/:name", h.audioFile)
}

func (h Handlers) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"name":    "PodAsk",
		"tagline": "Turn papers into podcasts you can interrupt",
		"status":  "ok",
	})
}

// fail maps domain errors onto HTTP statuses.
func (h Handlers) fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrNoActiveQA),
		errors.Is(err, session.ErrSegmentNotFound):
		status = http.StatusNotFound
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

type searchRequest struct {
	Query      string `json:"query"`
	Context    string `json:"context"`
	MaxResults int    `json:"max_results"`
	TopN       int    `json:"top_n"`
}

func (h Handlers) searchPapers(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}
	if h.Search == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "paper search not configured"})
	}
	result, err := h.Search.SemanticSearch(c.Request().Context(), req.Query, req.Context, req.MaxResults, req.TopN)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type synthesizeRequest struct {
	ArxivIDs        []string `json:"arxiv_ids"`
	Papers          []string `json:"papers"`
	Topic           string   `json:"topic"`
	DifficultyLevel string   `json:"difficulty_level"`
}

func (h Handlers) synthesize(c echo.Context) error {
	var req synthesizeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if h.Script == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "script generation not configured"})
	}

	ctx := c.Request().Context()
	documents := make([]string, 0, len(req.ArxivIDs)+len(req.Papers))
	for _, id := range req.ArxivIDs {
		if h.Search == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "paper lookup not configured"})
		}
		p, err := h.Search.GetByID(ctx, id)
		if err != nil {
			return h.fail(c, err)
		}
		documents = append(documents, fmt.Sprintf("Title: %s\nAuthors: %s\nAbstract: %s",
			p.Title, strings.Join(p.Authors, ", "), p.Abstract))
	}
	documents = append(documents, req.Papers...)
	if len(documents) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "arxiv_ids or papers is required"})
	}

	p, err := h.Script.GenerateScript(ctx, strings.Join(documents, "\n\n---\n\n"), req.Topic, req.DifficultyLevel)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

type createSessionRequest struct {
	Podcast       podcast.Podcast `json:"podcast"`
	HostGender    string          `json:"host_gender"`
	ExpertGender  string          `json:"expert_gender"`
	HostVoiceID   string          `json:"host_voice_id"`
	ExpertVoiceID string          `json:"expert_voice_id"`
}

type createSessionResponse struct {
	SessionID     string         `json:"session_id"`
	PodcastTitle  string         `json:"podcast_title"`
	TotalSegments int            `json:"total_segments"`
	Voices        podcast.Voices `json:"voices"`
}

func (h Handlers) createSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if len(req.Podcast.Segments) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "podcast must have at least one segment"})
	}
	opts := voice.Options{
		HostGender:    req.HostGender,
		ExpertGender:  req.ExpertGender,
		HostVoiceID:   req.HostVoiceID,
		ExpertVoiceID: req.ExpertVoiceID,
	}
	s, err := h.Sessions.CreateSession(&req.Podcast, opts)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if h.Audio != nil {
		v := s.Voices()
		row := storage.PodcastRow{
			SessionID:    s.ID(),
			Title:        req.Podcast.Metadata.Title,
			SourcePaper:  sourcePaper(&req.Podcast),
			SegmentCount: len(req.Podcast.Segments),
			HostVoiceID:  v.Host,
			ExpertVoice:  v.Expert,
		}
		if err := h.Audio.SavePodcast(row); err != nil {
			log.Printf("Failed to save podcast row for session %s: %v", s.ID(), err)
		}
	}
	return c.JSON(http.StatusCreated, createSessionResponse{
		SessionID:     s.ID(),
		PodcastTitle:  req.Podcast.Metadata.Title,
		TotalSegments: len(req.Podcast.Segments),
		Voices:        s.Voices(),
	})
}

func sourcePaper(p *podcast.Podcast) string {
	for _, seg := range p.Segments {
		if seg.SourceReference != "" {
			return seg.SourceReference
		}
	}
	return ""
}

func (h Handlers) getSession(c echo.Context) error {
	state, err := h.Sessions.GetState(c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h Handlers) startSegment(c echo.Context) error {
	result, err := h.Sessions.StartSegment(c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type raiseHandRequest struct {
	Question string `json:"question"`
}

func (h Handlers) raiseHand(c echo.Context) error {
	var req raiseHandRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	result, err := h.Sessions.RaiseHand(c.Param("id"), req.Question)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type raiseHandAudioResponse struct {
	*session.RaiseHandResult
	Transcript string  `json:"transcript"`
	AudioURL   *string `json:"audio_url"`
}

func (h Handlers) raiseHandAudio(c echo.Context) error {
	if h.STT == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "transcription not configured"})
	}
	audio, err := readUploadedAudio(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	ctx := c.Request().Context()
	question, err := h.STT.Transcribe(ctx, audio)
	if err != nil {
		return h.fail(c, err)
	}
	result, err := h.Sessions.RaiseHand(c.Param("id"), question)
	if err != nil {
		return h.fail(c, err)
	}

	resp := raiseHandAudioResponse{RaiseHandResult: result, Transcript: question}
	if result.Status == session.StatusHandRaised {
		spoken := strings.TrimSpace(result.TransitionPhrase + " " + result.SegmentTransition)
		resp.AudioURL = h.renderAudio(ctx, c.Param("id"), "host", spoken)
	}
	return c.JSON(http.StatusOK, resp)
}

func readUploadedAudio(c echo.Context) ([]byte, error) {
	if file, err := c.FormFile("audio"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("audio is required")
	}
	return data, nil
}

type clarifyResponse struct {
	*session.ClarifyResult
	AudioURL *string `json:"audio_url"`
}

func (h Handlers) clarify(c echo.Context) error {
	result, err := h.Sessions.RequestClarification(c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	resp := clarifyResponse{ClarifyResult: result}
	resp.AudioURL = h.renderAudio(c.Request().Context(), c.Param("id"), "host", result.ClarificationPrompt)
	return c.JSON(http.StatusOK, resp)
}

type answerRequest struct {
	AnswerDialogue []podcast.DialogueLine `json:"answer_dialogue"`
}

type renderedLine struct {
	Speaker  string  `json:"speaker"`
	Text     string  `json:"text"`
	AudioURL *string `json:"audio_url"`
}

type answerResponse struct {
	*session.AnswerResult
	Lines []renderedLine `json:"lines"`
}

func (h Handlers) answer(c echo.Context) error {
	var req answerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if len(req.AnswerDialogue) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "answer_dialogue is required"})
	}
	result, err := h.Sessions.ProvideAnswer(c.Param("id"), req.AnswerDialogue)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, answerResponse{
		AnswerResult: result,
		Lines:        h.renderDialogue(c.Request().Context(), c.Param("id"), result.AnswerDialogue),
	})
}

// ask generates the answer for the open question and records it, in one
// round trip.
func (h Handlers) ask(c echo.Context) error {
	if h.Script == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "script generation not configured"})
	}
	id := c.Param("id")
	qa, err := h.Sessions.CurrentQA(id)
	if err != nil {
		return h.fail(c, err)
	}
	state, err := h.Sessions.GetState(id)
	if err != nil {
		return h.fail(c, err)
	}

	qc := llm.QuestionContext{
		EpisodeTitle: state.PodcastTitle,
		Question:     qa.UserQuestion,
		History:      formatHistory(h.Sessions, id),
	}
	if seg := state.CurrentSegment; seg != nil {
		qc.SegmentLabel = seg.TopicLabel
		qc.KeyTerms = seg.KeyTerms
		var lines []string
		for _, l := range seg.Dialogue {
			lines = append(lines, l.Speaker+": "+l.Text)
		}
		qc.SegmentContent = strings.Join(lines, "\n")
	}

	ctx := c.Request().Context()
	dialogue, err := h.Script.AnswerQuestion(ctx, qc)
	if err != nil {
		return h.fail(c, err)
	}
	result, err := h.Sessions.ProvideAnswer(id, dialogue)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, answerResponse{
		AnswerResult: result,
		Lines:        h.renderDialogue(ctx, id, result.AnswerDialogue),
	})
}

func formatHistory(m *session.Manager, sessionID string) string {
	history, err := m.QAHistory(sessionID)
	if err != nil || len(history) == 0 {
		return ""
	}
	var b strings.Builder
	for _, qa := range history {
		fmt.Fprintf(&b, "Q: %s\n", qa.UserQuestion)
		for _, line := range qa.AnswerDialogue {
			fmt.Fprintf(&b, "%s: %s\n", line.Speaker, line.Text)
		}
	}
	return b.String()
}

type resumeResponse struct {
	*session.ResumeResult
	AudioURL *string `json:"audio_url"`
}

func (h Handlers) resume(c echo.Context) error {
	result, err := h.Sessions.ResumePodcast(c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	resp := resumeResponse{ResumeResult: result}
	spoken := strings.TrimSpace(result.NaturalTransition + " " + result.ResumePhrase)
	resp.AudioURL = h.renderAudio(c.Request().Context(), c.Param("id"), "host", spoken)
	return c.JSON(http.StatusOK, resp)
}

type skipRequest struct {
	SegmentID int `json:"segment_id"`
}

func (h Handlers) skip(c echo.Context) error {
	var req skipRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	result, err := h.Sessions.SkipToSegment(c.Param("id"), req.SegmentID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

type segmentAudioResponse struct {
	SegmentID int            `json:"segment_id"`
	Lines     []renderedLine `json:"lines"`
}

func (h Handlers) segmentAudio(c echo.Context) error {
	segmentID, err := strconv.Atoi(c.Param("segmentID"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "segment id must be an integer"})
	}
	id := c.Param("id")
	seg, err := h.Sessions.Segment(id, segmentID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, segmentAudioResponse{
		SegmentID: seg.ID,
		Lines:     h.renderDialogue(c.Request().Context(), id, seg.Dialogue),
	})
}

func (h Handlers) audioFile(c echo.Context) error {
	name := filepath.Base(c.Param("name"))
	path := filepath.Join(h.AudioDir, name)
	if _, err := os.Stat(path); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "audio file not found"})
	}
	return c.File(path)
}

func (h Handlers) voices(c echo.Context) error {
	return c.JSON(http.StatusOK, voice.All())
}

// renderAudio speaks text with the session's voice for the role and
// returns the served URL. Rendering is best effort: any failure logs and
// yields nil, never an error response.
func (h Handlers) renderAudio(ctx context.Context, sessionID, role, text string) *string {
	if h.TTS == nil || text == "" || h.AudioDir == "" {
		return nil
	}
	voiceID, err := h.Sessions.VoiceFor(sessionID, role)
	if err != nil || voiceID == "" {
		return nil
	}
	audio, err := h.TTS.Synthesize(ctx, text, voiceID)
	if err != nil {
		log.Printf("TTS render failed for session %s: %v", sessionID, err)
		return nil
	}
	name := uuid.NewString() + ".mp3"
	if err := os.WriteFile(filepath.Join(h.AudioDir, name), audio, 0o644); err != nil {
		log.Printf("Failed to write audio file: %v", err)
		return nil
	}
	if h.Audio != nil {
		if _, err := h.Audio.UploadAudio(name, audio); err != nil {
			log.Printf("Supabase upload failed for %s: %v", name, err)
		}
	}
	url := "/audio/files/" + name
	return &url
}

func (h Handlers) renderDialogue(ctx context.Context, sessionID string, dialogue []podcast.DialogueLine) []renderedLine {
	lines := make([]renderedLine, 0, len(dialogue))
	for _, l := range dialogue {
		lines = append(lines, renderedLine{
			Speaker:  l.Speaker,
			Text:     l.Text,
			AudioURL: h.renderAudio(ctx, sessionID, l.Speaker, l.Text),
		})
	}
	return lines
}
