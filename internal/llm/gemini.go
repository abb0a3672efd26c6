package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/podaskai/podask/internal/podcast"
)

// GeminiClient wraps the Gemini API for the three generation tasks the
// service needs: search-query refinement and ranking, podcast script
// synthesis, and Q&A answers.
type GeminiClient struct {
	client  *genai.Client
	modelID string
}

// NewGeminiClient dials the Gemini API. Extra options come after the key
// option, so tests can swap in their own HTTP client.
func NewGeminiClient(ctx context.Context, apiKey, modelID string, opts ...option.ClientOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key missing")
	}
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{client: client, modelID: modelID}, nil
}

func (g *GeminiClient) Close() error { return g.client.Close() }

// RefinedQuery is the structured result of query refinement.
type RefinedQuery struct {
	RefinedQuery string   `json:"refined_query"`
	KeyConcepts  []string `json:"key_concepts"`
	SearchFocus  string   `json:"search_focus"`
}

// RefineQuery turns a free-text query into an arXiv query with operators.
func (g *GeminiClient) RefineQuery(ctx context.Context, query, userContext string) (*RefinedQuery, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"refined_query": {Type: genai.TypeString},
			"key_concepts":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"search_focus":  {Type: genai.TypeString},
		},
		Required: []string{"refined_query", "key_concepts", "search_focus"},
	}

	prompt := fmt.Sprintf(`Refine this arXiv search query.

Query: %q
%s
Create an optimized arXiv query with operators (ti:, abs:, cat:, all:).
Identify 3-5 key concepts and a brief focus statement.`, query, contextLine(userContext))

	var out RefinedQuery
	if err := g.generateJSON(ctx, model, prompt, &out); err != nil {
		return nil, fmt.Errorf("refine query: %w", err)
	}
	return &out, nil
}

// RankedPaper scores one paper by its 1-based index in the summaries list.
type RankedPaper struct {
	Index            int    `json:"index"`
	RelevanceScore   int    `json:"relevance_score"`
	RelevanceReason  string `json:"relevance_reason"`
	KeyContributions string `json:"key_contributions"`
}

type Ranking struct {
	TopPapers       []RankedPaper `json:"top_papers"`
	OverallAnalysis string        `json:"overall_analysis"`
}

// RankPapers selects and scores the topN most relevant papers from the
// enumerated summaries.
func (g *GeminiClient) RankPapers(ctx context.Context, paperSummaries, query string, topN int) (*Ranking, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"top_papers": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"index":             {Type: genai.TypeInteger},
						"relevance_score":   {Type: genai.TypeInteger},
						"relevance_reason":  {Type: genai.TypeString},
						"key_contributions": {Type: genai.TypeString},
					},
					Required: []string{"index", "relevance_score", "relevance_reason", "key_contributions"},
				},
			},
			"overall_analysis": {Type: genai.TypeString},
		},
		Required: []string{"top_papers", "overall_analysis"},
	}

	prompt := fmt.Sprintf(`Evaluate and rank these arXiv papers for relevance to the query %q.

%s

Select the TOP %d by relevance. For each: index, score (0-100), reason (1 sentence), contributions (1 sentence). Add a short overall analysis.`,
		query, paperSummaries, topN)

	var out Ranking
	if err := g.generateJSON(ctx, model, prompt, &out); err != nil {
		return nil, fmt.Errorf("rank papers: %w", err)
	}
	return &out, nil
}

// GenerateScript synthesizes a two-voice podcast script from the provided
// paper texts.
func (g *GeminiClient) GenerateScript(ctx context.Context, documents, topic, difficulty string) (*podcast.Podcast, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(scriptSystemPrompt)}}

	prompt := fmt.Sprintf(`## SOURCES
%s

## INPUT TOPIC
The focus of today's episode is: %q

## TARGET AUDIENCE
Difficulty level: %s

Now generate the podcast script JSON.`, documents, topic, difficulty)

	var out podcast.Podcast
	if err := g.generateJSON(ctx, model, prompt, &out); err != nil {
		return nil, fmt.Errorf("generate script: %w", err)
	}
	if len(out.Segments) == 0 {
		return nil, fmt.Errorf("generate script: no segments in response")
	}
	return &out, nil
}

// QuestionContext carries everything the model needs to answer a
// raised-hand question in character.
type QuestionContext struct {
	EpisodeTitle   string
	SegmentLabel   string
	SegmentContent string
	KeyTerms       []string
	History        string
	Question       string
}

type qaResponse struct {
	AnswerDialogue []podcast.DialogueLine `json:"answer_dialogue"`
}

// AnswerQuestion produces the host/expert answer dialogue for an open Q&A.
func (g *GeminiClient) AnswerQuestion(ctx context.Context, qc QuestionContext) ([]podcast.DialogueLine, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"answer_dialogue": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"speaker": {Type: genai.TypeString, Description: "host or expert"},
						"text":    {Type: genai.TypeString},
					},
					Required: []string{"speaker", "text"},
				},
			},
		},
		Required: []string{"answer_dialogue"},
	}

	prompt := fmt.Sprintf(`A podcast listener raised their hand during the episode %q, segment %q.

Segment content:
%s

Key terms: %s
%s
Listener question: %q

Answer as a short dialogue: the host briefly acknowledges the question, then the expert answers clearly and conversationally, grounded in the segment content. 2-4 lines total, speakers "host" and "expert" only.`,
		qc.EpisodeTitle, qc.SegmentLabel, qc.SegmentContent, strings.Join(qc.KeyTerms, ", "), historyLine(qc.History), qc.Question)

	var out qaResponse
	if err := g.generateJSON(ctx, model, prompt, &out); err != nil {
		return nil, fmt.Errorf("answer question: %w", err)
	}
	if len(out.AnswerDialogue) == 0 {
		return nil, fmt.Errorf("answer question: empty dialogue")
	}
	return out.AnswerDialogue, nil
}

func (g *GeminiClient) generateJSON(ctx context.Context, model *genai.GenerativeModel, prompt string, out any) error {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return err
	}
	text := responseText(resp)
	if text == "" {
		return fmt.Errorf("empty model response")
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// extractJSON strips a markdown code fence when the model wraps its JSON in
// one despite the response MIME type.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	return text
}

func contextLine(userContext string) string {
	if userContext == "" {
		return ""
	}
	return "Context: " + userContext + "\n"
}

func historyLine(history string) string {
	if history == "" {
		return ""
	}
	return "Earlier Q&A in this session:\n" + history + "\n"
}

const scriptSystemPrompt = `You generate conversational podcast scripts featuring two voices: HOST (warm, curious, guides the conversation) and EXPERT (knowledgeable guest who explains the research clearly, with analogies and plain language). Use ONLY the provided sources; emphasize how the papers connect to each other, and acknowledge gaps honestly.

Respond ONLY with a JSON object of this shape:
{
  "metadata": {"title": "...", "summary": "...", "sources_analyzed": 0, "estimated_duration_minutes": 0, "primary_topics": ["..."], "voices": {"host": "", "expert": ""}},
  "segments": [{"id": 1, "topic_label": "...", "dialogue": [{"speaker": "host", "text": "..."}, {"speaker": "expert", "text": "..."}], "key_terms": ["..."], "difficulty_level": "beginner|intermediate|advanced", "is_interruptible": true, "source_reference": "...", "transition_to_question": "...", "resume_phrase": "..."}]
}

Each segment should last 15-25 seconds when spoken and end at a natural pause point where a listener could raise a hand. Every segment must include transition_to_question and resume_phrase, both voiced by the host.`
