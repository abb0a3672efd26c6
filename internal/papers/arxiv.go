package papers

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const arxivBaseURL = "http://export.arxiv.org/api/query"

// Paper is one arXiv result, optionally annotated with ranking data.
type Paper struct {
	ArxivID       string   `json:"arxiv_id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Abstract      string   `json:"abstract"`
	PDFURL        string   `json:"pdf_url"`
	PublishedDate string   `json:"published_date"`
	Categories    []string `json:"categories"`

	RelevanceScore   int    `json:"relevance_score,omitempty"`
	RelevanceReason  string `json:"relevance_reason,omitempty"`
	KeyContributions string `json:"key_contributions,omitempty"`
}

// ArxivClient queries the arXiv Atom API.
type ArxivClient struct {
	HTTPClient *http.Client
	BaseURL    string
}

func NewArxivClient() *ArxivClient {
	return &ArxivClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    arxivBaseURL,
	}
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string         `xml:"id"`
	Title     string         `xml:"title"`
	Summary   string         `xml:"summary"`
	Published string         `xml:"published"`
	Authors   []atomAuthor   `xml:"author"`
	Category  []atomCategory `xml:"category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

var sortByMap = map[string]string{
	"submitted": "submittedDate",
	"relevance": "relevance",
	"updated":   "lastUpdatedDate",
}

// Search queries arXiv. Queries without explicit arXiv operators get an
// all: prefix.
func (c *ArxivClient) Search(ctx context.Context, query string, maxResults int, sortBy string) ([]Paper, error) {
	searchQuery := query
	if !hasArxivOperators(query) {
		searchQuery = "all:" + query
	}
	order, ok := sortByMap[sortBy]
	if !ok {
		order = "submittedDate"
	}

	params := url.Values{}
	params.Set("search_query", searchQuery)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("sortBy", order)
	params.Set("sortOrder", "descending")

	return c.query(ctx, params)
}

// GetByID fetches a single paper by arXiv id (e.g. "2301.07041").
func (c *ArxivClient) GetByID(ctx context.Context, arxivID string) (*Paper, error) {
	params := url.Values{}
	params.Set("id_list", arxivID)
	params.Set("max_results", "1")

	papers, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("arxiv: paper %s not found", arxivID)
	}
	return &papers[0], nil
}

func (c *ArxivClient) query(ctx context.Context, params url.Values) ([]Paper, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("arxiv error: status=%d body=%s", resp.StatusCode, string(b))
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("arxiv parse: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		if p, ok := parseEntry(e); ok {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

func parseEntry(e atomEntry) (Paper, bool) {
	if strings.Contains(e.ID, "api/errors") {
		return Paper{}, false
	}
	id := e.ID
	if i := strings.LastIndex(id, "/abs/"); i >= 0 {
		id = id[i+len("/abs/"):]
	}
	authors := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		authors = append(authors, a.Name)
	}
	categories := make([]string, 0, len(e.Category))
	for _, cat := range e.Category {
		categories = append(categories, cat.Term)
	}
	return Paper{
		ArxivID:       id,
		Title:         collapseWhitespace(e.Title),
		Authors:       authors,
		Abstract:      collapseWhitespace(e.Summary),
		PDFURL:        "http://arxiv.org/pdf/" + id,
		PublishedDate: e.Published,
		Categories:    categories,
	}, true
}

func hasArxivOperators(query string) bool {
	for _, op := range []string{"ti:", "abs:", "au:", "cat:", "all:", "AND", "OR", "ANDNOT"} {
		if strings.Contains(query, op) {
			return true
		}
	}
	return false
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
