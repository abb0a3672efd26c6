package papers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	semanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1"
	semanticScholarFields  = "title,abstract,authors,year,externalIds,openAccessPdf,citationCount"
)

// SemanticScholarClient queries the Semantic Scholar graph API.
type SemanticScholarClient struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
}

func NewSemanticScholarClient(apiKey string) *SemanticScholarClient {
	return &SemanticScholarClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    semanticScholarBaseURL,
		APIKey:     apiKey,
	}
}

type s2SearchResponse struct {
	Data []s2Paper `json:"data"`
}

type s2Paper struct {
	Title         string     `json:"title"`
	Abstract      string     `json:"abstract"`
	Year          int        `json:"year"`
	CitationCount int        `json:"citationCount"`
	Authors       []s2Author `json:"authors"`
	ExternalIDs   struct {
		ArXiv string `json:"ArXiv"`
	} `json:"externalIds"`
	OpenAccessPdf struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}

type s2Author struct {
	Name string `json:"name"`
}

// Search runs a relevance search against Semantic Scholar. A single
// retry handles rate limiting on the free tier.
func (c *SemanticScholarClient) Search(ctx context.Context, query string, limit int) ([]Paper, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("fields", semanticScholarFields)

	resp, err := c.do(ctx, params)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
		resp, err = c.do(ctx, params)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("semantic scholar error: status=%d body=%s", resp.StatusCode, string(b))
	}

	var parsed s2SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("semantic scholar parse: %w", err)
	}

	papers := make([]Paper, 0, len(parsed.Data))
	for _, p := range parsed.Data {
		authors := make([]string, 0, len(p.Authors))
		for _, a := range p.Authors {
			authors = append(authors, a.Name)
		}
		published := ""
		if p.Year > 0 {
			published = fmt.Sprintf("%d", p.Year)
		}
		papers = append(papers, Paper{
			ArxivID:       p.ExternalIDs.ArXiv,
			Title:         p.Title,
			Authors:       authors,
			Abstract:      p.Abstract,
			PDFURL:        p.OpenAccessPdf.URL,
			PublishedDate: published,
		})
	}
	return papers, nil
}

func (c *SemanticScholarClient) do(ctx context.Context, params url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/paper/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("semantic scholar request: %w", err)
	}
	return resp, nil
}
