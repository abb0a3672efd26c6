package papers

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/podaskai/podask/internal/llm"
)

// Refiner is the LLM surface the semantic pipeline needs.
type Refiner interface {
	RefineQuery(ctx context.Context, query, userContext string) (*llm.RefinedQuery, error)
	RankPapers(ctx context.Context, paperSummaries, query string, topN int) (*llm.Ranking, error)
}

// SearchService wires arXiv search with LLM refinement and ranking.
// Semantic Scholar backs up arXiv when it returns nothing.
type SearchService struct {
	Arxiv   *ArxivClient
	Scholar *SemanticScholarClient
	LLM     Refiner
}

// SearchResult carries the ranked papers plus the refinement that
// produced them.
type SearchResult struct {
	Papers          []Paper  `json:"papers"`
	RefinedQuery    string   `json:"refined_query"`
	KeyConcepts     []string `json:"key_concepts"`
	OverallAnalysis string   `json:"overall_analysis,omitempty"`
}

// GetByID fetches a single paper through the underlying arXiv client.
func (s *SearchService) GetByID(ctx context.Context, arxivID string) (*Paper, error) {
	return s.Arxiv.GetByID(ctx, arxivID)
}

// SemanticSearch refines the user query, searches arXiv broadly, and
// asks the LLM to rank the candidates. maxResults bounds the candidate
// pool fetched from the sources; topN is how many ranked papers come
// back. Each LLM stage degrades to a plain search when it fails or no
// LLM is configured.
func (s *SearchService) SemanticSearch(ctx context.Context, query, userContext string, maxResults, topN int) (*SearchResult, error) {
	if topN <= 0 {
		topN = 5
	}
	if maxResults <= 0 {
		maxResults = topN * 4
	}
	if maxResults < topN {
		maxResults = topN
	}

	searchQuery := query
	result := &SearchResult{RefinedQuery: query}
	if s.LLM != nil {
		refined, err := s.LLM.RefineQuery(ctx, query, userContext)
		if err != nil {
			log.Printf("Query refinement failed, using raw query: %v", err)
		} else {
			searchQuery = refined.RefinedQuery
			result.RefinedQuery = refined.RefinedQuery
			result.KeyConcepts = refined.KeyConcepts
		}
	}

	candidates, err := s.Arxiv.Search(ctx, searchQuery, maxResults, "relevance")
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 && searchQuery != query {
		// A refined query with bad operators can return nothing.
		candidates, err = s.Arxiv.Search(ctx, query, maxResults, "relevance")
		if err != nil {
			return nil, err
		}
	}
	if len(candidates) == 0 && s.Scholar != nil {
		candidates, err = s.Scholar.Search(ctx, query, maxResults)
		if err != nil {
			log.Printf("Semantic Scholar fallback failed: %v", err)
			candidates = nil
		}
	}
	if len(candidates) == 0 {
		result.Papers = []Paper{}
		return result, nil
	}

	if s.LLM == nil {
		result.Papers = truncate(candidates, topN)
		return result, nil
	}

	ranking, err := s.LLM.RankPapers(ctx, buildSummaries(candidates), query, topN)
	if err != nil {
		log.Printf("Paper ranking failed, returning search order: %v", err)
		result.Papers = truncate(candidates, topN)
		return result, nil
	}

	ranked := make([]Paper, 0, len(ranking.TopPapers))
	for _, rp := range ranking.TopPapers {
		if rp.Index < 1 || rp.Index > len(candidates) {
			continue
		}
		p := candidates[rp.Index-1]
		p.RelevanceScore = rp.RelevanceScore
		p.RelevanceReason = rp.RelevanceReason
		p.KeyContributions = rp.KeyContributions
		ranked = append(ranked, p)
	}
	if len(ranked) == 0 {
		ranked = truncate(candidates, topN)
	}
	result.Papers = truncate(ranked, topN)
	result.OverallAnalysis = ranking.OverallAnalysis
	return result, nil
}

func buildSummaries(papers []Paper) string {
	var b strings.Builder
	for i, p := range papers {
		abstract := p.Abstract
		if len(abstract) > 500 {
			abstract = abstract[:500]
		}
		fmt.Fprintf(&b, "%d. %s\nAuthors: %s\nAbstract: %s\n\n",
			i+1, p.Title, strings.Join(p.Authors, ", "), abstract)
	}
	return b.String()
}

func truncate(papers []Paper, n int) []Paper {
	if len(papers) > n {
		return papers[:n]
	}
	return papers
}
