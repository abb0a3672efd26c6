package papers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSemanticScholarSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "sparse attention" {
			t.Errorf("unexpected query %q", r.URL.Query().Get("query"))
		}
		w.Write([]byte(`{"data":[{"title":"Sparse Transformers","abstract":"Long context.","year":2019,"citationCount":1200,"authors":[{"name":"R. Child"}],"externalIds":{"ArXiv":"1904.10509"},"openAccessPdf":{"url":"https://arxiv.org/pdf/1904.10509"}}]}`))
	}))
	defer srv.Close()

	client := NewSemanticScholarClient("")
	client.BaseURL = srv.URL

	papers, err := client.Search(context.Background(), "sparse attention", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("expected 1 paper, got %d", len(papers))
	}
	p := papers[0]
	if p.ArxivID != "1904.10509" {
		t.Errorf("unexpected arxiv id %q", p.ArxivID)
	}
	if p.Title != "Sparse Transformers" {
		t.Errorf("unexpected title %q", p.Title)
	}
	if p.PublishedDate != "2019" {
		t.Errorf("unexpected published date %q", p.PublishedDate)
	}
	if p.PDFURL != "https://arxiv.org/pdf/1904.10509" {
		t.Errorf("unexpected pdf url %q", p.PDFURL)
	}
}

func TestSemanticScholarRetriesAfterRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	client := NewSemanticScholarClient("key")
	client.BaseURL = srv.URL

	papers, err := client.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
	if len(papers) != 0 {
		t.Errorf("expected empty result, got %d", len(papers))
	}
}
