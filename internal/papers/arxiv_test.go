package papers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const arxivFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v1</id>
    <title>Attention Is
      Not All You Need</title>
    <summary>  We study   transformer depth.  </summary>
    <published>2023-01-17T00:00:00Z</published>
    <author><name>A. Researcher</name></author>
    <author><name>B. Scientist</name></author>
    <category term="cs.LG"/>
    <category term="cs.AI"/>
  </entry>
</feed>`

func TestArxivSearchParsesFeed(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Write([]byte(arxivFixture))
	}))
	defer srv.Close()

	client := NewArxivClient()
	client.BaseURL = srv.URL

	papers, err := client.Search(context.Background(), "transformer depth", 5, "relevance")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "all:transformer depth" {
		t.Errorf("expected all: prefix, got %q", gotQuery)
	}
	if len(papers) != 1 {
		t.Fatalf("expected 1 paper, got %d", len(papers))
	}
	p := papers[0]
	if p.ArxivID != "2301.07041v1" {
		t.Errorf("unexpected id %q", p.ArxivID)
	}
	if p.Title != "Attention Is Not All You Need" {
		t.Errorf("whitespace not collapsed: %q", p.Title)
	}
	if p.Abstract != "We study transformer depth." {
		t.Errorf("unexpected abstract %q", p.Abstract)
	}
	if len(p.Authors) != 2 || p.Authors[0] != "A. Researcher" {
		t.Errorf("unexpected authors %v", p.Authors)
	}
	if p.PDFURL != "http://arxiv.org/pdf/2301.07041v1" {
		t.Errorf("unexpected pdf url %q", p.PDFURL)
	}
	if len(p.Categories) != 2 || p.Categories[0] != "cs.LG" {
		t.Errorf("unexpected categories %v", p.Categories)
	}
}

func TestArxivSearchKeepsOperatorQueries(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Write([]byte(`<feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer srv.Close()

	client := NewArxivClient()
	client.BaseURL = srv.URL

	if _, err := client.Search(context.Background(), "ti:attention AND cat:cs.LG", 5, "submitted"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "ti:attention AND cat:cs.LG" {
		t.Errorf("operator query was rewritten: %q", gotQuery)
	}
}

func TestArxivGetByIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer srv.Close()

	client := NewArxivClient()
	client.BaseURL = srv.URL

	if _, err := client.GetByID(context.Background(), "9999.00000"); err == nil {
		t.Fatal("expected error for missing paper")
	}
}

func TestArxivSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewArxivClient()
	client.BaseURL = srv.URL

	if _, err := client.Search(context.Background(), "anything", 5, "relevance"); err == nil {
		t.Fatal("expected error on 503")
	}
}
