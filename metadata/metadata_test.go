package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paperpulse/enrich/store"
)

const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2401.12345v1</id>
    <title>Attention Is Not All You Need
  After All</title>
    <summary>We revisit the attention mechanism and
  find it wanting.</summary>
    <author><name>A. Author</name></author>
    <author><name>B. Coauthor</name></author>
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"></feed>`

const absPage = `<!DOCTYPE html>
<html><head>
<meta name="citation_title" content="A Scraped Title"/>
<meta name="citation_author" content="C. Scraped"/>
<meta name="citation_author" content="D. Scraped"/>
</head><body>
<blockquote class="abstract">
Abstract: This abstract only exists
in the page body.
</blockquote>
</body></html>`

// stubSource returns a fixed paper record.
type stubSource struct {
	paper *store.Paper
}

func (s *stubSource) GetPaper(ctx context.Context, id string) (*store.Paper, error) {
	return s.paper, nil
}

func TestLookupFromSource(t *testing.T) {
	r := NewResolver(&stubSource{paper: &store.Paper{
		ID:       "2401.12345",
		Title:    "Stored Title",
		Abstract: "Stored abstract.",
		Authors:  []string{"A. Author"},
	}}, Config{APIURL: "http://127.0.0.1:1/unreachable"})

	p := r.Lookup(context.Background(), "2401.12345", "")
	if p.Title != "Stored Title" {
		t.Errorf("Title = %q, want %q", p.Title, "Stored Title")
	}
	if len(p.Authors) != 1 {
		t.Errorf("Authors = %v, want one entry", p.Authors)
	}
}

func TestLookupFromFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id_list"); got != "2401.12345" {
			t.Errorf("id_list = %q, want %q", got, "2401.12345")
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(atomFeed))
	}))
	defer srv.Close()

	r := NewResolver(nil, Config{APIURL: srv.URL})
	p := r.Lookup(context.Background(), "2401.12345", "")

	if p.Title != "Attention Is Not All You Need After All" {
		t.Errorf("Title = %q, want collapsed whitespace", p.Title)
	}
	if p.Abstract != "We revisit the attention mechanism and find it wanting." {
		t.Errorf("Abstract = %q", p.Abstract)
	}
	if len(p.Authors) != 2 || p.Authors[0] != "A. Author" {
		t.Errorf("Authors = %v", p.Authors)
	}
}

func TestLookupScrapeFallback(t *testing.T) {
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(emptyFeed))
	}))
	defer feedSrv.Close()

	pageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(absPage))
	}))
	defer pageSrv.Close()

	r := NewResolver(nil, Config{APIURL: feedSrv.URL})
	p := r.Lookup(context.Background(), "2401.12345", pageSrv.URL)

	if p.Title != "A Scraped Title" {
		t.Errorf("Title = %q, want %q", p.Title, "A Scraped Title")
	}
	if len(p.Authors) != 2 || p.Authors[1] != "D. Scraped" {
		t.Errorf("Authors = %v", p.Authors)
	}
	if p.Abstract != "This abstract only exists in the page body." {
		t.Errorf("Abstract = %q, want blockquote fallback text", p.Abstract)
	}
}

func TestLookupAllSourcesDown(t *testing.T) {
	r := NewResolver(nil, Config{APIURL: "http://127.0.0.1:1/unreachable"})
	p := r.Lookup(context.Background(), "2401.12345", "http://127.0.0.1:1/abs")

	// Best-effort: a Paper always comes back, with the ID set.
	if p.ID != "2401.12345" {
		t.Errorf("ID = %q, want the requested ID", p.ID)
	}
	if p.Title != "" || p.Abstract != "" {
		t.Errorf("expected empty fields, got %+v", p)
	}
}

func TestLookupMergesPartialSources(t *testing.T) {
	// Store has only a title; the feed fills in the rest.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(atomFeed))
	}))
	defer srv.Close()

	r := NewResolver(&stubSource{paper: &store.Paper{
		ID:    "2401.12345",
		Title: "Stored Title",
	}}, Config{APIURL: srv.URL})

	p := r.Lookup(context.Background(), "2401.12345", "")
	if p.Title != "Stored Title" {
		t.Errorf("Title = %q, stored value must win", p.Title)
	}
	if p.Abstract == "" || len(p.Authors) == 0 {
		t.Errorf("feed fields not merged: %+v", p)
	}
}

func TestOneLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "already fine", "already fine"},
		{"newlines", "line one\n  line two", "line one line two"},
		{"padded", "  spaced  out  ", "spaced out"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := oneLine(tt.in); got != tt.want {
				t.Errorf("oneLine(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
