// Package metadata resolves {title, authors, abstract} for a paper. The
// primary source is the product's papers table; when the record is absent
// or incomplete the resolver falls back to the arXiv Atom API, then to
// scraping the paper's abstract page. Resolution is best-effort: callers
// always get a Paper back, possibly with empty fields.
package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/paperpulse/enrich/store"
)

// Paper is resolved paper metadata.
type Paper struct {
	ID       string
	Title    string
	Abstract string
	Authors  []string
}

// Source is the read-only primary record lookup, satisfied by *store.Store.
type Source interface {
	GetPaper(ctx context.Context, id string) (*store.Paper, error)
}

// Config configures the resolver's network fallbacks.
type Config struct {
	// APIURL is the Atom API endpoint, default export.arxiv.org.
	APIURL    string
	UserAgent string
	Timeout   time.Duration
}

// Resolver looks up paper metadata across sources.
type Resolver struct {
	source Source
	cfg    Config
	client *http.Client
}

// NewResolver creates a resolver backed by the given primary source.
func NewResolver(source Source, cfg Config) *Resolver {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://export.arxiv.org/api/query"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Resolver{
		source: source,
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Lookup resolves metadata for a paper, consulting sources in order until
// title, authors, and abstract are all filled. sourceURL is the paper's
// abstract page, used for the scraping fallback.
func (r *Resolver) Lookup(ctx context.Context, id, sourceURL string) Paper {
	p := Paper{ID: id}

	if r.source != nil {
		if rec, err := r.source.GetPaper(ctx, id); err == nil && rec != nil {
			p.Title = rec.Title
			p.Abstract = rec.Abstract
			p.Authors = rec.Authors
		}
	}
	if p.complete() {
		return p
	}

	if api, err := r.fetchFeed(ctx, id); err == nil {
		p.merge(api)
	} else {
		slog.Debug("metadata: feed lookup failed", "id", id, "error", err)
	}
	if p.complete() || sourceURL == "" {
		return p
	}

	if page, err := r.scrapePage(ctx, sourceURL); err == nil {
		p.merge(page)
	} else {
		slog.Debug("metadata: page scrape failed", "id", id, "url", sourceURL, "error", err)
	}
	return p
}

func (p Paper) complete() bool {
	return p.Title != "" && p.Abstract != "" && len(p.Authors) > 0
}

func (p *Paper) merge(other Paper) {
	if p.Title == "" {
		p.Title = other.Title
	}
	if p.Abstract == "" {
		p.Abstract = other.Abstract
	}
	if len(p.Authors) == 0 {
		p.Authors = other.Authors
	}
}

// fetchFeed queries the Atom API for a single paper by ID.
func (r *Resolver) fetchFeed(ctx context.Context, id string) (Paper, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = r.cfg.UserAgent
	fp.Client = r.client

	feed, err := fp.ParseURLWithContext(fmt.Sprintf("%s?id_list=%s&max_results=1", r.cfg.APIURL, id), ctx)
	if err != nil {
		return Paper{}, fmt.Errorf("fetching metadata feed: %w", err)
	}
	if len(feed.Items) == 0 {
		return Paper{}, fmt.Errorf("no feed entry for %s", id)
	}

	item := feed.Items[0]
	p := Paper{
		ID:       id,
		Title:    oneLine(item.Title),
		Abstract: oneLine(item.Description),
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			p.Authors = append(p.Authors, a.Name)
		}
	}
	return p, nil
}

// scrapePage pulls citation meta tags from the paper's abstract page.
func (r *Resolver) scrapePage(ctx context.Context, pageURL string) (Paper, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Paper{}, err
	}
	if r.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", r.cfg.UserAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Paper{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Paper{}, fmt.Errorf("metadata page returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Paper{}, err
	}

	p := Paper{
		Title:    oneLine(doc.Find(`meta[name="citation_title"]`).AttrOr("content", "")),
		Abstract: oneLine(doc.Find(`meta[name="citation_abstract"]`).AttrOr("content", "")),
	}
	doc.Find(`meta[name="citation_author"]`).Each(func(_ int, sel *goquery.Selection) {
		if name := strings.TrimSpace(sel.AttrOr("content", "")); name != "" {
			p.Authors = append(p.Authors, name)
		}
	})

	if p.Abstract == "" {
		abstract := doc.Find("blockquote.abstract").Text()
		abstract = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(abstract), "Abstract:"))
		p.Abstract = oneLine(abstract)
	}
	return p, nil
}

// oneLine collapses feed/HTML whitespace the way the digest agent stores
// titles and abstracts.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
