// Package enrich is the enrichment engine for externally hosted research
// papers. Given a paper ID and an enrichment kind it runs an ordered
// provider cascade, persists the resulting artifact in the product's
// SQLite database, and serves repeat requests from cache while the
// artifact is fresh.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/paperpulse/enrich/llm"
	"github.com/paperpulse/enrich/metadata"
	"github.com/paperpulse/enrich/provider"
	"github.com/paperpulse/enrich/store"
)

// Result is the outcome of a successful enrichment request.
type Result struct {
	Artifact    []byte    `json:"artifact,omitempty"`
	ContentType string    `json:"content_type"`
	Provider    string    `json:"provider"`
	Cached      bool      `json:"cached"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Enricher is the public surface of the enrichment engine.
type Enricher interface {
	// Enrich produces the artifact of the given kind for a paper,
	// serving from cache when fresh.
	Enrich(ctx context.Context, documentID, sourceURL string, kind provider.Kind, opts ...EnrichOption) (*Result, error)

	// Store exposes the underlying persistence layer.
	Store() *store.Store

	// Close releases resources.
	Close() error
}

// Engine runs provider cascades and manages the artifact cache.
type Engine struct {
	cfg    Config
	store  *store.Store
	chains map[provider.Kind][]provider.Provider
	group  singleflight.Group
}

var _ Enricher = (*Engine)(nil)

// New builds an engine from the config: opens the database, constructs
// the shared fetcher and metadata resolver, and assembles the provider
// chain for each enrichment kind.
func New(cfg Config) (*Engine, error) {
	if cfg.ProviderTimeout <= 0 {
		return nil, fmt.Errorf("%w: provider timeout must be positive", ErrInvalidConfig)
	}

	st, err := store.New(cfg.resolveDBPath())
	if err != nil {
		return nil, err
	}
	if cfg.InitSchema && st.Degraded() {
		if err := st.EnsureSchema(context.Background()); err != nil {
			st.Close()
			return nil, err
		}
	}

	fetcher := provider.NewFetcher(provider.FetcherConfig{
		Timeout:   cfg.ProviderTimeout,
		RateLimit: cfg.FetchRateLimit,
		UserAgent: cfg.UserAgent,
	})
	resolver := metadata.NewResolver(st, metadata.Config{
		APIURL:    cfg.MetadataAPIURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.ProviderTimeout,
	})

	var chat llm.Provider
	if cfg.Analysis != nil {
		chat, err = llm.NewProvider(*cfg.Analysis)
		if err != nil {
			slog.Warn("enrich: analysis provider unavailable, using canned reports only", "error", err)
		}
	}

	chains := map[provider.Kind][]provider.Provider{
		provider.KindStructure: {
			&provider.TextExtractor{Fetch: fetcher, Mode: provider.ModePlain, MinText: cfg.MinTextLength},
			&provider.TextExtractor{Fetch: fetcher, Mode: provider.ModeRows, MinText: cfg.MinTextLength},
			provider.CannedStructure{},
		},
		provider.KindThumbnail: thumbnailChain(cfg, fetcher, resolver),
		provider.KindAnalysis: {
			&provider.Analyzer{Resolver: resolver, LLM: chat},
			&provider.CannedAnalysis{Resolver: resolver},
		},
	}

	return &Engine{cfg: cfg, store: st, chains: chains}, nil
}

func thumbnailChain(cfg Config, fetcher *provider.Fetcher, resolver *metadata.Resolver) []provider.Provider {
	chain := []provider.Provider{
		&provider.NativePreview{Fetch: fetcher, URLTemplate: cfg.PreviewURLTemplate},
	}
	for _, svc := range cfg.ScreenshotServices {
		chain = append(chain, &provider.Screenshot{
			Fetch:       fetcher,
			ServiceName: provider.ServiceNameFromURL(svc),
			URLTemplate: svc,
		})
	}
	return append(chain, &provider.Synthesizer{Resolver: resolver})
}

// Close releases the engine's database handle.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store exposes the underlying store for HTTP handlers and tooling.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Options for a single Enrich call.
type enrichOptions struct {
	forceRefresh bool
}

// EnrichOption customizes a single enrichment request.
type EnrichOption func(*enrichOptions)

// WithForceRefresh bypasses the freshness check and cool-down, forcing a
// new cascade run.
func WithForceRefresh() EnrichOption {
	return func(o *enrichOptions) { o.forceRefresh = true }
}

// Enrich produces the artifact of the given kind for a paper. Fresh
// cached artifacts are returned without invoking any provider; cached
// failures inside the cool-down window short-circuit with
// ErrRecentlyFailed. Concurrent calls for the same (paper, kind) are
// coalesced into one cascade run.
func (e *Engine) Enrich(ctx context.Context, documentID, sourceURL string, kind provider.Kind, opts ...EnrichOption) (*Result, error) {
	var o enrichOptions
	for _, opt := range opts {
		opt(&o)
	}

	chain, ok := e.chains[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if !o.forceRefresh {
		entry, err := e.store.Get(ctx, documentID, string(kind))
		if err != nil && !errors.Is(err, store.ErrCacheUnavailable) {
			return nil, err
		}
		if entry != nil {
			age := time.Since(entry.GeneratedAt)
			switch entry.Status {
			case store.StatusCompleted:
				if age < e.ttl(kind) {
					return &Result{
						Artifact:    entry.Artifact,
						ContentType: entry.ContentType,
						Provider:    entry.Provider,
						Cached:      true,
						GeneratedAt: entry.GeneratedAt,
					}, nil
				}
			case store.StatusFailed:
				if age < e.cfg.FailureCooldown {
					return nil, fmt.Errorf("%w: retry after %s",
						ErrRecentlyFailed, (e.cfg.FailureCooldown - age).Round(time.Second))
				}
			}
		}
	}

	key := documentID + "|" + string(kind)
	v, err, _ := e.group.Do(key, func() (interface{}, error) {
		// The cascade outlives the triggering request so a client
		// disconnect does not waste a half-finished run.
		return e.runCascade(context.WithoutCancel(ctx), documentID, sourceURL, kind, chain)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// runCascade walks the chain in order, returning the first artifact. A
// provider failure is logged and advances the cascade; exhausting the
// chain records a failed entry and starts the cool-down.
func (e *Engine) runCascade(ctx context.Context, documentID, sourceURL string, kind provider.Kind, chain []provider.Provider) (*Result, error) {
	prev, _ := e.store.Get(ctx, documentID, string(kind))
	failures := 0
	if prev != nil {
		failures = prev.FailureCount
	}

	if perr := e.store.Put(ctx, store.CacheEntry{
		PaperID:      documentID,
		Kind:         string(kind),
		Status:       store.StatusProcessing,
		GeneratedAt:  time.Now().UTC(),
		FailureCount: failures,
	}); perr != nil {
		slog.Warn("enrich: marking entry processing failed",
			"paper", documentID, "kind", kind, "error", perr)
	}

	req := provider.Request{DocumentID: documentID, SourceURL: sourceURL, Kind: kind}
	var lastErr error
	for _, p := range chain {
		pctx, cancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
		artifact, err := p.Invoke(pctx, req)
		cancel()
		if err != nil {
			lastErr = err
			slog.Debug("enrich: provider failed, advancing",
				"paper", documentID, "kind", kind, "provider", p.Name(), "error", err)
			continue
		}

		if perr := e.store.Put(ctx, store.CacheEntry{
			PaperID:     documentID,
			Kind:        string(kind),
			Artifact:    artifact.Payload,
			ContentType: artifact.ContentType,
			Status:      store.StatusCompleted,
			Provider:    artifact.Provider,
			GeneratedAt: artifact.GeneratedAt,
		}); perr != nil {
			slog.Warn("enrich: caching artifact failed",
				"paper", documentID, "kind", kind, "error", perr)
		}

		slog.Info("enrich: artifact generated",
			"paper", documentID, "kind", kind, "provider", artifact.Provider,
			"bytes", len(artifact.Payload))
		return &Result{
			Artifact:    artifact.Payload,
			ContentType: artifact.ContentType,
			Provider:    artifact.Provider,
			GeneratedAt: artifact.GeneratedAt,
		}, nil
	}

	if perr := e.store.Put(ctx, store.CacheEntry{
		PaperID:      documentID,
		Kind:         string(kind),
		Status:       store.StatusFailed,
		GeneratedAt:  time.Now().UTC(),
		FailureCount: failures + 1,
	}); perr != nil {
		slog.Warn("enrich: recording cascade failure failed",
			"paper", documentID, "kind", kind, "error", perr)
	}
	slog.Warn("enrich: cascade exhausted",
		"paper", documentID, "kind", kind, "failures", failures+1, "last_error", lastErr)
	return nil, fmt.Errorf("%w: %v", ErrExhaustedProviders, lastErr)
}

// ttl returns the freshness window for the given enrichment kind.
func (e *Engine) ttl(kind provider.Kind) time.Duration {
	switch kind {
	case provider.KindThumbnail:
		return e.cfg.ThumbnailTTL
	case provider.KindAnalysis:
		return e.cfg.AnalysisTTL
	default:
		return e.cfg.StructureTTL
	}
}
