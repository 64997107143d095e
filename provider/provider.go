// Package provider implements the enrichment strategies. A chain is an
// ordered list of providers for one enrichment kind; the orchestrator
// invokes them in priority order and stops at the first success. Provider
// failures are soft: raising, timing out, or returning invalid content
// just advances the cascade.
package provider

import (
	"context"
	"errors"
	"time"
)

// Kind identifies what is being derived for a document.
type Kind string

const (
	KindStructure Kind = "structure"
	KindThumbnail Kind = "thumbnail"
	KindAnalysis  Kind = "analysis"
)

// Request identifies the document to enrich.
type Request struct {
	DocumentID string
	SourceURL  string
	Kind       Kind
}

// Artifact is a derived enrichment payload.
type Artifact struct {
	Payload     []byte
	ContentType string
	Provider    string
	GeneratedAt time.Time
}

// Provider is one strategy capable of attempting to produce an artifact.
// Implementations may call the network or compute locally; the orchestrator
// treats both uniformly.
type Provider interface {
	Name() string
	Invoke(ctx context.Context, req Request) (*Artifact, error)
}

var (
	// ErrUpstreamUnavailable marks network trouble, timeouts, or bad
	// status/content from an upstream service.
	ErrUpstreamUnavailable = errors.New("provider: upstream unavailable")

	// ErrInsufficientContent marks extracted content below the minimum
	// viable length.
	ErrInsufficientContent = errors.New("provider: insufficient content")
)
