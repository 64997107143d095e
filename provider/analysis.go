package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paperpulse/enrich/analysis"
	"github.com/paperpulse/enrich/llm"
	"github.com/paperpulse/enrich/metadata"
)

// Analyzer produces a structured analysis report from paper metadata via
// a chat model. Missing metadata or a malformed model response soft-fails
// into the canned report.
type Analyzer struct {
	Resolver *metadata.Resolver
	LLM      llm.Provider
}

func (p *Analyzer) Name() string { return "llm-analyzer" }

func (p *Analyzer) Invoke(ctx context.Context, req Request) (*Artifact, error) {
	if p.LLM == nil {
		return nil, fmt.Errorf("%w: no chat provider configured", ErrUpstreamUnavailable)
	}

	meta := metadata.Paper{ID: req.DocumentID}
	if p.Resolver != nil {
		meta = p.Resolver.Lookup(ctx, req.DocumentID, req.SourceURL)
	}

	report, err := analysis.Generate(ctx, p.LLM, meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Payload:     payload,
		ContentType: "application/json",
		Provider:    p.Name(),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// CannedAnalysis is the terminal analysis provider. It fills the report
// template from whatever metadata is available and always succeeds.
type CannedAnalysis struct {
	Resolver *metadata.Resolver
}

func (p *CannedAnalysis) Name() string { return "canned-analysis" }

func (p *CannedAnalysis) Invoke(ctx context.Context, req Request) (*Artifact, error) {
	meta := metadata.Paper{ID: req.DocumentID}
	if p.Resolver != nil {
		meta = p.Resolver.Lookup(ctx, req.DocumentID, req.SourceURL)
	}

	payload, err := json.Marshal(analysis.Fallback(meta))
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Payload:     payload,
		ContentType: "application/json",
		Provider:    p.Name(),
		GeneratedAt: time.Now().UTC(),
	}, nil
}
