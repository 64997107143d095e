package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/paperpulse/enrich/llm"
	"github.com/paperpulse/enrich/metadata"
)

const sampleResponse = `**EXECUTIVE SUMMARY**
The paper introduces a streaming parser that recovers document structure
without any learned components.

**KEY CONTRIBUTIONS**
• A heading heuristic covering the canonical paper sections
• A figure caption classifier driven by keyword matching
- A degradation path that always yields a renderable outline

**METHODOLOGY**
Regular expressions segment the text; each segment gets a reading-time estimate.

**RESULTS & FINDINGS**
The pipeline recovers sections on most formatted papers.

**TECHNICAL APPROACH**
A provider cascade tries extraction strategies in priority order.

**SIGNIFICANCE & IMPACT**
Downstream consumers always receive a structured outline to render.

**LIMITATIONS & FUTURE WORK**
Heuristics fail on papers with unconventional formatting.

**TECHNICAL DIFFICULTY**
4 - Expert

**TARGET AUDIENCE**
Engineers building document processing pipelines.`

func TestParseResponse(t *testing.T) {
	report := parseResponse(sampleResponse)

	if !strings.Contains(report.ExecutiveSummary, "streaming parser") {
		t.Errorf("ExecutiveSummary = %q", report.ExecutiveSummary)
	}
	if len(report.KeyContributions) != 3 {
		t.Fatalf("KeyContributions = %v, want 3 entries", report.KeyContributions)
	}
	if !strings.HasPrefix(report.KeyContributions[0], "A heading heuristic") {
		t.Errorf("first contribution = %q", report.KeyContributions[0])
	}
	if report.TechnicalDifficulty != 4 {
		t.Errorf("TechnicalDifficulty = %d, want 4", report.TechnicalDifficulty)
	}
	if !strings.Contains(report.Results, "recovers sections") {
		t.Errorf("Results = %q", report.Results)
	}
	if !strings.Contains(report.TargetAudience, "Engineers") {
		t.Errorf("TargetAudience = %q", report.TargetAudience)
	}
}

func TestParseResponseDefaults(t *testing.T) {
	report := parseResponse("**EXECUTIVE SUMMARY**\nJust a summary, nothing else.")

	if report.ExecutiveSummary == "" {
		t.Error("expected summary to be captured")
	}
	if report.TechnicalDifficulty != 3 {
		t.Errorf("TechnicalDifficulty = %d, want default 3", report.TechnicalDifficulty)
	}
	if len(report.KeyContributions) != 0 {
		t.Errorf("KeyContributions = %v, want empty", report.KeyContributions)
	}
}

func TestParseResponseUnstructured(t *testing.T) {
	report := parseResponse("The model ignored the format and just rambled on for a while.")
	if report.ExecutiveSummary != "" {
		t.Errorf("ExecutiveSummary = %q, want empty for unstructured reply", report.ExecutiveSummary)
	}
}

// stubChat returns a fixed response for every chat request.
type stubChat struct {
	response string
	err      error
	calls    int
}

func (s *stubChat) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatResponse{Content: s.response}, nil
}

func TestGenerate(t *testing.T) {
	stub := &stubChat{response: sampleResponse}
	report, err := Generate(context.Background(), stub, metadata.Paper{
		ID:       "2401.12345",
		Title:    "A Paper",
		Abstract: "An abstract.",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("chat calls = %d, want 1", stub.calls)
	}
	if report.TechnicalDifficulty != 4 {
		t.Errorf("TechnicalDifficulty = %d, want 4", report.TechnicalDifficulty)
	}
}

func TestGenerateNoMetadata(t *testing.T) {
	stub := &stubChat{response: sampleResponse}
	_, err := Generate(context.Background(), stub, metadata.Paper{ID: "2401.12345"})
	if err == nil {
		t.Error("expected error when no metadata is available")
	}
	if stub.calls != 0 {
		t.Errorf("chat calls = %d, want 0 when metadata is missing", stub.calls)
	}
}

func TestGenerateUnparseable(t *testing.T) {
	stub := &stubChat{response: "free-form rambling with no section markers"}
	_, err := Generate(context.Background(), stub, metadata.Paper{Title: "A Paper"})
	if err == nil {
		t.Error("expected error for unparseable model output")
	}
}

func TestFallback(t *testing.T) {
	report := Fallback(metadata.Paper{
		Title:   "A Paper",
		Authors: []string{"A. Author", "B. Coauthor"},
	})
	if !strings.Contains(report.ExecutiveSummary, `"A Paper"`) {
		t.Errorf("ExecutiveSummary = %q, want title mentioned", report.ExecutiveSummary)
	}
	if report.TechnicalDifficulty != 3 {
		t.Errorf("TechnicalDifficulty = %d, want 3", report.TechnicalDifficulty)
	}
	if len(report.KeyContributions) == 0 {
		t.Error("fallback report has no contributions")
	}
}

func TestFallbackNoMetadata(t *testing.T) {
	report := Fallback(metadata.Paper{ID: "2401.12345"})
	if report.ExecutiveSummary == "" {
		t.Error("fallback with empty metadata must still produce a summary")
	}
}
