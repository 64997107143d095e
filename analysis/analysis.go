// Package analysis generates a structured breakdown of a paper from its
// metadata using an LLM, with a deterministic canned fallback for when no
// model is configured or the model output cannot be parsed.
package analysis

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/paperpulse/enrich/llm"
	"github.com/paperpulse/enrich/metadata"
)

// Report is a structured paper analysis.
type Report struct {
	ExecutiveSummary    string   `json:"executive_summary"`
	KeyContributions    []string `json:"key_contributions"`
	Methodology         string   `json:"methodology"`
	Results             string   `json:"results"`
	TechnicalApproach   string   `json:"technical_approach"`
	Significance        string   `json:"significance"`
	Limitations         string   `json:"limitations"`
	TechnicalDifficulty int      `json:"technical_difficulty"` // 1=Basic .. 5=Cutting-edge
	TargetAudience      string   `json:"target_audience"`
}

const promptTemplate = `Analyze this research paper comprehensively and provide a structured analysis:

**Paper Details:**
Title: %s
Authors: %s
Abstract: %s

Please provide a detailed analysis in the following structured format:

**EXECUTIVE SUMMARY**
[Concise overview of the paper's main contribution and significance, 2-3 sentences]

**KEY CONTRIBUTIONS**
• [First major contribution]
• [Second major contribution]
• [Third major contribution]

**METHODOLOGY**
[Describe the approach, methods, or techniques used, 2-3 sentences]

**RESULTS & FINDINGS**
[Key results, performance metrics, or discoveries, 2-3 sentences]

**TECHNICAL APPROACH**
[Technical details about the implementation or theoretical framework, 2-3 sentences]

**SIGNIFICANCE & IMPACT**
[Why this work matters, potential applications, impact on field, 2-3 sentences]

**LIMITATIONS & FUTURE WORK**
[Acknowledged limitations and suggested future research directions, 2-3 sentences]

**TECHNICAL DIFFICULTY**
[Rate the technical complexity 1-5: 1=Basic, 2=Intermediate, 3=Advanced, 4=Expert, 5=Cutting-edge]

**TARGET AUDIENCE**
[Who would benefit most from reading this paper, 1-2 sentences]

Please be thorough but concise, focusing on actionable insights for researchers.`

// Generate asks the model for a structured analysis and parses its reply.
func Generate(ctx context.Context, p llm.Provider, meta metadata.Paper) (*Report, error) {
	if p == nil {
		return nil, fmt.Errorf("no analysis model configured")
	}
	if meta.Title == "" && meta.Abstract == "" {
		return nil, fmt.Errorf("no metadata to analyze")
	}

	prompt := fmt.Sprintf(promptTemplate, meta.Title, strings.Join(meta.Authors, ", "), meta.Abstract)

	resp, err := p.Chat(ctx, llm.ChatRequest{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   2048,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}

	report := parseResponse(resp.Content)
	if report.ExecutiveSummary == "" {
		return nil, fmt.Errorf("unparseable analysis response")
	}
	return report, nil
}

var (
	headerRe = regexp.MustCompile(`^\*\*(.+?)\*\*$`)
	digitRe  = regexp.MustCompile(`([1-5])`)
)

// parseResponse splits the model's **SECTION** formatted reply into fields.
func parseResponse(text string) *Report {
	sections := make(map[string]string)
	var current string
	var buf []string

	flush := func() {
		if current != "" && len(buf) > 0 {
			sections[current] = strings.TrimSpace(strings.Join(buf, "\n"))
		}
		buf = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := headerRe.FindStringSubmatch(line); m != nil {
			flush()
			current = strings.ToLower(strings.TrimSpace(m[1]))
			continue
		}
		if current != "" {
			buf = append(buf, line)
		}
	}
	flush()

	report := &Report{
		ExecutiveSummary:  sections["executive summary"],
		Methodology:       sections["methodology"],
		Results:           firstOf(sections, "results & findings", "results"),
		TechnicalApproach: sections["technical approach"],
		Significance:      firstOf(sections, "significance & impact", "significance"),
		Limitations:       firstOf(sections, "limitations & future work", "limitations"),
		TargetAudience:    sections["target audience"],
	}

	for _, line := range strings.Split(sections["key contributions"], "\n") {
		line = strings.TrimSpace(line)
		for _, bullet := range []string{"•", "-", "*"} {
			if strings.HasPrefix(line, bullet) {
				if c := strings.TrimSpace(strings.TrimPrefix(line, bullet)); c != "" {
					report.KeyContributions = append(report.KeyContributions, c)
				}
				break
			}
		}
	}

	report.TechnicalDifficulty = 3
	if m := digitRe.FindStringSubmatch(sections["technical difficulty"]); m != nil {
		report.TechnicalDifficulty = int(m[1][0] - '0')
	}
	return report
}

func firstOf(sections map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := sections[k]; v != "" {
			return v
		}
	}
	return ""
}

// Fallback builds a generic analysis from whatever metadata is available.
// It always succeeds, which makes it the terminal provider of the
// analysis chain.
func Fallback(meta metadata.Paper) *Report {
	summary := "This paper presents research addressing important challenges in its field."
	if meta.Title != "" {
		summary = fmt.Sprintf("%q presents research with contributions from %d author(s), addressing important challenges in the field.",
			meta.Title, len(meta.Authors))
	}

	return &Report{
		ExecutiveSummary: summary,
		KeyContributions: []string{
			"Novel approach to an existing problem",
			"Comprehensive experimental validation",
			"Improved performance over baseline methods",
		},
		Methodology:         "The authors employed a systematic approach combining theoretical analysis with empirical validation.",
		Results:             "The proposed method demonstrates competitive performance across relevant benchmarks.",
		TechnicalApproach:   "The paper presents a well-structured technical framework with clear implementation details.",
		Significance:        "This work contributes valuable insights to the field and opens new research directions.",
		Limitations:         "The study acknowledges limitations and suggests promising future research directions.",
		TechnicalDifficulty: 3,
		TargetAudience:      "Researchers and practitioners in the relevant field.",
	}
}
