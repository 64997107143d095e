package structure

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Section segmentation tests
// ---------------------------------------------------------------------------

const samplePaper = `Deep Residual Learning for Paper Parsing

Abstract
We present a heuristic pipeline that segments research papers into their
canonical sections using nothing but text patterns.

1. Introduction
Research papers follow a remarkably stable structure, which makes them
amenable to pattern-based segmentation without any learned components.
This section motivates the problem and summarises our contributions.

2. Related Work
Prior systems rely on layout analysis or trained models. We show that a
handful of regular expressions recovers most of the same structure.

3. Methodology
We match canonical headings with optional numeric prefixes, then assign
each heading the text that follows it up to the next heading.

4. Results
The pipeline recovers sections on formatted papers and degrades to a
template when extraction fails, so downstream consumers always get an
outline to render.

5. Conclusion
Simple heuristics go a long way when the input is as conventional as the
research paper.`

func TestParseSections(t *testing.T) {
	out := Parse(samplePaper)

	wantTitles := []string{"Abstract", "Introduction", "Related Work", "Methodology", "Results", "Conclusion"}
	if len(out.Sections) != len(wantTitles) {
		t.Fatalf("expected %d sections, got %d: %+v", len(wantTitles), len(out.Sections), out.Sections)
	}

	for i, want := range wantTitles {
		sec := out.Sections[i]
		if sec.Title != want {
			t.Errorf("section[%d].Title = %q, want %q", i, sec.Title, want)
		}
		if sec.Body == "" {
			t.Errorf("section[%d].Body is empty", i)
		}
		if sec.ReadingMinutes < 1 {
			t.Errorf("section[%d].ReadingMinutes = %d, want >= 1", i, sec.ReadingMinutes)
		}
	}

	if out.Sections[2].ID != "related-work" {
		t.Errorf("Related Work ID = %q, want %q", out.Sections[2].ID, "related-work")
	}
}

func TestParseDiscardsShortBodies(t *testing.T) {
	// The Introduction body is under 50 characters and must be dropped.
	text := `Introduction
Too short.

Methodology
This section carries enough body text to clear the minimum length cutoff
for a real section.`

	out := Parse(text)
	if len(out.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d: %+v", len(out.Sections), out.Sections)
	}
	if out.Sections[0].Title != "Methodology" {
		t.Errorf("surviving section = %q, want %q", out.Sections[0].Title, "Methodology")
	}
}

func TestParseHeadingVariants(t *testing.T) {
	tests := []struct {
		name    string
		heading string
		want    string
	}{
		{"numbered", "3. Methodology", "Methodology"},
		{"nested_number", "4.1 Experiments", "Experiments"},
		{"all_caps", "RELATED WORK", "Related Work"},
		{"trailing_colon", "Results:", "Results"},
		{"singular_method", "2 Methods", "Methodology"},
		{"singular_result", "Result", "Results"},
		{"singular_conclusion", "Conclusions", "Conclusion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := tt.heading + "\nThis body carries enough text to clear the minimum section length cutoff easily.\n"
			out := Parse(text)
			if len(out.Sections) != 1 {
				t.Fatalf("expected 1 section for heading %q, got %d", tt.heading, len(out.Sections))
			}
			if out.Sections[0].Title != tt.want {
				t.Errorf("title = %q, want %q", out.Sections[0].Title, tt.want)
			}
		})
	}
}

func TestParseNoHeadings(t *testing.T) {
	out := Parse("just flowing prose without any recognizable heading in it at all")
	if len(out.Sections) != 0 {
		t.Errorf("expected 0 sections, got %d", len(out.Sections))
	}
}

func TestParseDeterministic(t *testing.T) {
	first := Parse(samplePaper)
	second := Parse(samplePaper)
	if !reflect.DeepEqual(first, second) {
		t.Error("parsing identical text twice produced different outlines")
	}
}

// ---------------------------------------------------------------------------
// Reading time tests
// ---------------------------------------------------------------------------

func TestReadingMinutes(t *testing.T) {
	tests := []struct {
		name  string
		words int
		want  int
	}{
		{"short", 10, 1},
		{"exactly_one_minute", 200, 1},
		{"just_over", 201, 2},
		{"three_minutes", 600, 3},
		{"empty", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.TrimSpace(strings.Repeat("word ", tt.words))
			if got := readingMinutes(body); got != tt.want {
				t.Errorf("readingMinutes(%d words) = %d, want %d", tt.words, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Figure extraction tests
// ---------------------------------------------------------------------------

func TestParseFiguresClassification(t *testing.T) {
	text := "As shown in Figure 3: Model accuracy across datasets.\nMore text follows."

	figs := ParseFigures(text)
	if len(figs) != 1 {
		t.Fatalf("expected 1 figure, got %d: %+v", len(figs), figs)
	}

	f := figs[0]
	if f.ID != "fig3" {
		t.Errorf("ID = %q, want %q", f.ID, "fig3")
	}
	if f.Kind != "chart" {
		t.Errorf("Kind = %q, want %q", f.Kind, "chart")
	}
	if !strings.HasSuffix(f.Description, ".") {
		t.Errorf("Description = %q, want trailing period", f.Description)
	}
}

func TestClassifyFigureKind(t *testing.T) {
	tests := []struct {
		name    string
		caption string
		want    string
	}{
		{"accuracy_chart", "Model accuracy across datasets.", "chart"},
		{"benchmark_chart", "Benchmark results on three suites.", "chart"},
		{"architecture_diagram", "Overall architecture of the proposed model.", "diagram"},
		{"pipeline_diagram", "The training pipeline end to end.", "diagram"},
		{"sample_image", "Sample outputs from the generator.", "image"},
		{"default_diagram", "Attention weights for a selected head.", "diagram"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyFigureKind(tt.caption); got != tt.want {
				t.Errorf("classifyFigureKind(%q) = %q, want %q", tt.caption, got, tt.want)
			}
		})
	}
}

func TestParseFiguresDedupeAndOrder(t *testing.T) {
	text := `Figure 2: Performance comparison against strong baselines.
Figure 1: Architecture overview of the full system.
Figure 2: A duplicate caption that must be ignored entirely.
Table 1: Dataset statistics for every evaluated corpus.`

	figs := ParseFigures(text)
	if len(figs) != 3 {
		t.Fatalf("expected 3 figures, got %d: %+v", len(figs), figs)
	}

	wantIDs := []string{"fig1", "fig2", "table1"}
	for i, want := range wantIDs {
		if figs[i].ID != want {
			t.Errorf("figs[%d].ID = %q, want %q", i, figs[i].ID, want)
		}
	}

	// First caption wins for duplicate labels.
	if !strings.Contains(figs[1].Description, "Performance comparison") {
		t.Errorf("fig2 description = %q, want first caption kept", figs[1].Description)
	}
	if figs[2].Kind != "table" {
		t.Errorf("table kind = %q, want %q", figs[2].Kind, "table")
	}
}

func TestParseFiguresTablesAfterFigures(t *testing.T) {
	// Tables sort after every figure regardless of their label numbers.
	text := `Table 1: Dataset statistics for every evaluated corpus.
Figure 2: Accuracy curve over the course of training.
Figure 1: Architecture overview of the full system.`

	figs := ParseFigures(text)
	if len(figs) != 3 {
		t.Fatalf("expected 3 figures, got %d: %+v", len(figs), figs)
	}

	wantIDs := []string{"fig1", "fig2", "table1"}
	for i, want := range wantIDs {
		if figs[i].ID != want {
			t.Errorf("figs[%d].ID = %q, want %q", i, figs[i].ID, want)
		}
	}
	if figs[2].Kind != "table" {
		t.Errorf("figs[2].Kind = %q, want %q", figs[2].Kind, "table")
	}
	if !strings.Contains(figs[2].Description, "Dataset statistics") {
		t.Errorf("figs[2].Description = %q, want the table caption", figs[2].Description)
	}
}

func TestCleanCaptionMultibyte(t *testing.T) {
	caption := strings.Repeat("é", 600)
	got := cleanCaption(caption)

	if !utf8.ValidString(got) {
		t.Error("truncated caption is not valid UTF-8")
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("caption = %q..., want ellipsis suffix", got[:20])
	}
	if n := utf8.RuneCountInString(got); n != maxCaption {
		t.Errorf("caption length = %d runes, want %d", n, maxCaption)
	}
}

func TestParseFiguresCap(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 12; i++ {
		b.WriteString("Figure ")
		b.WriteString(string(rune('0' + i/10)))
		b.WriteString(string(rune('0' + i%10)))
		b.WriteString(": A caption long enough to be kept around.\n")
	}

	figs := ParseFigures(b.String())
	if len(figs) != 8 {
		t.Errorf("expected cap at 8 figures, got %d", len(figs))
	}
}

func TestParseFiguresShortCaptionSkipped(t *testing.T) {
	figs := ParseFigures("Figure 1: Tiny.\n")
	// The label scan rejects the short caption; with no other signal in the
	// text the generic heuristics produce nothing either.
	if len(figs) != 0 {
		t.Errorf("expected 0 figures, got %d: %+v", len(figs), figs)
	}
}

func TestGenericFigures(t *testing.T) {
	text := `The proposed architecture processes documents in a streaming
pipeline. We evaluate accuracy on a held-out benchmark and report
hyperparameter settings for every dataset.`

	figs := ParseFigures(text)
	if len(figs) != 3 {
		t.Fatalf("expected 3 generic figures, got %d: %+v", len(figs), figs)
	}
	if figs[0].Kind != "diagram" || figs[1].Kind != "chart" || figs[2].Kind != "table" {
		t.Errorf("generic kinds = %q/%q/%q, want diagram/chart/table",
			figs[0].Kind, figs[1].Kind, figs[2].Kind)
	}
}

func TestParseFiguresIdempotent(t *testing.T) {
	text := "Figure 1: Architecture overview of the whole system.\nFigure 2: Accuracy curve during training runs."
	first := ParseFigures(text)
	second := ParseFigures(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("figure extraction not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}

// ---------------------------------------------------------------------------
// Canned template tests
// ---------------------------------------------------------------------------

func TestCannedTemplate(t *testing.T) {
	out := Canned()

	wantTitles := []string{"Abstract", "Introduction", "Related Work", "Methodology", "Experiments", "Results", "Conclusion"}
	if len(out.Sections) != len(wantTitles) {
		t.Fatalf("expected %d sections, got %d", len(wantTitles), len(out.Sections))
	}

	for i, want := range wantTitles {
		sec := out.Sections[i]
		if sec.Title != want {
			t.Errorf("section[%d].Title = %q, want %q", i, sec.Title, want)
		}
		if sec.ReadingMinutes < 1 {
			t.Errorf("section[%d].ReadingMinutes = %d, want >= 1", i, sec.ReadingMinutes)
		}
		if sec.ID == "" || sec.Body == "" {
			t.Errorf("section[%d] has empty ID or Body", i)
		}
	}
}
