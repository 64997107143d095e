// Package structure derives a structural outline (ordered sections plus
// figure and table descriptors) from the raw text of a research paper.
// Everything here is a pure function over text: no I/O, no network, so the
// heuristics are unit-testable independent of fetching and caching.
//
// This is best-effort pattern matching with no ground-truth validation;
// accuracy depends entirely on the source document's formatting conventions.
package structure

import (
	"regexp"
	"strings"
)

// Section is one logical section of a paper.
type Section struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	ReadingMinutes int    `json:"reading_minutes"`
}

// Figure describes a figure or table referenced in the text.
type Figure struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        string `json:"kind"` // "chart", "diagram", "image", "table"
}

// minSectionBody is the shortest body accepted for a matched heading;
// anything shorter is likely a false positive (a table cell, a reference).
const minSectionBody = 50

// wordsPerMinute is the assumed reading speed for reading-time estimates.
const wordsPerMinute = 200

// canonicalHeadings is the ordered set of heading names recognised as
// section boundaries. Matching is case-insensitive with an optional
// numeric prefix ("3.", "IV" is not supported).
var canonicalHeadings = []string{
	"Abstract",
	"Introduction",
	"Related Work",
	"Background",
	"Methodology",
	"Experiments",
	"Results",
	"Discussion",
	"Conclusion",
}

var headingRe = regexp.MustCompile(
	`(?mi)^[ \t]*(?:\d+(?:\.\d+)*\.?\s+)?(abstract|introduction|related\s+work|background|methodology|methods?|experiments?|results?|discussion|conclusions?)\s*:?\s*$`)

// Outline is the full parse result.
type Outline struct {
	Sections []Section `json:"sections"`
	Figures  []Figure  `json:"figures"`
}

// Parse segments raw document text into an outline. Sections whose body is
// under 50 characters are discarded. Figure extraction runs independently
// of section segmentation. Parse is deterministic: identical input yields
// an identical outline.
func Parse(text string) Outline {
	return Outline{
		Sections: parseSections(text),
		Figures:  ParseFigures(text),
	}
}

func parseSections(text string) []Section {
	matches := headingRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	sections := make([]Section, 0, len(matches))
	for i, m := range matches {
		title := canonicalTitle(text[m[2]:m[3]])

		bodyStart := m[1]
		bodyEnd := len(text)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}

		body := strings.TrimSpace(text[bodyStart:bodyEnd])
		if len(body) < minSectionBody {
			continue
		}

		sections = append(sections, Section{
			ID:             sectionID(title),
			Title:          title,
			Body:           body,
			ReadingMinutes: readingMinutes(body),
		})
	}
	return sections
}

// canonicalTitle maps a matched heading back to its canonical spelling, so
// "RELATED  WORK" and "2. Related Work" both segment as "Related Work".
func canonicalTitle(matched string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(matched)), " ")
	for _, h := range canonicalHeadings {
		lower := strings.ToLower(h)
		if normalized == lower || normalized == lower+"s" {
			return h
		}
	}
	// Variant spellings that canonicalise to a listed heading.
	switch normalized {
	case "method", "methods":
		return "Methodology"
	case "experiment":
		return "Experiments"
	case "result":
		return "Results"
	}
	words := strings.Fields(normalized)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func sectionID(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}

// readingMinutes estimates reading time at 200 words per minute, never
// reporting less than one minute.
func readingMinutes(body string) int {
	words := len(strings.Fields(body))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
