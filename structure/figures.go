package structure

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	minCaption = 15
	maxCaption = 500
	maxFigures = 8
)

var (
	figureLabelRe = regexp.MustCompile(`(?i)(?:figure|fig\.?)\s+(\d+)\s*[:.]?\s*([^\n]+)`)
	tableLabelRe  = regexp.MustCompile(`(?i)table\s+(\d+)\s*[:.]?\s*([^\n]+)`)
)

// ParseFigures scans text for "Figure N" / "Table N" captions and returns
// descriptors deduplicated by label, sorted numerically, capped at 8.
// When no labels match, keyword-density heuristics over the whole text
// synthesize minimal generic descriptors instead. Parsing identical text
// twice yields identical ordered results.
func ParseFigures(text string) []Figure {
	var figs []Figure
	figs = append(figs, scanLabels(text, figureLabelRe, "fig", "Figure")...)
	figs = append(figs, scanLabels(text, tableLabelRe, "table", "Table")...)

	if len(figs) == 0 {
		return genericFigures(text)
	}

	// Dedupe by label, keeping the first caption seen for each.
	seen := make(map[string]bool, len(figs))
	unique := figs[:0]
	for _, f := range figs {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		unique = append(unique, f)
	}

	// Figures sort before tables, then by label number within each group.
	sort.SliceStable(unique, func(i, j int) bool {
		if p, q := labelPrefix(unique[i].ID), labelPrefix(unique[j].ID); p != q {
			return p < q
		}
		return labelNumber(unique[i].ID) < labelNumber(unique[j].ID)
	})

	if len(unique) > maxFigures {
		unique = unique[:maxFigures]
	}
	return unique
}

func scanLabels(text string, re *regexp.Regexp, idPrefix, titlePrefix string) []Figure {
	var figs []Figure
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		num := m[1]
		caption := cleanCaption(m[2])
		if len(caption) < minCaption {
			continue
		}

		kind := "table"
		if idPrefix == "fig" {
			kind = classifyFigureKind(caption)
		}

		figs = append(figs, Figure{
			ID:          idPrefix + num,
			Title:       fmt.Sprintf("%s %s", titlePrefix, num),
			Description: caption,
			Kind:        kind,
		})
	}
	return figs
}

// cleanCaption collapses whitespace and bounds the caption length.
// Truncation happens on rune boundaries so multi-byte characters survive.
func cleanCaption(raw string) string {
	caption := strings.Join(strings.Fields(raw), " ")
	if runes := []rune(caption); len(runes) > maxCaption {
		caption = strings.TrimSpace(string(runes[:maxCaption-3])) + "..."
	}
	return caption
}

// classifyFigureKind guesses the figure kind from caption keywords.
// Chart keywords are checked first so "Model accuracy" classifies as a
// chart rather than a model diagram.
func classifyFigureKind(caption string) string {
	lower := strings.ToLower(caption)
	switch {
	case containsAny(lower, "performance", "accuracy", "comparison", "versus", "benchmark", "curve"):
		return "chart"
	case containsAny(lower, "architecture", "overview", "system", "model", "pipeline", "framework"):
		return "diagram"
	case containsAny(lower, "example", "sample", "visual", "illustration", "screenshot"):
		return "image"
	default:
		return "diagram"
	}
}

// genericFigures synthesizes descriptors from keyword density when the
// label scan found nothing.
func genericFigures(text string) []Figure {
	lower := strings.ToLower(text)
	var figs []Figure

	if containsAny(lower, "architecture", "framework", "pipeline", "system design") {
		figs = append(figs, Figure{
			ID:          "fig1",
			Title:       "Figure 1",
			Description: "Overview of the proposed system architecture.",
			Kind:        "diagram",
		})
	}
	if containsAny(lower, "accuracy", "performance", "benchmark", "evaluation") {
		figs = append(figs, Figure{
			ID:          "fig" + strconv.Itoa(len(figs)+1),
			Title:       "Figure " + strconv.Itoa(len(figs)+1),
			Description: "Performance comparison across evaluated methods.",
			Kind:        "chart",
		})
	}
	if containsAny(lower, "dataset", "hyperparameter", "ablation") {
		figs = append(figs, Figure{
			ID:          "table1",
			Title:       "Table 1",
			Description: "Summary of datasets and experimental settings.",
			Kind:        "table",
		})
	}
	return figs
}

func labelPrefix(id string) string {
	return strings.TrimRight(id, "0123456789")
}

func labelNumber(id string) int {
	digits := strings.TrimLeft(id, "abcdefghijklmnopqrstuvwxyz")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
