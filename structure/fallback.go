package structure

// Canned returns the fixed seven-section template used when no usable text
// could be extracted from the document. It always succeeds, which makes it
// the terminal fallback of the structure chain: every enrichment request
// can be answered with at least this outline.
func Canned() Outline {
	return Outline{
		Sections: []Section{
			{ID: "abstract", Title: "Abstract", Body: "Summary of the paper's contribution. Open the source document for the full text.", ReadingMinutes: 1},
			{ID: "introduction", Title: "Introduction", Body: "Motivation, problem statement, and a summary of the contributions.", ReadingMinutes: 3},
			{ID: "related-work", Title: "Related Work", Body: "Positioning of the paper against prior approaches in the area.", ReadingMinutes: 4},
			{ID: "methodology", Title: "Methodology", Body: "Description of the proposed approach and its technical components.", ReadingMinutes: 6},
			{ID: "experiments", Title: "Experiments", Body: "Experimental setup, datasets, baselines, and evaluation protocol.", ReadingMinutes: 5},
			{ID: "results", Title: "Results", Body: "Quantitative and qualitative results with comparisons to baselines.", ReadingMinutes: 4},
			{ID: "conclusion", Title: "Conclusion", Body: "Summary of findings, limitations, and directions for future work.", ReadingMinutes: 2},
		},
	}
}
