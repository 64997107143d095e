package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/paperpulse/enrich/structure"
)

// Text extraction modes for the structure chain. Plain extraction is the
// fast path; row extraction reassembles text from positioned fragments and
// recovers documents where the plain path yields almost nothing.
const (
	ModePlain = "plain"
	ModeRows  = "rows"
)

// TextExtractor downloads the document's PDF, extracts its raw text, and
// runs the structural parser over it. Extraction under MinText characters
// is a soft failure so the cascade can try the next strategy.
type TextExtractor struct {
	Fetch   *Fetcher
	Mode    string
	MinText int
}

func (p *TextExtractor) Name() string {
	if p.Mode == ModeRows {
		return "pdf-rows"
	}
	return "pdf-text"
}

func (p *TextExtractor) Invoke(ctx context.Context, req Request) (*Artifact, error) {
	data, _, err := p.Fetch.Get(ctx, pdfURL(req.SourceURL), "")
	if err != nil {
		return nil, err
	}

	text, err := p.extract(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientContent, err)
	}

	minText := p.MinText
	if minText == 0 {
		minText = 100
	}
	if len(text) < minText {
		return nil, fmt.Errorf("%w: extracted %d chars, need %d", ErrInsufficientContent, len(text), minText)
	}

	outline := structure.Parse(text)
	if len(outline.Sections) == 0 {
		return nil, fmt.Errorf("%w: no sections segmented", ErrInsufficientContent)
	}

	payload, err := json.Marshal(outline)
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

func (p *TextExtractor) extract(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		if p.Mode == ModeRows {
			rows, err := page.GetTextByRow()
			if err != nil {
				// Skip pages that fail to extract
				continue
			}
			for _, row := range rows {
				for _, word := range row.Content {
					sb.WriteString(word.S)
					sb.WriteString(" ")
				}
				sb.WriteString("\n")
			}
		} else {
			text, err := page.GetPlainText(nil)
			if err != nil {
				continue
			}
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// CannedStructure returns the fixed section template. It is the terminal
// provider of the structure chain and never fails.
type CannedStructure struct{}

func (CannedStructure) Name() string { return "canned-template" }

func (CannedStructure) Invoke(ctx context.Context, req Request) (*Artifact, error) {
	payload, err := json.Marshal(structure.Canned())
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Payload:     payload,
		ContentType: "application/json",
		Provider:    "canned-template",
		GeneratedAt: time.Now().UTC(),
	}, nil
}
