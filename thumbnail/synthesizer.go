// Package thumbnail renders schematic preview images for papers whose
// native document cannot be rendered. The output is deterministic for a
// given metadata input and never touches the network, which makes it the
// guaranteed-success terminal provider of the thumbnail chain.
package thumbnail

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Metadata is the textual content embedded into a synthesized preview.
// Empty fields degrade to generic placeholder text.
type Metadata struct {
	DocumentID string
	Title      string
	Abstract   string
	Authors    []string
}

const (
	pageWidth  = 600
	pageHeight = 780
	margin     = 40.0
)

// Render draws a schematic paper page (title, authors, abstract excerpt,
// source footer) and returns it as PNG bytes. Identical metadata produces
// byte-identical output.
func Render(meta Metadata) ([]byte, error) {
	dc := gg.NewContext(pageWidth, pageHeight)
	dc.SetFontFace(basicfont.Face7x13)

	// Page background and border.
	dc.SetRGB255(255, 255, 255)
	dc.Clear()
	dc.SetRGB255(210, 214, 220)
	dc.SetLineWidth(2)
	dc.DrawRectangle(8, 8, pageWidth-16, pageHeight-16)
	dc.Stroke()

	// Accent bar across the top.
	dc.SetRGB255(37, 99, 235)
	dc.DrawRectangle(8, 8, pageWidth-16, 10)
	dc.Fill()

	textWidth := float64(pageWidth) - 2*margin
	y := 70.0

	title := meta.Title
	if title == "" {
		title = "Untitled paper"
	}
	dc.SetRGB255(17, 24, 39)
	dc.DrawStringWrapped(truncate(title, 200), margin, y, 0, 0, textWidth, 1.6, gg.AlignLeft)
	y += wrappedHeight(dc, truncate(title, 200), textWidth, 1.6) + 26

	byline := strings.Join(meta.Authors, ", ")
	if byline == "" {
		byline = meta.DocumentID
	}
	dc.SetRGB255(75, 85, 99)
	dc.DrawStringWrapped(truncate(byline, 160), margin, y, 0, 0, textWidth, 1.5, gg.AlignLeft)
	y += wrappedHeight(dc, truncate(byline, 160), textWidth, 1.5) + 18

	// Separator rule.
	dc.SetRGB255(229, 231, 235)
	dc.DrawRectangle(margin, y, textWidth, 1)
	dc.Fill()
	y += 24

	abstract := meta.Abstract
	if abstract == "" {
		abstract = "No abstract available for this paper."
	}
	dc.SetRGB255(55, 65, 81)
	dc.DrawStringWrapped(truncate(abstract, 900), margin, y, 0, 0, textWidth, 1.7, gg.AlignLeft)

	// Footer with the source identifier.
	footer := "arXiv"
	if meta.DocumentID != "" {
		footer = fmt.Sprintf("arXiv · %s", meta.DocumentID)
	}
	dc.SetRGB255(107, 114, 128)
	dc.DrawString(footer, margin, pageHeight-30)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// wrappedHeight measures the vertical space DrawStringWrapped will use so
// the next block can be positioned beneath it.
func wrappedHeight(dc *gg.Context, s string, width, lineSpacing float64) float64 {
	lines := dc.WordWrap(s, width)
	_, lineHeight := dc.MeasureString("M")
	return float64(len(lines)) * lineHeight * lineSpacing
}

// truncate bounds s to max runes, cutting on rune boundaries.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}
