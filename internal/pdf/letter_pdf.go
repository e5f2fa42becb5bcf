package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/Gantur-Enbotics/xmas-2025/internal/models"
)

// Generator renders letters to PDF; an interface so handlers can be
// tested with a stub.
type Generator interface {
	GenerateLetter(l *models.Letter) ([]byte, error)
}

// LetterGenerator is the gofpdf implementation. FontPath may point to a
// TTF with Cyrillic/Mongolian glyph coverage; without it the core Arial
// font is used and non-Latin text will degrade.
type LetterGenerator struct {
	FontPath string
	fontName string
}

func NewLetterGenerator(fontPath string) *LetterGenerator {
	return &LetterGenerator{FontPath: fontPath, fontName: "DejaVu"}
}

func (g *LetterGenerator) GenerateLetter(l *models.Letter) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	font := "Arial"
	if g.FontPath != "" {
		doc.AddUTF8Font(g.fontName, "", g.FontPath)
		font = g.fontName
	}
	doc.AddPage()

	doc.SetFont(font, "", 18)
	doc.MultiCell(0, 10, l.Title, "", "C", false)
	doc.Ln(4)

	doc.SetFont(font, "", 12)
	doc.MultiCell(0, 6, l.Context, "", "L", false)

	if l.ExtraNote != "" {
		doc.Ln(4)
		doc.SetFont(font, "", 10)
		doc.MultiCell(0, 5, l.ExtraNote, "", "L", false)
	}

	if len(l.Attachments) > 0 {
		doc.Ln(6)
		doc.SetFont(font, "", 10)
		doc.MultiCell(0, 5, "Attachments:", "", "L", false)
		for _, a := range l.Attachments {
			// embedded payloads are listed by filename, never inlined
			label := a.Filename
			if a.Kind == models.AttachmentURL {
				label = a.Data
			}
			if label == "" {
				label = "(embedded media)"
			}
			doc.MultiCell(0, 5, " - "+label, "", "L", false)
		}
	}

	doc.SetFont(font, "", 8)
	doc.SetY(-20)
	doc.MultiCell(0, 4, fmt.Sprintf("Created %s", l.CreatedAt.Format("2006-01-02")), "", "R", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("letter pdf render: %w", err)
	}
	return buf.Bytes(), nil
}
