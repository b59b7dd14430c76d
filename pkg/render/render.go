package render

import (
	"bufio"
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	TextFilename = "simplified_medical_text.txt"
	PDFFilename  = "simplified_medical_text.pdf"
	TextMIME     = "text/plain; charset=utf-8"
	PDFMIME      = "application/pdf"
)

// Raw HTML from the model is dropped; goldmark escapes it unless WithUnsafe is set.
var markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

// HTML renders the model's Markdown answer (bullets, emphasis) for the page.
func HTML(text string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// PDF lays the simplified text out on A4 pages. Headings and bullets are kept,
// other Markdown markers are stripped.
func PDF(title, text string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "", 11)
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			pdf.Ln(4)
			continue
		}
		if strings.HasPrefix(s, "#") {
			i := 0
			for i < len(s) && s[i] == '#' {
				i++
			}
			heading := stripEmphasis(strings.TrimSpace(s[i:]))
			if heading == "" {
				continue
			}
			size := 14.0
			if i >= 2 {
				size = 12.0
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.CellFormat(0, 8, tr(heading), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		if bullet, ok := bulletText(s); ok {
			pdf.SetX(pdf.GetX() + 4)
			pdf.MultiCell(0, 5, tr("• "+stripEmphasis(bullet)), "", "L", false)
			continue
		}
		pdf.MultiCell(0, 5, tr(stripEmphasis(s)), "", "L", false)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan text: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func bulletText(s string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "+ ", "• "} {
		if strings.HasPrefix(s, marker) {
			return strings.TrimSpace(s[len(marker):]), true
		}
	}
	return "", false
}

func stripEmphasis(s string) string {
	return strings.NewReplacer("**", "", "__", "", "`", "").Replace(s)
}
