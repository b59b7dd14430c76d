package mupdf

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	"github.com/xhad/medisimplify/pkg/extract"
)

// Rasterizer opens PDFs with MuPDF, which both extracts page text and renders
// pages to bitmaps for OCR.
type Rasterizer struct{}

func New() *Rasterizer {
	return &Rasterizer{}
}

func (r *Rasterizer) Open(data []byte) (extract.RasterDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &document{doc: doc}, nil
}

type document struct {
	doc *fitz.Document
}

func (d *document) NumPage() int { return d.doc.NumPage() }

func (d *document) Text(page int) (string, error) {
	return d.doc.Text(page)
}

func (d *document) Render(page int, dpi float64) (image.Image, error) {
	img, err := d.doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page+1, err)
	}
	return img, nil
}

func (d *document) Close() error { return d.doc.Close() }
