package extract

import (
	"context"
	"image"
)

// TextLayer reads the embedded text of a PDF, one entry per page, stopping
// after maxPages. Pages without a text layer yield an empty string.
type TextLayer interface {
	PageTexts(data []byte, maxPages int) ([]string, error)
}

// Rasterizer opens a PDF for per-page text and rendering.
type Rasterizer interface {
	Open(data []byte) (RasterDocument, error)
}

// RasterDocument is an open PDF. Pages are zero-based.
type RasterDocument interface {
	NumPage() int
	Text(page int) (string, error)
	Render(page int, dpi float64) (image.Image, error)
	Close() error
}

// Recognizer turns an image into text. *ocr.Reader implements it.
type Recognizer interface {
	RecognizeImage(ctx context.Context, id string, img image.Image, dpi int) (string, error)
}
