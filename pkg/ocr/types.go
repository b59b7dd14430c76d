package ocr

import "context"

// Input is one encoded image submitted for recognition.
type Input struct {
	// ID is echoed into log lines and errors, e.g. "page-3".
	ID string
	// Image is a PNG payload, already converted to RGB and downscaled.
	Image []byte
	// DPI is the effective resolution of a rendered PDF page. Zero means unknown.
	DPI int
	// Languages holds trained-data hints such as "eng".
	Languages []string
}

// Engine recognises text in a single image. Paragraphs are returned joined by
// newlines. Engines are not required to be safe for concurrent use; Reader
// serialises access.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (string, error)
	Close() error
}

// Factory builds an Engine. It is called at most once per Reader.
type Factory func() (Engine, error)
