package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/xhad/medisimplify/internal/models"
	"github.com/xhad/medisimplify/pkg/ocr"
	"github.com/xhad/medisimplify/pkg/processor"
)

const (
	MethodTextLayer = "text-layer"
	MethodRender    = "render"
	MethodOCR       = "ocr"
)

type ExtractorConfig struct {
	// TextLayerPages caps the fast text-layer pass.
	TextLayerPages int
	// RenderPages caps the render/OCR fallback pass.
	RenderPages int
	// MinPageChars is the trimmed length a page needs to count as text.
	MinPageChars int
	// MinTextLayerChars is the trimmed total that makes the text layer enough.
	MinTextLayerChars int
	// RenderDPI is the resolution pages are rendered at before OCR.
	RenderDPI int
	// EarlyExitChars stops the render pass once this much text is collected.
	EarlyExitChars int
	// MaxChars is the final character budget.
	MaxChars int
	Logger   zerolog.Logger
}

// Extractor gets text out of PDFs and images, falling back from the embedded
// text layer to rendered-page OCR.
type Extractor struct {
	config     ExtractorConfig
	textLayer  TextLayer
	rasterizer Rasterizer
	recognizer Recognizer
	processor  processor.Processor
}

func NewWithConfig(textLayer TextLayer, rasterizer Rasterizer, recognizer Recognizer, config ExtractorConfig) *Extractor {
	if config.TextLayerPages == 0 {
		config.TextLayerPages = 10
	}
	if config.RenderPages == 0 {
		config.RenderPages = 5
	}
	if config.MinPageChars == 0 {
		config.MinPageChars = 50
	}
	if config.MinTextLayerChars == 0 {
		config.MinTextLayerChars = 200
	}
	if config.RenderDPI == 0 {
		config.RenderDPI = 150
	}
	if config.EarlyExitChars == 0 {
		config.EarlyExitChars = 5000
	}

	return &Extractor{
		config:     config,
		textLayer:  textLayer,
		rasterizer: rasterizer,
		recognizer: recognizer,
		processor:  processor.NewWithConfig(processor.ProcessorConfig{MaxChars: config.MaxChars}),
	}
}

// ExtractPDF returns the text of a PDF. A returned error means extraction
// stopped early; the document still carries whatever text was collected.
func (e *Extractor) ExtractPDF(ctx context.Context, data []byte) (models.Document, error) {
	doc := models.Document{Source: models.SourcePDF, Metadata: map[string]interface{}{}}
	log := e.config.Logger.With().Str("source", "pdf").Logger()

	// Text-layer pages carry over into the render pass; kept[i] marks the
	// pages that pass does not need to read again.
	var b strings.Builder
	var kept []bool
	if e.textLayer != nil {
		text, k, pages, err := e.readTextLayer(data)
		if err != nil {
			log.Debug().Err(err).Msg("text layer unreadable, falling back to render pass")
		} else if processor.Substantial(text, e.config.MinTextLayerChars) {
			doc.Method = MethodTextLayer
			doc.Metadata["pages"] = pages
			log.Debug().Int("pages", pages).Int("chars", len(text)).Msg("text layer sufficient")
			return e.finish(doc, text), nil
		} else {
			b.WriteString(text)
			kept = k
		}
	}

	if e.rasterizer == nil {
		return e.finish(doc, b.String()), errors.New("no PDF renderer configured")
	}

	rd, err := e.rasterizer.Open(data)
	if err != nil {
		return e.finish(doc, b.String()), fmt.Errorf("processing PDF: %w", err)
	}
	defer rd.Close()

	doc.Method = MethodRender
	pages := rd.NumPage()
	if pages > e.config.RenderPages {
		pages = e.config.RenderPages
	}

	processed := 0
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return e.finish(doc, b.String()), err
		}
		processed++
		if i < len(kept) && kept[i] {
			continue
		}

		pageText, err := rd.Text(i)
		if err == nil && processor.Substantial(pageText, e.config.MinPageChars) {
			b.WriteString(pageText)
			b.WriteString("\n")
		} else {
			ocrText, err := e.ocrPage(ctx, rd, i)
			if err != nil {
				warning := fmt.Sprintf("OCR failed for page %d: %v", i+1, err)
				doc.Warnings = append(doc.Warnings, warning)
				log.Warn().Err(err).Int("page", i+1).Msg("page OCR failed")
			} else if ocrText != "" {
				doc.Method = MethodRender + "+" + MethodOCR
				b.WriteString(ocrText)
				b.WriteString("\n")
			}
		}

		if utf8.RuneCountInString(b.String()) > e.config.EarlyExitChars {
			log.Debug().Int("page", i+1).Msg("enough text collected, stopping early")
			break
		}
	}
	doc.Metadata["pages"] = processed

	return e.finish(doc, b.String()), nil
}

// readTextLayer joins the substantial text-layer pages and reports which
// pages were kept.
func (e *Extractor) readTextLayer(data []byte) (string, []bool, int, error) {
	pages, err := e.textLayer.PageTexts(data, e.config.TextLayerPages)
	if err != nil {
		return "", nil, 0, err
	}
	var b strings.Builder
	kept := make([]bool, len(pages))
	for i, p := range pages {
		if processor.Substantial(p, e.config.MinPageChars) {
			kept[i] = true
			b.WriteString(p)
			b.WriteString("\n")
		}
	}
	return b.String(), kept, len(pages), nil
}

func (e *Extractor) ocrPage(ctx context.Context, rd RasterDocument, page int) (string, error) {
	if e.recognizer == nil {
		return "", errors.New("no OCR engine configured")
	}
	img, err := rd.Render(page, float64(e.config.RenderDPI))
	if err != nil {
		return "", err
	}
	return e.recognizer.RecognizeImage(ctx, fmt.Sprintf("page-%d", page+1), img, e.config.RenderDPI)
}

// ExtractImage OCRs a whole uploaded image.
func (e *Extractor) ExtractImage(ctx context.Context, data []byte) (models.Document, error) {
	doc := models.Document{Source: models.SourceImage, Method: MethodOCR}
	if e.recognizer == nil {
		return e.finish(doc, ""), errors.New("OCR failed: no OCR engine configured")
	}

	img, err := ocr.Decode(data)
	if err != nil {
		return e.finish(doc, ""), fmt.Errorf("OCR failed: %w", err)
	}
	b := img.Bounds()
	doc.Metadata = map[string]interface{}{"width": b.Dx(), "height": b.Dy()}

	text, err := e.recognizer.RecognizeImage(ctx, "image", img, 0)
	if err != nil {
		return e.finish(doc, ""), fmt.Errorf("OCR failed: %w", err)
	}
	return e.finish(doc, text), nil
}

func (e *Extractor) finish(doc models.Document, text string) models.Document {
	doc.Content, doc.Truncated = e.processor.Truncate(text)
	return doc
}
