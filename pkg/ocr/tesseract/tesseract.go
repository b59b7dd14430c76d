package tesseract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/xhad/medisimplify/pkg/ocr"
)

// Engine recognises text with a single long-lived gosseract client.
// It is not safe for concurrent use; wrap it in an ocr.Reader.
//
// gosseract re-initialises Tesseract, reloading the traineddata, after any
// language or variable change, so settings go through an ocr.Tuner.
type Engine struct {
	client *gosseract.Client
	tuner  *ocr.Tuner
}

// New builds the client for the given languages. Tesseract loads them on the
// first recognition.
func New(languages []string) (ocr.Engine, error) {
	c := gosseract.NewClient()
	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			c.Close()
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	// Variables are re-applied after every Init; SetPageSegMode is not.
	if err := c.SetVariable("tessedit_pageseg_mode", strconv.Itoa(int(gosseract.PSM_AUTO))); err != nil {
		c.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}

	e := &Engine{client: c}
	e.tuner = ocr.NewTuner(languages, c.SetLanguage, func(dpi int) error {
		return c.SetVariable("user_defined_dpi", strconv.Itoa(dpi))
	})
	return e, nil
}

// Factory returns an ocr.Factory building engines for languages.
func Factory(languages []string) ocr.Factory {
	return func() (ocr.Engine, error) {
		return New(languages)
	}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize returns the paragraphs found in the image, one per line.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := e.tuner.Apply(in); err != nil {
		return "", fmt.Errorf("configure tesseract: %w", err)
	}
	if err := e.client.SetImageFromBytes(in.Image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_PARA)
	if err != nil || len(boxes) == 0 {
		text, err := e.client.Text()
		if err != nil {
			return "", fmt.Errorf("recognize text: %w", err)
		}
		return strings.TrimSpace(text), nil
	}

	paragraphs := make([]string, 0, len(boxes))
	for _, b := range boxes {
		p := strings.Join(strings.Fields(b.Word), " ")
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

func (e *Engine) Close() error {
	return e.client.Close()
}
