package simplify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xhad/medisimplify/internal/models"
	"github.com/xhad/medisimplify/internal/types"
	"github.com/xhad/medisimplify/pkg/safety"
)

var (
	ErrEmptyInput       = errors.New("no medical text provided")
	ErrSensitiveContent = errors.New("sensitive content detected")
)

// Message turns a pipeline error into the text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return "Please enter or upload medical text to simplify"
	case errors.Is(err, ErrSensitiveContent):
		return safety.BlockedMessage
	default:
		return "An error occurred: " + err.Error()
	}
}

// Request carries everything the user submitted. When several inputs are
// present the image wins over the PDF, and the PDF over typed text.
type Request struct {
	Text  string
	PDF   *models.Upload
	Image *models.Upload
}

type ServiceConfig struct {
	// LargeFileBytes triggers a slow-processing notice for big uploads.
	LargeFileBytes int
	Logger         zerolog.Logger
}

// Service runs the extract, filter, simplify pipeline.
type Service struct {
	config     ServiceConfig
	extractor  types.Extractor
	filter     types.ContentFilter
	simplifier types.Simplifier
}

func NewWithConfig(extractor types.Extractor, filter types.ContentFilter, simplifier types.Simplifier, config ServiceConfig) *Service {
	if config.LargeFileBytes == 0 {
		config.LargeFileBytes = 5 * 1024 * 1024
	}
	return &Service{
		config:     config,
		extractor:  extractor,
		filter:     filter,
		simplifier: simplifier,
	}
}

// LargeFile reports whether an upload is big enough to warn about.
func (s *Service) LargeFile(u *models.Upload) bool {
	return u.Size() > s.config.LargeFileBytes
}

// Extract resolves the request into a single document. A returned error
// describes an extraction failure; the document may still carry partial text.
func (s *Service) Extract(ctx context.Context, req Request) (models.Document, error) {
	switch {
	case req.Image != nil && len(req.Image.Data) > 0:
		doc, err := s.extractor.ExtractImage(ctx, req.Image.Data)
		doc.Name = req.Image.Name
		return doc, err
	case req.PDF != nil && len(req.PDF.Data) > 0:
		doc, err := s.extractor.ExtractPDF(ctx, req.PDF.Data)
		doc.Name = req.PDF.Name
		return doc, err
	default:
		return models.Document{Source: models.SourceText, Content: req.Text}, nil
	}
}

// Check rejects blank or sensitive text before any model call.
func (s *Service) Check(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	if s.filter != nil && s.filter.Contains(text) {
		return ErrSensitiveContent
	}
	return nil
}

// Simplify checks the document and sends it to the model.
func (s *Service) Simplify(ctx context.Context, doc models.Document, progress types.ProgressFunc) (models.Simplification, error) {
	if progress == nil {
		progress = func(int, string) {}
	}
	result := models.Simplification{Document: doc, Model: s.simplifier.ModelName()}

	if err := s.Check(doc.Content); err != nil {
		s.config.Logger.Info().Str("source", string(doc.Source)).Err(err).Msg("submission rejected")
		return result, err
	}

	progress(10, "Processing with AI...")
	progress(30, "Processing with AI...")
	simplified, err := s.simplifier.Simplify(ctx, doc.Content)
	if err != nil {
		s.config.Logger.Error().Err(err).Str("model", result.Model).Msg("simplification failed")
		return result, fmt.Errorf("simplify: %w", err)
	}
	progress(80, "Formatting result...")

	result.Simplified = simplified
	progress(100, "Done")

	s.config.Logger.Info().
		Str("source", string(doc.Source)).
		Int("input_chars", len(doc.Content)).
		Int("output_chars", len(simplified)).
		Msg("text simplified")
	return result, nil
}
