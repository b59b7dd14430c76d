package types

import (
	"context"

	"github.com/xhad/medisimplify/internal/models"
)

// Core interfaces
type Extractor interface {
	ExtractPDF(ctx context.Context, data []byte) (models.Document, error)
	ExtractImage(ctx context.Context, data []byte) (models.Document, error)
}

type Simplifier interface {
	Simplify(ctx context.Context, text string) (string, error)
	ModelName() string
}

type ContentFilter interface {
	Contains(text string) bool
}

// ProgressFunc receives a completion percentage between 0 and 100.
type ProgressFunc func(percent int, status string)
