package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/rs/zerolog"
)

type ReaderConfig struct {
	Languages []string
	MaxSide   int
	Logger    zerolog.Logger
}

// Reader owns the process-wide OCR engine. The engine is built on first use
// and every recognition goes through the same lock, so concurrent sessions
// never construct a second engine or drive one from two goroutines.
type Reader struct {
	config  ReaderConfig
	factory Factory

	mu      sync.Mutex
	engine  Engine
	initErr error
}

func NewReader(factory Factory, config ReaderConfig) *Reader {
	if len(config.Languages) == 0 {
		config.Languages = []string{"eng"}
	}
	if config.MaxSide == 0 {
		config.MaxSide = DefaultMaxSide
	}
	return &Reader{config: config, factory: factory}
}

// engineLocked returns the shared engine, building it if needed.
// The caller must hold r.mu.
func (r *Reader) engineLocked() (Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}
	if r.initErr != nil {
		return nil, r.initErr
	}
	if r.factory == nil {
		r.initErr = errors.New("no OCR engine configured")
		return nil, r.initErr
	}
	engine, err := r.factory()
	if err != nil {
		r.initErr = fmt.Errorf("initialize OCR engine: %w", err)
		return nil, r.initErr
	}
	r.config.Logger.Info().Str("engine", engine.Name()).Msg("OCR engine ready")
	r.engine = engine
	return engine, nil
}

// RecognizeImage fits img to the configured bounds and recognises its text.
func (r *Reader) RecognizeImage(ctx context.Context, id string, img image.Image, dpi int) (string, error) {
	data, err := Prepare(img, r.config.MaxSide)
	if err != nil {
		return "", err
	}
	return r.Recognize(ctx, Input{ID: id, Image: data, DPI: dpi, Languages: r.config.Languages})
}

// Recognize runs a prepared input through the shared engine.
func (r *Reader) Recognize(ctx context.Context, in Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	engine, err := r.engineLocked()
	if err != nil {
		return "", err
	}
	if len(in.Languages) == 0 {
		in.Languages = r.config.Languages
	}
	text, err := engine.Recognize(ctx, in)
	if err != nil {
		return "", fmt.Errorf("recognize %s: %w", in.ID, err)
	}
	return text, nil
}

// Close releases the engine if one was built.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engine == nil {
		return nil
	}
	err := r.engine.Close()
	r.engine = nil
	return err
}
