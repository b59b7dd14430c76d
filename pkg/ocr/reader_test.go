package ocr_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/medisimplify/pkg/ocr"
)

type countingEngine struct {
	active  int32
	overlap int32
	inputs  []ocr.Input
	closed  bool
}

func (e *countingEngine) Name() string { return "counting" }

func (e *countingEngine) Recognize(ctx context.Context, in ocr.Input) (string, error) {
	if atomic.AddInt32(&e.active, 1) > 1 {
		atomic.StoreInt32(&e.overlap, 1)
	}
	defer atomic.AddInt32(&e.active, -1)
	e.inputs = append(e.inputs, in)
	return "recognized " + in.ID, nil
}

func (e *countingEngine) Close() error {
	e.closed = true
	return nil
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	return img
}

func TestReader_BuildsEngineOnce(t *testing.T) {
	var builds int32
	engine := &countingEngine{}
	r := ocr.NewReader(func() (ocr.Engine, error) {
		atomic.AddInt32(&builds, 1)
		return engine, nil
	}, ocr.ReaderConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Recognize(context.Background(), ocr.Input{ID: "img"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
	assert.Equal(t, int32(0), atomic.LoadInt32(&engine.overlap), "engine was driven concurrently")
	assert.Len(t, engine.inputs, 16)
	assert.Equal(t, []string{"eng"}, engine.inputs[0].Languages)

	require.NoError(t, r.Close())
	assert.True(t, engine.closed)
}

func TestReader_NoBuildUntilUsed(t *testing.T) {
	built := false
	r := ocr.NewReader(func() (ocr.Engine, error) {
		built = true
		return &countingEngine{}, nil
	}, ocr.ReaderConfig{})

	assert.False(t, built)
	require.NoError(t, r.Close())
	assert.False(t, built)
}

func TestReader_FactoryError(t *testing.T) {
	calls := 0
	r := ocr.NewReader(func() (ocr.Engine, error) {
		calls++
		return nil, errors.New("no tessdata")
	}, ocr.ReaderConfig{})

	_, err := r.Recognize(context.Background(), ocr.Input{ID: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tessdata")

	_, err = r.Recognize(context.Background(), ocr.Input{ID: "b"})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestReader_RecognizeImage(t *testing.T) {
	engine := &countingEngine{}
	r := ocr.NewReader(func() (ocr.Engine, error) { return engine, nil },
		ocr.ReaderConfig{Languages: []string{"deu"}, MaxSide: 100})

	text, err := r.RecognizeImage(context.Background(), "page-1", solid(400, 200), 150)
	require.NoError(t, err)
	assert.Equal(t, "recognized page-1", text)

	require.Len(t, engine.inputs, 1)
	in := engine.inputs[0]
	assert.Equal(t, 150, in.DPI)
	assert.Equal(t, []string{"deu"}, in.Languages)

	img, err := ocr.Decode(in.Image)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestReader_CanceledContext(t *testing.T) {
	r := ocr.NewReader(func() (ocr.Engine, error) { return &countingEngine{}, nil }, ocr.ReaderConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Recognize(ctx, ocr.Input{})
	assert.ErrorIs(t, err, context.Canceled)
}
