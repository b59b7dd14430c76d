package ocr_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/medisimplify/pkg/ocr"
)

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{name: "within bounds", w: 800, h: 600, max: 1500, wantW: 800, wantH: 600},
		{name: "wide", w: 3000, h: 1500, max: 1500, wantW: 1500, wantH: 750},
		{name: "tall", w: 1000, h: 4000, max: 1500, wantW: 375, wantH: 1500},
		{name: "square", w: 2000, h: 2000, max: 1500, wantW: 1500, wantH: 1500},
		{name: "disabled", w: 2000, h: 100, max: 0, wantW: 2000, wantH: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ocr.Fit(image.NewGray(image.Rect(0, 0, tt.w, tt.h)), tt.max)
			assert.Equal(t, tt.wantW, got.Bounds().Dx())
			assert.Equal(t, tt.wantH, got.Bounds().Dy())
		})
	}
}

func TestFit_FlattensAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.NRGBA{A: 0})
	got := ocr.Fit(src, 10)
	r, g, b, a := got.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
	assert.Equal(t, uint32(0xffff), a)
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(20, 10), nil))

	img, err := ocr.Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())

	_, err = ocr.Decode([]byte("not an image"))
	assert.Error(t, err)
}
