package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	// Registered decoders for uploaded images.
	_ "image/jpeg"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"
)

// DefaultMaxSide bounds both image dimensions before recognition.
const DefaultMaxSide = 1500

// Decode parses an uploaded image payload.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Fit converts img to RGB and shrinks it so neither side exceeds maxSide,
// keeping the aspect ratio. Images already within bounds are only converted.
func Fit(img image.Image, maxSide int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	nw, nh := fitSize(w, h, maxSide)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	// Flatten transparency onto white so alpha never reaches the engine.
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if nw == w && nh == h {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func fitSize(w, h, maxSide int) (int, int) {
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return w, h
	}
	if w >= h {
		nh := int(float64(h)*float64(maxSide)/float64(w) + 0.5)
		if nh < 1 {
			nh = 1
		}
		return maxSide, nh
	}
	nw := int(float64(w)*float64(maxSide)/float64(h) + 0.5)
	if nw < 1 {
		nw = 1
	}
	return nw, maxSide
}

// EncodePNG serialises img for an Engine.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Prepare fits img and encodes it as PNG.
func Prepare(img image.Image, maxSide int) ([]byte, error) {
	return EncodePNG(Fit(img, maxSide))
}
