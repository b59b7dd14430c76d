package extract_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/medisimplify/internal/models"
	"github.com/xhad/medisimplify/pkg/extract"
	"github.com/xhad/medisimplify/pkg/processor"
)

type fakeTextLayer struct {
	pages    []string
	err      error
	maxPages int
}

func (f *fakeTextLayer) PageTexts(data []byte, maxPages int) ([]string, error) {
	f.maxPages = maxPages
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pages) > maxPages {
		return f.pages[:maxPages], nil
	}
	return f.pages, nil
}

type fakeRasterizer struct {
	doc     *fakeDocument
	openErr error
}

func (f *fakeRasterizer) Open(data []byte) (extract.RasterDocument, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.doc, nil
}

type fakeDocument struct {
	texts     []string
	renderErr map[int]error
	rendered  []int
	dpi       float64
	closed    bool
}

func (d *fakeDocument) NumPage() int { return len(d.texts) }

func (d *fakeDocument) Text(page int) (string, error) { return d.texts[page], nil }

func (d *fakeDocument) Render(page int, dpi float64) (image.Image, error) {
	d.rendered = append(d.rendered, page)
	d.dpi = dpi
	if err := d.renderErr[page]; err != nil {
		return nil, err
	}
	return image.NewGray(image.Rect(0, 0, 10, 10)), nil
}

func (d *fakeDocument) Close() error {
	d.closed = true
	return nil
}

type fakeRecognizer struct {
	text string
	err  error
	ids  []string
}

func (f *fakeRecognizer) RecognizeImage(ctx context.Context, id string, img image.Image, dpi int) (string, error) {
	f.ids = append(f.ids, id)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func page(n int) string {
	return fmt.Sprintf("Page %d: %s", n, strings.Repeat("lorem ipsum ", 10))
}

func TestExtractPDF_TextLayerSufficient(t *testing.T) {
	layer := &fakeTextLayer{pages: []string{page(1), "short", page(3), page(4)}}
	raster := &fakeRasterizer{doc: &fakeDocument{}}
	e := extract.NewWithConfig(layer, raster, &fakeRecognizer{}, extract.ExtractorConfig{})

	doc, err := e.ExtractPDF(context.Background(), []byte("%PDF"))
	require.NoError(t, err)

	assert.Equal(t, 10, layer.maxPages)
	assert.Equal(t, models.SourcePDF, doc.Source)
	assert.Equal(t, extract.MethodTextLayer, doc.Method)
	assert.Equal(t, page(1)+"\n"+page(3)+"\n"+page(4)+"\n", doc.Content)
	assert.NotContains(t, doc.Content, "short")
	assert.Empty(t, raster.doc.rendered)
}

func TestExtractPDF_FallsBackToRender(t *testing.T) {
	layer := &fakeTextLayer{pages: []string{page(1)}}
	doc := &fakeDocument{texts: []string{page(1), "", page(3)}}
	rec := &fakeRecognizer{text: "scanned paragraph"}
	e := extract.NewWithConfig(layer, &fakeRasterizer{doc: doc}, rec, extract.ExtractorConfig{})

	got, err := e.ExtractPDF(context.Background(), []byte("%PDF"))
	require.NoError(t, err)

	assert.Equal(t, page(1)+"\nscanned paragraph\n"+page(3)+"\n", got.Content)
	assert.Equal(t, "render+ocr", got.Method)
	assert.Equal(t, []int{1}, doc.rendered)
	assert.Equal(t, 150.0, doc.dpi)
	assert.Equal(t, []string{"page-2"}, rec.ids)
	assert.True(t, doc.closed)
	assert.Equal(t, 3, got.Metadata["pages"])
}

func TestExtractPDF_KeepsTextLayerBeyondRenderPages(t *testing.T) {
	pages := make([]string, 10)
	pages[6] = page(7)
	layer := &fakeTextLayer{pages: pages}
	doc := &fakeDocument{texts: make([]string, 10)}
	rec := &fakeRecognizer{}
	e := extract.NewWithConfig(layer, &fakeRasterizer{doc: doc}, rec, extract.ExtractorConfig{})

	got, err := e.ExtractPDF(context.Background(), []byte("%PDF"))
	require.NoError(t, err)

	assert.Equal(t, page(7)+"\n", got.Content)
	assert.Equal(t, extract.MethodRender, got.Method)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, doc.rendered)
}

func TestExtractPDF_CarriedTextCountsTowardEarlyExit(t *testing.T) {
	layer := &fakeTextLayer{pages: []string{"", "", "", "", "", page(6)}}
	long := strings.Repeat("a", 4950)
	doc := &fakeDocument{texts: []string{long, page(2), page(3), "", "", ""}}
	e := extract.NewWithConfig(layer, &fakeRasterizer{doc: doc}, &fakeRecognizer{}, extract.ExtractorConfig{})

	got, err := e.ExtractPDF(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, page(6)+"\n"+long+"\n", got.Content)
	assert.Equal(t, 1, got.Metadata["pages"])
}

func TestExtractPDF_TextLayerErrorFallsBack(t *testing.T) {
	layer := &fakeTextLayer{err: errors.New("bad xref")}
	doc := &fakeDocument{texts: []string{page(1)}}
	e := extract.NewWithConfig(layer, &fakeRasterizer{doc: doc}, &fakeRecognizer{}, extract.ExtractorConfig{})

	got, err := e.ExtractPDF(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, page(1)+"\n", got.Content)
	assert.Equal(t, extract.MethodRender, got.Method)
}

func TestExtractPDF_RenderPageLimit(t *testing.T) {
	texts := make([]string, 8)
	doc := &fakeDocument{texts: texts}
	rec := &fakeRecognizer{text: "x"}
	e := extract.NewWithConfig(&fakeTextLayer{}, &fakeRasterizer{doc: doc}, rec, extract.ExtractorConfig{})

	_, err := e.ExtractPDF(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, doc.rendered)
}

func TestExtractPDF_EarlyExit(t *testing.T) {
	long := strings.Repeat("a", 3000)
	doc := &fakeDocument{texts: []string{long, long, long, long}}
	e := extract.NewWithConfig(&fakeTextLayer{}, &fakeRasterizer{doc: doc}, &fakeRecognizer{}, extract.ExtractorConfig{})

	got, err := e.ExtractPDF(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Metadata["pages"])
	assert.Equal(t, long+"\n"+long+"\n", got.Content)
}

func TestExtractPDF_OCRFailureIsWarning(t *testing.T) {
	doc := &fakeDocument{
		texts:     []string{"", page(2)},
		renderErr: map[int]error{0: errors.New("corrupt page")},
	}
	e := extract.NewWithConfig(&fakeTextLayer{}, &fakeRasterizer{doc: doc}, &fakeRecognizer{}, extract.ExtractorConfig{})

	got, err := e.ExtractPDF(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, "OCR failed for page 1: corrupt page", got.Warnings[0])
	assert.Equal(t, page(2)+"\n", got.Content)
}

func TestExtractPDF_OpenError(t *testing.T) {
	raster := &fakeRasterizer{openErr: errors.New("not a pdf")}
	e := extract.NewWithConfig(&fakeTextLayer{}, raster, &fakeRecognizer{}, extract.ExtractorConfig{})

	got, err := e.ExtractPDF(context.Background(), []byte("junk"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a pdf")
	assert.Empty(t, got.Content)
}

func TestExtractPDF_Truncates(t *testing.T) {
	layer := &fakeTextLayer{pages: []string{strings.Repeat("b", 500)}}
	e := extract.NewWithConfig(layer, nil, nil, extract.ExtractorConfig{MaxChars: 100})

	got, err := e.ExtractPDF(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, got.Truncated)
	assert.Equal(t, strings.Repeat("b", 100)+processor.TruncationMarker, got.Content)
}

func TestExtractPDF_Canceled(t *testing.T) {
	doc := &fakeDocument{texts: []string{page(1)}}
	e := extract.NewWithConfig(&fakeTextLayer{}, &fakeRasterizer{doc: doc}, &fakeRecognizer{}, extract.ExtractorConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.ExtractPDF(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 40, 20))))
	return buf.Bytes()
}

func TestExtractImage(t *testing.T) {
	rec := &fakeRecognizer{text: "Hemoglobin A1c 7.2%"}
	e := extract.NewWithConfig(nil, nil, rec, extract.ExtractorConfig{})

	got, err := e.ExtractImage(context.Background(), pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, models.SourceImage, got.Source)
	assert.Equal(t, "Hemoglobin A1c 7.2%", got.Content)
	assert.Equal(t, 40, got.Metadata["width"])
	assert.Equal(t, []string{"image"}, rec.ids)
}

func TestExtractImage_Errors(t *testing.T) {
	e := extract.NewWithConfig(nil, nil, &fakeRecognizer{}, extract.ExtractorConfig{})
	got, err := e.ExtractImage(context.Background(), []byte("nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OCR failed")
	assert.Empty(t, got.Content)

	e = extract.NewWithConfig(nil, nil, &fakeRecognizer{err: errors.New("engine down")}, extract.ExtractorConfig{})
	_, err = e.ExtractImage(context.Background(), pngBytes(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine down")
}
