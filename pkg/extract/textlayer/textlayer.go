package textlayer

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Reader pulls page text straight from the PDF content streams without
// rendering. It is the fastest of the extraction techniques.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

// PageTexts returns the text of the first maxPages pages.
func (r *Reader) PageTexts(data []byte, maxPages int) (texts []string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			texts, err = nil, fmt.Errorf("read pdf text layer: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	n := doc.NumPage()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}

	texts = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			texts = append(texts, "")
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}
