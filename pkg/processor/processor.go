package processor

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// TruncationMarker is appended to text cut down to the character budget.
const TruncationMarker = "\n\n[Text truncated for processing efficiency]"

type ProcessorConfig struct {
	MaxChars     int
	PreviewChars int
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.MaxChars == 0 {
		config.MaxChars = 8000
	}
	if config.PreviewChars == 0 {
		config.PreviewChars = 1000
	}

	return Processor{
		config: config,
	}
}

func New() Processor {
	return NewWithConfig(ProcessorConfig{})
}

// Truncate applies the configured character budget.
func (p Processor) Truncate(text string) (string, bool) {
	return Truncate(text, p.config.MaxChars)
}

// Preview shortens text for display.
func (p Processor) Preview(text string) string {
	return Preview(text, p.config.PreviewChars)
}

// Truncate keeps the first max characters of text and appends TruncationMarker.
// Text within the budget is returned unchanged. Characters are counted as
// runes so multi-byte input is never split mid-character.
func Truncate(text string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text, false
	}
	return string([]rune(text)[:max]) + TruncationMarker, true
}

// Preview returns the first n characters of text followed by "..." when the
// text is longer than n.
func Preview(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}

// Clean trims text and collapses every whitespace run into a single space.
func Clean(text string) string {
	return strings.Join(strings.Fields(Normalize(text)), " ")
}

// Normalize folds compatibility characters (ligatures from PDF text layers,
// full-width forms from OCR) into their canonical equivalents.
func Normalize(text string) string {
	return norm.NFKC.String(text)
}

// Substantial reports whether text carries more than min characters once
// surrounding whitespace is removed.
func Substantial(text string, min int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) > min
}
