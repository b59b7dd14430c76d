package safety

import (
	"strings"

	"github.com/xhad/medisimplify/pkg/processor"
)

// BlockedMessage is shown when a text trips the filter.
const BlockedMessage = "This text contains sensitive content. Please consult a healthcare professional directly."

// DefaultKeywords lists the terms that keep a text away from the model.
var DefaultKeywords = []string{
	"suicide", "self-harm", "overdose", "abuse", "violence",
	"emergency", "critical", "life-threatening",
}

type FilterConfig struct {
	Keywords []string
}

// Filter is a case-insensitive substring denylist.
type Filter struct {
	keywords []string
}

func NewWithConfig(config FilterConfig) *Filter {
	keywords := config.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}

	f := &Filter{keywords: make([]string, 0, len(keywords))}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			f.keywords = append(f.keywords, k)
		}
	}
	return f
}

func New() *Filter {
	return NewWithConfig(FilterConfig{})
}

// Contains reports whether text mentions any denylisted keyword.
func (f *Filter) Contains(text string) bool {
	_, ok := f.Match(text)
	return ok
}

// Match returns the first denylisted keyword found in text.
func (f *Filter) Match(text string) (string, bool) {
	lower := strings.ToLower(processor.Normalize(text))
	for _, k := range f.keywords {
		if strings.Contains(lower, k) {
			return k, true
		}
	}
	return "", false
}
