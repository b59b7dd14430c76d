package llm

import (
	"fmt"

	"github.com/xhad/medisimplify/pkg/processor"
)

const simplificationTemplate = `
You are a medical communication expert. Convert this complex medical text into simple,
easy-to-understand English for patients. Be concise but complete:

Rules:
1. Replace medical jargon with everyday terms
2. Use short sentences and simple language
3. Maintain all critical medical information
4. Add brief explanations for unavoidable technical terms
5. Use bullet points for lists
6. Keep the explanation under %d words

Medical Text:
%s

Simplified Version:
`

// DefaultMaxWords bounds the length of the explanation the model is asked for.
const DefaultMaxWords = 500

// BuildPrompt wraps medical text in the simplification instructions. The text
// is collapsed onto one line first to save tokens.
func BuildPrompt(medicalText string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	return fmt.Sprintf(simplificationTemplate, maxWords, processor.Clean(medicalText))
}
