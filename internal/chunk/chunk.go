// Package chunk splits raw document text into bounded, sentence-aligned
// segments. Chunks are the unit of embedding and retrieval: small enough to
// embed meaningfully, large enough to carry context into the grounding
// prompt.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxSize is the default soft bound on chunk length in characters.
const DefaultMaxSize = 500

// sentence-terminal punctuation used as split points.
func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Split divides text into sentence-aligned chunks of at most maxSize
// characters. The bound is soft: sentences are never split, so a single
// sentence longer than maxSize produces a chunk that exceeds it.
//
// Sentences are joined back with ". " inside a chunk. Empty or
// whitespace-only input yields nil, which callers must treat as a no-op.
func Split(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var buf strings.Builder
	var bufRunes int // character count of buf; the bound is in runes, not bytes

	for _, sentence := range sentences {
		n := utf8.RuneCountInString(sentence)

		if buf.Len() == 0 {
			buf.WriteString(sentence)
			bufRunes = n
			continue
		}

		// +2 accounts for the ". " joiner.
		if bufRunes+n+2 > maxSize {
			chunks = append(chunks, buf.String())
			buf.Reset()
			buf.WriteString(sentence)
			bufRunes = n
			continue
		}

		buf.WriteString(". ")
		buf.WriteString(sentence)
		bufRunes += n + 2
	}

	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}

	return chunks
}

// splitSentences splits text on sentence-terminal punctuation, trims
// whitespace, and discards empty fragments.
func splitSentences(text string) []string {
	fields := strings.FieldsFunc(text, isTerminal)

	sentences := make([]string, 0, len(fields))
	for _, f := range fields {
		if s := strings.TrimSpace(f); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
