// Package chunk normalizes extracted text and cuts it into fixed-length,
// non-overlapping fragments tagged with their source document.
//
// Fragments are measured in runes so multi-byte characters are never split.
// Concatenating the fragments of a text always reproduces Normalize(text).
package chunk

import (
	"strings"
	"unicode"
)

// DefaultMaxChars is the fragment length used when Options.MaxChars is unset.
const DefaultMaxChars = 450

// Options configures fragment splitting.
type Options struct {
	// MaxChars is the maximum fragment length in runes. Default: 450.
	MaxChars int `json:"max_chars" yaml:"max_chars"`
}

func (o *Options) defaults() {
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultMaxChars
	}
}

// Chunk is an immutable fragment of a document's text.
type Chunk struct {
	Source string `json:"source"`
	Index  int    `json:"index"`
	Text   string `json:"text"`
}

// Normalize collapses every whitespace run to a single space and trims both ends.
func Normalize(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			pendingSpace = sb.Len() > 0
			continue
		}
		if pendingSpace {
			sb.WriteByte(' ')
			pendingSpace = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Split normalizes text and returns consecutive fragments of at most
// opts.MaxChars runes. The last fragment may be shorter. Blank input yields nil.
func Split(text string, opts Options) []string {
	opts.defaults()
	clean := []rune(Normalize(text))
	if len(clean) == 0 {
		return nil
	}

	out := make([]string, 0, (len(clean)+opts.MaxChars-1)/opts.MaxChars)
	for start := 0; start < len(clean); start += opts.MaxChars {
		end := min(start+opts.MaxChars, len(clean))
		out = append(out, string(clean[start:end]))
	}
	return out
}

// Tag splits text and tags every fragment with source.
func Tag(source, text string, opts Options) []Chunk {
	parts := Split(text, opts)
	if len(parts) == 0 {
		return nil
	}
	chunks := make([]Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = Chunk{Source: source, Index: i, Text: p}
	}
	return chunks
}
