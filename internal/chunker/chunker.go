// Package chunker splits document text into overlapping spans bounded by a
// target size, preferring natural boundaries over hard cuts.
package chunker

import "strings"

// DefaultSize is the default chunk size in characters.
const DefaultSize = 1000

// DefaultOverlap is the default overlap between consecutive chunks.
const DefaultOverlap = 200

// separators are tried in order when looking for a split point inside the
// size budget: paragraph, line, sentence end, word. A hard character cut is
// the last resort.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits text deterministically into overlapping chunks.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. Non-positive size falls back to the default;
// overlap is clamped below size.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &Chunker{size: size, overlap: overlap}
}

// Size returns the configured chunk size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured chunk overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split breaks text into ordered overlapping chunks. Empty or blank input
// yields no chunks.
func (c *Chunker) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	runes := []rune(trimmed)
	if len(runes) <= c.size {
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = start + splitPoint(runes[start:end])
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}

		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// splitPoint returns the cut position inside window, preferring the latest
// occurrence of the highest-ranked separator. Falls back to the full window
// when no boundary exists.
func splitPoint(window []rune) int {
	s := string(window)
	for _, sep := range separators {
		idx := strings.LastIndex(s, sep)
		if idx <= 0 {
			continue
		}
		// Cut after the separator so sentence punctuation stays with
		// its chunk.
		return len([]rune(s[:idx+len(sep)]))
	}
	return len(window)
}
