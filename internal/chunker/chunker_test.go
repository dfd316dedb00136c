package chunker

import (
	"strings"
	"testing"
)

func TestSplitEmptyInput(t *testing.T) {
	c := New(100, 20)

	if chunks := c.Split(""); chunks != nil {
		t.Fatalf("expected nil for empty input, got %v", chunks)
	}
	if chunks := c.Split("   \n\t  "); chunks != nil {
		t.Fatalf("expected nil for blank input, got %v", chunks)
	}
}

func TestSplitShortInput(t *testing.T) {
	c := New(100, 20)

	chunks := c.Split("short document")
	if len(chunks) != 1 {
		t.Fatalf("expected a single chunk, got %d", len(chunks))
	}
	if chunks[0] != "short document" {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	first := strings.Repeat("a", 40)
	second := strings.Repeat("b", 40)
	text := first + "\n\n" + second

	c := New(60, 10)
	chunks := c.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != first {
		t.Fatalf("expected the first chunk to end at the paragraph break, got %q", chunks[0])
	}
}

func TestSplitSentenceBoundary(t *testing.T) {
	text := "First sentence is right here. Second sentence follows it closely and runs long."

	c := New(40, 5)
	chunks := c.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "here.") {
		t.Fatalf("expected the first chunk to keep its sentence punctuation, got %q", chunks[0])
	}
}

func TestSplitHardCutWithoutSeparators(t *testing.T) {
	text := strings.Repeat("x", 250)

	c := New(100, 20)
	chunks := c.Split(text)

	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len([]rune(chunk)) > 100 {
			t.Fatalf("chunk %d exceeds the size limit: %d runes", i, len([]rune(chunk)))
		}
	}
}

func TestSplitCoversWholeText(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString("Sentence number about work experience and several skills. ")
	}
	text := strings.TrimSpace(sb.String())

	c := New(120, 30)
	chunks := c.Split(text)

	// Every chunk must appear in the source and the last chunk must reach
	// the end of the text.
	for i, chunk := range chunks {
		if !strings.Contains(text, chunk) {
			t.Fatalf("chunk %d is not a substring of the input", i)
		}
	}
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(text, last) {
		t.Fatalf("the final chunk does not reach the end of the text")
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("Experience with Go, Python and distributed systems. ", 20)

	c := New(150, 40)
	first := c.Split(text)
	second := c.Split(text)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestNewClampsBadParameters(t *testing.T) {
	c := New(0, -1)
	if c.Size() != DefaultSize || c.Overlap() != DefaultOverlap {
		t.Fatalf("expected defaults, got size=%d overlap=%d", c.Size(), c.Overlap())
	}

	c = New(100, 100)
	if c.Overlap() >= c.Size() {
		t.Fatalf("overlap %d was not clamped below size %d", c.Overlap(), c.Size())
	}

	// A pathological overlap must not stall chunking.
	chunks := New(10, 9).Split(strings.Repeat("y", 100))
	if len(chunks) == 0 {
		t.Fatalf("expected progress with a large overlap")
	}
}
