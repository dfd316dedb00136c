package agent

import (
	"strings"
	"testing"

	"github.com/cvinsight/cv-insight/internal/ai"
	"github.com/cvinsight/cv-insight/internal/document"
)

func TestToolFullTextTruncation(t *testing.T) {
	store := document.NewStore()
	id := store.Put(strings.Repeat("x", fullTextLimit+500), "cv.txt")
	tools := newToolbox(store, id)

	out := tools.run(ai.ToolCall{Name: toolFullText})
	if !strings.HasSuffix(out, truncationMarker) {
		t.Fatalf("expected the truncation marker on oversized text")
	}
	if got := len([]rune(out)); got > fullTextLimit+len([]rune(truncationMarker)) {
		t.Fatalf("truncated text too long: %d runes", got)
	}
}

func TestToolChunksBeforeAnalysis(t *testing.T) {
	store := document.NewStore()
	id := store.Put("some text", "cv.txt")
	tools := newToolbox(store, id)

	out := tools.run(ai.ToolCall{Name: toolChunks})
	if !strings.Contains(out, toolFullText) {
		t.Fatalf("expected a hint towards %s, got %q", toolFullText, out)
	}
}

func TestToolChunksLabelled(t *testing.T) {
	store := document.NewStore()
	id := store.Put("text", "cv.txt")
	if err := store.SetChunks(id, []string{"first", "second"}); err != nil {
		t.Fatalf("seed chunks: %v", err)
	}
	tools := newToolbox(store, id)

	out := tools.run(ai.ToolCall{Name: toolChunks})
	if !strings.Contains(out, "Chunk 1/2") || !strings.Contains(out, "Chunk 2/2") {
		t.Fatalf("expected labelled chunks, got %q", out)
	}
}

func TestToolSearch(t *testing.T) {
	store := document.NewStore()
	id := store.Put("text", "cv.txt")
	if err := store.SetChunks(id, []string{"Skills: Go, SQL", "Education: BSc"}); err != nil {
		t.Fatalf("seed chunks: %v", err)
	}
	tools := newToolbox(store, id)

	out := tools.run(ai.ToolCall{Name: toolSearch, Args: map[string]any{"query": "SKILLS"}})
	if !strings.Contains(out, "Found 1 matching") || !strings.Contains(out, "Go, SQL") {
		t.Fatalf("case-insensitive search failed: %q", out)
	}

	out = tools.run(ai.ToolCall{Name: toolSearch, Args: map[string]any{"query": "blockchain"}})
	if !strings.Contains(out, "No sections mentioning") {
		t.Fatalf("expected a no-match observation, got %q", out)
	}

	out = tools.run(ai.ToolCall{Name: toolSearch, Args: map[string]any{"query": "  "}})
	if !strings.HasPrefix(out, "error:") {
		t.Fatalf("expected an error observation for a blank query, got %q", out)
	}
}

func TestToolSearchFallsBackToFullText(t *testing.T) {
	store := document.NewStore()
	id := store.Put("Experienced with Terraform and AWS.", "cv.txt")
	tools := newToolbox(store, id)

	out := tools.run(ai.ToolCall{Name: toolSearch, Args: map[string]any{"query": "terraform"}})
	if !strings.Contains(out, "Terraform") {
		t.Fatalf("expected a match against the raw text, got %q", out)
	}
}

func TestToolFormattingReport(t *testing.T) {
	store := document.NewStore()
	text := "Jane Doe\njane@example.com\n\nSummary\nEngineer.\n\nSkills\n• Go\n- SQL\n\nExperience\nAcme.\n\nEducation\nBSc.\n\nContact\nSee above."
	id := store.Put(text, "cv.txt")
	tools := newToolbox(store, id)

	out := tools.run(ai.ToolCall{Name: toolFormattingReport})

	if !strings.Contains(out, "very short") {
		t.Fatalf("expected a short-length warning, got %q", out)
	}
	if !strings.Contains(out, `ok: "skills" section detected`) {
		t.Fatalf("expected the skills section to be detected, got %q", out)
	}
	if !strings.Contains(out, "ok: email address detected") {
		t.Fatalf("expected the email to be detected, got %q", out)
	}
	if !strings.Contains(out, "bullet styles") {
		t.Fatalf("expected a mixed-bullet warning, got %q", out)
	}
}

func TestToolUnknownName(t *testing.T) {
	store := document.NewStore()
	id := store.Put("text", "cv.txt")
	tools := newToolbox(store, id)

	out := tools.run(ai.ToolCall{Name: "cv_delete"})
	if !strings.HasPrefix(out, "error:") {
		t.Fatalf("expected an error observation, got %q", out)
	}
}

func TestToolMissingDocument(t *testing.T) {
	tools := newToolbox(document.NewStore(), "ghost-id")

	for _, name := range []string{toolFullText, toolChunks, toolFormattingReport} {
		out := tools.run(ai.ToolCall{Name: name})
		if !strings.Contains(out, "not found") {
			t.Fatalf("%s: expected a not-found observation, got %q", name, out)
		}
	}
}
