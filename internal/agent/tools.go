package agent

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cvinsight/cv-insight/internal/ai"
	"github.com/cvinsight/cv-insight/internal/document"
)

// Tool names offered to the model.
const (
	toolFullText         = "cv_full_text"
	toolChunks           = "cv_chunks"
	toolSearch           = "cv_search"
	toolFormattingReport = "cv_formatting_report"
)

// fullTextLimit caps the raw text returned by cv_full_text.
const fullTextLimit = 8000

const truncationMarker = "\n\n... [truncated]"

// Word-count bands for the formatting report.
const (
	shortWordCount = 150
	longWordCount  = 1500
)

var sectionKeywords = []string{"education", "experience", "skills", "summary", "contact"}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

var bulletGlyphs = "•-*▪►"

// toolbox executes the read-only tools against one document store. The
// document id is supplied by the caller, never chosen by the model.
type toolbox struct {
	store      *document.Store
	documentID string
}

func newToolbox(store *document.Store, documentID string) *toolbox {
	return &toolbox{store: store, documentID: documentID}
}

// specs declares the toolbox to the model.
func (t *toolbox) specs() []ai.ToolSpec {
	queryParam := ai.ParamSpec{
		Name:        "query",
		Description: "Case-insensitive text to look for",
		Required:    true,
	}
	return []ai.ToolSpec{
		{
			Name:        toolFullText,
			Description: "Return the full raw text of the CV, truncated when very long.",
		},
		{
			Name:        toolChunks,
			Description: "Return the CV split into labelled chunks for section-by-section inspection.",
		},
		{
			Name:        toolSearch,
			Description: "Search the CV chunks for a query string and return the matching chunks.",
			Params:      []ai.ParamSpec{queryParam},
		},
		{
			Name:        toolFormattingReport,
			Description: "Report on CV length, expected sections, contact details and bullet style consistency.",
		},
	}
}

// run executes one tool call. A missing document surfaces as an
// observation string so the model can react; it never aborts the loop.
func (t *toolbox) run(call ai.ToolCall) string {
	observation, err := t.dispatch(call)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return fmt.Sprintf("error: document %q not found", t.documentID)
		}
		return "error: " + err.Error()
	}
	return observation
}

func (t *toolbox) dispatch(call ai.ToolCall) (string, error) {
	switch call.Name {
	case toolFullText:
		return t.fullText()
	case toolChunks:
		return t.chunks()
	case toolSearch:
		return t.search(stringArg(call.Args, "query"))
	case toolFormattingReport:
		return t.formattingReport()
	default:
		return "", fmt.Errorf("unknown tool %q", call.Name)
	}
}

func (t *toolbox) fullText() (string, error) {
	text, err := t.store.Text(t.documentID)
	if err != nil {
		return "", err
	}
	if runes := []rune(text); len(runes) > fullTextLimit {
		return string(runes[:fullTextLimit]) + truncationMarker, nil
	}
	return text, nil
}

func (t *toolbox) chunks() (string, error) {
	chunks, err := t.store.Chunks(t.documentID)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "The CV has not been chunked yet; use " + toolFullText + " instead.", nil
	}

	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		parts = append(parts, fmt.Sprintf("--- Chunk %d/%d ---\n%s", i+1, len(chunks), chunk))
	}
	return strings.Join(parts, "\n\n"), nil
}

func (t *toolbox) search(query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "error: a non-empty query is required", nil
	}

	chunks, err := t.store.Chunks(t.documentID)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		if text, textErr := t.store.Text(t.documentID); textErr == nil {
			chunks = []string{text}
		} else {
			return "", textErr
		}
	}

	lowered := strings.ToLower(query)
	var found []string
	for _, chunk := range chunks {
		if strings.Contains(strings.ToLower(chunk), lowered) {
			found = append(found, chunk)
		}
	}

	if len(found) == 0 {
		return fmt.Sprintf("No sections mentioning %q were found in the CV.", query), nil
	}
	return fmt.Sprintf("Found %d matching section(s):\n\n%s", len(found), strings.Join(found, "\n---\n")), nil
}

func (t *toolbox) formattingReport() (string, error) {
	text, err := t.store.Text(t.documentID)
	if err != nil {
		return "", err
	}

	var observations []string

	wordCount := len(strings.Fields(text))
	switch {
	case wordCount < shortWordCount:
		observations = append(observations, fmt.Sprintf("warning: CV is very short (%d words); aim for 400-800 words", wordCount))
	case wordCount > longWordCount:
		observations = append(observations, fmt.Sprintf("warning: CV is very long (%d words); consider condensing to 1-2 pages", wordCount))
	default:
		observations = append(observations, fmt.Sprintf("ok: length is appropriate (%d words)", wordCount))
	}

	lowered := strings.ToLower(text)
	for _, section := range sectionKeywords {
		if strings.Contains(lowered, section) {
			observations = append(observations, fmt.Sprintf("ok: %q section detected", section))
		} else {
			observations = append(observations, fmt.Sprintf("warning: no %q section found; consider adding one", section))
		}
	}

	if emailPattern.MatchString(text) {
		observations = append(observations, "ok: email address detected")
	} else {
		observations = append(observations, "warning: no email address found; essential for contact")
	}

	glyphs := map[rune]bool{}
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if r := []rune(stripped)[0]; strings.ContainsRune(bulletGlyphs, r) {
			glyphs[r] = true
		}
	}
	if len(glyphs) > 1 {
		list := make([]string, 0, len(glyphs))
		for r := range glyphs {
			list = append(list, string(r))
		}
		observations = append(observations, fmt.Sprintf("warning: %d distinct bullet styles used; pick one for consistency", len(list)))
	}

	return strings.Join(observations, "\n"), nil
}

func stringArg(args map[string]any, name string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}
