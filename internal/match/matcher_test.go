package match

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

// stubEmbedder maps known texts to fixed vectors and counts calls.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   atomic.Int64
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0}, nil
}

func testCatalogue() []CatalogueEntry {
	return []CatalogueEntry{
		{Role: "Backend Engineer", Description: "backend"},
		{Role: "Data Scientist", Description: "data"},
		{Role: "Product Manager", Description: "product"},
	}
}

func testVectors() map[string][]float32 {
	return map[string][]float32{
		"backend": {1, 0},
		"data":    {0, 1},
		"product": {1, 1},
		"query":   {1, 0},
	}
}

func TestMatchRanksByDescendingSimilarity(t *testing.T) {
	embedder := &stubEmbedder{vectors: testVectors()}
	matcher := New(embedder, testCatalogue(), zap.NewNop())

	matches, err := matcher.Match(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	// The query vector equals the backend vector, so that role ranks first
	// with similarity exactly 1.
	if matches[0].Role != "Backend Engineer" {
		t.Fatalf("unexpected top match: %s", matches[0].Role)
	}
	if matches[0].Similarity != 1 {
		t.Fatalf("expected similarity 1 for identical vectors, got %v", matches[0].Similarity)
	}

	for i := 1; i < len(matches); i++ {
		if matches[i].Similarity > matches[i-1].Similarity {
			t.Fatalf("matches are not sorted by descending similarity")
		}
	}
	for i, m := range matches {
		if m.Similarity <= 0 || m.Similarity > 1 {
			t.Fatalf("match %d similarity %v outside (0,1]", i, m.Similarity)
		}
	}
}

func TestMatchTopKClamp(t *testing.T) {
	embedder := &stubEmbedder{vectors: testVectors()}
	matcher := New(embedder, testCatalogue(), zap.NewNop())

	matches, err := matcher.Match(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected the whole catalogue, got %d matches", len(matches))
	}

	matches, err = matcher.Match(context.Background(), "query", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
}

func TestMatchInvalidTopK(t *testing.T) {
	embedder := &stubEmbedder{vectors: testVectors()}
	matcher := New(embedder, testCatalogue(), zap.NewNop())

	if _, err := matcher.Match(context.Background(), "query", 0); err == nil {
		t.Fatalf("expected an error for top_k 0")
	}
	if embedder.calls.Load() != 0 {
		t.Fatalf("expected no embedding calls for invalid top_k")
	}
}

func TestMatchTieBreakIsCatalogueOrder(t *testing.T) {
	vectors := map[string][]float32{
		"backend": {1, 0},
		"data":    {1, 0},
		"product": {1, 0},
		"query":   {1, 0},
	}
	embedder := &stubEmbedder{vectors: vectors}
	matcher := New(embedder, testCatalogue(), zap.NewNop())

	matches, err := matcher.Match(context.Background(), "query", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Backend Engineer", "Data Scientist", "Product Manager"}
	for i, role := range want {
		if matches[i].Role != role {
			t.Fatalf("tie break broke catalogue order: got %s at %d", matches[i].Role, i)
		}
	}
}

func TestEnsureBuiltRunsOnce(t *testing.T) {
	embedder := &stubEmbedder{vectors: testVectors()}
	matcher := New(embedder, testCatalogue(), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := matcher.EnsureBuilt(context.Background()); err != nil {
				t.Errorf("ensure built: %v", err)
			}
		}()
	}
	wg.Wait()

	// One embedding per catalogue entry, regardless of caller count.
	if got := embedder.calls.Load(); got != int64(matcher.CatalogueSize()) {
		t.Fatalf("expected %d embedding calls, got %d", matcher.CatalogueSize(), got)
	}
}

func TestFailedBuildIsRetryable(t *testing.T) {
	embedder := &stubEmbedder{vectors: testVectors(), err: errors.New("embedding service down")}
	matcher := New(embedder, testCatalogue(), zap.NewNop())

	if err := matcher.EnsureBuilt(context.Background()); err == nil {
		t.Fatalf("expected the first build to fail")
	}

	embedder.err = nil
	if err := matcher.EnsureBuilt(context.Background()); err != nil {
		t.Fatalf("expected the retry to succeed, got %v", err)
	}

	if _, err := matcher.Match(context.Background(), "query", 2); err != nil {
		t.Fatalf("unexpected error after rebuild: %v", err)
	}
}

// lengthEmbedder derives a deterministic vector from the text so every
// catalogue role gets a distinct, reproducible position.
type lengthEmbedder struct {
	calls atomic.Int64
}

func (l *lengthEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	l.calls.Add(1)
	n := len(text)
	return []float32{float32(n % 13), float32(n % 7), float32(n % 3)}, nil
}

func TestMatchPythonAgainstDefaultCatalogue(t *testing.T) {
	embedder := &lengthEmbedder{}
	matcher := New(embedder, DefaultCatalogue(), zap.NewNop())

	matches, err := matcher.Match(context.Background(), "Python", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 3 {
		t.Fatalf("expected 3 matches from the 10-role catalogue, got %d", len(matches))
	}
	roles := make(map[string]bool)
	for _, entry := range DefaultCatalogue() {
		roles[entry.Role] = true
	}
	for i, m := range matches {
		if !roles[m.Role] {
			t.Fatalf("match %d has an unknown role: %s", i, m.Role)
		}
		if m.Similarity <= 0 || m.Similarity > 1 {
			t.Fatalf("match %d similarity %v outside (0,1]", i, m.Similarity)
		}
		if i > 0 && m.Similarity > matches[i-1].Similarity {
			t.Fatalf("matches are not sorted by descending similarity")
		}
	}

	// One embedding per catalogue role plus one for the query.
	if got := embedder.calls.Load(); got != int64(len(roles))+1 {
		t.Fatalf("expected %d embedding calls, got %d", len(roles)+1, got)
	}
}

func TestNewFallsBackToDefaultCatalogue(t *testing.T) {
	matcher := New(&stubEmbedder{}, nil, zap.NewNop())
	if matcher.CatalogueSize() != len(DefaultCatalogue()) {
		t.Fatalf("expected the built-in catalogue, got %d roles", matcher.CatalogueSize())
	}
}

func TestL2DistanceMismatchedDimensions(t *testing.T) {
	if d := l2Distance([]float32{3, 4}, []float32{3, 4}); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
	if d := l2Distance([]float32{3}, []float32{3, 4}); d != 4 {
		t.Fatalf("expected the unmatched component to count fully, got %v", d)
	}
}
