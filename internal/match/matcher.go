// Package match ranks CV profiles against a fixed role catalogue by
// semantic similarity of embeddings.
package match

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cvinsight/cv-insight/internal/ai"
	"github.com/cvinsight/cv-insight/internal/utils"
)

// Match is one ranked catalogue hit. Similarity lies in (0,1], higher is
// more similar.
type Match struct {
	Role       string  `json:"role"`
	Similarity float64 `json:"similarity"`
	Excerpt    string  `json:"excerpt"`
}

const excerptLength = 120

// Matcher embeds queries and retrieves the nearest catalogue roles. The
// underlying index is built lazily, exactly once, on first use.
type Matcher struct {
	embedder  ai.Embedder
	catalogue []CatalogueEntry
	logger    *zap.Logger

	// buildMu is the only lock held across an external call, and only
	// for the one-time index build. vectors are read-only once built.
	buildMu sync.Mutex
	built   atomic.Bool
	vectors [][]float32
}

// New creates a matcher over the given catalogue. An empty catalogue falls
// back to the built-in one.
func New(embedder ai.Embedder, catalogue []CatalogueEntry, logger *zap.Logger) *Matcher {
	if len(catalogue) == 0 {
		catalogue = DefaultCatalogue()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		embedder:  embedder,
		catalogue: catalogue,
		logger:    logger,
	}
}

// EnsureBuilt embeds every catalogue description into the index. Under
// concurrent first access, exactly one embedding pass over the catalogue
// runs; the other callers block until it completes. A failed build leaves
// the index unbuilt so a later call can retry.
func (m *Matcher) EnsureBuilt(ctx context.Context) error {
	if m.built.Load() {
		return nil
	}

	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	if m.built.Load() {
		return nil
	}

	vectors := make([][]float32, 0, len(m.catalogue))
	for _, entry := range m.catalogue {
		vec, err := m.embedder.Embed(ctx, entry.Description)
		if err != nil {
			return fmt.Errorf("embed catalogue role %q: %w", entry.Role, err)
		}
		vectors = append(vectors, vec)
	}

	m.vectors = vectors
	m.built.Store(true)
	m.logger.Info("similarity index built", zap.Int("catalogue_size", len(m.catalogue)))
	return nil
}

// Match returns the topK catalogue roles nearest to the query text, sorted
// by descending similarity with catalogue order breaking ties. topK larger
// than the catalogue returns every role.
func (m *Matcher) Match(ctx context.Context, query string, topK int) ([]Match, error) {
	if topK < 1 {
		return nil, errors.New("top_k must be at least 1")
	}

	if err := m.EnsureBuilt(ctx); err != nil {
		return nil, err
	}

	queryVec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches := make([]Match, 0, len(m.catalogue))
	for i, entry := range m.catalogue {
		distance := l2Distance(queryVec, m.vectors[i])
		matches = append(matches, Match{
			Role:       entry.Role,
			Similarity: 1.0 / (1.0 + distance),
			Excerpt:    utils.TruncateForLog(entry.Description, excerptLength),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if topK < len(matches) {
		matches = matches[:topK]
	}

	m.logger.Debug("matched query against catalogue",
		zap.Int("top_k", topK),
		zap.Int("returned", len(matches)),
	)
	return matches, nil
}

// CatalogueSize reports the number of indexed roles.
func (m *Matcher) CatalogueSize() int {
	return len(m.catalogue)
}

func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	// Dimensionality mismatches count unmatched components fully.
	for i := n; i < len(a); i++ {
		sum += float64(a[i]) * float64(a[i])
	}
	for i := n; i < len(b); i++ {
		sum += float64(b[i]) * float64(b[i])
	}
	return math.Sqrt(sum)
}
