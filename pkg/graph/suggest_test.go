package graph_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undermaind/memnet-go/pkg/graph"
	"github.com/undermaind/memnet-go/pkg/storage"
)

func putEmbeddedNode(t *testing.T, store storage.GraphStore, id int64, embedding []float64) {
	t.Helper()
	err := store.PutNode(context.Background(), &storage.Node{
		ID:        id,
		Content:   "node",
		Embedding: embedding,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestSuggest_TwoHopCandidates(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3, 4, 5)

	// 1 -- 2 -- {3, 4}; 5 is directly connected and must not be suggested.
	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 3, storage.TypeSemantic, graph.WithStrength(8))
	connect(t, m, 2, 4, storage.TypeCausal, graph.WithStrength(4))
	connect(t, m, 1, 5, storage.TypeSemantic, graph.WithStrength(5))

	engine := graph.NewSuggestionEngine(m)

	suggestions, err := engine.Suggest(context.Background(), 1, 0, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	// Equal path counts; ties break by score (mean second-hop strength).
	assert.Equal(t, int64(3), suggestions[0].NodeID)
	assert.Equal(t, storage.TypeSemantic, suggestions[0].Type)
	assert.InDelta(t, 8.0, suggestions[0].Score, 1e-9)
	assert.Equal(t, 1, suggestions[0].PathCount)

	assert.Equal(t, int64(4), suggestions[1].NodeID)
	assert.Equal(t, storage.TypeCausal, suggestions[1].Type)
	assert.InDelta(t, 4.0, suggestions[1].Score, 1e-9)
}

func TestSuggest_RanksBySharedPaths(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3, 4, 5)

	// Node 5 is reachable through both intermediates, node 4 through one.
	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 1, 3, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 5, storage.TypeSemantic, graph.WithStrength(3))
	connect(t, m, 3, 5, storage.TypeSemantic, graph.WithStrength(3))
	connect(t, m, 2, 4, storage.TypeSemantic, graph.WithStrength(9))

	engine := graph.NewSuggestionEngine(m)

	suggestions, err := engine.Suggest(context.Background(), 1, 0, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	assert.Equal(t, int64(5), suggestions[0].NodeID)
	assert.Equal(t, 2, suggestions[0].PathCount)
	assert.Equal(t, int64(4), suggestions[1].NodeID)
	assert.Equal(t, 1, suggestions[1].PathCount)
}

func TestSuggest_SimilarityGate(t *testing.T) {
	m, store := newTestManager(t)

	putEmbeddedNode(t, store, 1, []float64{1, 0})
	putNodes(t, store, 2)
	putEmbeddedNode(t, store, 3, []float64{1, 0})  // identical direction
	putEmbeddedNode(t, store, 4, []float64{0, 1})  // orthogonal
	putNodes(t, store, 5)                          // no embedding

	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 3, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 4, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 5, storage.TypeSemantic, graph.WithStrength(7))

	engine := graph.NewSuggestionEngine(m)

	suggestions, err := engine.Suggest(context.Background(), 1, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	byID := make(map[int64]*graph.Suggestion)
	for _, s := range suggestions {
		byID[s.NodeID] = s
	}

	// Node 4 fails the similarity gate; node 5 has no embedding so it is
	// scored structurally instead.
	assert.NotContains(t, byID, int64(4))
	assert.InDelta(t, 1.0, byID[3].Score, 1e-9)
	assert.InDelta(t, 7.0, byID[5].Score, 1e-9)
}

func TestSuggest_Truncates(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3, 4, 5)

	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 3, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 4, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 5, storage.TypeSemantic, graph.WithStrength(5))

	engine := graph.NewSuggestionEngine(m)

	suggestions, err := engine.Suggest(context.Background(), 1, 0, 2)
	require.NoError(t, err)
	assert.Len(t, suggestions, 2)
}

func TestSuggest_NoCandidates(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2)
	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(5))

	engine := graph.NewSuggestionEngine(m)

	suggestions, err := engine.Suggest(context.Background(), 1, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSuggest_InvalidArguments(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1)

	engine := graph.NewSuggestionEngine(m)

	_, err := engine.Suggest(context.Background(), 1, 0, 0)
	assert.ErrorIs(t, err, graph.ErrInvalidArgument)

	_, err = engine.Suggest(context.Background(), 99, 0, 10)
	assert.ErrorIs(t, err, graph.ErrNotFound)
}
