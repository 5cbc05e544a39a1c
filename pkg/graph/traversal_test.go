package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undermaind/memnet-go/pkg/graph"
	"github.com/undermaind/memnet-go/pkg/storage"
)

func TestFindPaths_Chain(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3, 4)

	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(7))
	connect(t, m, 2, 3, storage.TypeCausal, graph.WithStrength(6))
	connect(t, m, 3, 4, storage.TypeCausal, graph.WithStrength(5))

	finder := graph.NewPathFinder(m, graph.DefaultLimits())

	paths, err := finder.FindPaths(context.Background(), 1, 4, 3, 5)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, []int64{1, 2, 3, 4}, paths[0].Nodes)
	require.Len(t, paths[0].Edges, 3)
	assert.Equal(t, storage.TypeSemantic, paths[0].Edges[0].Type)
}

func TestFindPaths_MinStrengthFilters(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3, 4)

	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(7))
	connect(t, m, 2, 3, storage.TypeCausal, graph.WithStrength(6))
	connect(t, m, 3, 4, storage.TypeCausal, graph.WithStrength(5))

	finder := graph.NewPathFinder(m, graph.DefaultLimits())

	// The weakest hop falls below the threshold, breaking the chain.
	paths, err := finder.FindPaths(context.Background(), 1, 4, 3, 6)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestFindPaths_MaxDepthBounds(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3, 4)

	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(7))
	connect(t, m, 2, 3, storage.TypeCausal, graph.WithStrength(6))
	connect(t, m, 3, 4, storage.TypeCausal, graph.WithStrength(5))

	finder := graph.NewPathFinder(m, graph.DefaultLimits())

	paths, err := finder.FindPaths(context.Background(), 1, 4, 2, 1)
	require.NoError(t, err)
	assert.Empty(t, paths, "three hops cannot fit in a depth-2 search")
}

func TestFindPaths_Diamond(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3, 4)

	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 1, 3, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 4, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 3, 4, storage.TypeSemantic, graph.WithStrength(5))

	finder := graph.NewPathFinder(m, graph.DefaultLimits())

	paths, err := finder.FindPaths(context.Background(), 1, 4, 3, 1)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, path := range paths {
		assert.Len(t, path.Nodes, 3)
		assert.Equal(t, int64(1), path.Nodes[0])
		assert.Equal(t, int64(4), path.Nodes[2])
	}
}

func TestFindPaths_BidirectionalTraversal(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3)

	// 2->1 is only traversable from 1 because it is bidirectional.
	connect(t, m, 2, 1, storage.TypeSemantic, graph.WithStrength(5), graph.WithBidirectional())
	connect(t, m, 2, 3, storage.TypeSemantic, graph.WithStrength(5))

	finder := graph.NewPathFinder(m, graph.DefaultLimits())

	paths, err := finder.FindPaths(context.Background(), 1, 3, 2, 1)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, []int64{1, 2, 3}, paths[0].Nodes)

	// The reverse of a unidirectional edge stays untraversable.
	paths, err = finder.FindPaths(context.Background(), 3, 1, 2, 1)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestFindPaths_NoCycles(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3)

	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 1, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 3, storage.TypeSemantic, graph.WithStrength(5))

	finder := graph.NewPathFinder(m, graph.DefaultLimits())

	paths, err := finder.FindPaths(context.Background(), 1, 3, 10, 1)
	require.NoError(t, err)
	require.Len(t, paths, 1, "the 1->2->1 loop must not be walked")
	assert.Equal(t, []int64{1, 2, 3}, paths[0].Nodes)
}

func TestFindPaths_StartEqualsEnd(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2)

	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 1, storage.TypeSemantic, graph.WithStrength(5))

	finder := graph.NewPathFinder(m, graph.DefaultLimits())

	paths, err := finder.FindPaths(context.Background(), 1, 1, 5, 1)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestFindPaths_InvalidArguments(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2)

	finder := graph.NewPathFinder(m, graph.DefaultLimits())
	ctx := context.Background()

	_, err := finder.FindPaths(ctx, 1, 2, 0, 1)
	assert.ErrorIs(t, err, graph.ErrInvalidArgument)

	_, err = finder.FindPaths(ctx, 1, 99, 3, 1)
	assert.ErrorIs(t, err, graph.ErrInvalidArgument)

	_, err = finder.FindPaths(ctx, 99, 2, 3, 1)
	assert.ErrorIs(t, err, graph.ErrInvalidArgument)
}

func TestFindPaths_PathCap(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3, 4)

	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 1, 3, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 4, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 3, 4, storage.TypeSemantic, graph.WithStrength(5))

	finder := graph.NewPathFinder(m, graph.Limits{MaxPaths: 1})

	_, err := finder.FindPaths(context.Background(), 1, 4, 3, 1)
	assert.ErrorIs(t, err, graph.ErrResourceExhausted)
}

func TestFindPaths_VisitedCap(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3, 4)

	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 3, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 3, 4, storage.TypeSemantic, graph.WithStrength(5))

	finder := graph.NewPathFinder(m, graph.Limits{MaxVisitedNodes: 1})

	_, err := finder.FindPaths(context.Background(), 1, 4, 3, 1)
	assert.ErrorIs(t, err, graph.ErrResourceExhausted)
}
