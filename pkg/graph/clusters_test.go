package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undermaind/memnet-go/pkg/graph"
	"github.com/undermaind/memnet-go/pkg/storage"
)

func TestFindClusters(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3, 4)

	// Degrees: 1 -> 3, 2 -> 2, 3 -> 2, 4 -> 1.
	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 1, 3, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 1, 4, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 3, storage.TypeSemantic, graph.WithStrength(5))

	analyzer := graph.NewClusterAnalyzer(m, graph.DefaultLimits())

	clusters, err := analyzer.FindClusters(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, []int64{1, 2, 3}, clusters[0])
}

func TestFindClusters_SingletonHub(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3, 4)

	// Node 1 qualifies through edges to non-hubs only.
	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 1, 3, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 1, 4, storage.TypeSemantic, graph.WithStrength(5))

	analyzer := graph.NewClusterAnalyzer(m, graph.DefaultLimits())

	clusters, err := analyzer.FindClusters(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, []int64{1}, clusters[0])
}

func TestFindClusters_SeparateComponents(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3, 4, 5, 6)

	// Two triangles with no bridge between them.
	for _, pair := range [][2]int64{{1, 2}, {2, 3}, {3, 1}, {4, 5}, {5, 6}, {6, 4}} {
		connect(t, m, pair[0], pair[1], storage.TypeSemantic, graph.WithStrength(5))
	}

	analyzer := graph.NewClusterAnalyzer(m, graph.DefaultLimits())

	clusters, err := analyzer.FindClusters(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.Equal(t, []int64{1, 2, 3}, clusters[0])
	assert.Equal(t, []int64{4, 5, 6}, clusters[1])
}

func TestFindClusters_DirectionIgnored(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3)

	// All edges point away from 2, yet 1 and 3 still join through it.
	connect(t, m, 2, 1, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 3, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 1, 3, storage.TypeSemantic, graph.WithStrength(5))

	analyzer := graph.NewClusterAnalyzer(m, graph.DefaultLimits())

	clusters, err := analyzer.FindClusters(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, []int64{1, 2, 3}, clusters[0])
}

func TestFindClusters_NoHubs(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2)
	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(5))

	analyzer := graph.NewClusterAnalyzer(m, graph.DefaultLimits())

	clusters, err := analyzer.FindClusters(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestFindClusters_InvalidMinConnections(t *testing.T) {
	m, _ := newTestManager(t)

	analyzer := graph.NewClusterAnalyzer(m, graph.DefaultLimits())

	_, err := analyzer.FindClusters(context.Background(), 0)
	assert.ErrorIs(t, err, graph.ErrInvalidArgument)
}
