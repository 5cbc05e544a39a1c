package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undermaind/memnet-go/pkg/graph"
	"github.com/undermaind/memnet-go/pkg/storage"
)

func TestStats(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3, 4) // node 4 stays isolated

	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(4))
	connect(t, m, 2, 3, storage.TypeCausal, graph.WithStrength(8))

	stats, err := m.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalConnections)
	assert.Equal(t, 3, stats.ConnectedExperiences)
	assert.Equal(t, int64(4), stats.TotalExperiences)
	assert.InDelta(t, 6.0, stats.AvgStrength, 1e-9)
	assert.InDelta(t, 2.0/3.0, stats.AvgDegree, 1e-9)
	assert.InDelta(t, 0.75, stats.NetworkCoverage, 1e-9)
	assert.Equal(t, 1, stats.TypeDistribution[storage.TypeSemantic])
	assert.Equal(t, 1, stats.TypeDistribution[storage.TypeCausal])
}

func TestStats_EmptyNetwork(t *testing.T) {
	m, _ := newTestManager(t)

	stats, err := m.Stats(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.TotalConnections)
	assert.Zero(t, stats.TotalExperiences)
	assert.Zero(t, stats.AvgStrength)
	assert.Zero(t, stats.AvgDegree)
	assert.Zero(t, stats.NetworkCoverage)
	assert.Empty(t, stats.TypeDistribution)
}

func TestTypeDistribution(t *testing.T) {
	m, store := newTestManager(t)
	putNodes(t, store, 1, 2, 3)

	connect(t, m, 1, 2, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 1, 3, storage.TypeSemantic, graph.WithStrength(5))
	connect(t, m, 2, 3, storage.TypeTemporal, graph.WithStrength(5))

	dist, err := m.TypeDistribution(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, dist[storage.TypeSemantic])
	assert.Equal(t, 1, dist[storage.TypeTemporal])
	assert.Len(t, dist, 2)
}
