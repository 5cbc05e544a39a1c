package graph

import (
	"context"
	"fmt"

	"github.com/undermaind/memnet-go/pkg/storage"
)

// NetworkStats summarizes the whole connection network.
type NetworkStats struct {
	// TotalConnections is the number of stored edges.
	TotalConnections int `json:"total_connections"`

	// ConnectedExperiences is the number of distinct nodes that appear in
	// at least one edge.
	ConnectedExperiences int `json:"connected_experiences"`

	// TotalExperiences is the total number of stored nodes.
	TotalExperiences int64 `json:"total_experiences"`

	// AvgStrength is the mean strength across all edges (0 if none).
	AvgStrength float64 `json:"avg_strength"`

	// AvgDegree is the mean number of edges per connected node.
	AvgDegree float64 `json:"avg_degree"`

	// NetworkCoverage is the share of experiences included in the network.
	NetworkCoverage float64 `json:"network_coverage"`

	// TypeDistribution counts edges per connection type.
	TypeDistribution map[storage.ConnectionType]int `json:"type_distribution"`
}

// TypeDistribution returns the number of connections per type.
func (m *Manager) TypeDistribution(ctx context.Context) (map[storage.ConnectionType]int, error) {
	snapshot, err := m.Snapshot(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("TypeDistribution: %w", err)
	}

	distribution := make(map[storage.ConnectionType]int)
	for _, edge := range snapshot.Edges {
		distribution[edge.Type]++
	}
	return distribution, nil
}

// Stats computes summary statistics over the whole connection network.
func (m *Manager) Stats(ctx context.Context) (*NetworkStats, error) {
	snapshot, err := m.Snapshot(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("Stats: %w", err)
	}

	totalNodes, err := m.CountNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("Stats: %w", err)
	}

	stats := &NetworkStats{
		TotalConnections:     len(snapshot.Edges),
		ConnectedExperiences: len(snapshot.NodeIDs()),
		TotalExperiences:     totalNodes,
		TypeDistribution:     make(map[storage.ConnectionType]int),
	}

	var strengthSum int
	for _, edge := range snapshot.Edges {
		strengthSum += edge.Strength
		stats.TypeDistribution[edge.Type]++
	}

	if stats.TotalConnections > 0 {
		stats.AvgStrength = float64(strengthSum) / float64(stats.TotalConnections)
	}
	if stats.ConnectedExperiences > 0 {
		stats.AvgDegree = float64(stats.TotalConnections) / float64(stats.ConnectedExperiences)
	}
	if totalNodes > 0 {
		stats.NetworkCoverage = float64(stats.ConnectedExperiences) / float64(totalNodes)
	}

	return stats, nil
}
