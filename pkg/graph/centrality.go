package graph

import (
	"context"
	"fmt"
)

// Centrality holds the importance metrics of one experience in the
// connection network.
type Centrality struct {
	// InDegree is the number of connections targeting the node.
	InDegree int `json:"in_degree"`

	// OutDegree is the number of connections originating at the node.
	OutDegree int `json:"out_degree"`

	// DegreeCentrality is InDegree + OutDegree.
	DegreeCentrality int `json:"degree_centrality"`

	// AvgIncomingStrength is the mean strength of incoming connections
	// (0 if there are none).
	AvgIncomingStrength float64 `json:"avg_incoming_strength"`

	// AvgOutgoingStrength is the mean strength of outgoing connections
	// (0 if there are none).
	AvgOutgoingStrength float64 `json:"avg_outgoing_strength"`

	// WeightedCentrality is
	// AvgIncomingStrength*InDegree + AvgOutgoingStrength*OutDegree.
	WeightedCentrality float64 `json:"weighted_centrality"`
}

// CentralityCalculator computes degree- and strength-weighted importance
// metrics for single experiences.
type CentralityCalculator struct {
	manager *Manager
}

// NewCentralityCalculator creates a centrality calculator over the given
// connection manager.
func NewCentralityCalculator(manager *Manager) *CentralityCalculator {
	return &CentralityCalculator{manager: manager}
}

// Compute returns the centrality metrics of the given experience.
//
// Returns ErrNotFound if the experience does not exist.
func (c *CentralityCalculator) Compute(ctx context.Context, nodeID int64) (*Centrality, error) {
	exists, err := c.manager.NodeExists(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("Compute: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("Compute: node %d: %w", nodeID, ErrNotFound)
	}

	snapshot, err := c.manager.Snapshot(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("Compute: %w", err)
	}

	incoming := snapshot.Incoming(nodeID)
	outgoing := snapshot.Outgoing(nodeID)

	result := &Centrality{
		InDegree:         len(incoming),
		OutDegree:        len(outgoing),
		DegreeCentrality: len(incoming) + len(outgoing),
	}

	if len(incoming) > 0 {
		var sum int
		for _, edge := range incoming {
			sum += edge.Strength
		}
		result.AvgIncomingStrength = float64(sum) / float64(len(incoming))
	}
	if len(outgoing) > 0 {
		var sum int
		for _, edge := range outgoing {
			sum += edge.Strength
		}
		result.AvgOutgoingStrength = float64(sum) / float64(len(outgoing))
	}

	result.WeightedCentrality = result.AvgIncomingStrength*float64(result.InDegree) +
		result.AvgOutgoingStrength*float64(result.OutDegree)

	return result, nil
}
