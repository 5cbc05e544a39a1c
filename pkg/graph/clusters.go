package graph

import (
	"context"
	"fmt"
	"sort"
)

// ClusterAnalyzer finds connected components among highly connected
// experiences.
type ClusterAnalyzer struct {
	manager *Manager
	limits  Limits
}

// NewClusterAnalyzer creates a cluster analyzer over the given connection
// manager.
func NewClusterAnalyzer(manager *Manager, limits Limits) *ClusterAnalyzer {
	return &ClusterAnalyzer{
		manager: manager,
		limits:  limits,
	}
}

// FindClusters returns the connected components of the hub subgraph.
//
// A hub is a node whose total degree across the full edge table is at least
// minConnections. The induced subgraph keeps only edges whose both endpoints
// are hubs; its edges are treated as undirected for component detection.
//
// A hub can qualify through edges to non-hub nodes and still have no
// neighbors inside the induced subgraph: full-graph degree and induced-
// subgraph degree are different measures. Such a hub forms its own singleton
// cluster.
//
// Clusters and their members are ordered by ascending node id. Returns
// ErrResourceExhausted if the hub set exceeds the visitation cap.
func (a *ClusterAnalyzer) FindClusters(ctx context.Context, minConnections int) ([][]int64, error) {
	if minConnections < 1 {
		return nil, fmt.Errorf("FindClusters: min connections %d: %w", minConnections, ErrInvalidArgument)
	}

	snapshot, err := a.manager.Snapshot(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("FindClusters: %w", err)
	}

	// Full-graph degree, then hub selection.
	var hubs []int64
	hubSet := make(map[int64]struct{})
	for _, nodeID := range snapshot.NodeIDs() {
		if snapshot.Degree(nodeID) >= minConnections {
			hubs = append(hubs, nodeID)
			hubSet[nodeID] = struct{}{}
		}
	}

	if a.limits.MaxVisitedNodes > 0 && len(hubs) > a.limits.MaxVisitedNodes {
		return nil, fmt.Errorf("FindClusters: %d hubs: %w", len(hubs), ErrResourceExhausted)
	}

	// Induced subgraph: only edges between hubs, undirected.
	adjacency := make(map[int64]map[int64]struct{}, len(hubs))
	for _, hub := range hubs {
		adjacency[hub] = make(map[int64]struct{})
	}
	for _, edge := range snapshot.Edges {
		if _, ok := hubSet[edge.SourceID]; !ok {
			continue
		}
		if _, ok := hubSet[edge.TargetID]; !ok {
			continue
		}
		if edge.SourceID == edge.TargetID {
			continue
		}
		adjacency[edge.SourceID][edge.TargetID] = struct{}{}
		adjacency[edge.TargetID][edge.SourceID] = struct{}{}
	}

	// Iterative DFS over hubs.
	visited := make(map[int64]struct{}, len(hubs))
	var clusters [][]int64

	for _, hub := range hubs {
		if _, ok := visited[hub]; ok {
			continue
		}

		var cluster []int64
		stack := []int64{hub}
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if _, ok := visited[current]; ok {
				continue
			}
			visited[current] = struct{}{}
			cluster = append(cluster, current)

			for neighbor := range adjacency[current] {
				if _, ok := visited[neighbor]; !ok {
					stack = append(stack, neighbor)
				}
			}
		}

		sort.Slice(cluster, func(i, j int) bool { return cluster[i] < cluster[j] })
		clusters = append(clusters, cluster)
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i][0] < clusters[j][0] })
	return clusters, nil
}
