package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/undermaind/memnet-go/pkg/storage"
)

// Snapshot is a point-in-time, in-memory view of the edge table.
//
// Analytics load one snapshot per call (a single filtered scan, which the
// backends serve atomically) and run against it, so a traversal or clustering
// pass never observes a half-committed mutation. The cost model matches the
// observed system: every analytical call recomputes from a fresh scan.
type Snapshot struct {
	// Edges holds every edge in the snapshot, ordered by id.
	Edges []*storage.Edge

	outgoing map[int64][]*storage.Edge
	incoming map[int64][]*storage.Edge
}

// Snapshot loads all edges of at least minStrength into an in-memory view.
func (m *Manager) Snapshot(ctx context.Context, minStrength int) (*Snapshot, error) {
	edges, err := m.store.ScanEdges(ctx, &storage.EdgeFilter{MinStrength: minStrength})
	if err != nil {
		return nil, fmt.Errorf("Snapshot: %w", err)
	}

	snapshot := &Snapshot{
		Edges:    edges,
		outgoing: make(map[int64][]*storage.Edge),
		incoming: make(map[int64][]*storage.Edge),
	}
	for _, edge := range edges {
		assertStrength(edge)
		snapshot.outgoing[edge.SourceID] = append(snapshot.outgoing[edge.SourceID], edge)
		snapshot.incoming[edge.TargetID] = append(snapshot.incoming[edge.TargetID], edge)
	}

	return snapshot, nil
}

// Outgoing returns the edges whose source is the given node, ordered by id.
func (s *Snapshot) Outgoing(nodeID int64) []*storage.Edge {
	return s.outgoing[nodeID]
}

// Incoming returns the edges whose target is the given node, ordered by id.
func (s *Snapshot) Incoming(nodeID int64) []*storage.Edge {
	return s.incoming[nodeID]
}

// Traversable returns the edges usable as next hops from the given node for
// path purposes: outgoing edges of any direction, plus incoming bidirectional
// edges. The result is ordered by edge id so traversal output is reproducible.
func (s *Snapshot) Traversable(nodeID int64) []*storage.Edge {
	outgoing := s.outgoing[nodeID]
	candidates := make([]*storage.Edge, 0, len(outgoing))
	candidates = append(candidates, outgoing...)
	for _, edge := range s.incoming[nodeID] {
		if edge.Direction == storage.DirectionBi {
			candidates = append(candidates, edge)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ID < candidates[j].ID
	})
	return candidates
}

// Touching returns every edge incident to the given node from either side,
// regardless of direction, ordered by id.
func (s *Snapshot) Touching(nodeID int64) []*storage.Edge {
	outgoing := s.outgoing[nodeID]
	incoming := s.incoming[nodeID]
	edges := make([]*storage.Edge, 0, len(outgoing)+len(incoming))
	edges = append(edges, outgoing...)
	edges = append(edges, incoming...)
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].ID < edges[j].ID
	})
	return edges
}

// Degree returns the total degree (in + out) of the given node.
func (s *Snapshot) Degree(nodeID int64) int {
	return len(s.outgoing[nodeID]) + len(s.incoming[nodeID])
}

// NodeIDs returns every node id that appears in any edge, ascending.
func (s *Snapshot) NodeIDs() []int64 {
	seen := make(map[int64]struct{}, len(s.outgoing)+len(s.incoming))
	for id := range s.outgoing {
		seen[id] = struct{}{}
	}
	for id := range s.incoming {
		seen[id] = struct{}{}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
