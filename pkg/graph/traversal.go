package graph

import (
	"context"
	"fmt"

	"github.com/undermaind/memnet-go/pkg/storage"
)

// Default search caps. 0 disables a cap, restoring the observed system's
// unbounded behavior.
const (
	// DefaultMaxVisitedNodes bounds node visitations per search.
	DefaultMaxVisitedNodes = 100000

	// DefaultMaxPaths bounds the number of paths a traversal may collect.
	DefaultMaxPaths = 10000
)

// Limits caps the resource usage of the combinatorial searches.
type Limits struct {
	// MaxVisitedNodes caps node visitations per search (0 = unbounded).
	MaxVisitedNodes int

	// MaxPaths caps the number of enumerated paths (0 = unbounded).
	MaxPaths int
}

// DefaultLimits returns the default search caps.
func DefaultLimits() Limits {
	return Limits{
		MaxVisitedNodes: DefaultMaxVisitedNodes,
		MaxPaths:        DefaultMaxPaths,
	}
}

// Path is a simple (non-repeating-node) path through the connection network.
type Path struct {
	// Nodes is the node sequence, starting node included. It has exactly
	// one more element than Edges.
	Nodes []int64

	// Edges holds the connections between consecutive nodes.
	Edges []*storage.Edge
}

// PathFinder enumerates simple paths between two experiences.
type PathFinder struct {
	manager *Manager
	limits  Limits
}

// NewPathFinder creates a path finder over the given connection manager.
func NewPathFinder(manager *Manager, limits Limits) *PathFinder {
	return &PathFinder{
		manager: manager,
		limits:  limits,
	}
}

// FindPaths enumerates every simple path from start to end using at most
// maxDepth edges, following only connections with strength >= minStrength.
//
// From each node the usable hops are its outgoing edges (any direction) and
// its incoming bidirectional edges. Cycle avoidance is per path: a node
// excluded on one branch may legally reappear on a sibling branch, so
// diamond-shaped alternatives are all found. Candidate edges are taken in id
// order, making the output order reproducible.
//
// Returns ErrInvalidArgument if start or end does not exist, and
// ErrResourceExhausted if the search exceeds the configured visitation or
// path caps. The search is worst-case exponential in branching factor and
// depth; the caps are the only bound.
func (f *PathFinder) FindPaths(ctx context.Context, start, end int64, maxDepth, minStrength int) ([]*Path, error) {
	if maxDepth < 1 {
		return nil, fmt.Errorf("FindPaths: max depth %d: %w", maxDepth, ErrInvalidArgument)
	}

	for _, id := range []int64{start, end} {
		exists, err := f.manager.NodeExists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("FindPaths: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("FindPaths: node %d: %w", id, ErrInvalidArgument)
		}
	}

	snapshot, err := f.manager.Snapshot(ctx, minStrength)
	if err != nil {
		return nil, fmt.Errorf("FindPaths: %w", err)
	}

	search := &pathSearch{
		snapshot: snapshot,
		end:      end,
		maxDepth: maxDepth,
		limits:   f.limits,
		visited:  map[int64]struct{}{start: {}},
		nodes:    []int64{start},
	}
	if err := search.walk(ctx, start, 0); err != nil {
		return nil, fmt.Errorf("FindPaths: %w", err)
	}

	return search.paths, nil
}

// pathSearch carries the state of one depth-first enumeration.
//
// visited is the per-path visited set: nodes are added on descent and removed
// on backtrack, never shared across sibling branches.
type pathSearch struct {
	snapshot *Snapshot
	end      int64
	maxDepth int
	limits   Limits

	visited map[int64]struct{}
	nodes   []int64
	edges   []*storage.Edge
	paths   []*Path

	visitedCount int
}

func (s *pathSearch) walk(ctx context.Context, current int64, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.visitedCount++
	if s.limits.MaxVisitedNodes > 0 && s.visitedCount > s.limits.MaxVisitedNodes {
		return fmt.Errorf("visited %d nodes: %w", s.visitedCount, ErrResourceExhausted)
	}

	if current == s.end && depth > 0 {
		if s.limits.MaxPaths > 0 && len(s.paths) >= s.limits.MaxPaths {
			return fmt.Errorf("collected %d paths: %w", len(s.paths), ErrResourceExhausted)
		}
		s.paths = append(s.paths, s.capture())
		return nil
	}

	if depth == s.maxDepth {
		return nil
	}

	for _, edge := range s.snapshot.Traversable(current) {
		next := Other(edge, current)
		if _, ok := s.visited[next]; ok {
			continue
		}

		s.visited[next] = struct{}{}
		s.nodes = append(s.nodes, next)
		s.edges = append(s.edges, edge)

		err := s.walk(ctx, next, depth+1)

		s.edges = s.edges[:len(s.edges)-1]
		s.nodes = s.nodes[:len(s.nodes)-1]
		delete(s.visited, next)

		if err != nil {
			return err
		}
	}

	return nil
}

// capture copies the current stack into an immutable Path.
func (s *pathSearch) capture() *Path {
	path := &Path{
		Nodes: make([]int64, len(s.nodes)),
		Edges: make([]*storage.Edge, len(s.edges)),
	}
	copy(path.Nodes, s.nodes)
	copy(path.Edges, s.edges)
	return path
}
