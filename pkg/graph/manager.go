package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/undermaind/memnet-go/pkg/storage"
)

const (
	// defaultStrength is the strength of a connection created without an
	// explicit one.
	defaultStrength = 5

	// defaultNeighborLimit caps a Neighbors result when no limit is given.
	defaultNeighborLimit = 20

	// defaultRetryBudget bounds the optimistic-concurrency retry loop.
	defaultRetryBudget = 5
)

// Manager is the connection manager: the only engine component that mutates
// edges. Every mutation runs an optimistic read-modify-write loop so that
// concurrent updates to the same connection never lose either write.
//
// All read-analytics components (PathFinder, ClusterAnalyzer, Centrality,
// SuggestionEngine) reach the store only through the Manager's read methods.
type Manager struct {
	store       storage.GraphStore
	retryBudget int
}

// NewManager creates a connection manager over the given store.
//
// retryBudget bounds the compare-and-retry loop of every mutation; 0 selects
// the default of 5 attempts.
func NewManager(store storage.GraphStore, retryBudget int) *Manager {
	if retryBudget <= 0 {
		retryBudget = defaultRetryBudget
	}
	return &Manager{
		store:       store,
		retryBudget: retryBudget,
	}
}

// Neighbor pairs a neighboring node with the connection that reaches it.
type Neighbor struct {
	Node *storage.Node
	Edge *storage.Edge
}

// CreateOrUpdate creates a connection between two experiences, or merges into
// the existing one for the same ordered (source, target, type) tuple.
//
// On merge the given strength, direction, and conscious status overwrite the
// stored values, a non-empty description replaces the stored one, attributes
// are shallow-merged, the activation count is incremented, and the
// last-activated timestamp is refreshed.
//
// Returns ErrNotFound if either experience does not exist, ErrInvalidArgument
// if the strength is outside [1,10] or the type is not recognized, and
// ErrConflictRetryExhausted if concurrent writers starve the retry loop.
func (m *Manager) CreateOrUpdate(ctx context.Context, sourceID, targetID int64, typ storage.ConnectionType, opts ...ConnectOption) (*storage.Edge, error) {
	options := applyConnectOptions(opts)

	if !typ.Valid() {
		return nil, fmt.Errorf("CreateOrUpdate: connection type %q: %w", typ, ErrInvalidArgument)
	}
	if options.strength < storage.MinStrength || options.strength > storage.MaxStrength {
		return nil, fmt.Errorf("CreateOrUpdate: strength %d: %w", options.strength, ErrInvalidArgument)
	}

	if _, err := m.store.GetNode(ctx, sourceID); err != nil {
		return nil, fmt.Errorf("CreateOrUpdate: source %d: %w", sourceID, mapStoreError(err))
	}
	if _, err := m.store.GetNode(ctx, targetID); err != nil {
		return nil, fmt.Errorf("CreateOrUpdate: target %d: %w", targetID, mapStoreError(err))
	}

	direction := storage.DirectionUni
	if options.bidirectional {
		direction = storage.DirectionBi
	}

	for attempt := 0; attempt < m.retryBudget; attempt++ {
		existing, err := m.store.FindEdge(ctx, sourceID, targetID, typ)
		if errors.Is(err, storage.ErrEdgeNotFound) {
			now := time.Now()
			edge := &storage.Edge{
				SourceID:        sourceID,
				TargetID:        targetID,
				Type:            typ,
				Strength:        options.strength,
				Direction:       direction,
				Conscious:       options.conscious,
				Description:     options.description,
				Attributes:      cloneAttributes(options.attributes),
				CreatedAt:       now,
				LastActivated:   now,
				ActivationCount: 1,
			}
			if err := m.store.InsertEdge(ctx, edge); err != nil {
				if errors.Is(err, storage.ErrDuplicateEdge) {
					// Lost a creation race; merge into the winner.
					continue
				}
				return nil, fmt.Errorf("CreateOrUpdate: %w", err)
			}
			return edge, nil
		}
		if err != nil {
			return nil, fmt.Errorf("CreateOrUpdate: %w", err)
		}
		assertStrength(existing)

		merged := existing.Clone()
		merged.Strength = options.strength
		merged.Direction = direction
		merged.Conscious = options.conscious
		if options.description != "" {
			merged.Description = options.description
		}
		if len(options.attributes) > 0 {
			if merged.Attributes == nil {
				merged.Attributes = make(map[string]interface{}, len(options.attributes))
			}
			for k, v := range options.attributes {
				merged.Attributes[k] = v
			}
		}
		merged.LastActivated = time.Now()
		merged.ActivationCount++

		err = m.store.UpdateEdge(ctx, merged, existing.Version)
		if errors.Is(err, storage.ErrVersionConflict) || errors.Is(err, storage.ErrEdgeNotFound) {
			// Concurrent update or concurrent disappearance; re-read.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("CreateOrUpdate: %w", err)
		}
		return merged, nil
	}

	return nil, fmt.Errorf("CreateOrUpdate: %w", ErrConflictRetryExhausted)
}

// Get retrieves a connection by id.
//
// Returns ErrNotFound if no such connection exists.
func (m *Manager) Get(ctx context.Context, id int64) (*storage.Edge, error) {
	edge, err := m.store.GetEdge(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", mapStoreError(err))
	}
	assertStrength(edge)
	return edge, nil
}

// Neighbors returns the experiences connected to the given one, paired with
// the connecting edge.
//
// A neighbor is reachable through an edge where the node is the source (any
// direction), or the target of a bidirectional edge. Results are ordered by
// (strength desc, activation count desc) and truncated to the limit.
func (m *Manager) Neighbors(ctx context.Context, nodeID int64, opts ...NeighborOption) ([]*Neighbor, error) {
	options := applyNeighborOptions(opts)

	if _, err := m.store.GetNode(ctx, nodeID); err != nil {
		return nil, fmt.Errorf("Neighbors: node %d: %w", nodeID, mapStoreError(err))
	}

	outgoing, err := m.store.ScanEdges(ctx, &storage.EdgeFilter{
		SourceID:      nodeID,
		Types:         options.types,
		MinStrength:   options.minStrength,
		ConsciousOnly: options.consciousOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("Neighbors: %w", err)
	}

	incoming, err := m.store.ScanEdges(ctx, &storage.EdgeFilter{
		TargetID:      nodeID,
		Types:         options.types,
		Direction:     storage.DirectionBi,
		MinStrength:   options.minStrength,
		ConsciousOnly: options.consciousOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("Neighbors: %w", err)
	}

	neighbors := make([]*Neighbor, 0, len(outgoing)+len(incoming))
	for _, edge := range append(outgoing, incoming...) {
		assertStrength(edge)
		node, err := m.store.GetNode(ctx, Other(edge, nodeID))
		if err != nil {
			return nil, fmt.Errorf("Neighbors: %w", mapStoreError(err))
		}
		neighbors = append(neighbors, &Neighbor{Node: node, Edge: edge})
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		if neighbors[i].Edge.Strength != neighbors[j].Edge.Strength {
			return neighbors[i].Edge.Strength > neighbors[j].Edge.Strength
		}
		return neighbors[i].Edge.ActivationCount > neighbors[j].Edge.ActivationCount
	})

	if options.limit > 0 && len(neighbors) > options.limit {
		neighbors = neighbors[:options.limit]
	}

	return neighbors, nil
}

// Activate records a reference to a connection: it increments the activation
// count and refreshes the last-activated timestamp without changing strength.
func (m *Manager) Activate(ctx context.Context, id int64) (*storage.Edge, error) {
	return m.mutate(ctx, "Activate", id, func(edge *storage.Edge) {})
}

// Strengthen raises a connection's strength by amount, saturating at 10.
//
// Returns ErrInvalidArgument if amount is negative.
func (m *Manager) Strengthen(ctx context.Context, id int64, amount int) (*storage.Edge, error) {
	if amount < 0 {
		return nil, fmt.Errorf("Strengthen: amount %d: %w", amount, ErrInvalidArgument)
	}
	return m.mutate(ctx, "Strengthen", id, func(edge *storage.Edge) {
		edge.Strength = clampStrength(edge.Strength + amount)
	})
}

// Weaken lowers a connection's strength by amount, saturating at 1.
//
// Returns ErrInvalidArgument if amount is negative.
func (m *Manager) Weaken(ctx context.Context, id int64, amount int) (*storage.Edge, error) {
	if amount < 0 {
		return nil, fmt.Errorf("Weaken: amount %d: %w", amount, ErrInvalidArgument)
	}
	return m.mutate(ctx, "Weaken", id, func(edge *storage.Edge) {
		edge.Strength = clampStrength(edge.Strength - amount)
	})
}

// SetStrength sets a connection's strength directly.
//
// Returns ErrInvalidArgument if the value is outside [1,10].
func (m *Manager) SetStrength(ctx context.Context, id int64, value int) (*storage.Edge, error) {
	if value < storage.MinStrength || value > storage.MaxStrength {
		return nil, fmt.Errorf("SetStrength: strength %d: %w", value, ErrInvalidArgument)
	}
	return m.mutate(ctx, "SetStrength", id, func(edge *storage.Edge) {
		edge.Strength = value
	})
}

// NodeExists reports whether an experience with the given id is stored.
func (m *Manager) NodeExists(ctx context.Context, id int64) (bool, error) {
	_, err := m.store.GetNode(ctx, id)
	if errors.Is(err, storage.ErrNodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("NodeExists: %w", err)
	}
	return true, nil
}

// Node retrieves an experience record by id.
//
// Returns ErrNotFound if no such experience exists.
func (m *Manager) Node(ctx context.Context, id int64) (*storage.Node, error) {
	node, err := m.store.GetNode(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Node: %w", mapStoreError(err))
	}
	return node, nil
}

// NodesByContext returns all experiences in the given context group.
func (m *Manager) NodesByContext(ctx context.Context, contextID int64) ([]*storage.Node, error) {
	nodes, err := m.store.NodesByContext(ctx, contextID)
	if err != nil {
		return nil, fmt.Errorf("NodesByContext: %w", err)
	}
	return nodes, nil
}

// CountNodes returns the total number of stored experiences.
func (m *Manager) CountNodes(ctx context.Context) (int64, error) {
	count, err := m.store.CountNodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("CountNodes: %w", err)
	}
	return count, nil
}

// FindEdge retrieves the connection for an ordered (source, target, type)
// tuple, or ErrNotFound.
func (m *Manager) FindEdge(ctx context.Context, sourceID, targetID int64, typ storage.ConnectionType) (*storage.Edge, error) {
	edge, err := m.store.FindEdge(ctx, sourceID, targetID, typ)
	if err != nil {
		return nil, fmt.Errorf("FindEdge: %w", mapStoreError(err))
	}
	assertStrength(edge)
	return edge, nil
}

// insertEdge stores a pre-built edge on behalf of the reinforcer.
func (m *Manager) insertEdge(ctx context.Context, edge *storage.Edge) error {
	return m.store.InsertEdge(ctx, edge)
}

// mutate runs one optimistic read-modify-write cycle per attempt until the
// update commits or the retry budget runs out. Every committed mutation also
// counts as an activation.
func (m *Manager) mutate(ctx context.Context, op string, id int64, apply func(*storage.Edge)) (*storage.Edge, error) {
	for attempt := 0; attempt < m.retryBudget; attempt++ {
		edge, err := m.store.GetEdge(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, mapStoreError(err))
		}
		assertStrength(edge)

		updated := edge.Clone()
		apply(updated)
		updated.LastActivated = time.Now()
		updated.ActivationCount++

		err = m.store.UpdateEdge(ctx, updated, edge.Version)
		if errors.Is(err, storage.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, mapStoreError(err))
		}
		return updated, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrConflictRetryExhausted)
}

// Other returns the endpoint of an edge that is not the given node.
func Other(edge *storage.Edge, nodeID int64) int64 {
	if edge.SourceID == nodeID {
		return edge.TargetID
	}
	return edge.SourceID
}

// clampStrength saturates a strength value into [1,10].
func clampStrength(value int) int {
	if value < storage.MinStrength {
		return storage.MinStrength
	}
	if value > storage.MaxStrength {
		return storage.MaxStrength
	}
	return value
}

// cloneAttributes copies an attribute bag so stored edges never alias
// caller-owned maps.
func cloneAttributes(attributes map[string]interface{}) map[string]interface{} {
	if attributes == nil {
		return nil
	}
	clone := make(map[string]interface{}, len(attributes))
	for k, v := range attributes {
		clone[k] = v
	}
	return clone
}
