// Package storage provides interfaces and types for graph storage backends.
//
// It defines the GraphStore interface that all storage implementations must satisfy,
// along with the edge and node record types and filter options.
package storage

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by GraphStore implementations.
//
// Backends wrap these with operation context via fmt.Errorf("%w"), so callers
// should test them with errors.Is.
var (
	// ErrEdgeNotFound indicates that no edge matches the requested id or tuple.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrNodeNotFound indicates that the referenced node id does not exist.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateEdge indicates that an edge with the same
	// (source, target, type) tuple already exists.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrVersionConflict indicates that a versioned update lost a race with a
	// concurrent writer and should be retried against a fresh read.
	ErrVersionConflict = errors.New("version conflict")
)

// ConnectionType classifies the semantic relationship an edge expresses.
//
// The type space is a closed enumeration; unrecognized values are rejected at
// the engine boundary rather than stored as free-form strings.
type ConnectionType string

const (
	TypeTemporal    ConnectionType = "temporal"
	TypeCausal      ConnectionType = "causal"
	TypeSemantic    ConnectionType = "semantic"
	TypeContextual  ConnectionType = "contextual"
	TypeThematic    ConnectionType = "thematic"
	TypeEmotional   ConnectionType = "emotional"
	TypeAnalogy     ConnectionType = "analogy"
	TypeContrast    ConnectionType = "contrast"
	TypeElaboration ConnectionType = "elaboration"
	TypeReference   ConnectionType = "reference"
	TypeAssociation ConnectionType = "association"
	TypeOther       ConnectionType = "other"
)

// ConnectionTypes lists every recognized connection type.
var ConnectionTypes = []ConnectionType{
	TypeTemporal, TypeCausal, TypeSemantic, TypeContextual,
	TypeThematic, TypeEmotional, TypeAnalogy, TypeContrast,
	TypeElaboration, TypeReference, TypeAssociation, TypeOther,
}

// Valid reports whether t is a recognized connection type.
func (t ConnectionType) Valid() bool {
	for _, known := range ConnectionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Direction expresses whether an edge is traversable from both endpoints.
type Direction string

const (
	// DirectionUni marks an edge traversable only source -> target.
	DirectionUni Direction = "unidirectional"

	// DirectionBi marks an edge traversable from either endpoint.
	DirectionBi Direction = "bidirectional"
)

// Valid reports whether d is a recognized direction value.
func (d Direction) Valid() bool {
	return d == DirectionUni || d == DirectionBi
}

// Strength bounds. Every stored edge satisfies MinStrength <= Strength <= MaxStrength.
const (
	MinStrength = 1
	MaxStrength = 10
)

// Edge represents a typed, weighted connection between two nodes.
//
// This is the persistence record shared by every backend. The uniqueness
// invariant is one edge per ordered (SourceID, TargetID, Type) tuple.
type Edge struct {
	// ID is the store-assigned unique identifier.
	ID int64

	// SourceID and TargetID reference the connected nodes.
	SourceID int64
	TargetID int64

	// Type classifies the connection (closed enumeration).
	Type ConnectionType

	// Strength is the link intensity, always within [MinStrength, MaxStrength].
	Strength int

	// Direction controls traversability (see Direction constants).
	Direction Direction

	// Conscious marks whether the link participates in aware recall
	// as opposed to background-only association.
	Conscious bool

	// Description is optional free text.
	Description string

	// Attributes is an opaque key-value bag, shallow-merged on update:
	// new keys are added, existing keys overwritten, other keys retained.
	Attributes map[string]interface{}

	// CreatedAt is when the edge was first stored.
	CreatedAt time.Time

	// LastActivated is refreshed on every reference to the edge.
	LastActivated time.Time

	// ActivationCount counts references to the edge; it only increases.
	ActivationCount int64

	// Version is the optimistic-concurrency token, incremented by the store
	// on every successful update. Callers treat it as opaque.
	Version int64
}

// Clone returns a deep copy of the edge (the attribute bag included), so a
// caller can mutate the copy without aliasing a shared record.
func (e *Edge) Clone() *Edge {
	clone := *e
	if e.Attributes != nil {
		clone.Attributes = make(map[string]interface{}, len(e.Attributes))
		for k, v := range e.Attributes {
			clone.Attributes[k] = v
		}
	}
	return &clone
}

// Node is an externally owned memory record, referenced by id.
//
// The graph engine never creates or deletes nodes; this record carries the
// properties the engine reads: creation time, context group, and the optional
// embedding used as a similarity signal.
type Node struct {
	// ID is the node's unique identifier.
	ID int64

	// ContextID is the optional context-group identifier (0 = none).
	ContextID int64

	// Content is the node's text content, if the application stores one.
	Content string

	// Embedding is the optional content vector used for similarity scoring.
	Embedding []float64

	// CreatedAt is the node's creation timestamp.
	CreatedAt time.Time
}

// EdgeFilter restricts an edge scan. Zero values mean "no constraint".
type EdgeFilter struct {
	// SourceID restricts to edges with this source node.
	SourceID int64

	// TargetID restricts to edges with this target node.
	TargetID int64

	// Types restricts to edges of the given types.
	Types []ConnectionType

	// Direction restricts to edges with this direction.
	Direction Direction

	// MinStrength restricts to edges with Strength >= MinStrength.
	MinStrength int

	// ConsciousOnly restricts to consciously recallable edges.
	ConsciousOnly bool
}

// GraphStore defines the interface for edge/node storage backends.
//
// All backends (SQLite, PostgreSQL, OceanBase) must implement this interface.
// A scan is a single statement on the backend's side, so it returns a
// point-in-time result set and never observes a partially committed mutation.
type GraphStore interface {
	// InsertEdge stores a new edge and assigns its ID.
	//
	// Returns ErrDuplicateEdge if an edge with the same
	// (SourceID, TargetID, Type) tuple already exists.
	InsertEdge(ctx context.Context, edge *Edge) error

	// GetEdge retrieves an edge by id.
	//
	// Returns ErrEdgeNotFound if no such edge exists.
	GetEdge(ctx context.Context, id int64) (*Edge, error)

	// FindEdge retrieves the edge for an ordered (source, target, type) tuple.
	//
	// Returns ErrEdgeNotFound if no such edge exists.
	FindEdge(ctx context.Context, sourceID, targetID int64, typ ConnectionType) (*Edge, error)

	// UpdateEdge writes the edge's mutable fields if and only if the stored
	// version still equals expectedVersion, then increments the version.
	//
	// Returns ErrVersionConflict if a concurrent writer got there first,
	// ErrEdgeNotFound if the edge no longer exists.
	UpdateEdge(ctx context.Context, edge *Edge, expectedVersion int64) error

	// ScanEdges returns all edges matching the filter.
	ScanEdges(ctx context.Context, filter *EdgeFilter) ([]*Edge, error)

	// PutNode stores a node record. Node provisioning belongs to the
	// application, not the graph engine; this is its entry point.
	PutNode(ctx context.Context, node *Node) error

	// GetNode retrieves a node by id.
	//
	// Returns ErrNodeNotFound if no such node exists.
	GetNode(ctx context.Context, id int64) (*Node, error)

	// NodesByContext returns all nodes sharing the given context group.
	NodesByContext(ctx context.Context, contextID int64) ([]*Node, error)

	// CountNodes returns the total number of stored nodes.
	CountNodes(ctx context.Context) (int64, error)

	// Close closes the store and releases resources.
	Close() error
}
