// Package graph implements the associative memory graph engine: connection
// management, path traversal, cluster detection, centrality metrics,
// co-occurrence reinforcement, and connection suggestion over a GraphStore.
package graph

import (
	"errors"
	"fmt"

	"github.com/undermaind/memnet-go/pkg/storage"
)

// Error kinds surfaced by the graph engine.
var (
	// ErrNotFound indicates that a referenced connection or experience id
	// does not exist. Caller error, never retried.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument indicates a strength outside [1,10] or an
	// unrecognized connection type or direction value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflictRetryExhausted indicates that an optimistic concurrent
	// update could not commit within the retry budget. Transient: the caller
	// may retry the whole operation.
	ErrConflictRetryExhausted = errors.New("conflict retry budget exhausted")

	// ErrResourceExhausted indicates that a bounded search exceeded its
	// configured visitation or path cap. The partial result is discarded
	// rather than silently truncated.
	ErrResourceExhausted = errors.New("search resource cap exceeded")
)

// mapStoreError translates low-level store sentinels into engine error kinds.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, storage.ErrEdgeNotFound), errors.Is(err, storage.ErrNodeNotFound):
		return ErrNotFound
	default:
		return err
	}
}

// assertStrength panics if a stored edge carries a strength outside [1,10].
// Such an edge bypassed the clamp path; silently coercing it would hide the
// corruption.
func assertStrength(edge *storage.Edge) {
	if edge.Strength < storage.MinStrength || edge.Strength > storage.MaxStrength {
		panic(fmt.Sprintf("graph: connection %d has strength %d outside [%d,%d]",
			edge.ID, edge.Strength, storage.MinStrength, storage.MaxStrength))
	}
}
