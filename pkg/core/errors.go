package core

import (
	"errors"
	"fmt"

	"github.com/undermaind/memnet-go/pkg/graph"
)

// Error kinds surfaced to application callers. The graph-layer kinds are
// re-exported here so callers only need to import core.
var (
	// ErrNotFound indicates that a referenced connection or experience id
	// does not exist.
	ErrNotFound = graph.ErrNotFound

	// ErrInvalidArgument indicates a strength outside [1,10] or an
	// unrecognized type/direction value.
	ErrInvalidArgument = graph.ErrInvalidArgument

	// ErrConflictRetryExhausted indicates a transient concurrent-update
	// failure; the caller may retry.
	ErrConflictRetryExhausted = graph.ErrConflictRetryExhausted

	// ErrResourceExhausted indicates that a bounded search exceeded its
	// configured cap.
	ErrResourceExhausted = graph.ErrResourceExhausted

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates that a connection to the storage backend
	// failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrEmbeddingFailed indicates that embedding generation failed.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrStorageOperation indicates that a storage backend operation failed
	// for a reason other than the kinds above.
	ErrStorageOperation = errors.New("storage operation failed")
)

// NetworkError wraps errors with operation context.
//
// It records which operation failed, making error messages more informative:
//
//	err := &NetworkError{Op: "Connect", Err: ErrNotFound}
//	// Error() returns: "memnet: Connect: not found"
type NetworkError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message of the form "memnet: <Op>: <Err>".
func (e *NetworkError) Error() string {
	return fmt.Sprintf("memnet: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a NetworkError wrapping the given error.
//
// If err is nil, returns nil, which allows unconditional wrapping at return
// sites.
func NewNetworkError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &NetworkError{
		Op:  op,
		Err: err,
	}
}
