package graph

import "github.com/undermaind/memnet-go/pkg/storage"

// connectOptions holds the optional fields of a create-or-merge call.
type connectOptions struct {
	strength      int
	bidirectional bool
	conscious     bool
	description   string
	attributes    map[string]interface{}
}

// ConnectOption configures a CreateOrUpdate call.
type ConnectOption func(*connectOptions)

// WithStrength sets the connection strength (default 5).
func WithStrength(strength int) ConnectOption {
	return func(o *connectOptions) {
		o.strength = strength
	}
}

// WithBidirectional makes the connection traversable from either endpoint.
func WithBidirectional() ConnectOption {
	return func(o *connectOptions) {
		o.bidirectional = true
	}
}

// WithConscious sets whether the connection participates in aware recall
// (default true).
func WithConscious(conscious bool) ConnectOption {
	return func(o *connectOptions) {
		o.conscious = conscious
	}
}

// WithDescription sets the connection description. An empty description
// leaves a previously stored one untouched on merge.
func WithDescription(description string) ConnectOption {
	return func(o *connectOptions) {
		o.description = description
	}
}

// WithAttributes supplies attribute key-value pairs. On merge they are
// shallow-merged into the stored bag: new keys added, existing keys
// overwritten, other keys retained.
func WithAttributes(attributes map[string]interface{}) ConnectOption {
	return func(o *connectOptions) {
		o.attributes = attributes
	}
}

func applyConnectOptions(opts []ConnectOption) *connectOptions {
	options := &connectOptions{
		strength:  defaultStrength,
		conscious: true,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// neighborOptions holds the optional predicates of a Neighbors call.
type neighborOptions struct {
	types         []storage.ConnectionType
	minStrength   int
	consciousOnly bool
	limit         int
}

// NeighborOption configures a Neighbors call.
type NeighborOption func(*neighborOptions)

// WithTypes restricts neighbors to connections of the given types.
func WithTypes(types ...storage.ConnectionType) NeighborOption {
	return func(o *neighborOptions) {
		o.types = types
	}
}

// WithMinStrength restricts neighbors to connections of at least the given
// strength (default 1).
func WithMinStrength(minStrength int) NeighborOption {
	return func(o *neighborOptions) {
		o.minStrength = minStrength
	}
}

// WithConsciousOnly restricts neighbors to consciously recallable connections.
func WithConsciousOnly() NeighborOption {
	return func(o *neighborOptions) {
		o.consciousOnly = true
	}
}

// WithLimit caps the number of neighbors returned (default 20).
func WithLimit(limit int) NeighborOption {
	return func(o *neighborOptions) {
		o.limit = limit
	}
}

func applyNeighborOptions(opts []NeighborOption) *neighborOptions {
	options := &neighborOptions{
		minStrength: storage.MinStrength,
		limit:       defaultNeighborLimit,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
