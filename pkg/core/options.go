package core

import "time"

// RegisterOption is a function type for configuring RegisterExperience.
type RegisterOption func(*RegisterOptions)

// RegisterOptions contains configuration options for RegisterExperience.
type RegisterOptions struct {
	// ContextID groups experiences that arose in the same context
	// (conversation, session, episode). 0 means no context.
	ContextID int64

	// Timestamp overrides the creation time. Zero means "now".
	Timestamp time.Time

	// SkipEmbedding registers the experience without an embedding vector
	// even when an embedder is configured.
	SkipEmbedding bool
}

// WithContext sets the context ID for an experience.
//
// Experiences sharing a context ID are eligible for co-occurrence
// reinforcement via ReinforceCooccurrence.
func WithContext(contextID int64) RegisterOption {
	return func(o *RegisterOptions) {
		o.ContextID = contextID
	}
}

// WithTimestamp sets an explicit creation time for an experience.
//
// Co-occurrence reinforcement compares creation times, so backfilled
// experiences should carry their original timestamps.
func WithTimestamp(t time.Time) RegisterOption {
	return func(o *RegisterOptions) {
		o.Timestamp = t
	}
}

// WithoutEmbedding skips embedding generation for this experience.
func WithoutEmbedding() RegisterOption {
	return func(o *RegisterOptions) {
		o.SkipEmbedding = true
	}
}

// applyRegisterOptions applies RegisterOption functions and returns the
// resulting options.
func applyRegisterOptions(opts []RegisterOption) *RegisterOptions {
	options := &RegisterOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
