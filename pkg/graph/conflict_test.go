package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undermaind/memnet-go/pkg/graph"
	"github.com/undermaind/memnet-go/pkg/storage"
)

// rivalStore wraps a real store and stages a concurrent writer: the first
// UpdateEdge call commits a rival description change against the caller's
// snapshot, then reports the resulting version conflict. Later calls pass
// through.
type rivalStore struct {
	storage.GraphStore
	t      *testing.T
	staged bool
}

func (s *rivalStore) UpdateEdge(ctx context.Context, edge *storage.Edge, expectedVersion int64) error {
	if !s.staged {
		s.staged = true
		current, err := s.GraphStore.GetEdge(ctx, edge.ID)
		require.NoError(s.t, err)
		rival := current.Clone()
		rival.Description = "rival write"
		require.NoError(s.t, s.GraphStore.UpdateEdge(ctx, rival, current.Version))
		return storage.ErrVersionConflict
	}
	return s.GraphStore.UpdateEdge(ctx, edge, expectedVersion)
}

// conflictedStore fails every UpdateEdge with a version conflict.
type conflictedStore struct {
	storage.GraphStore
	attempts int
}

func (s *conflictedStore) UpdateEdge(ctx context.Context, edge *storage.Edge, expectedVersion int64) error {
	s.attempts++
	return storage.ErrVersionConflict
}

func TestStrengthen_RetriesAfterConflict(t *testing.T) {
	seeder, store := newTestManager(t)
	putNodes(t, store, 1, 2)
	edge := connect(t, seeder, 1, 2, storage.TypeSemantic, graph.WithStrength(4))

	m := graph.NewManager(&rivalStore{GraphStore: store, t: t}, 0)
	_, err := m.Strengthen(context.Background(), edge.ID, 2)
	require.NoError(t, err)

	// The retry re-reads the rival's commit, so neither write is lost.
	stored, err := m.Get(context.Background(), edge.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Strength)
	assert.Equal(t, "rival write", stored.Description)
	assert.Equal(t, int64(2), stored.ActivationCount)
	assert.Equal(t, edge.Version+2, stored.Version)
}

func TestCreateOrUpdate_MergesAfterConflict(t *testing.T) {
	seeder, store := newTestManager(t)
	putNodes(t, store, 1, 2)
	edge := connect(t, seeder, 1, 2, storage.TypeSemantic, graph.WithStrength(4))

	m := graph.NewManager(&rivalStore{GraphStore: store, t: t}, 0)
	merged, err := m.CreateOrUpdate(context.Background(), 1, 2, storage.TypeSemantic, graph.WithStrength(7))
	require.NoError(t, err)

	// The merge carries the rival's description forward while applying the
	// requested strength.
	assert.Equal(t, 7, merged.Strength)
	assert.Equal(t, "rival write", merged.Description)

	stored, err := m.Get(context.Background(), edge.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Strength)
	assert.Equal(t, "rival write", stored.Description)
	assert.Equal(t, int64(2), stored.ActivationCount)
}

func TestStrengthen_ConflictRetryExhausted(t *testing.T) {
	seeder, store := newTestManager(t)
	putNodes(t, store, 1, 2)
	edge := connect(t, seeder, 1, 2, storage.TypeSemantic)

	wrapped := &conflictedStore{GraphStore: store}
	m := graph.NewManager(wrapped, 3)
	_, err := m.Strengthen(context.Background(), edge.ID, 1)
	assert.ErrorIs(t, err, graph.ErrConflictRetryExhausted)
	assert.Equal(t, 3, wrapped.attempts)

	// The edge itself is untouched.
	stored, err := m.Get(context.Background(), edge.ID)
	require.NoError(t, err)
	assert.Equal(t, edge.Version, stored.Version)
}

func TestCreateOrUpdate_ConflictRetryExhausted(t *testing.T) {
	seeder, store := newTestManager(t)
	putNodes(t, store, 1, 2)
	connect(t, seeder, 1, 2, storage.TypeSemantic)

	wrapped := &conflictedStore{GraphStore: store}
	m := graph.NewManager(wrapped, 0)
	_, err := m.CreateOrUpdate(context.Background(), 1, 2, storage.TypeSemantic, graph.WithStrength(8))
	assert.ErrorIs(t, err, graph.ErrConflictRetryExhausted)
	assert.Equal(t, 5, wrapped.attempts)
}
