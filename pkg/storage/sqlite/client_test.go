package sqlite_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undermaind/memnet-go/pkg/storage"
	sqliteStore "github.com/undermaind/memnet-go/pkg/storage/sqlite"
)

func setupSQLiteTest(t *testing.T) (storage.GraphStore, func()) {
	testDBPath := "./test_memnet.db"

	// Clean up any existing test database
	_ = os.Remove(testDBPath)

	store, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath: testDBPath,
	})
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		_ = store.Close()
		_ = os.Remove(testDBPath)
	}

	return store, cleanup
}

func putTestNode(t *testing.T, store storage.GraphStore, id int64) {
	t.Helper()
	err := store.PutNode(context.Background(), &storage.Node{
		ID:        id,
		Content:   "test node",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestSQLiteClient_InsertEdge(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	putTestNode(t, store, 1)
	putTestNode(t, store, 2)

	edge := &storage.Edge{
		SourceID:        1,
		TargetID:        2,
		Type:            storage.TypeSemantic,
		Strength:        7,
		Direction:       storage.DirectionUni,
		Conscious:       true,
		Description:     "test connection",
		Attributes:      map[string]interface{}{"key": "value"},
		CreatedAt:       time.Now().UTC(),
		LastActivated:   time.Now().UTC(),
		ActivationCount: 1,
	}

	err := store.InsertEdge(ctx, edge)
	assert.NoError(t, err)
	assert.NotZero(t, edge.ID, "insert should assign an id")
}

func TestSQLiteClient_InsertEdge_Duplicate(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	putTestNode(t, store, 1)
	putTestNode(t, store, 2)

	edge := &storage.Edge{
		SourceID:  1,
		TargetID:  2,
		Type:      storage.TypeCausal,
		Strength:  5,
		Direction: storage.DirectionUni,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.InsertEdge(ctx, edge))

	dup := &storage.Edge{
		SourceID:  1,
		TargetID:  2,
		Type:      storage.TypeCausal,
		Strength:  8,
		Direction: storage.DirectionUni,
		CreatedAt: time.Now().UTC(),
	}
	err := store.InsertEdge(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrDuplicateEdge)

	// Same pair with a different type is a separate connection.
	other := &storage.Edge{
		SourceID:  1,
		TargetID:  2,
		Type:      storage.TypeSemantic,
		Strength:  5,
		Direction: storage.DirectionUni,
		CreatedAt: time.Now().UTC(),
	}
	assert.NoError(t, store.InsertEdge(ctx, other))
}

func TestSQLiteClient_GetEdge(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	putTestNode(t, store, 1)
	putTestNode(t, store, 2)

	edge := &storage.Edge{
		SourceID:   1,
		TargetID:   2,
		Type:       storage.TypeEmotional,
		Strength:   4,
		Direction:  storage.DirectionBi,
		Conscious:  true,
		Attributes: map[string]interface{}{"mood": "calm"},
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.InsertEdge(ctx, edge))

	retrieved, err := store.GetEdge(ctx, edge.ID)
	require.NoError(t, err)
	assert.Equal(t, edge.ID, retrieved.ID)
	assert.Equal(t, int64(1), retrieved.SourceID)
	assert.Equal(t, int64(2), retrieved.TargetID)
	assert.Equal(t, storage.TypeEmotional, retrieved.Type)
	assert.Equal(t, 4, retrieved.Strength)
	assert.Equal(t, storage.DirectionBi, retrieved.Direction)
	assert.Equal(t, "calm", retrieved.Attributes["mood"])

	_, err = store.GetEdge(ctx, 99999)
	assert.ErrorIs(t, err, storage.ErrEdgeNotFound)
}

func TestSQLiteClient_FindEdge(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	putTestNode(t, store, 1)
	putTestNode(t, store, 2)

	edge := &storage.Edge{
		SourceID:  1,
		TargetID:  2,
		Type:      storage.TypeTemporal,
		Strength:  3,
		Direction: storage.DirectionBi,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.InsertEdge(ctx, edge))

	found, err := store.FindEdge(ctx, 1, 2, storage.TypeTemporal)
	require.NoError(t, err)
	assert.Equal(t, edge.ID, found.ID)

	_, err = store.FindEdge(ctx, 1, 2, storage.TypeCausal)
	assert.ErrorIs(t, err, storage.ErrEdgeNotFound)

	// Lookup is directional even for bidirectional edges.
	_, err = store.FindEdge(ctx, 2, 1, storage.TypeTemporal)
	assert.ErrorIs(t, err, storage.ErrEdgeNotFound)
}

func TestSQLiteClient_UpdateEdge_VersionConflict(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	putTestNode(t, store, 1)
	putTestNode(t, store, 2)

	edge := &storage.Edge{
		SourceID:  1,
		TargetID:  2,
		Type:      storage.TypeSemantic,
		Strength:  5,
		Direction: storage.DirectionUni,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.InsertEdge(ctx, edge))

	stored, err := store.GetEdge(ctx, edge.ID)
	require.NoError(t, err)

	updated := stored.Clone()
	updated.Strength = 9
	require.NoError(t, store.UpdateEdge(ctx, updated, stored.Version))

	// Re-applying with the stale version must fail.
	stale := stored.Clone()
	stale.Strength = 2
	err = store.UpdateEdge(ctx, stale, stored.Version)
	assert.ErrorIs(t, err, storage.ErrVersionConflict)

	current, err := store.GetEdge(ctx, edge.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, current.Strength)
	assert.Equal(t, stored.Version+1, current.Version)
}

func TestSQLiteClient_UpdateEdge_NotFound(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	edge := &storage.Edge{
		ID:        424242,
		SourceID:  1,
		TargetID:  2,
		Type:      storage.TypeSemantic,
		Strength:  5,
		Direction: storage.DirectionUni,
	}
	err := store.UpdateEdge(context.Background(), edge, 1)
	assert.ErrorIs(t, err, storage.ErrEdgeNotFound)
}

func TestSQLiteClient_ScanEdges(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	for id := int64(1); id <= 3; id++ {
		putTestNode(t, store, id)
	}

	edges := []*storage.Edge{
		{SourceID: 1, TargetID: 2, Type: storage.TypeSemantic, Strength: 7, Direction: storage.DirectionUni, Conscious: true},
		{SourceID: 1, TargetID: 3, Type: storage.TypeCausal, Strength: 4, Direction: storage.DirectionBi, Conscious: true},
		{SourceID: 2, TargetID: 3, Type: storage.TypeTemporal, Strength: 3, Direction: storage.DirectionBi, Conscious: false},
	}
	for _, edge := range edges {
		edge.CreatedAt = time.Now().UTC()
		require.NoError(t, store.InsertEdge(ctx, edge))
	}

	all, err := store.ScanEdges(ctx, &storage.EdgeFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	bySource, err := store.ScanEdges(ctx, &storage.EdgeFilter{SourceID: 1})
	require.NoError(t, err)
	assert.Len(t, bySource, 2)

	strong, err := store.ScanEdges(ctx, &storage.EdgeFilter{MinStrength: 4})
	require.NoError(t, err)
	assert.Len(t, strong, 2)

	conscious, err := store.ScanEdges(ctx, &storage.EdgeFilter{ConsciousOnly: true})
	require.NoError(t, err)
	assert.Len(t, conscious, 2)

	typed, err := store.ScanEdges(ctx, &storage.EdgeFilter{
		Types: []storage.ConnectionType{storage.TypeCausal, storage.TypeTemporal},
	})
	require.NoError(t, err)
	assert.Len(t, typed, 2)

	bi, err := store.ScanEdges(ctx, &storage.EdgeFilter{Direction: storage.DirectionBi})
	require.NoError(t, err)
	assert.Len(t, bi, 2)
}

func TestSQLiteClient_Nodes(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	node := &storage.Node{
		ID:        10,
		ContextID: 7,
		Content:   "remembered something",
		Embedding: []float64{0.1, 0.2, 0.3},
		CreatedAt: now,
	}
	require.NoError(t, store.PutNode(ctx, node))
	require.NoError(t, store.PutNode(ctx, &storage.Node{
		ID: 11, ContextID: 7, Content: "another one", CreatedAt: now.Add(time.Minute),
	}))
	require.NoError(t, store.PutNode(ctx, &storage.Node{
		ID: 12, Content: "contextless", CreatedAt: now,
	}))

	retrieved, err := store.GetNode(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "remembered something", retrieved.Content)
	assert.Equal(t, int64(7), retrieved.ContextID)
	assert.InDeltaSlice(t, []float64{0.1, 0.2, 0.3}, retrieved.Embedding, 1e-9)

	_, err = store.GetNode(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNodeNotFound)

	inContext, err := store.NodesByContext(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, inContext, 2)

	count, err := store.CountNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestSQLiteClient_PutNode_Upsert(t *testing.T) {
	store, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	node := &storage.Node{ID: 1, Content: "first", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.PutNode(ctx, node))

	node.Content = "revised"
	require.NoError(t, store.PutNode(ctx, node))

	retrieved, err := store.GetNode(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "revised", retrieved.Content)

	count, err := store.CountNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
