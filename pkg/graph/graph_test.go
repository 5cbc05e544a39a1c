package graph_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/undermaind/memnet-go/pkg/graph"
	"github.com/undermaind/memnet-go/pkg/storage"
	sqliteStore "github.com/undermaind/memnet-go/pkg/storage/sqlite"
)

// newTestManager backs a Manager with a throwaway SQLite database.
func newTestManager(t *testing.T) (*graph.Manager, storage.GraphStore) {
	t.Helper()

	store, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath: filepath.Join(t.TempDir(), "graph_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return graph.NewManager(store, 0), store
}

func putNodes(t *testing.T, store storage.GraphStore, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		err := store.PutNode(context.Background(), &storage.Node{
			ID:        id,
			Content:   "node",
			CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
	}
}

func putContextNode(t *testing.T, store storage.GraphStore, id, contextID int64, createdAt time.Time) {
	t.Helper()
	err := store.PutNode(context.Background(), &storage.Node{
		ID:        id,
		ContextID: contextID,
		Content:   "node",
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
}

// connect is a shorthand for CreateOrUpdate in fixtures.
func connect(t *testing.T, m *graph.Manager, source, target int64, typ storage.ConnectionType, opts ...graph.ConnectOption) *storage.Edge {
	t.Helper()
	edge, err := m.CreateOrUpdate(context.Background(), source, target, typ, opts...)
	require.NoError(t, err)
	return edge
}
