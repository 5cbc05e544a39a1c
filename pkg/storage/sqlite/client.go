// Package sqlite provides the SQLite implementation of the graph store.
//
// SQLite is a lightweight, file-based database suitable for local development
// and small-scale deployments. Embeddings and attribute bags are stored as
// JSON strings in TEXT fields.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	_ "github.com/mattn/go-sqlite3"

	"github.com/undermaind/memnet-go/pkg/storage"
)

// Client implements storage.GraphStore using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	// edgeTable and nodeTable are the table names for connections and records.
	edgeTable string
	nodeTable string

	// ids generates store-assigned edge identifiers.
	ids *snowflake.Node
}

// Config contains configuration for creating a SQLite graph store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an ephemeral in-process store.
	DBPath string

	// EdgeTable is the name of the connections table (default "connections").
	EdgeTable string

	// NodeTable is the name of the experiences table (default "experiences").
	NodeTable string
}

// NewClient creates a new SQLite graph store client.
//
// Parameters:
//   - cfg: Configuration containing the database path and table names
//
// Returns:
//   - *Client: The SQLite client instance
//   - error: Error if database connection or table creation fails
func NewClient(cfg *Config) (*Client, error) {
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	ids, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	client := &Client{
		db:        db,
		edgeTable: cfg.EdgeTable,
		nodeTable: cfg.NodeTable,
		ids:       ids,
	}
	if client.edgeTable == "" {
		client.edgeTable = "connections"
	}
	if client.nodeTable == "" {
		client.nodeTable = "experiences"
	}

	// Initialize table structure
	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table structure.
//
// The unique index over (source_id, target_id, conn_type) backs the
// one-edge-per-tuple invariant.
func (c *Client) initTables(ctx context.Context) error {
	edgeQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			source_id INTEGER NOT NULL,
			target_id INTEGER NOT NULL,
			conn_type TEXT NOT NULL,
			strength INTEGER NOT NULL,
			direction TEXT NOT NULL,
			conscious INTEGER NOT NULL DEFAULT 1,
			description TEXT,
			attributes TEXT,
			created_at DATETIME NOT NULL,
			last_activated DATETIME NOT NULL,
			activation_count INTEGER NOT NULL DEFAULT 1,
			version INTEGER NOT NULL DEFAULT 1,
			UNIQUE (source_id, target_id, conn_type)
		)
	`, c.edgeTable)

	if _, err := c.db.ExecContext(ctx, edgeQuery); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	nodeQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			context_id INTEGER NOT NULL DEFAULT 0,
			content TEXT,
			embedding TEXT,
			created_at DATETIME NOT NULL
		)
	`, c.nodeTable)

	if _, err := c.db.ExecContext(ctx, nodeQuery); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	indexes := []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_source ON %s(source_id)", c.edgeTable, c.edgeTable),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_target ON %s(target_id)", c.edgeTable, c.edgeTable),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_context ON %s(context_id)", c.nodeTable, c.nodeTable),
	}
	for _, indexQuery := range indexes {
		if _, err := c.db.ExecContext(ctx, indexQuery); err != nil {
			return fmt.Errorf("initTables: %w", err)
		}
	}

	return nil
}

// InsertEdge stores a new edge, assigning a snowflake ID when none is set.
func (c *Client) InsertEdge(ctx context.Context, edge *storage.Edge) error {
	if edge.ID == 0 {
		edge.ID = c.ids.Generate().Int64()
	}
	now := time.Now()
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = now
	}
	if edge.LastActivated.IsZero() {
		edge.LastActivated = now
	}
	if edge.ActivationCount == 0 {
		edge.ActivationCount = 1
	}
	edge.Version = 1

	attributesJSON, err := json.Marshal(edge.Attributes)
	if err != nil {
		return fmt.Errorf("InsertEdge: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s
		(id, source_id, target_id, conn_type, strength, direction, conscious,
		 description, attributes, created_at, last_activated, activation_count, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.edgeTable)

	_, err = c.db.ExecContext(ctx, query,
		edge.ID,
		edge.SourceID,
		edge.TargetID,
		string(edge.Type),
		edge.Strength,
		string(edge.Direction),
		boolToInt(edge.Conscious),
		edge.Description,
		string(attributesJSON),
		edge.CreatedAt,
		edge.LastActivated,
		edge.ActivationCount,
		edge.Version,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("InsertEdge: %w", storage.ErrDuplicateEdge)
		}
		return fmt.Errorf("InsertEdge: %w", err)
	}

	return nil
}

// GetEdge retrieves an edge by id.
func (c *Client) GetEdge(ctx context.Context, id int64) (*storage.Edge, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE id = ?
	`, edgeColumns, c.edgeTable)

	edge, err := scanEdge(c.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("GetEdge: %w", storage.ErrEdgeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetEdge: %w", err)
	}
	return edge, nil
}

// FindEdge retrieves the edge for an ordered (source, target, type) tuple.
func (c *Client) FindEdge(ctx context.Context, sourceID, targetID int64, typ storage.ConnectionType) (*storage.Edge, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE source_id = ? AND target_id = ? AND conn_type = ?
	`, edgeColumns, c.edgeTable)

	edge, err := scanEdge(c.db.QueryRowContext(ctx, query, sourceID, targetID, string(typ)))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("FindEdge: %w", storage.ErrEdgeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("FindEdge: %w", err)
	}
	return edge, nil
}

// UpdateEdge writes the edge's mutable fields guarded by a version check.
func (c *Client) UpdateEdge(ctx context.Context, edge *storage.Edge, expectedVersion int64) error {
	attributesJSON, err := json.Marshal(edge.Attributes)
	if err != nil {
		return fmt.Errorf("UpdateEdge: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET strength = ?, direction = ?, conscious = ?, description = ?,
		    attributes = ?, last_activated = ?, activation_count = ?, version = version + 1
		WHERE id = ? AND version = ?
	`, c.edgeTable)

	result, err := c.db.ExecContext(ctx, query,
		edge.Strength,
		string(edge.Direction),
		boolToInt(edge.Conscious),
		edge.Description,
		string(attributesJSON),
		edge.LastActivated,
		edge.ActivationCount,
		edge.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("UpdateEdge: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateEdge: %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish a lost race from a vanished edge.
		if _, err := c.GetEdge(ctx, edge.ID); err != nil {
			return fmt.Errorf("UpdateEdge: %w", storage.ErrEdgeNotFound)
		}
		return fmt.Errorf("UpdateEdge: %w", storage.ErrVersionConflict)
	}

	edge.Version = expectedVersion + 1
	return nil
}

// ScanEdges returns all edges matching the filter, ordered by id.
func (c *Client) ScanEdges(ctx context.Context, filter *storage.EdgeFilter) ([]*storage.Edge, error) {
	whereClause, args := buildEdgeWhereClause(filter)

	query := fmt.Sprintf(`
		SELECT %s FROM %s %s ORDER BY id
	`, edgeColumns, c.edgeTable, whereClause)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ScanEdges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var edges []*storage.Edge
	for rows.Next() {
		edge, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("ScanEdges: %w", err)
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ScanEdges: %w", err)
	}

	return edges, nil
}

// PutNode stores or replaces a node record.
func (c *Client) PutNode(ctx context.Context, node *storage.Node) error {
	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now()
	}

	embeddingJSON, err := json.Marshal(node.Embedding)
	if err != nil {
		return fmt.Errorf("PutNode: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (id, context_id, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.nodeTable)

	_, err = c.db.ExecContext(ctx, query,
		node.ID,
		node.ContextID,
		node.Content,
		string(embeddingJSON),
		node.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("PutNode: %w", err)
	}

	return nil
}

// GetNode retrieves a node by id.
func (c *Client) GetNode(ctx context.Context, id int64) (*storage.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, context_id, content, embedding, created_at FROM %s WHERE id = ?
	`, c.nodeTable)

	node, err := scanNode(c.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("GetNode: %w", storage.ErrNodeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetNode: %w", err)
	}
	return node, nil
}

// NodesByContext returns all nodes in the given context group, ordered by id.
func (c *Client) NodesByContext(ctx context.Context, contextID int64) ([]*storage.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, context_id, content, embedding, created_at
		FROM %s WHERE context_id = ? ORDER BY id
	`, c.nodeTable)

	rows, err := c.db.QueryContext(ctx, query, contextID)
	if err != nil {
		return nil, fmt.Errorf("NodesByContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var nodes []*storage.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("NodesByContext: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("NodesByContext: %w", err)
	}

	return nodes, nil
}

// CountNodes returns the total number of stored nodes.
func (c *Client) CountNodes(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", c.nodeTable)

	var count int64
	if err := c.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountNodes: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
