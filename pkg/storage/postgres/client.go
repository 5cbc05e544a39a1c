// Package postgres provides the PostgreSQL implementation of the graph store.
//
// Attribute bags are stored as JSONB, embeddings as JSONB arrays. The unique
// index over (source_id, target_id, conn_type) backs the one-edge-per-tuple
// invariant.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	_ "github.com/lib/pq"

	"github.com/undermaind/memnet-go/pkg/storage"
)

// Client is a PostgreSQL graph store client.
type Client struct {
	db        *sql.DB
	edgeTable string
	nodeTable string
	ids       *snowflake.Node
}

// Config contains PostgreSQL configuration.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	EdgeTable string
	NodeTable string
	SSLMode   string
}

// NewClient creates a new PostgreSQL client.
func NewClient(cfg *Config) (*Client, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	ids, err := snowflake.NewNode(2)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
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

	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database tables.
func (c *Client) initTables(ctx context.Context) error {
	edgeQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			source_id BIGINT NOT NULL,
			target_id BIGINT NOT NULL,
			conn_type VARCHAR(32) NOT NULL,
			strength INTEGER NOT NULL,
			direction VARCHAR(16) NOT NULL,
			conscious BOOLEAN NOT NULL DEFAULT TRUE,
			description TEXT,
			attributes JSONB,
			created_at TIMESTAMP NOT NULL,
			last_activated TIMESTAMP NOT NULL,
			activation_count BIGINT NOT NULL DEFAULT 1,
			version BIGINT NOT NULL DEFAULT 1,
			UNIQUE (source_id, target_id, conn_type)
		)
	`, c.edgeTable)

	if _, err := c.db.ExecContext(ctx, edgeQuery); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	nodeQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			context_id BIGINT NOT NULL DEFAULT 0,
			content TEXT,
			embedding JSONB,
			created_at TIMESTAMP NOT NULL
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, c.edgeTable)

	_, err = c.db.ExecContext(ctx, query,
		edge.ID,
		edge.SourceID,
		edge.TargetID,
		string(edge.Type),
		edge.Strength,
		string(edge.Direction),
		edge.Conscious,
		edge.Description,
		string(attributesJSON),
		edge.CreatedAt,
		edge.LastActivated,
		edge.ActivationCount,
		edge.Version,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			return fmt.Errorf("InsertEdge: %w", storage.ErrDuplicateEdge)
		}
		return fmt.Errorf("InsertEdge: %w", err)
	}

	return nil
}

// GetEdge retrieves an edge by id.
func (c *Client) GetEdge(ctx context.Context, id int64) (*storage.Edge, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, edgeColumns, c.edgeTable)

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
		SELECT %s FROM %s WHERE source_id = $1 AND target_id = $2 AND conn_type = $3
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
		SET strength = $1, direction = $2, conscious = $3, description = $4,
		    attributes = $5, last_activated = $6, activation_count = $7, version = version + 1
		WHERE id = $8 AND version = $9
	`, c.edgeTable)

	result, err := c.db.ExecContext(ctx, query,
		edge.Strength,
		string(edge.Direction),
		edge.Conscious,
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

	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY id`, edgeColumns, c.edgeTable, whereClause)

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
		INSERT INTO %s (id, context_id, content, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET context_id = EXCLUDED.context_id,
		    content = EXCLUDED.content,
		    embedding = EXCLUDED.embedding
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
		SELECT id, context_id, content, embedding, created_at FROM %s WHERE id = $1
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
		FROM %s WHERE context_id = $1 ORDER BY id
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
