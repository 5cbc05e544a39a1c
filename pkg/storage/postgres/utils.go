package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/undermaind/memnet-go/pkg/storage"
)

// edgeColumns is the canonical select list for edge rows.
const edgeColumns = `id, source_id, target_id, conn_type, strength, direction, conscious,
	description, attributes, created_at, last_activated, activation_count, version`

// rowScanner abstracts sql.Row and sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// buildEdgeWhereClause builds a WHERE clause with $n placeholders.
func buildEdgeWhereClause(filter *storage.EdgeFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if filter == nil {
		return "", args
	}

	next := func() string { return fmt.Sprintf("$%d", len(args)) }

	if filter.SourceID != 0 {
		args = append(args, filter.SourceID)
		conditions = append(conditions, "source_id = "+next())
	}
	if filter.TargetID != 0 {
		args = append(args, filter.TargetID)
		conditions = append(conditions, "target_id = "+next())
	}
	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, typ := range filter.Types {
			args = append(args, string(typ))
			placeholders[i] = next()
		}
		conditions = append(conditions, "conn_type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.Direction != "" {
		args = append(args, string(filter.Direction))
		conditions = append(conditions, "direction = "+next())
	}
	if filter.MinStrength > 0 {
		args = append(args, filter.MinStrength)
		conditions = append(conditions, "strength >= "+next())
	}
	if filter.ConsciousOnly {
		conditions = append(conditions, "conscious = TRUE")
	}

	if len(conditions) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// scanEdge scans an edge from a database row or rows.
func scanEdge(scanner rowScanner) (*storage.Edge, error) {
	var edge storage.Edge
	var typ, direction string
	var description sql.NullString
	var attributesStr sql.NullString

	err := scanner.Scan(
		&edge.ID,
		&edge.SourceID,
		&edge.TargetID,
		&typ,
		&edge.Strength,
		&direction,
		&edge.Conscious,
		&description,
		&attributesStr,
		&edge.CreatedAt,
		&edge.LastActivated,
		&edge.ActivationCount,
		&edge.Version,
	)
	if err != nil {
		return nil, err
	}

	edge.Type = storage.ConnectionType(typ)
	edge.Direction = storage.Direction(direction)
	if description.Valid {
		edge.Description = description.String
	}
	if attributesStr.Valid && attributesStr.String != "" && attributesStr.String != "null" {
		if err := json.Unmarshal([]byte(attributesStr.String), &edge.Attributes); err != nil {
			return nil, fmt.Errorf("parse attributes: %w", err)
		}
	}

	return &edge, nil
}

// scanNode scans a node from a database row or rows.
func scanNode(scanner rowScanner) (*storage.Node, error) {
	var node storage.Node
	var content sql.NullString
	var embeddingStr sql.NullString

	err := scanner.Scan(
		&node.ID,
		&node.ContextID,
		&content,
		&embeddingStr,
		&node.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if content.Valid {
		node.Content = content.String
	}
	if embeddingStr.Valid && embeddingStr.String != "" && embeddingStr.String != "null" {
		if err := json.Unmarshal([]byte(embeddingStr.String), &node.Embedding); err != nil {
			return nil, fmt.Errorf("parse embedding: %w", err)
		}
	}

	return &node, nil
}
