package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"codemap/internal/apperr"
	"codemap/internal/graph"
)

func scanNode(row interface{ Scan(...any) error }) (graph.Node, error) {
	var id, kind string
	var label sql.NullString
	var metaJSON sql.NullString
	if err := row.Scan(&id, &kind, &label, &metaJSON); err != nil {
		return graph.Node{}, err
	}
	n := graph.Node{ID: id, Kind: graph.NodeKind(kind), Label: label.String}
	if metaJSON.Valid && metaJSON.String != "" {
		var m graph.Meta
		if err := json.Unmarshal([]byte(metaJSON.String), &m); err == nil {
			n.Meta = m
		}
	}
	return n, nil
}

func scanEdge(row interface{ Scan(...any) error }) (graph.Edge, error) {
	var from, to, kind string
	var metaJSON sql.NullString
	if err := row.Scan(&from, &to, &kind, &metaJSON); err != nil {
		return graph.Edge{}, err
	}
	e := graph.Edge{From: from, To: to, Kind: graph.EdgeKind(kind)}
	if metaJSON.Valid && metaJSON.String != "" {
		var m graph.Meta
		if err := json.Unmarshal([]byte(metaJSON.String), &m); err == nil {
			e.Meta = m
		}
	}
	return e, nil
}

// GetNode returns the node with the given ID, or (zero, false, nil)
// if it does not exist. Missing nodes are never an error (spec §4.7,
// "node-not-found ... non-error").
func (s *Store) GetNode(ctx context.Context, id string) (graph.Node, bool, error) {
	stmt, err := s.db.PrepareContext(ctx, `SELECT id, type, label, meta FROM nodes WHERE id = ?`)
	if err != nil {
		return graph.Node{}, false, fmt.Errorf("%w: prepare get node: %v", apperr.ErrStoreRead, err)
	}
	defer stmt.Close()
	n, err := scanNode(stmt.QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return graph.Node{}, false, nil
	}
	if err != nil {
		return graph.Node{}, false, fmt.Errorf("%w: get node %s: %v", apperr.ErrStoreRead, id, err)
	}
	return n, true, nil
}

// AllNodes returns every node, optionally restricted to kinds.
func (s *Store) AllNodes(ctx context.Context, kinds []graph.NodeKind) ([]graph.Node, error) {
	query := `SELECT id, type, label, meta FROM nodes`
	args := kindArgs(kinds)
	if len(kinds) > 0 {
		query += ` WHERE type IN (` + placeholders(len(kinds)) + `)`
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: all nodes: %v", apperr.ErrStoreRead, err)
	}
	defer rows.Close()
	var out []graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan node: %v", apperr.ErrStoreRead, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// AllEdges returns every edge.
func (s *Store) AllEdges(ctx context.Context) ([]graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT from_id, to_id, type, meta FROM edges`)
	if err != nil {
		return nil, fmt.Errorf("%w: all edges: %v", apperr.ErrStoreRead, err)
	}
	defer rows.Close()
	var out []graph.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan edge: %v", apperr.ErrStoreRead, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EdgesFrom returns outgoing edges of id, optionally restricted to
// edge kinds.
func (s *Store) EdgesFrom(ctx context.Context, id string, kinds []graph.EdgeKind) ([]graph.Edge, error) {
	return s.edgesByEnd(ctx, "from_id", id, kinds)
}

// EdgesTo returns incoming edges of id, optionally restricted to edge
// kinds.
func (s *Store) EdgesTo(ctx context.Context, id string, kinds []graph.EdgeKind) ([]graph.Edge, error) {
	return s.edgesByEnd(ctx, "to_id", id, kinds)
}

func (s *Store) edgesByEnd(ctx context.Context, column, id string, kinds []graph.EdgeKind) ([]graph.Edge, error) {
	query := fmt.Sprintf(`SELECT from_id, to_id, type, meta FROM edges WHERE %s = ?`, column)
	args := []any{id}
	if len(kinds) > 0 {
		query += ` AND type IN (` + placeholders(len(kinds)) + `)`
		for _, k := range kinds {
			args = append(args, string(k))
		}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: edges by %s: %v", apperr.ErrStoreRead, column, err)
	}
	defer rows.Close()
	var out []graph.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan edge: %v", apperr.ErrStoreRead, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SearchByIDOrLabel is search stage 1 (spec §4.6): id LIKE %q% OR
// label LIKE %q%.
func (s *Store) SearchByIDOrLabel(ctx context.Context, q string, limit int) ([]graph.Node, error) {
	pattern := "%" + q + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, label, meta FROM nodes WHERE id LIKE ? OR label LIKE ? LIMIT ?`,
		pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: search stage1: %v", apperr.ErrStoreRead, err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// SearchByMeta is search stage 2: substring match over meta.moduleName
// and meta.name, case-insensitive.
func (s *Store) SearchByMeta(ctx context.Context, q string, limit int) ([]graph.Node, error) {
	pattern := "%" + strings.ToLower(q) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, label, meta FROM nodes
		 WHERE LOWER(json_extract(meta, '$.moduleName')) LIKE ?
		    OR LOWER(json_extract(meta, '$.name')) LIKE ?
		 LIMIT ?`,
		pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: search stage2: %v", apperr.ErrStoreRead, err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// SearchByEdgeAlias is search stage 3: match edge metadata
// receiver/moduleName, yielding the edge's target nodes.
func (s *Store) SearchByEdgeAlias(ctx context.Context, q string, limit int) ([]graph.Node, error) {
	pattern := "%" + strings.ToLower(q) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT n.id, n.type, n.label, n.meta FROM nodes n
		 JOIN edges e ON e.to_id = n.id
		 WHERE LOWER(json_extract(e.meta, '$.receiver')) LIKE ?
		    OR LOWER(json_extract(e.meta, '$.moduleName')) LIKE ?
		 LIMIT ?`,
		pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: search stage3: %v", apperr.ErrStoreRead, err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// EdgeCounts returns the in-degree and out-degree (over call and
// method_call edges only) of every node that has at least one such
// edge, for hotspot scoring (spec §4.6).
func (s *Store) EdgeCounts(ctx context.Context) (map[string]int, map[string]int, error) {
	inCounts := make(map[string]int)
	outCounts := make(map[string]int)

	rows, err := s.db.QueryContext(ctx,
		`SELECT to_id, COUNT(*) FROM edges WHERE type IN ('call','method_call') GROUP BY to_id`)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: in-degree: %v", apperr.ErrStoreRead, err)
	}
	for rows.Next() {
		var id string
		var c int
		if err := rows.Scan(&id, &c); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("%w: scan in-degree: %v", apperr.ErrStoreRead, err)
		}
		inCounts[id] = c
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT from_id, COUNT(*) FROM edges WHERE type IN ('call','method_call') GROUP BY from_id`)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: out-degree: %v", apperr.ErrStoreRead, err)
	}
	for rows.Next() {
		var id string
		var c int
		if err := rows.Scan(&id, &c); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("%w: scan out-degree: %v", apperr.ErrStoreRead, err)
		}
		outCounts[id] = c
	}
	rows.Close()

	return inCounts, outCounts, rows.Err()
}

// Stats implements getSemanticStats (spec §4.6).
type Stats struct {
	TotalNodes    int
	TotalEdges    int
	Classes       int
	Methods       int
	Functions     int
	Files         int
	MethodCalls   int
	FunctionCalls int
	FrameworkEdges int
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`)
	if err := row.Scan(&st.TotalNodes); err != nil {
		return st, fmt.Errorf("%w: stats total nodes: %v", apperr.ErrStoreRead, err)
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`)
	if err := row.Scan(&st.TotalEdges); err != nil {
		return st, fmt.Errorf("%w: stats total edges: %v", apperr.ErrStoreRead, err)
	}
	counts := map[string]*int{
		"class":    &st.Classes,
		"method":   &st.Methods,
		"function": &st.Functions,
		"file":     &st.Files,
	}
	for kind, dest := range counts {
		row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes WHERE type = ?`, kind)
		if err := row.Scan(dest); err != nil {
			return st, fmt.Errorf("%w: stats count %s: %v", apperr.ErrStoreRead, kind, err)
		}
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges WHERE type = 'method_call'`)
	if err := row.Scan(&st.MethodCalls); err != nil {
		return st, fmt.Errorf("%w: stats method_call: %v", apperr.ErrStoreRead, err)
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges WHERE type = 'call'`)
	if err := row.Scan(&st.FunctionCalls); err != nil {
		return st, fmt.Errorf("%w: stats call: %v", apperr.ErrStoreRead, err)
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges WHERE json_extract(meta, '$.isFramework') = 1`)
	if err := row.Scan(&st.FrameworkEdges); err != nil {
		return st, fmt.Errorf("%w: stats framework: %v", apperr.ErrStoreRead, err)
	}
	return st, nil
}

func scanNodes(rows *sql.Rows) ([]graph.Node, error) {
	var out []graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan node: %v", apperr.ErrStoreRead, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func kindArgs(kinds []graph.NodeKind) []any {
	args := make([]any, len(kinds))
	for i, k := range kinds {
		args[i] = string(k)
	}
	return args
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "?"
	}
	return strings.Join(parts, ", ")
}
