package query

import (
	"context"

	"codemap/internal/graph"
)

// SearchNodes implements the four-stage fuzzy search of spec §4.6:
// id/label substring, then meta substring, then edge-alias join, run
// in order and unioned with first-occurrence dedup, filtered and
// capped at SearchCap.
func (e *Engine) SearchNodes(ctx context.Context, q string, opts Options) ([]Result, error) {
	seen := make(map[string]bool)
	var matched []graph.Node

	stages := []func(context.Context, string, int) ([]graph.Node, error){
		e.r.SearchByIDOrLabel,
		e.r.SearchByMeta,
		e.r.SearchByEdgeAlias,
	}

	for _, stage := range stages {
		if len(matched) >= SearchCap {
			break
		}
		nodes, err := stage(ctx, q, SearchCap)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			if len(matched) >= SearchCap {
				break
			}
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			matched = append(matched, n)
		}
	}

	matched = filterNodes(matched, opts)
	return toResults(matched, opts.Expanded), nil
}
