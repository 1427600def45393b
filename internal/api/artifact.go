// Package api holds build-artifact JSON encode/decode (spec §6.2) and a
// small build summary record. It defines no request/response types for
// the query operations.
package api

import (
	"encoding/json"
	"fmt"
	"io"

	"codemap/internal/graph"
)

// EncodeArtifact writes g's build artifact as JSON to w.
func EncodeArtifact(w io.Writer, g *graph.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g.ToArtifact()); err != nil {
		return fmt.Errorf("encode build artifact: %w", err)
	}
	return nil
}

// DecodeArtifact reads a build artifact as JSON from r and rehydrates
// it into a Graph.
func DecodeArtifact(r io.Reader) (*graph.Graph, error) {
	var a graph.BuildArtifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode build artifact: %w", err)
	}
	return graph.FromArtifact(a), nil
}

// BuildSummary is a small, human-facing record of a completed build.
// The build command and the MCP build tool report their results
// without it.
type BuildSummary struct {
	SourceRoot string `json:"sourceRoot"`
	Files      int    `json:"files"`
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
	DBPath     string `json:"dbPath,omitempty"`
}

// Summarize reduces a graph to its BuildSummary.
func Summarize(g *graph.Graph, fileCount int, dbPath string) BuildSummary {
	return BuildSummary{
		SourceRoot: g.SourceRoot,
		Files:      fileCount,
		Nodes:      len(g.Nodes),
		Edges:      len(g.Edges),
		DBPath:     dbPath,
	}
}
