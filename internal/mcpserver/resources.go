package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// toolSchemas lists every MCP tool whose argument struct gets a
// codemap://schemas/{tool_name} resource, keyed by the same name the
// tool is registered under in tools.go.
var toolSchemas = map[string]func() (string, error){
	"build":                 schemaFor[BuildArgs],
	"get_node":              schemaFor[NodeArgs],
	"search_nodes":          schemaFor[SearchArgs],
	"get_callers":           schemaFor[NodeArgs],
	"get_callees":           schemaFor[NodeArgs],
	"get_functions_in_file": schemaFor[NodeArgs],
	"transitive_callers":    schemaFor[NeighborArgs],
	"transitive_callees":    schemaFor[NeighborArgs],
	"all_call_chains":       schemaFor[ChainsArgs],
	"hotspots":              schemaFor[HotspotsArgs],
	"get_stats":             schemaFor[StatsArgs],
}

func schemaFor[T any]() (string, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// registerResources exposes the server's static docs, its live graph
// state, and its tool schemas as MCP resources. Unlike the tools
// (which take arguments and act), resources are meant to be read
// as-is by a client orienting itself against a running server.
func (s *Server) registerResources() {
	s.registerUsageGuidelines()
	s.registerGraphSummary()
	s.registerToolSchemas()
}

func (s *Server) registerUsageGuidelines() {
	const uri = "codemap://usage-guidelines"
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         uri,
		Name:        "Usage Guidelines",
		Description: "System prompt and usage guidelines for the codemap MCP server",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: uri, MIMEType: "text/markdown", Text: systemPrompt},
			},
		}, nil
	})
}

// registerGraphSummary exposes the query engine's aggregate counts
// (spec §4.6, GetSemanticStats) as a live resource, so a client can
// see whether the current project has been built and how large its
// graph is without spending a tool call on `get_stats`.
func (s *Server) registerGraphSummary() {
	const uri = "codemap://graph-summary"
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         uri,
		Name:        "Graph Summary",
		Description: "Aggregate node/edge counts for the currently indexed call graph",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		stats, err := s.engine.GetSemanticStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("graph summary: %w", err)
		}
		body, err := json.MarshalIndent(struct {
			Root          string `json:"root"`
			TotalNodes    int    `json:"total_nodes"`
			TotalEdges    int    `json:"total_edges"`
			Files         int    `json:"files"`
			Classes       int    `json:"classes"`
			Functions     int    `json:"functions"`
			Methods       int    `json:"methods"`
			FunctionCalls int    `json:"function_calls"`
			MethodCalls   int    `json:"method_calls"`
		}{
			Root:          s.root,
			TotalNodes:    stats.TotalNodes,
			TotalEdges:    stats.TotalEdges,
			Files:         stats.Files,
			Classes:       stats.Classes,
			Functions:     stats.Functions,
			Methods:       stats.Methods,
			FunctionCalls: stats.FunctionCalls,
			MethodCalls:   stats.MethodCalls,
		}, "", "  ")
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: uri, MIMEType: "application/json", Text: string(body)},
			},
		}, nil
	})
}

func (s *Server) registerToolSchemas() {
	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "codemap://schemas/{tool_name}",
		Name:        "Tool Schema",
		Description: "JSON schema for the named tool's arguments",
		MIMEType:    "application/schema+json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI
		toolName := strings.TrimPrefix(uri, "codemap://schemas/")
		build, ok := toolSchemas[toolName]
		if !ok {
			return nil, fmt.Errorf("unknown tool schema: %q", toolName)
		}
		schemaJSON, err := build()
		if err != nil {
			return nil, fmt.Errorf("tool schema %q: %w", toolName, err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: uri, MIMEType: "application/schema+json", Text: schemaJSON},
			},
		}, nil
	})
}
