// Package mcpserver exposes the query engine over the Model Context
// Protocol (spec §6.3): one tool per query operation except
// getAllNodes/getAllEdges, which have no tool, plus a build tool,
// backed by github.com/modelcontextprotocol/go-sdk/mcp.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codemap/internal/query"
	"codemap/internal/resolve"
	"codemap/internal/store"
)

const systemPrompt = `codemap indexes an ECMAScript-family source tree (JS/JSX/TS/TSX,
CommonJS included) into a call graph and answers structural questions over it:
who calls this function, what does this function call, is there a path from A
to B, and which symbols sit at the busiest crossings. Call "build" once before
querying a fresh project root; every other tool reads the graph "build" last
produced.`

// Server wires a query.Engine and its backing store to an MCP server.
type Server struct {
	mcpServer *mcp.Server
	engine    *query.Engine
	store     *store.Store
	root      string
	fw        resolve.FrameworkConfig
	log       *slog.Logger
}

// New constructs an MCP server rooted at root over the already-open
// store s, which its build tool writes and its query tools read.
func New(root string, s *store.Store, fw resolve.FrameworkConfig, log *slog.Logger) *Server {
	impl := &mcp.Implementation{Name: "codemap", Version: "0.1.0"}
	srv := &Server{
		mcpServer: mcp.NewServer(impl, nil),
		engine:    query.NewEngine(s),
		store:     s,
		root:      root,
		fw:        fw,
		log:       log,
	}
	srv.registerTools()
	srv.registerResources()
	return srv
}

// Run serves over stdio until the transport closes or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}
