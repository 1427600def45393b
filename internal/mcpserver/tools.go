package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codemap/internal/graph"
	"codemap/internal/pipeline"
	"codemap/internal/progress"
	"codemap/internal/query"
)

// Argument structs, one per registered tool.

type BuildArgs struct {
	Root string `json:"root" jsonschema:"required,description:Absolute path to the project root to index"`
}

type NodeArgs struct {
	ID string `json:"id" jsonschema:"required,description:Node ID"`
}

type SearchArgs struct {
	Query        string   `json:"query" jsonschema:"required,description:Fuzzy search text"`
	IncludeTypes []string `json:"include_types,omitempty" jsonschema:"description:Restrict to these node kinds"`
}

type NeighborArgs struct {
	ID           string   `json:"id" jsonschema:"required,description:Node ID"`
	MaxDepth     *int     `json:"max_depth,omitempty" jsonschema:"description:Traversal depth. 0 is the literal zero-depth boundary (BFS empty, tree root-only); omit to use the operation default"`
	Tree         bool     `json:"tree,omitempty" jsonschema:"description:Return a DFS tree instead of a flat BFS list"`
	IncludeTypes []string `json:"include_types,omitempty"`
	ExcludeTypes []string `json:"exclude_types,omitempty"`
}

type ChainsArgs struct {
	From       string `json:"from" jsonschema:"required,description:Start node ID"`
	To         string `json:"to" jsonschema:"required,description:Target node ID"`
	DepthLimit int    `json:"depth_limit,omitempty"`
	MaxPaths   int    `json:"max_paths,omitempty"`
}

type HotspotsArgs struct {
	Top int `json:"top,omitempty" jsonschema:"description:Number of hotspots to return, default 20"`
}

type StatsArgs struct{}

func nodeKinds(names []string) []graph.NodeKind {
	if len(names) == 0 {
		return nil
	}
	out := make([]graph.NodeKind, len(names))
	for i, n := range names {
		out[i] = graph.NodeKind(n)
	}
	return out
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "build",
		Description: "Scans a project root and (re)builds its call graph",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args BuildArgs) (*mcp.CallToolResult, any, error) {
		root := args.Root
		if root == "" {
			root = s.root
		}
		result, err := pipeline.Run(ctx, pipeline.Options{
			Root:         root,
			FrameworkCfg: s.fw,
			UseGitignore: true,
			Sink:         progress.NewSlogSink(s.log),
		})
		if err != nil {
			return errorResult(fmt.Sprintf("build failed: %v", err)), nil, nil
		}
		if err := pipeline.Persist(ctx, s.store, result.Graph); err != nil {
			return errorResult(fmt.Sprintf("persist failed: %v", err)), nil, nil
		}
		msg := fmt.Sprintf("indexed %d files: %d nodes, %d edges (%d skipped)",
			result.FileCount, len(result.Graph.Nodes), len(result.Graph.Edges), len(result.Skipped))
		return textResult(msg), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_node",
		Description: "Returns a single node by ID, or null if it does not exist",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args NodeArgs) (*mcp.CallToolResult, any, error) {
		n, err := s.engine.GetNode(ctx, args.ID)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		if n == nil {
			return textResult("null"), nil, nil
		}
		return jsonResult(query.Expand(*n))
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_nodes",
		Description: "Fuzzy-searches nodes by ID, label, metadata, and edge alias",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
		opts := query.NewOptions()
		opts.IncludeTypes = nodeKinds(args.IncludeTypes)
		results, err := s.engine.SearchNodes(ctx, args.Query, opts)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return jsonResult(results)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_callers",
		Description: "Returns the direct callers of a node",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args NodeArgs) (*mcp.CallToolResult, any, error) {
		results, err := s.engine.GetCallers(ctx, args.ID, query.NewOptions())
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return jsonResult(results)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_callees",
		Description: "Returns the direct callees of a node",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args NodeArgs) (*mcp.CallToolResult, any, error) {
		results, err := s.engine.GetCallees(ctx, args.ID, query.NewOptions())
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return jsonResult(results)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_functions_in_file",
		Description: "Returns the top-level declarations of a file, or the methods of a class",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args NodeArgs) (*mcp.CallToolResult, any, error) {
		results, err := s.engine.GetFunctionsInFile(ctx, args.ID, query.NewOptions())
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return jsonResult(results)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "transitive_callers",
		Description: "Returns every node that can transitively reach a node, flat (BFS) or as a tree (DFS)",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args NeighborArgs) (*mcp.CallToolResult, any, error) {
		opts := neighborOptions(args)
		if args.Tree {
			tree, err := s.engine.TransitiveCallersTree(ctx, args.ID, opts)
			if err != nil {
				return errorResult(err.Error()), nil, nil
			}
			return jsonResult(tree)
		}
		results, err := s.engine.TransitiveCallersFlat(ctx, args.ID, opts)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return jsonResult(results)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "transitive_callees",
		Description: "Returns every node a node can transitively reach, flat (BFS) or as a tree (DFS)",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args NeighborArgs) (*mcp.CallToolResult, any, error) {
		opts := neighborOptions(args)
		if args.Tree {
			tree, err := s.engine.TransitiveCalleesTree(ctx, args.ID, opts)
			if err != nil {
				return errorResult(err.Error()), nil, nil
			}
			return jsonResult(tree)
		}
		results, err := s.engine.TransitiveCalleesFlat(ctx, args.ID, opts)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return jsonResult(results)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "all_call_chains",
		Description: "Enumerates every simple call path between two nodes",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ChainsArgs) (*mcp.CallToolResult, any, error) {
		opts := query.NewOptions()
		opts.DepthLimit = args.DepthLimit
		opts.MaxPaths = args.MaxPaths
		chains, err := s.engine.AllCallChains(ctx, args.From, args.To, opts)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return jsonResult(chains)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "hotspots",
		Description: "Ranks nodes by in-degree times out-degree over call edges",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args HotspotsArgs) (*mcp.CallToolResult, any, error) {
		hotspots, err := s.engine.Hotspots(ctx, args.Top, query.NewOptions())
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return jsonResult(hotspots)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_stats",
		Description: "Returns aggregate counts over the current graph",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args StatsArgs) (*mcp.CallToolResult, any, error) {
		stats, err := s.engine.GetSemanticStats(ctx)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return jsonResult(stats)
	})
}

func neighborOptions(args NeighborArgs) query.Options {
	opts := query.NewOptions()
	if args.MaxDepth != nil {
		opts.MaxDepth = *args.MaxDepth
	}
	opts.Tree = args.Tree
	opts.IncludeTypes = nodeKinds(args.IncludeTypes)
	opts.ExcludeTypes = nodeKinds(args.ExcludeTypes)
	return opts
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return textResult(string(data)), nil, nil
}
