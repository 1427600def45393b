package main

import (
	"github.com/spf13/cobra"

	"codemap/internal/query"
)

var (
	configPath string
	dbPath     string
	memBackend bool

	rootCmd = &cobra.Command{
		Use:   "codemap",
		Short: "Static call-graph analyzer for ECMAScript-family sources",
		Long: `codemap extracts a call graph from a JS/JSX/TS/TSX (CommonJS
included) source tree, persists it in SQLite, and answers structural
queries over it: callers, callees, reachability, call chains, hotspots.`,
	}

	buildCmd = &cobra.Command{
		Use:   "build [path]",
		Short: "Scan a project root and persist its call graph",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBuild,
	}

	serveCmd = &cobra.Command{
		Use:   "serve [path]",
		Short: "Serve the query engine over MCP (stdio)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}

	watchCmd = &cobra.Command{
		Use:   "watch [path]",
		Short: "Rebuild the call graph whenever a source file changes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWatch,
	}

	queryCmd = &cobra.Command{
		Use:   "query",
		Short: "Run one query operation against a built graph",
	}

	queryNodeCmd = &cobra.Command{
		Use:   "node <id>",
		Short: "Look up a single node by ID",
		Args:  cobra.ExactArgs(1),
		RunE:  runQueryNode,
	}

	querySearchCmd = &cobra.Command{
		Use:   "search <text>",
		Short: "Fuzzy-search nodes",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuerySearch,
	}

	queryCallersCmd = &cobra.Command{
		Use:   "callers <id>",
		Short: "Direct callers of a node",
		Args:  cobra.ExactArgs(1),
		RunE:  runQueryCallers,
	}

	queryCalleesCmd = &cobra.Command{
		Use:   "callees <id>",
		Short: "Direct callees of a node",
		Args:  cobra.ExactArgs(1),
		RunE:  runQueryCallees,
	}

	queryTransitiveCallersCmd = &cobra.Command{
		Use:   "transitive-callers <id>",
		Short: "Every node that can transitively reach a node",
		Args:  cobra.ExactArgs(1),
		RunE:  runQueryTransitiveCallers,
	}

	queryTransitiveCalleesCmd = &cobra.Command{
		Use:   "transitive-callees <id>",
		Short: "Every node a node can transitively reach",
		Args:  cobra.ExactArgs(1),
		RunE:  runQueryTransitiveCallees,
	}

	queryChainsCmd = &cobra.Command{
		Use:   "chains <from> <to>",
		Short: "Enumerate simple call paths between two nodes",
		Args:  cobra.ExactArgs(2),
		RunE:  runQueryChains,
	}

	queryHotspotsCmd = &cobra.Command{
		Use:   "hotspots",
		Short: "Rank nodes by in-degree times out-degree",
		Args:  cobra.NoArgs,
		RunE:  runQueryHotspots,
	}

	queryStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Aggregate counts over the graph",
		Args:  cobra.NoArgs,
		RunE:  runQueryStats,
	}
)

var (
	queryMaxDepth     int
	queryTree         bool
	queryDepthLimit   int
	queryMaxPaths     int
	queryTop          int
	buildUseGitignore bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a codemap.yaml config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "graph database path (default: derived from the project root)")
	rootCmd.PersistentFlags().BoolVar(&memBackend, "mem", false, "use the in-memory store back-end for build, watch and serve; build and watch save it to the graph database path after each build")

	buildCmd.Flags().BoolVar(&buildUseGitignore, "gitignore", true, "honor a .gitignore file at the project root")

	queryTransitiveCallersCmd.Flags().IntVar(&queryMaxDepth, "max-depth", query.UseDefaultDepth, "traversal depth (0 is the literal zero-depth boundary; unset uses the operation default)")
	queryTransitiveCallersCmd.Flags().BoolVar(&queryTree, "tree", false, "return a DFS tree instead of a flat BFS list")
	queryTransitiveCalleesCmd.Flags().IntVar(&queryMaxDepth, "max-depth", query.UseDefaultDepth, "traversal depth (0 is the literal zero-depth boundary; unset uses the operation default)")
	queryTransitiveCalleesCmd.Flags().BoolVar(&queryTree, "tree", false, "return a DFS tree instead of a flat BFS list")

	queryChainsCmd.Flags().IntVar(&queryDepthLimit, "depth-limit", 0, "max path length in edges (0 = operation default)")
	queryChainsCmd.Flags().IntVar(&queryMaxPaths, "max-paths", 0, "max number of paths returned (0 = operation default)")

	queryHotspotsCmd.Flags().IntVar(&queryTop, "top", 0, "number of hotspots to return (0 = operation default)")

	queryCmd.AddCommand(
		queryNodeCmd, querySearchCmd, queryCallersCmd, queryCalleesCmd,
		queryTransitiveCallersCmd, queryTransitiveCalleesCmd, queryChainsCmd,
		queryHotspotsCmd, queryStatsCmd,
	)
	rootCmd.AddCommand(buildCmd, serveCmd, watchCmd, queryCmd)
}
