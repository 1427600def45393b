package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codemap/internal/config"
	"codemap/internal/mcpserver"
	"codemap/internal/pipeline"
	"codemap/internal/progress"
	"codemap/internal/query"
	"codemap/internal/registry"
	"codemap/internal/resolve"
	"codemap/internal/store"
)

func targetRoot(args []string) (string, error) {
	start := "."
	if len(args) == 1 {
		start = args[0]
	}
	return registry.DetectRoot(start)
}

func resolveDBPath(root string) (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	return registry.DBPathFor(root)
}

func loadFrameworkConfig() (resolve.FrameworkConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return resolve.FrameworkConfig{}, err
	}
	return cfg.FrameworkConfig(), nil
}

func openStore(path string) (*store.Store, error) {
	if memBackend {
		return store.OpenMemory()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return store.OpenNative(path)
}

func runBuild(cmd *cobra.Command, args []string) error {
	root, err := targetRoot(args)
	if err != nil {
		return err
	}
	fw, err := loadFrameworkConfig()
	if err != nil {
		return err
	}
	path, err := resolveDBPath(root)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	result, err := pipeline.Run(ctx, pipeline.Options{
		Root:         root,
		FrameworkCfg: fw,
		UseGitignore: buildUseGitignore,
		Sink:         progress.NewSlogSink(log),
	})
	if err != nil {
		return err
	}

	s, err := openStore(path)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := pipeline.Persist(ctx, s, result.Graph); err != nil {
		return err
	}
	if memBackend {
		if err := s.Save(ctx, path); err != nil {
			return err
		}
	}

	reg, err := registry.Open()
	if err == nil {
		_ = reg.Register(registry.Entry{
			RootPath:  root,
			DBPath:    path,
			FileCount: result.FileCount,
			NodeCount: len(result.Graph.Nodes),
		})
	}

	fmt.Printf("indexed %d files: %d nodes, %d edges (%d skipped) -> %s\n",
		result.FileCount, len(result.Graph.Nodes), len(result.Graph.Edges), len(result.Skipped), path)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	root, err := targetRoot(args)
	if err != nil {
		return err
	}
	fw, err := loadFrameworkConfig()
	if err != nil {
		return err
	}
	path, err := resolveDBPath(root)
	if err != nil {
		return err
	}
	s, err := openStore(path)
	if err != nil {
		return err
	}
	defer s.Close()

	srv := mcpserver.New(root, s, fw, log)
	return srv.Run(cmd.Context())
}

func runQueryNode(cmd *cobra.Command, args []string) error {
	e, s, err := openQueryStore()
	if err != nil {
		return err
	}
	defer s.Close()
	n, err := e.GetNode(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if n == nil {
		return printJSON(nil)
	}
	return printJSON(query.Expand(*n))
}

func runQuerySearch(cmd *cobra.Command, args []string) error {
	e, s, err := openQueryStore()
	if err != nil {
		return err
	}
	defer s.Close()
	results, err := e.SearchNodes(cmd.Context(), args[0], query.NewOptions())
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runQueryCallers(cmd *cobra.Command, args []string) error {
	e, s, err := openQueryStore()
	if err != nil {
		return err
	}
	defer s.Close()
	results, err := e.GetCallers(cmd.Context(), args[0], query.NewOptions())
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runQueryCallees(cmd *cobra.Command, args []string) error {
	e, s, err := openQueryStore()
	if err != nil {
		return err
	}
	defer s.Close()
	results, err := e.GetCallees(cmd.Context(), args[0], query.NewOptions())
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runQueryTransitiveCallers(cmd *cobra.Command, args []string) error {
	e, s, err := openQueryStore()
	if err != nil {
		return err
	}
	defer s.Close()
	opts := query.NewOptions()
	opts.MaxDepth = queryMaxDepth
	if queryTree {
		tree, err := e.TransitiveCallersTree(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}
		return printJSON(tree)
	}
	results, err := e.TransitiveCallersFlat(cmd.Context(), args[0], opts)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runQueryTransitiveCallees(cmd *cobra.Command, args []string) error {
	e, s, err := openQueryStore()
	if err != nil {
		return err
	}
	defer s.Close()
	opts := query.NewOptions()
	opts.MaxDepth = queryMaxDepth
	if queryTree {
		tree, err := e.TransitiveCalleesTree(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}
		return printJSON(tree)
	}
	results, err := e.TransitiveCalleesFlat(cmd.Context(), args[0], opts)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runQueryChains(cmd *cobra.Command, args []string) error {
	e, s, err := openQueryStore()
	if err != nil {
		return err
	}
	defer s.Close()
	opts := query.NewOptions()
	opts.DepthLimit = queryDepthLimit
	opts.MaxPaths = queryMaxPaths
	chains, err := e.AllCallChains(cmd.Context(), args[0], args[1], opts)
	if err != nil {
		return err
	}
	return printJSON(chains)
}

func runQueryHotspots(cmd *cobra.Command, args []string) error {
	e, s, err := openQueryStore()
	if err != nil {
		return err
	}
	defer s.Close()
	hotspots, err := e.Hotspots(cmd.Context(), queryTop, query.NewOptions())
	if err != nil {
		return err
	}
	return printJSON(hotspots)
}

func runQueryStats(cmd *cobra.Command, args []string) error {
	e, s, err := openQueryStore()
	if err != nil {
		return err
	}
	defer s.Close()
	stats, err := e.GetSemanticStats(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func openQueryStore() (*query.Engine, *store.Store, error) {
	path := dbPath
	if path == "" {
		root, err := targetRoot(nil)
		if err != nil {
			return nil, nil, err
		}
		path, err = registry.DBPathFor(root)
		if err != nil {
			return nil, nil, err
		}
	}
	s, err := store.OpenNative(path)
	if err != nil {
		return nil, nil, err
	}
	return query.NewEngine(s), s, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
