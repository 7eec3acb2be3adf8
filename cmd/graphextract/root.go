package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/graphextract/graphextract/internal/cache"
	"github.com/graphextract/graphextract/internal/config"
	"github.com/graphextract/graphextract/internal/graph"
	"github.com/graphextract/graphextract/internal/logger"
	"github.com/graphextract/graphextract/internal/pipeline"
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
}

func newRootCmd() *cobra.Command {
	var (
		outputDir  string
		configPath string
		cacheDir   string
		noCache    bool
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "graphextract INPUT...",
		Short: "Extract graph structures (nodes, edges, labels) from diagram images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose || os.Getenv("GRAPHEXTRACT_LOG_LEVEL") == "debug" {
				logger.SetVerbose(true)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if noCache {
				cfg.Cache.Enabled = false
			}
			if cacheDir != "" {
				cfg.Cache.Dir = cacheDir
			}

			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}

			var failures int
			for _, input := range args {
				for _, path := range expandInput(input) {
					if err := processFile(cmd.Context(), p, path, outputDir); err != nil {
						failures++
						color.Red("%s: %v", path, err)
					}
				}
			}
			if failures > 0 {
				return fmt.Errorf("%d file(s) failed", failures)
			}
			return nil
		},
	}

	root.Flags().StringVarP(&outputDir, "output", "o", ".", "output directory for result files")
	root.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	root.Flags().StringVar(&cacheDir, "cache-dir", "", "override the cache directory")
	root.Flags().BoolVar(&noCache, "no-cache", false, "disable the content cache")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newVersionCmd(), newCacheCmd(&configPath, &cacheDir), newConfigCmd())
	return root
}

// buildPipeline assembles the pipeline with the cache backend selected in
// the config.
func buildPipeline(cfg config.Config) (*pipeline.Pipeline, error) {
	opts := []pipeline.Option{pipeline.WithConfig(cfg)}
	if cfg.Cache.Enabled {
		store, err := openStore(cfg.Cache)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithCache(cache.New(store)))
	}
	return pipeline.New(opts...), nil
}

func openStore(cfg config.Cache) (cache.BlobStore, error) {
	switch cfg.Backend {
	case "sqlite":
		return cache.NewSQLiteStore(cfg.Dir)
	case "", "fs":
		return cache.NewFSStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want fs or sqlite)", cfg.Backend)
	}
}

// expandInput resolves a file or directory argument to image file paths.
func expandInput(input string) []string {
	info, err := os.Stat(input)
	if err != nil {
		return []string{input} // let processFile report the error
	}
	if !info.IsDir() {
		return []string{input}
	}
	entries, err := os.ReadDir(input)
	if err != nil {
		return []string{input}
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(input, e.Name()))
		}
	}
	return paths
}

func processFile(ctx context.Context, p *pipeline.Pipeline, path, outputDir string) error {
	logger.Info("processing %s", path)
	result, err := p.DetectFile(ctx, path)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	runID := uuid.NewString()[:8]
	outPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s.json", base, runID))

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}

	printSummary(path, outPath, result)
	return nil
}

func printSummary(path, outPath string, r *graph.DetectionResult) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s\n", bold(path))
	fmt.Printf("  quality: %s  nodes: %s  edges: %s\n",
		color.CyanString(r.Quality.Level.String()),
		color.GreenString("%d", len(r.Nodes)),
		color.GreenString("%d", len(r.Edges)))
	if r.Diag.CacheHit {
		fmt.Printf("  %s\n", color.YellowString("served from cache"))
	}
	if r.Diag.LabelsUnavailable {
		fmt.Printf("  %s\n", color.YellowString("labels unavailable (OCR engine failed)"))
	}
	fmt.Printf("  result: %s\n", outPath)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("graphextract %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
		},
	}
}

func newCacheCmd(configPath, cacheDir *string) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the content cache",
	}

	withCache := func(fn func(c *cache.ContentCache) error) error {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		if *cacheDir != "" {
			cfg.Cache.Dir = *cacheDir
		}
		store, err := openStore(cfg.Cache)
		if err != nil {
			return err
		}
		c := cache.New(store)
		defer c.Close()
		return fn(c)
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached detection results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(func(c *cache.ContentCache) error {
				return c.InvalidateAll()
			})
		},
	})
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "invalidate KEY",
		Short: "Remove one cached entry by its hash key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(func(c *cache.ContentCache) error {
				return c.Invalidate(args[0])
			})
		},
	})
	return cacheCmd
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init [PATH]",
		Short: "Write the default configuration to a TOML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "graphextract.toml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	})
	return configCmd
}
