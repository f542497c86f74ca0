package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"schemaforge/internal/config"
	"schemaforge/internal/pipeline"
	"schemaforge/internal/rlog"
)

var (
	rootCmd = &cobra.Command{
		Use:   "schemaforge",
		Short: "Migrates legacy Model/Mixin definitions to resource/trait schemas",
	}
	configPath                string
	dryRun, verbose, debugFlag bool
	modelsOnly, mixinsOnly     bool
	dumpIndex                  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "schemaforge.yaml", "Path to the migration config file")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Suppress all filesystem writes")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log per-file progress")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log the resolved schedule and every resolver decision")
	rootCmd.PersistentFlags().BoolVar(&modelsOnly, "models-only", false, "Suppress mixin emission")
	rootCmd.PersistentFlags().BoolVar(&mixinsOnly, "mixins-only", false, "Suppress model emission")
	scanCmd.Flags().BoolVar(&dumpIndex, "dump-index", false, "Print the source index as JSON instead of the schedule")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(generateCmd)
}

func loadConfig() (config.Config, error) {
	raw, unknownKeys, err := config.Load(configPath)
	if err != nil {
		// A missing config file is not itself a configuration error —
		// the engine's defaults (./app/models, ./app/mixins, ...) are a
		// valid config of their own.
		if errors.Is(err, os.ErrNotExist) {
			raw = config.RawConfig{}
		} else {
			return config.Config{}, err
		}
	}
	for _, key := range unknownKeys {
		fmt.Fprintf(os.Stderr, "warning: unrecognized config key %q\n", key)
	}

	raw.DryRun = raw.DryRun || dryRun
	raw.Verbose = raw.Verbose || verbose
	raw.Debug = raw.Debug || debugFlag
	raw.ModelsOnly = raw.ModelsOnly || modelsOnly
	raw.MixinsOnly = raw.MixinsOnly || mixinsOnly

	return config.Resolve(raw)
}

func newContext(cfg config.Config) context.Context {
	level := slog.LevelWarn
	switch {
	case cfg.Debug:
		level = slog.LevelDebug
	case cfg.Verbose:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return rlog.With(context.Background(), logger)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Index, classify, and plan without writing any artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := newContext(cfg)

		idx, sched, indexWarnings, planWarnings, err := pipeline.Scan(ctx, cfg)
		if err != nil {
			return err
		}

		if dumpIndex {
			data, err := idx.WriteSnapshot()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("🔎 indexed with %d warnings, %d planner warnings\n", len(indexWarnings), len(planWarnings))
		for _, p := range sched.Plans {
			fmt.Printf("  %-10s %-10s %s\n", p.Materialize, p.Handle.Kind, p.Handle.ImportPath)
		}
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full migration: index, classify, plan, and emit artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := newContext(cfg)

		result, err := pipeline.Run(ctx, cfg)
		if err != nil {
			return err
		}

		if cfg.DryRun {
			fmt.Printf("🧪 dry run complete (%s): %d plans, no files written\n", result.RunID, len(result.Schedule.Plans))
			return nil
		}
		fmt.Printf("✅ migration complete (%s): %d files written across %d plans\n", result.RunID, len(result.WrittenPath), len(result.Schedule.Plans))
		return nil
	},
}
