// Package pipeline sequences five components into one driver: source
// index -> classifier (folded into the index's build step) -> resolver ->
// dependency planner -> emitter -> filesystem. A single driver function
// composes already-tested packages, logging one line per stage.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"schemaforge/internal/config"
	"schemaforge/internal/depgraph"
	"schemaforge/internal/emit"
	"schemaforge/internal/fswrite"
	"schemaforge/internal/plan"
	"schemaforge/internal/resolve"
	"schemaforge/internal/rlog"
	"schemaforge/internal/sourceindex"
)

// Result is everything a run produced, returned so callers (cmd/schemaforge,
// tests) can inspect it without re-deriving state from logs.
type Result struct {
	RunID       string
	Schedule    *plan.Schedule
	Warnings    Warnings
	WrittenPath []string // paths actually flushed; empty under dry-run
}

// Warnings buckets every non-fatal diagnostic a run produced, grouped by
// the component that raised it. Parse/resolution/cycle warnings never
// abort a run.
type Warnings struct {
	Index []sourceindex.Warning
	Plan  []plan.Warning
	Graph []depgraph.UnresolvedRelation
}

// Run drives the full pipeline once. Cancellation is checked between
// artifact plans; a plan already being emitted always finishes
// (its three files are staged then flushed together before ctx is checked
// again), since a plan is atomic with respect to its files.
func Run(ctx context.Context, cfg config.Config) (*Result, error) {
	runID := uuid.NewString()
	logger := rlog.From(ctx).With("run_id", runID)
	ctx = rlog.With(ctx, logger)

	logger.Info("indexing source files", "model-dir", cfg.ModelSourceDir, "mixin-dir", cfg.MixinSourceDir)
	idx, indexWarnings, err := sourceindex.Build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build source index: %w", err)
	}
	for _, w := range indexWarnings {
		logger.Warn("source index warning", "kind", w.Kind, "path", w.Path, "message", w.Message)
	}

	records := idx.All()
	logger.Info("classified files", "count", len(records))

	g := depgraph.BuildFromIndex(records)
	r := resolve.New(idx, cfg)
	g.LinkRelations(r)
	for _, u := range g.Unresolved {
		if cfg.Debug {
			logger.Debug("unresolved reference", "from", u.From.ImportPath, "specifier", u.Specifier, "kind", u.Kind, "reason", u.Reason)
		}
	}

	sched, planWarnings := plan.Plan(g, cfg)
	for _, w := range planWarnings {
		logger.Warn("planner warning", "kind", w.Kind, "message", w.Message)
	}
	if cfg.Debug {
		for _, p := range sched.Plans {
			logger.Debug("scheduled", "handle", p.Handle.ImportPath, "kind", p.Handle.Kind, "materialize", p.Materialize)
		}
	}

	emitter := emit.New(cfg, r, g.KebabIndex())
	writer := fswrite.New(cfg.DryRun)
	var written []string

	for _, p := range sched.Plans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cfg.Verbose {
			logger.Info("emitting", "handle", p.Handle.ImportPath, "materialize", p.Materialize)
		}
		for _, artifact := range emitter.Emit(p) {
			writer.Stage(artifact.Path, artifact.Data)
			written = append(written, artifact.Path)
		}
		if err := writer.Flush(ctx); err != nil {
			return nil, fmt.Errorf("flush %s: %w", p.Handle.ImportPath, err)
		}
	}

	if cfg.DryRun {
		written = nil
	}

	return &Result{
		RunID:       runID,
		Schedule:    sched,
		WrittenPath: written,
		Warnings: Warnings{
			Index: indexWarnings,
			Plan:  planWarnings,
			Graph: g.Unresolved,
		},
	}, nil
}

// Scan runs indexing, classification, and planning only — the "scan"
// subcommand's debug-aid stage, never touching the filesystem. It lets
// operators eyeball the schedule before generation. The returned Index is
// for `scan --dump-index`; Schedule/warnings are what the scan report
// prints by default.
func Scan(ctx context.Context, cfg config.Config) (*sourceindex.Index, *plan.Schedule, []sourceindex.Warning, []plan.Warning, error) {
	idx, indexWarnings, err := sourceindex.Build(ctx, cfg)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("build source index: %w", err)
	}

	g := depgraph.BuildFromIndex(idx.All())
	r := resolve.New(idx, cfg)
	g.LinkRelations(r)

	sched, planWarnings := plan.Plan(g, cfg)
	return idx, sched, indexWarnings, planWarnings, nil
}
