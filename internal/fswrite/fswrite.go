// Package fswrite is the buffer-then-flush writer internal/emit stages its
// artifacts through. A plan's three files must be written atomically with
// respect to each other — no partial artifact sets on cancellation — so
// nothing is touched on disk until Flush is called, and under dry-run Flush
// discards the queue without writing anything.
package fswrite

import (
	"context"
	"os"
	"path/filepath"
)

// staged is one buffered write awaiting a flush.
type staged struct {
	path string
	data []byte
}

// Writer accumulates staged writes for a single Artifact Plan and flushes
// them together, or discards them entirely under dry-run.
type Writer struct {
	dryRun bool
	queue  []staged
}

// New creates a Writer. Under dryRun, Flush performs neither writes nor
// directory creation.
func New(dryRun bool) *Writer {
	return &Writer{dryRun: dryRun}
}

// Stage buffers data for path in memory; nothing touches the filesystem
// until Flush.
func (w *Writer) Stage(path string, data []byte) {
	w.queue = append(w.queue, staged{path: path, data: data})
}

// Flush writes every staged file, creating parent directories lazily (an
// empty directory is never produced — MkdirAll only runs immediately
// before the file it is needed for). Under dry-run, Flush
// clears the queue without touching disk. The queue is always cleared
// before Flush returns, so a Writer is reusable across plans.
//
// Cancellation is checked once, before any write, never mid-loop: a plan's
// files must land on disk as a set, so once Flush starts writing it runs
// the whole queue to completion rather than leaving a partial plan behind.
// The caller is expected to check ctx.Err() itself between plans.
func (w *Writer) Flush(ctx context.Context) error {
	defer func() { w.queue = nil }()

	if w.dryRun {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, s := range w.queue {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(s.path, s.data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Pending reports how many writes are currently staged, useful for tests
// asserting dry-run never reaches Flush with an empty queue by accident.
func (w *Writer) Pending() int {
	return len(w.queue)
}
