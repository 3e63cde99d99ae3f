package sink

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"researchflow/internal/storage"
	"researchflow/internal/types"
)

// Sink merges the per-executor FetchResults of a run into a RunReport and
// optionally persists it. The store, when present, supplies cross-run item
// dedupe and keeps run history; store failures degrade to warnings.
type Sink struct {
	outputDir string
	save      bool
	store     storage.Store
}

func New(outputDir string, save bool, store storage.Store) *Sink {
	return &Sink{
		outputDir: outputDir,
		save:      save,
		store:     store,
	}
}

// Merge computes the aggregate counts over all FetchResults. Items already
// recorded in the store count as duplicates; new ones are remembered.
func (s *Sink) Merge(ctx context.Context, results []*types.FetchResult, startedAt, finishedAt time.Time) *types.RunReport {
	report := &types.RunReport{
		StartedAt:      startedAt,
		FinishedAt:     finishedAt,
		ElapsedSeconds: finishedAt.Sub(startedAt).Seconds(),
		TotalExecutors: len(results),
		Results:        results,
	}

	for _, result := range results {
		if result.Succeeded() {
			report.Successful++
		} else {
			report.Failed++
		}
		report.TotalItems += result.OutputCount()

		if s.store == nil {
			continue
		}
		for _, item := range result.Items {
			seen, err := s.store.SeenItem(ctx, item.ID)
			if err != nil {
				slog.Warn("Failed to check item history", "item", item.ID, "error", err)
				continue
			}
			if seen {
				report.Duplicates++
				continue
			}
			if err := s.store.RememberItem(ctx, item); err != nil {
				slog.Warn("Failed to remember item", "item", item.ID, "error", err)
			}
		}
	}

	return report
}

// Persist records the run in the store and, when saving is enabled, writes
// the report as JSON under the output directory. It returns the written
// path; a write failure comes back as a PersistenceError and leaves the
// in-memory report untouched.
func (s *Sink) Persist(ctx context.Context, report *types.RunReport) (string, error) {
	if s.store != nil {
		if err := s.store.RecordRun(ctx, report); err != nil {
			slog.Warn("Failed to record run history", "error", err)
		}
	}

	if !s.save {
		return "", nil
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", &types.PersistenceError{Path: s.outputDir, Err: err}
	}

	path := filepath.Join(s.outputDir, "run_"+report.StartedAt.Format("20060102_150405")+".json")

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", &types.PersistenceError{Path: path, Err: err}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &types.PersistenceError{Path: path, Err: err}
	}

	slog.Info("Run report saved", "path", path)
	return path, nil
}
