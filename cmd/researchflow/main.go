package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"researchflow/internal/config"
	"researchflow/internal/core"
	"researchflow/internal/executors"
	"researchflow/internal/sink"
	"researchflow/internal/storage"

	_ "researchflow/internal/storage/redis"
	_ "researchflow/internal/storage/sqlite"
)

type runOptions struct {
	configPath string
	executors  string
	sequential bool
	outputDir  string
	mock       bool
}

func main() {
	args := os.Args[1:]

	if len(args) > 0 && args[0] == "list" {
		listExecutors()
		return
	}
	if len(args) > 0 && args[0] == "run" {
		args = args[1:]
	}

	fs := flag.NewFlagSet("run", flag.ExitOnError)
	opts := runOptions{}
	fs.StringVar(&opts.configPath, "config", "config/default.yml", "Path to configuration file")
	fs.StringVar(&opts.executors, "executors", "", "Comma-separated subset of executors to run (forces them enabled)")
	fs.BoolVar(&opts.sequential, "sequential", false, "Run executors sequentially instead of in parallel")
	fs.StringVar(&opts.outputDir, "output-dir", "", "Override the output directory")
	fs.BoolVar(&opts.mock, "mock", false, "Force mock mode for the arXiv executor")
	fs.Parse(args)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		fmt.Printf("\nReceived signal: %v, shutting down...\n", sig)
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listExecutors() {
	names := executors.Names()
	sort.Strings(names)

	fmt.Println("Available executors:")
	for _, name := range names {
		fmt.Printf("  - %s\n", name)
	}
}

func run(ctx context.Context, opts runOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	applyOverrides(cfg, opts)
	setupLogging(cfg)

	resolved, err := config.Resolve(cfg)
	if err != nil {
		return fmt.Errorf("failed to resolve configuration: %w", err)
	}
	if len(resolved) == 0 {
		return fmt.Errorf("no executors enabled")
	}

	execs, err := executors.Build(resolved)
	if err != nil {
		return err
	}
	if len(execs) == 0 {
		return fmt.Errorf("no known executors to run")
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	names := make([]string, len(execs))
	for i, ex := range execs {
		names[i] = ex.Name()
	}
	fmt.Printf("Running executors: %s\n", strings.Join(names, ", "))

	orch := core.NewOrchestrator(core.Policy{
		Parallel: cfg.Execution.Parallel,
		Timeout:  cfg.Execution.TimeoutDuration(),
		Retries:  cfg.Execution.Retries,
	}, execs)

	startedAt := time.Now()
	results := orch.Run(ctx)
	finishedAt := time.Now()

	resultSink := sink.New(cfg.Execution.OutputDir, cfg.Execution.SaveResults, store)
	report := resultSink.Merge(ctx, results, startedAt, finishedAt)

	if _, err := resultSink.Persist(ctx, report); err != nil {
		slog.Error("Failed to persist run report", "error", err)
	}

	for _, result := range report.Results {
		mark := "✓"
		if !result.Succeeded() {
			mark = "✗"
		}
		fmt.Printf("  %s %s: %s, %d items, %.2fs\n",
			mark, result.Executor, result.Status, result.OutputCount(), result.ElapsedSeconds)
	}
	fmt.Printf("Completed: %d/%d executors successful, %d total items\n",
		report.Successful, report.TotalExecutors, report.TotalItems)

	if report.Successful == 0 {
		return fmt.Errorf("no executor produced a successful result")
	}
	return nil
}

// applyOverrides folds the CLI flags into the loaded configuration before
// resolution.
func applyOverrides(cfg *config.Config, opts runOptions) {
	if opts.sequential {
		cfg.Execution.Parallel = false
	}
	if opts.outputDir != "" {
		cfg.Execution.OutputDir = opts.outputDir
	}

	if opts.executors != "" {
		selected := map[string]bool{}
		for _, name := range strings.Split(opts.executors, ",") {
			selected[strings.TrimSpace(name)] = true
		}

		filtered := cfg.Executors[:0]
		for _, ex := range cfg.Executors {
			if selected[ex.Name] {
				ex.Enabled = true
				filtered = append(filtered, ex)
			}
		}
		cfg.Executors = filtered
	}

	if opts.mock {
		for i, ex := range cfg.Executors {
			if ex.Name == "arxiv" {
				if cfg.Executors[i].Settings == nil {
					cfg.Executors[i].Settings = map[string]interface{}{}
				}
				cfg.Executors[i].Settings["use_mock"] = true
			}
		}
	}
}

func setupLogging(cfg *config.Config) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	})
	slog.SetDefault(slog.New(handler))
}
