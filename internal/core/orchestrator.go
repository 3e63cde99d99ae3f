package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"researchflow/internal/executors"
	"researchflow/internal/types"
)

// Policy is the execution policy for one run.
type Policy struct {
	Parallel bool
	Timeout  time.Duration
	Retries  int
}

// Orchestrator drives the enabled executors for a single run: each fetch
// runs under the configured timeout with a bounded retry budget, and every
// executor yields exactly one FetchResult whatever happens. Partial failure
// never aborts the run.
type Orchestrator struct {
	policy    Policy
	executors []executors.Executor
}

func NewOrchestrator(policy Policy, execs []executors.Executor) *Orchestrator {
	if policy.Timeout == 0 {
		policy.Timeout = 60 * time.Second
	}

	return &Orchestrator{
		policy:    policy,
		executors: execs,
	}
}

// Run executes all executors and returns one FetchResult per executor, in
// declaration order. Parallel mode runs one goroutine per executor and
// joins; a timed-out executor never cancels its siblings.
func (o *Orchestrator) Run(ctx context.Context) []*types.FetchResult {
	slog.Info("Starting executors", "count", len(o.executors), "parallel", o.policy.Parallel)

	results := make([]*types.FetchResult, len(o.executors))

	if o.policy.Parallel {
		var wg sync.WaitGroup
		for i, ex := range o.executors {
			wg.Add(1)
			go func(idx int, ex executors.Executor) {
				defer wg.Done()
				results[idx] = o.runOne(ctx, ex)
			}(i, ex)
		}
		wg.Wait()
	} else {
		for i, ex := range o.executors {
			results[i] = o.runOne(ctx, ex)
		}
	}

	successful := 0
	totalItems := 0
	for _, result := range results {
		if result.Succeeded() {
			successful++
		}
		totalItems += result.OutputCount()
	}
	slog.Info("Run completed", "successful", successful, "total", len(results), "items", totalItems)

	return results
}

// runOne performs the attempt loop for one executor. Full failures are
// retried up to the policy budget with exponential backoff; a partial
// fetch is terminal since re-running it would duplicate the items already
// retrieved.
func (o *Orchestrator) runOne(ctx context.Context, ex executors.Executor) *types.FetchResult {
	start := time.Now()
	maxAttempts := o.policy.Retries + 1

	var items []*types.Item
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		items, lastErr = o.attempt(ctx, ex)

		if lastErr == nil || len(items) > 0 {
			break
		}
		if attempt == maxAttempts || ctx.Err() != nil {
			break
		}

		wait := time.Duration(1<<(attempt-1)) * time.Second
		slog.Warn("Fetch attempt failed, retrying",
			"executor", ex.Name(), "attempt", attempt, "max_attempts", maxAttempts,
			"wait", wait, "error", lastErr)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			lastErr = types.NewExecutorError(ex.Name(), ctx.Err())
			break
		}
	}

	end := time.Now()
	result := &types.FetchResult{
		Executor:       ex.Name(),
		Items:          items,
		StartTime:      start,
		EndTime:        end,
		ElapsedSeconds: end.Sub(start).Seconds(),
		Attempts:       attempts,
		Metadata: map[string]interface{}{
			"output_count": len(items),
		},
	}

	switch {
	case lastErr == nil:
		result.Status = types.StatusSuccess
		slog.Info("Executor succeeded", "executor", ex.Name(), "items", len(items), "elapsed", end.Sub(start), "attempts", attempts)
	case len(items) > 0:
		result.Status = types.StatusPartial
		result.Error = lastErr.Error()
		slog.Warn("Executor partially succeeded", "executor", ex.Name(), "items", len(items), "error", lastErr)
	default:
		result.Status = types.StatusFailed
		result.Error = lastErr.Error()
		slog.Error("Executor failed", "executor", ex.Name(), "attempts", attempts, "error", lastErr)
	}

	return result
}

// attempt runs a single fetch under the per-attempt timeout. A deadline
// hit on the attempt context is reported as a timeout failure; the panic
// guard upholds the contract that no executor fault terminates the run.
func (o *Orchestrator) attempt(ctx context.Context, ex executors.Executor) (items []*types.Item, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.policy.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = types.NewExecutorError(ex.Name(), fmt.Errorf("panic during fetch: %v", r))
		}
	}()

	items, err = ex.Fetch(attemptCtx)
	if err == nil {
		return items, nil
	}

	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return items, types.NewTimeoutError(ex.Name(), err)
	}
	return items, types.NewExecutorError(ex.Name(), err)
}
