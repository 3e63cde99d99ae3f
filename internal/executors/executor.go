package executors

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"researchflow/internal/config"
	"researchflow/internal/types"
)

// Executor is one pluggable data source. Fetch performs the source-specific
// retrieval for a single run. It returns the retrieved items together with
// any error it hit along the way; returning both means the fetch was
// partially successful. Fetch must honor ctx cancellation and must not
// panic past its boundary.
type Executor interface {
	Name() string
	Fetch(ctx context.Context) ([]*types.Item, error)
}

type Factory func(settings map[string]interface{}) (Executor, error)

var factories = map[string]Factory{}

func Register(name string, fn Factory) {
	factories[name] = fn
}

// Build turns resolved executor configs into executor instances, keeping
// the given order. Unknown executor names are skipped with a warning so
// configs can carry entries for sources this build does not know about.
func Build(configs []config.ExecutorConfig) ([]Executor, error) {
	built := make([]Executor, 0, len(configs))

	for _, cfg := range configs {
		fn, exists := factories[cfg.Name]
		if !exists {
			slog.Warn("Unknown executor, skipping", "executor", cfg.Name)
			continue
		}

		ex, err := fn(cfg.Settings)
		if err != nil {
			return nil, fmt.Errorf("failed to build executor %s: %w", cfg.Name, err)
		}
		built = append(built, ex)
	}

	return built, nil
}

// Names lists the registered executor names, for the CLI list command.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

// newHTTPClient builds the shared HTTP client for the JSON-API executors.
// Transport-level retries stay small; the orchestrator owns the configured
// retry budget.
func newHTTPClient(timeout time.Duration) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 1
	client.RetryWaitMin = 500 * time.Millisecond
	client.HTTPClient.Timeout = timeout
	client.Logger = nil
	return client
}
