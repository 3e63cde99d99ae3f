package executors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"researchflow/internal/config"
	"researchflow/internal/types"
)

func init() {
	Register("chatgpt", NewChatGPTExecutor)
}

// ChatGPTExecutor runs research queries through a chat-completion model.
// Each configured query yields one item holding the model's answer.
type ChatGPTExecutor struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	queries   []string
}

func NewChatGPTExecutor(settings map[string]interface{}) (Executor, error) {
	return &ChatGPTExecutor{
		apiKey:    config.GetString(settings, "api_key", ""),
		baseURL:   config.GetString(settings, "base_url", ""),
		model:     config.GetString(settings, "model", "gpt-4o"),
		maxTokens: config.GetInt(settings, "max_tokens", 2000),
		queries:   config.GetStringSlice(settings, "queries"),
	}, nil
}

func (c *ChatGPTExecutor) Name() string {
	return "chatgpt"
}

func (c *ChatGPTExecutor) Fetch(ctx context.Context) ([]*types.Item, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if len(c.queries) == 0 {
		return nil, fmt.Errorf("no queries configured")
	}

	opts := []openai.Option{
		openai.WithToken(c.apiKey),
		openai.WithModel(c.model),
	}
	if c.baseURL != "" {
		opts = append(opts, openai.WithBaseURL(c.baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	slog.Debug("chatgpt executor running queries", "count", len(c.queries), "model", c.model)

	items := make([]*types.Item, 0, len(c.queries))
	var queryErrs []error

	for _, query := range c.queries {
		select {
		case <-ctx.Done():
			return items, ctx.Err()
		default:
		}

		answer, err := llms.GenerateFromSinglePrompt(ctx, llm, c.prompt(query), llms.WithMaxTokens(c.maxTokens))
		if err != nil {
			slog.Warn("chatgpt query failed", "query", query, "error", err)
			queryErrs = append(queryErrs, fmt.Errorf("query %q: %w", query, err))
			continue
		}

		items = append(items, &types.Item{
			ID:        "chatgpt_" + sanitizeID(query),
			Source:    "chatgpt",
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"query":  query,
				"answer": answer,
				"model":  c.model,
			},
		})
	}

	return items, errors.Join(queryErrs...)
}

func (c *ChatGPTExecutor) prompt(query string) string {
	return fmt.Sprintf("You are a research assistant. Summarize the latest developments on the "+
		"following topic in a few dense paragraphs, naming the key works and findings.\n\nTopic: %s", query)
}
