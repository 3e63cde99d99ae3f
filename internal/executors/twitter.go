package executors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"researchflow/internal/config"
	"researchflow/internal/types"
)

const defaultTwitterAPIURL = "https://api.twitterapi.io"

func init() {
	Register("twitter", NewTwitterExecutor)
}

// TwitterExecutor pulls tweets through the twitterapi.io advanced search
// endpoint: one query per configured account and keyword, following the
// cursor until the page budget runs out.
type TwitterExecutor struct {
	apiKey    string
	baseURL   string
	accounts  []string
	keywords  []string
	maxTweets int
	startDate string
	endDate   string
	client    *retryablehttp.Client
}

type twitterSearchResponse struct {
	Tweets      []map[string]interface{} `json:"tweets"`
	HasNextPage bool                     `json:"has_next_page"`
	NextCursor  string                   `json:"next_cursor"`
}

func NewTwitterExecutor(settings map[string]interface{}) (Executor, error) {
	return &TwitterExecutor{
		apiKey:    config.GetString(settings, "api_key", ""),
		baseURL:   config.GetString(settings, "base_url", defaultTwitterAPIURL),
		accounts:  config.GetStringSlice(settings, "accounts"),
		keywords:  config.GetStringSlice(settings, "keywords"),
		maxTweets: config.GetInt(settings, "max_tweets", 50),
		startDate: config.GetString(settings, "start_date", ""),
		endDate:   config.GetString(settings, "end_date", ""),
		client:    newHTTPClient(config.GetDuration(settings, "http_timeout", 30*time.Second)),
	}, nil
}

func (t *TwitterExecutor) Name() string {
	return "twitter"
}

func (t *TwitterExecutor) Fetch(ctx context.Context) ([]*types.Item, error) {
	if t.apiKey == "" {
		return nil, fmt.Errorf("twitter api key is required")
	}

	queries := t.buildQueries()
	if len(queries) == 0 {
		return nil, fmt.Errorf("no accounts or keywords configured")
	}

	slog.Debug("twitter executor searching", "queries", len(queries), "max_tweets", t.maxTweets)

	var items []*types.Item
	var searchErrs []error

	for _, query := range queries {
		if len(items) >= t.maxTweets {
			break
		}

		select {
		case <-ctx.Done():
			return items, ctx.Err()
		default:
		}

		found, err := t.searchAll(ctx, query, t.maxTweets-len(items))
		items = append(items, found...)
		if err != nil {
			slog.Warn("twitter search failed", "query", query, "error", err)
			searchErrs = append(searchErrs, fmt.Errorf("query %q: %w", query, err))
		}
	}

	return items, errors.Join(searchErrs...)
}

// buildQueries produces one advanced-search query per account and keyword.
// Date bounds use the API's since/until operators with UTC suffixes.
func (t *TwitterExecutor) buildQueries() []string {
	bounds := ""
	if t.startDate != "" && t.endDate != "" {
		bounds = fmt.Sprintf(" since:%s_UTC until:%s_UTC", t.startDate, t.endDate)
	}

	queries := make([]string, 0, len(t.accounts)+len(t.keywords))
	for _, account := range t.accounts {
		queries = append(queries, "from:"+account+bounds)
	}
	for _, keyword := range t.keywords {
		queries = append(queries, keyword+bounds)
	}
	return queries
}

// searchAll pages through one query until the API reports no further pages
// or the remaining tweet budget is used up.
func (t *TwitterExecutor) searchAll(ctx context.Context, query string, budget int) ([]*types.Item, error) {
	var items []*types.Item
	cursor := ""

	for len(items) < budget {
		page, err := t.searchPage(ctx, query, cursor)
		if err != nil {
			return items, err
		}

		for _, tweet := range page.Tweets {
			if len(items) >= budget {
				break
			}
			items = append(items, t.convertTweet(query, tweet))
		}

		if !page.HasNextPage || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return items, nil
}

func (t *TwitterExecutor) searchPage(ctx context.Context, query, cursor string) (*twitterSearchResponse, error) {
	params := url.Values{
		"query":  {query},
		"type":   {"Latest"},
		"cursor": {cursor},
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet,
		t.baseURL+"/twitter/tweet/advanced_search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("advanced search failed: %s: %s", resp.Status, body)
	}

	var page twitterSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return &page, nil
}

func (t *TwitterExecutor) convertTweet(query string, tweet map[string]interface{}) *types.Item {
	id := fmt.Sprint(tweet["id"])
	if id == "" || id == "<nil>" {
		id = sanitizeID(fmt.Sprint(tweet["url"]))
	}

	timestamp := time.Now()
	if created, ok := tweet["createdAt"].(string); ok {
		if parsed, err := time.Parse(time.RubyDate, created); err == nil {
			timestamp = parsed
		}
	}

	return &types.Item{
		ID:        "twitter_" + id,
		Source:    "twitter",
		Timestamp: timestamp,
		Data: map[string]interface{}{
			"query": query,
			"tweet": tweet,
		},
	}
}
