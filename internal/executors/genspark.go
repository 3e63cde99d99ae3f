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
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"researchflow/internal/config"
	"researchflow/internal/types"
	"researchflow/internal/utils"
)

const defaultGensparkAPIURL = "https://api.genspark.ai"

func init() {
	Register("genspark", NewGensparkExecutor)
}

// GensparkExecutor queries the Genspark search API for each configured
// keyword. With extract_content it additionally pulls the readable text of
// every result URL.
type GensparkExecutor struct {
	apiKey         string
	baseURL        string
	keywords       []string
	maxResults     int
	extractContent bool
	client         *retryablehttp.Client
}

type gensparkResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

func NewGensparkExecutor(settings map[string]interface{}) (Executor, error) {
	return &GensparkExecutor{
		apiKey:         config.GetString(settings, "api_key", ""),
		baseURL:        config.GetString(settings, "base_url", defaultGensparkAPIURL),
		keywords:       config.GetStringSlice(settings, "keywords"),
		maxResults:     config.GetInt(settings, "max_results", 10),
		extractContent: config.GetBool(settings, "extract_content", false),
		client:         newHTTPClient(config.GetDuration(settings, "http_timeout", 30*time.Second)),
	}, nil
}

func (g *GensparkExecutor) Name() string {
	return "genspark"
}

func (g *GensparkExecutor) Fetch(ctx context.Context) ([]*types.Item, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("genspark api key is required")
	}
	if len(g.keywords) == 0 {
		return nil, fmt.Errorf("no keywords configured")
	}

	slog.Debug("genspark executor searching", "keywords", g.keywords, "max_results", g.maxResults)

	var items []*types.Item
	var fetchErrs []error

	for _, keyword := range g.keywords {
		select {
		case <-ctx.Done():
			return items, ctx.Err()
		default:
		}

		results, err := g.search(ctx, keyword)
		items = append(items, results...)
		if err != nil {
			slog.Warn("genspark search failed", "keyword", keyword, "error", err)
			fetchErrs = append(fetchErrs, fmt.Errorf("keyword %q: %w", keyword, err))
		}
	}

	return items, errors.Join(fetchErrs...)
}

func (g *GensparkExecutor) search(ctx context.Context, keyword string) ([]*types.Item, error) {
	params := url.Values{
		"q":     {keyword},
		"limit": {strconv.Itoa(g.maxResults)},
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search request failed: %s: %s", resp.Status, body)
	}

	var parsed gensparkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	var extractErr error
	items := make([]*types.Item, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		data := map[string]interface{}{
			"keyword": keyword,
			"title":   result.Title,
			"url":     result.URL,
			"snippet": stripHTML(result.Snippet),
		}

		if g.extractContent {
			content, err := utils.ExtractArticleText(ctx, result.URL)
			if err != nil {
				slog.Warn("genspark content extraction failed", "url", result.URL, "error", err)
				extractErr = fmt.Errorf("extraction failed for %s: %w", result.URL, err)
			} else {
				data["content"] = content
			}
		}

		items = append(items, &types.Item{
			ID:        "genspark_" + sanitizeID(result.URL),
			Source:    "genspark",
			Timestamp: time.Now(),
			Data:      data,
		})
	}

	return items, extractErr
}
