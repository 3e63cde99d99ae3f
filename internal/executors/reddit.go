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
)

const defaultRedditBaseURL = "https://www.reddit.com"

func init() {
	Register("reddit", NewRedditExecutor)
}

// RedditExecutor retrieves top posts from the public JSON listing of each
// configured subreddit. No authentication is required.
type RedditExecutor struct {
	baseURL    string
	subreddits []string
	postLimit  int
	timeFilter string
	client     *retryablehttp.Client
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	SelfText    string  `json:"selftext"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

func NewRedditExecutor(settings map[string]interface{}) (Executor, error) {
	timeFilter := config.GetString(settings, "time_filter", "day")
	switch timeFilter {
	case "hour", "day", "week", "month", "year", "all":
	default:
		return nil, fmt.Errorf("invalid time_filter: %s", timeFilter)
	}

	return &RedditExecutor{
		baseURL:    config.GetString(settings, "base_url", defaultRedditBaseURL),
		subreddits: config.GetStringSlice(settings, "subreddits"),
		postLimit:  config.GetInt(settings, "post_limit", 20),
		timeFilter: timeFilter,
		client:     newHTTPClient(config.GetDuration(settings, "http_timeout", 30*time.Second)),
	}, nil
}

func (r *RedditExecutor) Name() string {
	return "reddit"
}

func (r *RedditExecutor) Fetch(ctx context.Context) ([]*types.Item, error) {
	if len(r.subreddits) == 0 {
		return nil, fmt.Errorf("no subreddits configured")
	}

	slog.Debug("reddit executor fetching", "subreddits", r.subreddits, "post_limit", r.postLimit, "time_filter", r.timeFilter)

	var items []*types.Item
	var fetchErrs []error

	for _, subreddit := range r.subreddits {
		select {
		case <-ctx.Done():
			return items, ctx.Err()
		default:
		}

		posts, err := r.fetchSubreddit(ctx, subreddit)
		items = append(items, posts...)
		if err != nil {
			slog.Warn("reddit fetch failed", "subreddit", subreddit, "error", err)
			fetchErrs = append(fetchErrs, fmt.Errorf("r/%s: %w", subreddit, err))
		}
	}

	return items, errors.Join(fetchErrs...)
}

func (r *RedditExecutor) fetchSubreddit(ctx context.Context, subreddit string) ([]*types.Item, error) {
	params := url.Values{
		"t":     {r.timeFilter},
		"limit": {strconv.Itoa(r.postLimit)},
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/r/%s/top.json?%s", r.baseURL, subreddit, params.Encode()), nil)
	if err != nil {
		return nil, err
	}
	// Reddit throttles default Go user agents aggressively.
	req.Header.Set("User-Agent", "researchflow/0.1 (research data collector)")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("listing request failed: %s: %s", resp.Status, body)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}

	items := make([]*types.Item, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		items = append(items, r.convertPost(child.Data))
	}

	return items, nil
}

func (r *RedditExecutor) convertPost(post redditPost) *types.Item {
	return &types.Item{
		ID:        "reddit_" + post.ID,
		Source:    "reddit",
		Timestamp: time.Unix(int64(post.CreatedUTC), 0),
		Data: map[string]interface{}{
			"title":     post.Title,
			"author":    post.Author,
			"subreddit": post.Subreddit,
			"permalink": defaultRedditBaseURL + post.Permalink,
			"url":       post.URL,
			"text":      stripHTML(post.SelfText),
			"score":     post.Score,
			"comments":  post.NumComments,
		},
	}
}
