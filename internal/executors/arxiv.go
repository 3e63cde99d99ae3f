package executors

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"researchflow/internal/config"
	"researchflow/internal/types"
)

const defaultArxivAPIURL = "http://export.arxiv.org/api/query"

func init() {
	Register("arxiv", NewArxivExecutor)
}

// ArxivExecutor retrieves recent papers from the arXiv Atom API for a set
// of categories. With use_mock it returns a fixed synthetic paper set and
// performs no network access.
type ArxivExecutor struct {
	apiURL     string
	categories []string
	maxPapers  int
	daysBack   int
	useMock    bool
	parser     *gofeed.Parser
}

func NewArxivExecutor(settings map[string]interface{}) (Executor, error) {
	categories := config.GetStringSlice(settings, "categories")
	if len(categories) == 0 {
		categories = []string{"cs.AI"}
	}

	return &ArxivExecutor{
		apiURL:     config.GetString(settings, "base_url", defaultArxivAPIURL),
		categories: categories,
		maxPapers:  config.GetInt(settings, "max_papers", 10),
		daysBack:   config.GetInt(settings, "days_back", 7),
		useMock:    config.GetBool(settings, "use_mock", false),
		parser:     gofeed.NewParser(),
	}, nil
}

func (a *ArxivExecutor) Name() string {
	return "arxiv"
}

func (a *ArxivExecutor) Fetch(ctx context.Context) ([]*types.Item, error) {
	if a.useMock {
		slog.Info("arXiv executor running in mock mode", "categories", a.categories, "max_papers", a.maxPapers)
		return a.mockItems(), nil
	}

	slog.Debug("arXiv executor fetching feed", "categories", a.categories, "max_papers", a.maxPapers)

	feed, err := a.parser.ParseURLWithContext(a.queryURL(), ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query arXiv API: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -a.daysBack)

	items := make([]*types.Item, 0, len(feed.Items))
	for _, feedItem := range feed.Items {
		if len(items) >= a.maxPapers {
			break
		}

		item := a.convertEntry(feedItem)
		if a.daysBack > 0 && item.Timestamp.Before(cutoff) {
			continue
		}
		items = append(items, item)
	}

	slog.Debug("arXiv executor retrieved papers", "count", len(items))
	return items, nil
}

func (a *ArxivExecutor) queryURL() string {
	terms := make([]string, 0, len(a.categories))
	for _, cat := range a.categories {
		terms = append(terms, "cat:"+cat)
	}

	params := url.Values{
		"search_query": {strings.Join(terms, " OR ")},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(a.maxPapers)},
		"sortBy":       {"submittedDate"},
		"sortOrder":    {"descending"},
	}

	return a.apiURL + "?" + params.Encode()
}

func (a *ArxivExecutor) convertEntry(entry *gofeed.Item) *types.Item {
	timestamp := time.Now()
	if entry.PublishedParsed != nil {
		timestamp = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		timestamp = *entry.UpdatedParsed
	}

	arxivID := entry.GUID
	if arxivID == "" {
		arxivID = entry.Link
	}
	// The Atom entry ID is the abs URL, e.g. http://arxiv.org/abs/2401.01234v1.
	if idx := strings.LastIndex(arxivID, "/abs/"); idx >= 0 {
		arxivID = arxivID[idx+len("/abs/"):]
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, author := range entry.Authors {
		if author != nil && author.Name != "" {
			authors = append(authors, author.Name)
		}
	}

	category := ""
	if len(entry.Categories) > 0 {
		category = entry.Categories[0]
	}

	return &types.Item{
		ID:        "arxiv_" + sanitizeID(arxivID),
		Source:    "arxiv",
		Timestamp: timestamp,
		Data: map[string]interface{}{
			"arxiv_id":   arxivID,
			"title":      strings.TrimSpace(entry.Title),
			"authors":    authors,
			"abstract":   stripHTML(entry.Description),
			"url":        entry.Link,
			"pdf_url":    strings.Replace(entry.Link, "/abs/", "/pdf/", 1),
			"category":   category,
			"categories": entry.Categories,
			"published":  timestamp.Format(time.RFC3339),
		},
	}
}

// mockItems is the deterministic offline paper set. IDs and titles are
// stable across runs so tests can assert on them.
func (a *ArxivExecutor) mockItems() []*types.Item {
	count := a.maxPapers
	if count > 5 {
		count = 5
	}

	items := make([]*types.Item, 0, count)
	for i := 0; i < count; i++ {
		category := a.categories[i%len(a.categories)]
		arxivID := fmt.Sprintf("2401.%05d", i+1)

		items = append(items, &types.Item{
			ID:        "arxiv_" + arxivID,
			Source:    "arxiv",
			Timestamp: time.Now().AddDate(0, 0, -i),
			Data: map[string]interface{}{
				"arxiv_id": arxivID,
				"title":    fmt.Sprintf("Mock %s Research Paper %d", category, i+1),
				"authors":  []string{fmt.Sprintf("Author %d", i+1), fmt.Sprintf("Co-Author %d", i+1)},
				"abstract": fmt.Sprintf("Synthetic abstract for a %s paper, used for offline runs.", category),
				"url":      "https://arxiv.org/abs/" + arxivID,
				"pdf_url":  "https://arxiv.org/pdf/" + arxivID + ".pdf",
				"category": category,
				"mock":     true,
			},
		})
	}

	return items
}
