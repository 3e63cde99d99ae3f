package executors

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwitterPagesThroughCursor(t *testing.T) {
	var gotKey string
	var gotQueries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/twitter/tweet/advanced_search", r.URL.Path)
		gotKey = r.Header.Get("X-API-Key")
		gotQueries = append(gotQueries, r.URL.Query().Get("query"))

		if r.URL.Query().Get("cursor") == "" {
			fmt.Fprint(w, `{"tweets": [{"id": "1001", "text": "first tweet"}],
				"has_next_page": true, "next_cursor": "page2"}`)
			return
		}
		fmt.Fprint(w, `{"tweets": [{"id": "1002", "text": "second tweet"}],
			"has_next_page": false, "next_cursor": ""}`)
	}))
	defer srv.Close()

	ex, err := NewTwitterExecutor(map[string]interface{}{
		"base_url":   srv.URL,
		"api_key":    "test-key",
		"accounts":   []interface{}{"someuser"},
		"max_tweets": 10,
	})
	require.NoError(t, err)

	items, err := ex.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "test-key", gotKey)
	require.NotEmpty(t, gotQueries)
	assert.Equal(t, "from:someuser", gotQueries[0])

	assert.Equal(t, "twitter_1001", items[0].ID)
	assert.Equal(t, "twitter_1002", items[1].ID)
	assert.Equal(t, "twitter", items[0].Source)

	tweet, ok := items[0].Data["tweet"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "first tweet", tweet["text"])
}

func TestTwitterHonorsTweetBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Endless pagination; the budget has to stop the loop.
		fmt.Fprint(w, `{"tweets": [{"id": "1", "text": "t"}, {"id": "2", "text": "t"}],
			"has_next_page": true, "next_cursor": "more"}`)
	}))
	defer srv.Close()

	ex, err := NewTwitterExecutor(map[string]interface{}{
		"base_url":   srv.URL,
		"api_key":    "k",
		"accounts":   []interface{}{"a"},
		"max_tweets": 5,
	})
	require.NoError(t, err)

	items, err := ex.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestTwitterAppendsDateBounds(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		fmt.Fprint(w, `{"tweets": [], "has_next_page": false, "next_cursor": ""}`)
	}))
	defer srv.Close()

	ex, err := NewTwitterExecutor(map[string]interface{}{
		"base_url":   srv.URL,
		"api_key":    "k",
		"accounts":   []interface{}{"someuser"},
		"start_date": "2025-06-01_00:00:00",
		"end_date":   "2025-06-10_23:59:59",
	})
	require.NoError(t, err)

	_, err = ex.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from:someuser since:2025-06-01_00:00:00_UTC until:2025-06-10_23:59:59_UTC", gotQuery)
}

func TestTwitterRequiresAPIKey(t *testing.T) {
	ex, err := NewTwitterExecutor(map[string]interface{}{
		"accounts": []interface{}{"someuser"},
	})
	require.NoError(t, err)

	items, err := ex.Fetch(context.Background())
	assert.Error(t, err)
	assert.Empty(t, items)
}
