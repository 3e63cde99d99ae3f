package executors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arxivAtomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query Results</title>
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <title>Attention Mechanisms Revisited</title>
    <summary>We revisit &lt;b&gt;attention&lt;/b&gt; mechanisms in deep networks.</summary>
    <published>2024-01-02T12:00:00Z</published>
    <updated>2024-01-02T12:00:00Z</updated>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <link href="http://arxiv.org/abs/2401.00001v1" rel="alternate" type="text/html"/>
    <category term="cs.AI" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00002v1</id>
    <title>Gradient Descent Considered Helpful</title>
    <summary>A study of optimization dynamics.</summary>
    <published>2024-01-01T09:00:00Z</published>
    <updated>2024-01-01T09:00:00Z</updated>
    <author><name>Grace Hopper</name></author>
    <link href="http://arxiv.org/abs/2401.00002v1" rel="alternate" type="text/html"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

func TestArxivMockModeIsDeterministicAndOffline(t *testing.T) {
	// base_url points nowhere; mock mode must never touch the network.
	ex, err := NewArxivExecutor(map[string]interface{}{
		"categories": []interface{}{"cs.AI", "cs.LG"},
		"max_papers": 10,
		"use_mock":   true,
		"base_url":   "http://127.0.0.1:1",
	})
	require.NoError(t, err)

	first, err := ex.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 5)

	second, err := ex.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 5)

	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Data["title"], second[i].Data["title"])
	}

	assert.Equal(t, "arxiv_2401.00001", first[0].ID)
	assert.Equal(t, "cs.AI", first[0].Data["category"])
	assert.Equal(t, "cs.LG", first[1].Data["category"])
	assert.Equal(t, true, first[0].Data["mock"])
}

func TestArxivMockRespectsMaxPapers(t *testing.T) {
	ex, err := NewArxivExecutor(map[string]interface{}{
		"use_mock":   true,
		"max_papers": 2,
	})
	require.NoError(t, err)

	items, err := ex.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestArxivFetchParsesAtomFeed(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(arxivAtomFixture))
	}))
	defer srv.Close()

	ex, err := NewArxivExecutor(map[string]interface{}{
		"base_url":   srv.URL,
		"categories": []interface{}{"cs.AI", "cs.LG"},
		"max_papers": 10,
		"days_back":  0,
	})
	require.NoError(t, err)

	items, err := ex.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "cat:cs.AI OR cat:cs.LG", gotQuery)

	first := items[0]
	assert.Equal(t, "arxiv_2401.00001v1", first.ID)
	assert.Equal(t, "arxiv", first.Source)
	assert.Equal(t, "2401.00001v1", first.Data["arxiv_id"])
	assert.Equal(t, "Attention Mechanisms Revisited", first.Data["title"])
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, first.Data["authors"])
	assert.Equal(t, "We revisit attention mechanisms in deep networks.", first.Data["abstract"])
	assert.Equal(t, "http://arxiv.org/pdf/2401.00001v1", first.Data["pdf_url"])
}

func TestArxivFetchFailsCleanlyOnBadUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ex, err := NewArxivExecutor(map[string]interface{}{"base_url": srv.URL})
	require.NoError(t, err)

	items, err := ex.Fetch(context.Background())
	assert.Error(t, err)
	assert.Empty(t, items)
}
