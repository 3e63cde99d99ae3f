package executors

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var htmlStripper = bluemonday.StrictPolicy()

// stripHTML removes HTML tags and decodes entities from text
func stripHTML(s string) string {
	s = htmlStripper.Sanitize(s)
	s = html.UnescapeString(s)
	s = strings.TrimSpace(s)

	// Limit length to avoid extremely long descriptions
	if len(s) > 2000 {
		s = s[:1997] + "..."
	}

	return s
}

// sanitizeID removes characters that might cause issues in item IDs
func sanitizeID(id string) string {
	replacer := strings.NewReplacer(
		"://", "_",
		"/", "_",
		"?", "_",
		"&", "_",
		"=", "_",
		"#", "_",
		" ", "_",
	)
	id = replacer.Replace(id)

	if len(id) > 200 {
		id = id[:200]
	}

	return id
}
