package fixtures

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Hit is one search result
type Hit struct {
	Kind     string `json:"kind"`
	Category string `json:"category"`
	Name     string `json:"name"`
}

// Pattern turns a free-text query into a case-insensitive glob. Queries
// without glob metacharacters match anywhere in the name.
func Pattern(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ""
	}
	if !strings.ContainsAny(q, "*?[{") {
		return "*" + q + "*"
	}
	return q
}

// Match reports whether name matches the glob pattern. Malformed patterns
// fall back to substring matching.
func Match(pattern, name string) bool {
	if pattern == "" {
		return false
	}
	name = strings.ToLower(name)
	if !doublestar.ValidatePattern(pattern) {
		return strings.Contains(name, strings.Trim(pattern, "*"))
	}
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// Search returns the records of every category whose key matches the
// pattern, labelled with kind
func Search[R any](d *Dataset[R], kind, pattern string) []Hit {
	if d == nil {
		return nil
	}

	var hits []Hit
	for _, cat := range d.Categories() {
		for _, r := range d.List(cat) {
			name := d.Key(r)
			if Match(pattern, name) {
				hits = append(hits, Hit{Kind: kind, Category: cat, Name: name})
			}
		}
	}
	return hits
}
