package fixtures

import (
	"sort"
	"sync"
)

// Dataset is an ordered list of records per category. Names are not
// unique: Add keeps duplicates and Remove drops every match.
type Dataset[R any] struct {
	mu         sync.RWMutex
	categories map[string][]R // Protected by mu
	key        func(R) string
}

// NewDataset creates a dataset seeded with a copy of seed
func NewDataset[R any](key func(R) string, seed map[string][]R) *Dataset[R] {
	d := &Dataset[R]{
		categories: make(map[string][]R, len(seed)),
		key:        key,
	}
	for cat, records := range seed {
		d.categories[cat] = append([]R{}, records...)
	}
	return d
}

// List returns a copy of the category's records in order. Unknown
// categories yield an empty list.
func (d *Dataset[R]) List(category string) []R {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]R{}, d.categories[category]...)
}

// Has reports whether the category exists
func (d *Dataset[R]) Has(category string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.categories[category]
	return ok
}

// Categories returns category names in sorted order
func (d *Dataset[R]) Categories() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.categories))
	for c := range d.categories {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Add appends a record to the category, creating it if needed
func (d *Dataset[R]) Add(category string, r R) {
	d.mu.Lock()
	d.categories[category] = append(d.categories[category], r)
	d.mu.Unlock()
}

// Remove drops every record in the category whose key equals name and
// returns how many were removed
func (d *Dataset[R]) Remove(category, name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	records, ok := d.categories[category]
	if !ok {
		return 0
	}

	kept := records[:0:0]
	for _, r := range records {
		if d.key(r) != name {
			kept = append(kept, r)
		}
	}
	removed := len(records) - len(kept)
	if removed > 0 {
		d.categories[category] = kept
	}
	return removed
}

// Find returns the first record in the category matching pred
func (d *Dataset[R]) Find(category string, pred func(R) bool) (R, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, r := range d.categories[category] {
		if pred(r) {
			return r, true
		}
	}
	var zero R
	return zero, false
}

// Get returns the first record in the category whose key equals name
func (d *Dataset[R]) Get(category, name string) (R, bool) {
	return d.Find(category, func(r R) bool { return d.key(r) == name })
}

// Key returns the identifying name of a record
func (d *Dataset[R]) Key(r R) string {
	return d.key(r)
}

// Len returns the number of records in the category
func (d *Dataset[R]) Len(category string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.categories[category])
}
