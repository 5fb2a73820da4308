package core

import (
	"sort"
	"strings"

	"studiostock/pkg/domain"
)

// Categories returns the distinct non-empty categories, sorted.
func Categories(snapshot domain.Collection) []string {
	return distinct(snapshot, func(it domain.Item) string { return it.Category })
}

// Suppliers returns the distinct non-empty suppliers, sorted.
func Suppliers(snapshot domain.Collection) []string {
	return distinct(snapshot, func(it domain.Item) string { return it.Supplier })
}

func distinct(snapshot domain.Collection, field func(domain.Item) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, it := range snapshot {
		v := strings.TrimSpace(field(it))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Filter narrows a snapshot the way the stock browser does. Query matches
// name, brand or spec case-insensitively; Category must match exactly when
// set. The zero Filter matches everything.
type Filter struct {
	Query    string
	Category string
}

// Match reports whether it passes the filter.
func (f Filter) Match(it domain.Item) bool {
	if f.Category != "" && it.Category != f.Category {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, v := range []string{it.Name, it.Brand, it.Spec} {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

// Apply returns the matching items in snapshot order. Their ids form the
// visible set of a later reconciliation.
func (f Filter) Apply(snapshot domain.Collection) domain.Collection {
	out := make(domain.Collection, 0, len(snapshot))
	for _, it := range snapshot {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}
