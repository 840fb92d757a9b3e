package catalog

import (
	"sort"

	"zetflix/internal/media"
)

// Dedupe drops repeated items, keeping the first occurrence of each (kind, id).
// It is meant for a single backend's list; movie/TV and anime ids live in
// disjoint namespaces and are never compared with each other.
func Dedupe(items []media.ContentItem) []media.ContentItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]media.ContentItem, 0, len(items))
	for _, item := range items {
		key := item.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// MergeByPopularity concatenates lists and orders the result by descending
// popularity. Equal popularity keeps the concatenated order.
func MergeByPopularity(lists ...[]media.ContentItem) []media.ContentItem {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make([]media.ContentItem, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Popularity > out[j].Popularity
	})
	return out
}
