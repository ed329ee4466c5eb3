// Package paging implements in-memory pagination over listings that arrive
// whole from the tracking provider, which has no paging of its own.
package paging

import "sort"

// Page is one page of results plus totals, in the shape API consumers expect.
type Page[T any] struct {
	Total  int `json:"total"`
	Pages  int `json:"pages"`
	Page   int `json:"page"`
	Result []T `json:"result"`
}

// Query slices items into the requested page. filter and less are optional.
// The second return is false when the requested page is past the last one.
func Query[T any](items []T, page, limit int, less func(a, b T) bool, filter func(T) bool) (*Page[T], bool) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	filtered := items
	if filter != nil {
		filtered = make([]T, 0, len(items))
		for _, item := range items {
			if filter(item) {
				filtered = append(filtered, item)
			}
		}
	}

	if less != nil {
		// copy so the caller's slice order is untouched
		sorted := make([]T, len(filtered))
		copy(sorted, filtered)
		sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
		filtered = sorted
	}

	total := len(filtered)
	pages := (total + limit - 1) / limit
	if pages == 0 {
		pages = 1
	}
	if page > pages {
		return nil, false
	}

	start := (page - 1) * limit
	end := start + limit
	if end > total {
		end = total
	}

	return &Page[T]{
		Total:  total,
		Pages:  pages,
		Page:   page,
		Result: filtered[start:end],
	}, true
}
