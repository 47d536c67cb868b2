package service

import (
	"slices"
	"strings"
)

// ListOrder is a single-field sort request shared by every list operation.
type ListOrder struct {
	SortBy string
	Desc   bool
}

// ParseOrder reads "asc"/"desc", defaulting to def for anything else.
func ParseOrder(sortBy, order string, defDesc bool) ListOrder {
	desc := defDesc
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "asc":
		desc = false
	case "desc":
		desc = true
	}
	return ListOrder{SortBy: strings.TrimSpace(sortBy), Desc: desc}
}

// sortBy stably sorts items using the comparator registered for order.SortBy,
// falling back to def when the field is unknown.
func sortBy[T any](items []T, order ListOrder, comparators map[string]func(a, b T) int, def string) {
	compare, ok := comparators[order.SortBy]
	if !ok {
		compare = comparators[def]
	}
	slices.SortStableFunc(items, func(a, b T) int {
		if order.Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}
