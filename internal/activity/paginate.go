package activity

import "github.com/digitalmoneyhouse/dmh/internal/domain"

// DefaultPageSize is how many entries the activity list shows per page.
const DefaultPageSize = 10

// TotalPages is max(1, ceil(n/pageSize)).
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	pages := n / pageSize
	if n%pageSize != 0 {
		pages++
	}
	return max(1, pages)
}

// Paginate slices sorted[(page-1)*pageSize : page*pageSize]. It does not
// clamp page: an out-of-range page yields no items. Callers reset the page
// to 1 whenever filters change.
func Paginate(sorted []*domain.LedgerEntry, page, pageSize int) ([]*domain.LedgerEntry, int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	totalPages := TotalPages(len(sorted), pageSize)

	// Range-check before multiplying: a huge page would overflow start.
	if page < 1 || page > totalPages {
		return []*domain.LedgerEntry{}, totalPages
	}

	start := (page - 1) * pageSize
	if start >= len(sorted) {
		return []*domain.LedgerEntry{}, totalPages
	}

	end := min(start+pageSize, len(sorted))
	return sorted[start:end], totalPages
}
