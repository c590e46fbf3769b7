package activity

import (
	"slices"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
)

// SortByTimeDesc returns a copy of entries ordered newest first.
// The sort is stable, so equal timestamps keep their relative order, and
// entries with an unparseable timestamp always go last.
func SortByTimeDesc(entries []*domain.LedgerEntry) []*domain.LedgerEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, newestFirst)
	return out
}

func newestFirst(a, b *domain.LedgerEntry) int {
	aValid, bValid := a.HasValidTime(), b.HasValidTime()

	switch {
	case aValid && bValid:
		return b.OccurredAt.Compare(a.OccurredAt)
	case aValid:
		return -1
	case bValid:
		return 1
	default:
		return 0
	}
}
