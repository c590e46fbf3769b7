package activity

import (
	"time"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
)

// Snapshot is everything the activity view needs, fetched once per
// session change.
type Snapshot struct {
	LoadedAt time.Time
	Session  domain.Session
	Account  *domain.Account
	Entries  []*domain.LedgerEntry
}

// Page is one rendered page of results.
type Page struct {
	Items      []*domain.LedgerEntry
	Page       int
	TotalPages int
	TotalItems int
}

// Option configures a Query.
type Option func(*Query)

// WithPageSize overrides DefaultPageSize.
func WithPageSize(n int) Option {
	return func(q *Query) {
		if n > 0 {
			q.pageSize = n
		}
	}
}

// WithClock sets the source of "now" used to resolve presets.
func WithClock(now func() time.Time) Option {
	return func(q *Query) {
		if now != nil {
			q.now = now
		}
	}
}

// Query holds the filter state over one snapshot. Every filter change
// resets the page to 1. A Query is not safe for concurrent use.
type Query struct {
	snapshot *Snapshot
	now      func() time.Time
	filters  FilterState
	pageSize int
}

// NewQuery creates a Query with no filters on page 1.
func NewQuery(snapshot *Snapshot, opts ...Option) *Query {
	if snapshot == nil {
		snapshot = &Snapshot{}
	}

	q := &Query{
		snapshot: snapshot,
		now:      time.Now,
		pageSize: DefaultPageSize,
		filters:  FilterState{Direction: DirectionAll, Page: 1},
	}

	for _, opt := range opts {
		opt(q)
	}

	return q
}

// Filters returns the current filter state.
func (q *Query) Filters() FilterState {
	return q.filters
}

// PageSize returns the configured page size.
func (q *Query) PageSize() int {
	return q.pageSize
}

// SetFilters replaces every filter at once. The page of f is ignored.
func (q *Query) SetFilters(f FilterState) {
	f.Page = 1
	if f.Direction == "" {
		f.Direction = DirectionAll
	}
	q.filters = f
}

// SetText changes the free-text search.
func (q *Query) SetText(text string) {
	q.filters.Text = text
	q.filters.Page = 1
}

// SetPeriod selects a preset and clears any custom range.
func (q *Query) SetPeriod(p Period) {
	q.filters.Period = p
	q.filters.CustomFrom = nil
	q.filters.CustomTo = nil
	q.filters.Page = 1
}

// SetCustomRange selects a custom window and clears the preset.
func (q *Query) SetCustomRange(from, to *time.Time) {
	q.filters.CustomFrom = from
	q.filters.CustomTo = to
	q.filters.Period = PeriodNone
	q.filters.Page = 1
}

// SetDirection changes the credit/debit filter.
func (q *Query) SetDirection(d DirectionFilter) {
	q.filters.Direction = d
	q.filters.Page = 1
}

// SetPage moves to page; values below 1 become 1.
func (q *Query) SetPage(page int) {
	q.filters.Page = max(1, page)
}

// Reset clears all filters.
func (q *Query) Reset() {
	q.filters = FilterState{Direction: DirectionAll, Page: 1}
}

// Result filters, sorts and paginates the snapshot. A page beyond the
// last one falls back to page 1.
func (q *Query) Result() Page {
	filtered := ApplyFilters(q.snapshot.Entries, q.filters, q.now())
	sorted := SortByTimeDesc(filtered)

	totalPages := TotalPages(len(sorted), q.pageSize)
	if q.filters.Page < 1 || q.filters.Page > totalPages {
		q.filters.Page = 1
	}

	items, _ := Paginate(sorted, q.filters.Page, q.pageSize)

	return Page{
		Items:      items,
		Page:       q.filters.Page,
		TotalPages: totalPages,
		TotalItems: len(sorted),
	}
}
