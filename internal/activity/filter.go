package activity

import (
	"strings"
	"time"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
)

// DirectionFilter narrows entries by sign of the amount.
type DirectionFilter string

const (
	DirectionAll    DirectionFilter = "all"
	DirectionCredit DirectionFilter = "credit"
	DirectionDebit  DirectionFilter = "debit"
)

// ParseDirection accepts the English codes and the client's Spanish ones.
// Anything else means no direction filter.
func ParseDirection(s string) DirectionFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit", "ingresos", "in":
		return DirectionCredit
	case "debit", "egresos", "out":
		return DirectionDebit
	default:
		return DirectionAll
	}
}

// FilterState is the user's current view over the activity list.
// CustomFrom/CustomTo are calendar days; when either is set the custom
// range wins over Period. Page is 1-based.
type FilterState struct {
	CustomFrom *time.Time
	CustomTo   *time.Time
	Text       string
	Period     Period
	Direction  DirectionFilter
	Page       int
}

// HasCustomRange reports whether either custom bound is set.
func (f FilterState) HasCustomRange() bool {
	return f.CustomFrom != nil || f.CustomTo != nil
}

// DateRange resolves the effective date window, if any, in now's location.
func (f FilterState) DateRange(now time.Time) (DateRange, bool) {
	if f.HasCustomRange() {
		var r DateRange
		if f.CustomFrom != nil {
			r.From = StartOfDay(f.CustomFrom.In(now.Location()))
		}
		if f.CustomTo != nil {
			r.To = EndOfDay(f.CustomTo.In(now.Location()))
		}
		return r, true
	}
	return ComputeDateRange(f.Period, now)
}

// Predicate decides whether an entry stays in the result set.
type Predicate func(e *domain.LedgerEntry) bool

// InRange keeps entries whose timestamp falls inside r. Entries with an
// unparseable timestamp never match a date filter.
func InRange(r DateRange) Predicate {
	return func(e *domain.LedgerEntry) bool {
		return e.HasValidTime() && r.Contains(e.OccurredAt)
	}
}

// HasDirection keeps credits (amount > 0) or debits (amount < 0).
func HasDirection(d DirectionFilter) Predicate {
	return func(e *domain.LedgerEntry) bool {
		switch d {
		case DirectionCredit:
			return e.IsCredit()
		case DirectionDebit:
			return e.IsDebit()
		default:
			return true
		}
	}
}

// ContainsText keeps entries whose description, type and counterparty,
// joined by single spaces, contain text case-insensitively.
func ContainsText(text string) Predicate {
	needle := strings.ToLower(text)
	return func(e *domain.LedgerEntry) bool {
		return strings.Contains(searchText(e), needle)
	}
}

func searchText(e *domain.LedgerEntry) string {
	return strings.ToLower(strings.Join([]string{e.Description, string(e.Type), e.Counterparty}, " "))
}

// Predicates returns the active filters only; absent filters pass through.
func (f FilterState) Predicates(now time.Time) []Predicate {
	var preds []Predicate

	if r, ok := f.DateRange(now); ok {
		preds = append(preds, InRange(r))
	}

	if f.Direction == DirectionCredit || f.Direction == DirectionDebit {
		preds = append(preds, HasDirection(f.Direction))
	}

	if f.Text != "" {
		preds = append(preds, ContainsText(f.Text))
	}

	return preds
}

// ApplyFilters returns the entries matching every active filter, in their
// original order. The input slice is not modified.
func ApplyFilters(entries []*domain.LedgerEntry, f FilterState, now time.Time) []*domain.LedgerEntry {
	return Filter(entries, f.Predicates(now)...)
}

// Filter keeps the entries that satisfy all predicates.
func Filter(entries []*domain.LedgerEntry, preds ...Predicate) []*domain.LedgerEntry {
	out := make([]*domain.LedgerEntry, 0, len(entries))

next:
	for _, e := range entries {
		for _, keep := range preds {
			if !keep(e) {
				continue next
			}
		}
		out = append(out, e)
	}

	return out
}
