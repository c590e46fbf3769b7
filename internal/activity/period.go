// Package activity filters, sorts and paginates a user's ledger entries in
// memory. Everything here is pure: callers pass the entries and the current
// instant, nothing performs I/O.
package activity

import "time"

// Period is a named relative date range resolved against "now".
// The codes are the ones the web client sends.
type Period string

const (
	PeriodNone        Period = ""
	PeriodToday       Period = "hoy"
	PeriodYesterday   Period = "ayer"
	PeriodLastWeek    Period = "ultima_semana"
	PeriodLast15Days  Period = "ultimos_15_dias"
	PeriodLastMonth   Period = "ultimo_mes"
	PeriodLast3Months Period = "ultimos_3_meses"
	PeriodLastYear    Period = "ultimo_anio"
)

// Periods lists the presets in display order.
var Periods = []Period{
	PeriodToday,
	PeriodYesterday,
	PeriodLastWeek,
	PeriodLast15Days,
	PeriodLastMonth,
	PeriodLast3Months,
	PeriodLastYear,
}

// ParsePeriod maps a code to a preset. Unknown codes yield PeriodNone.
func ParsePeriod(code string) Period {
	p := Period(code)
	if p.IsValid() {
		return p
	}
	return PeriodNone
}

// IsValid reports whether p is one of the presets.
func (p Period) IsValid() bool {
	switch p {
	case PeriodToday, PeriodYesterday, PeriodLastWeek, PeriodLast15Days,
		PeriodLastMonth, PeriodLast3Months, PeriodLastYear:
		return true
	}
	return false
}

// DateRange is a closed interval. A zero bound is open-ended.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// ComputeDateRange resolves a preset into absolute instants in now's
// location. From snaps to 00:00:00.000 and To to 23:59:59.999 of today,
// or of yesterday for PeriodYesterday. Month and year presets use calendar
// arithmetic, so PeriodLastYear spans 366 days when it crosses Feb 29.
// The bool is false when p is not a preset, meaning no date filtering
// applies.
func ComputeDateRange(p Period, now time.Time) (DateRange, bool) {
	var from time.Time
	to := EndOfDay(now)

	switch p {
	case PeriodToday:
		from = StartOfDay(now)
	case PeriodYesterday:
		yesterday := now.AddDate(0, 0, -1)
		from = StartOfDay(yesterday)
		to = EndOfDay(yesterday)
	case PeriodLastWeek:
		from = StartOfDay(now.AddDate(0, 0, -7))
	case PeriodLast15Days:
		from = StartOfDay(now.AddDate(0, 0, -15))
	case PeriodLastMonth:
		from = StartOfDay(now.AddDate(0, -1, 0))
	case PeriodLast3Months:
		from = StartOfDay(now.AddDate(0, -3, 0))
	case PeriodLastYear:
		from = StartOfDay(now.AddDate(-1, 0, 0))
	default:
		return DateRange{}, false
	}

	return DateRange{From: from, To: to}, true
}

// StartOfDay returns 00:00:00.000 of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
