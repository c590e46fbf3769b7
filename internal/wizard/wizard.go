// Package wizard implements the guarded multi-step flows that end in a
// single money-moving call: loading funds from a card and paying a bill.
//
// A flow is a small state machine. Every user action is checked against a
// transition table for the current step; guards validate the selection
// before the step changes. Submit holds a submission lock for the duration
// of the backend call so concurrent submits produce exactly one call.
package wizard

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digitalmoneyhouse/dmh/internal/domain"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed in
	// the current step.
	ErrInvalidTransition = errors.New("wizard: action not allowed in current step")
	// ErrSubmissionInProgress is returned by Submit while another submit
	// of the same flow is running.
	ErrSubmissionInProgress = errors.New("wizard: submission in progress")
	// ErrNoCardSelected guards steps that need an instrument.
	ErrNoCardSelected = errors.New("wizard: no card selected")
	// ErrNoMethodSelected guards bill submission.
	ErrNoMethodSelected = errors.New("wizard: no payment method selected")
)

// errForcedFailure is logged when the failure predicate rejects a card.
var errForcedFailure = errors.New("card rejected by failure predicate")

// FailurePredicate decides whether submitting with card must fail without
// reaching the backend. It is a test and demo hook.
type FailurePredicate func(card *domain.Card) bool

// NeverFail is the production predicate.
func NeverFail(*domain.Card) bool { return false }

// CardSuffixFailure fails any card whose number ends with one of suffixes.
// Blank suffixes are ignored; with none left it behaves like NeverFail.
func CardSuffixFailure(suffixes ...string) FailurePredicate {
	var clean []string
	for _, s := range suffixes {
		if s = strings.TrimSpace(s); s != "" {
			clean = append(clean, s)
		}
	}

	if len(clean) == 0 {
		return NeverFail
	}

	return func(card *domain.Card) bool {
		if card == nil {
			return false
		}
		for _, s := range clean {
			if card.HasSuffix(s) {
				return true
			}
		}
		return false
	}
}

type options struct {
	maxAmount decimal.Decimal
	failWhen  FailurePredicate
	now       func() time.Time
}

func defaultOptions() options {
	return options{
		maxAmount: decimal.RequireFromString(domain.DefaultMaxLoadAmount),
		failWhen:  NeverFail,
		now:       time.Now,
	}
}

// Option configures a flow.
type Option func(*options)

// WithMaxAmount sets the top-up ceiling. Non-positive values are ignored.
func WithMaxAmount(limit decimal.Decimal) Option {
	return func(o *options) {
		if limit.IsPositive() {
			o.maxAmount = limit
		}
	}
}

// WithFailurePredicate installs p. A nil p keeps NeverFail.
func WithFailurePredicate(p FailurePredicate) Option {
	return func(o *options) {
		if p != nil {
			o.failWhen = p
		}
	}
}

// WithClock overrides the time source used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func findCard(cards []*domain.Card, id string) (*domain.Card, bool) {
	for _, c := range cards {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

func copyCard(c *domain.Card) *domain.Card {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// copyAccount detaches the flow from the caller's account value. A missing
// account is treated as empty with a zero balance.
func copyAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return &domain.Account{}
	}
	cp := *a
	return &cp
}
