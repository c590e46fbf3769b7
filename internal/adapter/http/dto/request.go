package dto

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digitalmoneyhouse/dmh/internal/activity"
	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
)

// DateLayout is the format of the from/to activity query parameters.
const DateLayout = "2006-01-02"

// AddCardRequest represents a request to register a card.
type AddCardRequest struct {
	Number string `json:"number"`
	Holder string `json:"holder"`
	Expiry string `json:"expiry"`
}

// ToUseCaseInput converts to use case input.
func (r *AddCardRequest) ToUseCaseInput() usecase.AddCardInput {
	return usecase.AddCardInput{
		Number: r.Number,
		Holder: r.Holder,
		Expiry: r.Expiry,
	}
}

// SendMoneyRequest represents a request to transfer to another wallet.
type SendMoneyRequest struct {
	Destination string          `json:"destination"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *SendMoneyRequest) ToUseCaseInput() usecase.SendMoneyInput {
	return usecase.SendMoneyInput{
		Destination: strings.TrimSpace(r.Destination),
		Description: strings.TrimSpace(r.Description),
		Amount:      r.Amount,
	}
}

// SelectCardRequest picks an instrument in a top-up flow.
type SelectCardRequest struct {
	CardID string `json:"card_id"`
}

// AmountRequest sets the amount of a top-up flow.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// SelectServiceRequest picks the service of a bill payment flow.
type SelectServiceRequest struct {
	ServiceID string `json:"service_id"`
}

// ReferenceRequest sets the invoice reference of a bill payment flow.
type ReferenceRequest struct {
	Reference string `json:"reference"`
}

// MethodRequest chooses how a bill is paid.
type MethodRequest struct {
	Method domain.PaymentMethod `json:"method"`
	CardID string               `json:"card_id,omitempty"`
}

// ActivityQueryFromValues builds activity filters from query parameters:
// q, period, from, to, direction and page. Dates are calendar days in loc.
// An unknown period or direction means no filtering on that dimension.
func ActivityQueryFromValues(v url.Values, loc *time.Location) (activity.FilterState, error) {
	f := activity.FilterState{
		Text:      strings.TrimSpace(v.Get("q")),
		Period:    activity.ParsePeriod(v.Get("period")),
		Direction: activity.ParseDirection(v.Get("direction")),
		Page:      1,
	}

	from, err := parseDay(v.Get("from"), loc)
	if err != nil {
		return f, fmt.Errorf("invalid from: %w", err)
	}
	to, err := parseDay(v.Get("to"), loc)
	if err != nil {
		return f, fmt.Errorf("invalid to: %w", err)
	}
	if from != nil && to != nil && from.After(*to) {
		return f, fmt.Errorf("from must not be after to")
	}
	f.CustomFrom, f.CustomTo = from, to

	if p := v.Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil {
			return f, fmt.Errorf("invalid page: %w", err)
		}
		f.Page = max(1, page)
	}

	return f, nil
}

func parseDay(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
