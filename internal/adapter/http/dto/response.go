package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/digitalmoneyhouse/dmh/internal/activity"
	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
	"github.com/digitalmoneyhouse/dmh/internal/wizard"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	CVU       string          `json:"cvu"`
	Alias     string          `json:"alias"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	if a == nil {
		return nil
	}
	return &AccountResponse{
		ID:        a.ID,
		CVU:       a.CVU,
		Alias:     a.Alias,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// EntryResponse represents an activity entry in API responses.
// OccurredAt is null when the stored timestamp could not be parsed.
type EntryResponse struct {
	OccurredAt      *time.Time       `json:"occurred_at"`
	ID              string           `json:"id"`
	Type            domain.EntryType `json:"type"`
	Direction       domain.Direction `json:"direction"`
	Description     string           `json:"description"`
	Counterparty    string           `json:"counterparty,omitempty"`
	Amount          decimal.Decimal  `json:"amount"`
	PreviousBalance decimal.Decimal  `json:"previous_balance"`
	CurrentBalance  decimal.Decimal  `json:"current_balance"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	resp := &EntryResponse{
		ID:              e.ID,
		Type:            e.Type,
		Direction:       e.Direction(),
		Description:     e.Description,
		Counterparty:    e.Counterparty,
		Amount:          e.Amount,
		PreviousBalance: e.AccountPreviousBalance,
		CurrentBalance:  e.AccountCurrentBalance,
	}
	if e.HasValidTime() {
		at := e.OccurredAt
		resp.OccurredAt = &at
	}
	return resp
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// FiltersResponse echoes the filters a page was computed with.
type FiltersResponse struct {
	From      *string                  `json:"from,omitempty"`
	To        *string                  `json:"to,omitempty"`
	Text      string                   `json:"q,omitempty"`
	Period    activity.Period          `json:"period,omitempty"`
	Direction activity.DirectionFilter `json:"direction"`
}

// ActivityResponse is one page of the activity list.
type ActivityResponse struct {
	Account    *AccountResponse `json:"account"`
	Filters    FiltersResponse  `json:"filters"`
	Items      []*EntryResponse `json:"items"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	TotalItems int              `json:"total_items"`
}

// ActivityFromResult converts a search result to response.
func ActivityFromResult(r *usecase.SearchResult) *ActivityResponse {
	f := r.Filters
	filters := FiltersResponse{
		Text:      f.Text,
		Period:    f.Period,
		Direction: f.Direction,
	}
	if f.CustomFrom != nil {
		s := f.CustomFrom.Format(DateLayout)
		filters.From = &s
	}
	if f.CustomTo != nil {
		s := f.CustomTo.Format(DateLayout)
		filters.To = &s
	}

	return &ActivityResponse{
		Account:    AccountFromDomain(r.Account),
		Filters:    filters,
		Items:      EntriesFromDomain(r.Page.Items),
		Page:       r.Page.Page,
		TotalPages: r.Page.TotalPages,
		TotalItems: r.Page.TotalItems,
	}
}

// CardResponse represents a stored card. Only the last four digits leave
// the service.
type CardResponse struct {
	ID        string           `json:"id"`
	Masked    string           `json:"masked_number"`
	LastFour  string           `json:"last_four"`
	Holder    string           `json:"holder"`
	Expiry    string           `json:"expiry"`
	Brand     domain.CardBrand `json:"brand"`
	CreatedAt time.Time        `json:"created_at"`
}

// CardFromDomain converts domain card to response.
func CardFromDomain(c *domain.Card) *CardResponse {
	if c == nil {
		return nil
	}
	return &CardResponse{
		ID:        c.ID,
		Masked:    c.Masked(),
		LastFour:  c.LastFour,
		Holder:    c.Holder,
		Expiry:    c.Expiry,
		Brand:     c.Brand,
		CreatedAt: c.CreatedAt,
	}
}

// CardsFromDomain converts domain cards to responses.
func CardsFromDomain(cards []*domain.Card) []*CardResponse {
	result := make([]*CardResponse, len(cards))
	for i, c := range cards {
		result[i] = CardFromDomain(c)
	}
	return result
}

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	ID            string          `json:"id"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Description   string          `json:"description,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TransferFromDomain converts domain transfer to response.
func TransferFromDomain(t *domain.Transfer) *TransferResponse {
	return &TransferResponse{
		ID:            t.ID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Description:   t.Description,
		Amount:        t.Amount,
		CreatedAt:     t.CreatedAt,
	}
}

// ServiceResponse represents a payable service.
type ServiceResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	InvoiceValue decimal.Decimal `json:"invoice_value"`
}

// ServiceFromDomain converts domain service to response.
func ServiceFromDomain(s *domain.BillService) *ServiceResponse {
	if s == nil {
		return nil
	}
	return &ServiceResponse{
		ID:           s.ID,
		Name:         s.Name,
		InvoiceValue: s.InvoiceValue,
	}
}

// ServicesFromDomain converts domain services to responses.
func ServicesFromDomain(services []*domain.BillService) []*ServiceResponse {
	result := make([]*ServiceResponse, len(services))
	for i, s := range services {
		result[i] = ServiceFromDomain(s)
	}
	return result
}

// PaymentResponse represents a settled bill.
type PaymentResponse struct {
	ID          string               `json:"id"`
	ServiceID   string               `json:"service_id"`
	ServiceName string               `json:"service_name"`
	Reference   string               `json:"reference"`
	Method      domain.PaymentMethod `json:"method"`
	CardID      string               `json:"card_id,omitempty"`
	Amount      decimal.Decimal      `json:"amount"`
	CreatedAt   time.Time            `json:"created_at"`
}

// PaymentFromDomain converts domain payment to response.
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	if p == nil {
		return nil
	}
	return &PaymentResponse{
		ID:          p.ID,
		ServiceID:   p.ServiceID,
		ServiceName: p.ServiceName,
		Reference:   p.Reference,
		Method:      p.Method,
		CardID:      p.CardID,
		Amount:      p.Amount,
		CreatedAt:   p.CreatedAt,
	}
}

// TopUpFlowResponse is the presentation state of a top-up flow.
type TopUpFlowResponse struct {
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	Card            *CardResponse    `json:"card,omitempty"`
	NewBalance      *decimal.Decimal `json:"new_balance,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	ID              string           `json:"id"`
	Step            string           `json:"step"`
	CVU             string           `json:"cvu,omitempty"`
	Alias           string           `json:"alias,omitempty"`
	ValidationError string           `json:"validation_error,omitempty"`
	LastError       string           `json:"error,omitempty"`
	MaxAmount       decimal.Decimal  `json:"max_amount"`
	Submitting      bool             `json:"submitting"`
}

// TopUpFlowFromState converts a wizard state to response.
func TopUpFlowFromState(id string, st wizard.TopUpState) *TopUpFlowResponse {
	resp := &TopUpFlowResponse{
		ID:              id,
		Step:            st.Step.String(),
		Card:            CardFromDomain(st.Card),
		CVU:             st.CVU,
		Alias:           st.Alias,
		ValidationError: st.ValidationError,
		LastError:       st.LastError,
		MaxAmount:       st.MaxAmount,
		Submitting:      st.Submitting,
	}
	if !st.Amount.IsZero() {
		amount := st.Amount
		resp.Amount = &amount
	}
	if st.Step == wizard.TopUpSuccess {
		balance := st.NewBalance
		resp.NewBalance = &balance
		completed := st.CompletedAt
		resp.CompletedAt = &completed
	}
	return resp
}

// BillFlowResponse is the presentation state of a bill payment flow.
type BillFlowResponse struct {
	Service         *ServiceResponse     `json:"service,omitempty"`
	Card            *CardResponse        `json:"card,omitempty"`
	Payment         *PaymentResponse     `json:"payment,omitempty"`
	ID              string               `json:"id"`
	Step            string               `json:"step"`
	Reference       string               `json:"reference,omitempty"`
	Method          domain.PaymentMethod `json:"method,omitempty"`
	ValidationError string               `json:"validation_error,omitempty"`
	LastError       string               `json:"error,omitempty"`
	Balance         decimal.Decimal      `json:"balance"`
	Submitting      bool                 `json:"submitting"`
}

// BillFlowFromState converts a wizard state to response.
func BillFlowFromState(id string, st wizard.BillState) *BillFlowResponse {
	return &BillFlowResponse{
		ID:              id,
		Step:            st.Step.String(),
		Service:         ServiceFromDomain(st.Service),
		Card:            CardFromDomain(st.Card),
		Payment:         PaymentFromDomain(st.Payment),
		Reference:       st.Reference,
		Method:          st.Method,
		ValidationError: st.ValidationError,
		LastError:       st.LastError,
		Balance:         st.Balance,
		Submitting:      st.Submitting,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// FlowErrorResponse reports a rejected wizard action together with the
// flow state it left behind.
type FlowErrorResponse struct {
	Flow  any    `json:"flow"`
	Error string `json:"error"`
}
