package domain

import "time"

// Event types
const (
	EventTypeAccountCreated = "account.created"
	EventTypeFundsLoaded    = "funds.loaded"
	EventTypeBillPaid       = "bill.paid"
	EventTypeTransferSent   = "transfer.sent"
)

// Aggregate types
const (
	AggregateTypeAccount  = "account"
	AggregateTypePayment  = "payment"
	AggregateTypeTransfer = "transfer"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}
