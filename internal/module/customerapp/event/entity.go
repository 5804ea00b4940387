package event

import "time"

const (
	StatusPublished = "PUBLISHED"
	StatusDraft     = "DRAFT"
	StatusArchived  = "ARCHIVED"
)

type Event struct {
	ID        string
	Name      string
	Status    string
	// SettlementAccountID is the payment-receiving account at the
	// gateway. An event without one cannot take orders.
	SettlementAccountID *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
