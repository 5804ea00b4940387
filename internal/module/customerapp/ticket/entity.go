package ticket

import "time"

type TicketTier struct {
	ID        string
	EventID   string
	Name      string
	Capacity  int64
	SoldCount int64
	UnitPrice float64
}

// Remaining is display-only; the authoritative capacity check happens
// in the conditional sold-count increment.
func (t TicketTier) Remaining() int64 {
	return t.Capacity - t.SoldCount
}

// Attendee is a confirmed ticket. Immutable after materialization
// except for the checked-in flag.
type Attendee struct {
	ID           string
	EventID      string
	TicketTierID string
	OrderID      string
	Name         string
	Email        *string
	CustomerID   *int64
	CheckedIn    bool
	CreatedAt    time.Time
}
