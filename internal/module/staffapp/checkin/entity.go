package checkin

import "time"

// Attendee is the gate operator's view of a confirmed ticket: identity
// plus the event and tier names shown on the scanner screen.
type Attendee struct {
	ID           string
	EventID      string
	EventName    string
	TicketTierID string
	TierName     string
	Name         string
	Email        *string
	CheckedIn    bool
	CreatedAt    time.Time
}
