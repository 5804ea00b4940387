package checkin

// CheckInRequest carries the decoded QR payload from the scanner. The
// attendee name is display data only and takes no part in the lookup.
type CheckInRequest struct {
	TicketID     string `json:"ticket_id" validate:"required"`
	EventID      string `json:"event_id" validate:"required"`
	AttendeeName string `json:"attendee_name"`
}
