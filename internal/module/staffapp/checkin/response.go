package checkin

import "time"

type CheckInResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	EventName string    `json:"event_name"`
	TierName  string    `json:"tier_name"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	CheckedIn bool      `json:"checked_in"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *CheckInResponse) PopulateFromEntity(a Attendee) {
	r.ID = a.ID
	r.EventID = a.EventID
	r.EventName = a.EventName
	r.TierName = a.TierName
	r.Name = a.Name
	r.Email = a.Email
	r.CheckedIn = a.CheckedIn
	r.CreatedAt = a.CreatedAt
}
