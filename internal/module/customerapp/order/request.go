package order

type ItemRequest struct {
	TicketTierID string  `json:"ticket_tier_id" validate:"required"`
	Quantity     int64   `json:"quantity" validate:"min=1,max=10"`
	UnitPrice    float64 `json:"unit_price" validate:"gt=0"`
}

type PlaceOrderRequest struct {
	EventID    string        `json:"event_id" validate:"required"`
	Items      []ItemRequest `json:"items" validate:"min=1,dive"`
	BuyerName  string        `json:"buyer_name" validate:"required"`
	BuyerEmail string        `json:"buyer_email" validate:"required,email"`
	PromoCode  string        `json:"promo_code" validate:"omitempty,alphanum"`
}

type GetManyOrderRequest struct {
	Page int64 `validate:"required,min=1"`
	Size int64 `validate:"required,min=1,max=100"`
}
