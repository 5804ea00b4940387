package order

import "time"

type PlaceOrderResponse struct {
	ID            string         `json:"id"`
	EventID       string         `json:"event_id"`
	Status        string         `json:"status"`
	RedirectURL   string         `json:"redirect_url"`
	BuyerName     string         `json:"buyer_name"`
	BuyerEmail    string         `json:"buyer_email"`
	Subtotal      float64        `json:"subtotal"`
	Discount      float64        `json:"discount"`
	ServiceCharge float64        `json:"service_charge"`
	Tax           float64        `json:"tax"`
	TotalAmount   float64        `json:"total_amount"`
	Quantity      int64          `json:"quantity"`
	Items         []ItemResponse `json:"items"`
	CreatedAt     time.Time      `json:"created_at"`
}

type ItemResponse struct {
	OrderID      string  `json:"order_id"`
	TicketTierID string  `json:"ticket_tier_id"`
	EventID      string  `json:"event_id"`
	TierName     string  `json:"tier_name"`
	UnitPrice    float64 `json:"unit_price"`
	Quantity     int64   `json:"quantity"`
}

func (r *PlaceOrderResponse) PopulateFromEntity(o Order) {
	r.ID = o.ID
	r.EventID = o.EventID
	r.Status = o.Status
	r.BuyerName = o.BuyerName
	r.BuyerEmail = o.BuyerEmail
	r.Subtotal = o.Subtotal
	r.Discount = o.Discount
	r.ServiceCharge = o.ServiceCharge
	r.Tax = o.Tax
	r.TotalAmount = o.TotalAmount
	r.Quantity = o.Quantity
	r.CreatedAt = o.CreatedAt

	itemsResponse := make([]ItemResponse, len(o.Items))
	for k, v := range o.Items {
		itemsResponse[k] = ItemResponse{
			OrderID:      v.OrderID,
			TicketTierID: v.TicketTierID,
			EventID:      v.EventID,
			TierName:     v.TierName,
			UnitPrice:    v.UnitPrice,
			Quantity:     v.Quantity,
		}
	}
	r.Items = itemsResponse
}

type GetOrderStatusResponse struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	AttendeeID *string `json:"attendee_id,omitempty"`
}

type OrderResponse struct {
	ID            string         `json:"id"`
	EventID       string         `json:"event_id"`
	Status        string         `json:"status"`
	Subtotal      float64        `json:"subtotal"`
	Discount      float64        `json:"discount"`
	ServiceCharge float64        `json:"service_charge"`
	Tax           float64        `json:"tax"`
	TotalAmount   float64        `json:"total_amount"`
	Quantity      int64          `json:"quantity"`
	Items         []ItemResponse `json:"items"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type GetManyOrderResponse []OrderResponse

func (r *OrderResponse) PopulateFromEntity(o Order) {
	r.ID = o.ID
	r.EventID = o.EventID
	r.Status = o.Status
	r.Subtotal = o.Subtotal
	r.Discount = o.Discount
	r.ServiceCharge = o.ServiceCharge
	r.Tax = o.Tax
	r.TotalAmount = o.TotalAmount
	r.Quantity = o.Quantity
	r.CreatedAt = o.CreatedAt
	r.UpdatedAt = o.UpdatedAt

	itemsResponse := make([]ItemResponse, len(o.Items))
	for k, v := range o.Items {
		itemsResponse[k] = ItemResponse{
			OrderID:      v.OrderID,
			TicketTierID: v.TicketTierID,
			EventID:      v.EventID,
			TierName:     v.TierName,
			UnitPrice:    v.UnitPrice,
			Quantity:     v.Quantity,
		}
	}
	r.Items = itemsResponse
}
