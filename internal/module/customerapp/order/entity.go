package order

import "time"

const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

const (
	DiscountKindPercentage = "PERCENTAGE"
	DiscountKindFixed      = "FIXED"
)

// Order is a pending checkout attempt. Its id doubles as the
// caller-visible transaction id used for status polling; the gateway
// session id is assigned once the gateway accepts the charge. The
// reconciliation engine is the only writer.
type Order struct {
	ID               string
	EventID          string
	GatewaySessionID *string
	Status           string
	BuyerName        string
	BuyerEmail       string
	CustomerID       *int64
	PromoCodeID      *string
	Subtotal         float64
	Discount         float64
	ServiceCharge    float64
	Tax              float64
	TotalAmount      float64
	Quantity         int64
	LinkedAttendeeID *string
	Items            []Item
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Item struct {
	ID           int64
	OrderID      string
	TicketTierID string
	EventID      string
	TierName     string
	UnitPrice    float64
	Quantity     int64
}

type PromoCode struct {
	ID            string
	EventID       string
	Code          string
	DiscountKind  string
	DiscountValue float64
	UsageCap      int64
	UsageCount    int64
}

func (p PromoCode) Redeemable() bool {
	return p.UsageCount < p.UsageCap
}

// DiscountFor applies the code to a subtotal. A fixed discount never
// exceeds the subtotal itself.
func (p PromoCode) DiscountFor(subtotal float64) float64 {
	switch p.DiscountKind {
	case DiscountKindPercentage:
		return subtotal * p.DiscountValue / 100
	case DiscountKindFixed:
		if p.DiscountValue > subtotal {
			return subtotal
		}
		return p.DiscountValue
	}

	return 0
}
