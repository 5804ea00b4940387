package order

// PaymentNotificationEvent is the gateway's asynchronous callback.
// TransactionID is the gateway session identifier assigned when the
// transaction was created. Deliveries may repeat and arrive in any
// order relative to other sessions.
type PaymentNotificationEvent struct {
	TransactionID     string `json:"transaction_id" validate:"required"`
	TransactionStatus string `json:"transaction_status" validate:"required"`
	OrderID           string `json:"order_id"`
}
