package midtrans

// Transaction statuses delivered by the payment notification webhook.
const (
	StatusSettlement = "settlement"
	StatusCapture    = "capture"
	StatusDeny       = "deny"
	StatusCancel     = "cancel"
	StatusExpire     = "expire"
	StatusPending    = "pending"
)

type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type ItemDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type CustomerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email,omitempty"`
}

type Callbacks struct {
	Finish string `json:"finish"`
	Error  string `json:"error"`
}

type CreateTransactionRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	ItemDetails        []ItemDetail       `json:"item_details"`
	CustomerDetails    CustomerDetails    `json:"customer_details"`
	Callbacks          Callbacks          `json:"callbacks"`
	// SettlementAccountID routes the funds to the event organizer's
	// receiving account.
	SettlementAccountID string `json:"settlement_account_id"`
}

type CreateTransactionResponse struct {
	// TransactionID is the gateway's session identifier; payment
	// notifications reference it.
	TransactionID string `json:"transaction_id"`
	Token         string `json:"token"`
	RedirectURL   string `json:"redirect_url"`
}
