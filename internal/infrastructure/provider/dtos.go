package provider

import "time"

type paymentRequest struct {
	ReferenceID     string `json:"reference_id"`
	OrderID         string `json:"order_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	PaymentMethodID string `json:"payment_method_id"`
	CardToken       string `json:"card_token,omitempty"`
	Cvv             string `json:"cvv,omitempty"`
}

type paymentResponse struct {
	ID           string    `json:"id"`
	ReferenceID  string    `json:"reference_id"`
	Amount       string    `json:"amount"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	DeclineCode  string    `json:"decline_code,omitempty"`
	DeclineText  string    `json:"decline_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ProcessedAt  time.Time `json:"processed_at"`
}

type refundRequest struct {
	ReferenceID string `json:"reference_id"`
	PaymentID   string `json:"payment_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Reason      string `json:"reason,omitempty"`
}

type refundResponse struct {
	ID          string    `json:"id"`
	ReferenceID string    `json:"reference_id"`
	PaymentID   string    `json:"payment_id"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	DeclineCode string    `json:"decline_code,omitempty"`
	DeclineText string    `json:"decline_reason,omitempty"`
	RefundedAt  time.Time `json:"refunded_at"`
}

type tokenValidationRequest struct {
	Token string `json:"token"`
}

type tokenValidationResponse struct {
	Valid bool `json:"valid"`
}

// Terminal provider statuses on the wire.
const (
	wireStatusSucceeded = "succeeded"
	wireStatusFailed    = "failed"
)
