package rest

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
)

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type transactionResponse struct {
	ID                    uuid.UUID        `json:"id"`
	ExternalOrderID       uuid.UUID        `json:"external_order_id"`
	ExternalUserID        uuid.UUID        `json:"external_user_id"`
	Amount                domain.Money     `json:"amount"`
	Type                  string           `json:"type"`
	PaymentMethodID       uuid.UUID        `json:"payment_method_id"`
	Status                string           `json:"status"`
	ProviderTransactionID *string          `json:"provider_transaction_id,omitempty"`
	FailureReason         *string          `json:"failure_reason,omitempty"`
	Refunds               []refundResponse `json:"refunds,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

type refundResponse struct {
	ID               uuid.UUID    `json:"id"`
	TransactionID    uuid.UUID    `json:"transaction_id"`
	Amount           domain.Money `json:"amount"`
	Reason           string       `json:"reason"`
	Status           string       `json:"status"`
	ProviderRefundID *string      `json:"provider_refund_id,omitempty"`
	FailureReason    *string      `json:"failure_reason,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

type paymentMethodResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Type               string    `json:"type"`
	Description        string    `json:"description,omitempty"`
	SupportsRecurring  bool      `json:"supports_recurring"`
	RequiresCardDetail bool      `json:"requires_card_details"`
	SupportsRefund     bool      `json:"supports_refund"`
}

type userPaymentMethodResponse struct {
	ID              uuid.UUID `json:"id"`
	PaymentMethodID uuid.UUID `json:"payment_method_id"`
	MaskedDetails   string    `json:"masked_details"`
	IsDefault       bool      `json:"is_default"`
	CreatedAt       time.Time `json:"created_at"`
}

type refundRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Reason   string          `json:"reason"`
}

type saveUserPaymentMethodRequest struct {
	PaymentMethodID uuid.UUID `json:"payment_method_id"`
	ProviderToken   string    `json:"provider_token"`
	MaskedDetails   string    `json:"masked_details"`
	IsDefault       bool      `json:"is_default"`
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	refunds := tx.Refunds()
	refundDTOs := make([]refundResponse, 0, len(refunds))
	for _, r := range refunds {
		refundDTOs = append(refundDTOs, toRefundResponse(r))
	}

	return transactionResponse{
		ID:                    tx.ID(),
		ExternalOrderID:       tx.ExternalOrderID(),
		ExternalUserID:        tx.ExternalUserID(),
		Amount:                tx.Amount(),
		Type:                  string(tx.Type()),
		PaymentMethodID:       tx.PaymentMethodID(),
		Status:                string(tx.Status()),
		ProviderTransactionID: tx.ProviderTransactionID(),
		FailureReason:         tx.FailureReason(),
		Refunds:               refundDTOs,
		CreatedAt:             tx.CreatedAt(),
		UpdatedAt:             tx.UpdatedAt(),
	}
}

func toRefundResponse(r *domain.Refund) refundResponse {
	return refundResponse{
		ID:               r.ID(),
		TransactionID:    r.TransactionID(),
		Amount:           r.Amount(),
		Reason:           r.Reason(),
		Status:           string(r.Status()),
		ProviderRefundID: r.ProviderRefundID(),
		FailureReason:    r.FailureReason(),
		CreatedAt:        r.CreatedAt(),
		UpdatedAt:        r.UpdatedAt(),
	}
}

func toPaymentMethodResponse(m *domain.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{
		ID:                 m.ID,
		Name:               m.Name,
		Type:               string(m.Type),
		Description:        m.Description,
		SupportsRecurring:  m.Type.SupportsRecurring(),
		RequiresCardDetail: m.Type.RequiresCardDetails(),
		SupportsRefund:     m.Type.SupportsRefund(),
	}
}

func toUserPaymentMethodResponse(m *domain.UserPaymentMethod) userPaymentMethodResponse {
	return userPaymentMethodResponse{
		ID:              m.ID,
		PaymentMethodID: m.PaymentMethodID,
		MaskedDetails:   m.MaskedDetails,
		IsDefault:       m.IsDefault,
		CreatedAt:       m.CreatedAt,
	}
}
