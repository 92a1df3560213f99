package postgres

import (
	"fmt"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
)

// toDomainTransaction: maps db models to the aggregate, refunds included.
func toDomainTransaction(m transactionModel, refundModels []refundModel) (*domain.Transaction, error) {
	amount, err := domain.NewMoney(m.Amount, m.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount for transaction %s: %w", m.ID, err)
	}

	refunds := make([]*domain.Refund, 0, len(refundModels))
	for _, rm := range refundModels {
		refund, err := toDomainRefund(rm)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, refund)
	}

	return domain.ReconstituteTransaction(
		m.ID,
		m.ExternalOrderID,
		m.ExternalUserID,
		amount,
		domain.TransactionType(m.Type),
		m.PaymentMethodID,
		domain.TransactionStatus(m.Status),
		m.ProviderTransactionID,
		m.FailureReason,
		refunds,
		m.CreatedAt,
		m.UpdatedAt,
		m.Version,
	), nil
}

// toTransactionModel: maps the aggregate root to its db row. Refund rows are
// persisted separately.
func toTransactionModel(t *domain.Transaction) transactionModel {
	return transactionModel{
		ID:                    t.ID(),
		ExternalOrderID:       t.ExternalOrderID(),
		ExternalUserID:        t.ExternalUserID(),
		Amount:                t.Amount().Amount(),
		Currency:              t.Amount().Currency(),
		Type:                  string(t.Type()),
		PaymentMethodID:       t.PaymentMethodID(),
		Status:                string(t.Status()),
		ProviderTransactionID: t.ProviderTransactionID(),
		FailureReason:         t.FailureReason(),
		CreatedAt:             t.CreatedAt(),
		UpdatedAt:             t.UpdatedAt(),
		Version:               t.Version(),
	}
}

func toDomainRefund(m refundModel) (*domain.Refund, error) {
	amount, err := domain.NewMoney(m.Amount, m.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount for refund %s: %w", m.ID, err)
	}
	return domain.ReconstituteRefund(
		m.ID,
		m.TransactionID,
		amount,
		m.Reason,
		domain.RefundStatus(m.Status),
		m.ProviderRefundID,
		m.FailureReason,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toRefundModel(r *domain.Refund) refundModel {
	return refundModel{
		ID:               r.ID(),
		TransactionID:    r.TransactionID(),
		Amount:           r.Amount().Amount(),
		Currency:         r.Amount().Currency(),
		Reason:           r.Reason(),
		Status:           string(r.Status()),
		ProviderRefundID: r.ProviderRefundID(),
		FailureReason:    r.FailureReason(),
		CreatedAt:        r.CreatedAt(),
		UpdatedAt:        r.UpdatedAt(),
	}
}

func toDomainPaymentMethod(m paymentMethodModel) *domain.PaymentMethod {
	return &domain.PaymentMethod{
		ID:           m.ID,
		Name:         m.Name,
		Type:         domain.PaymentMethodType(m.Type),
		ProviderCode: m.ProviderCode,
		Active:       m.Active,
		Description:  m.Description,
		DisplayOrder: m.DisplayOrder,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toDomainUserPaymentMethod(m userPaymentMethodModel) *domain.UserPaymentMethod {
	return &domain.UserPaymentMethod{
		ID:              m.ID,
		ExternalUserID:  m.ExternalUserID,
		PaymentMethodID: m.PaymentMethodID,
		ProviderToken:   m.ProviderToken,
		MaskedDetails:   m.MaskedDetails,
		IsDefault:       m.IsDefault,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
