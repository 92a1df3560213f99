package service

import (
	"context"
	"log/slog"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/ports"
)

// CreateTransactionService opens new transactions in PENDING. No provider
// call happens here; processing is a separate step.
type CreateTransactionService struct {
	transactions   ports.TransactionRepository
	paymentMethods ports.PaymentMethodRepository
	publisher      ports.EventPublisher
	logger         *slog.Logger
}

func NewCreateTransactionService(
	transactions ports.TransactionRepository,
	paymentMethods ports.PaymentMethodRepository,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) *CreateTransactionService {
	return &CreateTransactionService{
		transactions:   transactions,
		paymentMethods: paymentMethods,
		publisher:      publisher,
		logger:         logger,
	}
}

func (s *CreateTransactionService) Create(ctx context.Context, cmd CreateTransactionCommand) (*domain.Transaction, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	method, err := s.paymentMethods.FindByID(ctx, cmd.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	if !method.Active {
		return nil, domain.NewPaymentMethodNotActiveError(method.ID)
	}

	amount, err := domain.NewMoney(cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, err
	}

	tx, err := domain.NewTransaction(cmd.ExternalOrderID, cmd.ExternalUserID, amount, cmd.Type, cmd.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("transaction created",
		"transaction_id", tx.ID(),
		"order_id", tx.ExternalOrderID(),
		"amount", tx.Amount().String(),
	)

	publishEvents(ctx, s.publisher, tx, s.logger)
	return tx, nil
}
