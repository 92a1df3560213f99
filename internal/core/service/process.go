package service

import (
	"context"
	"log/slog"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/ports"
)

// ProcessTransactionService sequences a payment through the provider:
// PENDING → PROCESSING is persisted before the call, so a crash or a timeout
// leaves a visible in-flight row for the reconciler instead of a silent
// retry that could double-charge.
type ProcessTransactionService struct {
	transactions   ports.TransactionRepository
	paymentMethods ports.PaymentMethodRepository
	provider       ports.PaymentProviderGateway
	publisher      ports.EventPublisher
	logger         *slog.Logger
}

func NewProcessTransactionService(
	transactions ports.TransactionRepository,
	paymentMethods ports.PaymentMethodRepository,
	provider ports.PaymentProviderGateway,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) *ProcessTransactionService {
	return &ProcessTransactionService{
		transactions:   transactions,
		paymentMethods: paymentMethods,
		provider:       provider,
		publisher:      publisher,
		logger:         logger,
	}
}

func (s *ProcessTransactionService) Process(ctx context.Context, cmd ProcessTransactionCommand) (*domain.Transaction, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.transactions.FindByID(ctx, cmd.TransactionID)
	if err != nil {
		return nil, err
	}

	method, err := s.paymentMethods.FindByID(ctx, tx.PaymentMethodID())
	if err != nil {
		return nil, err
	}
	if method.Type.RequiresCardDetails() && cmd.CardToken == "" {
		return nil, domain.NewMissingRequiredFieldError("card token")
	}

	if err := tx.BeginProcessing(); err != nil {
		return nil, err
	}
	if err := s.transactions.Update(ctx, tx); err != nil {
		return nil, err
	}

	result, providerErr := s.provider.ProcessPayment(ctx, ports.PaymentRequest{
		TransactionID:   tx.ID(),
		OrderID:         tx.ExternalOrderID(),
		Amount:          tx.Amount(),
		PaymentMethodID: tx.PaymentMethodID(),
		CardToken:       cmd.CardToken,
		CVV:             cmd.CVV,
	})

	if providerErr != nil {
		if outcomeUnknown(providerErr) {
			// Money may be in flight. Leave the transaction in PROCESSING;
			// the reconciler will settle it against the provider's records.
			s.logger.Warn("provider outcome unknown, leaving transaction in processing",
				"transaction_id", tx.ID(),
				"error", providerErr,
			)
			return tx, domain.NewProviderOutcomeUnknownError(providerErr)
		}
		if err := tx.MarkFailed(providerErr.Error()); err != nil {
			return nil, err
		}
	} else if result.Success {
		if err := tx.MarkCompleted(result.ProviderTransactionID); err != nil {
			return nil, err
		}
	} else {
		if err := tx.MarkFailed(result.ErrorMessage); err != nil {
			return nil, err
		}
	}

	if err := s.transactions.Update(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("transaction processed",
		"transaction_id", tx.ID(),
		"status", tx.Status(),
	)

	publishEvents(ctx, s.publisher, tx, s.logger)
	return tx, nil
}

// Cancel aborts a transaction that has not reached the provider, or one the
// provider has not yet settled.
func (s *ProcessTransactionService) Cancel(ctx context.Context, cmd CancelTransactionCommand) (*domain.Transaction, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.transactions.FindByID(ctx, cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	if err := tx.Cancel(); err != nil {
		return nil, err
	}
	if err := s.transactions.Update(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("transaction cancelled", "transaction_id", tx.ID())

	publishEvents(ctx, s.publisher, tx, s.logger)
	return tx, nil
}
