package service

import (
	"context"
	"log/slog"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/ports"
)

// RefundTransactionService reconciles a refund request against the
// transaction's refundable balance and drives it through the provider. The
// refund is persisted in PROCESSING before the provider call (reserving its
// slice of the balance), and the transaction is always persisted last so a
// crash mid-sequence can never leave a completed refund next to a stale
// balance.
type RefundTransactionService struct {
	transactions   ports.TransactionRepository
	refunds        ports.RefundRepository
	paymentMethods ports.PaymentMethodRepository
	uow            ports.UnitOfWork
	provider       ports.PaymentProviderGateway
	publisher      ports.EventPublisher
	logger         *slog.Logger
}

func NewRefundTransactionService(
	transactions ports.TransactionRepository,
	refunds ports.RefundRepository,
	paymentMethods ports.PaymentMethodRepository,
	uow ports.UnitOfWork,
	provider ports.PaymentProviderGateway,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) *RefundTransactionService {
	return &RefundTransactionService{
		transactions:   transactions,
		refunds:        refunds,
		paymentMethods: paymentMethods,
		uow:            uow,
		provider:       provider,
		publisher:      publisher,
		logger:         logger,
	}
}

func (s *RefundTransactionService) Refund(ctx context.Context, cmd RefundTransactionCommand) (*domain.Refund, error) {
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
	if !method.Type.SupportsRefund() {
		return nil, domain.NewPaymentMethodNoRefundsError(method.Type)
	}

	amount, err := domain.NewMoney(cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, err
	}

	refund, err := tx.RequestRefund(amount, cmd.Reason)
	if err != nil {
		return nil, err
	}
	if err := refund.Approve(); err != nil {
		return nil, err
	}
	if err := refund.MarkProcessing(); err != nil {
		return nil, err
	}

	// Persist the in-flight refund together with the version bump on the
	// transaction before anything leaves the process. A concurrent refund of
	// the same transaction fails here with a version conflict.
	err = s.uow.WithTransaction(ctx, func(txRepo ports.TransactionRepository, refundRepo ports.RefundRepository) error {
		if err := refundRepo.Save(ctx, refund); err != nil {
			return err
		}
		return txRepo.Update(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	providerTxID := tx.ProviderTransactionID()
	if providerTxID == nil {
		// AllowsRefund implies a completed provider call; a nil id here means
		// corrupted state, not a business rejection.
		return nil, domain.NewProviderError("transaction has no provider transaction id", nil)
	}

	result, providerErr := s.provider.ProcessRefund(ctx, ports.RefundRequest{
		RefundID:              refund.ID(),
		ProviderTransactionID: *providerTxID,
		Amount:                amount,
		Reason:                cmd.Reason,
	})

	if providerErr != nil {
		if outcomeUnknown(providerErr) {
			s.logger.Warn("provider refund outcome unknown, leaving refund in processing",
				"refund_id", refund.ID(),
				"transaction_id", tx.ID(),
				"error", providerErr,
			)
			return refund, domain.NewProviderOutcomeUnknownError(providerErr)
		}
		return s.failRefund(ctx, refund, providerErr.Error())
	}

	if !result.Success {
		return s.failRefund(ctx, refund, result.ErrorMessage)
	}

	if err := refund.MarkCompleted(result.ProviderRefundID); err != nil {
		return nil, err
	}
	if err := tx.RegisterRefund(refund); err != nil {
		return nil, err
	}

	err = s.uow.WithTransaction(ctx, func(txRepo ports.TransactionRepository, refundRepo ports.RefundRepository) error {
		if err := refundRepo.Save(ctx, refund); err != nil {
			return err
		}
		return txRepo.Update(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("refund completed",
		"refund_id", refund.ID(),
		"transaction_id", tx.ID(),
		"amount", amount.String(),
		"transaction_status", tx.Status(),
	)

	publishEvents(ctx, s.publisher, tx, s.logger)
	return refund, nil
}

// failRefund records a definite provider failure on the refund. The
// transaction's balance is untouched; the failed refund releases its
// reservation.
func (s *RefundTransactionService) failRefund(ctx context.Context, refund *domain.Refund, reason string) (*domain.Refund, error) {
	if err := refund.MarkFailed(reason); err != nil {
		return nil, err
	}
	if err := s.refunds.Save(ctx, refund); err != nil {
		return nil, err
	}
	s.logger.Info("refund failed",
		"refund_id", refund.ID(),
		"reason", reason,
	)
	return refund, nil
}
