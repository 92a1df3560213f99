package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/ports"
)

// Reconciler settles transactions and refunds stranded in PROCESSING after an
// ambiguous provider outcome. It asks the provider what actually happened,
// using the reference ids the orchestrator sent, and applies the verdict.
type Reconciler struct {
	transactions ports.TransactionRepository
	refunds      ports.RefundRepository
	uow          ports.UnitOfWork
	provider     ports.PaymentProviderGateway
	publisher    ports.EventPublisher
	interval     time.Duration
	stuckAfter   time.Duration
	batchSize    int
	logger       *slog.Logger
}

func NewReconciler(
	transactions ports.TransactionRepository,
	refunds ports.RefundRepository,
	uow ports.UnitOfWork,
	provider ports.PaymentProviderGateway,
	publisher ports.EventPublisher,
	interval time.Duration,
	stuckAfter time.Duration,
	batchSize int,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		transactions: transactions,
		refunds:      refunds,
		uow:          uow,
		provider:     provider,
		publisher:    publisher,
		interval:     interval,
		stuckAfter:   stuckAfter,
		batchSize:    batchSize,
		logger:       logger,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("starting background reconciler",
		"interval", r.interval,
		"stuck_after", r.stuckAfter,
		"batch_size", r.batchSize,
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping background reconciler")
			return
		case <-ticker.C:
			r.run(ctx)
		}
	}
}

// RunOnce executes a single reconciliation cycle.
func (r *Reconciler) RunOnce(ctx context.Context) {
	r.run(ctx)
}

func (r *Reconciler) run(ctx context.Context) {
	r.reconcileStuckTransactions(ctx)
	r.reconcileStuckRefunds(ctx)
}

func (r *Reconciler) reconcileStuckTransactions(ctx context.Context) {
	stuck, err := r.transactions.FindByStatus(ctx, domain.StatusProcessing, r.batchSize)
	if err != nil {
		r.logger.Error("failed to fetch processing transactions", "error", err)
		return
	}

	cutoff := time.Now().UTC().Add(-r.stuckAfter)
	for _, tx := range stuck {
		if tx.UpdatedAt().After(cutoff) {
			// Freshly in flight; the orchestrator may still settle it.
			continue
		}
		r.reconcileTransaction(ctx, tx)
	}
}

func (r *Reconciler) reconcileTransaction(ctx context.Context, tx *domain.Transaction) {
	status, err := r.provider.GetPayment(ctx, tx.ID())
	if err != nil {
		r.logger.Error("failed to query provider for stuck transaction",
			"transaction_id", tx.ID(),
			"error", err,
		)
		return
	}

	switch {
	case !status.Known:
		// The request never reached provider records: nothing was charged.
		err = tx.MarkFailed("payment request never reached the provider")
	case status.Success:
		err = tx.MarkCompleted(status.ProviderTransactionID)
	default:
		err = tx.MarkFailed(status.ErrorMessage)
	}
	if err != nil {
		r.logger.Error("failed to apply provider verdict",
			"transaction_id", tx.ID(),
			"error", err,
		)
		return
	}

	if err := r.transactions.Update(ctx, tx); err != nil {
		// A version conflict means someone else settled it; next tick verifies.
		r.logger.Warn("failed to persist reconciled transaction",
			"transaction_id", tx.ID(),
			"error", err,
		)
		return
	}

	r.logger.Info("reconciled stuck transaction",
		"transaction_id", tx.ID(),
		"new_status", tx.Status(),
	)
	r.publishEvents(ctx, tx)
}

func (r *Reconciler) reconcileStuckRefunds(ctx context.Context) {
	stuck, err := r.refunds.FindByStatus(ctx, domain.RefundProcessing, r.batchSize)
	if err != nil {
		r.logger.Error("failed to fetch processing refunds", "error", err)
		return
	}

	cutoff := time.Now().UTC().Add(-r.stuckAfter)
	for _, refund := range stuck {
		if refund.UpdatedAt().After(cutoff) {
			continue
		}
		r.reconcileRefund(ctx, refund)
	}
}

func (r *Reconciler) reconcileRefund(ctx context.Context, refund *domain.Refund) {
	status, err := r.provider.GetRefund(ctx, refund.ID())
	if err != nil {
		r.logger.Error("failed to query provider for stuck refund",
			"refund_id", refund.ID(),
			"error", err,
		)
		return
	}

	if !status.Known {
		r.failRefund(ctx, refund, "refund request never reached the provider")
		return
	}
	if !status.Success {
		r.failRefund(ctx, refund, status.ErrorMessage)
		return
	}

	if err := refund.MarkCompleted(status.ProviderRefundID); err != nil {
		r.logger.Error("failed to complete reconciled refund", "refund_id", refund.ID(), "error", err)
		return
	}

	tx, err := r.transactions.FindByID(ctx, refund.TransactionID())
	if err != nil {
		r.logger.Error("failed to load transaction for reconciled refund",
			"refund_id", refund.ID(),
			"transaction_id", refund.TransactionID(),
			"error", err,
		)
		return
	}
	if err := tx.RegisterRefund(refund); err != nil {
		r.logger.Error("failed to register reconciled refund",
			"refund_id", refund.ID(),
			"transaction_id", tx.ID(),
			"error", err,
		)
		return
	}

	err = r.uow.WithTransaction(ctx, func(txRepo ports.TransactionRepository, refundRepo ports.RefundRepository) error {
		if err := refundRepo.Save(ctx, refund); err != nil {
			return err
		}
		return txRepo.Update(ctx, tx)
	})
	if err != nil {
		r.logger.Warn("failed to persist reconciled refund",
			"refund_id", refund.ID(),
			"transaction_id", tx.ID(),
			"error", err,
		)
		return
	}

	r.logger.Info("reconciled stuck refund",
		"refund_id", refund.ID(),
		"transaction_id", tx.ID(),
		"transaction_status", tx.Status(),
	)
	r.publishEvents(ctx, tx)
}

func (r *Reconciler) failRefund(ctx context.Context, refund *domain.Refund, reason string) {
	if err := refund.MarkFailed(reason); err != nil {
		r.logger.Error("failed to fail reconciled refund", "refund_id", refund.ID(), "error", err)
		return
	}
	if err := r.refunds.Save(ctx, refund); err != nil {
		r.logger.Error("failed to persist failed refund", "refund_id", refund.ID(), "error", err)
		return
	}
	r.logger.Info("reconciled stuck refund as failed",
		"refund_id", refund.ID(),
		"reason", reason,
	)
}

func (r *Reconciler) publishEvents(ctx context.Context, tx *domain.Transaction) {
	for _, event := range tx.PendingEvents() {
		if err := r.publisher.Publish(ctx, event); err != nil {
			r.logger.Warn("failed to publish reconciliation event",
				"event_type", event.EventType(),
				"transaction_id", tx.ID(),
				"error", err,
			)
		}
	}
	tx.ClearEvents()
}
