package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/ports"
)

// QueryService answers read-only lookups over transactions and refunds.
type QueryService struct {
	transactions ports.TransactionRepository
	refunds      ports.RefundRepository
}

func NewQueryService(transactions ports.TransactionRepository, refunds ports.RefundRepository) *QueryService {
	return &QueryService{
		transactions: transactions,
		refunds:      refunds,
	}
}

func (s *QueryService) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.transactions.FindByID(ctx, id)
}

func (s *QueryService) GetTransactionByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Transaction, error) {
	return s.transactions.FindByExternalOrderID(ctx, orderID)
}

func (s *QueryService) GetTransactionsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.transactions.FindByExternalUserID(ctx, userID, limit, offset)
}

func (s *QueryService) GetTransactionsByStatus(ctx context.Context, status domain.TransactionStatus, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.transactions.FindByStatus(ctx, status, limit)
}

func (s *QueryService) TransactionExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.transactions.ExistsByID(ctx, id)
}

func (s *QueryService) GetRefund(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	return s.refunds.FindByID(ctx, id)
}

func (s *QueryService) GetRefundsByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*domain.Refund, error) {
	return s.refunds.FindByTransactionID(ctx, transactionID)
}

func (s *QueryService) GetRefundsByStatus(ctx context.Context, status domain.RefundStatus, limit int) ([]*domain.Refund, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.refunds.FindByStatus(ctx, status, limit)
}
