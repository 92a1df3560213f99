package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/ports"
)

type refundFixture struct {
	service    *RefundTransactionService
	txRepo     *MockTransactionRepository
	refundRepo *MockRefundRepository
	methods    *MockPaymentMethodRepository
	gateway    *MockProviderGateway
	publisher  *MockEventPublisher
}

func newRefundFixture(t *testing.T) *refundFixture {
	t.Helper()
	txRepo := NewMockTransactionRepository()
	refundRepo := NewMockRefundRepository()
	methods := NewMockPaymentMethodRepository()
	gateway := &MockProviderGateway{}
	publisher := &MockEventPublisher{}
	uow := &MockUnitOfWork{TxRepo: txRepo, RefundRepo: refundRepo}
	return &refundFixture{
		service:    NewRefundTransactionService(txRepo, refundRepo, methods, uow, gateway, publisher, testLogger()),
		txRepo:     txRepo,
		refundRepo: refundRepo,
		methods:    methods,
		gateway:    gateway,
		publisher:  publisher,
	}
}

// seedCompletedTransaction stores a COMPLETED transaction with a provider id,
// as it would come back from the database.
func (f *refundFixture) seedCompletedTransaction(t *testing.T, methodID uuid.UUID, amount string) *domain.Transaction {
	t.Helper()
	m, err := domain.NewMoneyFromString(amount, "USD")
	require.NoError(t, err)
	tx, err := domain.NewTransaction(uuid.New(), uuid.New(), m, domain.TypePayment, methodID)
	require.NoError(t, err)
	require.NoError(t, tx.BeginProcessing())
	require.NoError(t, tx.MarkCompleted("prov-tx-1"))
	tx.ClearEvents()
	f.txRepo.Seed(tx)
	return tx
}

func refundCommand(txID uuid.UUID, amount string) RefundTransactionCommand {
	return RefundTransactionCommand{
		TransactionID: txID,
		Amount:        decimal.RequireFromString(amount),
		Currency:      "USD",
		Reason:        "customer request",
	}
}

func TestRefundTransaction(t *testing.T) {
	t.Run("full refund completes and flips the transaction to refunded", func(t *testing.T) {
		f := newRefundFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedCompletedTransaction(t, method.ID, "100.00")

		refund, err := f.service.Refund(context.Background(), refundCommand(tx.ID(), "100.00"))
		require.NoError(t, err)

		assert.Equal(t, domain.RefundCompleted, refund.Status())
		require.NotNil(t, refund.ProviderRefundID())
		assert.Equal(t, "prov-ref-1", *refund.ProviderRefundID())
		assert.Equal(t, domain.StatusRefunded, tx.Status())

		stored, err := f.refundRepo.FindByID(context.Background(), refund.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.RefundCompleted, stored.Status())

		events := f.publisher.Published()
		require.Len(t, events, 1)
		refunded, ok := events[0].(domain.TransactionRefunded)
		require.True(t, ok)
		assert.Equal(t, string(domain.StatusRefunded), refunded.NewStatus)
	})

	t.Run("partial refund flips the transaction to partially refunded", func(t *testing.T) {
		f := newRefundFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedCompletedTransaction(t, method.ID, "100.00")

		refund, err := f.service.Refund(context.Background(), refundCommand(tx.ID(), "40.00"))
		require.NoError(t, err)

		assert.Equal(t, domain.RefundCompleted, refund.Status())
		assert.Equal(t, domain.StatusPartiallyRefunded, tx.Status())

		remaining, err := tx.RemainingRefundable()
		require.NoError(t, err)
		assert.Equal(t, "USD 60.00", remaining.String())
	})

	t.Run("sequential partial refunds exhaust the balance", func(t *testing.T) {
		f := newRefundFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedCompletedTransaction(t, method.ID, "100.00")

		_, err := f.service.Refund(context.Background(), refundCommand(tx.ID(), "60.00"))
		require.NoError(t, err)
		_, err = f.service.Refund(context.Background(), refundCommand(tx.ID(), "40.00"))
		require.NoError(t, err)

		assert.Equal(t, domain.StatusRefunded, tx.Status())

		_, err = f.service.Refund(context.Background(), refundCommand(tx.ID(), "0.01"))
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidTransactionState))
	})

	t.Run("a second partial refund leaves the balance open", func(t *testing.T) {
		f := newRefundFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedCompletedTransaction(t, method.ID, "100.00")

		_, err := f.service.Refund(context.Background(), refundCommand(tx.ID(), "30.00"))
		require.NoError(t, err)
		second, err := f.service.Refund(context.Background(), refundCommand(tx.ID(), "20.00"))
		require.NoError(t, err)

		assert.Equal(t, domain.RefundCompleted, second.Status())
		assert.Equal(t, domain.StatusPartiallyRefunded, tx.Status())
		stored, err := f.refundRepo.FindByID(context.Background(), second.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.RefundCompleted, stored.Status())

		remaining, err := tx.RemainingRefundable()
		require.NoError(t, err)
		assert.Equal(t, "USD 50.00", remaining.String())
	})

	t.Run("refund over the remaining balance is rejected before any provider call", func(t *testing.T) {
		f := newRefundFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedCompletedTransaction(t, method.ID, "100.00")

		providerCalls := 0
		f.gateway.ProcessRefundFn = func(ctx context.Context, req ports.RefundRequest) (*ports.RefundResult, error) {
			providerCalls++
			return &ports.RefundResult{Success: true, ProviderRefundID: "prov-ref-1"}, nil
		}

		_, err := f.service.Refund(context.Background(), refundCommand(tx.ID(), "150.00"))
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeRefundExceedsTransaction))
		assert.Zero(t, providerCalls)
	})

	t.Run("transactions outside refundable statuses are rejected", func(t *testing.T) {
		f := newRefundFixture(t)
		method := seedCreditCardMethod(t, f.methods)

		amount, err := domain.NewMoneyFromString("100.00", "USD")
		require.NoError(t, err)
		tx, err := domain.NewTransaction(uuid.New(), uuid.New(), amount, domain.TypePayment, method.ID)
		require.NoError(t, err)
		tx.ClearEvents()
		f.txRepo.Seed(tx)

		_, err = f.service.Refund(context.Background(), refundCommand(tx.ID(), "10.00"))
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidTransactionState))
	})

	t.Run("bank transfers cannot be refunded", func(t *testing.T) {
		f := newRefundFixture(t)
		method, err := domain.NewPaymentMethod("SEPA", domain.MethodBankTransfer, "stripe_sepa")
		require.NoError(t, err)
		f.methods.Seed(method)
		tx := f.seedCompletedTransaction(t, method.ID, "100.00")

		_, err = f.service.Refund(context.Background(), refundCommand(tx.ID(), "10.00"))
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodePaymentMethodNoRefunds))
	})

	t.Run("definite provider failure fails the refund and releases the balance", func(t *testing.T) {
		f := newRefundFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedCompletedTransaction(t, method.ID, "100.00")
		f.gateway.ProcessRefundFn = func(ctx context.Context, req ports.RefundRequest) (*ports.RefundResult, error) {
			return &ports.RefundResult{Success: false, ErrorCode: "charge_disputed", ErrorMessage: "charge is disputed"}, nil
		}

		refund, err := f.service.Refund(context.Background(), refundCommand(tx.ID(), "100.00"))
		require.NoError(t, err)

		assert.Equal(t, domain.RefundFailed, refund.Status())
		require.NotNil(t, refund.FailureReason())
		assert.Equal(t, "charge is disputed", *refund.FailureReason())
		assert.Equal(t, domain.StatusCompleted, tx.Status())

		// The failed refund no longer reserves balance; a retry in full works.
		f.gateway.ProcessRefundFn = nil
		retried, err := f.service.Refund(context.Background(), refundCommand(tx.ID(), "100.00"))
		require.NoError(t, err)
		assert.Equal(t, domain.RefundCompleted, retried.Status())
		assert.Equal(t, domain.StatusRefunded, tx.Status())
	})

	t.Run("ambiguous provider outcome leaves the refund in processing", func(t *testing.T) {
		f := newRefundFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedCompletedTransaction(t, method.ID, "100.00")
		f.gateway.ProcessRefundFn = func(ctx context.Context, req ports.RefundRequest) (*ports.RefundResult, error) {
			return nil, context.DeadlineExceeded
		}

		refund, err := f.service.Refund(context.Background(), refundCommand(tx.ID(), "100.00"))
		require.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeProviderOutcomeUnknown))
		require.NotNil(t, refund)
		assert.Equal(t, domain.RefundProcessing, refund.Status())
		assert.Equal(t, domain.StatusCompleted, tx.Status())

		// The in-flight refund still reserves the balance.
		_, err = f.service.Refund(context.Background(), refundCommand(tx.ID(), "100.00"))
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeRefundExceedsTransaction))
	})

	t.Run("version conflict aborts before the provider is called", func(t *testing.T) {
		f := newRefundFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedCompletedTransaction(t, method.ID, "100.00")

		f.txRepo.UpdateFn = func(ctx context.Context, tx *domain.Transaction) error {
			return domain.NewConcurrentModificationError(tx.ID(), tx.Version())
		}
		providerCalls := 0
		f.gateway.ProcessRefundFn = func(ctx context.Context, req ports.RefundRequest) (*ports.RefundResult, error) {
			providerCalls++
			return &ports.RefundResult{Success: true, ProviderRefundID: "prov-ref-1"}, nil
		}

		_, err := f.service.Refund(context.Background(), refundCommand(tx.ID(), "50.00"))
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeConcurrentModification))
		assert.Zero(t, providerCalls)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		f := newRefundFixture(t)

		_, err := f.service.Refund(context.Background(), refundCommand(uuid.New(), "10.00"))
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeTransactionNotFound))
	})
}
