package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/ports"
)

type processFixture struct {
	service   *ProcessTransactionService
	txRepo    *MockTransactionRepository
	methods   *MockPaymentMethodRepository
	gateway   *MockProviderGateway
	publisher *MockEventPublisher
}

func newProcessFixture(t *testing.T) *processFixture {
	t.Helper()
	txRepo := NewMockTransactionRepository()
	methods := NewMockPaymentMethodRepository()
	gateway := &MockProviderGateway{}
	publisher := &MockEventPublisher{}
	return &processFixture{
		service:   NewProcessTransactionService(txRepo, methods, gateway, publisher, testLogger()),
		txRepo:    txRepo,
		methods:   methods,
		gateway:   gateway,
		publisher: publisher,
	}
}

// seedPendingTransaction stores a fresh PENDING transaction with a drained
// outbox, as it would come back from the database.
func (f *processFixture) seedPendingTransaction(t *testing.T, methodID uuid.UUID) *domain.Transaction {
	t.Helper()
	amount, err := domain.NewMoneyFromString("100.00", "USD")
	require.NoError(t, err)
	tx, err := domain.NewTransaction(uuid.New(), uuid.New(), amount, domain.TypePayment, methodID)
	require.NoError(t, err)
	tx.ClearEvents()
	f.txRepo.Seed(tx)
	return tx
}

func TestProcessTransaction(t *testing.T) {
	t.Run("successful payment completes the transaction", func(t *testing.T) {
		f := newProcessFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedPendingTransaction(t, method.ID)

		got, err := f.service.Process(context.Background(), ProcessTransactionCommand{
			TransactionID: tx.ID(),
			CardToken:     "tok_visa",
			CVV:           "123",
		})
		require.NoError(t, err)

		assert.Equal(t, domain.StatusCompleted, got.Status())
		require.NotNil(t, got.ProviderTransactionID())
		assert.Equal(t, "prov-tx-1", *got.ProviderTransactionID())
		// Two persisted updates: PROCESSING, then COMPLETED.
		assert.Equal(t, int64(3), got.Version())

		events := f.publisher.Published()
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventTypeTransactionProcessed, events[0].EventType())
	})

	t.Run("definite decline fails the transaction without an error", func(t *testing.T) {
		f := newProcessFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedPendingTransaction(t, method.ID)
		f.gateway.ProcessPaymentFn = func(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
			return &ports.PaymentResult{Success: false, ErrorCode: "card_declined", ErrorMessage: "insufficient funds"}, nil
		}

		got, err := f.service.Process(context.Background(), ProcessTransactionCommand{
			TransactionID: tx.ID(),
			CardToken:     "tok_visa",
		})
		require.NoError(t, err)

		assert.Equal(t, domain.StatusFailed, got.Status())
		require.NotNil(t, got.FailureReason())
		assert.Equal(t, "insufficient funds", *got.FailureReason())

		events := f.publisher.Published()
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventTypeTransactionFailed, events[0].EventType())
	})

	t.Run("definite provider error fails the transaction", func(t *testing.T) {
		f := newProcessFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedPendingTransaction(t, method.ID)
		f.gateway.ProcessPaymentFn = func(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
			return nil, errors.New("invalid card token")
		}

		got, err := f.service.Process(context.Background(), ProcessTransactionCommand{
			TransactionID: tx.ID(),
			CardToken:     "tok_bad",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, got.Status())
	})

	t.Run("timeout leaves the transaction in processing", func(t *testing.T) {
		f := newProcessFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedPendingTransaction(t, method.ID)
		f.gateway.ProcessPaymentFn = func(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
			return nil, context.DeadlineExceeded
		}

		got, err := f.service.Process(context.Background(), ProcessTransactionCommand{
			TransactionID: tx.ID(),
			CardToken:     "tok_visa",
		})
		require.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeProviderOutcomeUnknown))

		// No FAILED, no COMPLETED: the reconciler owns this row now.
		assert.Equal(t, domain.StatusProcessing, got.Status())
		stored, findErr := f.txRepo.FindByID(context.Background(), tx.ID())
		require.NoError(t, findErr)
		assert.Equal(t, domain.StatusProcessing, stored.Status())
		assert.Empty(t, f.publisher.Published())
	})

	t.Run("card methods require a token", func(t *testing.T) {
		f := newProcessFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedPendingTransaction(t, method.ID)

		_, err := f.service.Process(context.Background(), ProcessTransactionCommand{
			TransactionID: tx.ID(),
		})
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeValidation))
		assert.Equal(t, domain.StatusPending, tx.Status())
	})

	t.Run("unknown transaction", func(t *testing.T) {
		f := newProcessFixture(t)

		_, err := f.service.Process(context.Background(), ProcessTransactionCommand{
			TransactionID: uuid.New(),
			CardToken:     "tok_visa",
		})
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeTransactionNotFound))
	})

	t.Run("concurrent modification surfaces before the provider is called", func(t *testing.T) {
		f := newProcessFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedPendingTransaction(t, method.ID)

		// Another writer bumped the version after this request loaded the row.
		f.txRepo.UpdateFn = func(ctx context.Context, tx *domain.Transaction) error {
			return domain.NewConcurrentModificationError(tx.ID(), tx.Version())
		}
		providerCalls := 0
		f.gateway.ProcessPaymentFn = func(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
			providerCalls++
			return &ports.PaymentResult{Success: true, ProviderTransactionID: "prov-tx-1"}, nil
		}

		_, err := f.service.Process(context.Background(), ProcessTransactionCommand{
			TransactionID: tx.ID(),
			CardToken:     "tok_visa",
		})
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeConcurrentModification))
		assert.Zero(t, providerCalls, "provider must not be called on a stale aggregate")
	})

	t.Run("already processed transaction cannot be processed again", func(t *testing.T) {
		f := newProcessFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedPendingTransaction(t, method.ID)
		require.NoError(t, tx.BeginProcessing())
		require.NoError(t, tx.MarkCompleted("prov-tx-1"))
		tx.ClearEvents()

		_, err := f.service.Process(context.Background(), ProcessTransactionCommand{
			TransactionID: tx.ID(),
			CardToken:     "tok_visa",
		})
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidStateTransition))
	})
}

func TestCancelTransaction(t *testing.T) {
	t.Run("cancels a pending transaction", func(t *testing.T) {
		f := newProcessFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedPendingTransaction(t, method.ID)

		got, err := f.service.Cancel(context.Background(), CancelTransactionCommand{TransactionID: tx.ID()})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, got.Status())

		events := f.publisher.Published()
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventTypeTransactionCancelled, events[0].EventType())
	})

	t.Run("cannot cancel a completed transaction", func(t *testing.T) {
		f := newProcessFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		tx := f.seedPendingTransaction(t, method.ID)
		require.NoError(t, tx.BeginProcessing())
		require.NoError(t, tx.MarkCompleted("prov-tx-1"))
		tx.ClearEvents()

		_, err := f.service.Cancel(context.Background(), CancelTransactionCommand{TransactionID: tx.ID()})
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidStateTransition))
	})
}
