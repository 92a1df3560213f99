package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedCreditCardMethod(t *testing.T, repo *MockPaymentMethodRepository) *domain.PaymentMethod {
	t.Helper()
	method, err := domain.NewPaymentMethod("Visa", domain.MethodCreditCard, "stripe_card")
	require.NoError(t, err)
	repo.Seed(method)
	return method
}

type createFixture struct {
	service   *CreateTransactionService
	txRepo    *MockTransactionRepository
	methods   *MockPaymentMethodRepository
	publisher *MockEventPublisher
}

func newCreateFixture(t *testing.T) *createFixture {
	t.Helper()
	txRepo := NewMockTransactionRepository()
	methods := NewMockPaymentMethodRepository()
	publisher := &MockEventPublisher{}
	return &createFixture{
		service:   NewCreateTransactionService(txRepo, methods, publisher, testLogger()),
		txRepo:    txRepo,
		methods:   methods,
		publisher: publisher,
	}
}

func validCreateCommand(methodID uuid.UUID) CreateTransactionCommand {
	return CreateTransactionCommand{
		ExternalOrderID: uuid.New(),
		ExternalUserID:  uuid.New(),
		Amount:          decimal.RequireFromString("100.00"),
		Currency:        "USD",
		Type:            domain.TypePayment,
		PaymentMethodID: methodID,
	}
}

func TestCreateTransaction(t *testing.T) {
	t.Run("creates a pending transaction and publishes the event", func(t *testing.T) {
		f := newCreateFixture(t)
		method := seedCreditCardMethod(t, f.methods)

		tx, err := f.service.Create(context.Background(), validCreateCommand(method.ID))
		require.NoError(t, err)

		assert.Equal(t, domain.StatusPending, tx.Status())
		assert.Equal(t, "USD 100.00", tx.Amount().String())

		stored, err := f.txRepo.FindByID(context.Background(), tx.ID())
		require.NoError(t, err)
		assert.Equal(t, tx.ID(), stored.ID())

		events := f.publisher.Published()
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventTypeTransactionCreated, events[0].EventType())
		assert.Empty(t, tx.PendingEvents(), "outbox should be drained after publish")
	})

	t.Run("unknown payment method", func(t *testing.T) {
		f := newCreateFixture(t)

		_, err := f.service.Create(context.Background(), validCreateCommand(uuid.New()))
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodePaymentMethodNotFound))
	})

	t.Run("inactive payment method", func(t *testing.T) {
		f := newCreateFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		method.Deactivate()

		_, err := f.service.Create(context.Background(), validCreateCommand(method.ID))
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodePaymentMethodNotActive))
	})

	t.Run("invalid command rejected before any lookup", func(t *testing.T) {
		f := newCreateFixture(t)
		method := seedCreditCardMethod(t, f.methods)

		cmd := validCreateCommand(method.ID)
		cmd.Amount = decimal.Zero

		_, err := f.service.Create(context.Background(), cmd)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeValidation))
	})

	t.Run("repository failure propagates", func(t *testing.T) {
		f := newCreateFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		f.txRepo.CreateFn = func(ctx context.Context, tx *domain.Transaction) error {
			return errors.New("connection reset")
		}

		_, err := f.service.Create(context.Background(), validCreateCommand(method.ID))
		require.Error(t, err)
		assert.Empty(t, f.publisher.Published())
	})

	t.Run("publish failure does not fail the create", func(t *testing.T) {
		f := newCreateFixture(t)
		method := seedCreditCardMethod(t, f.methods)
		f.publisher.PublishFn = func(ctx context.Context, event domain.Event) error {
			return errors.New("broker unavailable")
		}

		tx, err := f.service.Create(context.Background(), validCreateCommand(method.ID))
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, tx.Status())
	})
}
