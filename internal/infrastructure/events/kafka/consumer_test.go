package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/service"
)

type consumerFixture struct {
	consumer  *OrderEventConsumer
	txRepo    *service.MockTransactionRepository
	methods   *service.MockPaymentMethodRepository
	gateway   *service.MockProviderGateway
	publisher *service.MockEventPublisher
}

func newConsumerFixture(t *testing.T) *consumerFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	txRepo := service.NewMockTransactionRepository()
	refundRepo := service.NewMockRefundRepository()
	methods := service.NewMockPaymentMethodRepository()
	gateway := &service.MockProviderGateway{}
	publisher := &service.MockEventPublisher{}
	uow := &service.MockUnitOfWork{TxRepo: txRepo, RefundRepo: refundRepo}

	return &consumerFixture{
		consumer: &OrderEventConsumer{
			creator: service.NewCreateTransactionService(txRepo, methods, publisher, logger),
			flow:    service.NewProcessTransactionService(txRepo, methods, gateway, publisher, logger),
			refunds: service.NewRefundTransactionService(txRepo, refundRepo, methods, uow, gateway, publisher, logger),
			queries: service.NewQueryService(txRepo, refundRepo),
			logger:  logger,
		},
		txRepo:    txRepo,
		methods:   methods,
		gateway:   gateway,
		publisher: publisher,
	}
}

func (f *consumerFixture) seedMethod(t *testing.T) *domain.PaymentMethod {
	t.Helper()
	method, err := domain.NewPaymentMethod("Visa", domain.MethodCreditCard, "stripe_card")
	require.NoError(t, err)
	f.methods.Seed(method)
	return method
}

func message(payload string) kafka.Message {
	return kafka.Message{Value: []byte(payload)}
}

func TestOrderCreatedEvent(t *testing.T) {
	t.Run("opens and settles the transaction", func(t *testing.T) {
		f := newConsumerFixture(t)
		method := f.seedMethod(t)
		orderID := uuid.New()

		commit := f.consumer.processMessage(context.Background(), message(`{
			"event_type": "order.created",
			"order_id": "`+orderID.String()+`",
			"user_id": "`+uuid.NewString()+`",
			"amount": "100.00",
			"currency": "USD",
			"payment_method_id": "`+method.ID.String()+`",
			"provider_token": "tok_abc"
		}`))

		assert.True(t, commit)
		tx, err := f.txRepo.FindByExternalOrderID(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, tx.Status())
	})

	t.Run("missing card token leaves the transaction pending", func(t *testing.T) {
		f := newConsumerFixture(t)
		method := f.seedMethod(t)
		orderID := uuid.New()

		commit := f.consumer.processMessage(context.Background(), message(`{
			"event_type": "order.created",
			"order_id": "`+orderID.String()+`",
			"user_id": "`+uuid.NewString()+`",
			"amount": "100.00",
			"currency": "USD",
			"payment_method_id": "`+method.ID.String()+`"
		}`))

		assert.True(t, commit)
		tx, err := f.txRepo.FindByExternalOrderID(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, tx.Status())
	})

	t.Run("redelivery does not open a second transaction", func(t *testing.T) {
		f := newConsumerFixture(t)
		method := f.seedMethod(t)
		orderID := uuid.New()
		payload := message(`{
			"event_type": "order.created",
			"order_id": "`+orderID.String()+`",
			"user_id": "`+uuid.NewString()+`",
			"amount": "100.00",
			"currency": "USD",
			"payment_method_id": "`+method.ID.String()+`",
			"provider_token": "tok_abc"
		}`)

		assert.True(t, f.consumer.processMessage(context.Background(), payload))
		published := len(f.publisher.Published())

		assert.True(t, f.consumer.processMessage(context.Background(), payload))
		assert.Equal(t, published, len(f.publisher.Published()))
	})

	t.Run("redelivery finishes processing a pending transaction", func(t *testing.T) {
		f := newConsumerFixture(t)
		method := f.seedMethod(t)

		amount, err := domain.NewMoneyFromString("100.00", "USD")
		require.NoError(t, err)
		tx, err := domain.NewTransaction(uuid.New(), uuid.New(), amount, domain.TypePayment, method.ID)
		require.NoError(t, err)
		tx.ClearEvents()
		f.txRepo.Seed(tx)

		commit := f.consumer.processMessage(context.Background(), message(`{
			"event_type": "order.created",
			"order_id": "`+tx.ExternalOrderID().String()+`",
			"user_id": "`+tx.ExternalUserID().String()+`",
			"amount": "100.00",
			"currency": "USD",
			"payment_method_id": "`+method.ID.String()+`",
			"provider_token": "tok_abc"
		}`))

		assert.True(t, commit)
		assert.Equal(t, domain.StatusCompleted, tx.Status())
	})

	t.Run("malformed payload is committed as a poison pill", func(t *testing.T) {
		f := newConsumerFixture(t)

		assert.True(t, f.consumer.processMessage(context.Background(), message("{not json")))
	})

	t.Run("unknown event type is skipped", func(t *testing.T) {
		f := newConsumerFixture(t)

		assert.True(t, f.consumer.processMessage(context.Background(), message(`{"event_type": "order.shipped"}`)))
	})

	t.Run("business rejection is committed", func(t *testing.T) {
		f := newConsumerFixture(t)
		// No payment method seeded: the create fails with a domain error.
		commit := f.consumer.processMessage(context.Background(), message(`{
			"event_type": "order.created",
			"order_id": "`+uuid.NewString()+`",
			"user_id": "`+uuid.NewString()+`",
			"amount": "100.00",
			"currency": "USD",
			"payment_method_id": "`+uuid.NewString()+`"
		}`))

		assert.True(t, commit)
	})

	t.Run("failed duplicate lookup leaves the offset uncommitted", func(t *testing.T) {
		f := newConsumerFixture(t)
		method := f.seedMethod(t)
		f.txRepo.FindByExternalOrderIDFn = func(ctx context.Context, orderID uuid.UUID) (*domain.Transaction, error) {
			return nil, context.DeadlineExceeded
		}

		commit := f.consumer.processMessage(context.Background(), message(`{
			"event_type": "order.created",
			"order_id": "`+uuid.NewString()+`",
			"user_id": "`+uuid.NewString()+`",
			"amount": "100.00",
			"currency": "USD",
			"payment_method_id": "`+method.ID.String()+`",
			"provider_token": "tok_abc"
		}`))

		assert.False(t, commit)
		assert.Empty(t, f.publisher.Published())
	})

	t.Run("infrastructure failure leaves the offset uncommitted", func(t *testing.T) {
		f := newConsumerFixture(t)
		method := f.seedMethod(t)
		f.txRepo.CreateFn = func(ctx context.Context, tx *domain.Transaction) error {
			return context.DeadlineExceeded
		}

		commit := f.consumer.processMessage(context.Background(), message(`{
			"event_type": "order.created",
			"order_id": "`+uuid.NewString()+`",
			"user_id": "`+uuid.NewString()+`",
			"amount": "100.00",
			"currency": "USD",
			"payment_method_id": "`+method.ID.String()+`"
		}`))

		assert.False(t, commit)
	})
}

func TestOrderCancelledEvent(t *testing.T) {
	f := newConsumerFixture(t)
	method := f.seedMethod(t)

	amount, err := domain.NewMoneyFromString("100.00", "USD")
	require.NoError(t, err)
	tx, err := domain.NewTransaction(uuid.New(), uuid.New(), amount, domain.TypePayment, method.ID)
	require.NoError(t, err)
	tx.ClearEvents()
	f.txRepo.Seed(tx)

	commit := f.consumer.processMessage(context.Background(), message(`{
		"event_type": "order.cancelled",
		"order_id": "`+tx.ExternalOrderID().String()+`"
	}`))

	assert.True(t, commit)
	assert.Equal(t, domain.StatusCancelled, tx.Status())
}

func TestOrderRefundRequestedEvent(t *testing.T) {
	newCompleted := func(t *testing.T, f *consumerFixture, methodID uuid.UUID) *domain.Transaction {
		amount, err := domain.NewMoneyFromString("100.00", "USD")
		require.NoError(t, err)
		tx, err := domain.NewTransaction(uuid.New(), uuid.New(), amount, domain.TypePayment, methodID)
		require.NoError(t, err)
		require.NoError(t, tx.BeginProcessing())
		require.NoError(t, tx.MarkCompleted("prov-tx-1"))
		tx.ClearEvents()
		f.txRepo.Seed(tx)
		return tx
	}

	t.Run("starts a refund against the order's transaction", func(t *testing.T) {
		f := newConsumerFixture(t)
		method := f.seedMethod(t)
		tx := newCompleted(t, f, method.ID)

		commit := f.consumer.processMessage(context.Background(), message(`{
			"event_type": "order.refund_requested",
			"order_id": "`+tx.ExternalOrderID().String()+`",
			"amount": "100.00",
			"currency": "USD",
			"reason": "order returned"
		}`))

		assert.True(t, commit)
		require.Len(t, tx.Refunds(), 1)
		assert.Equal(t, domain.RefundCompleted, tx.Refunds()[0].Status())
		assert.Equal(t, domain.StatusRefunded, tx.Status())
	})

	t.Run("redelivery after a full refund is absorbed", func(t *testing.T) {
		f := newConsumerFixture(t)
		method := f.seedMethod(t)
		tx := newCompleted(t, f, method.ID)
		payload := message(`{
			"event_type": "order.refund_requested",
			"order_id": "`+tx.ExternalOrderID().String()+`",
			"amount": "100.00",
			"currency": "USD",
			"reason": "order returned"
		}`)

		assert.True(t, f.consumer.processMessage(context.Background(), payload))
		assert.True(t, f.consumer.processMessage(context.Background(), payload))
		assert.Len(t, tx.Refunds(), 1)
	})
}
