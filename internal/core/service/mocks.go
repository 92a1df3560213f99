package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/domain"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/ports"
)

// MockTransactionRepository is an in-memory TransactionRepository with
// overridable behavior per method. It enforces the optimistic version check
// the way the postgres repository does.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
	versions     map[uuid.UUID]int64

	CreateFn                func(ctx context.Context, tx *domain.Transaction) error
	UpdateFn                func(ctx context.Context, tx *domain.Transaction) error
	FindByIDFn              func(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	FindByExternalOrderIDFn func(ctx context.Context, orderID uuid.UUID) (*domain.Transaction, error)
	FindByStatusFn          func(ctx context.Context, status domain.TransactionStatus, limit int) ([]*domain.Transaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[uuid.UUID]*domain.Transaction),
		versions:     make(map[uuid.UUID]int64),
	}
}

// Seed stores a transaction without the version bookkeeping of Create.
func (m *MockTransactionRepository) Seed(tx *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID()] = tx
	m.versions[tx.ID()] = tx.Version()
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID()] = tx
	m.versions[tx.ID()] = tx.Version()
	return nil
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.versions[tx.ID()]
	if !ok {
		return domain.NewTransactionNotFoundError(tx.ID())
	}
	if stored != tx.Version() {
		return domain.NewConcurrentModificationError(tx.ID(), tx.Version())
	}
	tx.SetVersion(stored + 1)
	m.transactions[tx.ID()] = tx
	m.versions[tx.ID()] = stored + 1
	return nil
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if tx, ok := m.transactions[id]; ok {
		return tx, nil
	}
	return nil, domain.NewTransactionNotFoundError(id)
}

func (m *MockTransactionRepository) FindByExternalOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Transaction, error) {
	if m.FindByExternalOrderIDFn != nil {
		return m.FindByExternalOrderIDFn(ctx, orderID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, tx := range m.transactions {
		if tx.ExternalOrderID() == orderID {
			return tx, nil
		}
	}
	return nil, domain.NewTransactionNotFoundError(orderID)
}

func (m *MockTransactionRepository) FindByExternalUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, tx := range m.transactions {
		if tx.ExternalUserID() == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *MockTransactionRepository) FindByStatus(ctx context.Context, status domain.TransactionStatus, limit int) ([]*domain.Transaction, error) {
	if m.FindByStatusFn != nil {
		return m.FindByStatusFn(ctx, status, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for _, tx := range m.transactions {
		if tx.Status() == status {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *MockTransactionRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.transactions[id]
	return ok, nil
}

// MockRefundRepository is an in-memory RefundRepository.
type MockRefundRepository struct {
	mu      sync.RWMutex
	refunds map[uuid.UUID]*domain.Refund

	SaveFn func(ctx context.Context, refund *domain.Refund) error
}

func NewMockRefundRepository() *MockRefundRepository {
	return &MockRefundRepository{refunds: make(map[uuid.UUID]*domain.Refund)}
}

func (m *MockRefundRepository) Save(ctx context.Context, refund *domain.Refund) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, refund)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds[refund.ID()] = refund
	return nil
}

func (m *MockRefundRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.refunds[id]; ok {
		return r, nil
	}
	return nil, domain.NewRefundNotFoundError(id)
}

func (m *MockRefundRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*domain.Refund, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Refund
	for _, r := range m.refunds {
		if r.TransactionID() == transactionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockRefundRepository) FindByStatus(ctx context.Context, status domain.RefundStatus, limit int) ([]*domain.Refund, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Refund
	for _, r := range m.refunds {
		if r.Status() == status {
			out = append(out, r)
		}
	}
	return out, nil
}

// MockPaymentMethodRepository serves a fixed catalog.
type MockPaymentMethodRepository struct {
	mu      sync.RWMutex
	methods map[uuid.UUID]*domain.PaymentMethod

	FindByIDFn func(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error)
}

func NewMockPaymentMethodRepository() *MockPaymentMethodRepository {
	return &MockPaymentMethodRepository{methods: make(map[uuid.UUID]*domain.PaymentMethod)}
}

func (m *MockPaymentMethodRepository) Seed(method *domain.PaymentMethod) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methods[method.ID] = method
}

func (m *MockPaymentMethodRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if method, ok := m.methods[id]; ok {
		return method, nil
	}
	return nil, domain.NewPaymentMethodNotFoundError(id)
}

func (m *MockPaymentMethodRepository) FindAllActive(ctx context.Context) ([]*domain.PaymentMethod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.PaymentMethod
	for _, method := range m.methods {
		if method.Active {
			out = append(out, method)
		}
	}
	return out, nil
}

func (m *MockPaymentMethodRepository) FindByType(ctx context.Context, methodType domain.PaymentMethodType) ([]*domain.PaymentMethod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.PaymentMethod
	for _, method := range m.methods {
		if method.Type == methodType {
			out = append(out, method)
		}
	}
	return out, nil
}

// MockUserPaymentMethodRepository stores user instruments in memory.
type MockUserPaymentMethodRepository struct {
	mu    sync.RWMutex
	saved map[uuid.UUID]*domain.UserPaymentMethod
}

func NewMockUserPaymentMethodRepository() *MockUserPaymentMethodRepository {
	return &MockUserPaymentMethodRepository{saved: make(map[uuid.UUID]*domain.UserPaymentMethod)}
}

func (m *MockUserPaymentMethodRepository) Save(ctx context.Context, upm *domain.UserPaymentMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[upm.ID] = upm
	return nil
}

func (m *MockUserPaymentMethodRepository) FindByExternalUserID(ctx context.Context, userID uuid.UUID) ([]*domain.UserPaymentMethod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.UserPaymentMethod
	for _, upm := range m.saved {
		if upm.ExternalUserID == userID {
			out = append(out, upm)
		}
	}
	return out, nil
}

// MockUnitOfWork passes the given repositories straight through to fn.
type MockUnitOfWork struct {
	TxRepo     ports.TransactionRepository
	RefundRepo ports.RefundRepository

	WithTransactionFn func(ctx context.Context, fn func(ports.TransactionRepository, ports.RefundRepository) error) error
}

func (m *MockUnitOfWork) WithTransaction(ctx context.Context, fn func(ports.TransactionRepository, ports.RefundRepository) error) error {
	if m.WithTransactionFn != nil {
		return m.WithTransactionFn(ctx, fn)
	}
	return fn(m.TxRepo, m.RefundRepo)
}

// MockProviderGateway returns canned provider results.
type MockProviderGateway struct {
	ProcessPaymentFn func(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error)
	ProcessRefundFn  func(ctx context.Context, req ports.RefundRequest) (*ports.RefundResult, error)
	ValidateTokenFn  func(ctx context.Context, token string) (bool, error)
	GetPaymentFn     func(ctx context.Context, transactionID uuid.UUID) (*ports.PaymentStatus, error)
	GetRefundFn      func(ctx context.Context, refundID uuid.UUID) (*ports.RefundStatus, error)
}

func (m *MockProviderGateway) ProcessPayment(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
	if m.ProcessPaymentFn != nil {
		return m.ProcessPaymentFn(ctx, req)
	}
	return &ports.PaymentResult{Success: true, ProviderTransactionID: "prov-tx-1"}, nil
}

func (m *MockProviderGateway) ProcessRefund(ctx context.Context, req ports.RefundRequest) (*ports.RefundResult, error) {
	if m.ProcessRefundFn != nil {
		return m.ProcessRefundFn(ctx, req)
	}
	return &ports.RefundResult{Success: true, ProviderRefundID: "prov-ref-1"}, nil
}

func (m *MockProviderGateway) ValidateToken(ctx context.Context, token string) (bool, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	return token != "", nil
}

func (m *MockProviderGateway) GetPayment(ctx context.Context, transactionID uuid.UUID) (*ports.PaymentStatus, error) {
	if m.GetPaymentFn != nil {
		return m.GetPaymentFn(ctx, transactionID)
	}
	return &ports.PaymentStatus{Known: false}, nil
}

func (m *MockProviderGateway) GetRefund(ctx context.Context, refundID uuid.UUID) (*ports.RefundStatus, error) {
	if m.GetRefundFn != nil {
		return m.GetRefundFn(ctx, refundID)
	}
	return &ports.RefundStatus{Known: false}, nil
}

// MockEventPublisher records published events.
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []domain.Event

	PublishFn func(ctx context.Context, event domain.Event) error
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.Event) error {
	if m.PublishFn != nil {
		return m.PublishFn(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockEventPublisher) PublishTo(ctx context.Context, topic string, event domain.Event) error {
	return m.Publish(ctx, event)
}

// Published returns a copy of the captured events.
func (m *MockEventPublisher) Published() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Event, len(m.Events))
	copy(out, m.Events)
	return out
}
