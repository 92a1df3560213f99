package provider

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/DanielPopoola/ficmart-payment-ledger/internal/config"
	"github.com/DanielPopoola/ficmart-payment-ledger/internal/core/ports"
)

// RetryProviderClient retries transient provider failures with exponential
// backoff. Mutating calls stay safe to retry because the inner client sends
// an Idempotency-Key on every one of them.
type RetryProviderClient struct {
	inner      ports.PaymentProviderGateway
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryProviderClient(inner ports.PaymentProviderGateway, cfg config.RetryConfig) *RetryProviderClient {
	return &RetryProviderClient{
		inner:      inner,
		baseDelay:  time.Duration(cfg.BaseDelay) * time.Second,
		maxRetries: int(cfg.MaxRetries),
	}
}

func (r *RetryProviderClient) ProcessPayment(ctx context.Context, req ports.PaymentRequest) (*ports.PaymentResult, error) {
	return retry(
		r,
		ctx,
		func(ctx context.Context) (*ports.PaymentResult, error) {
			return r.inner.ProcessPayment(ctx, req)
		},
	)
}

func (r *RetryProviderClient) ProcessRefund(ctx context.Context, req ports.RefundRequest) (*ports.RefundResult, error) {
	return retry(
		r,
		ctx,
		func(ctx context.Context) (*ports.RefundResult, error) {
			return r.inner.ProcessRefund(ctx, req)
		},
	)
}

func (r *RetryProviderClient) ValidateToken(ctx context.Context, token string) (bool, error) {
	valid, err := retry(
		r,
		ctx,
		func(ctx context.Context) (*bool, error) {
			v, err := r.inner.ValidateToken(ctx, token)
			if err != nil {
				return nil, err
			}
			return &v, nil
		},
	)
	if err != nil {
		return false, err
	}
	return *valid, nil
}

func (r *RetryProviderClient) GetPayment(ctx context.Context, transactionID uuid.UUID) (*ports.PaymentStatus, error) {
	return retry(
		r,
		ctx,
		func(ctx context.Context) (*ports.PaymentStatus, error) {
			return r.inner.GetPayment(ctx, transactionID)
		},
	)
}

func (r *RetryProviderClient) GetRefund(ctx context.Context, refundID uuid.UUID) (*ports.RefundStatus, error) {
	return retry(
		r,
		ctx,
		func(ctx context.Context) (*ports.RefundStatus, error) {
			return r.inner.GetRefund(ctx, refundID)
		},
	)
}

// Generic retry helper
func retry[T any](r *RetryProviderClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			time.Sleep(r.backoff(attempt))
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

// isRetryable: definite provider verdicts (4xx) must not be replayed; server
// errors and anything network-shaped may be, the idempotency key dedupes.
func isRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		if provErr.StatusCode >= 500 {
			return true
		}

		if provErr.Code == "internal_error" {
			return true
		}

		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return true
}

// Backoff calculation with exponential delay and jitter
func (r *RetryProviderClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	jitter := time.Duration(rand.Intn(1000)) * time.Millisecond

	return base + jitter
}
