package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingRefund(t *testing.T, amount string) *Refund {
	t.Helper()
	tx := completedTransaction(t, "100.00")
	refund, err := tx.RequestRefund(mustMoney(t, amount, "USD"), "customer request")
	require.NoError(t, err)
	return refund
}

func TestRefundLifecycle(t *testing.T) {
	t.Run("pending to approved to processing to completed", func(t *testing.T) {
		refund := pendingRefund(t, "25.00")

		require.NoError(t, refund.Approve())
		assert.Equal(t, RefundApproved, refund.Status())

		require.NoError(t, refund.MarkProcessing())
		assert.Equal(t, RefundProcessing, refund.Status())

		require.NoError(t, refund.MarkCompleted("prov-ref-1"))
		assert.Equal(t, RefundCompleted, refund.Status())
		require.NotNil(t, refund.ProviderRefundID())
		assert.Equal(t, "prov-ref-1", *refund.ProviderRefundID())
	})

	t.Run("reject from pending and approved", func(t *testing.T) {
		refund := pendingRefund(t, "25.00")
		require.NoError(t, refund.Reject("fraud suspected"))
		assert.Equal(t, RefundRejected, refund.Status())
		require.NotNil(t, refund.FailureReason())
		assert.Equal(t, "fraud suspected", *refund.FailureReason())

		refund = pendingRefund(t, "25.00")
		require.NoError(t, refund.Approve())
		require.NoError(t, refund.Reject("changed mind"))
		assert.Equal(t, RefundRejected, refund.Status())
	})

	t.Run("processing to failed keeps the reason", func(t *testing.T) {
		refund := pendingRefund(t, "25.00")
		require.NoError(t, refund.Approve())
		require.NoError(t, refund.MarkProcessing())

		require.NoError(t, refund.MarkFailed("provider declined"))
		assert.Equal(t, RefundFailed, refund.Status())
		require.NotNil(t, refund.FailureReason())
		assert.Equal(t, "provider declined", *refund.FailureReason())
	})

	t.Run("completed requires a provider refund id", func(t *testing.T) {
		refund := pendingRefund(t, "25.00")
		require.NoError(t, refund.Approve())
		require.NoError(t, refund.MarkProcessing())

		err := refund.MarkCompleted("")
		assert.True(t, IsErrorCode(err, ErrCodeValidation))
		assert.Equal(t, RefundProcessing, refund.Status())
	})

	t.Run("cannot skip approval", func(t *testing.T) {
		refund := pendingRefund(t, "25.00")

		err := refund.MarkProcessing()
		assert.True(t, IsErrorCode(err, ErrCodeInvalidStateTransition))

		err = refund.MarkCompleted("prov-ref-1")
		assert.True(t, IsErrorCode(err, ErrCodeInvalidStateTransition))
	})

	t.Run("cannot reject once processing", func(t *testing.T) {
		refund := pendingRefund(t, "25.00")
		require.NoError(t, refund.Approve())
		require.NoError(t, refund.MarkProcessing())

		err := refund.Reject("too late")
		assert.True(t, IsErrorCode(err, ErrCodeInvalidStateTransition))
	})
}

func TestRefundTransitionTable(t *testing.T) {
	all := []RefundStatus{
		RefundPending, RefundApproved, RefundProcessing,
		RefundCompleted, RefundRejected, RefundFailed,
	}

	allowed := map[RefundStatus][]RefundStatus{
		RefundPending:    {RefundApproved, RefundRejected},
		RefundApproved:   {RefundProcessing, RefundRejected},
		RefundProcessing: {RefundCompleted, RefundFailed},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, RefundCompleted.IsTerminal())
	assert.True(t, RefundRejected.IsTerminal())
	assert.True(t, RefundFailed.IsTerminal())
	assert.False(t, RefundPending.IsTerminal())
}
