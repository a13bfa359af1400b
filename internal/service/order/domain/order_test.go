// internal/service/order/domain/order_test.go
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validItems() []OrderItem {
	return []OrderItem{
		{ProductID: "p-1", Quantity: 2, UnitPrice: 9.5},
		{ProductID: "p-2", Quantity: 1, UnitPrice: 30},
	}
}

func TestNewOrderComputesTotal(t *testing.T) {
	order, err := NewOrder("cust-1", validItems())
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "cust-1", order.CustomerID)
	assert.InDelta(t, 49.0, order.TotalAmount, 1e-9)
	assert.Equal(t, StatusPending, order.Status)
	assert.Nil(t, order.ProcessedAt)
	assert.False(t, order.CreatedAt.IsZero())
}

func TestNewOrderValidation(t *testing.T) {
	tests := []struct {
		name       string
		customerID string
		items      []OrderItem
	}{
		{"missing customer", "", validItems()},
		{"no items", "cust-1", nil},
		{"missing product id", "cust-1", []OrderItem{{Quantity: 1, UnitPrice: 1}}},
		{"zero quantity", "cust-1", []OrderItem{{ProductID: "p-1", Quantity: 0, UnitPrice: 1}}},
		{"negative quantity", "cust-1", []OrderItem{{ProductID: "p-1", Quantity: -1, UnitPrice: 1}}},
		{"negative price", "cust-1", []OrderItem{{ProductID: "p-1", Quantity: 1, UnitPrice: -0.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrder(tt.customerID, tt.items)
			assert.Error(t, err)
		})
	}
}

func TestOrderStateMachine(t *testing.T) {
	order, err := NewOrder("cust-1", validItems())
	require.NoError(t, err)

	// PENDING 不能直接到终态
	assert.ErrorIs(t, order.MarkCompleted(), ErrInvalidTransition)

	require.NoError(t, order.MarkProcessing())
	assert.Equal(t, StatusProcessing, order.Status)
	assert.Nil(t, order.ProcessedAt)

	require.NoError(t, order.MarkCompleted())
	assert.Equal(t, StatusCompleted, order.Status)
	require.NotNil(t, order.ProcessedAt)

	// 终态只能到达一次
	firstProcessedAt := *order.ProcessedAt
	assert.ErrorIs(t, order.MarkFailed(), ErrInvalidTransition)
	assert.ErrorIs(t, order.MarkCancelled(), ErrInvalidTransition)
	assert.Equal(t, StatusCompleted, order.Status)
	assert.Equal(t, firstProcessedAt, *order.ProcessedAt)
}

func TestProcessingCanReachEveryTerminalState(t *testing.T) {
	for _, terminal := range []Status{StatusCompleted, StatusFailed, StatusCancelled} {
		order, err := NewOrder("cust-1", validItems())
		require.NoError(t, err)
		require.NoError(t, order.MarkProcessing())

		require.True(t, order.Status.CanTransitionTo(terminal))
		require.NoError(t, order.transition(terminal))
		assert.True(t, order.Status.IsTerminal())
		assert.NotNil(t, order.ProcessedAt)
	}
}

func TestEventNameFollowsStatus(t *testing.T) {
	assert.Equal(t, EventOrderCompleted, EventNameFor(StatusCompleted))
	assert.Equal(t, EventOrderFailed, EventNameFor(StatusFailed))
	assert.Equal(t, EventOrderCancelled, EventNameFor(StatusCancelled))
	assert.Equal(t, EventOrderProcessing, EventNameFor(StatusProcessing))
}

func TestValidationErrorDetection(t *testing.T) {
	var err error = &ValidationError{Rule: "customer_required", Reason: "customer id is required"}
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "customer_required")

	assert.False(t, IsValidationError(ErrOrderNotFound))
}
