package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *OrderService {
	t.Helper()
	service, err := NewOrderService(newTestFileStore(t))
	require.NoError(t, err)
	return service
}

func TestSubmitOrderValidation(t *testing.T) {
	// Arrange
	service := newTestService(t)
	tests := []struct {
		name     string
		customer string
		items    []RawOrderItem
		wantCode string
	}{
		{
			name:     "empty name",
			customer: "",
			items:    []RawOrderItem{{Key: "margherita"}},
			wantCode: codeEmptyName,
		},
		{
			name:     "whitespace-only name",
			customer: "   \t ",
			items:    []RawOrderItem{{Key: "margherita"}},
			wantCode: codeEmptyName,
		},
		{
			name:     "no items",
			customer: "Alice",
			items:    nil,
			wantCode: codeEmptyItems,
		},
		{
			name:     "unknown pizza fails fast",
			customer: "Alice",
			items:    []RawOrderItem{{Key: "margherita"}, {Key: "doesNotExist"}},
			wantCode: codeInvalidPizza,
		},
	}

	for _, tt := range tests {
		// Act
		_, err := service.SubmitOrder(context.Background(), tt.customer, tt.items)

		// Assert
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr, tt.name)
		assert.Equal(t, tt.wantCode, validationErr.Code, tt.name)
	}

	// Nothing may have reached the store.
	orders, _ := service.GetOrders(context.Background())
	assert.Empty(t, orders)
}

func TestSubmitOrderStampsAndPersists(t *testing.T) {
	// Arrange
	service := newTestService(t)
	now := time.Date(2025, 9, 1, 9, 15, 0, 0, time.UTC) // a Monday
	service.now = func() time.Time { return now }

	// Act
	order, err := service.SubmitOrder(context.Background(), "  Alice  ", []RawOrderItem{
		{Key: "margherita", Supplements: []string{"bufala", "bufala"}},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Alice", order.Name)
	assert.Equal(t, now, order.CreatedAt)
	assert.Equal(t, "2025-09-04", order.ReservationFor)
	assert.Equal(t, []OrderItem{{Key: "margherita", Supplements: []string{"bufala"}}}, order.Items)

	orders, reservationDate := service.GetOrders(context.Background())
	require.Len(t, orders, 1)
	assert.Equal(t, order, orders[0])
	assert.Equal(t, "2025-09-04", reservationDate)
}

func TestNextIDIsStrictlyIncreasingUnderRapidSubmission(t *testing.T) {
	// Arrange
	service := newTestService(t)
	now := time.Date(2025, 9, 1, 9, 15, 0, 0, time.UTC)

	// Act & Assert
	last := int64(0)
	for i := 0; i < 1000; i++ {
		id := service.nextID(now)
		assert.Greater(t, id, last)
		last = id
	}
}

func TestConcurrentSubmissionsAllLand(t *testing.T) {
	// Arrange
	service := newTestService(t)
	const submitters = 20

	// Act
	var wg sync.WaitGroup
	errs := make([]error, submitters)
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.SubmitOrder(context.Background(), "Alice", []RawOrderItem{{Key: "margherita"}})
		}(i)
	}
	wg.Wait()

	// Assert
	for i, err := range errs {
		require.NoError(t, err, "submitter %d", i)
	}
	orders, _ := service.GetOrders(context.Background())
	require.Len(t, orders, submitters)
	seen := make(map[int64]struct{}, submitters)
	for _, order := range orders {
		_, dup := seen[order.ID]
		assert.False(t, dup, "duplicate id %d", order.ID)
		seen[order.ID] = struct{}{}
	}
}

func TestSummarizeGroupsEquivalentItems(t *testing.T) {
	// Arrange
	service := newTestService(t)
	ctx := context.Background()
	_, err := service.SubmitOrder(ctx, "Alice", []RawOrderItem{
		{Key: "margherita", Supplements: []string{"bufala", "saumon"}},
		{Key: "inferno"},
	})
	require.NoError(t, err)
	_, err = service.SubmitOrder(ctx, "Bob", []RawOrderItem{
		// Same combination as Alice's first item, shuffled.
		{Key: "margherita", Supplements: []string{"saumon", "bufala"}},
	})
	require.NoError(t, err)
	_, err = service.SubmitOrder(ctx, "Alice", []RawOrderItem{
		{Key: "inferno"},
	})
	require.NoError(t, err)

	// Act
	summary, _ := service.Summarize(ctx)

	// Assert
	require.Len(t, summary, 2)
	// Menu order puts margherita before inferno.
	assert.Equal(t, "margherita", summary[0].Item.Key)
	assert.Equal(t, []string{"bufala", "saumon"}, summary[0].Item.Supplements)
	assert.Equal(t, 2, summary[0].Count)
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, summary[0].Names)

	assert.Equal(t, "inferno", summary[1].Item.Key)
	assert.Equal(t, 2, summary[1].Count)
	assert.Equal(t, []string{"Alice"}, summary[1].Names)
}
