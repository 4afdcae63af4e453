package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "data", "orders.json"), 2*time.Second)
}

func TestFileStoreLoadCreatesMissingLog(t *testing.T) {
	// Arrange
	store := newTestFileStore(t)

	// Act
	orders := store.Load(context.Background())

	// Assert
	assert.Empty(t, orders)
	data, err := os.ReadFile(store.path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestFileStoreLoadTreatsCorruptLogAsEmpty(t *testing.T) {
	// Arrange
	store := newTestFileStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.path), 0o755))
	require.NoError(t, os.WriteFile(store.path, []byte("{not json"), 0o644))

	// Act
	orders := store.Load(context.Background())

	// Assert
	assert.Empty(t, orders)
}

func TestFileStoreAppendRoundTrips(t *testing.T) {
	// Arrange
	store := newTestFileStore(t)
	order := Order{
		ID:   1756700000000,
		Name: "Alice",
		Items: []OrderItem{
			{Key: "margherita", Supplements: []string{"bufala"}},
		},
		CreatedAt:      time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC),
		ReservationFor: "2025-09-04",
	}

	// Act
	err := store.Append(context.Background(), order)

	// Assert
	require.NoError(t, err)
	orders := store.Load(context.Background())
	require.Len(t, orders, 1)
	assert.Equal(t, order, orders[0])
}

func TestFileStoreAppendRecoversCorruptLog(t *testing.T) {
	// Arrange
	store := newTestFileStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.path), 0o755))
	require.NoError(t, os.WriteFile(store.path, []byte("not an array"), 0o644))

	// Act
	err := store.Append(context.Background(), Order{ID: 1, Name: "Bob", Items: []OrderItem{{Key: "inferno", Supplements: []string{}}}})

	// Assert
	require.NoError(t, err)
	orders := store.Load(context.Background())
	require.Len(t, orders, 1)
	assert.Equal(t, "Bob", orders[0].Name)
}

func TestFileStoreConcurrentAppendsLoseNothing(t *testing.T) {
	// Arrange
	store := newTestFileStore(t)
	const writers = 25

	// Act
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Append(context.Background(), Order{
				ID:    int64(i + 1),
				Name:  fmt.Sprintf("client-%d", i),
				Items: []OrderItem{{Key: "margherita", Supplements: []string{}}},
			})
		}(i)
	}
	wg.Wait()

	// Assert
	for i, err := range errs {
		require.NoError(t, err, "writer %d", i)
	}
	orders := store.Load(context.Background())
	require.Len(t, orders, writers)
	seen := make(map[int64]struct{}, writers)
	for _, order := range orders {
		_, dup := seen[order.ID]
		assert.False(t, dup, "duplicate id %d", order.ID)
		seen[order.ID] = struct{}{}
	}
}

func TestFileStoreAppendFailsWhenLockIsHeld(t *testing.T) {
	// Arrange
	store := NewFileStore(filepath.Join(t.TempDir(), "orders.json"), 100*time.Millisecond)
	require.NoError(t, store.ensure())
	other := flock.New(store.path + ".lock")
	require.NoError(t, other.Lock())
	defer func() { require.NoError(t, other.Unlock()) }()

	// Act
	err := store.Append(context.Background(), Order{ID: 1, Name: "Eve", Items: []OrderItem{{Key: "regina", Supplements: []string{}}}})

	// Assert
	require.ErrorIs(t, err, ErrLockUnavailable)
	orders := store.Load(context.Background())
	assert.Empty(t, orders)
}

func TestFileStoreLogStaysAWellFormedArrayAtRest(t *testing.T) {
	// Arrange
	store := newTestFileStore(t)
	require.NoError(t, store.Append(context.Background(), Order{ID: 1, Name: "Alice", Items: []OrderItem{{Key: "genovese", Supplements: []string{}}}}))
	require.NoError(t, store.Append(context.Background(), Order{ID: 2, Name: "Bob", Items: []OrderItem{{Key: "campana", Supplements: []string{}}}}))

	// Act
	data, err := os.ReadFile(store.path)

	// Assert
	require.NoError(t, err)
	var raw []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 2)
}

func TestOrderDecodeUpgradesLegacyPizzasShape(t *testing.T) {
	// Arrange
	legacy := []byte(`[{"id":1700000000000,"name":"Chantal","pizzas":["margherita","rucola"],"createdAt":"2024-01-04T10:00:00Z"}]`)
	store := newTestFileStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.path), 0o755))
	require.NoError(t, os.WriteFile(store.path, legacy, 0o644))

	// Act
	orders := store.Load(context.Background())

	// Assert
	require.Len(t, orders, 1)
	assert.Equal(t, []OrderItem{
		{Key: "margherita", Supplements: []string{}},
		{Key: "rucola", Supplements: []string{}},
	}, orders[0].Items)
}
