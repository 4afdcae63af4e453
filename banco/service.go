package main

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	codeEmptyName    = "empty_name"
	codeEmptyItems   = "empty_items"
	codeInvalidPizza = "invalid_pizza"
)

// ValidationError is a client-caused rejection carrying a stable code next to
// the human-readable message shown on the form.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func errEmptyName() error {
	return &ValidationError{Code: codeEmptyName, Message: "Le nom est obligatoire."}
}

func errEmptyItems() error {
	return &ValidationError{Code: codeEmptyItems, Message: "Choisis au moins une pizza."}
}

func errInvalidPizza() error {
	return &ValidationError{Code: codeInvalidPizza, Message: "Pizza invalide."}
}

// OrderService validates submissions, stamps them and hands them to the store.
type OrderService struct {
	store OrderStore
	now   func() time.Time

	mu     sync.Mutex
	lastID int64

	submitCounter   metric.Int64Counter
	submitHistogram metric.Float64Histogram
}

func NewOrderService(store OrderStore) (*OrderService, error) {
	ctx := context.Background()

	submitCounter, err := meter.Int64Counter(
		"banco.orders.submitted",
		metric.WithDescription("Number of order submissions handled"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create submit counter", slog.Any("err", err))
		return nil, err
	}

	submitHistogram, err := meter.Float64Histogram(
		"banco.orders.submit.duration",
		metric.WithDescription("Duration of order submissions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create submit histogram", slog.Any("err", err))
		return nil, err
	}

	return &OrderService{
		store:           store,
		now:             time.Now,
		submitCounter:   submitCounter,
		submitHistogram: submitHistogram,
	}, nil
}

// SubmitOrder validates the submission, builds the order and appends it to
// the log. The first invalid item short-circuits the whole submission.
func (s *OrderService) SubmitOrder(ctx context.Context, name string, rawItems []RawOrderItem) (Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.SubmitOrder")
	defer span.End()

	start := s.now()
	order, err := s.submitOrder(ctx, name, rawItems)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.submitCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	s.submitHistogram.Record(ctx, s.now().Sub(start).Seconds())

	return order, err
}

func (s *OrderService) submitOrder(ctx context.Context, name string, rawItems []RawOrderItem) (Order, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Order{}, errEmptyName()
	}
	if len(rawItems) == 0 {
		return Order{}, errEmptyItems()
	}

	items := make([]OrderItem, 0, len(rawItems))
	for _, raw := range rawItems {
		item, err := normalizeItem(raw)
		if err != nil {
			return Order{}, err
		}
		items = append(items, item)
	}

	now := s.now().UTC()
	order := Order{
		ID:             s.nextID(now),
		Name:           name,
		Items:          items,
		CreatedAt:      now,
		ReservationFor: nextThursday(now).Format(dateLayout),
	}

	if err := s.store.Append(ctx, order); err != nil {
		slog.ErrorContext(ctx, "failed to append order", slog.Any("err", err), slog.Int64("order_id", order.ID))
		return Order{}, err
	}

	slog.InfoContext(ctx, "order recorded",
		slog.Int64("order_id", order.ID),
		slog.Int("items", len(order.Items)),
		slog.String("reservation_for", order.ReservationFor),
	)
	return order, nil
}

// nextID derives a millisecond-timestamp id but never hands out the same or a
// smaller value twice, so rapid concurrent submissions stay unique.
func (s *OrderService) nextID(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// GetOrders returns the full log and the upcoming reservation date. The date
// is recomputed per read; each order keeps the one frozen at submission time.
func (s *OrderService) GetOrders(ctx context.Context) ([]Order, string) {
	ctx, span := tracer.Start(ctx, "OrderService.GetOrders")
	defer span.End()

	orders := s.store.Load(ctx)
	if orders == nil {
		orders = []Order{}
	}
	return orders, nextThursday(s.now()).Format(dateLayout)
}

// Summarize groups equivalent items across all orders, in menu order, with
// the unique customer names attached to each combination.
func (s *OrderService) Summarize(ctx context.Context) ([]SummaryEntry, string) {
	ctx, span := tracer.Start(ctx, "OrderService.Summarize")
	defer span.End()

	orders := s.store.Load(ctx)

	entries := make(map[string]*SummaryEntry)
	nameSeen := make(map[string]map[string]struct{})
	for _, order := range orders {
		for _, item := range order.Items {
			key := groupKey(item)
			entry, ok := entries[key]
			if !ok {
				entry = &SummaryEntry{Item: item, Names: []string{}}
				entries[key] = entry
				nameSeen[key] = make(map[string]struct{})
			}
			entry.Count++
			if _, dup := nameSeen[key][order.Name]; !dup {
				nameSeen[key][order.Name] = struct{}{}
				entry.Names = append(entry.Names, order.Name)
			}
		}
	}

	menuRank := make(map[string]int, len(pizzaOrder))
	for i, key := range pizzaOrder {
		menuRank[key] = i
	}

	summary := make([]SummaryEntry, 0, len(entries))
	for _, entry := range entries {
		summary = append(summary, *entry)
	}
	sort.Slice(summary, func(i, j int) bool {
		ri, rj := menuRank[summary[i].Item.Key], menuRank[summary[j].Item.Key]
		if ri != rj {
			return ri < rj
		}
		return groupKey(summary[i].Item) < groupKey(summary[j].Item)
	})

	return summary, nextThursday(s.now()).Format(dateLayout)
}
