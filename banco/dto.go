package main

import (
	"encoding/json"
	"time"
)

// RawOrderItem is one item as submitted by the form, before normalization.
type RawOrderItem struct {
	Key         string   `json:"key"`
	Calzone     bool     `json:"calzone"`
	Supplements []string `json:"supplements"`
}

// OrderItem is the canonical form of an item: supplements deduplicated,
// expanded and sorted, so equal combinations always compare equal.
type OrderItem struct {
	Key         string   `json:"key"`
	Calzone     bool     `json:"calzone"`
	Supplements []string `json:"supplements"`
}

type Order struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	Items          []OrderItem `json:"items"`
	CreatedAt      time.Time   `json:"createdAt"`
	ReservationFor string      `json:"reservationFor"`
}

// UnmarshalJSON upgrades legacy records that carry a flat "pizzas" list
// instead of itemized entries. They read as items without modifiers.
func (o *Order) UnmarshalJSON(data []byte) error {
	type orderAlias Order
	aux := struct {
		*orderAlias
		Pizzas []string `json:"pizzas"`
	}{orderAlias: (*orderAlias)(o)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(o.Items) == 0 && len(aux.Pizzas) > 0 {
		o.Items = make([]OrderItem, 0, len(aux.Pizzas))
		for _, key := range aux.Pizzas {
			o.Items = append(o.Items, OrderItem{Key: key, Supplements: []string{}})
		}
	}
	return nil
}

type NewOrderRequest struct {
	Name  string         `json:"name"`
	Items []RawOrderItem `json:"items"`
	// Pizzas is the legacy flat shape still accepted from old clients.
	Pizzas []string `json:"pizzas"`
}

type NewOrderResponse struct {
	Order Order `json:"order"`
}

type OrdersResponse struct {
	Orders          []Order `json:"orders"`
	ReservationDate string  `json:"reservationDate"`
}

// SummaryEntry aggregates equivalent items across all orders for display.
type SummaryEntry struct {
	Item  OrderItem `json:"item"`
	Count int       `json:"count"`
	Names []string  `json:"names"`
}

type SummaryResponse struct {
	Summary         []SummaryEntry `json:"summary"`
	ReservationDate string         `json:"reservationDate"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
