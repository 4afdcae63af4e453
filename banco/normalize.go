package main

import (
	"sort"
	"strconv"
	"strings"
)

// normalizeItem canonicalizes a submitted item. Unknown supplements are
// dropped silently so stale client-side values never reject an order; an
// unknown pizza key is a hard validation failure.
func normalizeItem(raw RawOrderItem) (OrderItem, error) {
	if !isValidPizza(raw.Key) {
		return OrderItem{}, errInvalidPizza()
	}

	seen := make(map[string]struct{}, len(raw.Supplements))
	supplements := make([]string, 0, len(raw.Supplements))
	for _, key := range raw.Supplements {
		expanded := []string{key}
		if constituents, ok := supplementAlias[key]; ok {
			expanded = constituents
		}
		for _, sup := range expanded {
			if !isValidSupplement(sup) {
				continue
			}
			if _, dup := seen[sup]; dup {
				continue
			}
			seen[sup] = struct{}{}
			supplements = append(supplements, sup)
		}
	}
	sort.Strings(supplements)

	return OrderItem{
		Key:         raw.Key,
		Calzone:     raw.Calzone,
		Supplements: supplements,
	}, nil
}

// groupKey is the canonical identity of an item combination. Both the write
// path and the read-side aggregation group by it, so they can never diverge.
func groupKey(item OrderItem) string {
	return item.Key + "|" + strconv.FormatBool(item.Calzone) + "|" + strings.Join(item.Supplements, "+")
}
