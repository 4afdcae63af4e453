package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMenuCatalog(t *testing.T) {
	assert.Len(t, pizzaMenu, 16)
	assert.Len(t, pizzaOrder, 16)
	for _, key := range pizzaOrder {
		assert.True(t, isValidPizza(key), key)
	}
	assert.False(t, isValidPizza("hawaiana"))

	assert.True(t, isValidSupplement("bufala"))
	assert.True(t, isValidSupplement("saumon"))
	// The composite alias is not a catalog entry, it only expands.
	assert.False(t, isValidSupplement("bufalanBresaola"))
	for alias, constituents := range supplementAlias {
		assert.NotEmpty(t, alias)
		for _, sup := range constituents {
			assert.True(t, isValidSupplement(sup), sup)
		}
	}
}
