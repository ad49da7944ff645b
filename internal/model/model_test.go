package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLookupPaymentMethod(t *testing.T) {
	m, ok := LookupPaymentMethod("CASH")
	assert.True(t, ok)
	assert.Equal(t, "Efectivo", m.Label)

	m, ok = LookupPaymentMethod(" Transferencia Bancaria ")
	assert.True(t, ok)
	assert.Equal(t, "transfer", m.ID)

	_, ok = LookupPaymentMethod("bitcoin")
	assert.False(t, ok)
}

func TestCartLine_Total(t *testing.T) {
	line := CartLine{
		Product:  ProductWithSeller{Product: Product{Price: decimal.RequireFromString("32.50")}},
		Quantity: 3,
	}
	assert.True(t, decimal.RequireFromString("97.50").Equal(line.Total()))
}
