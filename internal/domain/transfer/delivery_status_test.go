package transfer_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/transfer"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func line(ordered, issued string) entity.SalesOrderLineItem {
	return entity.SalesOrderLineItem{Quantity: dec(ordered), IssuedQty: dec(issued)}
}

func TestDeriveDeliveryStatus(t *testing.T) {
	cases := []struct {
		name  string
		lines []entity.SalesOrderLineItem
		want  string
	}{
		{"no lines", nil, entity.DeliveryNotDelivered},
		{"nothing issued", []entity.SalesOrderLineItem{line("10", "0"), line("5", "0")}, entity.DeliveryNotDelivered},
		{"one line started", []entity.SalesOrderLineItem{line("10", "4"), line("5", "0")}, entity.DeliveryPartiallyDelivered},
		{"one line complete, one untouched", []entity.SalesOrderLineItem{line("10", "10"), line("5", "0")}, entity.DeliveryPartiallyDelivered},
		{"all complete", []entity.SalesOrderLineItem{line("10", "10"), line("5", "5")}, entity.DeliveryCompleted},
		{"fractional remainder", []entity.SalesOrderLineItem{line("10", "9.999")}, entity.DeliveryPartiallyDelivered},
		{"fractional complete", []entity.SalesOrderLineItem{line("9.999", "9.999")}, entity.DeliveryCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, transfer.DeriveDeliveryStatus(tc.lines))
		})
	}
}

func TestValidQuantity(t *testing.T) {
	valid := []string{"1", "0.001", "45.5", "100.125", "999999"}
	for _, s := range valid {
		assert.True(t, transfer.ValidQuantity(dec(s)), s)
	}
	invalid := []string{"0", "-1", "0.0001", "12.12345"}
	for _, s := range invalid {
		assert.False(t, transfer.ValidQuantity(dec(s)), s)
	}
}

func TestLineValue(t *testing.T) {
	assert.True(t, transfer.LineValue(dec("45"), dec("10.00")).Equal(dec("450.00")))
	assert.True(t, transfer.LineValue(dec("0.333"), dec("3.00")).Equal(dec("1.00")), "rounds to the currency scale")
	assert.True(t, transfer.LineValue(dec("1.005"), dec("1")).Equal(dec("1.01")))
}
