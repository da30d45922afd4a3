// Package transfer holds the pure workflow rules: delivery-status derivation
// and the quantity bounds that link the three transfer documents.
package transfer

import (
	"github.com/shopspring/decimal"

	"github.com/storelink/transfer-api/internal/domain/entity"
)

// QuantityScale is the fixed-point scale for quantities (3 decimal places,
// matching the source documents). Monetary values use 2.
const (
	QuantityScale = 3
	CurrencyScale = 2
)

// DeriveDeliveryStatus computes the aggregate delivery status of a sales order
// from its line items: COMPLETED iff every line is fully issued,
// PARTIALLY_DELIVERED iff at least one line has been issued against,
// NOT_DELIVERED otherwise. Orders without lines are NOT_DELIVERED.
func DeriveDeliveryStatus(lines []entity.SalesOrderLineItem) string {
	if len(lines) == 0 {
		return entity.DeliveryNotDelivered
	}
	completed := true
	started := false
	for _, li := range lines {
		if li.IssuedQty.GreaterThan(decimal.Zero) {
			started = true
		}
		if li.Outstanding().GreaterThan(decimal.Zero) {
			completed = false
		}
	}
	switch {
	case completed:
		return entity.DeliveryCompleted
	case started:
		return entity.DeliveryPartiallyDelivered
	default:
		return entity.DeliveryNotDelivered
	}
}

// ValidQuantity reports whether q is a positive quantity with at most
// QuantityScale decimal places.
func ValidQuantity(q decimal.Decimal) bool {
	if !q.GreaterThan(decimal.Zero) {
		return false
	}
	return q.Round(QuantityScale).Equal(q)
}

// LineValue returns the monetary value of qty at unitPrice, rounded to the
// currency scale.
func LineValue(qty, unitPrice decimal.Decimal) decimal.Decimal {
	return qty.Mul(unitPrice).Round(CurrencyScale)
}
