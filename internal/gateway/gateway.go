// Package gateway talks to the external payment provider. The engine only needs two calls:
// open a checkout for a pending booking and refund a paid one.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

type CheckoutRequest struct {
	BookingID   int64
	UnitAmount  decimal.Decimal
	Quantity    int
	Currency    string
	Description string
}

func (r CheckoutRequest) Total() decimal.Decimal {
	return r.UnitAmount.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// Checkout is an opened payment session. Token identifies it in the provider's callbacks.
type Checkout struct {
	Token string
	URL   string
}

type RefundRequest struct {
	BookingID    int64
	GatewayToken string
	Amount       decimal.Decimal
}

type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	Refund(ctx context.Context, req RefundRequest) (string, error)
}

func toMinorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}
