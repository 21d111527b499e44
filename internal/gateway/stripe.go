package gateway

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

type StripeGateway struct {
	api        *client.API
	successURL string
	cancelURL  string
}

// NewStripeGateway builds a Checkout-based gateway. backends may be nil to use Stripe's defaults.
func NewStripeGateway(secretKey, successURL, cancelURL string, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{api: api, successURL: successURL, cancelURL: cancelURL}
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	bookingID := strconv.FormatInt(req.BookingID, 10)
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		ClientReferenceID:  stripe.String(bookingID),
		SuccessURL:         stripe.String(g.successURL),
		CancelURL:          stripe.String(g.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(toMinorUnits(req.UnitAmount)),
				},
				Quantity: stripe.Int64(int64(req.Quantity)),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", bookingID)

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout for booking %d: %v -> %w", req.BookingID, err, domain.ErrGatewayUnavailable)
	}
	return &Checkout{Token: session.ID, URL: session.URL}, nil
}

// Refund resolves the payment intent behind the checkout session and refunds it.
func (g *StripeGateway) Refund(ctx context.Context, req RefundRequest) (string, error) {
	getParams := &stripe.CheckoutSessionParams{}
	getParams.Context = ctx
	getParams.AddExpand("payment_intent")

	session, err := g.api.CheckoutSessions.Get(req.GatewayToken, getParams)
	if err != nil {
		return "", fmt.Errorf("stripe session %s: %v -> %w", req.GatewayToken, err, domain.ErrGatewayUnavailable)
	}
	if session.PaymentIntent == nil || session.PaymentIntent.ID == "" {
		return "", fmt.Errorf("stripe session %s has no payment intent -> %w", req.GatewayToken, domain.ErrGatewayUnavailable)
	}

	params := &stripe.RefundParams{PaymentIntent: stripe.String(session.PaymentIntent.ID)}
	params.Context = ctx
	if req.Amount.IsPositive() {
		params.Amount = stripe.Int64(toMinorUnits(req.Amount))
	}
	params.AddMetadata("booking_id", strconv.FormatInt(req.BookingID, 10))

	refund, err := g.api.Refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe refund for booking %d: %v -> %w", req.BookingID, err, domain.ErrGatewayUnavailable)
	}
	return refund.ID, nil
}

var _ Gateway = (*StripeGateway)(nil)
