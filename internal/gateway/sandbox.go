package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SandboxGateway accepts every checkout and refund. It is meant for local runs where the
// callbacks are triggered by hand.
type SandboxGateway struct {
	checkoutBaseURL string
}

func NewSandboxGateway(checkoutBaseURL string) *SandboxGateway {
	return &SandboxGateway{checkoutBaseURL: checkoutBaseURL}
}

func (g *SandboxGateway) CreateCheckout(_ context.Context, req CheckoutRequest) (*Checkout, error) {
	token := "sbx_" + uuid.NewString()
	zap.L().Info("sandbox checkout opened",
		zap.Int64("booking_id", req.BookingID),
		zap.String("token", token),
		zap.String("total", req.Total().StringFixed(2)),
	)
	return &Checkout{Token: token, URL: fmt.Sprintf("%s/%s", g.checkoutBaseURL, token)}, nil
}

func (g *SandboxGateway) Refund(_ context.Context, req RefundRequest) (string, error) {
	refundID := "sbx_re_" + uuid.NewString()
	zap.L().Info("sandbox refund issued",
		zap.Int64("booking_id", req.BookingID),
		zap.String("refund_id", refundID),
	)
	return refundID, nil
}

var _ Gateway = (*SandboxGateway)(nil)
