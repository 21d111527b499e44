package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Domenick1991/activitybooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

// PaymentHandler receives the gateway's checkout outcome. Gateways redeliver on anything but 2xx,
// so replays answer 200 with already_processed set.
type PaymentHandler struct {
	service booking.BookingUseCase
}

func NewPaymentHandler(service booking.BookingUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Register mounts the callbacks. The group must carry RequireGatewaySecret.
func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/callback/success", h.success)
	router.POST("/callback/failure", h.failure)
}

func (h *PaymentHandler) success(c *gin.Context) {
	h.handle(c, "ConfirmPayment", h.service.ConfirmPayment)
}

func (h *PaymentHandler) failure(c *gin.Context) {
	h.handle(c, "FailPayment", h.service.FailPayment)
}

func (h *PaymentHandler) handle(
	c *gin.Context,
	name string,
	call func(ctx context.Context, callback booking.PaymentCallback) (*booking.CallbackResult, error),
) {
	var req paymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		renderBadRequest(c, err)
		return
	}

	result, err := call(c.Request.Context(), booking.PaymentCallback{
		GatewayToken: req.GatewayToken,
		BookingID:    req.BookingID,
		Amount:       req.amount(),
	})
	if err != nil {
		renderError(c, fmt.Errorf("h.service.%s -> %w", name, err))
		return
	}

	resp := callbackResponse{
		Booking:          toBookingResponse(result.Booking),
		AlreadyProcessed: result.AlreadyProcessed,
	}
	if o := result.CreditOption; o != nil {
		resp.CreditOption = &creditOptionResponse{Token: o.Token, ExpiresAt: o.ExpiresAt, Status: string(o.Status)}
	}
	c.JSON(http.StatusOK, resp)
}
