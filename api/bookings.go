package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/Domenick1991/activitybooking/internal/service/booking"
	"github.com/Domenick1991/activitybooking/internal/service/cancellation"
	"github.com/gin-gonic/gin"
)

type Canceller interface {
	Cancel(ctx context.Context, req cancellation.CancelRequest) (*cancellation.CancelResult, error)
}

type BookingHandler struct {
	service   booking.BookingUseCase
	canceller Canceller
}

func NewBookingHandler(service booking.BookingUseCase, canceller Canceller) *BookingHandler {
	return &BookingHandler{service: service, canceller: canceller}
}

// Register mounts the booking routes. The group must carry RequireUser.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
	router.GET("/bookings", h.list)
	router.GET("/bookings/:id", h.get)
	router.POST("/bookings/:id/cancel", h.cancel)
	router.POST("/credit-options/:token/redeem", h.redeem)
}

func (h *BookingHandler) create(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		renderBadRequest(c, err)
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserID:             actor.UserID,
		SessionID:          req.SessionID,
		EntitlementType:    domain.EntitlementType(req.EntitlementType),
		PassID:             req.PassID,
		CreditID:           req.CreditID,
		Weight:             req.Weight,
		AccompanyingPerson: req.AccompanyingPerson,
		Note:               req.Note,
		TermsAccepted:      req.TermsAccepted,
	})
	if err != nil {
		renderError(c, fmt.Errorf("h.service.CreateBooking -> %w", err))
		return
	}

	c.JSON(http.StatusCreated, createBookingResponse{
		Booking:     toBookingResponse(result.Booking),
		CheckoutURL: result.CheckoutURL,
	})
}

func (h *BookingHandler) list(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), actor)
	if err != nil {
		renderError(c, fmt.Errorf("h.service.ListBookings -> %w", err))
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) get(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), id, actor)
	if err != nil {
		renderError(c, fmt.Errorf("h.service.GetBooking -> %w", err))
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req cancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		renderBadRequest(c, err)
		return
	}

	result, err := h.canceller.Cancel(c.Request.Context(), cancellation.CancelRequest{
		BookingID:       id,
		Actor:           actor,
		Remedy:          domain.Remedy(req.Remedy),
		TargetSessionID: req.TargetSessionID,
	})
	if err != nil {
		renderError(c, fmt.Errorf("h.canceller.Cancel -> %w", err))
		return
	}

	resp := cancelResponse{
		Booking:       toBookingResponse(result.Booking),
		Credit:        toCreditResponse(result.Credit),
		Pass:          toPassResponse(result.Pass),
		RefundPending: result.RefundPending(),
	}
	if result.Replacement != nil {
		replacement := toBookingResponse(result.Replacement)
		resp.Replacement = &replacement
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) redeem(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	result, err := h.service.RedeemCreditOption(c.Request.Context(), c.Param("token"), actor)
	if err != nil {
		renderError(c, fmt.Errorf("h.service.RedeemCreditOption -> %w", err))
		return
	}

	status := http.StatusOK
	if result.Outcome == domain.RedemptionInvalid {
		status = http.StatusGone
	}
	c.JSON(status, redemptionResponse{
		Outcome: string(result.Outcome),
		Credit:  toCreditResponse(result.Credit),
	})
}
