package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Domenick1991/activitybooking/internal/service/admin"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	service admin.AdminUseCase
}

func NewAdminHandler(service admin.AdminUseCase) *AdminHandler {
	return &AdminHandler{service: service}
}

// Register mounts the admin routes. The group must carry RequireUser and RequireAdmin.
func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/sessions", h.createSession)
	router.POST("/sessions/:id/force-cancel", h.forceCancel)
	router.DELETE("/sessions/:id", h.deleteSession)
	router.POST("/passes", h.issuePass)
	router.POST("/credits", h.grantCredit)
}

func (h *AdminHandler) createSession(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		renderBadRequest(c, err)
		return
	}

	session, err := h.service.CreateSession(c.Request.Context(), actor, admin.CreateSessionInput{
		ActivityType:    req.ActivityType,
		StartsAt:        req.StartsAt,
		Duration:        time.Duration(req.DurationMinutes) * time.Minute,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		renderError(c, fmt.Errorf("h.service.CreateSession -> %w", err))
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(*session))
}

func (h *AdminHandler) forceCancel(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req forceCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		renderBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		renderBadRequest(c, err)
		return
	}

	result, err := h.service.ForceCancelSession(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		renderError(c, fmt.Errorf("h.service.ForceCancelSession -> %w", err))
		return
	}

	resp := cascadeResponse{
		SessionID: result.SessionID,
		Cancelled: result.Cancelled,
		Discarded: result.Discarded,
		Failures:  make([]cascadeFailureResponse, 0, len(result.Failures)),
	}
	for _, f := range result.Failures {
		resp.Failures = append(resp.Failures, cascadeFailureResponse{BookingID: f.BookingID, Error: f.Err.Error(), Cancelled: f.Cancelled})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) deleteSession(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteSession(c.Request.Context(), actor, id); err != nil {
		renderError(c, fmt.Errorf("h.service.DeleteSession -> %w", err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) issuePass(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req issuePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		renderBadRequest(c, err)
		return
	}

	input := admin.IssuePassInput{OwnerID: req.OwnerID, ActivityType: req.ActivityType, Entries: req.Entries}
	if req.PurchasedAt != nil {
		input.PurchasedAt = *req.PurchasedAt
	}
	pass, err := h.service.IssuePass(c.Request.Context(), actor, input)
	if err != nil {
		renderError(c, fmt.Errorf("h.service.IssuePass -> %w", err))
		return
	}
	c.JSON(http.StatusCreated, toPassResponse(pass))
}

func (h *AdminHandler) grantCredit(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req grantCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderBadRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		renderBadRequest(c, err)
		return
	}

	credit, err := h.service.GrantCredit(c.Request.Context(), actor, admin.GrantCreditInput{
		OwnerID:      req.OwnerID,
		ActivityType: req.ActivityType,
	})
	if err != nil {
		renderError(c, fmt.Errorf("h.service.GrantCredit -> %w", err))
		return
	}
	c.JSON(http.StatusCreated, toCreditResponse(credit))
}
