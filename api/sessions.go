package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/Domenick1991/activitybooking/internal/service/sessions"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	service sessions.SessionUseCase
}

func NewSessionHandler(service sessions.SessionUseCase) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
}

func (h *SessionHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		renderError(c, fmt.Errorf("h.service.List -> %w", err))
		return
	}

	resp := make([]sessionResponse, 0, len(list))
	for _, s := range list {
		resp = append(resp, toSessionResponse(s))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	availability, err := h.service.GetAvailability(c.Request.Context(), id)
	if err != nil {
		renderError(c, fmt.Errorf("h.service.GetAvailability -> %w", err))
		return
	}
	c.JSON(http.StatusOK, toAvailabilityResponse(*availability))
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		renderError(c, fmt.Errorf("%s must be a positive integer -> %w", name, domain.ErrInvalidInput))
		return 0, false
	}
	return id, true
}
