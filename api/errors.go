package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/activitybooking/internal/domain"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorTable is checked in order, so more specific sentinels come first.
var errorTable = []errorMapping{
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{domain.ErrConsentRequired, http.StatusBadRequest, "consent_required"},
	{domain.ErrTargetRequired, http.StatusBadRequest, "target_required"},
	{domain.ErrInvalidRemedy, http.StatusUnprocessableEntity, "invalid_remedy"},
	{domain.ErrActivityMismatch, http.StatusUnprocessableEntity, "activity_mismatch"},
	{domain.ErrPriceUnavailable, http.StatusUnprocessableEntity, "price_unavailable"},
	{domain.ErrEntitlementScope, http.StatusUnprocessableEntity, "entitlement_scope"},
	{domain.ErrEntitlementInsufficient, http.StatusConflict, "entitlement_insufficient"},
	{domain.ErrEntitlementExpired, http.StatusConflict, "entitlement_expired"},
	{domain.ErrAlreadyConsumed, http.StatusConflict, "already_consumed"},
	{domain.ErrTargetSessionFull, http.StatusConflict, "target_session_full"},
	{domain.ErrCapacityExceeded, http.StatusConflict, "session_full"},
	{domain.ErrSessionUnavailable, http.StatusConflict, "session_unavailable"},
	{domain.ErrAlreadyCancelled, http.StatusConflict, "already_cancelled"},
	{domain.ErrCutoffWindowPassed, http.StatusConflict, "cutoff_window_passed"},
	{domain.ErrBookingNotActive, http.StatusConflict, "booking_not_active"},
	{domain.ErrBookingNotPending, http.StatusConflict, "booking_not_pending"},
	{domain.ErrCallbackInProgress, http.StatusConflict, "callback_in_progress"},
	{domain.ErrSessionNotCancellable, http.StatusConflict, "session_not_cancellable"},
	{domain.ErrDuplicate, http.StatusConflict, "duplicate"},
	{domain.ErrGatewayUnavailable, http.StatusBadGateway, "gateway_unavailable"},
}

func statusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func renderError(c *gin.Context, err error) {
	status, code := statusFor(err)
	rid := requestid.Get(c)

	message := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("request_id", rid),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		message = "internal server error"
	} else {
		zap.L().Debug("request rejected",
			zap.String("request_id", rid),
			zap.String("code", code),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: message, Code: code, RequestID: rid})
}

func renderBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_input", RequestID: requestid.Get(c)})
}
