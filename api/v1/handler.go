package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/clientdesk-api/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the v1 API on top of the service layer
type Handler struct {
	auth          *services.AuthService
	projects      *services.ProjectService
	feedback      *services.FeedbackTokenService
	notifications *services.NotificationService
	payments      *services.PaymentService
	logger        *zap.Logger

	// SecureCookies marks the access_token cookie Secure; off for local http
	SecureCookies bool
	TokenTTL      time.Duration
}

// Services bundles the dependencies of a Handler. Payments may be nil when
// no gateway is configured.
type Services struct {
	Auth          *services.AuthService
	Projects      *services.ProjectService
	Feedback      *services.FeedbackTokenService
	Notifications *services.NotificationService
	Payments      *services.PaymentService
}

// NewHandler creates the API handler
func NewHandler(svc Services, logger *zap.Logger) *Handler {
	return &Handler{
		auth:          svc.Auth,
		projects:      svc.Projects,
		feedback:      svc.Feedback,
		notifications: svc.Notifications,
		payments:      svc.Payments,
		logger:        logger.Named("api"),
		SecureCookies: true,
		TokenTTL:      24 * time.Hour,
	}
}

// caller returns the authenticated user set by AuthMiddleware
func caller(c *gin.Context) (userID string, isAdmin bool, ok bool) {
	id, exists := c.Get("userId")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "User not authenticated"})
		return "", false, false
	}
	userID, ok = id.(string)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "User not authenticated"})
		return "", false, false
	}
	role, _ := c.Get("role")
	return userID, role == "admin", true
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"status": "success",
		"data":   data,
	})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  "error",
		"message": "Invalid request data: " + err.Error(),
	})
}

// respondError maps service errors onto HTTP statuses. Anything
// unrecognised is logged and reported as a 500 without details.
func (h *Handler) respondError(c *gin.Context, err error) {
	if tie, ok := services.IsTokenInvalid(err); ok {
		status := http.StatusGone
		if tie.Reason == services.TokenNotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"status":  "error",
			"reason":  tie.Reason,
			"message": tie.Message(),
		})
		return
	}

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"field":   verr.Field,
			"message": verr.Error(),
		})
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	switch {
	case errors.Is(err, services.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrUnauthorized):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrPaymentNotAllowed),
		errors.Is(err, services.ErrEmailTaken):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, services.ErrPaymentDeclined):
		status, message = http.StatusPaymentRequired, err.Error()
	case errors.Is(err, services.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, err.Error()
	default:
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	c.JSON(status, gin.H{
		"status":  "error",
		"message": message,
	})
}
