package v1

import (
	"net/http"

	"github.com/clientdesk-api/dto"
	"github.com/gin-gonic/gin"
)

func (h *Handler) paymentsEnabled(c *gin.Context) bool {
	if h.payments == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "Payments are not configured",
		})
		return false
	}
	return true
}

// ListPayments returns the payment history of a project
func (h *Handler) ListPayments(c *gin.Context) {
	userID, isAdmin, ok := caller(c)
	if !ok || !h.paymentsEnabled(c) {
		return
	}

	payments, err := h.payments.ListPayments(c.Request.Context(), c.Param("id"), userID, isAdmin)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, payments)
}

// CreatePaymentOrder opens a checkout for the project's current payment action
func (h *Handler) CreatePaymentOrder(c *gin.Context) {
	userID, isAdmin, ok := caller(c)
	if !ok || !h.paymentsEnabled(c) {
		return
	}

	order, err := h.payments.CreatePaymentOrder(c.Request.Context(), c.Param("id"), userID, isAdmin)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, order)
}

// CapturePayment settles an order the client approved at the gateway
func (h *Handler) CapturePayment(c *gin.Context) {
	userID, isAdmin, ok := caller(c)
	if !ok || !h.paymentsEnabled(c) {
		return
	}

	var req dto.CapturePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	payment, err := h.payments.CapturePayment(c.Request.Context(), c.Param("id"), req.OrderID, userID, isAdmin)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, payment)
}
