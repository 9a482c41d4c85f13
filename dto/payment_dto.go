package dto

import "github.com/clientdesk-api/models"

// PaymentOrderResponse is returned after an order is opened at the gateway
type PaymentOrderResponse struct {
	Payment    models.Payment `json:"payment"`
	OrderID    string         `json:"orderId"`
	ApproveURL string         `json:"approveUrl"`
}

// CapturePaymentRequest names the gateway order approved by the client
type CapturePaymentRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}
