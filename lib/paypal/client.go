package paypal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clientdesk-api/config"
	"github.com/clientdesk-api/services"
	"github.com/plutov/paypal/v4"
)

// Currencies PayPal accepts without a decimal part
var zeroDecimal = map[string]bool{"HUF": true, "JPY": true, "TWD": true}

// Gateway adapts the PayPal Orders API to services.PaymentGateway
type Gateway struct {
	client *paypal.Client
	cfg    config.PayPalConfig
}

// NewGateway creates a PayPal client against the sandbox or live API
func NewGateway(cfg config.PayPalConfig) (*Gateway, error) {
	if cfg.ClientID == "" || cfg.Secret == "" {
		return nil, errors.New("paypal client id and secret are required")
	}
	base := paypal.APIBaseLive
	if cfg.Sandbox {
		base = paypal.APIBaseSandBox
	}
	client, err := paypal.NewClient(cfg.ClientID, cfg.Secret, base)
	if err != nil {
		return nil, fmt.Errorf("failed to create paypal client: %w", err)
	}
	return &Gateway{client: client, cfg: cfg}, nil
}

func (g *Gateway) authorize(ctx context.Context) error {
	if _, err := g.client.GetAccessToken(ctx); err != nil {
		return fmt.Errorf("paypal authentication failed: %w", err)
	}
	return nil
}

func (g *Gateway) CreateOrder(ctx context.Context, req services.OrderRequest) (services.GatewayOrder, error) {
	if err := g.authorize(ctx); err != nil {
		return services.GatewayOrder{}, err
	}

	units := []paypal.PurchaseUnitRequest{{
		ReferenceID: req.Reference,
		InvoiceID:   req.Reference,
		Description: req.Description,
		Amount: &paypal.PurchaseUnitAmount{
			Currency: strings.ToUpper(req.Currency),
			Value:    FormatAmount(req.Amount, req.Currency),
		},
	}}
	appCtx := &paypal.ApplicationContext{
		ReturnURL: g.cfg.ReturnURL,
		CancelURL: g.cfg.CancelURL,
	}

	order, err := g.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		return services.GatewayOrder{}, err
	}

	result := services.GatewayOrder{ID: order.ID}
	for _, link := range order.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			result.ApproveURL = link.Href
			break
		}
	}
	return result, nil
}

func (g *Gateway) CaptureOrder(ctx context.Context, orderID string) (services.GatewayCapture, error) {
	if err := g.authorize(ctx); err != nil {
		return services.GatewayCapture{}, err
	}
	resp, err := g.client.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
	if err != nil {
		return services.GatewayCapture{}, err
	}
	return services.GatewayCapture{
		ID:        resp.ID,
		Completed: resp.Status == paypal.OrderStatusCompleted,
	}, nil
}

// FormatAmount renders minor units as the decimal string PayPal expects
func FormatAmount(minor int64, currency string) string {
	if zeroDecimal[strings.ToUpper(currency)] {
		return fmt.Sprintf("%d", minor)
	}
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
