package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clientdesk-api/dto"
	"github.com/clientdesk-api/metrics"
	"github.com/clientdesk-api/models"
	"github.com/clientdesk-api/repositories"
	"github.com/clientdesk-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrPaymentDeclined means the gateway did not complete the capture
var ErrPaymentDeclined = errors.New("payment was not completed by the gateway")

// OrderRequest describes a checkout order to open at the gateway
type OrderRequest struct {
	Reference   string
	Description string
	Amount      int64 // minor units
	Currency    string
}

// GatewayOrder is an order opened at the gateway, awaiting client approval
type GatewayOrder struct {
	ID         string
	ApproveURL string
}

// GatewayCapture is the gateway's answer to a capture request
type GatewayCapture struct {
	ID        string
	Completed bool
}

// PaymentGateway creates and captures checkout orders. Implementations are
// thin wrappers over a provider SDK.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (GatewayOrder, error)
	CaptureOrder(ctx context.Context, orderID string) (GatewayCapture, error)
}

// PaymentService opens and settles deposit and final payments
type PaymentService struct {
	db            *gorm.DB
	gateway       PaymentGateway
	projectRepo   *repositories.ProjectRepository
	paymentRepo   *repositories.PaymentRepository
	activityRepo  *repositories.ActivityRepository
	notifications *NotificationService
	publisher     EventPublisher
	logger        *zap.Logger
	now           func() time.Time
}

// NewPaymentService creates a new payment service instance
func NewPaymentService(db *gorm.DB, gateway PaymentGateway, notifications *NotificationService, publisher EventPublisher, logger *zap.Logger) *PaymentService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &PaymentService{
		db:            db,
		gateway:       gateway,
		projectRepo:   repositories.NewProjectRepository(db),
		paymentRepo:   repositories.NewPaymentRepository(db),
		activityRepo:  repositories.NewActivityRepository(db),
		notifications: notifications,
		publisher:     publisher,
		logger:        logger.Named("payments"),
		now:           time.Now,
	}
}

// splitQuote returns the amount due for a payment kind. The deposit is half
// the quote rounded down; the final payment is the remainder.
func splitQuote(quote int64, kind models.PaymentKind) int64 {
	deposit := quote / 2
	if kind == models.PaymentKindDeposit {
		return deposit
	}
	return quote - deposit
}

// CreatePaymentOrder opens a gateway order for whichever payment action is
// currently enabled on the project
func (s *PaymentService) CreatePaymentOrder(ctx context.Context, projectID, userID string, isAdmin bool) (dto.PaymentOrderResponse, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return dto.PaymentOrderResponse{}, notFound(err, "project")
	}
	if !isAdmin && project.UserID != userID {
		return dto.PaymentOrderResponse{}, ErrUnauthorized
	}

	action, ok := ProjectPaymentState(project).EnabledAction()
	if !ok {
		return dto.PaymentOrderResponse{}, ErrPaymentNotAllowed
	}
	if project.QuoteAmount <= 0 {
		return dto.PaymentOrderResponse{}, &ValidationError{Field: "quoteAmount", Message: "project has no quote yet"}
	}

	shortID, err := utils.GenerateShortID()
	if err != nil {
		return dto.PaymentOrderResponse{}, err
	}
	amount := splitQuote(project.QuoteAmount, action.Kind)
	reference := "INV-" + strings.ToUpper(shortID)

	order, err := s.gateway.CreateOrder(ctx, OrderRequest{
		Reference:   reference,
		Description: fmt.Sprintf("%s - %s", project.Title, action.Label),
		Amount:      amount,
		Currency:    project.Currency,
	})
	if err != nil {
		metrics.IncrementPayment(string(action.Kind), "failed")
		return dto.PaymentOrderResponse{}, fmt.Errorf("failed to create payment order: %w", err)
	}

	payment := models.Payment{
		ProjectID: project.ID,
		Reference: reference,
		Kind:      action.Kind,
		OrderID:   order.ID,
		Amount:    amount,
		Currency:  project.Currency,
		Status:    models.PaymentStatusCreated,
	}
	if err := s.paymentRepo.Create(ctx, &payment); err != nil {
		return dto.PaymentOrderResponse{}, fmt.Errorf("failed to store payment: %w", err)
	}

	metrics.IncrementPayment(string(action.Kind), "created")
	s.logger.Info("payment order created",
		zap.String("project_id", project.ID),
		zap.String("order_id", order.ID),
		zap.String("kind", string(action.Kind)),
		zap.Int64("amount", amount),
	)

	return dto.PaymentOrderResponse{Payment: payment, OrderID: order.ID, ApproveURL: order.ApproveURL}, nil
}

// CapturePayment settles an approved order and moves the project's payment
// status to 50 (deposit) or 100 (final). A deposit also starts the work.
// Capturing an order that is already captured returns it unchanged.
func (s *PaymentService) CapturePayment(ctx context.Context, projectID, orderID, userID string, isAdmin bool) (models.Payment, error) {
	payment, err := s.paymentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return models.Payment{}, notFound(err, "payment")
	}
	if payment.ProjectID != projectID {
		return models.Payment{}, fmt.Errorf("payment: %w", ErrNotFound)
	}

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return models.Payment{}, notFound(err, "project")
	}
	if !isAdmin && project.UserID != userID {
		return models.Payment{}, ErrUnauthorized
	}

	if payment.Status == models.PaymentStatusCaptured {
		return payment, nil
	}
	if payment.Status == models.PaymentStatusFailed {
		return models.Payment{}, ErrPaymentDeclined
	}

	capture, err := s.gateway.CaptureOrder(ctx, orderID)
	if err != nil {
		return models.Payment{}, fmt.Errorf("failed to capture payment: %w", err)
	}
	if !capture.Completed {
		if err := s.paymentRepo.MarkFailed(ctx, payment.ID); err != nil {
			s.logger.Error("failed to mark payment failed", zap.String("payment_id", payment.ID), zap.Error(err))
		}
		metrics.IncrementPayment(string(payment.Kind), "failed")
		return models.Payment{}, ErrPaymentDeclined
	}

	now := s.now()
	captured := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		won, err := s.paymentRepo.WithTx(tx).MarkCaptured(ctx, payment.ID, now)
		if err != nil {
			return err
		}
		if !won {
			// A concurrent capture already settled the project
			return nil
		}
		captured = true

		fields := map[string]interface{}{"updated_at": now}
		switch payment.Kind {
		case models.PaymentKindDeposit:
			fields["payment_status"] = 50
			if project.Status == models.ProjectStatusAwaitingDP {
				fields["status"] = models.ProjectStatusInProgress
			}
		case models.PaymentKindFinal:
			fields["payment_status"] = 100
		}
		if err := s.projectRepo.WithTx(tx).UpdateFields(ctx, project.ID, fields); err != nil {
			return err
		}

		return s.activityRepo.WithTx(tx).Create(ctx, &models.Activity{
			ProjectID: project.ID,
			ActorID:   &userID,
			Kind:      models.ActivityPaymentCaptured,
			Message:   fmt.Sprintf("%s payment received (%s)", paymentKindLabel(payment.Kind), payment.Reference),
			CreatedAt: now,
		})
	})
	if err != nil {
		return models.Payment{}, fmt.Errorf("failed to record capture: %w", err)
	}

	payment, err = s.paymentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return models.Payment{}, notFound(err, "payment")
	}
	if !captured {
		return payment, nil
	}

	metrics.IncrementPayment(string(payment.Kind), "captured")
	s.logger.Info("payment captured",
		zap.String("project_id", project.ID),
		zap.String("payment_id", payment.ID),
		zap.String("kind", string(payment.Kind)),
	)

	if s.notifications != nil {
		pid := project.ID
		s.notifications.Notify(ctx, project.UserID, models.NotificationStatusUpdate,
			"Payment received",
			fmt.Sprintf("We received your %s payment for %s.", strings.ToLower(paymentKindLabel(payment.Kind)), project.Title),
			&pid,
		)
	}
	publish(ctx, s.publisher, s.logger, EventPaymentCaptured, PaymentCapturedEvent{
		PaymentID: payment.ID,
		ProjectID: project.ID,
		Kind:      string(payment.Kind),
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		At:        now,
	})

	return payment, nil
}

// ListPayments returns every payment recorded for a project
func (s *PaymentService) ListPayments(ctx context.Context, projectID, userID string, isAdmin bool) ([]models.Payment, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err, "project")
	}
	if !isAdmin && project.UserID != userID {
		return nil, ErrUnauthorized
	}
	payments, err := s.paymentRepo.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func paymentKindLabel(kind models.PaymentKind) string {
	if kind == models.PaymentKindDeposit {
		return "Deposit"
	}
	return "Final"
}
