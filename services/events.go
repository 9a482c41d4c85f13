package services

import (
	"context"
	"time"
)

// Routing keys for domain events
const (
	EventFeedbackSubmitted   = "feedback.submitted"
	EventProjectUpdated      = "project.updated"
	EventPaymentCaptured     = "payment.captured"
	EventNotificationCreated = "notification.created"
)

// EventPublisher hands domain events to downstream consumers. Delivery is
// best-effort; publish failures never fail the originating operation.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// NoopPublisher drops every event, used when no broker is configured
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

type FeedbackSubmittedEvent struct {
	FeedbackID string    `json:"feedbackId"`
	ProjectID  string    `json:"projectId"`
	Rating     *int      `json:"rating,omitempty"`
	At         time.Time `json:"at"`
}

type ProjectUpdatedEvent struct {
	ProjectID     string    `json:"projectId"`
	Status        string    `json:"status"`
	Progress      int       `json:"progress"`
	PaymentStatus int       `json:"paymentStatus"`
	At            time.Time `json:"at"`
}

type PaymentCapturedEvent struct {
	PaymentID string    `json:"paymentId"`
	ProjectID string    `json:"projectId"`
	Kind      string    `json:"kind"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	At        time.Time `json:"at"`
}

type NotificationCreatedEvent struct {
	NotificationID string    `json:"notificationId"`
	UserID         string    `json:"userId"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	At             time.Time `json:"at"`
}
