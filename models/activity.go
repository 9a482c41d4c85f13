package models

import (
	"time"

	"gorm.io/gorm"
)

type ActivityKind string

const (
	ActivityProjectCreated   ActivityKind = "project_created"
	ActivityStatusChanged    ActivityKind = "status_changed"
	ActivityProgressUpdated  ActivityKind = "progress_updated"
	ActivityPaymentCaptured  ActivityKind = "payment_captured"
	ActivityFeedbackReceived ActivityKind = "feedback_received"
	ActivityTokenIssued      ActivityKind = "token_issued"
)

// Activity is one entry of a project's append-only feed
type Activity struct {
	ID        string       `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID string       `json:"projectId" gorm:"type:uuid;not null;index"`
	ActorID   *string      `json:"actorId" gorm:"type:uuid"`
	Kind      ActivityKind `json:"kind" gorm:"type:varchar(32);not null"`
	Message   string       `json:"message" gorm:"not null"`
	CreatedAt time.Time    `json:"createdAt" gorm:"index"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
