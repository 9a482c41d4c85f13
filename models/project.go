package models

import (
	"time"

	"gorm.io/gorm"
)

// ProjectStatus is the lifecycle stage of a client project
type ProjectStatus string

const (
	ProjectStatusPendingReview ProjectStatus = "pending_review"
	ProjectStatusAwaitingDP    ProjectStatus = "awaiting_dp"
	ProjectStatusInProgress    ProjectStatus = "in_progress"
	ProjectStatusUnderReview   ProjectStatus = "under_review"
	ProjectStatusCompleted     ProjectStatus = "completed"
)

// Project represents a tracked unit of client work.
// Timeline is in weeks and QuoteAmount in the currency's minor units.
type Project struct {
	ID            string         `json:"id" gorm:"primaryKey;type:uuid"`
	UserID        string         `json:"userId" gorm:"type:uuid;not null;index"`
	Title         string         `json:"title" gorm:"not null"`
	Description   string         `json:"description" gorm:"default:null"`
	Status        ProjectStatus  `json:"status" gorm:"type:varchar(20);not null;default:'pending_review';index"`
	Progress      int            `json:"progress" gorm:"not null;default:0"`
	PaymentStatus int            `json:"paymentStatus" gorm:"not null;default:0"`
	Timeline      int            `json:"timeline" gorm:"not null;default:0"`
	QuoteAmount   int64          `json:"quoteAmount" gorm:"not null;default:0"`
	Currency      string         `json:"currency" gorm:"type:varchar(3);not null;default:'USD'"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
