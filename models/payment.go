package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentKind tells which half of the quote a payment settles
type PaymentKind string

const (
	PaymentKindDeposit PaymentKind = "deposit"
	PaymentKindFinal   PaymentKind = "final"
)

type PaymentStatus string

const (
	PaymentStatusCreated  PaymentStatus = "created"
	PaymentStatusCaptured PaymentStatus = "captured"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// Payment records one checkout order against a project
type Payment struct {
	ID         string        `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID  string        `json:"projectId" gorm:"type:uuid;not null;index"`
	Reference  string        `json:"reference" gorm:"type:varchar(32);uniqueIndex;not null"`
	Kind       PaymentKind   `json:"kind" gorm:"type:varchar(10);not null"`
	OrderID    string        `json:"orderId" gorm:"type:varchar(64);uniqueIndex;not null"`
	Amount     int64         `json:"amount" gorm:"not null"`
	Currency   string        `json:"currency" gorm:"type:varchar(3);not null"`
	Status     PaymentStatus `json:"status" gorm:"type:varchar(10);not null;default:'created'"`
	CapturedAt *time.Time    `json:"capturedAt"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
