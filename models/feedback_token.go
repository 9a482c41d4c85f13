package models

import (
	"time"

	"gorm.io/gorm"
)

// TokenState is the observed lifecycle state of a feedback token.
// It is derived on read and never stored.
type TokenState string

const (
	TokenStateActive   TokenState = "active"
	TokenStateConsumed TokenState = "consumed"
	TokenStateExpired  TokenState = "expired"
)

// FeedbackToken grants anonymous, single-use access to submit feedback for
// one project. Rows are never deleted; IsUsed only moves false -> true.
type FeedbackToken struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID string     `json:"projectId" gorm:"type:uuid;not null;index"`
	Token     string     `json:"token" gorm:"type:varchar(64);uniqueIndex;not null"`
	ExpiresAt *time.Time `json:"expiresAt"`
	IsUsed    bool       `json:"isUsed" gorm:"not null;default:false"`
	CreatedBy *string    `json:"createdBy" gorm:"type:uuid"`
	CreatedAt time.Time  `json:"createdAt"`

	Project Project `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

func (t *FeedbackToken) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// IsExpired reports whether the token has a deadline at or before now
func (t FeedbackToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// State derives the lifecycle state at the given instant. A consumed token
// stays consumed even after its deadline passes.
func (t FeedbackToken) State(now time.Time) TokenState {
	switch {
	case t.IsUsed:
		return TokenStateConsumed
	case t.IsExpired(now):
		return TokenStateExpired
	default:
		return TokenStateActive
	}
}
