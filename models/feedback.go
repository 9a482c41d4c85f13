package models

import (
	"time"

	"gorm.io/gorm"
)

// Feedback is written once, as a side effect of consuming a token
type Feedback struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID string    `json:"projectId" gorm:"type:uuid;not null;index"`
	TokenID   string    `json:"tokenId" gorm:"type:uuid;not null;uniqueIndex"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Rating    *int      `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	assignID(&f.ID)
	return nil
}
