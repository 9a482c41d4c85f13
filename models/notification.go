package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// NotificationType is a closed set; anything unrecognised is NotificationOther
type NotificationType string

const (
	NotificationNewMessage      NotificationType = "new_message"
	NotificationStatusUpdate    NotificationType = "status_update"
	NotificationNewFeedback     NotificationType = "new_feedback"
	NotificationMilestoneUpdate NotificationType = "milestone_update"
	NotificationOther           NotificationType = "other"
)

// ParseNotificationType maps a raw value onto the closed set
func ParseNotificationType(s string) NotificationType {
	switch t := NotificationType(s); t {
	case NotificationNewMessage, NotificationStatusUpdate, NotificationNewFeedback, NotificationMilestoneUpdate:
		return t
	default:
		return NotificationOther
	}
}

// Value implements driver.Valuer
func (t NotificationType) Value() (driver.Value, error) {
	return string(ParseNotificationType(string(t))), nil
}

// Scan implements sql.Scanner
func (t *NotificationType) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = NotificationOther
	case string:
		*t = ParseNotificationType(v)
	case []byte:
		*t = ParseNotificationType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into NotificationType", value)
	}
	return nil
}

// Notification is an in-app message for one user. IsRead only moves
// false -> true and rows are never deleted.
type Notification struct {
	ID        string           `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    string           `json:"userId" gorm:"type:uuid;not null;index:idx_notifications_user_read"`
	Type      NotificationType `json:"type" gorm:"type:varchar(32);not null"`
	Title     string           `json:"title" gorm:"not null"`
	Message   string           `json:"message" gorm:"type:text"`
	ProjectID *string          `json:"projectId" gorm:"type:uuid"`
	IsRead    bool             `json:"isRead" gorm:"not null;default:false;index:idx_notifications_user_read"`
	ReadAt    *time.Time       `json:"readAt"`
	CreatedAt time.Time        `json:"createdAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	assignID(&n.ID)
	if n.Type == "" {
		n.Type = NotificationOther
	}
	return nil
}
