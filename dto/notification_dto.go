package dto

import "github.com/clientdesk-api/models"

// NotificationListResponse is one page of a user's notifications
type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	TotalCount    int64                 `json:"totalCount"`
	UnreadCount   int64                 `json:"unreadCount"`
	Page          int                   `json:"page"`
	PageSize      int                   `json:"pageSize"`
}
