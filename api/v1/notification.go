package v1

import (
	"net/http"
	"strconv"

	"github.com/clientdesk-api/dto"
	"github.com/gin-gonic/gin"
)

// ListNotifications pages through the caller's notifications.
// Query: page, pageSize, unread=true
func (h *Handler) ListNotifications(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if err != nil || pageSize < 1 {
		pageSize = 20
	}
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))

	ctx := c.Request.Context()
	notifications, total, err := h.notifications.List(ctx, userID, unreadOnly, page, pageSize)
	if err != nil {
		h.respondError(c, err)
		return
	}
	unread, err := h.notifications.UnreadCount(ctx, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, dto.NotificationListResponse{
		Notifications: notifications,
		TotalCount:    total,
		UnreadCount:   unread,
		Page:          page,
		PageSize:      pageSize,
	})
}

// GetUnreadCount returns the badge count for the caller
func (h *Handler) GetUnreadCount(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"count": count})
}

// MarkNotificationRead marks one notification read; repeating it is harmless
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkAsRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Notification marked as read",
	})
}

// MarkAllNotificationsRead clears the caller's unread notifications
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"updated": updated})
}
