package services

import (
	"context"
	"fmt"
	"time"

	"github.com/clientdesk-api/metrics"
	"github.com/clientdesk-api/models"
	"github.com/clientdesk-api/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UnreadCache stores per-user unread counts. Every write to a user's
// notifications must invalidate that user's entry, which also bumps the
// user's version. SetUnread stores a count only while the version it was
// read under is still current, so a count taken before a write can never
// land after that write's invalidation.
type UnreadCache interface {
	GetUnread(ctx context.Context, userID string) (count int64, ok bool, err error)
	UnreadVersion(ctx context.Context, userID string) (int64, error)
	SetUnread(ctx context.Context, userID string, count, version int64) (stored bool, err error)
	InvalidateUnread(ctx context.Context, userID string) error
}

// NotificationService tracks read state and unread counts per user
type NotificationService struct {
	notificationRepo *repositories.NotificationRepository
	cache            UnreadCache
	publisher        EventPublisher
	logger           *zap.Logger
	now              func() time.Time
}

// NewNotificationService creates a new notification service instance.
// cache and publisher may be nil.
func NewNotificationService(db *gorm.DB, cache UnreadCache, publisher EventPublisher, logger *zap.Logger) *NotificationService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &NotificationService{
		notificationRepo: repositories.NewNotificationRepository(db),
		cache:            cache,
		publisher:        publisher,
		logger:           logger.Named("notifications"),
		now:              time.Now,
	}
}

// Create stores a notification and drops the user's cached count
func (s *NotificationService) Create(ctx context.Context, n *models.Notification) error {
	n.Type = models.ParseNotificationType(string(n.Type))
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	s.invalidate(ctx, n.UserID)

	event := NotificationCreatedEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           string(n.Type),
		Title:          n.Title,
		At:             n.CreatedAt,
	}
	publish(ctx, s.publisher, s.logger, EventNotificationCreated, event)
	return nil
}

// Notify is Create for callers that treat delivery as best-effort: the
// error is logged, not returned.
func (s *NotificationService) Notify(ctx context.Context, userID string, kind models.NotificationType, title, message string, projectID *string) {
	n := &models.Notification{
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		ProjectID: projectID,
	}
	if err := s.Create(ctx, n); err != nil {
		s.logger.Warn("notification dropped",
			zap.String("user_id", userID),
			zap.String("type", string(kind)),
			zap.Error(err),
		)
	}
}

// List pages through a user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	notifications, total, err := s.notificationRepo.FindByUserID(ctx, userID, unreadOnly, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// UnreadCount returns how many of the user's notifications are unread
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if s.cache == nil {
		metrics.IncrementUnreadLookup("disabled")
		return s.countUnread(ctx, userID)
	}

	count, ok, err := s.cache.GetUnread(ctx, userID)
	if err != nil {
		s.logger.Warn("unread cache read failed", zap.String("user_id", userID), zap.Error(err))
	}
	if ok && err == nil {
		metrics.IncrementUnreadLookup("hit")
		return count, nil
	}

	metrics.IncrementUnreadLookup("miss")
	// The version must be read before counting
	version, verr := s.cache.UnreadVersion(ctx, userID)
	count, err = s.countUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if verr != nil {
		s.logger.Warn("unread cache version read failed", zap.String("user_id", userID), zap.Error(verr))
		return count, nil
	}
	stored, err := s.cache.SetUnread(ctx, userID, count, version)
	if err != nil {
		s.logger.Warn("unread cache write failed", zap.String("user_id", userID), zap.Error(err))
	} else if !stored {
		s.logger.Debug("unread count changed while counting, not cached", zap.String("user_id", userID))
	}
	return count, nil
}

func (s *NotificationService) countUnread(ctx context.Context, userID string) (int64, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead marks one of the user's notifications read. Marking an
// already-read notification succeeds without changing anything.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	n, err := s.notificationRepo.FindByID(ctx, notificationID)
	if err != nil {
		return notFound(err, "notification")
	}
	// Someone else's notification is reported as missing
	if n.UserID != userID {
		return fmt.Errorf("notification: %w", ErrNotFound)
	}
	if n.IsRead {
		return nil
	}

	if _, err := s.notificationRepo.MarkRead(ctx, notificationID, s.now()); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// MarkAllAsRead marks every currently unread notification of the user read
// in one statement and returns how many changed. Notifications inserted
// while it runs may or may not be included.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	updated, err := s.notificationRepo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	s.invalidate(ctx, userID)
	return updated, nil
}

func (s *NotificationService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUnread(ctx, userID); err != nil {
		s.logger.Warn("unread cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// publish sends an event and only logs failures
func publish(ctx context.Context, publisher EventPublisher, logger *zap.Logger, routingKey string, payload any) {
	if err := publisher.Publish(ctx, routingKey, payload); err != nil {
		metrics.IncrementEventPublished(routingKey, "failed")
		logger.Warn("event publish failed", zap.String("routing_key", routingKey), zap.Error(err))
		return
	}
	metrics.IncrementEventPublished(routingKey, "ok")
}
