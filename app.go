package main

import (
	"context"

	"github.com/clientdesk-api/config"
	"github.com/clientdesk-api/database"
	"github.com/clientdesk-api/lib/cache"
	"github.com/clientdesk-api/lib/mq"
	"github.com/clientdesk-api/lib/paypal"
	"github.com/clientdesk-api/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app owns the long-lived connections and the service graph
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB

	auth          *services.AuthService
	notifications *services.NotificationService
	projects      *services.ProjectService
	feedback      *services.FeedbackTokenService
	payments      *services.PaymentService

	closers []func()
}

// newApp connects to the database and the optional redis, rabbitmq and
// paypal backends. Optional backends that fail to connect are logged and
// skipped.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	db, err := database.Connect(cfg.DB, logger)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, db: db}
	a.closers = append(a.closers, func() {
		if err := database.Close(db); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	})

	var unread services.UnreadCache
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("unread count cache disabled", zap.Error(err))
		} else {
			unread = cache.NewUnreadCache(rdb, cfg.Redis.UnreadTTL)
			a.closers = append(a.closers, func() { _ = rdb.Close() })
			logger.Info("unread count cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	var publisher services.EventPublisher = services.NoopPublisher{}
	if cfg.MQ.URL != "" {
		p, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange)
		if err != nil {
			logger.Warn("event publishing disabled", zap.Error(err))
		} else {
			publisher = p
			a.closers = append(a.closers, p.Close)
			logger.Info("event publishing enabled", zap.String("exchange", cfg.MQ.Exchange))
		}
	}

	a.auth = services.NewAuthService(db, cfg.JWT.Secret, cfg.JWT.TTL)
	a.notifications = services.NewNotificationService(db, unread, publisher, logger)
	a.projects = services.NewProjectService(db, a.notifications, publisher, logger)
	a.feedback = services.NewFeedbackTokenService(db, a.notifications, publisher, services.FeedbackTokenOptions{
		TTL:           cfg.Feedback.TokenTTL,
		MinContentLen: cfg.Feedback.MinContentLen,
		MaxContentLen: cfg.Feedback.MaxContentLen,
		PublicOrigin:  cfg.Server.PublicOrigin,
	}, logger)

	if cfg.PayPal.ClientID != "" {
		gateway, err := paypal.NewGateway(cfg.PayPal)
		if err != nil {
			logger.Warn("payments disabled", zap.Error(err))
		} else {
			a.payments = services.NewPaymentService(db, gateway, a.notifications, publisher, logger)
			logger.Info("payments enabled", zap.Bool("sandbox", cfg.PayPal.Sandbox))
		}
	}

	return a, nil
}

// Close releases connections in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
