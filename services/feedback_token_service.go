package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/clientdesk-api/metrics"
	"github.com/clientdesk-api/models"
	"github.com/clientdesk-api/repositories"
	"github.com/clientdesk-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FeedbackTokenOptions configures issuance and submission rules
type FeedbackTokenOptions struct {
	// TTL is the lifetime of a new token; zero issues tokens that never expire
	TTL           time.Duration
	MinContentLen int
	MaxContentLen int
	// PublicOrigin prefixes shareable links, e.g. https://app.example.com
	PublicOrigin string
}

// IssuedToken is a freshly minted token with its shareable link
type IssuedToken struct {
	Token models.FeedbackToken `json:"token"`
	Link  string               `json:"link"`
}

// TokenValidation is the successful result of ValidateToken
type TokenValidation struct {
	ProjectID    string     `json:"projectId"`
	ProjectTitle string     `json:"projectTitle"`
	ExpiresAt    *time.Time `json:"expiresAt"`
}

// TokenView is a token row with its derived state, for the audit list
type TokenView struct {
	models.FeedbackToken
	State models.TokenState `json:"state"`
	Link  string            `json:"link"`
}

// FeedbackTokenService issues, validates and consumes feedback tokens
type FeedbackTokenService struct {
	db            *gorm.DB
	tokenRepo     *repositories.FeedbackTokenRepository
	feedbackRepo  *repositories.FeedbackRepository
	projectRepo   *repositories.ProjectRepository
	activityRepo  *repositories.ActivityRepository
	notifications *NotificationService
	publisher     EventPublisher
	opts          FeedbackTokenOptions
	logger        *zap.Logger
	now           func() time.Time

	// beforeMarkUsed runs inside the consume transaction after the token
	// passed its checks; nil outside tests
	beforeMarkUsed func(tx *gorm.DB, token models.FeedbackToken)
}

// NewFeedbackTokenService creates a new feedback token service instance
func NewFeedbackTokenService(db *gorm.DB, notifications *NotificationService, publisher EventPublisher, opts FeedbackTokenOptions, logger *zap.Logger) *FeedbackTokenService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &FeedbackTokenService{
		db:            db,
		tokenRepo:     repositories.NewFeedbackTokenRepository(db),
		feedbackRepo:  repositories.NewFeedbackRepository(db),
		projectRepo:   repositories.NewProjectRepository(db),
		activityRepo:  repositories.NewActivityRepository(db),
		notifications: notifications,
		publisher:     publisher,
		opts:          opts,
		logger:        logger.Named("feedback"),
		now:           time.Now,
	}
}

// IssueToken mints a new token for projectID. Any number of live tokens
// may exist for one project. The caller must already be authorised to
// administer the project.
func (s *FeedbackTokenService) IssueToken(ctx context.Context, projectID, actorID string) (IssuedToken, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return IssuedToken{}, notFound(err, "project")
	}

	value, err := utils.GenerateFeedbackToken()
	if err != nil {
		return IssuedToken{}, err
	}

	now := s.now()
	token := models.FeedbackToken{
		ProjectID: project.ID,
		Token:     value,
		IsUsed:    false,
		CreatedAt: now,
	}
	if s.opts.TTL > 0 {
		expiresAt := now.Add(s.opts.TTL)
		token.ExpiresAt = &expiresAt
	}
	if actorID != "" {
		token.CreatedBy = &actorID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.tokenRepo.WithTx(tx).Create(ctx, &token); err != nil {
			return fmt.Errorf("failed to store feedback token: %w", err)
		}
		return s.activityRepo.WithTx(tx).Create(ctx, &models.Activity{
			ProjectID: project.ID,
			ActorID:   token.CreatedBy,
			Kind:      models.ActivityTokenIssued,
			Message:   "Feedback link created",
			CreatedAt: now,
		})
	})
	if err != nil {
		return IssuedToken{}, err
	}

	metrics.IncrementTokenIssued()
	s.logger.Info("feedback token issued",
		zap.String("project_id", project.ID),
		zap.String("token_id", token.ID),
		zap.Timep("expires_at", token.ExpiresAt),
	)

	return IssuedToken{Token: token, Link: utils.FeedbackLink(s.opts.PublicOrigin, token.Token)}, nil
}

// ValidateToken checks whether token can still be used. Invalid tokens
// return a *TokenInvalidError; other errors are infrastructure failures.
func (s *FeedbackTokenService) ValidateToken(ctx context.Context, token string) (TokenValidation, error) {
	t, err := s.lookup(ctx, s.tokenRepo, token)
	if err != nil {
		return TokenValidation{}, err
	}
	if err := s.check(t); err != nil {
		return TokenValidation{}, err
	}

	project, err := s.projectRepo.FindByID(ctx, t.ProjectID)
	if err != nil {
		// A token for a removed project is indistinguishable from a bad one
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenValidation{}, &TokenInvalidError{Reason: TokenNotFound}
		}
		return TokenValidation{}, fmt.Errorf("failed to load project: %w", err)
	}

	return TokenValidation{
		ProjectID:    project.ID,
		ProjectTitle: project.Title,
		ExpiresAt:    t.ExpiresAt,
	}, nil
}

// ConsumeToken records feedback and exhausts the token in one transaction.
// At most one submission succeeds per token, however many race; the
// losers get TokenInvalidError{already_used} and nothing is written.
func (s *FeedbackTokenService) ConsumeToken(ctx context.Context, token, content string, rating *int) (models.Feedback, error) {
	content = strings.TrimSpace(content)
	if err := s.validateSubmission(content, rating); err != nil {
		metrics.IncrementTokenConsume("invalid_input")
		return models.Feedback{}, err
	}

	var (
		feedback models.Feedback
		project  models.Project
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tokens := s.tokenRepo.WithTx(tx)

		t, err := s.lookup(ctx, tokens, token)
		if err != nil {
			return err
		}
		if err := s.check(t); err != nil {
			return err
		}

		project, err = s.projectRepo.WithTx(tx).FindByID(ctx, t.ProjectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &TokenInvalidError{Reason: TokenNotFound}
			}
			return fmt.Errorf("failed to load project: %w", err)
		}

		if s.beforeMarkUsed != nil {
			s.beforeMarkUsed(tx, t)
		}

		// The conditional update is the serialisation point
		won, err := tokens.MarkUsed(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("failed to mark token used: %w", err)
		}
		if !won {
			return &TokenInvalidError{Reason: TokenAlreadyUsed}
		}

		now := s.now()
		feedback = models.Feedback{
			ProjectID: t.ProjectID,
			TokenID:   t.ID,
			Content:   content,
			Rating:    rating,
			CreatedAt: now,
		}
		if err := s.feedbackRepo.WithTx(tx).Create(ctx, &feedback); err != nil {
			return fmt.Errorf("failed to store feedback: %w", err)
		}

		return s.activityRepo.WithTx(tx).Create(ctx, &models.Activity{
			ProjectID: t.ProjectID,
			Kind:      models.ActivityFeedbackReceived,
			Message:   feedbackActivityMessage(rating),
			CreatedAt: now,
		})
	})
	if err != nil {
		if tie, ok := IsTokenInvalid(err); ok {
			metrics.IncrementTokenConsume(string(tie.Reason))
		} else {
			metrics.IncrementTokenConsume("error")
		}
		return models.Feedback{}, err
	}

	metrics.IncrementTokenConsume("consumed")
	s.logger.Info("feedback submitted",
		zap.String("project_id", feedback.ProjectID),
		zap.String("feedback_id", feedback.ID),
	)

	if s.notifications != nil {
		projectID := project.ID
		s.notifications.Notify(ctx, project.UserID, models.NotificationNewFeedback,
			"New feedback received",
			fmt.Sprintf("New feedback was submitted for %s.", project.Title),
			&projectID,
		)
	}
	publish(ctx, s.publisher, s.logger, EventFeedbackSubmitted, FeedbackSubmittedEvent{
		FeedbackID: feedback.ID,
		ProjectID:  feedback.ProjectID,
		Rating:     feedback.Rating,
		At:         feedback.CreatedAt,
	})

	return feedback, nil
}

// ListProjectTokens returns every token issued for a project with its
// current derived state
func (s *FeedbackTokenService) ListProjectTokens(ctx context.Context, projectID string) ([]TokenView, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, notFound(err, "project")
	}

	tokens, err := s.tokenRepo.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback tokens: %w", err)
	}

	now := s.now()
	views := make([]TokenView, 0, len(tokens))
	for _, t := range tokens {
		views = append(views, TokenView{
			FeedbackToken: t,
			State:         t.State(now),
			Link:          utils.FeedbackLink(s.opts.PublicOrigin, t.Token),
		})
	}
	return views, nil
}

// ListProjectFeedback returns the feedback submitted for a project
func (s *FeedbackTokenService) ListProjectFeedback(ctx context.Context, projectID string) ([]models.Feedback, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, notFound(err, "project")
	}
	feedback, err := s.feedbackRepo.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return feedback, nil
}

// lookup resolves the opaque string, mapping a miss to not_found
func (s *FeedbackTokenService) lookup(ctx context.Context, repo *repositories.FeedbackTokenRepository, token string) (models.FeedbackToken, error) {
	if token == "" {
		return models.FeedbackToken{}, &TokenInvalidError{Reason: TokenNotFound}
	}
	t, err := repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.FeedbackToken{}, &TokenInvalidError{Reason: TokenNotFound}
		}
		return models.FeedbackToken{}, fmt.Errorf("failed to load feedback token: %w", err)
	}
	return t, nil
}

// check applies the validity predicate: unused and not past its deadline
func (s *FeedbackTokenService) check(t models.FeedbackToken) error {
	switch t.State(s.now()) {
	case models.TokenStateConsumed:
		return &TokenInvalidError{Reason: TokenAlreadyUsed}
	case models.TokenStateExpired:
		return &TokenInvalidError{Reason: TokenExpired}
	default:
		return nil
	}
}

func (s *FeedbackTokenService) validateSubmission(content string, rating *int) error {
	n := utf8.RuneCountInString(content)
	if n < s.opts.MinContentLen {
		return &ValidationError{Field: "content", Message: fmt.Sprintf("must be at least %d characters", s.opts.MinContentLen)}
	}
	if s.opts.MaxContentLen > 0 && n > s.opts.MaxContentLen {
		return &ValidationError{Field: "content", Message: fmt.Sprintf("must be at most %d characters", s.opts.MaxContentLen)}
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return &ValidationError{Field: "rating", Message: "must be between 1 and 5"}
	}
	return nil
}

func feedbackActivityMessage(rating *int) string {
	if rating == nil {
		return "Client submitted feedback"
	}
	return fmt.Sprintf("Client submitted feedback (%d/5)", *rating)
}
