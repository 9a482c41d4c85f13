package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clientdesk-api/dto"
	"github.com/clientdesk-api/models"
	"github.com/clientdesk-api/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// recentActivityLimit bounds the feed embedded in a project detail
const recentActivityLimit = 20

// ProjectDetail is a project with every derived view the detail page needs
type ProjectDetail struct {
	models.Project
	StatusMeta       StatusMeta        `json:"statusMeta"`
	Milestones       []Milestone       `json:"milestones"`
	CurrentMilestone *Milestone        `json:"currentMilestone"`
	Payment          PaymentState      `json:"payment"`
	Activity         []models.Activity `json:"activity"`
	FeedbackCount    int64             `json:"feedbackCount"`
	AverageRating    *float64          `json:"averageRating"`
}

// ProjectService handles business logic for projects
type ProjectService struct {
	db            *gorm.DB
	projectRepo   *repositories.ProjectRepository
	activityRepo  *repositories.ActivityRepository
	feedbackRepo  *repositories.FeedbackRepository
	notifications *NotificationService
	publisher     EventPublisher
	logger        *zap.Logger
	now           func() time.Time
}

// NewProjectService creates a new project service instance
func NewProjectService(db *gorm.DB, notifications *NotificationService, publisher EventPublisher, logger *zap.Logger) *ProjectService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &ProjectService{
		db:            db,
		projectRepo:   repositories.NewProjectRepository(db),
		activityRepo:  repositories.NewActivityRepository(db),
		feedbackRepo:  repositories.NewFeedbackRepository(db),
		notifications: notifications,
		publisher:     publisher,
		logger:        logger.Named("projects"),
		now:           time.Now,
	}
}

// ListProjects retrieves projects with pagination, filtering and sorting
// Admin can see all projects, regular users only see their own
func (s *ProjectService) ListProjects(ctx context.Context, filter dto.ProjectFilter) (dto.ProjectListResponse, error) {
	var response dto.ProjectListResponse

	// Set defaults if not provided
	if filter.Page <= 0 {
		filter.Page = 1
	}

	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 10
	}

	if filter.SortOrder != "asc" && filter.SortOrder != "desc" {
		filter.SortOrder = "desc"
	}

	// Valid sort columns (whitelist approach for security)
	validSortColumns := map[string]bool{
		"created_at":     true,
		"updated_at":     true,
		"title":          true,
		"progress":       true,
		"payment_status": true,
	}

	if !validSortColumns[filter.SortBy] {
		filter.SortBy = "created_at"
	}

	if filter.Status != "" && !IsValidStatus(models.ProjectStatus(filter.Status)) {
		return response, &ValidationError{Field: "status", Message: "unknown project status"}
	}

	projects, totalCount, err := s.projectRepo.FindWithPagination(ctx, repositories.ProjectQuery{
		Page:      filter.Page,
		PageSize:  filter.PageSize,
		SortBy:    filter.SortBy,
		SortOrder: filter.SortOrder,
		UserID:    filter.UserID,
		IsAdmin:   filter.IsAdmin,
		Search:    filter.Search,
		Status:    filter.Status,
	})
	if err != nil {
		return response, fmt.Errorf("failed to retrieve projects: %w", err)
	}

	// Calculate total pages
	totalPages := int(totalCount) / filter.PageSize
	if int(totalCount)%filter.PageSize > 0 {
		totalPages++
	}

	summaries := make([]dto.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		meta := LookupStatus(p.Status)
		summaries = append(summaries, dto.ProjectSummary{
			Project:      p,
			StatusLabel:  meta.Label,
			StatusColor:  meta.Color,
			PaymentLabel: ProjectPaymentState(p).Label,
		})
	}

	response = dto.ProjectListResponse{
		Projects:   summaries,
		TotalCount: totalCount,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}

	return response, nil
}

// GetProject loads a project the caller may see
// Access control: admin can view any project, regular users only their own
func (s *ProjectService) GetProject(ctx context.Context, projectID, userID string, isAdmin bool) (models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return models.Project{}, notFound(err, "project")
	}
	if !isAdmin && project.UserID != userID {
		return models.Project{}, ErrUnauthorized
	}
	return project, nil
}

// GetProjectDetail retrieves a project with its derived milestone, payment
// and status views plus the recent activity feed
func (s *ProjectService) GetProjectDetail(ctx context.Context, projectID, userID string, isAdmin bool) (ProjectDetail, error) {
	project, err := s.GetProject(ctx, projectID, userID, isAdmin)
	if err != nil {
		return ProjectDetail{}, err
	}

	activity, err := s.activityRepo.FindByProjectID(ctx, projectID, recentActivityLimit)
	if err != nil {
		return ProjectDetail{}, fmt.Errorf("failed to load activity: %w", err)
	}

	feedbackCount, err := s.feedbackRepo.CountByProjectID(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, fmt.Errorf("failed to count feedback: %w", err)
	}

	detail := ProjectDetail{
		Project:       project,
		StatusMeta:    LookupStatus(project.Status),
		Milestones:    ProjectMilestones(project),
		Payment:       ProjectPaymentState(project),
		Activity:      activity,
		FeedbackCount: feedbackCount,
	}
	detail.CurrentMilestone = CurrentMilestone(detail.Milestones)

	if avg, ok, err := s.feedbackRepo.AverageRating(ctx, projectID); err != nil {
		return ProjectDetail{}, fmt.Errorf("failed to average ratings: %w", err)
	} else if ok {
		detail.AverageRating = &avg
	}

	return detail, nil
}

// GetActivity returns the full activity feed of a project
func (s *ProjectService) GetActivity(ctx context.Context, projectID, userID string, isAdmin bool) ([]models.Activity, error) {
	if _, err := s.GetProject(ctx, projectID, userID, isAdmin); err != nil {
		return nil, err
	}
	activity, err := s.activityRepo.FindByProjectID(ctx, projectID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	return activity, nil
}

// CreateProject opens a new project request for the client. It starts in
// pending_review with nothing done and nothing paid.
func (s *ProjectService) CreateProject(ctx context.Context, userID string, req dto.CreateProjectRequest) (models.Project, error) {
	now := s.now()
	project := models.Project{
		UserID:        userID,
		Title:         req.Title,
		Description:   req.Description,
		Status:        models.ProjectStatusPendingReview,
		Progress:      0,
		PaymentStatus: 0,
		Timeline:      req.Timeline,
		Currency:      "USD",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		project, err = s.projectRepo.WithTx(tx).Create(ctx, project)
		if err != nil {
			return err
		}
		return s.activityRepo.WithTx(tx).Create(ctx, &models.Activity{
			ProjectID: project.ID,
			ActorID:   &userID,
			Kind:      models.ActivityProjectCreated,
			Message:   "Project submitted for review",
			CreatedAt: now,
		})
	})
	if err != nil {
		return models.Project{}, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Info("project created", zap.String("project_id", project.ID), zap.String("user_id", userID))
	return project, nil
}

// UpdateProject updates the owner-editable fields of a project
func (s *ProjectService) UpdateProject(ctx context.Context, projectID, userID string, isAdmin bool, req dto.UpdateProjectRequest) (models.Project, error) {
	if _, err := s.GetProject(ctx, projectID, userID, isAdmin); err != nil {
		return models.Project{}, err
	}

	fields := map[string]interface{}{
		"title":       req.Title,
		"description": req.Description,
		"updated_at":  s.now(),
	}
	if err := s.projectRepo.UpdateFields(ctx, projectID, fields); err != nil {
		return models.Project{}, notFound(err, "project")
	}
	updated, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return models.Project{}, notFound(err, "project")
	}
	return updated, nil
}

// AdminUpdateProject applies admin edits to status, progress, timeline and
// quote. Status and progress changes land in the activity feed and notify
// the owner.
func (s *ProjectService) AdminUpdateProject(ctx context.Context, projectID, actorID string, req dto.AdminUpdateProjectRequest) (models.Project, error) {
	existing, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return models.Project{}, notFound(err, "project")
	}

	now := s.now()
	fields := map[string]interface{}{"updated_at": now}
	var activities []models.Activity

	if req.Status != nil && *req.Status != existing.Status {
		if err := checkTransition(existing.Status, *req.Status); err != nil {
			return models.Project{}, err
		}
		fields["status"] = *req.Status
		activities = append(activities, models.Activity{
			ProjectID: projectID,
			ActorID:   &actorID,
			Kind:      models.ActivityStatusChanged,
			Message:   fmt.Sprintf("Status changed to %s", LookupStatus(*req.Status).Label),
			CreatedAt: now,
		})
	}

	if req.Progress != nil && *req.Progress != existing.Progress {
		if *req.Progress < 0 || *req.Progress > 100 {
			return models.Project{}, &ValidationError{Field: "progress", Message: "must be between 0 and 100"}
		}
		fields["progress"] = *req.Progress
		activities = append(activities, models.Activity{
			ProjectID: projectID,
			ActorID:   &actorID,
			Kind:      models.ActivityProgressUpdated,
			Message:   fmt.Sprintf("Progress updated to %d%%", *req.Progress),
			CreatedAt: now,
		})
	}

	if req.Timeline != nil {
		fields["timeline"] = *req.Timeline
	}
	if req.QuoteAmount != nil {
		fields["quote_amount"] = *req.QuoteAmount
	}
	if req.Currency != nil {
		fields["currency"] = *req.Currency
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.projectRepo.WithTx(tx).UpdateFields(ctx, projectID, fields); err != nil {
			return err
		}
		activityRepo := s.activityRepo.WithTx(tx)
		for i := range activities {
			if err := activityRepo.Create(ctx, &activities[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Project{}, fmt.Errorf("project: %w", ErrNotFound)
		}
		return models.Project{}, fmt.Errorf("failed to update project: %w", err)
	}

	updated, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return models.Project{}, notFound(err, "project")
	}

	s.announceChanges(ctx, existing, updated)
	return updated, nil
}

// announceChanges notifies the owner and publishes an event after a
// committed status or progress change
func (s *ProjectService) announceChanges(ctx context.Context, before, after models.Project) {
	statusChanged := before.Status != after.Status
	progressChanged := before.Progress != after.Progress
	if !statusChanged && !progressChanged {
		return
	}

	projectID := after.ID
	if s.notifications != nil {
		if statusChanged {
			s.notifications.Notify(ctx, after.UserID, models.NotificationStatusUpdate,
				"Project status updated",
				fmt.Sprintf("%s is now %s.", after.Title, LookupStatus(after.Status).Label),
				&projectID,
			)
		}
		if progressChanged {
			if m := reachedMilestone(before, after); m != nil {
				s.notifications.Notify(ctx, after.UserID, models.NotificationMilestoneUpdate,
					"Milestone reached",
					fmt.Sprintf("%s: %s completed.", after.Title, m.Name),
					&projectID,
				)
			}
		}
	}

	publish(ctx, s.publisher, s.logger, EventProjectUpdated, ProjectUpdatedEvent{
		ProjectID:     after.ID,
		Status:        string(after.Status),
		Progress:      after.Progress,
		PaymentStatus: after.PaymentStatus,
		At:            after.UpdatedAt,
	})
}

// reachedMilestone returns the highest milestone completed by the change,
// or nil if no milestone flipped to completed
func reachedMilestone(before, after models.Project) *Milestone {
	prev := ProjectMilestones(before)
	next := ProjectMilestones(after)
	var reached *Milestone
	for i := range next {
		if next[i].Status == MilestoneCompleted && prev[i].Status != MilestoneCompleted {
			reached = &next[i]
		}
	}
	return reached
}

// checkTransition allows moving forward any number of stages and back by
// exactly one stage (rework or reopen)
func checkTransition(from, to models.ProjectStatus) error {
	if !IsValidStatus(to) {
		return &ValidationError{Field: "status", Message: "unknown project status"}
	}
	fromRank, toRank := statusRank(from), statusRank(to)
	if fromRank >= 0 && toRank < fromRank-1 {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// DeleteProject soft-deletes a project; tokens, payments and feedback rows stay for audit
func (s *ProjectService) DeleteProject(ctx context.Context, projectID, userID string, isAdmin bool) error {
	if _, err := s.GetProject(ctx, projectID, userID, isAdmin); err != nil {
		return err
	}
	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return notFound(err, "project")
	}
	s.logger.Info("project deleted", zap.String("project_id", projectID), zap.String("user_id", userID))
	return nil
}

// GetDashboardStats counts projects per status for the caller
func (s *ProjectService) GetDashboardStats(ctx context.Context, userID string, isAdmin bool) (dto.DashboardStatsResponse, error) {
	owner := userID
	if isAdmin {
		owner = ""
	}
	counts, err := s.projectRepo.CountByStatus(ctx, owner)
	if err != nil {
		return dto.DashboardStatsResponse{}, fmt.Errorf("failed to count projects: %w", err)
	}

	stats := dto.DashboardStatsResponse{ByStatus: make(map[string]int64, len(statusOrder))}
	for _, st := range statusOrder {
		stats.ByStatus[string(st)] = counts[st]
		stats.Total += counts[st]
	}

	if s.notifications != nil {
		unread, err := s.notifications.UnreadCount(ctx, userID)
		if err != nil {
			return dto.DashboardStatsResponse{}, err
		}
		stats.UnreadCount = unread
	}
	return stats, nil
}
