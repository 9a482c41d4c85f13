package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clientdesk-api/dto"
	"github.com/clientdesk-api/models"
	"github.com/clientdesk-api/testutil"
	"github.com/clientdesk-api/utils"
	"go.uber.org/zap"
)

func newProjectService(t *testing.T, f *fixture) *ProjectService {
	t.Helper()
	svc := NewProjectService(f.db, f.notifications, f.publisher, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestProjectService_CreateProject(t *testing.T) {
	f := newFixture(t)
	svc := newProjectService(t, f)

	project, err := svc.CreateProject(context.Background(), f.owner.ID, dto.CreateProjectRequest{
		Title:       "Mobile app",
		Description: "iOS and Android",
		Timeline:    12,
	})
	if err != nil {
		t.Fatal(err)
	}
	if project.Status != models.ProjectStatusPendingReview || project.Progress != 0 || project.PaymentStatus != 0 {
		t.Fatalf("new project = %+v", project)
	}
	if project.UserID != f.owner.ID {
		t.Fatalf("owner = %s, want %s", project.UserID, f.owner.ID)
	}
	if n := testutil.Count(t, f.db, &models.Activity{}, "project_id = ? AND kind = ?", project.ID, models.ActivityProjectCreated); n != 1 {
		t.Fatalf("project_created activity = %d, want 1", n)
	}
}

func TestProjectService_ListProjectsScopesClients(t *testing.T) {
	f := newFixture(t)
	svc := newProjectService(t, f)
	ctx := context.Background()

	f.project(t, func(p *models.Project) { p.Title = "Website redesign" })
	f.project(t, func(p *models.Project) { p.Title = "Billing portal"; p.Status = models.ProjectStatusInProgress })
	testutil.CreateProject(t, f.db, f.admin.ID, func(p *models.Project) { p.Title = "Internal tool" })

	own, err := svc.ListProjects(ctx, dto.ProjectFilter{UserID: f.owner.ID})
	if err != nil {
		t.Fatal(err)
	}
	if own.TotalCount != 2 {
		t.Fatalf("client sees %d projects, want 2", own.TotalCount)
	}

	all, err := svc.ListProjects(ctx, dto.ProjectFilter{UserID: f.admin.ID, IsAdmin: true})
	if err != nil {
		t.Fatal(err)
	}
	if all.TotalCount != 3 {
		t.Fatalf("admin sees %d projects, want 3", all.TotalCount)
	}

	found, err := svc.ListProjects(ctx, dto.ProjectFilter{UserID: f.owner.ID, Search: "BILLING"})
	if err != nil {
		t.Fatal(err)
	}
	if found.TotalCount != 1 || found.Projects[0].Title != "Billing portal" {
		t.Fatalf("search result = %+v", found.Projects)
	}
	if found.Projects[0].StatusLabel != "In Progress" || found.Projects[0].PaymentLabel != "Payment Pending" {
		t.Fatalf("summary labels = %+v", found.Projects[0])
	}

	byStatus, err := svc.ListProjects(ctx, dto.ProjectFilter{UserID: f.admin.ID, IsAdmin: true, Status: string(models.ProjectStatusPendingReview)})
	if err != nil {
		t.Fatal(err)
	}
	if byStatus.TotalCount != 2 {
		t.Fatalf("pending_review projects = %d, want 2", byStatus.TotalCount)
	}

	var verr *ValidationError
	if _, err := svc.ListProjects(ctx, dto.ProjectFilter{Status: "archived"}); !errors.As(err, &verr) {
		t.Fatalf("unknown status filter: err = %v, want ValidationError", err)
	}
}

func TestProjectService_GetProjectAccess(t *testing.T) {
	f := newFixture(t)
	svc := newProjectService(t, f)
	project := f.project(t)
	stranger := testutil.CreateUser(t, f.db, "other@example.com", models.RoleUser)
	ctx := context.Background()

	if _, err := svc.GetProject(ctx, project.ID, stranger.ID, false); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger: err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.GetProject(ctx, project.ID, f.admin.ID, true); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if _, err := svc.GetProject(ctx, "missing", f.owner.ID, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: err = %v, want ErrNotFound", err)
	}
}

func TestProjectService_GetProjectDetail(t *testing.T) {
	f := newFixture(t)
	svc := newProjectService(t, f)
	project := f.project(t, func(p *models.Project) {
		p.Status = models.ProjectStatusInProgress
		p.Progress = 30
		p.PaymentStatus = 50
	})
	ctx := context.Background()

	for i, rating := range []*int{utils.IntPtr(4), utils.IntPtr(5), nil} {
		fb := models.Feedback{ProjectID: project.ID, TokenID: []string{"t1", "t2", "t3"}[i], Content: goodFeedback, Rating: rating}
		if err := f.db.Create(&fb).Error; err != nil {
			t.Fatal(err)
		}
	}

	detail, err := svc.GetProjectDetail(ctx, project.ID, f.owner.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if detail.StatusMeta.Label != "In Progress" {
		t.Errorf("status label = %q", detail.StatusMeta.Label)
	}
	if len(detail.Milestones) != 5 || detail.CurrentMilestone == nil || detail.CurrentMilestone.Name != "Development - Backend" {
		t.Errorf("milestones = %+v current = %+v", detail.Milestones, detail.CurrentMilestone)
	}
	if detail.Payment.Label != "50% Paid" {
		t.Errorf("payment label = %q", detail.Payment.Label)
	}
	if detail.FeedbackCount != 3 {
		t.Errorf("feedback count = %d, want 3", detail.FeedbackCount)
	}
	if detail.AverageRating == nil || *detail.AverageRating != 4.5 {
		t.Errorf("average rating = %v, want 4.5", detail.AverageRating)
	}
}

func TestProjectService_AdminUpdateProject(t *testing.T) {
	f := newFixture(t)
	svc := newProjectService(t, f)
	project := f.project(t)
	ctx := context.Background()

	status := models.ProjectStatusInProgress
	updated, err := svc.AdminUpdateProject(ctx, project.ID, f.admin.ID, dto.AdminUpdateProjectRequest{
		Status:      &status,
		Progress:    utils.IntPtr(30),
		QuoteAmount: func() *int64 { v := int64(250000); return &v }(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != status || updated.Progress != 30 || updated.QuoteAmount != 250000 {
		t.Fatalf("updated = %+v", updated)
	}

	if n := f.notificationCount(t, f.owner.ID, models.NotificationStatusUpdate); n != 1 {
		t.Errorf("status_update notifications = %d, want 1", n)
	}
	if n := f.notificationCount(t, f.owner.ID, models.NotificationMilestoneUpdate); n != 1 {
		t.Errorf("milestone_update notifications = %d, want 1", n)
	}
	if n := f.publisher.count(EventProjectUpdated); n != 1 {
		t.Errorf("project.updated events = %d, want 1", n)
	}
	if n := testutil.Count(t, f.db, &models.Activity{}, "project_id = ? AND kind IN ?", project.ID,
		[]models.ActivityKind{models.ActivityStatusChanged, models.ActivityProgressUpdated}); n != 2 {
		t.Errorf("update activities = %d, want 2", n)
	}

	// Progress can be reset to zero
	updated, err = svc.AdminUpdateProject(ctx, project.ID, f.admin.ID, dto.AdminUpdateProjectRequest{Progress: utils.IntPtr(0)})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Progress != 0 {
		t.Fatalf("progress = %d, want 0", updated.Progress)
	}
}

func TestProjectService_AdminUpdateProjectRejectsBadEdits(t *testing.T) {
	f := newFixture(t)
	svc := newProjectService(t, f)
	project := f.project(t, withStatus(models.ProjectStatusUnderReview))
	ctx := context.Background()

	back := models.ProjectStatusPendingReview
	if _, err := svc.AdminUpdateProject(ctx, project.ID, f.admin.ID, dto.AdminUpdateProjectRequest{Status: &back}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}

	var verr *ValidationError
	if _, err := svc.AdminUpdateProject(ctx, project.ID, f.admin.ID, dto.AdminUpdateProjectRequest{Progress: utils.IntPtr(120)}); !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	if _, err := svc.AdminUpdateProject(ctx, "missing", f.admin.ID, dto.AdminUpdateProjectRequest{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if n := f.publisher.count(EventProjectUpdated); n != 0 {
		t.Fatalf("rejected edits published %d events", n)
	}
}

func TestProjectService_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	svc := newProjectService(t, f)
	project := f.project(t)
	ctx := context.Background()

	updated, err := svc.UpdateProject(ctx, project.ID, f.owner.ID, false, dto.UpdateProjectRequest{Title: "Renamed", Description: "New scope"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Renamed" || updated.Description != "New scope" {
		t.Fatalf("updated = %+v", updated)
	}

	if err := svc.DeleteProject(ctx, project.ID, f.owner.ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetProject(ctx, project.ID, f.owner.ID, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted project: err = %v, want ErrNotFound", err)
	}
}

func TestProjectService_DashboardStats(t *testing.T) {
	f := newFixture(t)
	svc := newProjectService(t, f)
	ctx := context.Background()

	f.project(t)
	f.project(t, withStatus(models.ProjectStatusCompleted))
	testutil.CreateProject(t, f.db, f.admin.ID, withStatus(models.ProjectStatusCompleted))
	f.notifications.Notify(ctx, f.owner.ID, models.NotificationNewMessage, "Hi", "There", nil)

	stats, err := svc.GetDashboardStats(ctx, f.owner.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 || stats.ByStatus[string(models.ProjectStatusCompleted)] != 1 {
		t.Fatalf("client stats = %+v", stats)
	}
	if stats.UnreadCount != 1 {
		t.Fatalf("unread = %d, want 1", stats.UnreadCount)
	}

	stats, err = svc.GetDashboardStats(ctx, f.admin.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 || stats.ByStatus[string(models.ProjectStatusCompleted)] != 2 {
		t.Fatalf("admin stats = %+v", stats)
	}
}
