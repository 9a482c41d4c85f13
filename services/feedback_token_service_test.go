package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clientdesk-api/models"
	"github.com/clientdesk-api/testutil"
	"github.com/clientdesk-api/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const goodFeedback = "The new dashboard looks great, thanks!"

func newTokenService(t *testing.T, f *fixture, ttl time.Duration) *FeedbackTokenService {
	t.Helper()
	svc := NewFeedbackTokenService(f.db, f.notifications, f.publisher, FeedbackTokenOptions{
		TTL:           ttl,
		MinContentLen: 10,
		MaxContentLen: 5000,
		PublicOrigin:  "https://app.example.com/",
	}, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func assertTokenInvalid(t *testing.T, err error, want TokenInvalidReason) {
	t.Helper()
	tie, ok := IsTokenInvalid(err)
	if !ok {
		t.Fatalf("err = %v, want TokenInvalidError{%s}", err, want)
	}
	if tie.Reason != want {
		t.Fatalf("reason = %s, want %s", tie.Reason, want)
	}
}

func TestIssueToken_ThenValidate(t *testing.T) {
	f := newFixture(t)
	svc := newTokenService(t, f, 24*time.Hour)
	project := f.project(t)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, project.ID, f.admin.ID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if len(issued.Token.Token) != 43 {
		t.Errorf("token length = %d, want 43", len(issued.Token.Token))
	}
	if want := "https://app.example.com/feedback/" + issued.Token.Token; issued.Link != want {
		t.Errorf("link = %q, want %q", issued.Link, want)
	}
	if issued.Token.ExpiresAt == nil || !issued.Token.ExpiresAt.Equal(testNow.Add(24*time.Hour)) {
		t.Errorf("expiresAt = %v, want now+24h", issued.Token.ExpiresAt)
	}

	v, err := svc.ValidateToken(ctx, issued.Token.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if v.ProjectID != project.ID || v.ProjectTitle != project.Title {
		t.Errorf("validation = %+v, want project %s", v, project.ID)
	}

	if n := testutil.Count(t, f.db, &models.Activity{}, "project_id = ? AND kind = ?", project.ID, models.ActivityTokenIssued); n != 1 {
		t.Errorf("token_issued activity = %d, want 1", n)
	}
}

func TestIssueToken_SeveralLiveTokensPerProject(t *testing.T) {
	f := newFixture(t)
	svc := newTokenService(t, f, time.Hour)
	project := f.project(t)
	ctx := context.Background()

	a, err := svc.IssueToken(ctx, project.ID, f.admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.IssueToken(ctx, project.ID, f.admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.Token.Token == b.Token.Token {
		t.Fatal("tokens must be unique")
	}
	for _, tok := range []string{a.Token.Token, b.Token.Token} {
		if _, err := svc.ValidateToken(ctx, tok); err != nil {
			t.Errorf("ValidateToken(%s): %v", tok, err)
		}
	}
}

func TestIssueToken_ZeroTTLNeverExpires(t *testing.T) {
	f := newFixture(t)
	svc := newTokenService(t, f, 0)
	project := f.project(t)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, project.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if issued.Token.ExpiresAt != nil {
		t.Fatalf("expiresAt = %v, want nil", issued.Token.ExpiresAt)
	}

	svc.now = func() time.Time { return testNow.AddDate(10, 0, 0) }
	if _, err := svc.ValidateToken(ctx, issued.Token.Token); err != nil {
		t.Fatalf("ValidateToken after ten years: %v", err)
	}
}

func TestIssueToken_UnknownProject(t *testing.T) {
	f := newFixture(t)
	svc := newTokenService(t, f, time.Hour)

	_, err := svc.IssueToken(context.Background(), "00000000-0000-0000-0000-000000000000", f.admin.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestValidateToken_Unknown(t *testing.T) {
	f := newFixture(t)
	svc := newTokenService(t, f, time.Hour)
	ctx := context.Background()

	_, err := svc.ValidateToken(ctx, "does-not-exist")
	assertTokenInvalid(t, err, TokenNotFound)

	_, err = svc.ValidateToken(ctx, "")
	assertTokenInvalid(t, err, TokenNotFound)
}

func TestConsumeToken_SucceedsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	svc := newTokenService(t, f, time.Hour)
	project := f.project(t)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, project.ID, f.admin.ID)
	if err != nil {
		t.Fatal(err)
	}

	feedback, err := svc.ConsumeToken(ctx, issued.Token.Token, "  "+goodFeedback+"  ", utils.IntPtr(5))
	if err != nil {
		t.Fatalf("first ConsumeToken: %v", err)
	}
	if feedback.Content != goodFeedback {
		t.Errorf("content = %q, want trimmed", feedback.Content)
	}
	if feedback.TokenID != issued.Token.ID || feedback.ProjectID != project.ID {
		t.Errorf("feedback = %+v", feedback)
	}

	_, err = svc.ConsumeToken(ctx, issued.Token.Token, goodFeedback, nil)
	assertTokenInvalid(t, err, TokenAlreadyUsed)

	if n := testutil.Count(t, f.db, &models.Feedback{}, "token_id = ?", issued.Token.ID); n != 1 {
		t.Fatalf("feedback rows = %d, want 1", n)
	}

	_, err = svc.ValidateToken(ctx, issued.Token.Token)
	assertTokenInvalid(t, err, TokenAlreadyUsed)

	if n := f.notificationCount(t, f.owner.ID, models.NotificationNewFeedback); n != 1 {
		t.Errorf("new_feedback notifications = %d, want 1", n)
	}
	if n := f.publisher.count(EventFeedbackSubmitted); n != 1 {
		t.Errorf("feedback.submitted events = %d, want 1", n)
	}
}

func TestConsumeToken_Expired(t *testing.T) {
	f := newFixture(t)
	svc := newTokenService(t, f, 24*time.Hour)
	project := f.project(t)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, project.ID, f.admin.ID)
	if err != nil {
		t.Fatal(err)
	}

	// The deadline itself is already expired
	svc.now = func() time.Time { return testNow.Add(24 * time.Hour) }

	_, err = svc.ValidateToken(ctx, issued.Token.Token)
	assertTokenInvalid(t, err, TokenExpired)

	_, err = svc.ConsumeToken(ctx, issued.Token.Token, goodFeedback, nil)
	assertTokenInvalid(t, err, TokenExpired)

	if n := testutil.Count(t, f.db, &models.Feedback{}, ""); n != 0 {
		t.Fatalf("feedback rows = %d, want 0", n)
	}
}

func TestConsumeToken_UsedThenExpiredStaysUsed(t *testing.T) {
	f := newFixture(t)
	svc := newTokenService(t, f, time.Hour)
	project := f.project(t)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, project.ID, f.admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ConsumeToken(ctx, issued.Token.Token, goodFeedback, nil); err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return testNow.Add(48 * time.Hour) }
	_, err = svc.ValidateToken(ctx, issued.Token.Token)
	assertTokenInvalid(t, err, TokenAlreadyUsed)
}

func TestConsumeToken_ValidationRejectedBeforeWrite(t *testing.T) {
	f := newFixture(t)
	svc := newTokenService(t, f, time.Hour)
	project := f.project(t)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, project.ID, f.admin.ID)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		content string
		rating  *int
		field   string
	}{
		{"too short", "too short", nil, "content"},
		{"padding does not count", "   short    ", nil, "content"},
		{"too long", strings.Repeat("a", 5001), nil, "content"},
		{"rating below range", goodFeedback, utils.IntPtr(0), "rating"},
		{"rating above range", goodFeedback, utils.IntPtr(6), "rating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ConsumeToken(ctx, issued.Token.Token, tt.content, tt.rating)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %s, want %s", verr.Field, tt.field)
			}
		})
	}

	// The token is still usable after rejected submissions
	if _, err := svc.ValidateToken(ctx, issued.Token.Token); err != nil {
		t.Fatalf("token consumed by invalid input: %v", err)
	}

	// Length is counted in characters, not bytes
	if _, err := svc.ConsumeToken(ctx, issued.Token.Token, "éééééééééé", nil); err != nil {
		t.Fatalf("ten multibyte characters rejected: %v", err)
	}
}

func TestConsumeToken_DeletedProject(t *testing.T) {
	f := newFixture(t)
	svc := newTokenService(t, f, time.Hour)
	project := f.project(t)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, project.ID, f.admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.db.Delete(&models.Project{}, "id = ?", project.ID).Error; err != nil {
		t.Fatal(err)
	}

	_, err = svc.ValidateToken(ctx, issued.Token.Token)
	assertTokenInvalid(t, err, TokenNotFound)

	_, err = svc.ConsumeToken(ctx, issued.Token.Token, goodFeedback, nil)
	assertTokenInvalid(t, err, TokenNotFound)
}

func TestConsumeToken_ConcurrentSubmissions(t *testing.T) {
	f := newFixture(t)
	svc := newTokenService(t, f, time.Hour)
	project := f.project(t)
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		issued, err := svc.IssueToken(ctx, project.ID, f.admin.ID)
		if err != nil {
			t.Fatal(err)
		}

		var (
			wg    sync.WaitGroup
			start = make(chan struct{})
			errs  = make([]error, 2)
		)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, errs[i] = svc.ConsumeToken(ctx, issued.Token.Token, goodFeedback, nil)
			}(i)
		}
		close(start)
		wg.Wait()

		successes, used := 0, 0
		for _, err := range errs {
			if err == nil {
				successes++
				continue
			}
			if tie, ok := IsTokenInvalid(err); ok && tie.Reason == TokenAlreadyUsed {
				used++
				continue
			}
			t.Fatalf("round %d: unexpected error %v", round, err)
		}
		if successes != 1 || used != 1 {
			t.Fatalf("round %d: successes=%d already_used=%d, want 1 and 1", round, successes, used)
		}
		if n := testutil.Count(t, f.db, &models.Feedback{}, "token_id = ?", issued.Token.ID); n != 1 {
			t.Fatalf("round %d: feedback rows = %d, want 1", round, n)
		}
	}
}

func TestConsumeToken_LosesConditionalUpdate(t *testing.T) {
	f := newFixture(t)
	svc := newTokenService(t, f, time.Hour)
	project := f.project(t)
	ctx := context.Background()

	issued, err := svc.IssueToken(ctx, project.ID, f.admin.ID)
	if err != nil {
		t.Fatal(err)
	}

	// Another consumer commits between our checks and our update
	calls := 0
	svc.beforeMarkUsed = func(tx *gorm.DB, token models.FeedbackToken) {
		calls++
		if err := tx.Model(&models.FeedbackToken{}).Where("id = ?", token.ID).Update("is_used", true).Error; err != nil {
			t.Errorf("concurrent mark: %v", err)
		}
	}

	_, err = svc.ConsumeToken(ctx, issued.Token.Token, goodFeedback, nil)
	assertTokenInvalid(t, err, TokenAlreadyUsed)
	if calls != 1 {
		t.Fatalf("token checks passed %d times, want 1", calls)
	}
	if n := testutil.Count(t, f.db, &models.Feedback{}, "token_id = ?", issued.Token.ID); n != 0 {
		t.Fatalf("feedback rows = %d, want 0", n)
	}
	if n := testutil.Count(t, f.db, &models.Activity{}, "project_id = ? AND kind = ?", project.ID, models.ActivityFeedbackReceived); n != 0 {
		t.Fatalf("feedback activity rows = %d, want 0", n)
	}
	if n := f.notificationCount(t, f.owner.ID, models.NotificationNewFeedback); n != 0 {
		t.Fatalf("new_feedback notifications = %d, want 0", n)
	}
	if n := f.publisher.count(EventFeedbackSubmitted); n != 0 {
		t.Fatalf("feedback.submitted events = %d, want 0", n)
	}

	// The losing transaction rolled back as a whole, so the token is still live
	svc.beforeMarkUsed = nil
	if _, err := svc.ConsumeToken(ctx, issued.Token.Token, goodFeedback, nil); err != nil {
		t.Fatalf("consume after rollback: %v", err)
	}
}

func TestListProjectTokens_States(t *testing.T) {
	f := newFixture(t)
	svc := newTokenService(t, f, time.Hour)
	project := f.project(t)
	ctx := context.Background()

	used, err := svc.IssueToken(ctx, project.ID, f.admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.IssueToken(ctx, project.ID, f.admin.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ConsumeToken(ctx, used.Token.Token, goodFeedback, utils.IntPtr(4)); err != nil {
		t.Fatal(err)
	}

	views, err := svc.ListProjectTokens(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	states := map[models.TokenState]int{}
	for _, v := range views {
		states[v.State]++
		if !strings.HasPrefix(v.Link, "https://app.example.com/feedback/") {
			t.Errorf("link = %q", v.Link)
		}
	}
	if states[models.TokenStateConsumed] != 1 || states[models.TokenStateActive] != 1 {
		t.Fatalf("states = %v, want one consumed and one active", states)
	}

	feedback, err := svc.ListProjectFeedback(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(feedback) != 1 || feedback[0].Rating == nil || *feedback[0].Rating != 4 {
		t.Fatalf("feedback = %+v", feedback)
	}
}
