package repositories

import (
	"context"
	"testing"

	"github.com/clientdesk-api/models"
	"github.com/clientdesk-api/testutil"
)

func TestFeedbackTokenRepository_MarkUsedOnce(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "client@example.com", models.RoleUser)
	project := testutil.CreateProject(t, db, user.ID)
	repo := NewFeedbackTokenRepository(db)
	ctx := context.Background()

	token := models.FeedbackToken{ProjectID: project.ID, Token: "tok-mark-used"}
	if err := repo.Create(ctx, &token); err != nil {
		t.Fatal(err)
	}

	won, err := repo.MarkUsed(ctx, token.ID)
	if err != nil || !won {
		t.Fatalf("first MarkUsed = %v, %v; want true", won, err)
	}
	won, err = repo.MarkUsed(ctx, token.ID)
	if err != nil || won {
		t.Fatalf("second MarkUsed = %v, %v; want false", won, err)
	}

	stored, err := repo.FindByToken(ctx, "tok-mark-used")
	if err != nil {
		t.Fatal(err)
	}
	if !stored.IsUsed {
		t.Fatal("token not marked used")
	}

	if won, err := repo.MarkUsed(ctx, "missing"); err != nil || won {
		t.Fatalf("MarkUsed on unknown id = %v, %v; want false", won, err)
	}
}
