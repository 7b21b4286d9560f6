package profiles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestInMemoryRepositoryInsertAndFind(t *testing.T) {
	repo := NewInMemoryRepository()
	userID := uuid.New()

	created, err := repo.Insert(context.Background(), Profile{
		UserID:    userID,
		Username:  "alice",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected an assigned profile ID")
	}

	byUser, err := repo.FindByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("FindByUserID returned error: %v", err)
	}
	if byUser == nil || byUser.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", byUser)
	}

	byName, err := repo.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FindByUsername returned error: %v", err)
	}
	if byName == nil || byName.UserID != userID {
		t.Fatalf("unexpected profile: %+v", byName)
	}
}

func TestInMemoryRepositoryMaybeOneSemantics(t *testing.T) {
	repo := NewInMemoryRepository()

	profile, err := repo.FindByUserID(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("FindByUserID returned error: %v", err)
	}
	if profile != nil {
		t.Fatalf("expected nil for a missing profile, got %+v", profile)
	}

	profile, err = repo.FindByUsername(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("FindByUsername returned error: %v", err)
	}
	if profile != nil {
		t.Fatalf("expected nil for a missing username, got %+v", profile)
	}
}

func TestInMemoryRepositoryRejectsDuplicateUsername(t *testing.T) {
	repo := NewInMemoryRepository()

	if _, err := repo.Insert(context.Background(), Profile{UserID: uuid.New(), Username: "bob"}); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	_, err := repo.Insert(context.Background(), Profile{UserID: uuid.New(), Username: "bob"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestInMemoryRepositoryUpdate(t *testing.T) {
	repo := NewInMemoryRepository()
	userID := uuid.New()

	if _, err := repo.Insert(context.Background(), Profile{UserID: userID, Username: "carol"}); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	bio := "writes dialogues"
	if err := repo.Update(context.Background(), userID, Update{Bio: &bio}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	profile, err := repo.FindByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("FindByUserID returned error: %v", err)
	}
	if profile.Bio != bio {
		t.Fatalf("expected bio to be updated, got %q", profile.Bio)
	}
	if profile.Username != "carol" {
		t.Fatalf("expected username untouched, got %q", profile.Username)
	}
}

func TestInMemoryRepositoryUpdateMissingProfile(t *testing.T) {
	repo := NewInMemoryRepository()

	bio := "nope"
	err := repo.Update(context.Background(), uuid.New(), Update{Bio: &bio})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryRepositoryUpdateUsernameCollision(t *testing.T) {
	repo := NewInMemoryRepository()
	userID := uuid.New()

	if _, err := repo.Insert(context.Background(), Profile{UserID: uuid.New(), Username: "taken"}); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if _, err := repo.Insert(context.Background(), Profile{UserID: userID, Username: "dave"}); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	target := "taken"
	err := repo.Update(context.Background(), userID, Update{Username: &target})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}
