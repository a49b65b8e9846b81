package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
)

func TestJobHistoryRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewJobHistoryRepository(db)
			entry := models.NewHistoryEntry(models.Job{Title: "No ID", Status: models.StatusCompleted}, nil)

			if err := repo.Create(entry); err == nil {
				t.Fatal("expected validation error for empty job id")
			}
			if entry.ID() != "" {
				t.Error("failed create should not assign an ID")
			}
		})

		t.Run("MissingStatus", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewJobHistoryRepository(db)
			entry := models.NewHistoryEntry(models.Job{ID: "1_0_0", Title: "T"}, nil)

			if err := repo.Create(entry); err == nil {
				t.Fatal("expected validation error for empty status")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewJobHistoryRepository(db)

			_, err := repo.Get("nonexistent-id")
			if !errors.Is(err, shared.ErrHistoryNotFound) {
				t.Fatalf("expected ErrHistoryNotFound, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewJobHistoryRepository(db)
			entry := models.NewHistoryEntry(finishedJob("1_0_0", models.StatusCompleted), nil)
			entry.SetID("nonexistent-id")

			if err := repo.Update(entry); !errors.Is(err, shared.ErrHistoryNotFound) {
				t.Fatalf("expected ErrHistoryNotFound, got %v", err)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewJobHistoryRepository(db)
			if err := repo.Delete("nonexistent-id"); !errors.Is(err, shared.ErrHistoryNotFound) {
				t.Fatalf("expected ErrHistoryNotFound, got %v", err)
			}
		})
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewJobHistoryRepository(db)
		db.Close()

		if _, err := repo.List(nil); err == nil {
			t.Fatal("expected error on closed database")
		}
		if err := repo.Create(models.NewHistoryEntry(finishedJob("1_0_0", models.StatusCompleted), nil)); err == nil {
			t.Fatal("expected error on closed database")
		}
	})
}
