package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
)

// HistoryArchiver records finished jobs, one entry per backend job id.
//
// A job seen again (for example a retried download) updates its existing entry.
type HistoryArchiver struct {
	repo *JobHistoryRepository
}

// NewHistoryArchiver creates an archiver backed by repo.
func NewHistoryArchiver(repo *JobHistoryRepository) *HistoryArchiver {
	return &HistoryArchiver{repo: repo}
}

// Archive upserts the history entry for job.
func (a *HistoryArchiver) Archive(ctx context.Context, job models.Job, logs []string) error {
	existing, err := a.repo.GetByJobID(ctx, job.ID)
	switch {
	case errors.Is(err, shared.ErrHistoryNotFound):
		return a.repo.CreateContext(ctx, models.NewHistoryEntry(job, logs))
	case err != nil:
		return fmt.Errorf("failed to look up history for %s: %w", job.ID, err)
	}

	if len(logs) == 0 {
		logs = existing.Logs()
	}
	existing.SetOutcome(job.Status, job.Message, logs)
	return a.repo.UpdateContext(ctx, existing)
}
