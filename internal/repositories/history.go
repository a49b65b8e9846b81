package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
)

const historyColumns = `id, sequence, job_id, title, media_type, status, message, created_at, updated_at`

// JobHistoryRepository implements models.Repository[*models.HistoryEntry] for archived jobs.
//
// Log lines live in job_history_logs and are written and removed alongside their entry.
type JobHistoryRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.HistoryEntry] = (*JobHistoryRepository)(nil)

// NewJobHistoryRepository creates a new JobHistoryRepository with the given database connection
func NewJobHistoryRepository(db *sql.DB) *JobHistoryRepository {
	return &JobHistoryRepository{db: db}
}

// Create inserts a new entry with generated ID and sequence
func (r *JobHistoryRepository) Create(entry *models.HistoryEntry) error {
	return r.CreateContext(context.Background(), entry)
}

// CreateContext is [JobHistoryRepository.Create] bound to ctx.
func (r *JobHistoryRepository) CreateContext(ctx context.Context, entry *models.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(ctx, tx, "job_history")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO job_history (` + historyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		id,
		sequence,
		entry.JobID(),
		entry.Title(),
		string(entry.MediaType()),
		string(entry.Status()),
		entry.Message(),
		entry.CreatedAt(),
		entry.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	if err := writeLogs(ctx, tx, id, entry.Logs()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history entry: %w", err)
	}

	entry.SetID(id)
	entry.SetSequence(sequence)
	return nil
}

// Get retrieves an entry and its logs by ID
func (r *JobHistoryRepository) Get(id string) (*models.HistoryEntry, error) {
	ctx := context.Background()
	query := `SELECT ` + historyColumns + ` FROM job_history WHERE id = ?`
	entry, err := r.scanOne(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return r.withLogs(ctx, entry)
}

// GetByJobID retrieves the most recent entry for a backend job id
func (r *JobHistoryRepository) GetByJobID(ctx context.Context, jobID string) (*models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM job_history WHERE job_id = ? ORDER BY sequence DESC LIMIT 1`
	entry, err := r.scanOne(r.db.QueryRowContext(ctx, query, jobID))
	if err != nil {
		return nil, err
	}
	return r.withLogs(ctx, entry)
}

// Update overwrites the outcome and logs of an existing entry
func (r *JobHistoryRepository) Update(entry *models.HistoryEntry) error {
	return r.UpdateContext(context.Background(), entry)
}

// UpdateContext is [JobHistoryRepository.Update] bound to ctx.
func (r *JobHistoryRepository) UpdateContext(ctx context.Context, entry *models.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	entry.SetUpdatedAt(now)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE job_history
		SET title = ?, media_type = ?, status = ?, message = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, query,
		entry.Title(),
		string(entry.MediaType()),
		string(entry.Status()),
		entry.Message(),
		now,
		entry.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update history entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrHistoryNotFound, entry.ID())
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_history_logs WHERE history_id = ?`, entry.ID()); err != nil {
		return fmt.Errorf("failed to clear history logs: %w", err)
	}
	if err := writeLogs(ctx, tx, entry.ID(), entry.Logs()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history update: %w", err)
	}
	return nil
}

// Delete removes an entry and its logs by ID
func (r *JobHistoryRepository) Delete(id string) error {
	ctx := context.Background()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_history_logs WHERE history_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete history logs: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM job_history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrHistoryNotFound, id)
	}

	return tx.Commit()
}

// List retrieves entries matching the given criteria, newest first.
//
// Supported criteria: "status" (string), "media_type" (string), "job_id" (string), "limit" (int).
// Logs are not loaded; use Get for a single entry's lines.
func (r *JobHistoryRepository) List(criteria map[string]any) ([]*models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM job_history WHERE 1 = 1`
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if mediaType, ok := criteria["media_type"].(string); ok && mediaType != "" {
		query += " AND media_type = ?"
		args = append(args, mediaType)
	}

	if jobID, ok := criteria["job_id"].(string); ok && jobID != "" {
		query += " AND job_id = ?"
		args = append(args, jobID)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		entry, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

func writeLogs(ctx context.Context, tx *sql.Tx, historyID string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO job_history_logs (history_id, position, line) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare log insert: %w", err)
	}
	defer stmt.Close()

	for i, line := range lines {
		if _, err := stmt.ExecContext(ctx, historyID, i, line); err != nil {
			return fmt.Errorf("failed to insert log line %d: %w", i, err)
		}
	}
	return nil
}

func (r *JobHistoryRepository) withLogs(ctx context.Context, entry *models.HistoryEntry) (*models.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT line FROM job_history_logs WHERE history_id = ? ORDER BY position ASC`, entry.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to query history logs: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("failed to scan log line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	entry.SetOutcome(entry.Status(), entry.Message(), lines)
	return entry, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.HistoryEntry, error) {
	var (
		id        string
		sequence  int
		jobID     string
		title     string
		mediaType string
		status    string
		message   string
		createdAt time.Time
		updatedAt time.Time
	)

	err := s.Scan(&id, &sequence, &jobID, &title, &mediaType, &status, &message, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	return models.RestoreHistoryEntry(
		id, sequence, jobID, title,
		models.MediaType(mediaType), models.JobStatus(status), message,
		nil, createdAt, updatedAt,
	), nil
}

// scanOne scans a single row into a [models.HistoryEntry]
func (r *JobHistoryRepository) scanOne(row *sql.Row) (*models.HistoryEntry, error) {
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan history entry: %w", err)
	}
	return entry, nil
}

// scanRow scans a row from a result set into a [models.HistoryEntry]
func (r *JobHistoryRepository) scanRow(rows *sql.Rows) (*models.HistoryEntry, error) {
	entry, err := scanEntry(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan history entry: %w", err)
	}
	return entry, nil
}
