package models

import (
	"fmt"
	"strings"
	"time"
)

// HistoryEntry is a job the client saw reach a terminal status (or leave the
// active set), archived with the log lines it collected.
type HistoryEntry struct {
	id        string
	sequence  int
	jobID     string
	title     string
	mediaType MediaType
	status    JobStatus
	message   string
	logs      []string
	createdAt time.Time
	updatedAt time.Time
}

// NewHistoryEntry builds an unsaved entry from the last observed job state.
func NewHistoryEntry(job Job, logs []string) *HistoryEntry {
	now := time.Now().UTC()
	return &HistoryEntry{
		jobID:     job.ID,
		title:     job.Label(),
		mediaType: job.MediaType,
		status:    job.Status,
		message:   job.Message,
		logs:      append([]string(nil), logs...),
		createdAt: now,
		updatedAt: now,
	}
}

// RestoreHistoryEntry rebuilds a persisted entry.
func RestoreHistoryEntry(id string, sequence int, jobID, title string, mediaType MediaType, status JobStatus, message string, logs []string, createdAt, updatedAt time.Time) *HistoryEntry {
	return &HistoryEntry{
		id:        id,
		sequence:  sequence,
		jobID:     jobID,
		title:     title,
		mediaType: mediaType,
		status:    status,
		message:   message,
		logs:      logs,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (h *HistoryEntry) ID() string               { return h.id }
func (h *HistoryEntry) Sequence() int            { return h.sequence }
func (h *HistoryEntry) JobID() string            { return h.jobID }
func (h *HistoryEntry) Title() string            { return h.title }
func (h *HistoryEntry) MediaType() MediaType     { return h.mediaType }
func (h *HistoryEntry) Status() JobStatus        { return h.status }
func (h *HistoryEntry) Message() string          { return h.message }
func (h *HistoryEntry) Logs() []string           { return h.logs }
func (h *HistoryEntry) CreatedAt() time.Time     { return h.createdAt }
func (h *HistoryEntry) UpdatedAt() time.Time     { return h.updatedAt }
func (h *HistoryEntry) SetID(id string)          { h.id = id }
func (h *HistoryEntry) SetSequence(seq int)      { h.sequence = seq }
func (h *HistoryEntry) SetUpdatedAt(t time.Time) { h.updatedAt = t }

// SetOutcome overwrites the observed status, message, and logs.
func (h *HistoryEntry) SetOutcome(status JobStatus, message string, logs []string) {
	h.status = status
	h.message = message
	h.logs = append([]string(nil), logs...)
}

// Validate checks the fields required for persistence.
func (h *HistoryEntry) Validate() error {
	if strings.TrimSpace(h.jobID) == "" {
		return fmt.Errorf("job id is required")
	}
	if strings.TrimSpace(h.title) == "" {
		return fmt.Errorf("title is required")
	}
	if h.status == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}

var _ Model = (*HistoryEntry)(nil)
