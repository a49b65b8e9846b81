package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// JobStatus is the server-reported lifecycle state of a [Job].
type JobStatus string

const (
	StatusQueued      JobStatus = "Queued"
	StatusSearching   JobStatus = "Searching"
	StatusDownloading JobStatus = "Downloading"
	StatusLinking     JobStatus = "Linking"
	StatusPaused      JobStatus = "Paused"
	StatusCompleted   JobStatus = "Completed"
	StatusError       JobStatus = "Error"
	StatusCancelled   JobStatus = "Cancelled"
)

// IsTerminal reports whether no further progress or log output is expected.
//
// Unknown statuses are treated as live so their logs keep flowing.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanPause reports whether a pause command makes sense for the status.
func (s JobStatus) CanPause() bool {
	return !s.IsTerminal() && s != StatusPaused
}

// CanResume reports whether a resume command makes sense for the status.
func (s JobStatus) CanResume() bool {
	return s == StatusPaused
}

func (s JobStatus) String() string { return string(s) }

// Job is one entry of the active-jobs snapshot.
//
// The ID is not part of the JSON object; it is the key of the snapshot map.
type Job struct {
	ID            string           `json:"-"`
	Title         string           `json:"title"`
	OriginalTitle string           `json:"original_title,omitempty"`
	MediaType     MediaType        `json:"media_type"`
	Status        JobStatus        `json:"status"`
	Message       string           `json:"message"`
	Season        *int             `json:"season,omitempty"`
	Episode       *int             `json:"episode,omitempty"`
	Request       *DownloadRequest `json:"req,omitempty"`
}

// Label renders the job title with its season/episode suffix.
func (j Job) Label() string {
	if j.Season == nil {
		return j.Title
	}
	ep := 0
	if j.Episode != nil {
		ep = *j.Episode
	}
	return fmt.Sprintf("%s S%02dE%02d", j.Title, *j.Season, ep)
}

// Snapshot is the authoritative set of active jobs keyed by job id.
type Snapshot map[string]Job

// UnmarshalJSON decodes the backend's id -> job mapping and stamps each job with its key.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	raw := map[string]Job{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Snapshot, len(raw))
	for id, job := range raw {
		job.ID = id
		out[id] = job
	}
	*s = out
	return nil
}

// Clone returns a copy that callers may keep without sharing the map.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, job := range s {
		out[id] = job
	}
	return out
}

// Sorted returns the jobs ordered by id for stable rendering.
func (s Snapshot) Sorted() []Job {
	jobs := make([]Job, 0, len(s))
	for _, job := range s {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID < jobs[k].ID })
	return jobs
}

// JobID builds the backend's job identifier for a title, season, and episode.
func JobID(tmdbID, season, episode int) string {
	return fmt.Sprintf("%d_%d_%d", tmdbID, season, episode)
}
