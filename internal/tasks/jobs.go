package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
)

// Commander is the slice of the backend that accepts user-initiated commands.
type Commander interface {
	Download(ctx context.Context, req models.DownloadRequest) (string, error)
	PauseJob(ctx context.Context, jobID string) error
	ResumeJob(ctx context.Context, jobID string) error
	DeleteJob(ctx context.Context, jobID string) error
	ManualLink(ctx context.Context, req models.ManualLinkRequest) error
	Streams(ctx context.Context, mediaType models.MediaType, tmdbID int, season, episode *int) ([]models.Stream, error)
	SaveSettings(ctx context.Context, s models.Settings) error
}

// Confirmer gates destructive commands.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to [Confirmer].
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Target is the title, or the episode of a title, a command acts on.
type Target struct {
	Item          models.MediaItem
	OriginalTitle string
	Season        *int
	Episode       *int
}

// IsEpisode reports whether the target narrows to one episode.
func (t Target) IsEpisode() bool {
	return t.Item.MediaType == models.MediaTV && t.Season != nil && t.Episode != nil
}

// JobID is the id the backend uses for the target's job.
func (t Target) JobID() string {
	s, e := 0, 0
	if t.Season != nil {
		s = *t.Season
	}
	if t.Episode != nil {
		e = *t.Episode
	}
	return models.JobID(t.Item.ID, s, e)
}

// Query is the existence query for the target.
func (t Target) Query() models.ExistsQuery {
	return models.QueryFor(t.Item, t.Season, t.Episode)
}

// Label renders the target for banners.
func (t Target) Label() string {
	if t.IsEpisode() {
		return fmt.Sprintf("%s S%02dE%02d", t.Item.Title, *t.Season, *t.Episode)
	}
	return t.Item.Label()
}

// JobController sends job commands and applies optimistic library flags.
//
// It never edits the job snapshot; the next status poll is the truth. Failures
// become error banners and are never retried.
type JobController struct {
	cmd    Commander
	links  *SymlinkReconciler
	notes  *NotificationCenter
	logger *log.Logger
	events *Emitter

	mu         sync.Mutex
	streams    []models.Stream
	cacheFlags map[string]bool
}

// NewJobController creates a controller that flags through links and reports through notes.
func NewJobController(cmd Commander, links *SymlinkReconciler, notes *NotificationCenter, logger *log.Logger, events *Emitter) *JobController {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &JobController{
		cmd:        cmd,
		links:      links,
		notes:      notes,
		logger:     logger,
		events:     events,
		cacheFlags: make(map[string]bool),
	}
}

func (c *JobController) fail(op string, err error) error {
	c.logger.Warn("command failed", "op", op, "err", err)
	c.notes.Failure(err)
	return err
}

// StartDownload asks the backend to fetch stream for target and returns the job id.
//
// On success a movie is flagged present and an episode pending.
func (c *JobController) StartDownload(ctx context.Context, target Target, stream models.Stream) (string, error) {
	req := models.DownloadRequest{
		Title:         target.Item.Title,
		OriginalTitle: target.OriginalTitle,
		Year:          target.Item.Year,
		MediaType:     target.Item.MediaType,
		TMDBID:        target.Item.ID,
		Filename:      FilenameEstimate(stream, target.Item.ID),
		SeasonNumber:  target.Season,
		EpisodeNumber: target.Episode,
	}

	jobID, err := c.cmd.Download(ctx, req)
	if err != nil {
		return "", c.fail("download", err)
	}

	if target.IsEpisode() {
		c.links.MarkPending(target.Query())
	} else {
		c.links.MarkPresent(target.Query())
	}
	c.notes.Success(fmt.Sprintf("Watching for %s", target.Label()))
	return jobID, nil
}

// Pause pauses a job.
func (c *JobController) Pause(ctx context.Context, jobID string) error {
	if err := c.cmd.PauseJob(ctx, jobID); err != nil {
		return c.fail("pause", err)
	}
	return nil
}

// Resume resumes a paused job.
func (c *JobController) Resume(ctx context.Context, jobID string) error {
	if err := c.cmd.ResumeJob(ctx, jobID); err != nil {
		return c.fail("resume", err)
	}
	return nil
}

// Delete cancels a job once confirm agrees. Without confirmation no request is
// sent and [shared.ErrNotConfirmed] is returned.
func (c *JobController) Delete(ctx context.Context, jobID string, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(fmt.Sprintf("Cancel and remove job %s?", jobID)) {
		return shared.ErrNotConfirmed
	}
	if err := c.cmd.DeleteJob(ctx, jobID); err != nil {
		return c.fail("delete", err)
	}
	return nil
}

// ManualLink links an existing remote file at path to target. On success the
// target is flagged as in the library.
func (c *JobController) ManualLink(ctx context.Context, target Target, path string) error {
	req := models.ManualLinkRequest{
		Path:         path,
		TMDBID:       target.Item.ID,
		MediaType:    target.Item.MediaType,
		Title:        target.Item.Title,
		Year:         target.Item.Year,
		SeasonNumber: target.Season,
		JobID:        target.JobID(),
	}
	if err := c.cmd.ManualLink(ctx, req); err != nil {
		return c.fail("manual_link", err)
	}

	c.links.MarkPresent(target.Query())
	c.notes.Success("Manual link created")
	return nil
}

// FetchStreams loads the candidate sources for target and recomputes the cache flags.
func (c *JobController) FetchStreams(ctx context.Context, target Target) ([]models.Stream, error) {
	var season, episode *int
	if target.IsEpisode() {
		season, episode = target.Season, target.Episode
	}
	streams, err := c.cmd.Streams(ctx, target.Item.MediaType, target.Item.ID, season, episode)
	if err != nil {
		return nil, c.fail("streams", err)
	}

	flags := make(map[string]bool, len(streams))
	for _, s := range streams {
		flags[s.Key()] = s.Cached()
	}

	c.mu.Lock()
	c.streams = append([]models.Stream(nil), streams...)
	c.cacheFlags = flags
	c.mu.Unlock()
	c.events.send(Event{Kind: StreamsChanged, Message: fmt.Sprintf("%d streams", len(streams))})
	return streams, nil
}

// Streams returns the last fetched source list.
func (c *JobController) Streams() []models.Stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Stream(nil), c.streams...)
}

// IsCached reports the cache flag recorded for a stream by the last fetch.
func (c *JobController) IsCached(s models.Stream) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cacheFlags[s.Key()]
}

// SaveSettings updates the backend's live settings.
func (c *JobController) SaveSettings(ctx context.Context, s models.Settings) error {
	if err := c.cmd.SaveSettings(ctx, s); err != nil {
		return c.fail("save_settings", err)
	}
	c.notes.Success("Settings saved")
	return nil
}

// FilenameEstimate guesses the filename the backend should watch for.
func FilenameEstimate(s models.Stream, tmdbID int) string {
	return s.FilenameEstimate(tmdbID)
}
