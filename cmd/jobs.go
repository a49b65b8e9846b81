package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/desertthunder/medialink/internal/formatter"
	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
	"github.com/desertthunder/medialink/internal/tasks"
)

func jobIDFrom(cmd *cli.Command) (string, error) {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return "", fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}
	return id, nil
}

// targetFrom reads the --tmdb/--type/--title/--season/--episode flags.
func targetFrom(cmd *cli.Command) (tasks.Target, error) {
	mediaType := models.MediaType(cmd.String("type"))
	if !mediaType.Valid() {
		return tasks.Target{}, fmt.Errorf("%w: --type must be movie or tv, got %q", shared.ErrInvalidFlag, mediaType)
	}
	tmdbID := cmd.Int("tmdb")
	if tmdbID <= 0 {
		return tasks.Target{}, fmt.Errorf("%w: --tmdb must be positive", shared.ErrInvalidFlag)
	}

	target := tasks.Target{
		Item: models.MediaItem{
			ID:            tmdbID,
			Title:         cmd.String("title"),
			OriginalTitle: cmd.String("original-title"),
			Year:          cmd.String("year"),
			MediaType:     mediaType,
		},
		OriginalTitle: cmd.String("original-title"),
	}

	if cmd.IsSet("season") {
		if mediaType != models.MediaTV {
			return tasks.Target{}, fmt.Errorf("%w: --season only applies to tv", shared.ErrInvalidFlag)
		}
		target.Season = models.IntPtr(cmd.Int("season"))
	}
	if cmd.IsSet("episode") {
		if target.Season == nil {
			return tasks.Target{}, fmt.Errorf("%w: --episode needs --season", shared.ErrInvalidFlag)
		}
		target.Episode = models.IntPtr(cmd.Int("episode"))
	}
	return target, nil
}

// Jobs prints the active job snapshot.
func (r *Runner) Jobs(ctx context.Context, cmd *cli.Command) error {
	snap, err := r.backend.ActiveJobs(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(snap, true)
	}
	if len(snap) == 0 {
		return r.writePlain("No active jobs.\n")
	}
	return r.writeTable(formatter.JobsTable(snap))
}

// Logs prints a job's log. With --follow it keeps polling from the last cursor
// until the job reaches a terminal status or leaves the active set. A terminal
// job is never fetched again; a job that vanished gets one last fetch.
func (r *Runner) Logs(ctx context.Context, cmd *cli.Command) error {
	id, err := jobIDFrom(cmd)
	if err != nil {
		return err
	}
	follow := cmd.Bool("follow")

	poller := tasks.NewJobLogPoller(r.backend, nil, 0, r.config.Polling.JobLogMaxLines, r.logger, nil)
	limiter := rate.NewLimiter(rate.Every(cmd.Duration("interval")), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}

		lines, err := poller.Fetch(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		for _, line := range lines {
			r.writePlain("%s\n", line)
		}

		if !follow {
			return nil
		}

		snap, err := r.backend.ActiveJobs(ctx)
		if err != nil {
			r.logger.Warn("status check failed", "err", err)
			continue
		}
		job, ok := snap[id]
		if ok && job.Status.IsTerminal() {
			r.logger.Info("job finished", "job", id, "status", job.Status)
			return nil
		}
		if !ok {
			rest, err := poller.Fetch(ctx, id)
			if err == nil {
				for _, line := range rest {
					r.writePlain("%s\n", line)
				}
			}
			return nil
		}
	}
}

// pickStream returns the source at row (1-based, as listed by 'streams'), or
// the first cached one when row is zero.
func pickStream(streams []models.Stream, row int) (models.Stream, error) {
	if len(streams) == 0 {
		return models.Stream{}, fmt.Errorf("%w: no sources found", shared.ErrInvalidInput)
	}
	if row > 0 {
		if row > len(streams) {
			return models.Stream{}, fmt.Errorf("%w: --stream %d is out of range (1-%d)", shared.ErrInvalidFlag, row, len(streams))
		}
		return streams[row-1], nil
	}
	for _, s := range streams {
		if s.Cached() {
			return s, nil
		}
	}
	return streams[0], nil
}

// Download fetches the sources for a target and starts a job from one of them.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	target, err := targetFrom(cmd)
	if err != nil {
		return err
	}
	if target.Item.MediaType == models.MediaTV && !target.IsEpisode() {
		return fmt.Errorf("%w: tv downloads need --season and --episode", shared.ErrMissingArgument)
	}

	ctl, _, reg := r.controller()
	defer reg.Close()

	streams, err := ctl.FetchStreams(ctx, target)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, shared.DisplayError(err))
	}
	stream, err := pickStream(streams, cmd.Int("stream"))
	if err != nil {
		return err
	}

	jobID, err := ctl.StartDownload(ctx, target, stream)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, shared.DisplayError(err))
	}

	r.logger.Info("job started", "job", jobID, "source", stream.Name)
	r.writePlain("✓ Watching for %s\n", target.Label())
	r.writePlain("Job: %s\n", jobID)
	r.writePlain("File: %s\n", tasks.FilenameEstimate(stream, target.Item.ID))
	return nil
}

// Pause pauses a job.
func (r *Runner) Pause(ctx context.Context, cmd *cli.Command) error {
	return r.jobCommand(ctx, cmd, "Paused", func(ctl *tasks.JobController, id string) error {
		return ctl.Pause(ctx, id)
	})
}

// Resume resumes a paused job.
func (r *Runner) Resume(ctx context.Context, cmd *cli.Command) error {
	return r.jobCommand(ctx, cmd, "Resumed", func(ctl *tasks.JobController, id string) error {
		return ctl.Resume(ctx, id)
	})
}

// Delete cancels a job after confirmation.
func (r *Runner) Delete(ctx context.Context, cmd *cli.Command) error {
	confirm := r.confirmer(cmd)
	return r.jobCommand(ctx, cmd, "Cancelled", func(ctl *tasks.JobController, id string) error {
		return ctl.Delete(ctx, id, confirm)
	})
}

func (r *Runner) jobCommand(ctx context.Context, cmd *cli.Command, done string, fn func(*tasks.JobController, string) error) error {
	id, err := jobIDFrom(cmd)
	if err != nil {
		return err
	}

	ctl, _, reg := r.controller()
	defer reg.Close()

	if err := fn(ctl, id); err != nil {
		if msg := shared.DisplayError(err); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return r.writePlain("✓ %s %s\n", done, id)
}
