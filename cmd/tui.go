package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/flock"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/medialink/internal/repositories"
	"github.com/desertthunder/medialink/internal/shared"
	"github.com/desertthunder/medialink/internal/tasks"
	"github.com/desertthunder/medialink/internal/ui"
)

var _ tasks.JobArchiver = (*repositories.HistoryArchiver)(nil)

// Watch runs one operating session in the interactive view.
//
// Only one watch session may run per history database; a second one fails
// with [shared.ErrSessionLocked].
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	lock := flock.New(r.config.Database.Path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return shared.ErrSessionLocked
	}
	defer lock.Unlock()

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()

	opts := tasks.SessionOpts{
		Config:  r.config,
		Backend: r.backend,
		Logger:  fileLogger,
	}

	if !cmd.Bool("no-history") {
		db, err := shared.OpenHistoryDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		opts.Archiver = repositories.NewHistoryArchiver(repositories.NewJobHistoryRepository(db))
	}

	session := tasks.NewSession(opts)
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		return err
	}

	p := tea.NewProgram(ui.NewModel(session), tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
