package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/medialink/internal/formatter"
	"github.com/desertthunder/medialink/internal/repositories"
	"github.com/desertthunder/medialink/internal/shared"
)

func (r *Runner) historyRepo() (*repositories.JobHistoryRepository, func(), error) {
	db, err := shared.OpenHistoryDatabase(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return repositories.NewJobHistoryRepository(db), func() { db.Close() }, nil
}

// History lists archived jobs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.historyRepo()
	if err != nil {
		return err
	}
	defer closeDB()

	entries, err := repo.List(map[string]any{
		"status":     cmd.String("status"),
		"media_type": cmd.String("type"),
		"limit":      cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if path := cmd.String("csv"); path != "" {
		written, err := formatter.WriteHistoryCSV(entries, path)
		if err != nil {
			return err
		}
		r.logger.Info("history exported", "path", written, "entries", len(entries))
		return r.writePlain("✓ Exported %d entries to %s\n", len(entries), written)
	}

	if cmd.Bool("json") {
		type row struct {
			Sequence  int    `json:"sequence"`
			JobID     string `json:"job_id"`
			Title     string `json:"title"`
			MediaType string `json:"media_type"`
			Status    string `json:"status"`
			Message   string `json:"message,omitempty"`
			UpdatedAt string `json:"updated_at"`
		}
		rows := make([]row, len(entries))
		for i, e := range entries {
			rows[i] = row{e.Sequence(), e.JobID(), e.Title(), string(e.MediaType()), string(e.Status()), e.Message(), e.UpdatedAt().Format(time.RFC3339)}
		}
		return r.writeJSON(rows, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No archived jobs.\n")
	}
	return r.writeTable(formatter.HistoryTable(entries))
}

// Report writes one archived job and its full log as Markdown, or prints it as text.
func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	id, err := jobIDFrom(cmd)
	if err != nil {
		return err
	}

	repo, closeDB, err := r.historyRepo()
	if err != nil {
		return err
	}
	defer closeDB()

	entry, err := repo.GetByJobID(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("stdout") {
		return r.writePlain("%s", strings.TrimRight(string(formatter.ExportJobText(entry)), "\n")+"\n")
	}

	written, err := formatter.WriteJobReport(entry, cmd.String("output"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Report written to %s\n", written)
}
