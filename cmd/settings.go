package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/medialink/internal/formatter"
	"github.com/desertthunder/medialink/internal/shared"
)

// maskSecret keeps the last four characters of a key visible.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

// SettingsGet prints the backend's live settings.
func (r *Runner) SettingsGet(ctx context.Context, cmd *cli.Command) error {
	settings, err := r.backend.Settings(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, shared.DisplayError(err))
	}
	if cmd.Bool("json") {
		return r.writeJSON(settings, true)
	}
	key := settings.TMDBAPIKey
	if !cmd.Bool("reveal") {
		key = maskSecret(key)
	}
	return r.writeTable(formatter.Table{
		Headers: []string{"Setting", "Value"},
		Rows: [][]string{
			{"tmdb_api_key", key},
			{"aiostreams_url", settings.AIOStreamsURL},
		},
	})
}

// SettingsSet changes the given settings and keeps the rest as the backend has them.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	if !cmd.IsSet("tmdb-key") && !cmd.IsSet("aiostreams-url") {
		return fmt.Errorf("%w: --tmdb-key or --aiostreams-url", shared.ErrMissingArgument)
	}

	settings, err := r.backend.Settings(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, shared.DisplayError(err))
	}
	if cmd.IsSet("tmdb-key") {
		settings.TMDBAPIKey = strings.TrimSpace(cmd.String("tmdb-key"))
	}
	if cmd.IsSet("aiostreams-url") {
		settings.AIOStreamsURL = strings.TrimSpace(cmd.String("aiostreams-url"))
	}

	ctl, _, reg := r.controller()
	defer reg.Close()

	if err := ctl.SaveSettings(ctx, *settings); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, shared.DisplayError(err))
	}
	return r.writePlain("✓ Settings saved\n")
}
