package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/medialink/internal/formatter"
	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
	"github.com/desertthunder/medialink/internal/tasks"
)

func mediaTypeFrom(cmd *cli.Command) (models.MediaType, error) {
	mt := models.MediaType(cmd.String("type"))
	if !mt.Valid() {
		return "", fmt.Errorf("%w: --type must be movie or tv, got %q", shared.ErrInvalidFlag, mt)
	}
	return mt, nil
}

func (r *Runner) writePage(page *models.ResultPage, current int, asJSON bool) error {
	if asJSON {
		return r.writeJSON(page, true)
	}
	if len(page.Results) == 0 {
		return r.writePlain("No results.\n")
	}
	if err := r.writeTable(formatter.ResultsTable(page.Results)); err != nil {
		return err
	}
	return r.writePlain("Page %d of %d\n", current, max(page.TotalPages, 1))
}

// Search prints one page of title search results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	page := max(cmd.Int("page"), 1)

	r.logger.Debug("search", "query", query, "page", page)
	result, err := r.backend.Search(ctx, query, page)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writePage(result, page, cmd.Bool("json"))
}

// Discover prints one page of the discovery or trending feed.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	mediaType, err := mediaTypeFrom(cmd)
	if err != nil {
		return err
	}
	page := max(cmd.Int("page"), 1)

	var result *models.ResultPage
	if cmd.Bool("trending") {
		result, err = r.backend.Trending(ctx, mediaType, tasks.TrendingWindow, page)
	} else {
		result, err = r.backend.Discover(ctx, mediaType, cmd.Int("genre"), page)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writePage(result, page, cmd.Bool("json"))
}

// Genres prints the genre ids usable with 'discover --genre'.
func (r *Runner) Genres(ctx context.Context, cmd *cli.Command) error {
	mediaType, err := mediaTypeFrom(cmd)
	if err != nil {
		return err
	}

	genres, err := r.backend.Genres(ctx, mediaType)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	t := formatter.Table{Headers: []string{"ID", "Name"}, Aligns: []formatter.Alignment{formatter.AlignRight}}
	for _, g := range genres {
		t.Rows = append(t.Rows, []string{fmt.Sprint(g.ID), g.Name})
	}
	return r.writeTable(t)
}

// Streams prints the candidate sources for a title or episode with their cache flags.
func (r *Runner) Streams(ctx context.Context, cmd *cli.Command) error {
	target, err := targetFrom(cmd)
	if err != nil {
		return err
	}

	ctl, _, reg := r.controller()
	defer reg.Close()

	streams, err := ctl.FetchStreams(ctx, target)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, shared.DisplayError(err))
	}

	if cmd.Bool("json") {
		return r.writeJSON(streams, true)
	}
	if len(streams) == 0 {
		return r.writePlain("No sources found.\n")
	}
	return r.writeTable(formatter.StreamsTable(streams, target.Item.ID))
}
