package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/medialink/internal/formatter"
	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
	"github.com/desertthunder/medialink/internal/tasks"
)

// Link links an existing remote file to a title or episode.
func (r *Runner) Link(ctx context.Context, cmd *cli.Command) error {
	target, err := targetFrom(cmd)
	if err != nil {
		return err
	}
	path := strings.TrimSpace(cmd.String("path"))

	ctl, _, reg := r.controller()
	defer reg.Close()

	if err := ctl.ManualLink(ctx, target, path); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, shared.DisplayError(err))
	}
	return r.writePlain("✓ Linked %s to %s\n", path, target.Label())
}

// Exists reports whether a title or episode is in the library. For a show with
// --season and no --episode every episode of the season is checked.
func (r *Runner) Exists(ctx context.Context, cmd *cli.Command) error {
	target, err := targetFrom(cmd)
	if err != nil {
		return err
	}

	_, links, reg := r.controller()
	defer reg.Close()

	if target.Season == nil || target.Episode != nil {
		if links.Exists(ctx, target.Query()) {
			return r.writePlain("✓ %s is in the library\n", target.Label())
		}
		return r.writePlain("✗ %s is not in the library\n", target.Label())
	}

	episodes, err := r.backend.Season(ctx, target.Item.ID, *target.Season)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	numbers := make([]int, len(episodes))
	for i, ep := range episodes {
		numbers[i] = ep.EpisodeNumber
	}

	present := links.CheckSeason(ctx, target.Item, *target.Season, numbers)
	sort.Ints(numbers)

	t := formatter.Table{Headers: []string{"Episode", "In Library"}, Aligns: []formatter.Alignment{formatter.AlignRight}}
	have := 0
	for _, n := range numbers {
		mark := "no"
		if present[n] {
			mark = "yes"
			have++
		}
		t.Rows = append(t.Rows, []string{fmt.Sprintf("S%02dE%02d", *target.Season, n), mark})
	}
	if err := r.writeTable(t); err != nil {
		return err
	}
	return r.writePlain("%d of %d episodes in the library\n", have, len(numbers))
}

// TestLink checks that a library link still points at a live file.
func (r *Runner) TestLink(ctx context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.StringArg("path"))
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	_, links, reg := r.controller()
	defer reg.Close()

	switch state := links.Test(ctx, path); state {
	case models.LinkAlive:
		return r.writePlain("✓ %s resolves\n", path)
	default:
		return r.writePlain("✗ %s is %s\n", path, state)
	}
}

// Browse lists one directory of the remote store.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		path = "/"
	}

	entries, err := r.backend.ListRemote(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, shared.DisplayError(err))
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}
	if len(entries) == 0 {
		return r.writePlain("%s is empty\n", path)
	}
	return r.writeTable(formatter.RemoteTable(entries))
}

// libraryError prefers the backend's reason; a declined prompt passes through untouched.
func libraryError(err error) error {
	if msg := shared.DisplayError(err); msg != "" {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, msg)
	}
	return err
}

func folderArg(cmd *cli.Command) (string, error) {
	folder := strings.TrimSpace(cmd.StringArg("folder"))
	if folder == "" {
		return "", fmt.Errorf("%w: folder", shared.ErrMissingArgument)
	}
	return folder, nil
}

// LibraryList lists the movie and show folders of the local library.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	mgr, reg := r.library()
	defer reg.Close()

	lib, err := mgr.List(ctx)
	if err != nil {
		return libraryError(err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(lib, true)
	}
	if len(lib.Movies)+len(lib.Shows) == 0 {
		return r.writePlain("The library is empty\n")
	}
	if err := r.writeTable(formatter.LibraryTable(lib)); err != nil {
		return err
	}
	return r.writePlain("%d movies, %d shows\n", len(lib.Movies), len(lib.Shows))
}

// LibraryStructure prints the tree of one title folder, optionally testing every link.
func (r *Runner) LibraryStructure(ctx context.Context, cmd *cli.Command) error {
	folder, err := folderArg(cmd)
	if err != nil {
		return err
	}
	mediaType, err := mediaTypeFrom(cmd)
	if err != nil {
		return err
	}

	mgr, reg := r.library()
	defer reg.Close()

	nodes, states, err := mgr.Structure(ctx, mediaType, folder, cmd.Bool("test"))
	if err != nil {
		return libraryError(err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(nodes, true)
	}
	if err := r.writeTable(formatter.StructureTable(nodes, states)); err != nil {
		return err
	}
	if len(states) > 0 {
		dead := 0
		for _, st := range states {
			if st != models.LinkAlive {
				dead++
			}
		}
		return r.writePlain("%d of %d links resolve\n", len(states)-dead, len(states))
	}
	return nil
}

// LibraryInfo shows where a library file points.
func (r *Runner) LibraryInfo(ctx context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.StringArg("path"))
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	mgr, reg := r.library()
	defer reg.Close()

	info, err := mgr.Info(ctx, path)
	if err != nil {
		return libraryError(err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(info, true)
	}
	state := "alive"
	if !info.IsAlive {
		state = "dead"
	}
	return r.writeTable(formatter.Table{
		Headers: []string{"Field", "Value"},
		Rows: [][]string{
			{"Name", info.SymlinkName},
			{"Original", info.OriginalName},
			{"Target", info.TargetPath},
			{"Symlink", fmt.Sprint(info.IsSymlink)},
			{"State", state},
		},
	})
}

// LibraryRemoveFile deletes one library file after confirmation.
func (r *Runner) LibraryRemoveFile(ctx context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.StringArg("path"))
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	return r.libraryRemove(ctx, fmt.Sprintf("Removed %s", path), func(mgr *tasks.LibraryManager) error {
		return mgr.RemoveFile(ctx, path, r.confirmer(cmd))
	})
}

// LibraryRemoveSeason deletes one season folder of a show after confirmation.
func (r *Runner) LibraryRemoveSeason(ctx context.Context, cmd *cli.Command) error {
	folder, err := folderArg(cmd)
	if err != nil {
		return err
	}
	if !cmd.IsSet("season") {
		return fmt.Errorf("%w: --season", shared.ErrMissingArgument)
	}
	season := cmd.Int("season")
	return r.libraryRemove(ctx, fmt.Sprintf("Removed season %d of %s", season, folder), func(mgr *tasks.LibraryManager) error {
		return mgr.RemoveSeason(ctx, folder, season, r.confirmer(cmd))
	})
}

// LibraryRemoveSeries deletes a whole show folder after confirmation.
func (r *Runner) LibraryRemoveSeries(ctx context.Context, cmd *cli.Command) error {
	folder, err := folderArg(cmd)
	if err != nil {
		return err
	}
	return r.libraryRemove(ctx, "Removed "+folder, func(mgr *tasks.LibraryManager) error {
		return mgr.RemoveSeries(ctx, folder, r.confirmer(cmd))
	})
}

// LibraryRemoveMovie deletes a movie folder after confirmation.
func (r *Runner) LibraryRemoveMovie(ctx context.Context, cmd *cli.Command) error {
	folder, err := folderArg(cmd)
	if err != nil {
		return err
	}
	return r.libraryRemove(ctx, "Removed "+folder, func(mgr *tasks.LibraryManager) error {
		return mgr.RemoveMovie(ctx, folder, r.confirmer(cmd))
	})
}

func (r *Runner) libraryRemove(ctx context.Context, done string, fn func(*tasks.LibraryManager) error) error {
	mgr, reg := r.library()
	defer reg.Close()

	if err := fn(mgr); err != nil {
		return libraryError(err)
	}
	return r.writePlain("✓ %s\n", done)
}
