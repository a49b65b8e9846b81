package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
)

// LibraryStore is the slice of the backend that manages the local media library.
type LibraryStore interface {
	Library(ctx context.Context) (*models.Library, error)
	LibraryStructure(ctx context.Context, mediaType models.MediaType, folder string) ([]models.LibraryNode, error)
	SymlinkInfo(ctx context.Context, path string) (*models.SymlinkInfo, error)
	DeleteSymlink(ctx context.Context, path string) error
	DeleteSeason(ctx context.Context, folder string, season int) error
	DeleteSeries(ctx context.Context, folder string) error
	DeleteMovie(ctx context.Context, folder string) error
}

// LibraryManager lists library folders and removes library content.
//
// Every removal is gated by a [Confirmer]; nothing is sent without consent.
type LibraryManager struct {
	store  LibraryStore
	links  *SymlinkReconciler
	notes  *NotificationCenter
	logger *log.Logger
}

func NewLibraryManager(store LibraryStore, links *SymlinkReconciler, notes *NotificationCenter, logger *log.Logger) *LibraryManager {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &LibraryManager{store: store, links: links, notes: notes, logger: logger}
}

// List returns the movie and show folders, sorted by name.
func (m *LibraryManager) List(ctx context.Context) (*models.Library, error) {
	lib, err := m.store.Library(ctx)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("library loaded", "movies", len(lib.Movies), "shows", len(lib.Shows))
	return lib, nil
}

// Structure walks one title folder. With test set, every file is tested for
// liveness through the reconciler and the result is returned per full path.
func (m *LibraryManager) Structure(ctx context.Context, mediaType models.MediaType, folder string, test bool) ([]models.LibraryNode, map[string]models.LinkState, error) {
	nodes, err := m.store.LibraryStructure(ctx, mediaType, folder)
	if err != nil {
		return nil, nil, err
	}
	states := make(map[string]models.LinkState)
	if !test {
		return nodes, states, nil
	}
	for _, n := range nodes {
		if n.IsDir() {
			continue
		}
		if ctx.Err() != nil {
			return nodes, states, ctx.Err()
		}
		states[n.FullPath] = m.links.Test(ctx, n.FullPath)
	}
	return nodes, states, nil
}

// Info reports where a library file points.
func (m *LibraryManager) Info(ctx context.Context, path string) (*models.SymlinkInfo, error) {
	return m.store.SymlinkInfo(ctx, path)
}

func (m *LibraryManager) remove(ctx context.Context, op, prompt, done string, confirm Confirmer, fn func(context.Context) error) error {
	if confirm == nil || !confirm.Confirm(prompt) {
		return shared.ErrNotConfirmed
	}
	if err := fn(ctx); err != nil {
		m.logger.Warn("library removal failed", "op", op, "err", err)
		m.notes.Failure(err)
		return err
	}
	m.logger.Info("library content removed", "op", op)
	m.notes.Success(done)
	return nil
}

// RemoveFile deletes one library file; emptied parent folders go with it.
func (m *LibraryManager) RemoveFile(ctx context.Context, path string, confirm Confirmer) error {
	return m.remove(ctx, "delete_symlink",
		fmt.Sprintf("Remove %s from the library?", path),
		fmt.Sprintf("Removed %s", path),
		confirm, func(ctx context.Context) error { return m.store.DeleteSymlink(ctx, path) })
}

// RemoveSeason deletes a whole season folder of a show.
func (m *LibraryManager) RemoveSeason(ctx context.Context, folder string, season int, confirm Confirmer) error {
	if season < 0 {
		return fmt.Errorf("%w: season must not be negative", shared.ErrInvalidArgument)
	}
	return m.remove(ctx, "delete_season",
		fmt.Sprintf("Remove ALL of season %d of %q? This cannot be undone.", season, folder),
		fmt.Sprintf("Season %d removed", season),
		confirm, func(ctx context.Context) error { return m.store.DeleteSeason(ctx, folder, season) })
}

// RemoveSeries deletes a show folder with every season in it.
func (m *LibraryManager) RemoveSeries(ctx context.Context, folder string, confirm Confirmer) error {
	return m.remove(ctx, "delete_series",
		fmt.Sprintf("Remove the entire series %q? This cannot be undone.", folder),
		"Series removed",
		confirm, func(ctx context.Context) error { return m.store.DeleteSeries(ctx, folder) })
}

// RemoveMovie deletes a movie folder.
func (m *LibraryManager) RemoveMovie(ctx context.Context, folder string, confirm Confirmer) error {
	return m.remove(ctx, "delete_movie",
		fmt.Sprintf("Remove the movie %q? This cannot be undone.", folder),
		"Movie removed",
		confirm, func(ctx context.Context) error { return m.store.DeleteMovie(ctx, folder) })
}
