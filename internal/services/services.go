// package services defines interface Backend for interacting with the fetch/link backend
package services

import (
	"context"

	"github.com/desertthunder/medialink/internal/models"
)

// Backend is the contract the engine and the CLI depend on.
type Backend interface {
	// Configured reports whether first-run setup has been completed on the backend.
	Configured(ctx context.Context) (bool, error)

	SystemLogs(ctx context.Context) ([]string, error)
	MountStatus(ctx context.Context) (string, error)
	// Notifications drains the backend's pending notification queue.
	Notifications(ctx context.Context) ([]string, error)
	ActiveJobs(ctx context.Context) (models.Snapshot, error)
	// JobLogs returns the lines after since and the total line count.
	JobLogs(ctx context.Context, jobID string, since int) (*JobLogPage, error)

	Search(ctx context.Context, query string, page int) (*models.ResultPage, error)
	Discover(ctx context.Context, mediaType models.MediaType, genreID, page int) (*models.ResultPage, error)
	Trending(ctx context.Context, mediaType models.MediaType, window string, page int) (*models.ResultPage, error)
	Genres(ctx context.Context, mediaType models.MediaType) ([]models.Genre, error)
	Details(ctx context.Context, mediaType models.MediaType, tmdbID int) (*models.Details, error)
	Season(ctx context.Context, tmdbID, season int) ([]models.Episode, error)
	Streams(ctx context.Context, mediaType models.MediaType, tmdbID int, season, episode *int) ([]models.Stream, error)

	Download(ctx context.Context, req models.DownloadRequest) (string, error)
	PauseJob(ctx context.Context, jobID string) error
	ResumeJob(ctx context.Context, jobID string) error
	DeleteJob(ctx context.Context, jobID string) error
	ManualLink(ctx context.Context, req models.ManualLinkRequest) error

	SymlinkExists(ctx context.Context, q models.ExistsQuery) (bool, error)
	TestSymlink(ctx context.Context, path string) (bool, error)
	ListRemote(ctx context.Context, path string) ([]models.RemoteEntry, error)

	Library(ctx context.Context) (*models.Library, error)
	// LibraryStructure walks one title folder, directories first.
	LibraryStructure(ctx context.Context, mediaType models.MediaType, folder string) ([]models.LibraryNode, error)
	SymlinkInfo(ctx context.Context, path string) (*models.SymlinkInfo, error)
	DeleteSymlink(ctx context.Context, path string) error
	DeleteSeason(ctx context.Context, folder string, season int) error
	DeleteSeries(ctx context.Context, folder string) error
	DeleteMovie(ctx context.Context, folder string) error

	Settings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, s models.Settings) error
}

// JobLogPage is one incremental page of a job's log.
type JobLogPage struct {
	Logs  []string `json:"logs"`
	Total int      `json:"total"`
}

var _ Backend = (*BackendService)(nil)
