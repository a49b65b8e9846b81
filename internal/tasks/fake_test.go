package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/services"
)

type call struct {
	op    string
	id    string
	query string
	page  int
	since int
}

// fakeBackend is an in-process [services.Backend] with per-call hooks.
type fakeBackend struct {
	mu    sync.Mutex
	calls []call

	configured    bool
	snapshot      models.Snapshot
	jobsErr       error
	mount         string
	mountErr      error
	notifications []string
	systemLogs    []string

	jobLogs  func(id string, since int) (*services.JobLogPage, error)
	results  func(op string, page int) (*models.ResultPage, error)
	exists   func(q models.ExistsQuery) (bool, error)
	alive    func(path string) (bool, error)
	streams  []models.Stream
	cmdErr   error
	download func(req models.DownloadRequest) (string, error)
	library  []models.LibraryNode
}

var _ services.Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{configured: true, snapshot: models.Snapshot{}, mount: "connected"}
}

func (f *fakeBackend) record(c call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeBackend) callsFor(op string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBackend) setSnapshot(s models.Snapshot) {
	f.mu.Lock()
	f.snapshot = s
	f.mu.Unlock()
}

func (f *fakeBackend) Configured(ctx context.Context) (bool, error) {
	f.record(call{op: "status"})
	return f.configured, nil
}

func (f *fakeBackend) SystemLogs(ctx context.Context) ([]string, error) {
	f.record(call{op: "logs"})
	return f.systemLogs, nil
}

func (f *fakeBackend) MountStatus(ctx context.Context) (string, error) {
	f.record(call{op: "mount"})
	return f.mount, f.mountErr
}

func (f *fakeBackend) Notifications(ctx context.Context) ([]string, error) {
	f.record(call{op: "notifications"})
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.notifications
	f.notifications = nil
	return msgs, nil
}

func (f *fakeBackend) ActiveJobs(ctx context.Context) (models.Snapshot, error) {
	f.record(call{op: "active"})
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.jobsErr != nil {
		return nil, f.jobsErr
	}
	out := make(models.Snapshot, len(f.snapshot))
	for id, j := range f.snapshot {
		j.ID = id
		out[id] = j
	}
	return out, nil
}

func (f *fakeBackend) JobLogs(ctx context.Context, jobID string, since int) (*services.JobLogPage, error) {
	f.record(call{op: "job_logs", id: jobID, since: since})
	if f.jobLogs == nil {
		return &services.JobLogPage{Total: since}, nil
	}
	return f.jobLogs(jobID, since)
}

func (f *fakeBackend) page(op, query string, page int) (*models.ResultPage, error) {
	f.record(call{op: op, query: query, page: page})
	if f.results == nil {
		return &models.ResultPage{
			Results:    []models.MediaItem{{ID: page, Title: fmt.Sprintf("%s %s p%d", op, query, page), MediaType: models.MediaMovie}},
			TotalPages: 5,
		}, nil
	}
	return f.results(op, page)
}

func (f *fakeBackend) Search(ctx context.Context, query string, page int) (*models.ResultPage, error) {
	return f.page("search", query, page)
}

func (f *fakeBackend) Discover(ctx context.Context, mediaType models.MediaType, genreID, page int) (*models.ResultPage, error) {
	return f.page("discover", fmt.Sprintf("%s/%d", mediaType, genreID), page)
}

func (f *fakeBackend) Trending(ctx context.Context, mediaType models.MediaType, window string, page int) (*models.ResultPage, error) {
	return f.page("trending", string(mediaType), page)
}

func (f *fakeBackend) Genres(ctx context.Context, mediaType models.MediaType) ([]models.Genre, error) {
	f.record(call{op: "genres", query: string(mediaType)})
	return []models.Genre{{ID: 28, Name: "Action"}}, nil
}

func (f *fakeBackend) Details(ctx context.Context, mediaType models.MediaType, tmdbID int) (*models.Details, error) {
	f.record(call{op: "details", page: tmdbID})
	return &models.Details{ID: tmdbID}, nil
}

func (f *fakeBackend) Season(ctx context.Context, tmdbID, season int) ([]models.Episode, error) {
	f.record(call{op: "season", page: season})
	return nil, nil
}

func (f *fakeBackend) Streams(ctx context.Context, mediaType models.MediaType, tmdbID int, season, episode *int) ([]models.Stream, error) {
	f.record(call{op: "streams", id: services.StreamID(tmdbID, season, episode)})
	if f.cmdErr != nil {
		return nil, f.cmdErr
	}
	return f.streams, nil
}

func (f *fakeBackend) Download(ctx context.Context, req models.DownloadRequest) (string, error) {
	f.record(call{op: "download", id: req.JobID(), query: req.Filename})
	if f.download != nil {
		return f.download(req)
	}
	if f.cmdErr != nil {
		return "", f.cmdErr
	}
	return req.JobID(), nil
}

func (f *fakeBackend) PauseJob(ctx context.Context, jobID string) error {
	f.record(call{op: "pause", id: jobID})
	return f.cmdErr
}

func (f *fakeBackend) ResumeJob(ctx context.Context, jobID string) error {
	f.record(call{op: "resume", id: jobID})
	return f.cmdErr
}

func (f *fakeBackend) DeleteJob(ctx context.Context, jobID string) error {
	f.record(call{op: "delete", id: jobID})
	return f.cmdErr
}

func (f *fakeBackend) ManualLink(ctx context.Context, req models.ManualLinkRequest) error {
	f.record(call{op: "manual_link", id: req.JobID, query: req.Path})
	return f.cmdErr
}

func (f *fakeBackend) SymlinkExists(ctx context.Context, q models.ExistsQuery) (bool, error) {
	f.record(call{op: "exists", id: q.Key()})
	if f.exists == nil {
		return false, nil
	}
	return f.exists(q)
}

func (f *fakeBackend) TestSymlink(ctx context.Context, path string) (bool, error) {
	f.record(call{op: "test_symlink", query: path})
	if f.alive == nil {
		return true, nil
	}
	return f.alive(path)
}

func (f *fakeBackend) ListRemote(ctx context.Context, path string) ([]models.RemoteEntry, error) {
	f.record(call{op: "list", query: path})
	return nil, nil
}

func (f *fakeBackend) Settings(ctx context.Context) (*models.Settings, error) {
	f.record(call{op: "settings"})
	return &models.Settings{}, nil
}

func (f *fakeBackend) SaveSettings(ctx context.Context, s models.Settings) error {
	f.record(call{op: "save_settings"})
	return f.cmdErr
}

func (f *fakeBackend) Library(ctx context.Context) (*models.Library, error) {
	f.record(call{op: "library"})
	return &models.Library{}, f.cmdErr
}

func (f *fakeBackend) LibraryStructure(ctx context.Context, mediaType models.MediaType, folder string) ([]models.LibraryNode, error) {
	f.record(call{op: "structure", query: folder})
	return f.library, nil
}

func (f *fakeBackend) SymlinkInfo(ctx context.Context, path string) (*models.SymlinkInfo, error) {
	f.record(call{op: "symlink_info", query: path})
	return &models.SymlinkInfo{IsSymlink: true, FullPath: path}, nil
}

func (f *fakeBackend) DeleteSymlink(ctx context.Context, path string) error {
	f.record(call{op: "delete_symlink", query: path})
	return f.cmdErr
}

func (f *fakeBackend) DeleteSeason(ctx context.Context, folder string, season int) error {
	f.record(call{op: "delete_season", query: folder, page: season})
	return f.cmdErr
}

func (f *fakeBackend) DeleteSeries(ctx context.Context, folder string) error {
	f.record(call{op: "delete_series", query: folder})
	return f.cmdErr
}

func (f *fakeBackend) DeleteMovie(ctx context.Context, folder string) error {
	f.record(call{op: "delete_movie", query: folder})
	return f.cmdErr
}

// staticSnapshot serves a fixed snapshot to a JobLogPoller.
type staticSnapshot struct {
	mu   sync.Mutex
	snap models.Snapshot
}

func (s *staticSnapshot) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

func (s *staticSnapshot) set(snap models.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

func snapshotOf(jobs ...models.Job) models.Snapshot {
	out := models.Snapshot{}
	for _, j := range jobs {
		out[j.ID] = j
	}
	return out
}
