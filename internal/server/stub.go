package server

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
)

var errSourceNotFound = errors.New("source file not found")

// StubPageSize is the number of catalog items per result page.
const StubPageSize = 4

// Stages a job walks through on [Stub.Advance], in order.
var stubStages = []struct {
	status  models.JobStatus
	message string
}{
	{models.StatusSearching, "Searching the remote store"},
	{models.StatusDownloading, "Waiting for the file to appear"},
	{models.StatusLinking, "Creating symlink"},
	{models.StatusCompleted, "Done"},
}

// Advances a finished job stays visible before it leaves the active set.
const (
	completedLinger = 3
	cancelledLinger = 1
)

type stubItem struct {
	models.MediaItem
	Overview string
	GenreIDs []int
	Seasons  []models.Season
}

type stubJob struct {
	job    models.Job
	logs   []string
	stage  int
	linger int
	source string
}

// Stub is an in-memory media backend that answers the same HTTP contract as the real one.
//
// Jobs move forward only when [Stub.Advance] is called, which keeps tests deterministic;
// [Stub.Run] calls it on a ticker for interactive use.
type Stub struct {
	logger *log.Logger

	mu            sync.Mutex
	configured    bool
	mount         string
	systemLogs    []string
	notifications []string
	jobs          map[string]*stubJob
	catalog       []stubItem
	genres        map[models.MediaType][]models.Genre
	library       map[string]string
	links         map[string]bool
	targets       map[string]string
	remote        map[string][]models.RemoteEntry
	settings      models.Settings
}

// NewStub creates a configured stub seeded with a small catalog and remote store.
func NewStub(logger *log.Logger) *Stub {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	s := &Stub{
		logger:     logger,
		configured: true,
		mount:      "connected",
		jobs:       make(map[string]*stubJob),
		library:    make(map[string]string),
		links:      make(map[string]bool),
		targets:    make(map[string]string),
		settings:   models.Settings{TMDBAPIKey: "stub", AIOStreamsURL: "http://stub.invalid/manifest.json"},
	}
	s.seed()
	return s
}

func (s *Stub) seed() {
	s.genres = map[models.MediaType][]models.Genre{
		models.MediaMovie: {{ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}, {ID: 18, Name: "Drama"}},
		models.MediaTV:    {{ID: 18, Name: "Drama"}, {ID: 10765, Name: "Sci-Fi & Fantasy"}},
	}

	movie := func(id int, title, year string, vote float64, genres ...int) stubItem {
		return stubItem{MediaItem: models.MediaItem{ID: id, Title: title, Year: year, MediaType: models.MediaMovie, VoteAverage: vote}, GenreIDs: genres}
	}
	show := func(id int, title, year string, vote float64, seasons []models.Season, genres ...int) stubItem {
		return stubItem{MediaItem: models.MediaItem{ID: id, Title: title, Year: year, MediaType: models.MediaTV, VoteAverage: vote}, GenreIDs: genres, Seasons: seasons}
	}

	s.catalog = []stubItem{
		movie(603, "The Matrix", "1999", 8.2, 28, 878),
		movie(604, "The Matrix Reloaded", "2003", 7.0, 28, 878),
		movie(605, "The Matrix Revolutions", "2003", 6.7, 28, 878),
		movie(27205, "Inception", "2010", 8.4, 28, 878),
		movie(157336, "Interstellar", "2014", 8.4, 18, 878),
		movie(680, "Pulp Fiction", "1994", 8.5, 18),
		show(1399, "Game of Thrones", "2011", 8.4, []models.Season{{SeasonNumber: 1, EpisodeCount: 10, Name: "Season 1"}, {SeasonNumber: 2, EpisodeCount: 10, Name: "Season 2"}}, 18, 10765),
		show(1396, "Breaking Bad", "2008", 8.9, []models.Season{{SeasonNumber: 1, EpisodeCount: 7, Name: "Season 1"}}, 18),
		show(66732, "Stranger Things", "2016", 8.6, []models.Season{{SeasonNumber: 1, EpisodeCount: 8, Name: "Season 1"}}, 18, 10765),
	}

	s.remote = map[string][]models.RemoteEntry{
		"/": {
			{Name: "movies", IsDir: true, Path: "movies"},
			{Name: "shows", IsDir: true, Path: "shows"},
		},
		"/movies": {
			{Name: "The.Matrix.1999.1080p.mkv", Path: "movies/The.Matrix.1999.1080p.mkv"},
			{Name: "Inception.2010.2160p.mkv", Path: "movies/Inception.2010.2160p.mkv"},
		},
		"/shows": {
			{Name: "Game.of.Thrones.S01E01.mkv", Path: "shows/Game.of.Thrones.S01E01.mkv"},
		},
	}
}

func (s *Stub) item(mediaType models.MediaType, id int) (stubItem, bool) {
	for _, it := range s.catalog {
		if it.ID == id && (mediaType == "" || it.MediaType == mediaType) {
			return it, true
		}
	}
	return stubItem{}, false
}

func (s *Stub) sysLog(format string, args ...any) {
	line := fmt.Sprintf("[stub] "+format, args...)
	s.systemLogs = append(s.systemLogs, line)
	if len(s.systemLogs) > 100 {
		s.systemLogs = s.systemLogs[len(s.systemLogs)-100:]
	}
}

// SetConfigured toggles the setup gate reported by /status.
func (s *Stub) SetConfigured(v bool) {
	s.mu.Lock()
	s.configured = v
	s.mu.Unlock()
}

// SetMount sets the mount status reported by /rclone/status.
func (s *Stub) SetMount(status string) {
	s.mu.Lock()
	s.mount = status
	s.mu.Unlock()
}

// Notify queues a notification for the next /notifications read.
func (s *Stub) Notify(msg string) {
	s.mu.Lock()
	s.notifications = append(s.notifications, msg)
	s.mu.Unlock()
}

// AppendJobLog adds a line to a job's log; unknown jobs are ignored.
func (s *Stub) AppendJobLog(jobID, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[jobID]; ok {
		j.logs = append(j.logs, line)
	}
}

// SetJobStatus overwrites a job's status and message.
func (s *Stub) SetJobStatus(jobID string, status models.JobStatus, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return shared.ErrJobNotFound
	}
	s.setStatus(j, status, message)
	return nil
}

func (s *Stub) setStatus(j *stubJob, status models.JobStatus, message string) {
	j.job.Status = status
	j.job.Message = message
	j.logs = append(j.logs, fmt.Sprintf("[STATUS] %s: %s", status, message))
}

// AddToLibrary makes an existence query for q answer true, linked at linkPath.
func (s *Stub) AddToLibrary(q models.ExistsQuery, linkPath string) {
	s.mu.Lock()
	s.link(q, linkPath, path.Base(linkPath))
	s.mu.Unlock()
}

// BreakLink marks a library path as pointing at nothing.
func (s *Stub) BreakLink(path string) {
	s.mu.Lock()
	s.links[path] = false
	s.mu.Unlock()
}

// Download registers a job for req, or restarts an existing one, and returns its id.
func (s *Stub) Download(req models.DownloadRequest) (string, error) {
	if req.TMDBID == 0 || strings.TrimSpace(req.Title) == "" {
		return "", fmt.Errorf("%w: title and tmdb_id are required", shared.ErrInvalidInput)
	}
	id := req.JobID()

	s.mu.Lock()
	defer s.mu.Unlock()

	r := req
	j := &stubJob{
		job: models.Job{
			ID:            id,
			Title:         req.Title,
			OriginalTitle: req.OriginalTitle,
			MediaType:     req.MediaType,
			Season:        req.SeasonNumber,
			Episode:       req.EpisodeNumber,
			Request:       &r,
		},
		source: req.Filename,
	}
	s.jobs[id] = j
	j.logs = append(j.logs, fmt.Sprintf("Run %s: %s (%s) - %s", shared.GenerateID(), req.Title, req.Year, req.Filename))
	if req.SeasonNumber != nil {
		ep := 0
		if req.EpisodeNumber != nil {
			ep = *req.EpisodeNumber
		}
		j.logs = append(j.logs, fmt.Sprintf("Looking for S%02dE%02d", *req.SeasonNumber, ep))
	}
	s.setStatus(j, stubStages[0].status, stubStages[0].message)
	s.sysLog("watching for %s", req.Filename)
	return id, nil
}

// Advance moves every running job one stage forward and retires finished ones.
func (s *Stub) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, j := range s.jobs {
		switch j.job.Status {
		case models.StatusPaused:
			continue
		case models.StatusCompleted, models.StatusError, models.StatusCancelled:
			j.linger++
			limit := completedLinger
			if j.job.Status == models.StatusCancelled {
				limit = cancelledLinger
			}
			if j.linger >= limit {
				delete(s.jobs, id)
				s.sysLog("job %s left the active set", id)
			}
			continue
		}

		if j.stage < len(stubStages)-1 {
			j.stage++
		}
		stage := stubStages[j.stage]
		s.setStatus(j, stage.status, stage.message)

		if stage.status == models.StatusCompleted {
			s.complete(j)
		}
	}
}

func (s *Stub) complete(j *stubJob) {
	req := j.job.Request
	q := models.ExistsQuery{
		Title:         req.Title,
		Year:          req.Year,
		MediaType:     req.MediaType,
		TMDBID:        req.TMDBID,
		SeasonNumber:  req.SeasonNumber,
		EpisodeNumber: req.EpisodeNumber,
	}
	s.link(q, LibraryPath(q, j.source), j.source)

	msg := fmt.Sprintf("Ready: %s is in the library.", j.job.Title)
	if j.job.MediaType == models.MediaTV && j.job.Season != nil {
		msg = fmt.Sprintf("Ready: %s S%d is in the library.", j.job.Title, *j.job.Season)
	}
	s.notifications = append(s.notifications, msg)
}

// Run calls [Stub.Advance] every interval until ctx is done.
func (s *Stub) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Advance()
		}
	}
}

func (s *Stub) snapshot() models.Snapshot {
	out := make(models.Snapshot, len(s.jobs))
	for id, j := range s.jobs {
		out[id] = j.job
	}
	return out
}

func (s *Stub) drainNotifications() []string {
	msgs := s.notifications
	s.notifications = nil
	if msgs == nil {
		msgs = []string{}
	}
	return msgs
}

func (s *Stub) jobLogs(id string, since int) ([]string, int) {
	j, ok := s.jobs[id]
	if !ok {
		return []string{}, 0
	}
	total := len(j.logs)
	if since < 0 {
		since = 0
	}
	if since > total {
		since = total
	}
	return append([]string{}, j.logs[since:]...), total
}

func paginate(items []stubItem, page int) models.ResultPage {
	total := (len(items) + StubPageSize - 1) / StubPageSize
	if total == 0 {
		total = 1
	}
	if page < 1 {
		page = 1
	}
	out := models.ResultPage{Results: []models.MediaItem{}, TotalPages: total}
	start := (page - 1) * StubPageSize
	if start >= len(items) {
		return out
	}
	end := min(start+StubPageSize, len(items))
	for _, it := range items[start:end] {
		out.Results = append(out.Results, it.MediaItem)
	}
	return out
}

func (s *Stub) filter(keep func(stubItem) bool) []stubItem {
	var out []stubItem
	for _, it := range s.catalog {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func (s *Stub) search(q string, page int) models.ResultPage {
	q = strings.ToLower(strings.TrimSpace(q))
	return paginate(s.filter(func(it stubItem) bool {
		return q != "" && strings.Contains(strings.ToLower(it.Title), q)
	}), page)
}

func (s *Stub) discover(mediaType models.MediaType, genreID, page int) models.ResultPage {
	return paginate(s.filter(func(it stubItem) bool {
		if it.MediaType != mediaType {
			return false
		}
		if genreID == 0 {
			return true
		}
		for _, g := range it.GenreIDs {
			if g == genreID {
				return true
			}
		}
		return false
	}), page)
}

func (s *Stub) trending(mediaType models.MediaType, page int) models.ResultPage {
	items := s.filter(func(it stubItem) bool {
		return mediaType == models.MediaAll || mediaType == "" || it.MediaType == mediaType
	})
	sort.SliceStable(items, func(i, k int) bool { return items[i].VoteAverage > items[k].VoteAverage })
	return paginate(items, page)
}

func (s *Stub) streams(mediaType models.MediaType, id string) []models.Stream {
	label := id
	parts := strings.Split(id, ":")
	var tmdb int
	fmt.Sscanf(parts[0], "%d", &tmdb)
	if it, ok := s.item(mediaType, tmdb); ok {
		label = strings.ReplaceAll(it.Title, " ", ".")
		if len(parts) == 3 {
			var se, ep int
			fmt.Sscanf(parts[1], "%d", &se)
			fmt.Sscanf(parts[2], "%d", &ep)
			label = fmt.Sprintf("%s.S%02dE%02d", label, se, ep)
		} else {
			label = fmt.Sprintf("%s.%s", label, it.Year)
		}
	}
	return []models.Stream{
		{Name: "[TB" + models.CacheMarker + "] 2160p", Title: label + " 2160p", URL: "http://stub.invalid/dl/" + label + ".2160p.mkv"},
		{Name: "[TB+] 1080p", Title: label + " 1080p", URL: "http://stub.invalid/dl/" + label + ".1080p.mp4"},
		{Name: "[TB+] 720p", Title: label + " 720p", BehaviorHints: models.BehaviorHints{Filename: label + ".720p.mkv"}},
	}
}

func (s *Stub) manualLink(req models.ManualLinkRequest) error {
	src := path.Clean("/" + strings.TrimPrefix(req.Path, "/"))
	found := false
	for _, e := range s.remote[path.Dir(src)] {
		if !e.IsDir && "/"+e.Path == src {
			found = true
			break
		}
	}
	if !found {
		return errSourceNotFound
	}

	q := models.ExistsQuery{TMDBID: req.TMDBID, MediaType: req.MediaType, Title: req.Title, Year: req.Year, SeasonNumber: req.SeasonNumber}
	linkPath := LibraryPath(q, path.Base(src))
	s.link(q, linkPath, src)
	s.sysLog("manual link %s -> %s", req.Path, linkPath)

	if j, ok := s.jobs[req.JobID]; ok && req.JobID != "" {
		s.setStatus(j, models.StatusCompleted, "Linked manually")
		j.stage = len(stubStages) - 1
	}
	return nil
}
