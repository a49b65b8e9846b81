package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
)

const (
	defaultBackendURL = "http://127.0.0.1:8000/api"
	defaultTimeout    = 15 * time.Second
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error: status %d", e.Status)
}

// UserDetail returns the backend-provided reason, if any.
func (e *APIError) UserDetail() string { return e.Detail }

// Unwrap classifies server-side failures as [shared.ErrServiceUnavailable].
func (e *APIError) Unwrap() error {
	if e.Status >= 500 {
		return shared.ErrServiceUnavailable
	}
	return nil
}

// BackendService implements [Backend] over HTTP.
type BackendService struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendService creates a client for the backend at baseURL.
//
// A nil client gets a dedicated [http.Client] with the default timeout.
func NewBackendService(baseURL string, client *http.Client) *BackendService {
	if baseURL == "" {
		baseURL = defaultBackendURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &BackendService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// NewBackendFromConfig builds a client with the configured URL and timeout.
func NewBackendFromConfig(cfg shared.BackendConfig) *BackendService {
	return NewBackendService(cfg.URL, &http.Client{Timeout: cfg.Timeout.Duration})
}

// BaseURL returns the API root the client talks to.
func (b *BackendService) BaseURL() string { return b.baseURL }

func (b *BackendService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: failed to encode request: %v", shared.ErrAPIRequest, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", shared.ErrAPIRequest, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errResp struct {
			Detail any `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Detail = detailString(errResp.Detail)
		}
		return apiErr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}
	return nil
}

// detailString flattens FastAPI's detail, which is a string for raised errors
// and a list of objects for validation failures.
func detailString(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case nil:
		return ""
	case []any:
		msgs := make([]string, 0, len(d))
		for _, item := range d {
			if m, ok := item.(map[string]any); ok {
				if msg, ok := m["msg"].(string); ok {
					msgs = append(msgs, msg)
				}
			}
		}
		return strings.Join(msgs, "; ")
	default:
		return fmt.Sprint(d)
	}
}

// Configured calls GET /status.
func (b *BackendService) Configured(ctx context.Context) (bool, error) {
	var out struct {
		Configured bool `json:"configured"`
	}
	if err := b.doRequest(ctx, http.MethodGet, "/status", nil, &out); err != nil {
		return false, err
	}
	return out.Configured, nil
}

// SystemLogs calls GET /logs.
func (b *BackendService) SystemLogs(ctx context.Context) ([]string, error) {
	var out struct {
		Logs []string `json:"logs"`
	}
	if err := b.doRequest(ctx, http.MethodGet, "/logs", nil, &out); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

// MountStatus calls GET /rclone/status.
func (b *BackendService) MountStatus(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := b.doRequest(ctx, http.MethodGet, "/rclone/status", nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// Notifications calls GET /notifications.
func (b *BackendService) Notifications(ctx context.Context) ([]string, error) {
	var out struct {
		Messages []string `json:"messages"`
	}
	if err := b.doRequest(ctx, http.MethodGet, "/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// ActiveJobs calls GET /downloads/active.
func (b *BackendService) ActiveJobs(ctx context.Context) (models.Snapshot, error) {
	var out models.Snapshot
	if err := b.doRequest(ctx, http.MethodGet, "/downloads/active", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = models.Snapshot{}
	}
	return out, nil
}

// JobLogs calls GET /jobs/{id}/logs?since=n.
func (b *BackendService) JobLogs(ctx context.Context, jobID string, since int) (*JobLogPage, error) {
	q := url.Values{"since": {strconv.Itoa(since)}}
	var out JobLogPage
	endpoint := fmt.Sprintf("/jobs/%s/logs?%s", url.PathEscape(jobID), q.Encode())
	if err := b.doRequest(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search calls GET /search.
func (b *BackendService) Search(ctx context.Context, query string, page int) (*models.ResultPage, error) {
	q := url.Values{"q": {query}, "page": {strconv.Itoa(page)}}
	return b.resultPage(ctx, "/search?"+q.Encode())
}

// Discover calls GET /tmdb/discover; a zero genreID means no genre filter.
func (b *BackendService) Discover(ctx context.Context, mediaType models.MediaType, genreID, page int) (*models.ResultPage, error) {
	q := url.Values{"media_type": {string(mediaType)}, "page": {strconv.Itoa(page)}}
	if genreID != 0 {
		q.Set("genre_id", strconv.Itoa(genreID))
	}
	return b.resultPage(ctx, "/tmdb/discover?"+q.Encode())
}

// Trending calls GET /tmdb/trending; window is "day" or "week".
func (b *BackendService) Trending(ctx context.Context, mediaType models.MediaType, window string, page int) (*models.ResultPage, error) {
	q := url.Values{"media_type": {string(mediaType)}, "time_window": {window}, "page": {strconv.Itoa(page)}}
	return b.resultPage(ctx, "/tmdb/trending?"+q.Encode())
}

func (b *BackendService) resultPage(ctx context.Context, endpoint string) (*models.ResultPage, error) {
	var out models.ResultPage
	if err := b.doRequest(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	if out.TotalPages == 0 {
		out.TotalPages = 1
	}
	return &out, nil
}

// Genres calls GET /tmdb/genres.
func (b *BackendService) Genres(ctx context.Context, mediaType models.MediaType) ([]models.Genre, error) {
	var out struct {
		Genres []models.Genre `json:"genres"`
	}
	q := url.Values{"media_type": {string(mediaType)}}
	if err := b.doRequest(ctx, http.MethodGet, "/tmdb/genres?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Genres, nil
}

// Details calls GET /details/{type}/{id}.
func (b *BackendService) Details(ctx context.Context, mediaType models.MediaType, tmdbID int) (*models.Details, error) {
	var out models.Details
	if err := b.doRequest(ctx, http.MethodGet, fmt.Sprintf("/details/%s/%d", mediaType, tmdbID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Season calls GET /season/{id}/{n}.
func (b *BackendService) Season(ctx context.Context, tmdbID, season int) ([]models.Episode, error) {
	var out struct {
		Episodes []models.Episode `json:"episodes"`
	}
	if err := b.doRequest(ctx, http.MethodGet, fmt.Sprintf("/season/%d/%d", tmdbID, season), nil, &out); err != nil {
		return nil, err
	}
	return out.Episodes, nil
}

// StreamID builds the path id for a stream lookup: the bare id for movies,
// id:season:episode for episodes.
func StreamID(tmdbID int, season, episode *int) string {
	if season == nil || episode == nil {
		return strconv.Itoa(tmdbID)
	}
	return fmt.Sprintf("%d:%d:%d", tmdbID, *season, *episode)
}

// Streams calls GET /streams/{type}/{id}.
func (b *BackendService) Streams(ctx context.Context, mediaType models.MediaType, tmdbID int, season, episode *int) ([]models.Stream, error) {
	var out struct {
		Streams []models.Stream `json:"streams"`
	}
	endpoint := fmt.Sprintf("/streams/%s/%s", mediaType, url.PathEscape(StreamID(tmdbID, season, episode)))
	if err := b.doRequest(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Streams, nil
}

// Download calls POST /download and returns the job id the backend assigned.
func (b *BackendService) Download(ctx context.Context, req models.DownloadRequest) (string, error) {
	var out struct {
		JobID string `json:"job_id"`
	}
	if err := b.doRequest(ctx, http.MethodPost, "/download", req, &out); err != nil {
		return "", err
	}
	if out.JobID == "" {
		out.JobID = req.JobID()
	}
	return out.JobID, nil
}

// PauseJob calls POST /downloads/{id}/pause.
func (b *BackendService) PauseJob(ctx context.Context, jobID string) error {
	return b.doRequest(ctx, http.MethodPost, "/downloads/"+url.PathEscape(jobID)+"/pause", nil, nil)
}

// ResumeJob calls POST /downloads/{id}/resume.
func (b *BackendService) ResumeJob(ctx context.Context, jobID string) error {
	return b.doRequest(ctx, http.MethodPost, "/downloads/"+url.PathEscape(jobID)+"/resume", nil, nil)
}

// DeleteJob calls DELETE /downloads/{id}.
func (b *BackendService) DeleteJob(ctx context.Context, jobID string) error {
	return b.doRequest(ctx, http.MethodDelete, "/downloads/"+url.PathEscape(jobID), nil, nil)
}

// ManualLink calls POST /library/manual-link.
func (b *BackendService) ManualLink(ctx context.Context, req models.ManualLinkRequest) error {
	return b.doRequest(ctx, http.MethodPost, "/library/manual-link", req, nil)
}

// SymlinkExists calls POST /symlink/exists.
func (b *BackendService) SymlinkExists(ctx context.Context, q models.ExistsQuery) (bool, error) {
	var out struct {
		Exists bool `json:"exists"`
	}
	if err := b.doRequest(ctx, http.MethodPost, "/symlink/exists", q, &out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

// TestSymlink calls POST /library/test_symlink.
func (b *BackendService) TestSymlink(ctx context.Context, path string) (bool, error) {
	var out struct {
		Alive bool `json:"alive"`
	}
	body := map[string]string{"filepath": path}
	if err := b.doRequest(ctx, http.MethodPost, "/library/test_symlink", body, &out); err != nil {
		return false, err
	}
	return out.Alive, nil
}

// ListRemote calls GET /torbox/list.
func (b *BackendService) ListRemote(ctx context.Context, path string) ([]models.RemoteEntry, error) {
	if path == "" {
		path = "/"
	}
	var out struct {
		Items []models.RemoteEntry `json:"items"`
		Error string               `json:"error,omitempty"`
	}
	q := url.Values{"path": {path}}
	if err := b.doRequest(ctx, http.MethodGet, "/torbox/list?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, &APIError{Status: http.StatusNotFound, Detail: out.Error}
	}
	return out.Items, nil
}

// Library calls GET /library.
func (b *BackendService) Library(ctx context.Context) (*models.Library, error) {
	var out models.Library
	if err := b.doRequest(ctx, http.MethodGet, "/library", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LibraryStructure calls GET /library/structure.
func (b *BackendService) LibraryStructure(ctx context.Context, mediaType models.MediaType, folder string) ([]models.LibraryNode, error) {
	var out struct {
		Structure []models.LibraryNode `json:"structure"`
	}
	q := url.Values{"media_type": {string(mediaType)}, "folder_name": {folder}}
	if err := b.doRequest(ctx, http.MethodGet, "/library/structure?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Structure, nil
}

// SymlinkInfo calls POST /library/symlink_info.
func (b *BackendService) SymlinkInfo(ctx context.Context, path string) (*models.SymlinkInfo, error) {
	var out models.SymlinkInfo
	if err := b.doRequest(ctx, http.MethodPost, "/library/symlink_info", map[string]string{"filepath": path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSymlink calls DELETE /library/symlink. The backend prunes parent
// folders the removal leaves empty.
func (b *BackendService) DeleteSymlink(ctx context.Context, path string) error {
	return b.doRequest(ctx, http.MethodDelete, "/library/symlink", map[string]string{"filepath": path}, nil)
}

// DeleteSeason calls POST /library/delete-season.
func (b *BackendService) DeleteSeason(ctx context.Context, folder string, season int) error {
	body := map[string]any{"media_type": models.MediaTV, "folder_name": folder, "season_number": season}
	return b.doRequest(ctx, http.MethodPost, "/library/delete-season", body, nil)
}

// DeleteSeries calls POST /library/delete-entire-series.
func (b *BackendService) DeleteSeries(ctx context.Context, folder string) error {
	body := map[string]any{"media_type": models.MediaTV, "folder_name": folder}
	return b.doRequest(ctx, http.MethodPost, "/library/delete-entire-series", body, nil)
}

// DeleteMovie calls POST /library/delete-entire-movie.
func (b *BackendService) DeleteMovie(ctx context.Context, folder string) error {
	return b.doRequest(ctx, http.MethodPost, "/library/delete-entire-movie", map[string]string{"folder_name": folder}, nil)
}

// Settings calls GET /settings.
func (b *BackendService) Settings(ctx context.Context) (*models.Settings, error) {
	var out models.Settings
	if err := b.doRequest(ctx, http.MethodGet, "/settings", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveSettings calls POST /settings.
func (b *BackendService) SaveSettings(ctx context.Context, s models.Settings) error {
	return b.doRequest(ctx, http.MethodPost, "/settings", s, nil)
}
