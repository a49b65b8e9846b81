package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/medialink/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func ok(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "invalid request body: " + err.Error()}},
		})
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return def
}

// Handler builds the stub's HTTP API under /api on a [BasicRouter] with mw applied.
func (s *Stub) Handler(mw ...Middleware) http.Handler {
	r := NewBasicRouter()
	r.Use(mw...)
	s.Register(r, "/api")
	return r
}

// Register mounts every stub endpoint under prefix.
func (s *Stub) Register(r *BasicRouter, prefix string) {
	p := func(route string) string { return prefix + route }

	r.HandleFunc(http.MethodGet, p("/status"), s.handleStatus)
	r.HandleFunc(http.MethodGet, p("/logs"), s.handleSystemLogs)
	r.HandleFunc(http.MethodGet, p("/rclone/status"), s.handleMount)
	r.HandleFunc(http.MethodGet, p("/notifications"), s.handleNotifications)
	r.HandleFunc(http.MethodGet, p("/downloads/active"), s.handleActive)
	r.HandleFunc(http.MethodGet, p("/jobs/{id}/logs"), s.handleJobLogs)

	r.HandleFunc(http.MethodGet, p("/search"), s.handleSearch)
	r.HandleFunc(http.MethodGet, p("/tmdb/discover"), s.handleDiscover)
	r.HandleFunc(http.MethodGet, p("/tmdb/trending"), s.handleTrending)
	r.HandleFunc(http.MethodGet, p("/tmdb/genres"), s.handleGenres)
	r.HandleFunc(http.MethodGet, p("/details/{type}/{id}"), s.handleDetails)
	r.HandleFunc(http.MethodGet, p("/season/{id}/{season}"), s.handleSeason)
	r.HandleFunc(http.MethodGet, p("/streams/{type}/{id}"), s.handleStreams)

	r.HandleFunc(http.MethodPost, p("/download"), s.handleDownload)
	r.HandleFunc(http.MethodPost, p("/downloads/{id}/pause"), s.handlePause)
	r.HandleFunc(http.MethodPost, p("/downloads/{id}/resume"), s.handleResume)
	r.HandleFunc(http.MethodDelete, p("/downloads/{id}"), s.handleDelete)

	r.HandleFunc(http.MethodPost, p("/library/manual-link"), s.handleManualLink)
	r.HandleFunc(http.MethodPost, p("/symlink/exists"), s.handleExists)
	r.HandleFunc(http.MethodPost, p("/library/test_symlink"), s.handleTestSymlink)
	r.HandleFunc(http.MethodGet, p("/torbox/list"), s.handleList)

	r.HandleFunc(http.MethodGet, p("/library"), s.handleLibrary)
	r.HandleFunc(http.MethodGet, p("/library/structure"), s.handleLibraryStructure)
	r.HandleFunc(http.MethodPost, p("/library/symlink_info"), s.handleSymlinkInfo)
	r.HandleFunc(http.MethodDelete, p("/library/symlink"), s.handleDeleteSymlink)
	r.HandleFunc(http.MethodPost, p("/library/delete-season"), s.handleDeleteSeason)
	r.HandleFunc(http.MethodPost, p("/library/delete-entire-series"), s.handleDeleteSeries)
	r.HandleFunc(http.MethodPost, p("/library/delete-entire-movie"), s.handleDeleteMovie)

	r.HandleFunc(http.MethodGet, p("/settings"), s.handleGetSettings)
	r.HandleFunc(http.MethodPost, p("/settings"), s.handleSaveSettings)
}

func (s *Stub) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	configured := s.configured
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"configured": configured})
}

func (s *Stub) handleSystemLogs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	logs := append([]string{}, s.systemLogs...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string][]string{"logs": logs})
}

func (s *Stub) handleMount(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	mount := s.mount
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": mount})
}

func (s *Stub) handleNotifications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	msgs := s.drainNotifications()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string][]string{"messages": msgs})
}

func (s *Stub) handleActive(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

func (s *Stub) handleJobLogs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	logs, total := s.jobLogs(chi.URLParam(r, "id"), queryInt(r, "since", 0))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs, "total": total})
}

func (s *Stub) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "Field required: q"}},
		})
		return
	}
	s.mu.Lock()
	page := s.search(q, queryInt(r, "page", 1))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, page)
}

func (s *Stub) handleDiscover(w http.ResponseWriter, r *http.Request) {
	mediaType := models.MediaType(r.URL.Query().Get("media_type"))
	if mediaType == "" {
		mediaType = models.MediaMovie
	}
	s.mu.Lock()
	page := s.discover(mediaType, queryInt(r, "genre_id", 0), queryInt(r, "page", 1))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, page)
}

func (s *Stub) handleTrending(w http.ResponseWriter, r *http.Request) {
	mediaType := models.MediaType(r.URL.Query().Get("media_type"))
	s.mu.Lock()
	page := s.trending(mediaType, queryInt(r, "page", 1))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, page)
}

func (s *Stub) handleGenres(w http.ResponseWriter, r *http.Request) {
	mediaType := models.MediaType(r.URL.Query().Get("media_type"))
	if mediaType == "" {
		mediaType = models.MediaMovie
	}
	s.mu.Lock()
	genres := append([]models.Genre{}, s.genres[mediaType]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string][]models.Genre{"genres": genres})
}

func (s *Stub) handleDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	s.mu.Lock()
	it, found := s.item(models.MediaType(chi.URLParam(r, "type")), id)
	genres := s.genres[it.MediaType]
	s.mu.Unlock()
	if !found {
		writeDetail(w, http.StatusNotFound, "Title not found")
		return
	}

	d := models.Details{ID: it.ID, Title: it.Title, Year: it.Year, Overview: it.Overview, Seasons: it.Seasons}
	for _, gid := range it.GenreIDs {
		for _, g := range genres {
			if g.ID == gid {
				d.Genres = append(d.Genres, g.Name)
			}
		}
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Stub) handleSeason(w http.ResponseWriter, r *http.Request) {
	id, err1 := strconv.Atoi(chi.URLParam(r, "id"))
	season, err2 := strconv.Atoi(chi.URLParam(r, "season"))
	if err1 != nil || err2 != nil {
		writeDetail(w, http.StatusBadRequest, "invalid id")
		return
	}
	s.mu.Lock()
	it, found := s.item(models.MediaTV, id)
	s.mu.Unlock()

	var count int
	for _, se := range it.Seasons {
		if se.SeasonNumber == season {
			count = se.EpisodeCount
		}
	}
	if !found || count == 0 {
		writeDetail(w, http.StatusNotFound, "Season not found")
		return
	}

	episodes := make([]models.Episode, 0, count)
	for n := 1; n <= count; n++ {
		episodes = append(episodes, models.Episode{ID: id*1000 + season*100 + n, EpisodeNumber: n, Name: "Episode " + strconv.Itoa(n)})
	}
	writeJSON(w, http.StatusOK, map[string][]models.Episode{"episodes": episodes})
}

func (s *Stub) handleStreams(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	streams := s.streams(models.MediaType(chi.URLParam(r, "type")), chi.URLParam(r, "id"))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string][]models.Stream{"streams": streams})
}

func (s *Stub) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req models.DownloadRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := s.Download(req)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": err.Error()}},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Watching for " + req.Filename,
		"job_id":  id,
	})
}

func (s *Stub) jobCommand(w http.ResponseWriter, r *http.Request, apply func(j *stubJob)) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	j, found := s.jobs[id]
	if found {
		apply(j)
	}
	s.mu.Unlock()
	if !found {
		writeDetail(w, http.StatusNotFound, "Job not found")
		return
	}
	ok(w)
}

func (s *Stub) handlePause(w http.ResponseWriter, r *http.Request) {
	s.jobCommand(w, r, func(j *stubJob) { s.setStatus(j, models.StatusPaused, "Paused") })
}

func (s *Stub) handleResume(w http.ResponseWriter, r *http.Request) {
	s.jobCommand(w, r, func(j *stubJob) {
		s.setStatus(j, models.StatusSearching, stubStages[0].message)
		j.stage = 0
	})
}

func (s *Stub) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.jobCommand(w, r, func(j *stubJob) { s.setStatus(j, models.StatusCancelled, "Cancelled") })
}

func (s *Stub) handleManualLink(w http.ResponseWriter, r *http.Request) {
	var req models.ManualLinkRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.manualLink(req)
	s.mu.Unlock()
	if errors.Is(err, errSourceNotFound) {
		writeDetail(w, http.StatusNotFound, "Source file not found")
		return
	}
	ok(w)
}

func (s *Stub) handleExists(w http.ResponseWriter, r *http.Request) {
	var q models.ExistsQuery
	if !decode(w, r, &q) {
		return
	}
	s.mu.Lock()
	_, exists := s.library[q.Key()]
	if !exists && q.SeasonNumber == nil && q.EpisodeNumber == nil {
		prefix := strconv.Itoa(q.TMDBID) + "_"
		for key := range s.library {
			if strings.HasPrefix(key, prefix) {
				exists = true
				break
			}
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (s *Stub) handleTestSymlink(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Filepath string `json:"filepath"`
	}
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	alive, known := s.links[body.Filepath]
	s.mu.Unlock()
	if !known {
		writeDetail(w, http.StatusNotFound, "Local file was removed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"alive": alive})
}

func (s *Stub) handleList(w http.ResponseWriter, r *http.Request) {
	dir := path.Clean("/" + strings.TrimPrefix(r.URL.Query().Get("path"), "/"))
	s.mu.Lock()
	entries, found := s.remote[dir]
	entries = append([]models.RemoteEntry{}, entries...)
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusOK, map[string]any{"items": []models.RemoteEntry{}, "error": "Path not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

func (s *Stub) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	settings := s.settings
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, settings)
}

func (s *Stub) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if !decode(w, r, &settings) {
		return
	}
	if strings.TrimSpace(settings.TMDBAPIKey) == "" {
		writeDetail(w, http.StatusBadRequest, "TMDB API key is required")
		return
	}
	s.mu.Lock()
	s.settings = settings
	s.sysLog("settings updated")
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Settings stored live"})
}
