package models

// DownloadRequest asks the backend to watch for a file and link it once it appears.
type DownloadRequest struct {
	Title         string    `json:"title"`
	OriginalTitle string    `json:"original_title,omitempty"`
	Year          string    `json:"year"`
	MediaType     MediaType `json:"media_type"`
	TMDBID        int       `json:"tmdb_id"`
	Filename      string    `json:"filename"`
	SeasonNumber  *int      `json:"season_number,omitempty"`
	EpisodeNumber *int      `json:"episode_number,omitempty"`
}

// JobID is the id the backend assigns to the job this request creates.
func (r DownloadRequest) JobID() string {
	return JobID(r.TMDBID, deref(r.SeasonNumber), deref(r.EpisodeNumber))
}

// ManualLinkRequest links an existing remote file into the library.
type ManualLinkRequest struct {
	Path         string    `json:"path"`
	TMDBID       int       `json:"tmdb_id"`
	MediaType    MediaType `json:"media_type"`
	Title        string    `json:"title"`
	Year         string    `json:"year"`
	SeasonNumber *int      `json:"season_number,omitempty"`
	JobID        string    `json:"job_id,omitempty"`
}

// ExistsQuery identifies a title, season, or episode in the library.
type ExistsQuery struct {
	Title         string    `json:"title"`
	Year          string    `json:"year"`
	MediaType     MediaType `json:"media_type"`
	TMDBID        int       `json:"tmdb_id"`
	SeasonNumber  *int      `json:"season_number,omitempty"`
	EpisodeNumber *int      `json:"episode_number,omitempty"`
}

// Key identifies the query for optimistic flag bookkeeping.
func (q ExistsQuery) Key() string {
	if q.SeasonNumber == nil && q.EpisodeNumber == nil {
		return JobID(q.TMDBID, 0, 0)
	}
	return JobID(q.TMDBID, deref(q.SeasonNumber), deref(q.EpisodeNumber))
}

// QueryFor builds the existence query for an item, optionally narrowed to an episode.
func QueryFor(item MediaItem, season, episode *int) ExistsQuery {
	return ExistsQuery{
		Title:         item.Title,
		Year:          item.Year,
		MediaType:     item.MediaType,
		TMDBID:        item.ID,
		SeasonNumber:  season,
		EpisodeNumber: episode,
	}
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
