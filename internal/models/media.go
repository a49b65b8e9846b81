package models

import (
	"fmt"
	"net/url"
	"strings"
)

// MediaType distinguishes movies from series.
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
	MediaAll   MediaType = "all"
)

// Valid reports whether the type is one of the browseable kinds.
func (m MediaType) Valid() bool {
	return m == MediaMovie || m == MediaTV
}

// MediaItem is a discovery or search result.
type MediaItem struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	OriginalTitle string    `json:"original_title,omitempty"`
	Year          string    `json:"year"`
	MediaType     MediaType `json:"media_type"`
	PosterPath    string    `json:"poster_path,omitempty"`
	VoteAverage   float64   `json:"vote_average,omitempty"`
}

// Label renders "Title (Year)".
func (m MediaItem) Label() string {
	if m.Year == "" {
		return m.Title
	}
	return fmt.Sprintf("%s (%s)", m.Title, m.Year)
}

// ResultPage is one page of a paginated feed.
type ResultPage struct {
	Results    []MediaItem `json:"results"`
	TotalPages int         `json:"total_pages"`
}

// Genre is a discovery filter.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Season summarizes one season of a series.
type Season struct {
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	Name         string `json:"name"`
}

// Details is the enriched metadata for a selected item.
type Details struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title,omitempty"`
	Year          string   `json:"year"`
	Overview      string   `json:"overview,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Seasons       []Season `json:"seasons,omitempty"`
}

// Episode is one episode of a season.
type Episode struct {
	ID            int    `json:"id"`
	EpisodeNumber int    `json:"episode_number"`
	Name          string `json:"name"`
	AirDate       string `json:"air_date,omitempty"`
}

// CacheMarker is the glyph the upstream source list puts in the display name
// of sources that are already cached.
const CacheMarker = "⚡"

var videoExtensions = []string{".mkv", ".mp4", ".avi", ".ts", ".webm"}

// BehaviorHints carries optional source hints from the upstream list.
type BehaviorHints struct {
	Filename string `json:"filename,omitempty"`
}

// Stream is a candidate source for a download.
type Stream struct {
	Name          string        `json:"name"`
	Title         string        `json:"title"`
	URL           string        `json:"url,omitempty"`
	BehaviorHints BehaviorHints `json:"behaviorHints"`
}

// Key identifies the stream: its URL, or its title when there is no URL.
func (s Stream) Key() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Title
}

// Cached reports whether the display name carries [CacheMarker].
func (s Stream) Cached() bool {
	return strings.Contains(s.Name, CacheMarker)
}

// FilenameEstimate guesses the filename the backend should watch for.
//
// Preference order: the behavior hint, then the last URL path segment with a
// known video extension, then a placeholder built from fallbackID.
func (s Stream) FilenameEstimate(fallbackID int) string {
	if s.BehaviorHints.Filename != "" {
		return s.BehaviorHints.Filename
	}
	if s.URL != "" {
		parts := strings.Split(s.URL, "/")
		for i := len(parts) - 1; i >= 0; i-- {
			seg, err := url.PathUnescape(parts[i])
			if err != nil {
				seg = parts[i]
			}
			lower := strings.ToLower(seg)
			for _, ext := range videoExtensions {
				if strings.HasSuffix(lower, ext) {
					return seg
				}
			}
		}
	}
	return fmt.Sprintf("Unknown_%d.mkv", fallbackID)
}

// RemoteEntry is one entry of the remote file browser.
type RemoteEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Path  string `json:"path"`
}

// Settings are the live-editable backend settings.
type Settings struct {
	TMDBAPIKey    string `json:"tmdb_api_key"`
	AIOStreamsURL string `json:"aiostreams_url"`
}

// Library lists the title folders present in the media library.
type Library struct {
	Movies []LibraryFolder `json:"movies"`
	Shows  []LibraryFolder `json:"shows"`
}

// LibraryFolder is one title folder; TMDBID is parsed from its {tmdb-N} tag.
type LibraryFolder struct {
	Name   string `json:"name"`
	TMDBID *int   `json:"tmdb_id"`
}

// LibraryNode is one directory or file inside a title folder.
type LibraryNode struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	FullPath  string `json:"full_path"`
	IsSymlink bool   `json:"is_symlink,omitempty"`
	IsValid   bool   `json:"is_valid,omitempty"`
}

// IsDir reports whether the node is a directory.
func (n LibraryNode) IsDir() bool { return n.Type == "directory" }

// SymlinkInfo describes where a library file points.
type SymlinkInfo struct {
	IsSymlink    bool   `json:"is_symlink"`
	SymlinkName  string `json:"symlink_name"`
	OriginalName string `json:"original_name"`
	TargetPath   string `json:"target_path"`
	IsAlive      bool   `json:"is_alive"`
	FullPath     string `json:"symlink_full_path"`
}
