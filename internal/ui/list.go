package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/medialink/internal/models"
)

var (
	_ list.Item = jobItem{}
	_ list.Item = resultItem{}
	_ list.Item = streamItem{}
	_ list.Item = seasonItem{}
	_ list.Item = episodeItem{}
)

// flagged prefixes a label with the library state of what it names.
func flagged(flag models.SyncState, label string) string {
	switch flag {
	case models.SyncSynced:
		return "✓ " + label
	case models.SyncPending:
		return "… " + label
	default:
		return label
	}
}

// jobItem wraps [models.Job] to implement [list.Item].
type jobItem struct {
	job models.Job
}

func (i jobItem) FilterValue() string { return i.job.Title }
func (i jobItem) Title() string       { return i.job.Label() }
func (i jobItem) Description() string {
	desc := styles.status(i.job.Status).Render(string(i.job.Status))
	if i.job.Message != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.job.Message)
	}
	return desc
}

// resultItem wraps [models.MediaItem] to implement [list.Item].
type resultItem struct {
	item models.MediaItem
	flag models.SyncState
}

func (i resultItem) FilterValue() string { return i.item.Title }
func (i resultItem) Title() string       { return flagged(i.flag, i.item.Label()) }
func (i resultItem) Description() string {
	desc := string(i.item.MediaType)
	if i.item.VoteAverage > 0 {
		desc = fmt.Sprintf("%s • %.1f", desc, i.item.VoteAverage)
	}
	return desc
}

// streamItem wraps [models.Stream] to implement [list.Item].
type streamItem struct {
	stream   models.Stream
	cached   bool
	filename string
}

func (i streamItem) FilterValue() string { return i.stream.Name }
func (i streamItem) Title() string {
	if i.cached {
		return models.CacheMarker + " " + i.stream.Name
	}
	return i.stream.Name
}
func (i streamItem) Description() string { return i.filename }

// seasonItem wraps [models.Season] to implement [list.Item].
type seasonItem struct {
	season models.Season
}

func (i seasonItem) FilterValue() string { return i.season.Name }
func (i seasonItem) Title() string {
	if i.season.Name != "" {
		return i.season.Name
	}
	return fmt.Sprintf("Season %d", i.season.SeasonNumber)
}
func (i seasonItem) Description() string { return fmt.Sprintf("%d episodes", i.season.EpisodeCount) }

// episodeItem wraps [models.Episode] with its library flag.
type episodeItem struct {
	episode models.Episode
	flag    models.SyncState
}

func (i episodeItem) FilterValue() string { return i.episode.Name }
func (i episodeItem) Title() string {
	return flagged(i.flag, fmt.Sprintf("E%02d %s", i.episode.EpisodeNumber, i.episode.Name))
}
func (i episodeItem) Description() string { return i.episode.AirDate }
