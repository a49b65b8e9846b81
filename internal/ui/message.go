package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgEngineEvent MsgKind = iota
	MsgEventsClosed
	MsgStreamsFetched
	MsgCommandDone
	MsgLoaded
	MsgDetailsFetched
	MsgSeasonFetched
	MsgTrendingFetched
)

// engineEventMsg is the constructor for [MsgEngineEvent]
func engineEventMsg(ev tasks.Event) Msg {
	return Msg{kind: MsgEngineEvent, data: ev}
}

// eventsClosedMsg is the constructor for [MsgEventsClosed]
func eventsClosedMsg() Msg {
	return Msg{kind: MsgEventsClosed}
}

type streamsResult struct {
	target  tasks.Target
	streams []models.Stream
	err     error
}

// streamsFetchedMsg is the constructor for [MsgStreamsFetched]
func streamsFetchedMsg(target tasks.Target, streams []models.Stream, err error) Msg {
	return Msg{kind: MsgStreamsFetched, data: streamsResult{target, streams, err}}
}

// commandDoneMsg is the constructor for [MsgCommandDone]; failures already reached the banner.
func commandDoneMsg(err error) Msg {
	return Msg{kind: MsgCommandDone, data: err}
}

// loadedMsg is the constructor for [MsgLoaded]
func loadedMsg(err error) Msg {
	return Msg{kind: MsgLoaded, data: err}
}

type detailsResult struct {
	target  tasks.Target
	details *models.Details
	err     error
}

// detailsFetchedMsg is the constructor for [MsgDetailsFetched]
func detailsFetchedMsg(target tasks.Target, d *models.Details, err error) Msg {
	return Msg{kind: MsgDetailsFetched, data: detailsResult{target, d, err}}
}

type seasonResult struct {
	target   tasks.Target
	episodes []models.Episode
	err      error
}

// seasonFetchedMsg is the constructor for [MsgSeasonFetched]
func seasonFetchedMsg(target tasks.Target, episodes []models.Episode, err error) Msg {
	return Msg{kind: MsgSeasonFetched, data: seasonResult{target, episodes, err}}
}

type trendingResult struct {
	items []models.MediaItem
	err   error
}

// trendingFetchedMsg is the constructor for [MsgTrendingFetched]
func trendingFetchedMsg(items []models.MediaItem, err error) Msg {
	return Msg{kind: MsgTrendingFetched, data: trendingResult{items, err}}
}
