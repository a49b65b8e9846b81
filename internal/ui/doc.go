// Package ui implements the interactive operating view using bubbletea's Elm architecture.
//
// The TUI is a thin renderer over a started [tasks.Session]:
//  1. [JobsView] : active jobs with live status, the selected job's log, toasts and the banner
//  2. [BrowseView] : discovery feed or search results with infinite scroll
//  3. [EpisodeView] : season/episode entry for a series
//  4. [StreamsView] : candidate sources with cache flags; enter starts a download
//  5. [ConfirmView] : cancel confirmation for the selected job
//
// Engine state changes arrive as [tasks.Event] values on the session's event channel; every event
// triggers a re-read of the component state it names. The model never edits engine state itself.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
