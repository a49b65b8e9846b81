package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/medialink/internal/models"
)

const (
	colorTitle  = "#7D56F4"
	colorOK     = "#04B575"
	colorError  = "#FF0000"
	colorWarn   = "#FFA500"
	colorMuted  = "#626262"
	colorActive = "#5FAFD7"
	colorPaused = "#E5C07B"
)

var styles = NewPalette(colorTitle, colorOK, colorError, colorWarn, colorMuted)

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	pane   lipgloss.Style
	active lipgloss.Style
	paused lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		pane:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(h)).Padding(0, 1),
		active: NewStyle(colorActive),
		paused: NewBold(colorPaused),
	}
}

// status picks the colour a job status is shown in.
func (p *Palette) status(s models.JobStatus) lipgloss.Style {
	switch s {
	case models.StatusPaused:
		return p.paused
	case models.StatusError:
		return p.err
	case models.StatusCompleted:
		return p.ok
	case models.StatusCancelled:
		return p.help
	default:
		return p.active
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
