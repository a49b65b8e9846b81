package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
	"github.com/desertthunder/medialink/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	JobsView ViewState = iota
	BrowseView
	EpisodeView
	StreamsView
	ConfirmView
)

const logTail = 12

// Model represents the TUI application state.
type Model struct {
	session *tasks.Session
	ctx     context.Context
	view    ViewState
	width   int
	height  int

	jobs     list.Model
	results  list.Model
	streams  list.Model
	seasons  list.Model
	episodes list.Model
	input    textinput.Model
	typing   bool

	target    tasks.Target
	trending  []models.MediaItem
	confirmID string
	err       error

	help help.Model
	keys keyMap
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	return l
}

// NewModel creates a TUI model over a started session.
func NewModel(session *tasks.Session) *Model {
	input := textinput.New()
	input.Placeholder = "search titles"
	input.Prompt = "/ "

	return &Model{
		session: session,
		ctx:     session.Context(),
		view:    JobsView,
		jobs:     newList("Active Jobs"),
		results:  newList("Trending"),
		streams:  newList("Sources"),
		seasons:  newList("Seasons"),
		episodes: newList("Episodes"),
		input:    input,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts listening for engine events and loads the first discovery page.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.loadPage(1), m.fetchTrending())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		body := max(msg.Height-10, 5)
		m.jobs.SetSize(msg.Width/2-2, body)
		m.results.SetSize(msg.Width-4, body)
		m.streams.SetSize(msg.Width-4, body)
		m.seasons.SetSize(msg.Width/3, body)
		m.episodes.SetSize(msg.Width-msg.Width/3-6, body)
		return m, nil

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) && !(m.typing && msg.String() == "q") {
			return m, tea.Quit
		}
		switch m.view {
		case JobsView:
			return m.handleJobsKeys(msg)
		case BrowseView:
			return m.handleBrowseKeys(msg)
		case EpisodeView:
			return m.handleEpisodeKeys(msg)
		case StreamsView:
			return m.handleStreamsKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgEngineEvent:
		ev := msg.data.(tasks.Event)
		switch ev.Kind {
		case tasks.SnapshotChanged:
			m.refreshJobs()
		case tasks.ResultsChanged:
			m.refreshResults()
		case tasks.FlagsChanged:
			m.refreshResults()
			m.refreshEpisodes()
		}
		return m, m.waitForEvent()

	case MsgEventsClosed:
		return m, tea.Quit

	case MsgStreamsFetched:
		res := msg.data.(streamsResult)
		if res.err != nil {
			m.view = BrowseView
			if res.target.IsEpisode() {
				m.view = EpisodeView
			}
			return m, nil
		}
		items := make([]list.Item, len(res.streams))
		for i, s := range res.streams {
			items[i] = streamItem{
				stream:   s,
				cached:   m.session.Jobs.IsCached(s),
				filename: tasks.FilenameEstimate(s, res.target.Item.ID),
			}
		}
		m.streams.SetItems(items)
		m.streams.Title = "Sources for " + res.target.Label()
		m.target = res.target
		m.view = StreamsView
		return m, nil

	case MsgTrendingFetched:
		res := msg.data.(trendingResult)
		if res.err == nil {
			m.trending = res.items
		}
		return m, nil

	case MsgDetailsFetched:
		res := msg.data.(detailsResult)
		if m.view != EpisodeView || res.target.Item.ID != m.target.Item.ID {
			return m, nil
		}
		if res.err != nil {
			m.session.Notes.Failure(res.err)
			m.view = BrowseView
			return m, nil
		}
		if res.details.OriginalTitle != "" {
			m.target.OriginalTitle = res.details.OriginalTitle
		}
		items := make([]list.Item, 0, len(res.details.Seasons))
		for _, se := range res.details.Seasons {
			items = append(items, seasonItem{season: se})
		}
		m.seasons.SetItems(items)
		return m, nil

	case MsgSeasonFetched:
		res := msg.data.(seasonResult)
		if m.target.Season == nil || *m.target.Season != *res.target.Season || res.target.Item.ID != m.target.Item.ID {
			return m, nil
		}
		if res.err != nil {
			m.session.Notes.Failure(res.err)
			m.target.Season = nil
			return m, nil
		}
		numbers := make([]int, len(res.episodes))
		items := make([]list.Item, len(res.episodes))
		for i, ep := range res.episodes {
			numbers[i] = ep.EpisodeNumber
			items[i] = episodeItem{episode: ep}
		}
		m.episodes.SetItems(items)
		m.refreshEpisodes()
		return m, m.checkSeason(res.target, numbers)

	case MsgLoaded:
		m.refreshResults()
		if err, _ := msg.data.(error); err != nil && !isBenignLoadError(err) {
			m.err = err
		}
		return m, nil

	case MsgCommandDone:
		return m, nil
	}
	return m, nil
}

func isBenignLoadError(err error) bool {
	return errors.Is(err, shared.ErrBusy) ||
		errors.Is(err, shared.ErrNoMorePages) ||
		errors.Is(err, shared.ErrQueryActive) ||
		errors.Is(err, context.Canceled)
}

func (m *Model) refreshJobs() {
	snap := m.session.Status.Snapshot()
	jobs := snap.Sorted()
	items := make([]list.Item, len(jobs))
	for i, j := range jobs {
		items[i] = jobItem{job: j}
	}
	m.jobs.SetItems(items)
}

func (m *Model) refreshResults() {
	state := m.session.Pager.State()
	switch {
	case state.Query != "":
		m.results.Title = fmt.Sprintf("Search: %s", state.Query)
	case state.GenreID != 0:
		m.results.Title = fmt.Sprintf("Discover %s (genre %d)", state.MediaType, state.GenreID)
	default:
		m.results.Title = fmt.Sprintf("Discover %s", state.MediaType)
	}

	results := m.session.Pager.Results()
	items := make([]list.Item, len(results))
	for i, it := range results {
		items[i] = resultItem{item: it, flag: m.session.Links.Flag(models.QueryFor(it, nil, nil))}
	}
	m.results.SetItems(items)
}

func (m *Model) refreshEpisodes() {
	if m.target.Season == nil {
		return
	}
	items := m.episodes.Items()
	for i, it := range items {
		ep, ok := it.(episodeItem)
		if !ok {
			continue
		}
		ep.flag = m.session.Links.Flag(models.QueryFor(m.target.Item, m.target.Season, models.IntPtr(ep.episode.EpisodeNumber)))
		items[i] = ep
	}
	m.episodes.SetItems(items)
}

func (m *Model) selectedJob() (models.Job, bool) {
	if it, ok := m.jobs.SelectedItem().(jobItem); ok {
		return it.job, true
	}
	return models.Job{}, false
}

func (m *Model) handleJobsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.tab):
		m.view = BrowseView
		return m, nil
	case key.Matches(msg, m.keys.pause):
		if job, ok := m.selectedJob(); ok && job.Status.CanPause() {
			return m, m.command(func(ctx context.Context) error { return m.session.Jobs.Pause(ctx, job.ID) })
		}
		return m, nil
	case key.Matches(msg, m.keys.resume):
		if job, ok := m.selectedJob(); ok && job.Status.CanResume() {
			return m, m.command(func(ctx context.Context) error { return m.session.Jobs.Resume(ctx, job.ID) })
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if job, ok := m.selectedJob(); ok {
			m.confirmID = job.ID
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.jobs, cmd = m.jobs.Update(msg)
	return m, cmd
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.typing {
		switch msg.String() {
		case "esc":
			m.typing = false
			m.input.Blur()
			return m, nil
		case "enter":
			m.typing = false
			m.input.Blur()
			return m, m.run(func(ctx context.Context) error { return m.session.Search.Submit(ctx) })
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if text := m.input.Value(); text != before && m.session.Search.Set(text) {
			return m, tea.Batch(cmd, m.run(m.session.Search.Reload))
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.tab):
		m.view = JobsView
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.typing = true
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.kind):
		next := models.MediaTV
		if m.session.Pager.State().MediaType == models.MediaTV {
			next = models.MediaMovie
		}
		return m, m.run(func(ctx context.Context) error { return m.session.Pager.SetMediaType(ctx, next) })
	case key.Matches(msg, m.keys.enter):
		it, ok := m.results.SelectedItem().(resultItem)
		if !ok {
			return m, nil
		}
		m.target = tasks.Target{Item: it.item, OriginalTitle: it.item.OriginalTitle}
		if it.item.MediaType == models.MediaTV {
			m.seasons.SetItems(nil)
			m.episodes.SetItems(nil)
			m.seasons.Title = it.item.Label()
			m.view = EpisodeView
			return m, tea.Batch(m.fetchDetails(m.target), m.checkExists(m.target))
		}
		return m, tea.Batch(m.fetchStreams(m.target), m.checkExists(m.target))
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	if n := len(m.results.Items()); n > 0 && m.results.Index() >= n-1 && m.session.Pager.State().HasMore {
		return m, tea.Batch(cmd, m.run(func(ctx context.Context) error { return m.session.Pager.LoadMore(ctx, false) }))
	}
	return m, cmd
}

// handleEpisodeKeys drives the season list until a season is chosen, then
// that season's episode list.
func (m *Model) handleEpisodeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	picking := m.target.Season == nil
	switch {
	case key.Matches(msg, m.keys.back):
		if picking {
			m.view = BrowseView
			return m, nil
		}
		m.target.Season, m.target.Episode = nil, nil
		m.episodes.SetItems(nil)
		return m, nil

	case key.Matches(msg, m.keys.enter):
		if picking {
			it, ok := m.seasons.SelectedItem().(seasonItem)
			if !ok {
				return m, nil
			}
			m.target.Season = models.IntPtr(it.season.SeasonNumber)
			m.target.Episode = nil
			m.episodes.SetItems(nil)
			m.episodes.Title = it.Title()
			return m, m.fetchSeason(m.target)
		}
		it, ok := m.episodes.SelectedItem().(episodeItem)
		if !ok {
			return m, nil
		}
		target := m.target
		target.Episode = models.IntPtr(it.episode.EpisodeNumber)
		m.target = target
		return m, tea.Batch(m.fetchStreams(target), m.checkExists(target))
	}

	var cmd tea.Cmd
	if picking {
		m.seasons, cmd = m.seasons.Update(msg)
	} else {
		m.episodes, cmd = m.episodes.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleStreamsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = BrowseView
		if m.target.IsEpisode() {
			m.view = EpisodeView
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		it, ok := m.streams.SelectedItem().(streamItem)
		if !ok {
			return m, nil
		}
		target := m.target
		m.view = JobsView
		return m, m.command(func(ctx context.Context) error {
			_, err := m.session.Jobs.StartDownload(ctx, target, it.stream)
			return err
		})
	}

	var cmd tea.Cmd
	m.streams, cmd = m.streams.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		id := m.confirmID
		m.confirmID = ""
		m.view = JobsView
		return m, m.command(func(ctx context.Context) error {
			return m.session.Jobs.Delete(ctx, id, tasks.ConfirmFunc(func(string) bool { return true }))
		})
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.confirmID = ""
		m.view = JobsView
	}
	return m, nil
}

func (m *Model) waitForEvent() tea.Cmd {
	events, done := m.session.Events(), m.ctx.Done()
	return func() tea.Msg {
		select {
		case ev, ok := <-events:
			if !ok {
				return eventsClosedMsg()
			}
			return engineEventMsg(ev)
		case <-done:
			return eventsClosedMsg()
		}
	}
}

func (m *Model) loadPage(page int) tea.Cmd {
	return m.run(func(ctx context.Context) error { return m.session.Pager.Load(ctx, page, false) })
}

func (m *Model) run(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg { return loadedMsg(fn(ctx)) }
}

func (m *Model) command(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg { return commandDoneMsg(fn(ctx)) }
}

func (m *Model) fetchStreams(target tasks.Target) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		streams, err := m.session.Jobs.FetchStreams(ctx, target)
		return streamsFetchedMsg(target, streams, err)
	}
}

// checkExists re-asks the backend whether target is in the library; the answer
// replaces any optimistic flag.
func (m *Model) checkExists(target tasks.Target) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		m.session.Links.Exists(ctx, target.Query())
		return commandDoneMsg(nil)
	}
}

func (m *Model) checkSeason(target tasks.Target, episodes []int) tea.Cmd {
	ctx, season := m.ctx, *target.Season
	return func() tea.Msg {
		m.session.Links.CheckSeason(ctx, target.Item, season, episodes)
		return commandDoneMsg(nil)
	}
}

func (m *Model) fetchDetails(target tasks.Target) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		d, err := m.session.Backend().Details(ctx, target.Item.MediaType, target.Item.ID)
		return detailsFetchedMsg(target, d, err)
	}
}

func (m *Model) fetchSeason(target tasks.Target) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		eps, err := m.session.Backend().Season(ctx, target.Item.ID, *target.Season)
		return seasonFetchedMsg(target, eps, err)
	}
}

func (m *Model) fetchTrending() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		items, err := m.session.Pager.Trending(ctx)
		return trendingFetchedMsg(items, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case JobsView:
		body = m.renderJobs()
	case BrowseView:
		body = m.renderBrowse()
	case EpisodeView:
		body = m.renderEpisode()
	case StreamsView:
		body = m.renderStreams()
	case ConfirmView:
		body = m.renderConfirm()
	}

	parts := []string{m.renderHeader()}
	if banner := m.renderBanner(); banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, body)
	if toasts := m.renderToasts(); toasts != "" {
		parts = append(parts, toasts)
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderHeader() string {
	mount := m.session.Status.Mount()
	mountView := styles.ok.Render("● " + mount)
	if mount == "" {
		mountView = styles.help.Render("○ mount unknown")
	} else if mount == tasks.MountDisconnected {
		mountView = styles.err.Render("● " + mount)
	}
	return fmt.Sprintf("%s  %s", styles.title.Render("medialink"), mountView)
}

func (m *Model) renderBanner() string {
	b, ok := m.session.Notes.CurrentBanner()
	if !ok {
		if m.err != nil {
			return styles.err.Render(shared.DisplayError(m.err))
		}
		return ""
	}
	if b.Kind == models.BannerError {
		return styles.err.Render("✗ " + b.Text)
	}
	return styles.ok.Render("✓ " + b.Text)
}

func (m *Model) renderToasts() string {
	toasts := m.session.Notes.Toasts()
	if len(toasts) == 0 {
		return ""
	}
	lines := make([]string, len(toasts))
	for i, t := range toasts {
		lines[i] = styles.warn.Render("» " + t.Text)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderJobs() string {
	logs := m.renderTrending()
	if job, ok := m.selectedJob(); ok {
		lines := m.session.JobLogs.Logs(job.ID)
		if len(lines) > logTail {
			lines = lines[len(lines)-logTail:]
		}
		logs = styles.title.Render(job.Label()) + " " + styles.status(job.Status).Render(string(job.Status)) + "\n" + strings.Join(lines, "\n")
	}

	pane := styles.pane.Width(max(m.width/2-4, 20)).Render(logs)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.pause, m.keys.resume, m.keys.remove, m.keys.tab, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", lipgloss.JoinHorizontal(lipgloss.Top, m.jobs.View(), pane), helpView)
}

func (m *Model) renderBrowse() string {
	state := m.session.Pager.State()
	status := fmt.Sprintf("page %d/%d", state.Page, max(state.TotalPages, 1))
	if state.Loading {
		status += " • loading"
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.search, m.keys.kind, m.keys.enter, m.keys.tab, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", m.input.View(), m.results.View(), styles.help.Render(status), helpView)
}

func (m *Model) renderEpisode() string {
	body := m.seasons.View()
	if m.target.Season != nil {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.seasons.View(), m.episodes.View())
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.back})
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}

// renderTrending fills the log pane while no job is selected.
func (m *Model) renderTrending() string {
	if len(m.trending) == 0 {
		return styles.help.Render("select a job to follow its log")
	}
	lines := []string{styles.title.Render("Trending this week")}
	for i, it := range m.trending {
		if i == logTail {
			break
		}
		lines = append(lines, fmt.Sprintf("%2d. %s %s", i+1, it.Label(), styles.help.Render(string(it.MediaType))))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderStreams() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.streams.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Cancel and remove job %s?", m.confirmID))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s", title, helpView)
}
