package tasks

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
)

// TrendingWindow is the time window of the landing-page trending list and the
// unfiltered discovery feed.
const TrendingWindow = "week"

// Feed is the slice of the backend that serves paginated result lists.
type Feed interface {
	Search(ctx context.Context, query string, page int) (*models.ResultPage, error)
	Discover(ctx context.Context, mediaType models.MediaType, genreID, page int) (*models.ResultPage, error)
	Trending(ctx context.Context, mediaType models.MediaType, window string, page int) (*models.ResultPage, error)
	Genres(ctx context.Context, mediaType models.MediaType) ([]models.Genre, error)
}

// DiscoveryPager owns the result list and its pagination cursor.
//
// The source is chosen per load: search when a query is set, filtered discovery
// when a genre is set, trending otherwise. A query always wins.
type DiscoveryPager struct {
	feed   Feed
	logger *log.Logger
	events *Emitter

	mu         sync.Mutex
	query      string
	mediaType  models.MediaType
	genreID    int
	page       int
	totalPages int
	hasMore    bool
	loading    bool
	generation uint64
	results    []models.MediaItem
}

// NewDiscoveryPager creates a pager browsing movies with no genre filter.
func NewDiscoveryPager(feed Feed, logger *log.Logger, events *Emitter) *DiscoveryPager {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &DiscoveryPager{
		feed:      feed,
		logger:    logger,
		events:    events,
		mediaType: models.MediaMovie,
	}
}

// Load fetches one page. Page 1 replaces the results; later pages append.
//
// Errors:
//   - [shared.ErrQueryActive] : a discovery load was requested while a query is set
//   - [shared.ErrBusy] : another load of the same generation is in flight
//   - [shared.ErrNoMorePages] : page is past the last reported total
func (p *DiscoveryPager) Load(ctx context.Context, page int, searchContext bool) error {
	if page < 1 {
		page = 1
	}

	p.mu.Lock()
	if p.query != "" && !searchContext {
		p.mu.Unlock()
		return shared.ErrQueryActive
	}
	if p.loading {
		p.mu.Unlock()
		return shared.ErrBusy
	}
	if page > 1 && page > p.totalPages {
		p.mu.Unlock()
		return shared.ErrNoMorePages
	}
	p.loading = true
	gen := p.generation
	query, mediaType, genreID := p.query, p.mediaType, p.genreID
	p.mu.Unlock()

	var (
		res *models.ResultPage
		err error
	)
	switch {
	case query != "":
		res, err = p.feed.Search(ctx, query, page)
	case genreID != 0:
		res, err = p.feed.Discover(ctx, mediaType, genreID, page)
	default:
		res, err = p.feed.Trending(ctx, mediaType, TrendingWindow, page)
	}

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		p.logger.Debug("dropping stale page", "page", page)
		return nil
	}
	p.loading = false
	if err != nil {
		p.mu.Unlock()
		p.logger.Debug("page load failed", "page", page, "err", err)
		return err
	}

	if page == 1 {
		p.results = append([]models.MediaItem(nil), res.Results...)
	} else {
		p.results = append(p.results, res.Results...)
	}
	p.page = page
	p.totalPages = res.TotalPages
	p.hasMore = page < res.TotalPages
	total := p.totalPages
	p.mu.Unlock()

	p.events.send(resultsEvent(page, total))
	return nil
}

// LoadMore loads the next page when the list is scrolled near its end. It does
// nothing while a load is running, when there are no more pages, or while a
// detail view is open.
func (p *DiscoveryPager) LoadMore(ctx context.Context, modalOpen bool) error {
	p.mu.Lock()
	if modalOpen || p.loading || !p.hasMore {
		p.mu.Unlock()
		return nil
	}
	next, searching := p.page+1, p.query != ""
	p.mu.Unlock()
	return p.Load(ctx, next, searching)
}

// SetQuery records the active search text. Any in-flight load becomes stale and
// the cursor rewinds, so LoadMore does nothing until page 1 of the new source lands.
func (p *DiscoveryPager) SetQuery(query string) {
	query = strings.TrimSpace(query)
	p.mu.Lock()
	defer p.mu.Unlock()
	if query == p.query {
		return
	}
	p.query = query
	p.generation++
	p.loading = false
	p.page, p.totalPages, p.hasMore = 0, 0, false
}

// SetMediaType switches the browsed media type, clearing the genre filter.
func (p *DiscoveryPager) SetMediaType(ctx context.Context, mediaType models.MediaType) error {
	return p.reset(ctx, func() {
		p.mediaType = mediaType
		p.genreID = 0
	})
}

// SetGenre filters discovery by genre; zero clears the filter.
func (p *DiscoveryPager) SetGenre(ctx context.Context, genreID int) error {
	return p.reset(ctx, func() { p.genreID = genreID })
}

// reset applies a filter change, then restarts discovery at page 1. While a query
// is active the filter is only recorded; the search results stay.
func (p *DiscoveryPager) reset(ctx context.Context, apply func()) error {
	p.mu.Lock()
	apply()
	if p.query != "" {
		p.mu.Unlock()
		return nil
	}
	p.generation++
	p.loading = false
	p.page, p.totalPages, p.hasMore = 0, 0, false
	p.results = nil
	p.mu.Unlock()
	p.events.send(resultsEvent(0, 0))

	return p.Load(ctx, 1, false)
}

// Genres lists the genres available for mediaType.
func (p *DiscoveryPager) Genres(ctx context.Context, mediaType models.MediaType) ([]models.Genre, error) {
	return p.feed.Genres(ctx, mediaType)
}

// Trending returns the first page of this week's trending titles across all media.
func (p *DiscoveryPager) Trending(ctx context.Context) ([]models.MediaItem, error) {
	res, err := p.feed.Trending(ctx, models.MediaAll, TrendingWindow, 1)
	if err != nil {
		return nil, err
	}
	return res.Results, nil
}

// Results returns a copy of the accumulated results.
func (p *DiscoveryPager) Results() []models.MediaItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.MediaItem(nil), p.results...)
}

// PageState is a consistent view of the pagination cursor.
type PageState struct {
	Query      string
	MediaType  models.MediaType
	GenreID    int
	Page       int
	TotalPages int
	HasMore    bool
	Loading    bool
}

// State returns the pagination cursor.
func (p *DiscoveryPager) State() PageState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PageState{
		Query:      p.query,
		MediaType:  p.mediaType,
		GenreID:    p.genreID,
		Page:       p.page,
		TotalPages: p.totalPages,
		HasMore:    p.hasMore,
		Loading:    p.loading,
	}
}
