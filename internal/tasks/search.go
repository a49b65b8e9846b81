package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/medialink/internal/shared"
)

// SearchController debounces search input into pager loads.
//
// At most one debounce timer is pending at any time; only the timer that
// survives the last keystroke dispatches a search.
type SearchController struct {
	pager    *DiscoveryPager
	debounce time.Duration
	reg      *Registry
	logger   *log.Logger
	base     context.Context

	mu      sync.Mutex
	text    string
	pending Handle
	gen     uint64
}

// NewSearchController creates a controller. Debounced searches run under base.
func NewSearchController(base context.Context, pager *DiscoveryPager, debounce time.Duration, reg *Registry, logger *log.Logger) *SearchController {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &SearchController{
		pager:    pager,
		debounce: debounce,
		reg:      reg,
		logger:   logger,
		base:     base,
	}
}

// Set records the full input text after a keystroke without touching the network.
//
// Non-empty text restarts the debounce timer. Empty text cancels any pending
// search and reports that discovery must be reloaded at page 1.
func (c *SearchController) Set(text string) (reload bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	c.text = text
	c.pager.SetQuery(text)

	if strings.TrimSpace(text) == "" {
		return true
	}

	gen := c.gen
	c.pending = c.reg.AfterFunc(c.debounce, func() { c.fire(gen) })
	return false
}

// Type is [SearchController.Set] followed by the discovery reload it asks for.
func (c *SearchController) Type(ctx context.Context, text string) error {
	if c.Set(text) {
		return c.Reload(ctx)
	}
	return nil
}

// Reload restarts discovery at page 1.
func (c *SearchController) Reload(ctx context.Context) error {
	return c.pager.Load(ctx, 1, false)
}

// Submit dispatches the current text immediately.
func (c *SearchController) Submit(ctx context.Context) error {
	c.mu.Lock()
	c.cancelLocked()
	text := strings.TrimSpace(c.text)
	c.mu.Unlock()

	if text == "" {
		return nil
	}
	return c.pager.Load(ctx, 1, true)
}

// Text returns the raw input text.
func (c *SearchController) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Pending reports whether a debounce timer is armed.
func (c *SearchController) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

func (c *SearchController) cancelLocked() {
	c.gen++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *SearchController) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.mu.Unlock()

	if err := c.pager.Load(c.base, 1, true); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Debug("search failed", "err", err)
	}
}
