package tasks

import (
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
)

// NotificationCenter owns two independent feedback surfaces: a FIFO of
// server-pushed toasts and a single banner slot for local command results.
type NotificationCenter struct {
	toastTTL  time.Duration
	bannerTTL time.Duration
	reg       *Registry
	events    *Emitter

	mu          sync.Mutex
	toasts      []models.Notification
	banner      *models.Banner
	bannerGen   uint64
	bannerTimer Handle
}

// NewNotificationCenter creates a center whose timers are tracked by reg.
func NewNotificationCenter(toastTTL, bannerTTL time.Duration, reg *Registry, events *Emitter) *NotificationCenter {
	return &NotificationCenter{
		toastTTL:  toastTTL,
		bannerTTL: bannerTTL,
		reg:       reg,
		events:    events,
	}
}

// PushBatch appends one poll's worth of messages and schedules removal of exactly that batch.
func (n *NotificationCenter) PushBatch(messages []string) {
	now := time.Now()
	batch := make([]models.Notification, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m) == "" {
			continue
		}
		batch = append(batch, models.Notification{ID: shared.GenerateID(), Text: m, Arrived: now})
	}
	if len(batch) == 0 {
		return
	}

	ids := make(map[string]struct{}, len(batch))
	for _, nt := range batch {
		ids[nt.ID] = struct{}{}
	}

	n.mu.Lock()
	n.toasts = append(n.toasts, batch...)
	count := len(n.toasts)
	n.mu.Unlock()
	n.events.send(toastsEvent(count))

	n.reg.AfterFunc(n.toastTTL, func() { n.expire(ids) })
}

func (n *NotificationCenter) expire(ids map[string]struct{}) {
	n.mu.Lock()
	kept := n.toasts[:0:0]
	for _, nt := range n.toasts {
		if _, ok := ids[nt.ID]; !ok {
			kept = append(kept, nt)
		}
	}
	n.toasts = kept
	count := len(n.toasts)
	n.mu.Unlock()
	n.events.send(toastsEvent(count))
}

// Toasts returns the visible toasts, oldest first.
func (n *NotificationCenter) Toasts() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Notification(nil), n.toasts...)
}

// Banner replaces the current banner and schedules it to clear itself.
//
// A clear scheduled for an older banner never removes a newer one.
func (n *NotificationCenter) Banner(kind models.BannerKind, text string) {
	if text == "" {
		return
	}

	n.mu.Lock()
	n.bannerGen++
	gen := n.bannerGen
	n.banner = &models.Banner{Kind: kind, Text: text}
	prev := n.bannerTimer
	n.bannerTimer = nil
	n.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}
	n.events.send(Event{Kind: BannerChanged, Message: text})

	h := n.reg.AfterFunc(n.bannerTTL, func() { n.clearBanner(gen) })

	n.mu.Lock()
	if n.bannerGen == gen {
		n.bannerTimer = h
	}
	n.mu.Unlock()
}

// Success shows a success banner.
func (n *NotificationCenter) Success(text string) { n.Banner(models.BannerSuccess, text) }

// Failure shows the display text for err as an error banner.
func (n *NotificationCenter) Failure(err error) {
	n.Banner(models.BannerError, shared.DisplayError(err))
}

func (n *NotificationCenter) clearBanner(gen uint64) {
	n.mu.Lock()
	if n.bannerGen != gen {
		n.mu.Unlock()
		return
	}
	n.banner = nil
	n.bannerTimer = nil
	n.mu.Unlock()
	n.events.send(Event{Kind: BannerChanged})
}

// CurrentBanner returns the banner, if one is showing.
func (n *NotificationCenter) CurrentBanner() (models.Banner, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.banner == nil {
		return models.Banner{}, false
	}
	return *n.banner, true
}
