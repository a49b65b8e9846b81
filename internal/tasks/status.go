package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
)

// MountDisconnected is shown when the mount health check cannot be fetched.
const MountDisconnected = "disconnected"

// StatusSource is the slice of the backend polled on the status interval.
type StatusSource interface {
	SystemLogs(ctx context.Context) ([]string, error)
	MountStatus(ctx context.Context) (string, error)
	Notifications(ctx context.Context) ([]string, error)
	ActiveJobs(ctx context.Context) (models.Snapshot, error)
}

// JobArchiver persists jobs that finished or left the active set.
type JobArchiver interface {
	Archive(ctx context.Context, job models.Job, logs []string) error
}

// StatusPoller owns the authoritative active-jobs snapshot, the mount health
// string, and the global log tail. Each tick runs its four fetches
// concurrently; a failed fetch leaves its slice of state as it was.
type StatusPoller struct {
	src      StatusSource
	notes    *NotificationCenter
	interval time.Duration
	logger   *log.Logger
	events   *Emitter

	archiver JobArchiver
	jobLogs  func(jobID string) []string

	mu         sync.Mutex
	snapshot   models.Snapshot
	mount      string
	systemLogs []string
	archived   map[string]bool
}

// NewStatusPoller creates a poller; notifications are pushed to notes as one batch per tick.
func NewStatusPoller(src StatusSource, notes *NotificationCenter, interval time.Duration, logger *log.Logger, events *Emitter) *StatusPoller {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &StatusPoller{
		src:      src,
		notes:    notes,
		interval: interval,
		logger:   logger,
		events:   events,
		snapshot: models.Snapshot{},
		archived: make(map[string]bool),
	}
}

// SetArchiver enables history archiving. logs supplies the lines collected for a job.
func (p *StatusPoller) SetArchiver(a JobArchiver, logs func(jobID string) []string) {
	p.archiver = a
	p.jobLogs = logs
}

// Start polls every interval until the handle is stopped.
func (p *StatusPoller) Start(ctx context.Context) Handle {
	return startLoop(ctx, p.interval, p.Tick)
}

// Tick runs one polling pass and waits for all four fetches.
func (p *StatusPoller) Tick(ctx context.Context) {
	var wg sync.WaitGroup
	fetches := []func(context.Context){p.pollSystemLogs, p.pollMount, p.pollNotifications, p.pollJobs}
	for _, f := range fetches {
		wg.Add(1)
		go func(f func(context.Context)) {
			defer wg.Done()
			f(ctx)
		}(f)
	}
	wg.Wait()
}

func (p *StatusPoller) pollSystemLogs(ctx context.Context) {
	lines, err := p.src.SystemLogs(ctx)
	if err != nil {
		p.logger.Debug("system log fetch failed", "err", err)
		return
	}
	p.mu.Lock()
	p.systemLogs = lines
	p.mu.Unlock()
	p.events.send(Event{Kind: SystemLogsChanged})
}

func (p *StatusPoller) pollMount(ctx context.Context) {
	status, err := p.src.MountStatus(ctx)
	if err != nil {
		p.logger.Debug("mount status fetch failed", "err", err)
		status = MountDisconnected
	}
	p.mu.Lock()
	changed := p.mount != status
	p.mount = status
	p.mu.Unlock()
	if changed {
		p.events.send(Event{Kind: MountChanged, Message: status})
	}
}

func (p *StatusPoller) pollNotifications(ctx context.Context) {
	msgs, err := p.src.Notifications(ctx)
	if err != nil {
		p.logger.Debug("notification fetch failed", "err", err)
		return
	}
	if p.notes != nil && len(msgs) > 0 {
		p.notes.PushBatch(msgs)
	}
}

func (p *StatusPoller) pollJobs(ctx context.Context) {
	snap, err := p.src.ActiveJobs(ctx)
	if err != nil {
		p.logger.Debug("active jobs fetch failed", "err", err)
		return
	}
	p.Replace(ctx, snap)
}

// Replace swaps in a new snapshot wholesale and archives jobs that became
// terminal or disappeared since the previous one.
func (p *StatusPoller) Replace(ctx context.Context, snap models.Snapshot) {
	snap = snap.Clone()

	p.mu.Lock()
	prev := p.snapshot
	p.snapshot = snap
	var finished []models.Job
	if p.archiver != nil {
		for id, job := range snap {
			if job.Status.IsTerminal() && !p.archived[id] {
				p.archived[id] = true
				finished = append(finished, job)
			}
		}
		for id, job := range prev {
			if _, still := snap[id]; !still && !p.archived[id] {
				p.archived[id] = true
				finished = append(finished, job)
			}
		}
	}
	p.mu.Unlock()
	p.events.send(snapshotEvent(len(snap)))

	for _, job := range finished {
		var lines []string
		if p.jobLogs != nil {
			lines = p.jobLogs(job.ID)
		}
		if err := p.archiver.Archive(ctx, job, lines); err != nil {
			p.logger.Debug("job archive failed", "job", job.ID, "err", err)
		}
	}
}

// Snapshot returns a copy of the latest active-jobs snapshot.
func (p *StatusPoller) Snapshot() models.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot.Clone()
}

// Job returns one job from the latest snapshot.
func (p *StatusPoller) Job(id string) (models.Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	job, ok := p.snapshot[id]
	return job, ok
}

// Mount returns the last mount health string.
func (p *StatusPoller) Mount() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mount
}

// SystemLogs returns the last global log tail.
func (p *StatusPoller) SystemLogs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.systemLogs...)
}
