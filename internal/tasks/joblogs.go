package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/services"
	"github.com/desertthunder/medialink/internal/shared"
)

// LogSource fetches one incremental page of a job's log.
type LogSource interface {
	JobLogs(ctx context.Context, jobID string, since int) (*services.JobLogPage, error)
}

// SnapshotSource supplies the latest active-jobs snapshot.
type SnapshotSource interface {
	Snapshot() models.Snapshot
}

// JobLogPoller incrementally collects per-job logs with a monotonic cursor.
//
// Buffers and cursors live for the whole session. When maxLines is positive
// the oldest lines are dropped past that size; the cursor is unaffected.
type JobLogPoller struct {
	src      LogSource
	jobs     SnapshotSource
	interval time.Duration
	maxLines int
	logger   *log.Logger
	events   *Emitter

	mu       sync.Mutex
	cursors  map[string]int
	buffers  map[string][]string
	inflight map[string]bool
}

// NewJobLogPoller creates a poller that follows the jobs in src's snapshots.
func NewJobLogPoller(src LogSource, jobs SnapshotSource, interval time.Duration, maxLines int, logger *log.Logger, events *Emitter) *JobLogPoller {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &JobLogPoller{
		src:      src,
		jobs:     jobs,
		interval: interval,
		maxLines: maxLines,
		logger:   logger,
		events:   events,
		cursors:  make(map[string]int),
		buffers:  make(map[string][]string),
		inflight: make(map[string]bool),
	}
}

// Start polls every interval until the handle is stopped.
func (p *JobLogPoller) Start(ctx context.Context) Handle {
	return startLoop(ctx, p.interval, func(ctx context.Context) { p.dispatch(ctx) })
}

// Tick runs one polling pass and waits for its fetches to finish.
func (p *JobLogPoller) Tick(ctx context.Context) {
	p.dispatch(ctx).Wait()
}

// dispatch starts a fetch for every live job that has none in flight.
// Terminal jobs are skipped entirely.
func (p *JobLogPoller) dispatch(ctx context.Context) *sync.WaitGroup {
	var wg sync.WaitGroup
	for id, job := range p.jobs.Snapshot() {
		if job.Status.IsTerminal() {
			continue
		}

		p.mu.Lock()
		busy := p.inflight[id]
		if !busy {
			p.inflight[id] = true
		}
		p.mu.Unlock()
		if busy {
			continue
		}

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer p.release(id)
			if _, err := p.fetch(ctx, id); err != nil {
				p.logger.Debug("job log fetch failed", "job", id, "err", err)
			}
		}(id)
	}
	return &wg
}

func (p *JobLogPoller) release(id string) {
	p.mu.Lock()
	delete(p.inflight, id)
	p.mu.Unlock()
}

// Fetch retrieves the lines after the job's cursor and returns the ones appended.
//
// It does not consult the in-flight guard; callers driving a single job use it directly.
func (p *JobLogPoller) Fetch(ctx context.Context, jobID string) ([]string, error) {
	return p.fetch(ctx, jobID)
}

func (p *JobLogPoller) fetch(ctx context.Context, id string) ([]string, error) {
	p.mu.Lock()
	since := p.cursors[id]
	p.mu.Unlock()

	page, err := p.src.JobLogs(ctx, id, since)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if page.Total <= p.cursors[id] {
		p.mu.Unlock()
		return nil, nil
	}
	added := append([]string(nil), page.Logs...)
	buf := append(p.buffers[id], added...)
	if p.maxLines > 0 && len(buf) > p.maxLines {
		buf = append([]string(nil), buf[len(buf)-p.maxLines:]...)
	}
	p.buffers[id] = buf
	p.cursors[id] = page.Total
	p.mu.Unlock()

	if len(added) > 0 {
		p.events.send(jobLogsEvent(id, len(added)))
	}
	return added, nil
}

// Cursor returns how many lines of the job's log have been retrieved.
func (p *JobLogPoller) Cursor(jobID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursors[jobID]
}

// Logs returns a copy of the job's buffered lines.
func (p *JobLogPoller) Logs(jobID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.buffers[jobID]...)
}
