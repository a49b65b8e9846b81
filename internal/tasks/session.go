package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/medialink/internal/services"
	"github.com/desertthunder/medialink/internal/shared"
)

// SessionOpts configures a [Session].
type SessionOpts struct {
	Config   *shared.Config
	Backend  services.Backend
	Logger   *log.Logger
	Archiver JobArchiver // optional
}

// Session owns every engine component for one operating session.
//
// State is created by [NewSession], pollers run between [Session.Start] and
// [Session.Close], and Close disposes every timer and loop the session created.
type Session struct {
	backend services.Backend
	cfg     *shared.Config
	logger  *log.Logger

	Registry *Registry
	Notes    *NotificationCenter
	Links    *SymlinkReconciler
	Status   *StatusPoller
	JobLogs  *JobLogPoller
	Pager    *DiscoveryPager
	Search   *SearchController
	Jobs     *JobController
	Library  *LibraryManager

	events *Emitter
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewSession wires the components together. Nothing runs until Start.
func NewSession(opts SessionOpts) *Session {
	cfg := opts.Config
	if cfg == nil {
		cfg = shared.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	reg := NewRegistry()
	events := NewEmitter(128)
	s := &Session{
		backend:  opts.Backend,
		cfg:      cfg,
		logger:   logger,
		Registry: reg,
		events:   events,
		ctx:      ctx,
		cancel:   cancel,
	}

	s.Notes = NewNotificationCenter(cfg.UI.ToastTTL.Duration, cfg.UI.BannerTTL.Duration, reg, events)
	s.Links = NewSymlinkReconciler(opts.Backend, cfg.Polling.ExistenceRate, shared.WithLogger(logger, "component", "symlinks"), events)
	s.Status = NewStatusPoller(opts.Backend, s.Notes, cfg.Polling.StatusInterval.Duration, shared.WithLogger(logger, "component", "status_poller"), events)
	s.JobLogs = NewJobLogPoller(opts.Backend, s.Status, cfg.Polling.JobLogInterval.Duration, cfg.Polling.JobLogMaxLines, shared.WithLogger(logger, "component", "job_log_poller"), events)
	s.Pager = NewDiscoveryPager(opts.Backend, shared.WithLogger(logger, "component", "discovery"), events)
	s.Search = NewSearchController(ctx, s.Pager, cfg.Polling.SearchDebounce.Duration, reg, shared.WithLogger(logger, "component", "search"))
	s.Jobs = NewJobController(opts.Backend, s.Links, s.Notes, shared.WithLogger(logger, "component", "jobs"), events)
	s.Library = NewLibraryManager(opts.Backend, s.Links, s.Notes, shared.WithLogger(logger, "component", "library"))

	if opts.Archiver != nil {
		s.Status.SetArchiver(opts.Archiver, s.JobLogs.Logs)
	}
	return s
}

// Start checks that backend setup is complete and launches both pollers.
//
// It returns [shared.ErrNotConfigured] when setup is incomplete.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: session is closed", shared.ErrInvalidInput)
	}
	if s.started {
		return nil
	}

	configured, err := s.backend.Configured(ctx)
	if err != nil {
		return fmt.Errorf("%w: status check: %v", shared.ErrServiceUnavailable, err)
	}
	if !configured {
		return shared.ErrNotConfigured
	}

	s.Registry.Add(s.Status.Start(s.ctx))
	s.Registry.Add(s.JobLogs.Start(s.ctx))
	s.started = true
	s.logger.Info("session started",
		"backend", s.cfg.Backend.URL,
		"status_interval", s.cfg.Polling.StatusInterval,
		"job_log_interval", s.cfg.Polling.JobLogInterval)
	return nil
}

// Context is cancelled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// Events delivers state-change notifications; see [Emitter].
func (s *Session) Events() <-chan Event { return s.events.C() }

// Backend returns the client the session talks to.
func (s *Session) Backend() services.Backend { return s.backend }

// Close stops every poller and timer. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.Registry.Close()
	s.logger.Info("session closed")
}
