package tasks

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/medialink/internal/models"
	"github.com/desertthunder/medialink/internal/shared"
)

// LinkChecker is the slice of the backend the reconciler talks to.
type LinkChecker interface {
	TestSymlink(ctx context.Context, path string) (bool, error)
	SymlinkExists(ctx context.Context, q models.ExistsQuery) (bool, error)
}

// SymlinkReconciler tracks per-path liveness and the displayed library state
// of titles and episodes.
//
// Library flags are optimistic: commands set them on success and every later
// existence observation overwrites them.
type SymlinkReconciler struct {
	backend LinkChecker
	limiter *rate.Limiter
	workers int
	logger  *log.Logger
	events  *Emitter

	mu     sync.Mutex
	states map[string]models.LinkState
	flags  map[string]models.SyncState
}

// NewSymlinkReconciler creates a reconciler; existenceRate bounds batch checks per second.
func NewSymlinkReconciler(backend LinkChecker, existenceRate float64, logger *log.Logger, events *Emitter) *SymlinkReconciler {
	if existenceRate <= 0 {
		existenceRate = 4
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &SymlinkReconciler{
		backend: backend,
		limiter: rate.NewLimiter(rate.Limit(existenceRate), 1),
		workers: 3,
		logger:  logger,
		events:  events,
		states:  make(map[string]models.LinkState),
		flags:   make(map[string]models.SyncState),
	}
}

// Test checks one library path. The path is marked testing for the duration of
// the request; a non-2xx answer or a transport failure marks it dead.
//
// Calling Test again for a path already being tested is allowed.
func (s *SymlinkReconciler) Test(ctx context.Context, path string) models.LinkState {
	s.setState(path, models.LinkTesting)

	alive, err := s.backend.TestSymlink(ctx, path)
	state := models.LinkDead
	if err != nil {
		s.logger.Debug("symlink test failed", "path", path, "err", err)
	} else if alive {
		state = models.LinkAlive
	}

	s.setState(path, state)
	return state
}

func (s *SymlinkReconciler) setState(path string, st models.LinkState) {
	s.mu.Lock()
	s.states[path] = st
	s.mu.Unlock()
	s.events.send(linkEvent(path))
}

// State returns the last known liveness of path.
func (s *SymlinkReconciler) State(path string) models.LinkState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[path]
}

// Exists asks the backend whether q is already in the library. Results are
// never memoized; a failed check reads as absent.
//
// The answer overwrites any optimistic flag for q.
func (s *SymlinkReconciler) Exists(ctx context.Context, q models.ExistsQuery) bool {
	exists, err := s.backend.SymlinkExists(ctx, q)
	if err != nil {
		s.logger.Debug("existence check failed", "key", q.Key(), "err", err)
		exists = false
	}

	state := models.SyncNone
	if exists {
		state = models.SyncSynced
	}
	s.setFlag(q.Key(), state)
	return exists
}

// CheckSeason runs [SymlinkReconciler.Exists] for every episode of a season,
// paced by the reconciler's rate limiter across a small worker pool.
func (s *SymlinkReconciler) CheckSeason(ctx context.Context, item models.MediaItem, season int, episodes []int) map[int]bool {
	type check struct {
		episode int
		exists  bool
	}

	jobs := make(chan int, len(episodes))
	results := make(chan check, len(episodes))

	workers := s.workers
	if workers > len(episodes) {
		workers = len(episodes)
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ep := range jobs {
				if ctx.Err() != nil {
					return
				}
				q := models.QueryFor(item, models.IntPtr(season), models.IntPtr(ep))
				results <- check{episode: ep, exists: s.Exists(ctx, q)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, ep := range episodes {
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- ep
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[int]bool, len(episodes))
	for r := range results {
		out[r.episode] = r.exists
	}
	return out
}

// MarkPresent optimistically shows a title (or episode) as in the library.
func (s *SymlinkReconciler) MarkPresent(q models.ExistsQuery) { s.setFlag(q.Key(), models.SyncSynced) }

// MarkPending optimistically shows an episode as on its way.
func (s *SymlinkReconciler) MarkPending(q models.ExistsQuery) { s.setFlag(q.Key(), models.SyncPending) }

// Flag returns the displayed library state of q.
func (s *SymlinkReconciler) Flag(q models.ExistsQuery) models.SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[q.Key()]
}

func (s *SymlinkReconciler) setFlag(key string, st models.SyncState) {
	s.mu.Lock()
	prev, ok := s.flags[key]
	s.flags[key] = st
	s.mu.Unlock()
	if !ok || prev != st {
		s.events.send(flagsEvent(key))
	}
}
