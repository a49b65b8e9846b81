package tasks

import (
	"context"
	"sync"
	"time"
)

// Handle is a cancellable scheduled task: a poll loop, a debounce timer, or a TTL timer.
type Handle interface {
	Stop()
}

// HandleFunc adapts a function to [Handle].
type HandleFunc func()

func (f HandleFunc) Stop() { f() }

// Registry collects every live [Handle] of a session so teardown can dispose them together.
type Registry struct {
	mu      sync.Mutex
	next    int
	handles map[int]Handle
	closed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[int]Handle)}
}

// Add registers h and returns a func that unregisters it without stopping it.
//
// Adding to a closed registry stops h immediately.
func (r *Registry) Add(h Handle) (remove func()) {
	if r == nil {
		return func() {}
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		h.Stop()
		return func() {}
	}
	id := r.next
	r.next++
	r.handles[id] = h
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.handles, id)
		r.mu.Unlock()
	}
}

// AfterFunc schedules f like [time.AfterFunc] and tracks the timer until it fires or is stopped.
//
// On a closed registry the timer is never started.
func (r *Registry) AfterFunc(d time.Duration, f func()) Handle {
	th := &timerHandle{}
	remove := r.Add(th)

	th.mu.Lock()
	defer th.mu.Unlock()
	th.remove = remove
	if th.stopped {
		return th
	}
	th.t = time.AfterFunc(d, func() {
		th.unregister()
		f()
	})
	return th
}

type timerHandle struct {
	mu      sync.Mutex
	t       *time.Timer
	remove  func()
	stopped bool
}

func (th *timerHandle) Stop() {
	th.mu.Lock()
	th.stopped = true
	t := th.t
	th.mu.Unlock()
	if t != nil {
		t.Stop()
	}
	th.unregister()
}

func (th *timerHandle) unregister() {
	th.mu.Lock()
	remove := th.remove
	th.mu.Unlock()
	if remove != nil {
		remove()
	}
}

// Len reports the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Close stops every registered handle. It is safe to call more than once.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	handles := r.handles
	r.handles = make(map[int]Handle)
	r.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
}

// startLoop runs tick once, then on every interval until the returned handle is stopped
// or ctx is done. Stop waits for the loop goroutine to exit.
func startLoop(ctx context.Context, interval time.Duration, tick func(context.Context)) Handle {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		tick(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return HandleFunc(func() {
		once.Do(func() {
			cancel()
			<-done
		})
	})
}
