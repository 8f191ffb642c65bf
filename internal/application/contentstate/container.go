// Package contentstate holds the per-feature content caches behind the public site
// (activities, blogs, notices, gallery). Each container tracks a fetch status and
// re-fetches when its data is older than the staleness window.
package contentstate

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxAge is how long a successful fetch is served before re-fetching.
const DefaultMaxAge = 30 * time.Second

// Status is the lifecycle state of a container.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// FetchFunc loads the current list for a feature.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Snapshot is a point-in-time copy of a container.
type Snapshot[T any] struct {
	Status    Status
	Items     []T
	Err       error
	FetchedAt time.Time
}

// Container caches one feature's list. At most one fetch runs at a time; callers
// arriving during a refresh read the previous items, or wait when there are none.
type Container[T any] struct {
	name   string
	fetch  FetchFunc[T]
	maxAge time.Duration
	now    func() time.Time

	mu        sync.Mutex
	status    Status // outcome of the last settled fetch
	items     []T
	err       error
	fetchedAt time.Time
	hasData   bool
	inflight  chan struct{} // closed when the running fetch settles
	dirty     bool          // invalidated while a fetch was running
}

// New creates an idle container. A non-positive maxAge means DefaultMaxAge.
func New[T any](name string, fetch FetchFunc[T], maxAge time.Duration) *Container[T] {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Container[T]{name: name, fetch: fetch, maxAge: maxAge, now: time.Now, status: StatusIdle}
}

// Name returns the feature name, e.g. "activities".
func (c *Container[T]) Name() string { return c.name }

// Get returns the cached items, fetching first when idle, errored, or stale.
// A failed fetch leaves the previous items in place and reports the error.
// The fetch is detached from ctx cancellation so one departing caller does not
// fail the refresh for everyone else waiting on it.
// PRE: ctx carries the request lifetime
// POST: Snapshot.Status is StatusSuccess or StatusError
func (c *Container[T]) Get(ctx context.Context) Snapshot[T] {
	c.mu.Lock()
	if c.status == StatusSuccess && c.now().Sub(c.fetchedAt) < c.maxAge {
		defer c.mu.Unlock()
		return c.snapshotLocked()
	}

	if wait := c.inflight; wait != nil {
		if c.hasData {
			defer c.mu.Unlock()
			return c.staleLocked()
		}
		c.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return Snapshot[T]{Status: StatusError, Err: ctx.Err()}
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.status == StatusError {
			return c.snapshotLocked()
		}
		return c.staleLocked()
	}

	done := make(chan struct{})
	c.inflight = done
	c.dirty = false
	c.mu.Unlock()

	items, err := c.fetch(context.WithoutCancel(ctx))

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.status = StatusError
		c.err = err
	} else {
		c.status = StatusSuccess
		c.items = items
		c.err = nil
		c.fetchedAt = c.now()
		c.hasData = true
	}
	snap := c.snapshotLocked()
	if c.dirty && c.status == StatusSuccess {
		// the result may predate the mutation; serve it once, then re-fetch
		c.status = StatusIdle
	}
	c.dirty = false
	c.inflight = nil
	close(done)
	return snap
}

// Peek returns the current state without fetching. A refresh in progress
// reports StatusLoading.
func (c *Container[T]) Peek() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.snapshotLocked()
	if c.inflight != nil {
		snap.Status = StatusLoading
	}
	return snap
}

// Invalidate forces the next Get to re-fetch, including when a fetch is already
// running.
func (c *Container[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		c.dirty = true
	}
	if c.status == StatusSuccess {
		c.status = StatusIdle
	}
}

// staleLocked is the snapshot served while a refresh runs: the last good items
// reported as a success.
func (c *Container[T]) staleLocked() Snapshot[T] {
	snap := c.snapshotLocked()
	snap.Status = StatusSuccess
	snap.Err = nil
	return snap
}

func (c *Container[T]) snapshotLocked() Snapshot[T] {
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Snapshot[T]{Status: c.status, Items: items, Err: c.err, FetchedAt: c.fetchedAt}
}

// Invalidator is implemented by every Container regardless of element type.
type Invalidator interface {
	Name() string
	Invalidate()
}

// Registry maps backend resource names to the containers that cache them.
type Registry struct {
	mu         sync.RWMutex
	containers map[string][]Invalidator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{containers: make(map[string][]Invalidator)}
}

// Register ties a container to a resource name.
func (r *Registry) Register(resource string, c Invalidator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.containers[resource] = append(r.containers[resource], c)
}

// Invalidate marks every container for the resource stale. Unknown names are ignored.
func (r *Registry) Invalidate(resource string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.containers[resource] {
		c.Invalidate()
	}
}
