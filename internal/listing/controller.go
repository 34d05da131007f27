// Package listing implements the fetch/refresh contract shared by every
// list view: one request per fetch, wholesale replacement of the data on
// success, and a user-visible message on failure.
package listing

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/nekogravitycat/event-planner/internal/notify"
	"github.com/nekogravitycat/event-planner/internal/pkg/apperror"
)

// ErrDisposed is returned by Fetch once the controller has been disposed.
var ErrDisposed = errors.New("list controller disposed")

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// FetchFunc loads the full list, typically an apiclient list endpoint.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Snapshot is a copy of the controller state.
type Snapshot[T any] struct {
	Status Status
	Items  []T
	Err    error
	// Message is the user-facing text for Err.
	Message string
}

// Controller drives one list. Concurrent fetches are not coalesced: each
// issues its own request and, unless WithStaleGuard is set, whichever
// response resolves last determines the final state.
type Controller[T any] struct {
	fetch    FetchFunc[T]
	sink     notify.Sink
	nav      notify.Navigator
	log      *zap.Logger
	label    string
	guard    bool
	onChange func(Snapshot[T])

	mu       sync.Mutex
	status   Status
	items    []T
	err      error
	message  string
	seq      uint64
	key      any
	hasKey   bool
	disposed bool
}

type Option[T any] func(*Controller[T])

// WithLabel names the resource in fallback messages ("Failed to fetch carters.").
func WithLabel[T any](label string) Option[T] {
	return func(c *Controller[T]) { c.label = label }
}

func WithNavigator[T any](nav notify.Navigator) Option[T] {
	return func(c *Controller[T]) { c.nav = nav }
}

func WithLogger[T any](log *zap.Logger) Option[T] {
	return func(c *Controller[T]) { c.log = log }
}

// WithStaleGuard discards responses of fetches that were superseded by a
// later Fetch call, so the most recently issued request wins.
func WithStaleGuard[T any]() Option[T] {
	return func(c *Controller[T]) { c.guard = true }
}

// WithOnChange registers a callback invoked after every state transition.
// It runs outside the controller lock.
func WithOnChange[T any](fn func(Snapshot[T])) Option[T] {
	return func(c *Controller[T]) { c.onChange = fn }
}

func New[T any](fetch FetchFunc[T], sink notify.Sink, opts ...Option[T]) *Controller[T] {
	if sink == nil {
		sink = notify.Discard
	}
	c := &Controller[T]{
		fetch:  fetch,
		sink:   sink,
		log:    zap.NewNop(),
		label:  "items",
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch loads the list once and returns the fetch error, if any.
func (c *Controller[T]) Fetch(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	c.seq++
	ticket := c.seq
	c.status = StatusLoading
	loading := c.snapshotLocked()
	c.mu.Unlock()
	c.changed(loading)

	items, err := c.fetch(ctx)

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		c.log.Debug("discarding result for disposed list", zap.String("list", c.label))
		return err
	}
	if c.guard && ticket != c.seq {
		c.mu.Unlock()
		c.log.Debug("discarding stale list result", zap.String("list", c.label), zap.Uint64("ticket", ticket))
		return err
	}

	if err != nil {
		// The alert replaces the list.
		c.status = StatusFailed
		c.items = nil
		c.err = err
		c.message = c.messageFor(err)
	} else {
		if items == nil {
			items = make([]T, 0)
		}
		c.status = StatusReady
		c.items = items
		c.err = nil
		c.message = ""
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.changed(snap)
	if err != nil {
		c.sink.Error(snap.Message)
		if apperror.IsKind(err, apperror.KindUnauthenticated) && c.nav != nil {
			c.nav.ToLogin()
		}
	}
	return err
}

// Refresh fetches when key differs from the key of the previous Refresh.
// The first Refresh always fetches. It reports whether a fetch ran.
func (c *Controller[T]) Refresh(ctx context.Context, key any) (bool, error) {
	c.mu.Lock()
	if c.hasKey && reflect.DeepEqual(c.key, key) {
		c.mu.Unlock()
		return false, nil
	}
	c.key = key
	c.hasKey = true
	c.mu.Unlock()

	return true, c.Fetch(ctx)
}

// State returns a snapshot; the Items slice is a copy.
func (c *Controller[T]) State() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Items is shorthand for State().Items.
func (c *Controller[T]) Items() []T {
	return c.State().Items
}

// Dispose detaches the controller; in-flight results are dropped.
func (c *Controller[T]) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed = true
}

func (c *Controller[T]) snapshotLocked() Snapshot[T] {
	var items []T
	if c.items != nil {
		items = make([]T, len(c.items))
		copy(items, c.items)
	}
	return Snapshot[T]{
		Status:  c.status,
		Items:   items,
		Err:     c.err,
		Message: c.message,
	}
}

func (c *Controller[T]) changed(s Snapshot[T]) {
	if c.onChange != nil {
		c.onChange(s)
	}
}

func (c *Controller[T]) messageFor(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "Failed to fetch " + c.label + "."
}
