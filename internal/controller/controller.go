// Package controller holds the in-memory shopping list and keeps it in step
// with the store.
//
// Every mutation is queued on a single worker per Controller, so store calls
// and the reloads that follow them are applied strictly in the order they were
// issued. Callers never block on the store; they observe results through
// Items or by subscribing to Events.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/alecthomas/types/pubsub"

	"github.com/Makepad-fr/basket/internal/model"
	"github.com/Makepad-fr/basket/internal/store"
)

const defaultQueueSize = 64

var (
	// ErrEmptyName rejects blank names before anything is queued.
	ErrEmptyName = store.ErrEmptyName
	// ErrClosed is returned by every call made after Close.
	ErrClosed = errors.New("controller closed")
	// ErrStaleIndex means the list changed between a call and its task, so
	// the index no longer addresses the item the caller saw.
	ErrStaleIndex = errors.New("list changed since index was read")
)

// IndexError is returned when a position does not address the current list.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index out of range: have %d, got %d", e.Len, e.Index)
}

// Op names the task that produced an Event.
type Op string

const (
	OpLoad    Op = "load"
	OpAdd     Op = "add"
	OpToggle  Op = "toggle"
	OpDelete  Op = "delete"
	OpEdit    Op = "edit"
	OpRestore Op = "restore"
)

// Event is published after every task. Items is the list as it stands once
// the task finished; Err is set if the task failed, in which case Items is
// the unchanged list.
type Event struct {
	Op    Op
	Items []model.ShoppingItem
	Err   error
}

// Option configures a Controller.
type Option func(*Controller)

// WithQueueSize bounds the number of pending tasks before callers block.
func WithQueueSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller is the authoritative in-memory copy of the store's list.
type Controller struct {
	store     store.Store
	ctx       context.Context
	logger    *slog.Logger
	queueSize int

	tasks chan func()
	done  chan struct{}
	topic *pubsub.Topic[Event]

	// items is only written by the worker and is replaced, never mutated.
	mu    sync.RWMutex
	items []model.ShoppingItem

	closeMu sync.RWMutex
	closed  bool
}

// New starts the worker for s and queues the initial load.
func New(ctx context.Context, s store.Store, opts ...Option) *Controller {
	c := &Controller{
		store:     s,
		ctx:       ctx,
		logger:    slog.Default(),
		queueSize: defaultQueueSize,
		items:     []model.ShoppingItem{},
		done:      make(chan struct{}),
		topic:     pubsub.New[Event](),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "controller")
	c.tasks = make(chan func(), c.queueSize)
	go c.run()
	_ = c.Load()
	return c
}

func (c *Controller) run() {
	defer close(c.done)
	for task := range c.tasks {
		task()
	}
}

func (c *Controller) enqueue(task func()) error {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	c.tasks <- task
	return nil
}

// apply runs fn on the worker and publishes the outcome.
func (c *Controller) apply(op Op, fn func(ctx context.Context) error) error {
	return c.enqueue(func() {
		err := fn(c.ctx)
		if err != nil {
			c.logger.Error("task failed", "op", op, "error", err)
		} else {
			c.logger.Debug("task done", "op", op)
		}
		c.topic.Publish(Event{Op: op, Items: c.Items(), Err: err})
	})
}

func (c *Controller) reload(ctx context.Context) error {
	items, err := c.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	c.replace(items)
	return nil
}

func (c *Controller) replace(items []model.ShoppingItem) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

// Items returns a copy of the current list.
func (c *Controller) Items() []model.ShoppingItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Load replaces the list with the store's contents.
func (c *Controller) Load() error {
	return c.apply(OpLoad, c.reload)
}

// Add stores a new, not yet bought item named name and reloads.
func (c *Controller) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	return c.apply(OpAdd, func(ctx context.Context) error {
		if _, err := c.store.Insert(ctx, model.ShoppingItem{Name: name}); err != nil {
			return fmt.Errorf("add %q: %w", name, err)
		}
		return c.reload(ctx)
	})
}

// ToggleBought flips IsBought of the item at index in the current list.
//
// Only that slot is replaced after the update is persisted; the list is not
// reloaded, so drift made to the row by anything else is not picked up here.
// The item is pinned by id when the call is made. If queued work moves or
// removes it before the task runs, the task fails with ErrStaleIndex or an
// IndexError and nothing is changed.
func (c *Controller) ToggleBought(index int) error {
	items := c.Items()
	if index < 0 || index >= len(items) {
		return &IndexError{Index: index, Len: len(items)}
	}
	id := items[index].ID
	return c.apply(OpToggle, func(ctx context.Context) error {
		c.mu.RLock()
		items := c.items
		c.mu.RUnlock()
		if index >= len(items) {
			return &IndexError{Index: index, Len: len(items)}
		}
		if items[index].ID != id {
			return fmt.Errorf("toggle %d at %d: %w", id, index, ErrStaleIndex)
		}
		updated := items[index].WithBought(!items[index].IsBought)
		if err := c.store.Update(ctx, updated); err != nil {
			return fmt.Errorf("toggle %d: %w", updated.ID, err)
		}
		next := slices.Clone(items)
		next[index] = updated
		c.replace(next)
		return nil
	})
}

// Delete removes item by id and reloads. Deleting a missing item is a no-op.
func (c *Controller) Delete(item model.ShoppingItem) error {
	return c.apply(OpDelete, func(ctx context.Context) error {
		if err := c.store.Delete(ctx, item); err != nil {
			return fmt.Errorf("delete %d: %w", item.ID, err)
		}
		return c.reload(ctx)
	})
}

// EditName renames item, keeping its id and bought state, and reloads.
func (c *Controller) EditName(item model.ShoppingItem, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}
	return c.apply(OpEdit, func(ctx context.Context) error {
		if err := c.store.Update(ctx, item.WithName(newName)); err != nil {
			return fmt.Errorf("edit %d: %w", item.ID, err)
		}
		return c.reload(ctx)
	})
}

// Restore puts a previously deleted item back under its original id.
func (c *Controller) Restore(item model.ShoppingItem) error {
	if !item.Persisted() {
		return fmt.Errorf("restore: item %q has no id", item.Name)
	}
	return c.apply(OpRestore, func(ctx context.Context) error {
		if _, err := c.store.Insert(ctx, item); err != nil {
			return fmt.Errorf("restore %d: %w", item.ID, err)
		}
		return c.reload(ctx)
	})
}

// Subscribe registers ch for Events and returns it.
func (c *Controller) Subscribe(ch chan Event) chan Event {
	return c.topic.Subscribe(ch)
}

// Unsubscribe stops delivery to ch. Pending sends are drained so the
// publisher never stalls on a reader that has gone away.
func (c *Controller) Unsubscribe(ch chan Event) {
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
			case <-stop:
				return
			}
		}
	}()
	c.topic.Unsubscribe(ch)
	close(stop)
}

// Sync blocks until every task queued before the call has run.
func (c *Controller) Sync(ctx context.Context) error {
	reached := make(chan struct{})
	if err := c.enqueue(func() { close(reached) }); err != nil {
		return err
	}
	select {
	case <-reached:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close runs the remaining queue and stops the worker. The store is left
// open; it belongs to whoever created it.
func (c *Controller) Close(ctx context.Context) error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return nil
	}
	c.closed = true
	close(c.tasks)
	c.closeMu.Unlock()

	select {
	case <-c.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.topic.Close()
}
