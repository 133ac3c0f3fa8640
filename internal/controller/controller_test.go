package controller

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/basket/internal/model"
	"github.com/Makepad-fr/basket/internal/store"
	"github.com/Makepad-fr/basket/internal/store/sqlitestore"
)

var errBoom = errors.New("disk on fire")

// faultyStore fails each call whose error field is set.
type faultyStore struct {
	store.Store
	listErr, insertErr, updateErr, deleteErr error
}

func (f *faultyStore) ListAll(ctx context.Context) ([]model.ShoppingItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.ListAll(ctx)
}

func (f *faultyStore) Insert(ctx context.Context, item model.ShoppingItem) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	return f.Store.Insert(ctx, item)
}

func (f *faultyStore) Update(ctx context.Context, item model.ShoppingItem) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.Store.Update(ctx, item)
}

func (f *faultyStore) Delete(ctx context.Context, item model.ShoppingItem) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Store.Delete(ctx, item)
}

// gatedStore holds every Insert and Delete until gate is closed.
type gatedStore struct {
	store.Store
	gate chan struct{}
}

func (g *gatedStore) Insert(ctx context.Context, item model.ShoppingItem) (int64, error) {
	<-g.gate
	return g.Store.Insert(ctx, item)
}

func (g *gatedStore) Delete(ctx context.Context, item model.ShoppingItem) error {
	<-g.gate
	return g.Store.Delete(ctx, item)
}

func openStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlitestore.Open(filepath.Join(t.TempDir(), "shopping.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newController(t *testing.T, s store.Store) *Controller {
	t.Helper()
	c := New(context.Background(), s)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Close(ctx)
	})
	waitIdle(t, c)
	return c
}

func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Sync(ctx))
}

// nextEvent returns the next event produced by op, skipping any others.
func nextEvent(t *testing.T, events chan Event, op Op) Event {
	t.Helper()
	for {
		select {
		case ev := <-events:
			if ev.Op == op {
				return ev
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("no %s event", op)
		}
	}
}

func names(items []model.ShoppingItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func persisted(t *testing.T, s store.Store) []model.ShoppingItem {
	t.Helper()
	items, err := s.ListAll(context.Background())
	require.NoError(t, err)
	return items
}

func TestLoadsExistingItemsOnStart(t *testing.T) {
	s := openStore(t)
	_, err := s.Insert(context.Background(), model.ShoppingItem{Name: "Tea"})
	require.NoError(t, err)

	c := newController(t, s)
	assert.Equal(t, []string{"Tea"}, names(c.Items()))
}

func TestAdd(t *testing.T) {
	c := newController(t, openStore(t))
	require.NoError(t, c.Add("Milk"))
	waitIdle(t, c)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Milk", items[0].Name)
	assert.False(t, items[0].IsBought)
	assert.Greater(t, items[0].ID, int64(0))
}

func TestAddTrimsAndRejectsEmptyName(t *testing.T) {
	c := newController(t, openStore(t))
	assert.ErrorIs(t, c.Add("   "), ErrEmptyName)
	require.NoError(t, c.Add("  Eggs "))
	waitIdle(t, c)
	assert.Equal(t, []string{"Eggs"}, names(c.Items()))
}

func TestNewestFirst(t *testing.T) {
	c := newController(t, openStore(t))
	require.NoError(t, c.Add("A"))
	require.NoError(t, c.Add("B"))
	waitIdle(t, c)
	assert.Equal(t, []string{"B", "A"}, names(c.Items()))

	require.NoError(t, c.Load())
	waitIdle(t, c)
	assert.Equal(t, []string{"B", "A"}, names(c.Items()))
}

func TestTasksRunInIssueOrder(t *testing.T) {
	c := newController(t, openStore(t))
	want := []string{}
	for _, n := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		require.NoError(t, c.Add(n))
		want = append([]string{n}, want...)
	}
	waitIdle(t, c)
	assert.Equal(t, want, names(c.Items()))
}

func TestToggleDoubleFlip(t *testing.T) {
	s := openStore(t)
	c := newController(t, s)
	require.NoError(t, c.Add("Milk"))
	waitIdle(t, c)

	require.NoError(t, c.ToggleBought(0))
	waitIdle(t, c)
	assert.True(t, c.Items()[0].IsBought)
	assert.Equal(t, persisted(t, s), c.Items())

	require.NoError(t, c.ToggleBought(0))
	waitIdle(t, c)
	assert.False(t, c.Items()[0].IsBought)
	assert.Equal(t, persisted(t, s), c.Items())
}

func TestToggleOnlyTouchesOneSlot(t *testing.T) {
	s := openStore(t)
	c := newController(t, s)
	require.NoError(t, c.Add("A"))
	require.NoError(t, c.Add("B"))
	waitIdle(t, c)

	require.NoError(t, c.ToggleBought(1))
	waitIdle(t, c)
	items := c.Items()
	assert.False(t, items[0].IsBought)
	assert.True(t, items[1].IsBought)
	assert.Equal(t, "A", items[1].Name)
}

func TestToggleStaleIndexFailsClosed(t *testing.T) {
	s := openStore(t)
	c := newController(t, s)
	require.NoError(t, c.Add("A"))
	waitIdle(t, c)
	before := persisted(t, s)

	err := c.ToggleBought(1)
	var ierr *IndexError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, 1, ierr.Index)
	assert.Equal(t, 1, ierr.Len)

	assert.ErrorAs(t, c.ToggleBought(-1), &ierr)

	waitIdle(t, c)
	assert.Equal(t, before, c.Items())
	assert.Equal(t, before, persisted(t, s))
}

func TestToggleIndexRecheckedWhenRun(t *testing.T) {
	base := openStore(t)
	_, err := base.Insert(context.Background(), model.ShoppingItem{Name: "A"})
	require.NoError(t, err)
	gated := &gatedStore{Store: base, gate: make(chan struct{})}
	c := newController(t, gated)

	events := c.Subscribe(make(chan Event, 16))
	defer c.Unsubscribe(events)

	// The delete is queued but held, so the index still looks valid.
	require.NoError(t, c.Delete(c.Items()[0]))
	require.NoError(t, c.ToggleBought(0))
	close(gated.gate)
	waitIdle(t, c)

	toggled := nextEvent(t, events, OpToggle)
	var ierr *IndexError
	require.ErrorAs(t, toggled.Err, &ierr)
	assert.Equal(t, 0, ierr.Len)
	assert.Empty(t, c.Items())
	assert.Empty(t, persisted(t, gated))
}

func TestToggleRejectedWhenQueuedAddShiftsRows(t *testing.T) {
	base := openStore(t)
	_, err := base.Insert(context.Background(), model.ShoppingItem{Name: "A"})
	require.NoError(t, err)
	gated := &gatedStore{Store: base, gate: make(chan struct{})}
	c := newController(t, gated)
	require.Equal(t, []string{"A"}, names(c.Items()))

	events := c.Subscribe(make(chan Event, 16))
	defer c.Unsubscribe(events)

	// Row 0 is A when the toggle is issued; the held add will put B there.
	require.NoError(t, c.Add("B"))
	require.NoError(t, c.ToggleBought(0))
	close(gated.gate)
	waitIdle(t, c)

	assert.ErrorIs(t, nextEvent(t, events, OpToggle).Err, ErrStaleIndex)
	items := c.Items()
	assert.Equal(t, []string{"B", "A"}, names(items))
	assert.False(t, items[0].IsBought)
	assert.False(t, items[1].IsBought)
	assert.Equal(t, items, persisted(t, gated))
}

func TestFailedTaskLeavesListUnchanged(t *testing.T) {
	tests := []struct {
		name   string
		op     Op
		inject func(f *faultyStore)
		call   func(c *Controller, milk model.ShoppingItem) error
	}{
		{
			name:   "DeleteFails",
			op:     OpDelete,
			inject: func(f *faultyStore) { f.deleteErr = errBoom },
			call:   func(c *Controller, milk model.ShoppingItem) error { return c.Delete(milk) },
		},
		{
			name:   "EditFails",
			op:     OpEdit,
			inject: func(f *faultyStore) { f.updateErr = errBoom },
			call:   func(c *Controller, milk model.ShoppingItem) error { return c.EditName(milk, "Cream") },
		},
		{
			name:   "AddInsertFails",
			op:     OpAdd,
			inject: func(f *faultyStore) { f.insertErr = errBoom },
			call:   func(c *Controller, _ model.ShoppingItem) error { return c.Add("Eggs") },
		},
		{
			name:   "AddReloadFails",
			op:     OpAdd,
			inject: func(f *faultyStore) { f.listErr = errBoom },
			call:   func(c *Controller, _ model.ShoppingItem) error { return c.Add("Eggs") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faulty := &faultyStore{Store: openStore(t)}
			c := newController(t, faulty)
			require.NoError(t, c.Add("Milk"))
			waitIdle(t, c)
			before := c.Items()

			events := c.Subscribe(make(chan Event, 16))
			defer c.Unsubscribe(events)

			tt.inject(faulty)
			require.NoError(t, tt.call(c, before[0]))
			waitIdle(t, c)

			ev := nextEvent(t, events, tt.op)
			assert.ErrorIs(t, ev.Err, errBoom)
			assert.Equal(t, before, ev.Items)
			assert.Equal(t, before, c.Items())
		})
	}
}

func TestToggleNotAppliedWhenPersistFails(t *testing.T) {
	faulty := &faultyStore{Store: openStore(t)}
	c := newController(t, faulty)
	require.NoError(t, c.Add("Milk"))
	waitIdle(t, c)

	events := c.Subscribe(make(chan Event, 16))
	defer c.Unsubscribe(events)

	faulty.updateErr = errBoom
	require.NoError(t, c.ToggleBought(0))
	waitIdle(t, c)

	ev := nextEvent(t, events, OpToggle)
	assert.ErrorIs(t, ev.Err, errBoom)
	assert.False(t, ev.Items[0].IsBought)
	assert.False(t, c.Items()[0].IsBought)
	assert.False(t, persisted(t, faulty)[0].IsBought)
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	c := newController(t, openStore(t))
	require.NoError(t, c.Add("A"))
	require.NoError(t, c.Add("B"))
	waitIdle(t, c)
	a := c.Items()[1]
	require.Equal(t, "A", a.Name)

	require.NoError(t, c.Delete(a))
	waitIdle(t, c)
	assert.Equal(t, []string{"B"}, names(c.Items()))

	events := c.Subscribe(make(chan Event, 16))
	defer c.Unsubscribe(events)
	require.NoError(t, c.Delete(a))
	waitIdle(t, c)
	assert.Equal(t, []string{"B"}, names(c.Items()))
	assert.NoError(t, nextEvent(t, events, OpDelete).Err)
}

func TestEditPreservesIdentity(t *testing.T) {
	c := newController(t, openStore(t))
	require.NoError(t, c.Add("Flour"))
	require.NoError(t, c.Add("Butter"))
	waitIdle(t, c)
	require.NoError(t, c.ToggleBought(1))
	waitIdle(t, c)
	flour := c.Items()[1]

	require.NoError(t, c.EditName(flour, "Bread"))
	waitIdle(t, c)

	items := c.Items()
	assert.Equal(t, []string{"Butter", "Bread"}, names(items))
	assert.Equal(t, flour.ID, items[1].ID)
	assert.True(t, items[1].IsBought)

	assert.ErrorIs(t, c.EditName(flour, ""), ErrEmptyName)
}

func TestRestoreKeepsID(t *testing.T) {
	c := newController(t, openStore(t))
	require.NoError(t, c.Add("A"))
	require.NoError(t, c.Add("B"))
	waitIdle(t, c)
	a := c.Items()[1]

	require.NoError(t, c.Delete(a))
	require.NoError(t, c.Restore(a))
	waitIdle(t, c)
	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, a, items[1])

	assert.Error(t, c.Restore(model.ShoppingItem{Name: "new"}))
}

func TestSubscribersSeeEveryTask(t *testing.T) {
	c := newController(t, openStore(t))
	events := c.Subscribe(make(chan Event, 16))
	defer c.Unsubscribe(events)

	require.NoError(t, c.Add("Milk"))
	waitIdle(t, c)

	ev := nextEvent(t, events, OpAdd)
	assert.NoError(t, ev.Err)
	assert.Equal(t, []string{"Milk"}, names(ev.Items))
}

func TestClosedControllerRejectsCalls(t *testing.T) {
	c := New(context.Background(), openStore(t))
	require.NoError(t, c.Add("Milk"))
	require.NoError(t, c.Close(context.Background()))

	// Close drains what was queued before it.
	assert.Equal(t, []string{"Milk"}, names(c.Items()))
	assert.ErrorIs(t, c.Add("Eggs"), ErrClosed)
	assert.ErrorIs(t, c.Sync(context.Background()), ErrClosed)
	assert.NoError(t, c.Close(context.Background()))
}
