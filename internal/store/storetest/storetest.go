// Package storetest holds the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/basket/internal/model"
	"github.com/Makepad-fr/basket/internal/store"
)

// Run exercises s. newStore must return an empty store for each call.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("EmptyList", func(t *testing.T) {
		s := newStore(t)
		items, err := s.ListAll(context.Background())
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("InsertAssignsIncreasingIDs", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		a, err := s.Insert(ctx, model.ShoppingItem{Name: "A"})
		require.NoError(t, err)
		b, err := s.Insert(ctx, model.ShoppingItem{Name: "B"})
		require.NoError(t, err)
		assert.Greater(t, a, int64(0))
		assert.Greater(t, b, a)
	})

	t.Run("ListAllNewestFirst", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		for _, n := range []string{"A", "B", "C"} {
			_, err := s.Insert(ctx, model.ShoppingItem{Name: n})
			require.NoError(t, err)
		}
		items, err := s.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, []string{"C", "B", "A"}, names(items))
		assert.False(t, items[0].IsBought)
	})

	t.Run("InsertWithIDReplaces", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		id, err := s.Insert(ctx, model.ShoppingItem{Name: "Milk"})
		require.NoError(t, err)

		got, err := s.Insert(ctx, model.ShoppingItem{ID: id, Name: "Oat milk", IsBought: true})
		require.NoError(t, err)
		assert.Equal(t, id, got)

		items, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.ShoppingItem{{ID: id, Name: "Oat milk", IsBought: true}}, items)
	})

	t.Run("InsertWithUnusedIDRecreates", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		id, err := s.Insert(ctx, model.ShoppingItem{Name: "Eggs"})
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, model.ShoppingItem{ID: id}))

		_, err = s.Insert(ctx, model.ShoppingItem{ID: id, Name: "Eggs"})
		require.NoError(t, err)
		next, err := s.Insert(ctx, model.ShoppingItem{Name: "Ham"})
		require.NoError(t, err)
		assert.Greater(t, next, id)

		items, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Ham", "Eggs"}, names(items))
	})

	t.Run("Update", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		id, err := s.Insert(ctx, model.ShoppingItem{Name: "Bread"})
		require.NoError(t, err)
		require.NoError(t, s.Update(ctx, model.ShoppingItem{ID: id, Name: "Rye", IsBought: true}))

		items, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.ShoppingItem{{ID: id, Name: "Rye", IsBought: true}}, items)
	})

	t.Run("UpdateMissingIsNoop", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Update(ctx, model.ShoppingItem{ID: 42, Name: "Ghost"}))
		items, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("DeleteRemovesExactlyOne", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		a, err := s.Insert(ctx, model.ShoppingItem{Name: "A"})
		require.NoError(t, err)
		_, err = s.Insert(ctx, model.ShoppingItem{Name: "B"})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, model.ShoppingItem{ID: a, Name: "A"}))
		require.NoError(t, s.Delete(ctx, model.ShoppingItem{ID: a, Name: "A"}))

		items, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, names(items))
	})

	t.Run("RejectsEmptyName", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		_, err := s.Insert(ctx, model.ShoppingItem{Name: "  "})
		assert.ErrorIs(t, err, store.ErrEmptyName)

		id, err := s.Insert(ctx, model.ShoppingItem{Name: "Tea"})
		require.NoError(t, err)
		assert.ErrorIs(t, s.Update(ctx, model.ShoppingItem{ID: id}), store.ErrEmptyName)
	})
}

func names(items []model.ShoppingItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}
