// Package store defines the durable item collection behind the shopping list.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/Makepad-fr/basket/internal/model"
)

// ErrEmptyName is returned when an item without a name reaches the store.
var ErrEmptyName = errors.New("item name is empty")

// Store is keyed CRUD over shopping items.
//
// ListAll orders by descending id, so the most recently created item comes
// first. Insert with a zero id assigns a fresh one; a non-zero id replaces any
// existing row with that id. Update and Delete of an unknown id are no-ops.
type Store interface {
	ListAll(ctx context.Context) ([]model.ShoppingItem, error)
	Insert(ctx context.Context, item model.ShoppingItem) (int64, error)
	Update(ctx context.Context, item model.ShoppingItem) error
	Delete(ctx context.Context, item model.ShoppingItem) error
	Close() error
}

// CheckName rejects blank names.
func CheckName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}
