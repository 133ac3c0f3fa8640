package model

// ShoppingItem is one row of the shopping list.
// ID is zero until the store has persisted the item.
type ShoppingItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsBought bool   `json:"is_bought"`
}

// WithBought returns a copy with IsBought set to b.
func (it ShoppingItem) WithBought(b bool) ShoppingItem {
	it.IsBought = b
	return it
}

// WithName returns a copy renamed to name.
func (it ShoppingItem) WithName(name string) ShoppingItem {
	it.Name = name
	return it
}

// Persisted reports whether the store has assigned an id.
func (it ShoppingItem) Persisted() bool { return it.ID > 0 }

// Stats counts bought and pending items.
func Stats(items []ShoppingItem) (bought, pending int) {
	for _, it := range items {
		if it.IsBought {
			bought++
		} else {
			pending++
		}
	}
	return
}
