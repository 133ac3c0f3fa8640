package cli

import (
	"fmt"
	"io"

	"github.com/Makepad-fr/basket/internal/model"
	"github.com/Makepad-fr/basket/internal/ui"
)

func renderList(w io.Writer, items []model.ShoppingItem, group bool) {
	t := ui.Current()
	bought, pending := model.Stats(items)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(t.Heading, "Shopping"),
		ui.C(t.Bought, t.MarkBought), bought,
		ui.C(t.Pending, t.MarkPending), pending,
		ui.C(t.Total, "Total"), len(items),
	)

	var lines []string
	lines = append(lines, header)
	lines = append(lines, ui.C(t.Hint, ui.ProgressBar(bought, len(items), 28)))
	lines = append(lines, "")
	if group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items, nil)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Hint, "Tip: add with `basket add \"Milk\"`"))
	ui.Panel(w, lines)
}

// flatLines renders items; pos, when set, gives each item's 1-based index in
// the full list so grouped output still shows usable indexes.
func flatLines(items []model.ShoppingItem, pos []int) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{ui.C(t.Hint, "no items")}
	}
	out := make([]string, 0, len(items))
	for i, it := range items {
		n := i + 1
		if pos != nil {
			n = pos[i]
		}
		box, color := t.BoxPending, t.Pending
		if it.IsBought {
			box, color = t.BoxBought, t.Bought
		}
		name := it.Name
		if r := []rune(name); len(r) > 80 {
			name = string(r[:77]) + "..."
		}
		out = append(out, fmt.Sprintf("%s %s %s", ui.Dim(fmt.Sprintf("%2d.", n)), ui.C(color, box), name))
	}
	return out
}

func groupLines(items []model.ShoppingItem) []string {
	var (
		pend, bought       []model.ShoppingItem
		pendPos, boughtPos []int
	)
	for i, it := range items {
		if it.IsBought {
			bought, boughtPos = append(bought, it), append(boughtPos, i+1)
		} else {
			pend, pendPos = append(pend, it), append(pendPos, i+1)
		}
	}
	t := ui.Current()
	section := func(title string, items []model.ShoppingItem, pos []int) []string {
		lines := []string{ui.C(t.Heading, title)}
		if len(items) == 0 {
			return append(lines, ui.C(t.Hint, "(none)"))
		}
		return append(lines, flatLines(items, pos)...)
	}
	lines := section("Pending", pend, pendPos)
	lines = append(lines, "")
	return append(lines, section("Bought", bought, boughtPos)...)
}
