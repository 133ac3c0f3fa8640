// Package tui is the interactive shopping list screen.
//
// It owns no list state of its own: it renders whatever the controller last
// published and turns key presses into controller calls.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/basket/internal/controller"
	"github.com/Makepad-fr/basket/internal/model"
)

// listItem adapts a ShoppingItem to bubbles/list.Item. pos is the item's
// position in the controller's list, which is what ToggleBought expects even
// while the view is filtered.
type listItem struct {
	item model.ShoppingItem
	pos  int
}

func (i listItem) Title() string {
	box := boxUnchecked
	if i.item.IsBought {
		box = boxChecked
	}
	return fmt.Sprintf("%s %s", box, i.item.Name)
}
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.item.Name }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	box, text := mutedStyle.Render(boxUnchecked), it.item.Name
	if it.item.IsBought {
		box, text = successStyle.Render(boxChecked), boughtStyle.Render(text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

type eventMsg controller.Event

type closedMsg struct{}

func waitForEvent(ch chan controller.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

type keyMap struct {
	Toggle, Add, Edit, Delete, Undo, Quit key.Binding
}

var keys = keyMap{
	Toggle: key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "bought")),
	Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Undo:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
}

type Model struct {
	ctl    *controller.Controller
	events chan controller.Event

	list list.Model
	ti   textinput.Model // shared by add & edit

	adding   bool
	editing  bool
	editItem model.ShoppingItem
	inputErr string

	status string // last error reported by the controller

	// Undo support (single-level, delete only)
	undoItem *model.ShoppingItem

	width, height int
}

// New subscribes to ctl and seeds the list with its current items.
func New(ctl *controller.Controller) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")
	extra := func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Add, keys.Edit, keys.Delete, keys.Undo}
	}
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := Model{
		ctl:    ctl,
		events: ctl.Subscribe(make(chan controller.Event, 16)),
		list:   l,
		ti:     ti,
		width:  80,
		height: 24,
	}
	m.setItems(ctl.Items())
	return m
}

// Run shows the list until the user quits.
func Run(ctx context.Context, ctl *controller.Controller, opts ...tea.ProgramOption) error {
	m := New(ctl)
	defer ctl.Unsubscribe(m.events)
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}

func (m *Model) setItems(items []model.ShoppingItem) tea.Cmd {
	li := make([]list.Item, 0, len(items))
	for i, it := range items {
		li = append(li, listItem{item: it, pos: i})
	}
	bought, pending := model.Stats(items)
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Shopping"),
		successStyle.Render("✔"), bought,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), len(items),
	)
	return m.list.SetItems(li)
}

func (m *Model) selected() (listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it, ok
}

// report keeps synchronous controller rejections visible.
func (m *Model) report(err error) {
	if err != nil {
		m.status = err.Error()
	}
}

func (m *Model) closeInput() {
	m.adding, m.editing = false, false
	m.inputErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
}

func (m Model) Init() tea.Cmd { return waitForEvent(m.events) }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.status = ""
		if msg.Err != nil {
			m.status = msg.Err.Error()
		}
		cmd := m.setItems(msg.Items)
		return m, tea.Batch(cmd, waitForEvent(m.events))
	case closedMsg:
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	}

	if m.adding || m.editing {
		return m.updateInput(msg)
	}

	kmsg, isKey := msg.(tea.KeyMsg)
	if !isKey || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(kmsg, keys.Quit) && m.list.FilterState() == list.Unfiltered:
		return m, tea.Quit
	case key.Matches(kmsg, keys.Toggle):
		if it, ok := m.selected(); ok {
			m.report(m.ctl.ToggleBought(it.pos))
		}
		return m, nil
	case key.Matches(kmsg, keys.Delete):
		if it, ok := m.selected(); ok {
			deleted := it.item
			m.undoItem = &deleted
			m.report(m.ctl.Delete(deleted))
		}
		return m, nil
	case key.Matches(kmsg, keys.Undo):
		if m.undoItem != nil {
			m.report(m.ctl.Restore(*m.undoItem))
			m.undoItem = nil
		}
		return m, nil
	case key.Matches(kmsg, keys.Add):
		m.adding = true
		m.ti.SetValue("")
		m.ti.Placeholder = "New item name..."
		return m, m.ti.Focus()
	case key.Matches(kmsg, keys.Edit):
		if it, ok := m.selected(); ok {
			m.editing = true
			m.editItem = it.item
			m.ti.SetValue(it.item.Name)
			m.ti.CursorEnd()
			m.ti.Placeholder = "Edit item name..."
			return m, m.ti.Focus()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if x, ok := msg.(tea.KeyMsg); ok {
		switch x.String() {
		case "enter":
			name := strings.TrimSpace(m.ti.Value())
			if name == "" {
				m.inputErr = "Name cannot be empty"
				return m, nil
			}
			if m.adding {
				m.report(m.ctl.Add(name))
			} else {
				m.report(m.ctl.EditName(m.editItem, name))
			}
			m.closeInput()
			return m, nil
		case "esc":
			m.closeInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	listHeight := m.height - 4
	if m.adding || m.editing {
		listHeight -= 2
	}
	if m.status != "" {
		listHeight--
	}
	m.list.SetSize(m.width-2, max(listHeight, 1))

	content := m.list.View()
	if m.adding || m.editing {
		title := "Add new item"
		if m.editing {
			title = "Edit item"
		}
		if m.inputErr != "" {
			title += " · " + errorStyle.Render(m.inputErr)
		}
		content += "\n" + frameStyle.Render(title+"\n"+m.ti.View())
	}
	if m.status != "" {
		content += "\n" + errorStyle.Render("✖ "+m.status)
	}
	return frameStyle.Render(content)
}
