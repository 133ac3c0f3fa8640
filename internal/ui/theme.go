package ui

import "strings"

// Frame is the box drawn around a rendered list.
type Frame struct {
	TL, TR, BL, BR string
	H, V           string
}

// Theme decides how bought and pending items look in list output.
type Theme struct {
	Heading, Hint, Total string
	Bought, Pending      string
	Problem              string

	// BoxPending and BoxBought are the per-row checkboxes.
	BoxPending, BoxBought string
	// MarkBought and MarkPending prefix the header counters.
	MarkBought, MarkPending string
	MarkOK, MarkFail        string

	Frame Frame
	// Plain disables color regardless of the color mode.
	Plain bool
}

var themes = map[string]Theme{
	"classic": {
		Heading: bold, Hint: gray, Total: blue,
		Bought: green, Pending: yellow, Problem: red,
		BoxPending: "☐", BoxBought: "☑",
		MarkBought: "✔", MarkPending: "•", MarkOK: "✔", MarkFail: "✖",
		Frame: Frame{TL: "┌", TR: "┐", BL: "└", BR: "┘", H: "─", V: "│"},
	},
	"neon": {
		Heading: magenta, Hint: gray, Total: cyan,
		Bought: green, Pending: amber, Problem: red,
		BoxPending: "◻", BoxBought: "◼",
		MarkBought: "✔", MarkPending: "•", MarkOK: "✔", MarkFail: "✖",
		Frame: Frame{TL: "╭", TR: "╮", BL: "╰", BR: "╯", H: "─", V: "│"},
	},
	"mono": {
		BoxPending: "[ ]", BoxBought: "[x]",
		MarkBought: "x", MarkPending: "-", MarkOK: "ok:", MarkFail: "error:",
		Frame: Frame{TL: "+", TR: "+", BL: "+", BR: "+", H: "-", V: "|"},
		Plain: true,
	},
}

var current = themes["classic"]

// SetTheme selects a theme by name; unknown names fall back to classic.
func SetTheme(name string) {
	t, ok := themes[strings.ToLower(name)]
	if !ok {
		t = themes["classic"]
	}
	current = t
}

func Current() Theme { return current }
