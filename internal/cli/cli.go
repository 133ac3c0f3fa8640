package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/basket/internal/config"
	"github.com/Makepad-fr/basket/internal/controller"
	"github.com/Makepad-fr/basket/internal/logging"
	"github.com/Makepad-fr/basket/internal/model"
	"github.com/Makepad-fr/basket/internal/tui"
	"github.com/Makepad-fr/basket/internal/ui"
)

// Version is overridden at build time.
var Version = "dev"

type CLI struct {
	Config config.Config `embed:""`

	Version kong.VersionFlag `help:"Show version."`

	UI     UICmd     `cmd:"" default:"1" help:"Interactive list (the default)."`
	Ls     LsCmd     `cmd:"" help:"List items."`
	Add    AddCmd    `cmd:"" help:"Add a new item (name can be multiple words)."`
	Toggle ToggleCmd `cmd:"" aliases:"done" help:"Toggle bought for the item at a 1-based index."`
	Rm     RmCmd     `cmd:"" help:"Remove the item at a 1-based index."`
	Edit   EditCmd   `cmd:"" help:"Rename the item at a 1-based index."`
}

// Env is what every subcommand runs against.
type Env struct {
	ctx    context.Context
	Ctl    *controller.Controller
	Stdout io.Writer
	Stderr io.Writer
}

type exitCode int

// usageError marks failures caused by the arguments rather than the store.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// Run parses args, runs the selected subcommand and returns an exit code
// (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("basket"),
		kong.Description("basket - a tiny shopping list"),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": Version},
		kong.Exit(func(c int) { panic(exitCode(c)) }),
	)
	if err != nil {
		ui.Fail(stderr, err.Error())
		return 1
	}
	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	kctx, err := parser.Parse(args)
	if err != nil {
		ui.Fail(stderr, err.Error())
		fmt.Fprintln(stderr, ui.Dim("Hint: run `basket --help` for usage"))
		return 2
	}

	ui.SetColorMode(cli.Config.Color)
	ui.SetTheme(cli.Config.Theme)

	logOut, closeLog, err := logWriter(&cli.Config, strings.HasPrefix(kctx.Command(), "ui"), stderr)
	if err != nil {
		ui.Fail(stderr, "log file: "+err.Error())
		return 1
	}
	defer closeLog()
	logger := logging.Init(logOut, cli.Config.LogLevel, cli.Config.LogFormat)

	s, err := cli.Config.OpenStore()
	if err != nil {
		ui.Fail(stderr, "open store: "+err.Error())
		return 1
	}
	defer s.Close()

	ctl := controller.New(ctx, s,
		controller.WithQueueSize(cli.Config.QueueSize),
		controller.WithLogger(logger),
	)
	defer ctl.Close(context.Background())

	env := &Env{ctx: ctx, Ctl: ctl, Stdout: stdout, Stderr: stderr}
	if err := env.do(controller.OpLoad, ctl.Load, ""); err != nil {
		ui.Fail(stderr, err.Error())
		return 1
	}
	if err := kctx.Run(env); err != nil {
		ui.Fail(stderr, err.Error())
		return exitCodeFor(err)
	}
	return 0
}

func exitCodeFor(err error) int {
	var (
		uerr usageError
		ierr *controller.IndexError
	)
	switch {
	case errors.As(err, &uerr), errors.As(err, &ierr), errors.Is(err, controller.ErrEmptyName):
		return 2
	default:
		return 1
	}
}

// logWriter picks where logs go. The interactive screen owns the terminal, so
// without a log file its logs are dropped.
func logWriter(cfg *config.Config, interactive bool, stderr io.Writer) (io.Writer, func(), error) {
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "basket")
		if err != nil {
			return nil, nil, err
		}
		return f, func() { _ = f.Close() }, nil
	}
	if interactive {
		return io.Discard, func() {}, nil
	}
	return stderr, func() {}, nil
}

// do issues call and waits for the event of op it produces. A non-empty done
// is printed on success.
func (e *Env) do(op controller.Op, call func() error, done string) error {
	events := e.Ctl.Subscribe(make(chan controller.Event, 16))
	defer e.Ctl.Unsubscribe(events)
	if err := call(); err != nil {
		return err
	}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return controller.ErrClosed
			}
			if ev.Op != op {
				continue
			}
			if ev.Err != nil {
				return ev.Err
			}
			if done != "" {
				ui.OK(e.Stdout, done)
			}
			return nil
		case <-e.ctx.Done():
			return e.ctx.Err()
		}
	}
}

// at resolves a 1-based index against the current list.
func (e *Env) at(userIndex int) (model.ShoppingItem, error) {
	items := e.Ctl.Items()
	if userIndex < 1 || userIndex > len(items) {
		return model.ShoppingItem{}, usageError{fmt.Sprintf("index out of range: have %d, got %d", len(items), userIndex)}
	}
	return items[userIndex-1], nil
}

type UICmd struct{}

func (c *UICmd) Run(env *Env) error {
	if err := tui.Run(env.ctx, env.Ctl); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

type LsCmd struct {
	Group bool `help:"Group output by pending/bought."`
}

func (c *LsCmd) Run(env *Env) error {
	renderList(env.Stdout, env.Ctl.Items(), c.Group)
	return nil
}

type AddCmd struct {
	Name []string `arg:"" help:"Item name."`
}

func (c *AddCmd) Run(env *Env) error {
	name := strings.Join(c.Name, " ")
	return env.do(controller.OpAdd, func() error { return env.Ctl.Add(name) }, "added")
}

type ToggleCmd struct {
	Index int `arg:"" help:"1-based index as shown by ls."`
}

func (c *ToggleCmd) Run(env *Env) error {
	if _, err := env.at(c.Index); err != nil {
		return err
	}
	return env.do(controller.OpToggle, func() error { return env.Ctl.ToggleBought(c.Index - 1) }, "toggled")
}

type RmCmd struct {
	Index int `arg:"" help:"1-based index as shown by ls."`
}

func (c *RmCmd) Run(env *Env) error {
	it, err := env.at(c.Index)
	if err != nil {
		return err
	}
	return env.do(controller.OpDelete, func() error { return env.Ctl.Delete(it) }, "removed")
}

type EditCmd struct {
	Index int      `arg:"" help:"1-based index as shown by ls."`
	Name  []string `arg:"" help:"New name."`
}

func (c *EditCmd) Run(env *Env) error {
	it, err := env.at(c.Index)
	if err != nil {
		return err
	}
	name := strings.Join(c.Name, " ")
	return env.do(controller.OpEdit, func() error { return env.Ctl.EditName(it, name) }, "renamed")
}
