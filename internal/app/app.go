package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/atomicstack/nvim-bridge/internal/backend"
	"github.com/atomicstack/nvim-bridge/internal/input"
	"github.com/atomicstack/nvim-bridge/internal/logging/events"
	"github.com/atomicstack/nvim-bridge/internal/session"
	"github.com/atomicstack/nvim-bridge/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Config describes user-provided application options.
type Config struct {
	NvimBinary string
	NvimArgs   []string
	Files      []string
	Timeout    time.Duration
	EnableSwap bool

	// NoFork and DisableWinRestore are recorded for traces only.
	NoFork            bool
	DisableWinRestore bool

	Width      int
	Height     int
	Extensions []string
	QuitKey    string

	// InitialInput is piped stdin, loaded into the first buffer.
	InitialInput string
	// InputTTY makes the program read keys from the controlling terminal,
	// for when stdin was a pipe.
	InputTTY bool
}

// startSession is swapped in tests.
var startSession = session.Start

// editor joins the session's input dispatcher and its resize call into
// what the UI forwards to.
type editor struct {
	*input.Dispatcher
	session *session.Session
}

func (e editor) Resize(ctx context.Context, cols, rows int) (bool, error) {
	return e.session.Resize(ctx, cols, rows)
}

// Run bootstraps the session and executes the Bubble Tea program. The
// returned code is nvim's exit status.
func Run(cfg Config) (int, error) {
	width, height := surfaceSize(cfg)
	cols, rows := width, height-1

	ctx := context.Background()
	sess, err := startSession(ctx, session.Config{
		Binary:       cfg.NvimBinary,
		Args:         cfg.NvimArgs,
		Files:        cfg.Files,
		EnableSwap:   cfg.EnableSwap,
		Timeout:      cfg.Timeout,
		Cols:         cols,
		Rows:         rows,
		Extensions:   cfg.Extensions,
		InitialInput: cfg.InitialInput,
	})
	if err != nil {
		return 1, fmt.Errorf("start nvim: %w", err)
	}
	defer sess.Close(context.Background())

	watcher := backend.NewWatcher(sess)
	defer watcher.Stop()

	model := ui.NewModel(ui.Options{
		Width:     cfg.Width,
		Height:    cfg.Height,
		QuitKey:   cfg.QuitKey,
		Multigrid: slices.Contains(cfg.Extensions, "ext_multigrid"),
	}, editor{Dispatcher: sess.Input(), session: sess}, watcher)
	defer model.Close()

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseAllMotion()}
	if cfg.InputTTY {
		opts = append(opts, tea.WithInputTTY())
	}
	program := tea.NewProgram(model, opts...)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return 1, err
	}

	ended, code, endErr := model.Ended()
	code = exitCode(ended, code)
	events.App.Exit(code)
	if endErr != nil {
		return 1, fmt.Errorf("nvim connection: %w", endErr)
	}
	return code, nil
}

// exitCode is the status the bridge exits with. Leaving through the quit
// key is a success since nvim is asked to quit by Close. An editor whose
// status is unknown counts as a failure.
func exitCode(ended bool, code int) int {
	switch {
	case !ended:
		return 0
	case code < 0:
		return 1
	default:
		return code
	}
}

// surfaceSize is the pinned size, or the terminal's, or 80x24.
func surfaceSize(cfg Config) (int, int) {
	width, height := cfg.Width, cfg.Height
	if width > 0 && height > 0 {
		return width, height
	}
	tw, th, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || tw <= 0 || th <= 0 {
		tw, th = session.DefaultCols, session.DefaultRows+1
	}
	if width <= 0 {
		width = tw
	}
	if height <= 0 {
		height = th
	}
	return width, height
}
