package ui

import (
	"context"
	"reflect"
	"time"

	"github.com/atomicstack/nvim-bridge/internal/backend"
	"github.com/atomicstack/nvim-bridge/internal/data/dispatcher"
	"github.com/atomicstack/nvim-bridge/internal/input"
	"github.com/atomicstack/nvim-bridge/internal/state"
	"github.com/atomicstack/nvim-bridge/internal/theme"
	"github.com/atomicstack/nvim-bridge/internal/ui/command"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Editor is the remote side the UI forwards input and size changes to.
type Editor interface {
	Key(ctx context.Context, k input.KeyEvent) (bool, error)
	Text(ctx context.Context, text string) error
	Mouse(ctx context.Context, e input.MouseEvent) (bool, error)
	Paste(ctx context.Context, text string) error
	Resize(ctx context.Context, cols, rows int) (bool, error)
}

// Options configure the terminal surface.
type Options struct {
	// Width and Height pin the surface size; zero follows the terminal.
	Width  int
	Height int
	// QuitKey, when set, leaves the bridge without going through Neovim.
	QuitKey string
	// Multigrid reports that ext_multigrid was requested, so mouse events
	// carry real grid ids.
	Multigrid bool
	// HideStatus drops the status line below the grid.
	HideStatus bool
	// CommandTimeout bounds each forwarded request.
	CommandTimeout time.Duration
}

// Model implements the Bubble Tea model for one Neovim session.
type Model struct {
	opts   Options
	width  int
	height int

	state      *state.Model
	dispatcher *dispatcher.Dispatcher
	backend    *backend.Watcher
	editor     Editor
	bus        *command.Bus
	cancel     context.CancelFunc

	frame      string
	frameDirty bool
	styleCache *theme.Cache

	errMsg     string
	infoMsg    string
	infoExpire time.Time

	quit        key.Binding
	quitEnabled bool
	mouseButton input.MouseButton

	ended    bool
	exitCode int
	exitErr  error

	handlers map[reflect.Type]msgHandler
}

// NewModel wires the UI to an editor and the watcher of its session. Either
// may be nil in tests.
func NewModel(opts Options, editor Editor, watcher *backend.Watcher) *Model {
	cols, rows := opts.Width, opts.Height
	if !opts.HideStatus && rows > 1 {
		rows--
	}
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}
	model := state.NewModel(cols, rows)
	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		opts:       opts,
		width:      opts.Width,
		height:     opts.Height,
		state:      model,
		dispatcher: dispatcher.New(model),
		backend:    watcher,
		editor:     editor,
		bus:        command.New(ctx, opts.CommandTimeout),
		cancel:     cancel,
		frameDirty: true,
		styleCache: theme.NewCache(),
		exitCode:   -1,
	}
	if opts.QuitKey != "" {
		m.quit = key.NewBinding(key.WithKeys(opts.QuitKey), key.WithHelp(opts.QuitKey, "quit"))
		m.quitEnabled = true
	}
	m.registerHandlers()
	return m
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	if m.backend == nil {
		return nil
	}
	return waitForBackendEvent(m.backend)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if handler := m.handlerFor(msg); handler != nil {
		return m, handler(msg)
	}
	return m, nil
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):           m.handleKeyMsg,
		reflect.TypeOf(tea.MouseMsg{}):         m.handleMouseMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}):    m.handleWindowSizeMsg,
		reflect.TypeOf(command.ActionResult{}): m.handleActionResultMsg,
		reflect.TypeOf(backendEventMsg{}):      m.handleBackendEventMsg,
		reflect.TypeOf(backendDoneMsg{}):       m.handleBackendDoneMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

// State exposes the display state. It must only be read on the UI
// goroutine.
func (m *Model) State() *state.Model { return m.state }

// Ended reports whether the session is over, and how it ended.
func (m *Model) Ended() (bool, int, error) {
	return m.ended, m.exitCode, m.exitErr
}

// Close stops outstanding requests.
func (m *Model) Close() {
	m.cancel()
}

// quitCmd stops the program and the bus behind it.
func (m *Model) quitCmd() tea.Cmd {
	m.cancel()
	return tea.Quit
}
