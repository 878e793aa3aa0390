package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/atomicstack/nvim-bridge/internal/input"
	"github.com/atomicstack/nvim-bridge/internal/logging/events"
	"github.com/atomicstack/nvim-bridge/internal/nvim"
	"github.com/atomicstack/nvim-bridge/internal/redraw"
	"github.com/atomicstack/nvim-bridge/internal/rpc"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

var ErrStartupTimeout = errors.New("nvim did not answer in time")

const (
	DefaultTimeout    = 10 * time.Second
	DefaultCloseGrace = 2 * time.Second
	DefaultCols       = 80
	DefaultRows       = 24
)

// Config describes one session.
type Config struct {
	Binary     string
	Args       []string
	Files      []string
	EnableSwap bool
	Dir        string

	// Timeout bounds spawning, the api info call and attach.
	Timeout    time.Duration
	CloseGrace time.Duration

	Cols       int
	Rows       int
	Extensions []string

	// InitialInput replaces the first buffer's content when non-empty.
	InitialInput string

	// Subscriptions defaults to DefaultSubscriptions when nil.
	Subscriptions []Subscription

	RedrawQueue    int
	ResizeInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.CloseGrace <= 0 {
		c.CloseGrace = DefaultCloseGrace
	}
	if c.Cols <= 0 {
		c.Cols = DefaultCols
	}
	if c.Rows <= 0 {
		c.Rows = DefaultRows
	}
	if c.Subscriptions == nil {
		c.Subscriptions = DefaultSubscriptions()
	}
	if c.ResizeInterval <= 0 {
		c.ResizeInterval = DefaultResizeInterval
	}
	return c
}

// Editor is the child side of a session.
type Editor interface {
	Conn() io.ReadWriteCloser
	Done() <-chan struct{}
	ExitCode() int
	Terminate(grace time.Duration) (nvim.Termination, error)
}

// spawn is swapped in tests.
var spawn = func(ctx context.Context, opts nvim.Options) (Editor, error) {
	return nvim.Spawn(ctx, opts)
}

// Ended reports the end of a session. Err is set when the connection
// failed while the editor was still running.
type Ended struct {
	Code int
	Err  error
}

// Session is one editor process, its RPC connection and the bridge state
// around it.
type Session struct {
	id      string
	cfg     Config
	editor  Editor
	client  *rpc.Client
	redraws *redraw.Reconciler
	subs    *SubscriptionManager
	input   *input.Dispatcher
	channel int64

	ended     chan Ended
	closing   chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Start spawns the editor, attaches and registers subscriptions. Any
// failure tears the child down again.
func Start(ctx context.Context, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	id := uuid.NewString()
	opts := nvim.Options{
		Binary:     cfg.Binary,
		Args:       cfg.Args,
		Files:      cfg.Files,
		EnableSwap: cfg.EnableSwap,
		Dir:        cfg.Dir,
	}
	events.Session.Start(id, cfg.Binary, nvim.CommandArgs(opts))

	startCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	editor, err := spawn(startCtx, opts)
	if err != nil {
		events.Session.StartFailed(id, err)
		return nil, fmt.Errorf("spawn nvim: %w", err)
	}

	s := &Session{
		id:      id,
		cfg:     cfg,
		editor:  editor,
		redraws: redraw.NewReconciler(cfg.RedrawQueue),
		ended:   make(chan Ended, 1),
		closing: make(chan struct{}),
	}
	s.client = rpc.NewClient(editor.Conn(), rpc.WithNotificationHandler(s.route))
	s.subs = NewSubscriptionManager(id, s.client, UIOptions{Extensions: cfg.Extensions}, cfg.ResizeInterval)
	for _, sub := range cfg.Subscriptions {
		s.subs.Subscribe(sub)
	}

	if err := s.handshake(startCtx); err != nil {
		if errors.Is(startCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", ErrStartupTimeout, cfg.Timeout, err)
		}
		events.Session.StartFailed(id, err)
		// closing stdin makes an embedded nvim exit on its own
		_ = s.client.Close()
		_ = s.teardown()
		return nil, err
	}
	s.input = input.NewDispatcher(s.client)
	go s.watch()
	return s, nil
}

func (s *Session) handshake(ctx context.Context) error {
	info, err := s.client.Call(ctx, "nvim_get_api_info")
	if err != nil {
		return fmt.Errorf("api info: %w", err)
	}
	items, err := info.AsArray()
	if err != nil || len(items) < 1 {
		return fmt.Errorf("api info: unexpected result %s", info)
	}
	if s.channel, err = items[0].AsInt(); err != nil {
		return fmt.Errorf("api info channel: %w", err)
	}
	if err := s.subs.Attach(ctx, s.cfg.Cols, s.cfg.Rows); err != nil {
		return err
	}
	if err := s.subs.Register(ctx, s.channel); err != nil {
		return err
	}
	if s.cfg.InitialInput != "" {
		if err := s.loadInput(ctx, s.cfg.InitialInput); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) loadInput(ctx context.Context, text string) error {
	events.Session.InitialInput(s.id, humanize.Bytes(uint64(len(text))))
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	_, err := s.client.Call(ctx, "nvim_buf_set_lines",
		rpc.Int(0), rpc.Int(0), rpc.Int(-1), rpc.Bool(false), rpc.Strings(lines...))
	if err != nil {
		return fmt.Errorf("load initial input: %w", err)
	}
	return nil
}

// route runs on the read goroutine.
func (s *Session) route(n rpc.Notification) {
	if s.redraws.HandleNotification(n) {
		return
	}
	if s.subs.Handle(n) {
		return
	}
	events.RPC.UnhandledNotification(n.Method)
}

// watch waits for either the editor or the connection to go away.
func (s *Session) watch() {
	var err error
	select {
	case <-s.editor.Done():
	case <-s.client.Done():
		select {
		case <-s.editor.Done():
		case <-s.closing:
		case <-time.After(s.cfg.CloseGrace):
			err = s.client.Err()
		}
	}
	select {
	case <-s.closing:
		err = nil
	default:
	}
	code := s.editor.ExitCode()
	events.Session.Ended(s.id, code, err)
	s.ended <- Ended{Code: code, Err: err}
	close(s.ended)
	_ = s.Close(context.Background())
}

func (s *Session) ID() string { return s.id }

// Channel is the RPC channel id Neovim assigned to us.
func (s *Session) Channel() int64 { return s.channel }

// Redraws yields flushed redraw batches.
func (s *Session) Redraws() <-chan redraw.Batch { return s.redraws.Batches() }

// Subscriptions yields fired autocmd subscriptions.
func (s *Session) Subscriptions() <-chan SubscriptionEvent { return s.subs.Events() }

// Ended receives exactly one value when the session is over.
func (s *Session) Ended() <-chan Ended { return s.ended }

// Input is the dispatcher for local input. The UI is attached by the time
// Start returns.
func (s *Session) Input() *input.Dispatcher { return s.input }

func (s *Session) Size() (int, int) { return s.subs.Size() }

func (s *Session) Resize(ctx context.Context, cols, rows int) (bool, error) {
	return s.subs.Resize(ctx, cols, rows)
}

func (s *Session) Call(ctx context.Context, method string, params ...rpc.Value) (rpc.Value, error) {
	return s.client.Call(ctx, method, params...)
}

func (s *Session) Notify(ctx context.Context, method string, params ...rpc.Value) error {
	return s.client.Notify(ctx, method, params...)
}

// Close asks the editor to quit, terminates it after the grace period,
// cancels waiting callers and drops queued redraw batches.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.closing)
		notifyCtx, cancel := context.WithTimeout(ctx, s.cfg.CloseGrace)
		_ = s.client.Notify(notifyCtx, "nvim_command", rpc.String("qa!"))
		cancel()
		s.closeErr = s.teardown()
	})
	return s.closeErr
}

func (s *Session) teardown() error {
	_, err := s.editor.Terminate(s.cfg.CloseGrace)
	_ = s.client.Close()
	s.redraws.Close()
	s.subs.close()
	return err
}
