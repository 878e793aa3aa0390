package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atomicstack/nvim-bridge/internal/logging/events"
	"github.com/atomicstack/nvim-bridge/internal/rpc"
)

var (
	ErrAlreadyAttached = errors.New("ui already attached")
	ErrNotAttached     = errors.New("ui not attached")
)

// SubscriptionMethod is the notification autocmds report through.
const SubscriptionMethod = "subscription"

// augroup holds every autocmd a session installs.
const augroup = "nvim_bridge"

// KnownExtensions are the UI extensions that may be requested at attach.
// rgb and ext_linegrid are always on.
var KnownExtensions = []string{
	"ext_cmdline",
	"ext_hlstate",
	"ext_messages",
	"ext_multigrid",
	"ext_popupmenu",
	"ext_tabline",
	"ext_termcolors",
	"ext_wildmenu",
}

// UIOptions are the capabilities declared by nvim_ui_attach.
type UIOptions struct {
	Extensions []string
}

func (o UIOptions) values() map[string]bool {
	opts := map[string]bool{"rgb": true, "ext_linegrid": true}
	for _, ext := range o.Extensions {
		opts[ext] = true
	}
	return opts
}

// Subscription is one autocmd forwarded to us. Args are Vim expressions
// evaluated when the event fires.
type Subscription struct {
	Key     string
	Event   string
	Pattern string
	Args    []string
}

func DefaultSubscriptions() []Subscription {
	return []Subscription{
		{Key: "mode", Event: "ModeChanged", Args: []string{"v:event.new_mode"}},
		{Key: "cursor", Event: "CursorMoved,CursorMovedI", Args: []string{"line('.')", "col('.')"}},
		{Key: "buffer", Event: "BufEnter", Args: []string{"expand('<afile>:p')"}},
	}
}

func (s Subscription) command(channel int64) string {
	pattern := s.Pattern
	if pattern == "" {
		pattern = "*"
	}
	args := []string{fmt.Sprint(channel), "'" + SubscriptionMethod + "'", "'" + s.Key + "'"}
	args = append(args, s.Args...)
	return fmt.Sprintf("autocmd %s %s %s call rpcnotify(%s)", augroup, s.Event, pattern, strings.Join(args, ", "))
}

// SubscriptionEvent is one fired subscription.
type SubscriptionEvent struct {
	Key  string
	Args []rpc.Value
}

type caller interface {
	Call(ctx context.Context, method string, params ...rpc.Value) (rpc.Value, error)
}

// SubscriptionManager owns the attach handshake, resizes and autocmd
// subscriptions of one session.
type SubscriptionManager struct {
	sessionID string
	rpc       caller
	opts      UIOptions
	throttle  *throttle

	mu       sync.Mutex
	attached bool
	cols     int
	rows     int
	subs     []Subscription

	events    chan SubscriptionEvent
	done      chan struct{}
	closeOnce sync.Once
}

// DefaultSubscriptionQueue bounds fired subscriptions waiting for the
// presentation goroutine.
const DefaultSubscriptionQueue = 32

// DefaultResizeInterval is the minimum time between resize requests.
const DefaultResizeInterval = 16 * time.Millisecond

func NewSubscriptionManager(sessionID string, c caller, opts UIOptions, resizeInterval time.Duration) *SubscriptionManager {
	return &SubscriptionManager{
		sessionID: sessionID,
		rpc:       c,
		opts:      opts,
		throttle:  newThrottle(resizeInterval),
		events:    make(chan SubscriptionEvent, DefaultSubscriptionQueue),
		done:      make(chan struct{}),
	}
}

// Attach declares the grid size and capabilities. It succeeds at most once.
func (m *SubscriptionManager) Attach(ctx context.Context, cols, rows int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attached {
		return ErrAlreadyAttached
	}
	opts := m.opts.values()
	fields := make(map[string]rpc.Value, len(opts))
	for k, v := range opts {
		fields[k] = rpc.Bool(v)
	}
	events.Session.Attach(m.sessionID, cols, rows, opts)
	if _, err := m.rpc.Call(ctx, "nvim_ui_attach", rpc.Int(int64(cols)), rpc.Int(int64(rows)), rpc.Dict(fields)); err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	m.attached = true
	m.cols, m.rows = cols, rows
	return nil
}

func (m *SubscriptionManager) Attached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attached
}

// Size is the last grid size Neovim accepted.
func (m *SubscriptionManager) Size() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cols, m.rows
}

// Resize asks Neovim to resize the outer grid. Unchanged sizes are not
// sent; it reports whether a request went out.
func (m *SubscriptionManager) Resize(ctx context.Context, cols, rows int) (bool, error) {
	m.mu.Lock()
	if !m.attached {
		m.mu.Unlock()
		return false, ErrNotAttached
	}
	if cols == m.cols && rows == m.rows {
		m.mu.Unlock()
		return false, nil
	}
	m.mu.Unlock()

	if err := m.throttle.wait(ctx); err != nil {
		return false, err
	}
	events.Session.Resize(m.sessionID, cols, rows)
	if _, err := m.rpc.Call(ctx, "nvim_ui_try_resize", rpc.Int(int64(cols)), rpc.Int(int64(rows))); err != nil {
		return false, fmt.Errorf("resize: %w", err)
	}
	m.mu.Lock()
	m.cols, m.rows = cols, rows
	m.mu.Unlock()
	return true, nil
}

// Subscribe queues a subscription for the next Register.
func (m *SubscriptionManager) Subscribe(sub Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, sub)
}

// Register installs every queued subscription in one atomic call. The
// augroup is cleared first so registering again replaces the set.
func (m *SubscriptionManager) Register(ctx context.Context, channel int64) error {
	m.mu.Lock()
	subs := append([]Subscription(nil), m.subs...)
	m.mu.Unlock()
	if len(subs) == 0 {
		return nil
	}

	calls := []rpc.Value{
		rpc.Array(rpc.String("nvim_command"), rpc.Strings(fmt.Sprintf("augroup %s | autocmd! | augroup END", augroup))),
	}
	for _, sub := range subs {
		events.Session.Subscribe(m.sessionID, sub.Key, sub.Event)
		calls = append(calls, rpc.Array(rpc.String("nvim_command"), rpc.Strings(sub.command(channel))))
	}
	res, err := m.rpc.Call(ctx, "nvim_call_atomic", rpc.Array(calls...))
	if err != nil {
		return fmt.Errorf("register subscriptions: %w", err)
	}
	return atomicError(res)
}

// atomicError extracts the failure of an nvim_call_atomic result, which is
// [results, nil] or [results, [index, type, message]].
func atomicError(res rpc.Value) error {
	items, err := res.AsArray()
	if err != nil || len(items) != 2 {
		return fmt.Errorf("register subscriptions: unexpected result %s", res)
	}
	if items[1].IsNil() {
		return nil
	}
	detail, err := items[1].AsArray()
	if err != nil || len(detail) < 3 {
		return fmt.Errorf("register subscriptions: %s", items[1])
	}
	idx, _ := detail[0].AsInt()
	return fmt.Errorf("register subscriptions: call %d: %w", idx,
		&rpc.RemoteError{Method: "nvim_call_atomic", Payload: rpc.Array(detail[1], detail[2])})
}

// Events yields fired subscriptions in arrival order.
func (m *SubscriptionManager) Events() <-chan SubscriptionEvent {
	return m.events
}

// Handle consumes a subscription notification. It reports false for any
// other method.
func (m *SubscriptionManager) Handle(n rpc.Notification) bool {
	if n.Method != SubscriptionMethod {
		return false
	}
	if len(n.Params) == 0 {
		events.RPC.ProtocolError(errors.New("subscription without key"))
		return true
	}
	key, err := n.Params[0].AsString()
	if err != nil {
		events.RPC.ProtocolError(fmt.Errorf("subscription key: %w", err))
		return true
	}
	evt := SubscriptionEvent{Key: key, Args: n.Params[1:]}
	select {
	case <-m.done:
	case m.events <- evt:
	}
	return true
}

func (m *SubscriptionManager) close() {
	m.closeOnce.Do(func() { close(m.done) })
}
