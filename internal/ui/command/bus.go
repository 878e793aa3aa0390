package command

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/atomicstack/nvim-bridge/internal/logging/events"
	tea "github.com/charmbracelet/bubbletea"
)

// Func is one unit of RPC work.
type Func func(ctx context.Context) error

// Request encapsulates an action invocation.
type Request struct {
	ID    string
	Label string
	Run   Func
}

// ActionResult reports how a request went.
type ActionResult struct {
	ID    string
	Label string
	Err   error
}

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 5 * time.Second
	// DefaultQueueSize bounds requests waiting for the worker.
	DefaultQueueSize = 256
)

type job struct {
	req  Request
	done chan error
}

// Bus runs requests off the presentation goroutine. Requests run one at a
// time in the order Execute was called, so keys reach Neovim in the order
// they were typed.
type Bus struct {
	ctx     context.Context
	timeout time.Duration
	seq     atomic.Uint64
	queue   chan job
}

// New initialises a command bus. The worker stops when ctx is done.
func New(ctx context.Context, timeout time.Duration) *Bus {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	b := &Bus{ctx: ctx, timeout: timeout, queue: make(chan job, DefaultQueueSize)}
	go b.work()
	return b
}

func (b *Bus) work() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case j := <-b.queue:
			if err := b.ctx.Err(); err != nil {
				j.done <- err
				return
			}
			ctx, cancel := context.WithTimeout(b.ctx, b.timeout)
			err := j.req.Run(ctx)
			cancel()
			events.Command.Result(j.req.ID, j.req.Label, err)
			j.done <- err
		}
	}
}

// Go queues fn under a generated id.
func (b *Bus) Go(label string, fn Func) tea.Cmd {
	id := fmt.Sprintf("%s-%d", label, b.seq.Add(1))
	return b.Execute(Request{ID: id, Label: label, Run: fn})
}

// Execute queues req immediately and returns a command that waits for its
// result.
func (b *Bus) Execute(req Request) tea.Cmd {
	if req.Run == nil {
		events.Command.Skip(req.ID, req.Label)
		return nil
	}
	events.Command.Queue(req.ID, req.Label)
	j := job{req: req, done: make(chan error, 1)}
	select {
	case b.queue <- j:
	case <-b.ctx.Done():
		return result(req, b.ctx.Err())
	}
	return func() tea.Msg {
		select {
		case err := <-j.done:
			return ActionResult{ID: req.ID, Label: req.Label, Err: err}
		case <-b.ctx.Done():
			return ActionResult{ID: req.ID, Label: req.Label, Err: b.ctx.Err()}
		}
	}
}

func result(req Request, err error) tea.Cmd {
	return func() tea.Msg {
		return ActionResult{ID: req.ID, Label: req.Label, Err: err}
	}
}
