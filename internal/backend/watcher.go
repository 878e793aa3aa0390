package backend

import (
	"context"
	"sync"

	"github.com/atomicstack/nvim-bridge/internal/redraw"
	"github.com/atomicstack/nvim-bridge/internal/session"
)

// Kind represents the type of data emitted by the watcher.
type Kind int

const (
	KindRedraw Kind = iota
	KindSubscription
	KindEnded
)

func (k Kind) String() string {
	switch k {
	case KindRedraw:
		return "redraw"
	case KindSubscription:
		return "subscription"
	case KindEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Event conveys one item from a session. Data is a redraw.Batch, a
// session.SubscriptionEvent or a session.Ended depending on Kind.
type Event struct {
	Kind Kind
	Data interface{}
	Err  error
}

// Source is the part of a session the watcher reads from.
type Source interface {
	Redraws() <-chan redraw.Batch
	Subscriptions() <-chan session.SubscriptionEvent
	Ended() <-chan session.Ended
}

// DefaultQueueSize bounds events waiting for the presentation goroutine.
const DefaultQueueSize = 16

// Watcher merges the channels of a session into a single event stream so
// the UI loop has one thing to wait on.
type Watcher struct {
	src Source

	ctx    context.Context
	cancel context.CancelFunc

	events chan Event
	wg     sync.WaitGroup
}

// NewWatcher starts forwarding from src.
func NewWatcher(src Source) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		src:    src,
		ctx:    ctx,
		cancel: cancel,
		events: make(chan Event, DefaultQueueSize),
	}

	w.wg.Add(3)
	go w.forwardRedraws()
	go w.forwardSubscriptions()
	go w.forwardEnded()

	go func() {
		w.wg.Wait()
		close(w.events)
	}()

	return w
}

// Events returns a channel of session events. It is closed after Stop once
// every forwarder has exited.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop cancels the watcher. Forwarders blocked on a full queue give up.
func (w *Watcher) Stop() {
	w.cancel()
}

// Wait blocks until all forwarders have exited and the events channel is
// closed. Call after Stop when a clean shutdown is required.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) emit(evt Event) bool {
	select {
	case <-w.ctx.Done():
		return false
	case w.events <- evt:
		return true
	}
}

func (w *Watcher) forwardRedraws() {
	defer w.wg.Done()
	batches := w.src.Redraws()
	for {
		select {
		case <-w.ctx.Done():
			return
		case b, ok := <-batches:
			if !ok {
				return
			}
			if !w.emit(Event{Kind: KindRedraw, Data: b}) {
				return
			}
		}
	}
}

func (w *Watcher) forwardSubscriptions() {
	defer w.wg.Done()
	subs := w.src.Subscriptions()
	for {
		select {
		case <-w.ctx.Done():
			return
		case evt, ok := <-subs:
			if !ok {
				return
			}
			if !w.emit(Event{Kind: KindSubscription, Data: evt}) {
				return
			}
		}
	}
}

func (w *Watcher) forwardEnded() {
	defer w.wg.Done()
	select {
	case <-w.ctx.Done():
	case ended, ok := <-w.src.Ended():
		if !ok {
			return
		}
		w.emit(Event{Kind: KindEnded, Data: ended, Err: ended.Err})
	}
}
