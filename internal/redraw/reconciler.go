package redraw

import (
	"errors"
	"sync"

	"github.com/atomicstack/nvim-bridge/internal/logging/events"
	"github.com/atomicstack/nvim-bridge/internal/rpc"
)

// Method is the notification Neovim sends UI updates under.
const Method = "redraw"

// DefaultQueueSize bounds the number of flushed batches waiting for the
// presentation goroutine.
const DefaultQueueSize = 64

// Batch is every sub-event received between two flushes.
type Batch struct {
	Seq    uint64
	Events []Event
}

// Reconciler collects redraw sub-events on the read goroutine and hands
// them over in whole batches. It never touches the UI model.
type Reconciler struct {
	mu      sync.Mutex
	pending []Event
	seq     uint64
	closed  bool

	batches   chan Batch
	done      chan struct{}
	closeOnce sync.Once
}

func NewReconciler(queueSize int) *Reconciler {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Reconciler{
		batches: make(chan Batch, queueSize),
		done:    make(chan struct{}),
	}
}

// Batches yields flushed batches in arrival order. It is closed by Close.
func (r *Reconciler) Batches() <-chan Batch {
	return r.batches
}

// HandleNotification consumes one redraw notification. It reports false
// for any other method. When the queue is full it blocks until the
// consumer catches up or the reconciler is closed.
func (r *Reconciler) HandleNotification(n rpc.Notification) bool {
	if n.Method != Method {
		return false
	}
	decoded := Decode(n.Params, skipped)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return true
	}
	for _, evt := range decoded {
		if _, ok := evt.(Flush); !ok {
			r.pending = append(r.pending, evt)
			continue
		}
		r.seq++
		b := Batch{Seq: r.seq, Events: r.pending}
		r.pending = nil
		events.Redraw.Flush(b.Seq, len(b.Events))
		select {
		case r.batches <- b:
		case <-r.done:
			return true
		}
	}
	return true
}

// Pending reports how many sub-events wait for a flush.
func (r *Reconciler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Close discards pending sub-events and queued batches and closes the
// Batches channel.
func (r *Reconciler) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
		r.mu.Lock()
		defer r.mu.Unlock()
		r.closed = true
		pending := len(r.pending)
		r.pending = nil
		close(r.batches)
		discarded := 0
		for range r.batches {
			discarded++
		}
		events.Redraw.Discarded(discarded, pending)
	})
}

func skipped(err error) {
	var unknown *UnknownEventError
	if errors.As(err, &unknown) {
		events.Redraw.UnknownEvent(unknown.Event)
		return
	}
	var malformed *MalformedError
	if errors.As(err, &malformed) {
		events.Redraw.Malformed(malformed.Event, malformed.Err)
	}
}
