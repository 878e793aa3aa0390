package command

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/atomicstack/nvim-bridge/internal/logging"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newBus(t *testing.T, timeout time.Duration) *Bus {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, timeout)
}

func TestExecuteReportsResult(t *testing.T) {
	bus := newBus(t, time.Second)
	boom := errors.New("boom")
	msg := bus.Go("paste", func(context.Context) error { return boom })()
	res, ok := msg.(ActionResult)
	if !ok {
		t.Fatalf("expected ActionResult, got %T", msg)
	}
	if res.Label != "paste" || res.ID != "paste-1" || !errors.Is(res.Err, boom) {
		t.Fatalf("unexpected result %+v", res)
	}
	if next := bus.Go("paste", func(context.Context) error { return nil })().(ActionResult); next.ID != "paste-2" || next.Err != nil {
		t.Fatalf("unexpected second result %+v", next)
	}
}

func TestExecuteSkipsEmptyRequest(t *testing.T) {
	bus := newBus(t, 0)
	if cmd := bus.Execute(Request{ID: "x", Label: "x"}); cmd != nil {
		t.Fatalf("expected no command for an empty request")
	}
}

func TestExecuteAppliesTimeout(t *testing.T) {
	bus := newBus(t, 10*time.Millisecond)
	msg := bus.Go("resize", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})()
	if res := msg.(ActionResult); !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", res.Err)
	}
}

func TestRequestsRunInQueueOrder(t *testing.T) {
	bus := newBus(t, time.Second)
	var (
		mu    sync.Mutex
		order []int
	)
	var cmds []func() interface{}
	for i := 0; i < 20; i++ {
		cmd := bus.Go("key", func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
		cmds = append(cmds, func() interface{} { return cmd() })
	}
	// collect results out of order; execution order must not change
	for i := len(cmds) - 1; i >= 0; i-- {
		cmds[i]()
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("request %d ran at position %d: %v", got, i, order)
		}
	}
}

func TestCancelledBusFailsRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := New(ctx, time.Second)
	cancel()
	time.Sleep(10 * time.Millisecond)
	msg := bus.Go("key", func(context.Context) error { return nil })()
	if res := msg.(ActionResult); !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("expected cancellation, got %+v", res)
	}
}
