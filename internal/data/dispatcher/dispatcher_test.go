package dispatcher

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/atomicstack/nvim-bridge/internal/backend"
	"github.com/atomicstack/nvim-bridge/internal/logging"
	"github.com/atomicstack/nvim-bridge/internal/redraw"
	"github.com/atomicstack/nvim-bridge/internal/rpc"
	"github.com/atomicstack/nvim-bridge/internal/session"
	"github.com/atomicstack/nvim-bridge/internal/state"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestHandleRedrawBatch(t *testing.T) {
	m := state.NewModel(10, 3)
	d := New(m)
	batch := redraw.Batch{Seq: 1, Events: []redraw.Event{
		redraw.GridLine{Grid: 1, Row: 0, ColStart: 0, Cells: []state.Cell{{Text: "o"}, {Text: "k"}}},
		redraw.Flush{},
	}}
	res := d.Handle(backend.Event{Kind: backend.KindRedraw, Data: batch})
	if !res.Repaint() {
		t.Fatalf("expected repaint")
	}
	g, _ := m.Grid(1)
	if got := g.Text(0); got[:2] != "ok" {
		t.Fatalf("unexpected row %q", got)
	}
}

func TestHandleSubscriptions(t *testing.T) {
	m := state.NewModel(10, 3)
	d := New(m)
	cases := []struct {
		evt    session.SubscriptionEvent
		ok     bool
		verify func() bool
	}{
		{session.SubscriptionEvent{Key: "mode", Args: []rpc.Value{rpc.String("i")}}, true, func() bool { return m.Status.Mode == "i" }},
		{session.SubscriptionEvent{Key: "cursor", Args: []rpc.Value{rpc.Int(12), rpc.Int(4)}}, true, func() bool { return m.Status.Line == 12 && m.Status.Col == 4 }},
		{session.SubscriptionEvent{Key: "buffer", Args: []rpc.Value{rpc.String("/tmp/a.txt")}}, true, func() bool { return m.Status.Buffer == "/tmp/a.txt" }},
		{session.SubscriptionEvent{Key: "git", Args: []rpc.Value{rpc.String("main")}}, true, func() bool { return len(m.Status.Other["git"]) == 1 }},
		{session.SubscriptionEvent{Key: "cursor", Args: []rpc.Value{rpc.Int(1)}}, false, func() bool { return m.Status.Line == 12 }},
		{session.SubscriptionEvent{Key: "mode"}, false, func() bool { return m.Status.Mode == "i" }},
	}
	for _, tc := range cases {
		res := d.Handle(backend.Event{Kind: backend.KindSubscription, Data: tc.evt})
		if res.StatusUpdated != tc.ok || !tc.verify() {
			t.Fatalf("subscription %+v: updated=%v status=%+v", tc.evt, res.StatusUpdated, m.Status)
		}
	}
	if _, _, ok := m.Status.Position(); !ok {
		t.Fatalf("expected a known position")
	}
}

func TestHandleEnded(t *testing.T) {
	d := New(state.NewModel(10, 3))
	boom := errors.New("lost")
	res := d.Handle(backend.Event{Kind: backend.KindEnded, Data: session.Ended{Code: 3, Err: boom}, Err: boom})
	if !res.Ended || res.ExitCode != 3 || !errors.Is(res.Err, boom) {
		t.Fatalf("unexpected result %+v", res)
	}
}
