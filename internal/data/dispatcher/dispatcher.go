package dispatcher

import (
	"fmt"

	"github.com/atomicstack/nvim-bridge/internal/backend"
	"github.com/atomicstack/nvim-bridge/internal/logging/events"
	"github.com/atomicstack/nvim-bridge/internal/redraw"
	"github.com/atomicstack/nvim-bridge/internal/rpc"
	"github.com/atomicstack/nvim-bridge/internal/session"
	"github.com/atomicstack/nvim-bridge/internal/state"
)

type Result struct {
	Redraw        redraw.Result
	StatusUpdated bool
	Ended         bool
	ExitCode      int
	Err           error
}

// Repaint reports whether the grid frame needs rebuilding.
func (r Result) Repaint() bool { return r.Redraw.Repaint }

type Dispatcher struct {
	model *state.Model
}

func New(m *state.Model) *Dispatcher {
	return &Dispatcher{model: m}
}

func (d *Dispatcher) Model() *state.Model { return d.model }

func (d *Dispatcher) Handle(evt backend.Event) Result {
	var res Result
	switch evt.Kind {
	case backend.KindRedraw:
		if batch, ok := evt.Data.(redraw.Batch); ok {
			res.Redraw = redraw.Apply(d.model, batch)
		}
	case backend.KindSubscription:
		if sub, ok := evt.Data.(session.SubscriptionEvent); ok {
			res.StatusUpdated = d.applySubscription(sub)
		}
	case backend.KindEnded:
		res.Ended = true
		res.Err = evt.Err
		res.ExitCode = 1
		if ended, ok := evt.Data.(session.Ended); ok {
			res.ExitCode = ended.Code
		}
	}
	return res
}

func (d *Dispatcher) applySubscription(sub session.SubscriptionEvent) bool {
	st := &d.model.Status
	switch sub.Key {
	case "mode":
		mode, err := stringArg(sub.Args, 0)
		if err != nil {
			events.RPC.ProtocolError(fmt.Errorf("subscription %s: %w", sub.Key, err))
			return false
		}
		st.Mode = mode
	case "cursor":
		line, err := intArg(sub.Args, 0)
		if err != nil {
			events.RPC.ProtocolError(fmt.Errorf("subscription %s: %w", sub.Key, err))
			return false
		}
		col, err := intArg(sub.Args, 1)
		if err != nil {
			events.RPC.ProtocolError(fmt.Errorf("subscription %s: %w", sub.Key, err))
			return false
		}
		st.Line, st.Col = line, col
	case "buffer":
		name, err := stringArg(sub.Args, 0)
		if err != nil {
			events.RPC.ProtocolError(fmt.Errorf("subscription %s: %w", sub.Key, err))
			return false
		}
		st.Buffer = name
	default:
		st.Record(sub.Key, sub.Args)
	}
	return true
}

func stringArg(args []rpc.Value, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	return args[i].AsString()
}

func intArg(args []rpc.Value, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i)
	}
	n, err := args[i].AsInt()
	return int(n), err
}
