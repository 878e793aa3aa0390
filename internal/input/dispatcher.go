package input

import (
	"context"
	"errors"
	"fmt"

	"github.com/atomicstack/nvim-bridge/internal/logging/events"
	"github.com/atomicstack/nvim-bridge/internal/rpc"
	"github.com/dustin/go-humanize"
)

// ErrPasteCancelled is returned when Neovim asks to stop a paste.
var ErrPasteCancelled = errors.New("paste cancelled")

// Sender is the part of the rpc client the dispatcher needs.
type Sender interface {
	Notify(ctx context.Context, method string, params ...rpc.Value) error
	Call(ctx context.Context, method string, params ...rpc.Value) (rpc.Value, error)
}

// Dispatcher turns local input into Neovim requests.
type Dispatcher struct {
	sender Sender
}

func NewDispatcher(s Sender) *Dispatcher {
	return &Dispatcher{sender: s}
}

// Key forwards one key press. Keys without a notation are dropped and
// reported as not sent.
func (d *Dispatcher) Key(ctx context.Context, k KeyEvent) (bool, error) {
	notation, ok := Notation(k)
	if !ok {
		events.Input.Dropped(k.String())
		return false, nil
	}
	events.Input.Key(notation)
	if err := d.sender.Notify(ctx, "nvim_input", rpc.String(notation)); err != nil {
		return false, fmt.Errorf("send key %s: %w", notation, err)
	}
	return true, nil
}

// Text types literal text.
func (d *Dispatcher) Text(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	keys := EscapeText(text)
	events.Input.Key(keys)
	if err := d.sender.Notify(ctx, "nvim_input", rpc.String(keys)); err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	return nil
}

// Mouse forwards a mouse event. Unsupported button/action pairs are
// dropped.
func (d *Dispatcher) Mouse(ctx context.Context, e MouseEvent) (bool, error) {
	button, action, ok := mouseArgs(e)
	if !ok {
		events.Input.Dropped(fmt.Sprintf("mouse %d/%d", e.Button, e.Action))
		return false, nil
	}
	events.Input.Mouse(button, action, e.Grid, e.Row, e.Col)
	err := d.sender.Notify(ctx, "nvim_input_mouse",
		rpc.String(button),
		rpc.String(action),
		rpc.String(e.Mods.prefix()),
		rpc.Int(int64(e.Grid)),
		rpc.Int(int64(e.Row)),
		rpc.Int(int64(e.Col)),
	)
	if err != nil {
		return false, fmt.Errorf("send mouse: %w", err)
	}
	return true, nil
}

// Paste sends text as a single non-streamed paste and waits for Neovim to
// accept it.
func (d *Dispatcher) Paste(ctx context.Context, text string) error {
	events.Input.Paste(humanize.Bytes(uint64(len(text))))
	res, err := d.sender.Call(ctx, "nvim_paste", rpc.String(text), rpc.Bool(false), rpc.Int(-1))
	if err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	ok, err := res.AsBool()
	if err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	if !ok {
		return ErrPasteCancelled
	}
	return nil
}
