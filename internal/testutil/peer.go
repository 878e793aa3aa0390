package testutil

import (
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/atomicstack/nvim-bridge/internal/rpc"
)

// Handler answers one request. A non-nil errValue becomes the response's
// error payload.
type Handler func(req rpc.Request) (result rpc.Value, errValue rpc.Value)

// Peer plays the Neovim side of an RPC connection over net.Pipe. Requests
// without a handler are answered with nil; silenced methods are never
// answered.
type Peer struct {
	conn net.Conn
	dec  *rpc.Decoder
	wmu  sync.Mutex

	mu            sync.Mutex
	handlers      map[string]Handler
	silenced      map[string]bool
	requests      []rpc.Request
	notifications []rpc.Notification
	onNotify      map[string]func(rpc.Notification)

	done chan struct{}
}

// NewPeer returns the peer and the connection the client side should use.
func NewPeer(t *testing.T) (*Peer, io.ReadWriteCloser) {
	t.Helper()
	local, remote := net.Pipe()
	p := &Peer{
		conn:     remote,
		dec:      rpc.NewDecoder(remote),
		handlers: defaultHandlers(),
		silenced: map[string]bool{},
		onNotify: map[string]func(rpc.Notification){},
		done:     make(chan struct{}),
	}
	go p.serve()
	t.Cleanup(func() {
		_ = remote.Close()
		<-p.done
	})
	return p, local
}

func defaultHandlers() map[string]Handler {
	ok := func(v rpc.Value) Handler {
		return func(rpc.Request) (rpc.Value, rpc.Value) { return v, rpc.Nil() }
	}
	return map[string]Handler{
		"nvim_get_api_info":  ok(rpc.Array(rpc.Int(1), rpc.Dict(nil))),
		"nvim_ui_attach":     ok(rpc.Nil()),
		"nvim_ui_try_resize": ok(rpc.Nil()),
		"nvim_buf_set_lines": ok(rpc.Nil()),
		"nvim_call_atomic":   ok(rpc.Array(rpc.Array(), rpc.Nil())),
		"nvim_paste":         ok(rpc.Bool(true)),
	}
}

// Handle replaces the handler for method.
func (p *Peer) Handle(method string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[method] = h
	delete(p.silenced, method)
}

// Silence makes the peer record but never answer method.
func (p *Peer) Silence(method string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.silenced[method] = true
}

// OnNotify runs fn on the serve goroutine for every notification named method.
func (p *Peer) OnNotify(method string, fn func(rpc.Notification)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onNotify[method] = fn
}

// Close drops the connection, as if the editor went away.
func (p *Peer) Close() error {
	return p.conn.Close()
}

// Done is closed once the serve loop has stopped reading.
func (p *Peer) Done() <-chan struct{} { return p.done }

func (p *Peer) serve() {
	defer close(p.done)
	for {
		msg, err := p.dec.Decode()
		if err != nil {
			return
		}
		switch m := msg.(type) {
		case rpc.Request:
			p.mu.Lock()
			p.requests = append(p.requests, m)
			h, silent := p.handlers[m.Method], p.silenced[m.Method]
			p.mu.Unlock()
			if silent {
				continue
			}
			result, errValue := rpc.Nil(), rpc.Nil()
			if h != nil {
				result, errValue = h(m)
			}
			_ = p.send(rpc.Response{ID: m.ID, Error: errValue, Result: result})
		case rpc.Notification:
			p.mu.Lock()
			p.notifications = append(p.notifications, m)
			fn := p.onNotify[m.Method]
			p.mu.Unlock()
			if fn != nil {
				fn(m)
			}
		}
	}
}

func (p *Peer) send(m rpc.Message) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return rpc.Encode(p.conn, m)
}

// Notify sends a notification to the client.
func (p *Peer) Notify(t *testing.T, method string, params ...rpc.Value) {
	t.Helper()
	if err := p.send(rpc.Notification{Method: method, Params: params}); err != nil {
		t.Fatalf("peer notify %s: %v", method, err)
	}
}

// Requests returns every request received for method so far.
func (p *Peer) Requests(method string) []rpc.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []rpc.Request
	for _, r := range p.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

// Notifications returns every notification received for method so far.
func (p *Peer) Notifications(method string) []rpc.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []rpc.Notification
	for _, n := range p.notifications {
		if n.Method == method {
			out = append(out, n)
		}
	}
	return out
}

// WaitRequest polls until at least n requests for method have arrived.
func (p *Peer) WaitRequest(t *testing.T, method string, n int) []rpc.Request {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if got := p.Requests(method); len(got) >= n {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d %s request(s)", n, method)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// WaitNotification polls until at least one notification for method arrived.
func (p *Peer) WaitNotification(t *testing.T, method string) []rpc.Notification {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if got := p.Notifications(method); len(got) > 0 {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s notification", method)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
