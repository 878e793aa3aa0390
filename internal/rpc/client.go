package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/atomicstack/nvim-bridge/internal/logging/events"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// NotificationHandler consumes inbound notifications. It runs on the read
// goroutine, in arrival order.
type NotificationHandler func(Notification)

// RequestHandler answers requests Neovim sends to us. It runs on its own
// goroutine per request.
type RequestHandler func(ctx context.Context, req Request) (Value, error)

type Option func(*Client)

func WithNotificationHandler(h NotificationHandler) Option {
	return func(c *Client) { c.onNotify = h }
}

func WithRequestHandler(h RequestHandler) Option {
	return func(c *Client) { c.onRequest = h }
}

// WithProtocolTolerance sets how many malformed messages are tolerated
// before the connection is failed.
func WithProtocolTolerance(every time.Duration, burst int) Option {
	return func(c *Client) { c.tolerance = rate.NewLimiter(rate.Every(every), burst) }
}

// WithQueueSize sets the capacity of the outbound write queue.
func WithQueueSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

type result struct {
	value Value
	err   error
}

type pending struct {
	method string
	done   chan result
}

// Client is a msgpack-rpc peer over a single byte stream.
type Client struct {
	conn      io.ReadWriteCloser
	onNotify  NotificationHandler
	onRequest RequestHandler
	tolerance *rate.Limiter
	queueSize int

	out chan []byte

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]pending

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// NewClient starts the read and write loops over conn.
func NewClient(conn io.ReadWriteCloser, opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:      conn,
		tolerance: rate.NewLimiter(rate.Every(time.Second), 16),
		queueSize: 64,
		pending:   make(map[uint64]pending),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.out = make(chan []byte, c.queueSize)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readLoop() })
	g.Go(func() error { return c.writeLoop(gctx) })
	g.Go(func() error {
		// unblock the read loop once either side gives up
		<-gctx.Done()
		_ = conn.Close()
		return nil
	})
	go func() {
		c.shutdown(g.Wait())
	}()
	return c
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the reason the connection ended, or nil while it is alive.
func (c *Client) Err() error {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.err
	default:
		return nil
	}
}

// Close tears the connection down. Waiting callers get ErrCancelled.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if c.err == nil {
			c.err = ErrClosed
		}
		c.mu.Unlock()
		c.cancel()
		_ = c.conn.Close()
	})
	<-c.done
	return nil
}

// Call sends a request and waits for its response.
func (c *Client) Call(ctx context.Context, method string, params ...Value) (Value, error) {
	if err := c.Err(); err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	done := make(chan result, 1)
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.pending[id] = pending{method: method, done: done}
	c.mu.Unlock()

	frame, err := Marshal(Request{ID: id, Method: method, Params: params})
	if err != nil {
		c.forget(id)
		return Value{}, err
	}
	events.RPC.Call(id, method)
	if err := c.enqueue(ctx, frame); err != nil {
		c.forget(id)
		return Value{}, err
	}

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		if c.forget(id) {
			return Value{}, ctx.Err()
		}
	case <-c.done:
		if c.forget(id) {
			return Value{}, fmt.Errorf("%w: %w", ErrCancelled, c.Err())
		}
	}
	// completion raced the wakeup; the result is already buffered
	res := <-done
	return res.value, res.err
}

// Notify sends a notification without waiting for anything in return.
func (c *Client) Notify(ctx context.Context, method string, params ...Value) error {
	frame, err := Marshal(Notification{Method: method, Params: params})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, frame)
}

func (c *Client) enqueue(ctx context.Context, frame []byte) error {
	select {
	case <-c.done:
		return fmt.Errorf("%w: %w", ErrCancelled, c.Err())
	default:
	}
	select {
	case c.out <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return fmt.Errorf("%w: %w", ErrCancelled, c.Err())
	}
}

// forget removes a pending entry and reports whether it was still there.
func (c *Client) forget(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[id]; !ok {
		return false
	}
	delete(c.pending, id)
	return true
}

func (c *Client) take(id uint64) (pending, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	return p, ok
}

func (c *Client) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-c.out:
			if _, err := c.conn.Write(frame); err != nil {
				return &TransportError{Op: "write", Err: err}
			}
		}
	}
}

func (c *Client) readLoop() error {
	dec := NewDecoder(c.conn)
	for {
		msg, err := dec.Decode()
		if err != nil {
			var perr *ProtocolError
			if errors.As(err, &perr) {
				events.RPC.ProtocolError(perr)
				if !c.tolerance.Allow() {
					return &TransportError{Op: "read", Err: fmt.Errorf("too many protocol errors: %w", err)}
				}
				continue
			}
			return &TransportError{Op: "read", Err: err}
		}
		switch m := msg.(type) {
		case Response:
			c.complete(m)
		case Notification:
			if c.onNotify != nil {
				c.onNotify(m)
			} else {
				events.RPC.UnhandledNotification(m.Method)
			}
		case Request:
			go c.answer(m)
		}
	}
}

func (c *Client) complete(resp Response) {
	p, ok := c.take(resp.ID)
	if !ok {
		events.RPC.UnmatchedResponse(resp.ID)
		return
	}
	events.RPC.Response(resp.ID, p.method, resp.Failed())
	if resp.Failed() {
		p.done <- result{err: &RemoteError{Method: p.method, Payload: resp.Error}}
		return
	}
	p.done <- result{value: resp.Result}
}

func (c *Client) answer(req Request) {
	var (
		value Value
		err   error
	)
	if c.onRequest != nil {
		value, err = c.onRequest(c.ctx, req)
	} else {
		err = fmt.Errorf("method not found: %s", req.Method)
	}
	resp := Response{ID: req.ID, Result: value}
	if err != nil {
		resp = Response{ID: req.ID, Error: String(err.Error())}
	}
	frame, merr := Marshal(resp)
	if merr != nil {
		events.RPC.ProtocolError(&ProtocolError{Reason: "encode response", Err: merr})
		return
	}
	_ = c.enqueue(c.ctx, frame)
}

func (c *Client) shutdown(cause error) {
	c.mu.Lock()
	if c.err == nil {
		if cause == nil {
			cause = &TransportError{Op: "read", Err: io.EOF}
		}
		c.err = cause
	}
	err := c.err
	waiting := c.pending
	c.pending = make(map[uint64]pending)
	c.mu.Unlock()

	c.cancel()
	_ = c.conn.Close()
	for id, p := range waiting {
		events.RPC.Cancelled(id, p.method)
		p.done <- result{err: fmt.Errorf("%w: %w", ErrCancelled, err)}
	}
	events.RPC.Closed(err)
	close(c.done)
}
