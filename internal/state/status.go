package state

import "github.com/atomicstack/nvim-bridge/internal/rpc"

// Status is editor state reported through autocmd subscriptions rather
// than redraw events.
type Status struct {
	Mode   string
	Line   int
	Col    int
	Buffer string
	// Other holds the latest arguments of subscriptions with no field of
	// their own, keyed by subscription key.
	Other map[string][]rpc.Value
}

// Position reports whether a cursor position has been seen.
func (s Status) Position() (line, col int, ok bool) {
	return s.Line, s.Col, s.Line > 0
}

// Record stores the arguments of a subscription under key.
func (s *Status) Record(key string, args []rpc.Value) {
	if s.Other == nil {
		s.Other = map[string][]rpc.Value{}
	}
	s.Other[key] = args
}
