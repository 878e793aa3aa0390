package events

import "github.com/atomicstack/nvim-bridge/internal/logging"

type RedrawTracer struct{}

var Redraw = RedrawTracer{}

func (RedrawTracer) UnknownEvent(name string) {
	logging.Warn("redraw.skip", "kind", "unknown_event", "event", name)
}

func (RedrawTracer) Malformed(name string, err error) {
	logging.Warn("redraw.skip", "kind", "malformed_event", "event", name, "error", err.Error())
}

// UnknownGrid records an event addressed to a grid that does not exist.
func (RedrawTracer) UnknownGrid(name string, grid int) {
	logging.Warn("redraw.anomaly", "kind", "unknown_grid", "event", name, "grid", grid)
}

func (RedrawTracer) UnknownHighlight(grid, hl int) {
	logging.Warn("redraw.anomaly", "kind", "unknown_highlight", "grid", grid, "hl", hl)
}

func (RedrawTracer) OutOfBounds(name string, grid, row, col int) {
	logging.Warn("redraw.anomaly", "kind", "out_of_bounds", "event", name, "grid", grid, "row", row, "col", col)
}

func (RedrawTracer) Flush(seq uint64, events int) {
	logging.Trace("redraw.flush", map[string]interface{}{"seq": seq, "events": events})
}

func (RedrawTracer) Applied(seq uint64, applied, dropped int) {
	logging.Trace("redraw.applied", map[string]interface{}{"seq": seq, "applied": applied, "dropped": dropped})
}

func (RedrawTracer) Discarded(batches, pending int) {
	logging.Trace("redraw.discarded", map[string]interface{}{"batches": batches, "pending": pending})
}
