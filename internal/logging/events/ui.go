package events

import "github.com/atomicstack/nvim-bridge/internal/logging"

type UITracer struct{}

type InputTracer struct{}

type ActionTracer struct{}

type CommandTracer struct{}

var (
	UI      = UITracer{}
	Input   = InputTracer{}
	Action  = ActionTracer{}
	Command = CommandTracer{}
)

func (UITracer) Resize(width, height int) {
	logging.Trace("ui.resize", map[string]interface{}{"width": width, "height": height})
}

func (UITracer) Repaint(flushes uint64) {
	logging.Trace("ui.repaint", map[string]interface{}{"flushes": flushes})
}

func (InputTracer) Key(notation string) {
	logging.Trace("input.key", map[string]interface{}{"keys": notation})
}

// Dropped records a local key that has no Neovim notation.
func (InputTracer) Dropped(description string) {
	logging.Trace("input.dropped", map[string]interface{}{"key": description})
}

func (InputTracer) Mouse(button, action string, grid, row, col int) {
	logging.Trace("input.mouse", map[string]interface{}{
		"button": button,
		"action": action,
		"grid":   grid,
		"row":    row,
		"col":    col,
	})
}

func (InputTracer) Paste(size string) {
	logging.Trace("input.paste", map[string]interface{}{"size": size})
}

func (ActionTracer) Error(err error) {
	if err == nil {
		return
	}
	logging.Trace("action.error", map[string]interface{}{"error": err.Error()})
}

func (CommandTracer) Queue(id, label string) {
	logging.Trace("command.queue", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) Skip(id, label string) {
	logging.Trace("command.skip", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) Result(id, label string, err error) {
	payload := map[string]interface{}{"id": id, "label": label}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("command.result", payload)
}
