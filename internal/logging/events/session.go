package events

import "github.com/atomicstack/nvim-bridge/internal/logging"

type SessionTracer struct{}

type ProcessTracer struct{}

var (
	Session = SessionTracer{}
	Process = ProcessTracer{}
)

func (SessionTracer) Start(id, binary string, args []string) {
	logging.Trace("session.start", map[string]interface{}{"session": id, "binary": binary, "args": args})
}

func (SessionTracer) Attach(id string, cols, rows int, options map[string]bool) {
	logging.Trace("session.attach", map[string]interface{}{"session": id, "cols": cols, "rows": rows, "options": options})
}

func (SessionTracer) Resize(id string, cols, rows int) {
	logging.Trace("session.resize", map[string]interface{}{"session": id, "cols": cols, "rows": rows})
}

func (SessionTracer) Subscribe(id, key, event string) {
	logging.Trace("session.subscribe", map[string]interface{}{"session": id, "key": key, "event": event})
}

func (SessionTracer) InitialInput(id, size string) {
	logging.Trace("session.input.initial", map[string]interface{}{"session": id, "size": size})
}

func (SessionTracer) Ended(id string, code int, err error) {
	fields := []any{"session", id, "code", code}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	logging.Info("session.ended", fields...)
}

func (SessionTracer) StartFailed(id string, err error) {
	logging.Warn("session.start.failed", "session", id, "error", err.Error())
}

func (ProcessTracer) Spawn(pid int, path string) {
	logging.Trace("process.spawn", map[string]interface{}{"pid": pid, "path": path})
}

func (ProcessTracer) Exit(pid, code int) {
	logging.Trace("process.exit", map[string]interface{}{"pid": pid, "code": code})
}

func (ProcessTracer) Terminate(pid int, outcome string) {
	logging.Trace("process.terminate", map[string]interface{}{"pid": pid, "outcome": outcome})
}
