package events

import "github.com/atomicstack/nvim-bridge/internal/logging"

type AppTracer struct{}

var App = AppTracer{}

func (AppTracer) Start(payload map[string]interface{}) {
	logging.Trace("app.start", payload)
}

func (AppTracer) Exit(code int) {
	logging.Trace("app.exit", map[string]interface{}{"code": code})
}

func (AppTracer) Stdin(size string) {
	logging.Trace("app.stdin", map[string]interface{}{"size": size})
}
