package events

import "github.com/atomicstack/nvim-bridge/internal/logging"

type RPCTracer struct{}

var RPC = RPCTracer{}

func (RPCTracer) Call(id uint64, method string) {
	logging.Trace("rpc.call", map[string]interface{}{"id": id, "method": method})
}

func (RPCTracer) Response(id uint64, method string, failed bool) {
	logging.Trace("rpc.response", map[string]interface{}{"id": id, "method": method, "failed": failed})
}

func (RPCTracer) Cancelled(id uint64, method string) {
	logging.Trace("rpc.cancelled", map[string]interface{}{"id": id, "method": method})
}

// UnmatchedResponse records a response whose id has no pending request.
func (RPCTracer) UnmatchedResponse(id uint64) {
	logging.Warn("rpc.anomaly", "kind", "unmatched_response", "id", id)
}

func (RPCTracer) UnhandledNotification(method string) {
	logging.Warn("rpc.anomaly", "kind", "unhandled_notification", "method", method)
}

func (RPCTracer) ProtocolError(err error) {
	if err == nil {
		return
	}
	logging.Warn("rpc.protocol_error", "error", err.Error())
}

func (RPCTracer) Closed(err error) {
	payload := map[string]interface{}{}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("rpc.closed", payload)
}
