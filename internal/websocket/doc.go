// Package websocket pushes dashboard events to connected browsers.
//
// A single Hub goroutine owns the client set. Each Client runs a read pump,
// which only services keepalive, and a write pump that drains its send
// queue. Slow clients whose queue fills up are disconnected.
//
// Events use one envelope:
//
//	{"type": "dataset:reloaded", "data": {...}, "timestamp": "...", "trace_id": "..."}
//
// The dashboard page refetches its report when it receives
// dataset:reloaded.
package websocket
