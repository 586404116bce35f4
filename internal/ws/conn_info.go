package ws

import "time"

// ConnInfo is the per-connection metadata attached at upgrade time and
// carried into observability payloads.
type ConnInfo struct {
	ConnID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
