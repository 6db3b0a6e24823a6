package event

import "time"

const (
	PresenceTopic = "realtime.presence"

	EventClientConnected    = "realtime.client.connected"
	EventClientDisconnected = "realtime.client.disconnected"
)

// Metadata identifies the tenant and originating service of a broadcast.
type Metadata struct {
	TenantID      string `json:"tenant_id"`
	SourceService string `json:"source_service"`
}

// Envelope is the room-scoped message shape pushed to connected clients.
type Envelope struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
	Metadata  Metadata    `json:"metadata"`
}

// PresenceEvent announces a connection opening or closing, published so
// operational dashboards can track live session counts per tenant.
type PresenceEvent struct {
	EventType    string    `json:"event_type"`
	OccurredAt   time.Time `json:"occurred_at"`
	TenantID     string    `json:"tenant_id"`
	ConnectionID string    `json:"connection_id"`
	Role         string    `json:"role"`
}
