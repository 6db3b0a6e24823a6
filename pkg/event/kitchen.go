package event

import "time"

const (
	KitchenTicketsTopic = "kitchen.tickets"

	EventKitchenTicketNew       = "kitchen.ticket.new"
	EventKitchenTicketStarted   = "kitchen.ticket.started"
	EventKitchenTicketReady     = "kitchen.ticket.ready"
	EventKitchenTicketCompleted = "kitchen.ticket.completed"
	EventKitchenTicketCancelled = "kitchen.ticket.cancelled"
	EventKitchenTicketPriority  = "kitchen.ticket.priority"
	EventKitchenItemsRecalled   = "kitchen.items.recalled"
	EventKitchenTimersUpdate    = "kitchen.timers.update"
)

// Timer actions carried by EventKitchenTimersUpdate payloads.
const (
	TimerActionPause  = "pause"
	TimerActionResume = "resume"
	TimerActionTick   = "tick"
)

type KitchenTicketEventMetadata struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	TenantID   string    `json:"tenant_id"`
	TicketID   string    `json:"ticket_id"`
	OrderID    string    `json:"order_id"`

	// Denormalized data for display (Kanban UI)
	StationName string `json:"station_name,omitempty"`
	TableNumber string `json:"table_number,omitempty"`
}

type KitchenTicketEvent struct {
	KitchenTicketEventMetadata
	PreviousStatus string   `json:"previous_status,omitempty"`
	NewStatus      string   `json:"new_status,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	ItemIDs        []string `json:"item_ids,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// KitchenTimerEvent carries a pause/resume/tick for a ticket's elapsed-time
// timer. Elapsed time is recomputed by the gateway from the ticket's timer
// state, never trusted from the payload.
type KitchenTimerEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	TenantID   string    `json:"tenant_id"`
	TicketID   string    `json:"ticket_id"`
	Action     string    `json:"action"`
}
