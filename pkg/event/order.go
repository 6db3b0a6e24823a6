package event

import "time"

const (
	OrderItemsTopic = "orders.items"

	EventOrderItemsNew       = "order.items.new"
	EventOrderItemsAccepted  = "order.items.accepted"
	EventOrderItemsPreparing = "order.items.preparing"
	EventOrderItemsReady     = "order.items.ready"
	EventOrderItemsServed    = "order.items.served"
	EventOrderItemsRejected  = "order.items.rejected"
	EventOrderItemsCancelled = "order.items.cancelled"
)

// OrderItemsEvent represents an order item status event published by the
// order service. The realtime gateway consumes it to notify connected
// clients; the order service remains the owner of item state.
type OrderItemsEvent struct {
	EventType       string    `json:"event_type"`
	OccurredAt      time.Time `json:"occurred_at"`
	TenantID        string    `json:"tenant_id"`
	OrderID         string    `json:"order_id"`
	ItemIDs         []string  `json:"item_ids,omitempty"`
	PreviousStatus  string    `json:"previous_status,omitempty"`
	NewStatus       string    `json:"new_status,omitempty"`
	RejectionReason string    `json:"rejection_reason,omitempty"`

	// Denormalized data for display
	TableNumber string `json:"table_number,omitempty"`
}
