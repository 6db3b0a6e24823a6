package status

import (
	"errors"
	"strings"

	"github.com/appetiteclub/realtime/internal/rooms"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrMissingReason     = errors.New("rejection reason is required")
	ErrInvalidTimerState = errors.New("invalid timer state")
)

// ItemStatus is the lifecycle status of a single order item. The order
// service owns persistence; the gateway only validates transitions to decide
// which rooms an event must reach.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemAccepted  ItemStatus = "accepted"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemServed    ItemStatus = "served"
	ItemRejected  ItemStatus = "rejected"
	ItemCancelled ItemStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s ItemStatus) Terminal() bool {
	return s == ItemRejected || s == ItemCancelled || s == ItemServed
}

func (s ItemStatus) Known() bool {
	switch s {
	case ItemPending, ItemAccepted, ItemPreparing, ItemReady, ItemServed, ItemRejected, ItemCancelled:
		return true
	}
	return false
}

// operationalTarget names the staff room, beyond the per-order room, that a
// forward transition must additionally reach.
type operationalTarget int

const (
	targetNone operationalTarget = iota
	targetKitchen
	targetWaiters
)

// itemTransitions is the forward-progression table. Rejection and
// cancellation are handled separately: they are reachable from any
// non-terminal status.
var itemTransitions = map[ItemStatus]map[ItemStatus]operationalTarget{
	ItemPending: {
		ItemAccepted:  targetKitchen,
		ItemPreparing: targetWaiters,
	},
	ItemAccepted: {
		ItemPreparing: targetWaiters,
	},
	ItemPreparing: {
		ItemReady: targetWaiters,
	},
	ItemReady: {
		ItemServed: targetNone,
	},
}

// ItemTransition validates a status change for order items of the given
// order and returns the rooms the resulting event must be broadcast to. The
// per-order room is always included. Illegal transitions return
// ErrInvalidTransition; a rejection without a reason returns
// ErrMissingReason. Nothing may be broadcast when an error is returned.
func ItemTransition(tenantID, orderID string, current, next ItemStatus, reason string) ([]string, error) {
	if !current.Known() || !next.Known() {
		return nil, ErrInvalidTransition
	}

	target := []string{rooms.OrderRoom(tenantID, orderID)}

	if next == ItemRejected || next == ItemCancelled {
		if current.Terminal() {
			return nil, ErrInvalidTransition
		}
		if next == ItemRejected && strings.TrimSpace(reason) == "" {
			return nil, ErrMissingReason
		}
		return target, nil
	}

	extra, ok := itemTransitions[current][next]
	if !ok {
		return nil, ErrInvalidTransition
	}

	switch extra {
	case targetKitchen:
		target = append(target, rooms.KitchenRoom(tenantID))
	case targetWaiters:
		target = append(target, rooms.WaitersRoom(tenantID))
	}

	return target, nil
}

// NewItemRooms returns the rooms notified when items are first placed on an
// order. New items are pending and need the kitchen's attention, so the
// kitchen room is included alongside the per-order room.
func NewItemRooms(tenantID, orderID string) []string {
	return []string{
		rooms.OrderRoom(tenantID, orderID),
		rooms.KitchenRoom(tenantID),
	}
}
