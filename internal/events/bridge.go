package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	aptevents "github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/realtime/internal/status"
	"github.com/appetiteclub/realtime/pkg/event"
)

// Broadcaster pushes an envelope to every connection in the given rooms.
// Implemented by the realtime hub.
type Broadcaster interface {
	BroadcastEnvelope(roomNames []string, env event.Envelope) int
}

// Bridge consumes domain events from the broker, validates status
// transitions, resolves target rooms and fans the event out to connected
// clients.
//
// Delivery is best-effort, at-most-once per connected client, per broker
// delivery. There is no event log: a redelivered broker message is broadcast
// again and clients missed by a disconnect are not caught up. Error policy:
// structurally broken payloads return an error so the broker consumer can
// negatively acknowledge and redeliver or dead-letter; semantically illegal
// transitions are logged, never broadcast, and acknowledged since redelivery
// cannot fix them.
type Bridge struct {
	orderSub    aptevents.Subscriber
	kitchenSub  aptevents.Subscriber
	broadcaster Broadcaster
	cache       *TicketCache
	logger      apt.Logger

	// Dispatch table from event_type to handler, built once at
	// construction.
	handlers map[string]aptevents.HandlerFunc
}

func NewBridge(orderSub, kitchenSub aptevents.Subscriber, broadcaster Broadcaster, cache *TicketCache, logger apt.Logger) *Bridge {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	b := &Bridge{
		orderSub:    orderSub,
		kitchenSub:  kitchenSub,
		broadcaster: broadcaster,
		cache:       cache,
		logger:      logger,
	}
	b.handlers = map[string]aptevents.HandlerFunc{
		event.EventOrderItemsNew:       b.handleOrderItemsNew,
		event.EventOrderItemsAccepted:  b.handleOrderItemsStatus,
		event.EventOrderItemsPreparing: b.handleOrderItemsStatus,
		event.EventOrderItemsReady:     b.handleOrderItemsStatus,
		event.EventOrderItemsServed:    b.handleOrderItemsStatus,
		event.EventOrderItemsRejected:  b.handleOrderItemsStatus,
		event.EventOrderItemsCancelled: b.handleOrderItemsStatus,

		event.EventKitchenTicketNew:       b.handleTicketNew,
		event.EventKitchenTicketStarted:   b.handleTicketStatus,
		event.EventKitchenTicketReady:     b.handleTicketStatus,
		event.EventKitchenTicketCompleted: b.handleTicketStatus,
		event.EventKitchenTicketCancelled: b.handleTicketStatus,
		event.EventKitchenTicketPriority:  b.handleTicketPriority,
		event.EventKitchenItemsRecalled:   b.handleItemsRecalled,
		event.EventKitchenTimersUpdate:    b.handleTimersUpdate,
	}
	return b
}

func (b *Bridge) Start(ctx context.Context) error {
	b.logger.Info("starting event fan-out bridge",
		"topics", fmt.Sprintf("%s, %s", event.OrderItemsTopic, event.KitchenTicketsTopic),
	)

	if b.orderSub == nil || b.kitchenSub == nil {
		return fmt.Errorf("event bridge subscribers not configured")
	}

	if err := b.orderSub.Subscribe(ctx, event.OrderItemsTopic, b.HandleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.OrderItemsTopic, err)
	}
	if err := b.kitchenSub.Subscribe(ctx, event.KitchenTicketsTopic, b.HandleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.KitchenTicketsTopic, err)
	}

	b.logger.Info("event fan-out bridge started")
	return nil
}

// HandleEvent dispatches one broker delivery by its event_type.
func (b *Bridge) HandleEvent(ctx context.Context, msg []byte) error {
	var head struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(msg, &head); err != nil {
		return fmt.Errorf("malformed event payload: %w", err)
	}

	handler, ok := b.handlers[head.EventType]
	if !ok {
		b.logger.Debug("unhandled event type", "event_type", head.EventType)
		return nil
	}

	return handler(ctx, msg)
}

// Handles reports whether the dispatch table covers an event type.
func (b *Bridge) Handles(eventType string) bool {
	_, ok := b.handlers[eventType]
	return ok
}

func (b *Bridge) handleOrderItemsNew(ctx context.Context, msg []byte) error {
	var evt event.OrderItemsEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		return fmt.Errorf("malformed order items event: %w", err)
	}
	if evt.TenantID == "" || evt.OrderID == "" {
		return fmt.Errorf("order items event missing tenant_id or order_id")
	}

	b.publish(status.NewItemRooms(evt.TenantID, evt.OrderID), evt.EventType, evt, evt.TenantID, "order")
	return nil
}

// itemEventStatus maps order event names to the status the transition ends
// in.
var itemEventStatus = map[string]status.ItemStatus{
	event.EventOrderItemsAccepted:  status.ItemAccepted,
	event.EventOrderItemsPreparing: status.ItemPreparing,
	event.EventOrderItemsReady:     status.ItemReady,
	event.EventOrderItemsServed:    status.ItemServed,
	event.EventOrderItemsRejected:  status.ItemRejected,
	event.EventOrderItemsCancelled: status.ItemCancelled,
}

func (b *Bridge) handleOrderItemsStatus(ctx context.Context, msg []byte) error {
	var evt event.OrderItemsEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		return fmt.Errorf("malformed order items event: %w", err)
	}
	if evt.TenantID == "" || evt.OrderID == "" {
		return fmt.Errorf("order items event missing tenant_id or order_id")
	}

	next := itemEventStatus[evt.EventType]
	current := status.ItemStatus(evt.PreviousStatus)

	target, err := status.ItemTransition(evt.TenantID, evt.OrderID, current, next, evt.RejectionReason)
	if err != nil {
		b.logger.Info("dropping illegal order item transition",
			"order_id", evt.OrderID,
			"from", evt.PreviousStatus,
			"to", string(next),
			"error", err,
		)
		return nil
	}

	b.publish(target, evt.EventType, evt, evt.TenantID, "order")
	return nil
}

func (b *Bridge) handleTicketNew(ctx context.Context, msg []byte) error {
	var evt event.KitchenTicketEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		return fmt.Errorf("malformed kitchen ticket event: %w", err)
	}
	if evt.TenantID == "" || evt.TicketID == "" || evt.OrderID == "" {
		return fmt.Errorf("kitchen ticket event missing tenant_id, ticket_id or order_id")
	}

	ticket := status.NewTicket(evt.TenantID, evt.TicketID, evt.OrderID)
	if evt.Priority != "" {
		if _, err := ticket.SetPriority(status.Priority(evt.Priority)); err != nil {
			b.logger.Info("ignoring unknown ticket priority", "ticket_id", evt.TicketID, "priority", evt.Priority)
		}
	}
	b.cache.Set(ticket)

	b.publish(status.NewTicketRooms(evt.TenantID, evt.OrderID), evt.EventType, evt, evt.TenantID, "kitchen")
	return nil
}

func (b *Bridge) handleTicketStatus(ctx context.Context, msg []byte) error {
	var evt event.KitchenTicketEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		return fmt.Errorf("malformed kitchen ticket event: %w", err)
	}
	if evt.TenantID == "" || evt.TicketID == "" || evt.OrderID == "" {
		return fmt.Errorf("kitchen ticket event missing tenant_id, ticket_id or order_id")
	}

	ticket, ok := b.cache.Get(evt.TicketID)
	if ok && ticket.TenantID != evt.TenantID {
		// Ticket ids are only unique per tenant. An event claiming another
		// tenant's id must never be validated against this ticket.
		return fmt.Errorf("kitchen ticket event for %s carries tenant %s, ticket belongs to %s", evt.TicketID, evt.TenantID, ticket.TenantID)
	}
	if !ok {
		// First sighting mid-lifecycle: seed from the event's previous
		// status so the transition can still be validated.
		seed := status.TicketStatus(evt.PreviousStatus)
		if !seed.Known() {
			return fmt.Errorf("kitchen ticket event for unknown ticket %s with no usable previous_status", evt.TicketID)
		}
		ticket = status.NewTicket(evt.TenantID, evt.TicketID, evt.OrderID)
		ticket.Status = seed
		b.cache.Set(ticket)
	}

	var (
		target []string
		err    error
	)
	switch evt.EventType {
	case event.EventKitchenTicketStarted:
		target, err = ticket.Start(time.Now())
	case event.EventKitchenTicketReady:
		target, err = ticket.MarkReady()
	case event.EventKitchenTicketCompleted:
		target, err = ticket.Complete()
	case event.EventKitchenTicketCancelled:
		target, err = ticket.Cancel()
	}
	if err != nil {
		b.logger.Info("dropping illegal kitchen ticket transition",
			"ticket_id", evt.TicketID,
			"from", string(ticket.Status),
			"event", evt.EventType,
			"error", err,
		)
		return nil
	}

	if ticket.Status.Terminal() {
		b.cache.Remove(evt.TicketID)
	}

	b.publish(target, evt.EventType, evt, evt.TenantID, "kitchen")
	return nil
}

func (b *Bridge) handleTicketPriority(ctx context.Context, msg []byte) error {
	var evt event.KitchenTicketEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		return fmt.Errorf("malformed kitchen ticket event: %w", err)
	}
	if evt.TenantID == "" || evt.TicketID == "" {
		return fmt.Errorf("kitchen ticket event missing tenant_id or ticket_id")
	}

	ticket, ok := b.cache.Get(evt.TicketID)
	if ok && ticket.TenantID != evt.TenantID {
		return fmt.Errorf("kitchen ticket event for %s carries tenant %s, ticket belongs to %s", evt.TicketID, evt.TenantID, ticket.TenantID)
	}
	if !ok {
		ticket = status.NewTicket(evt.TenantID, evt.TicketID, evt.OrderID)
		b.cache.Set(ticket)
	}

	target, err := ticket.SetPriority(status.Priority(evt.Priority))
	if err != nil {
		b.logger.Info("dropping illegal ticket priority change",
			"ticket_id", evt.TicketID,
			"priority", evt.Priority,
			"status", string(ticket.Status),
			"error", err,
		)
		return nil
	}

	b.publish(target, evt.EventType, evt, evt.TenantID, "kitchen")
	return nil
}

func (b *Bridge) handleItemsRecalled(ctx context.Context, msg []byte) error {
	var evt event.KitchenTicketEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		return fmt.Errorf("malformed kitchen ticket event: %w", err)
	}
	if evt.TenantID == "" || evt.OrderID == "" {
		return fmt.Errorf("kitchen recall event missing tenant_id or order_id")
	}

	b.publish(status.RecallRooms(evt.TenantID, evt.OrderID), evt.EventType, evt, evt.TenantID, "kitchen")
	return nil
}

func (b *Bridge) handleTimersUpdate(ctx context.Context, msg []byte) error {
	var evt event.KitchenTimerEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		return fmt.Errorf("malformed kitchen timer event: %w", err)
	}
	if evt.TenantID == "" || evt.TicketID == "" {
		return fmt.Errorf("kitchen timer event missing tenant_id or ticket_id")
	}

	ticket, ok := b.cache.Get(evt.TicketID)
	if !ok {
		b.logger.Debug("timer update for unknown ticket", "ticket_id", evt.TicketID)
		return nil
	}
	if ticket.TenantID != evt.TenantID {
		return fmt.Errorf("kitchen timer event for %s carries tenant %s, ticket belongs to %s", evt.TicketID, evt.TenantID, ticket.TenantID)
	}

	now := time.Now()
	switch evt.Action {
	case event.TimerActionPause:
		if err := ticket.PauseTimer(now); err != nil {
			b.logger.Info("dropping illegal timer pause",
				"ticket_id", evt.TicketID,
				"status", string(ticket.Status),
				"error", err,
			)
			return nil
		}
	case event.TimerActionResume:
		if err := ticket.ResumeTimer(now); err != nil {
			b.logger.Info("dropping illegal timer resume",
				"ticket_id", evt.TicketID,
				"status", string(ticket.Status),
				"error", err,
			)
			return nil
		}
	case event.TimerActionTick:
		// Periodic refresh, no state change.
	default:
		return fmt.Errorf("unknown timer action %q", evt.Action)
	}

	b.publish(ticket.TimerRooms(), event.EventKitchenTimersUpdate, map[string]interface{}{
		"ticket_id":       evt.TicketID,
		"order_id":        ticket.OrderID,
		"elapsed_seconds": int(ticket.Elapsed(now).Seconds()),
		"paused":          ticket.Paused(),
	}, evt.TenantID, "kitchen")
	return nil
}

func (b *Bridge) publish(roomNames []string, eventName string, data interface{}, tenantID, source string) {
	env := event.Envelope{
		Event:     eventName,
		Data:      data,
		Timestamp: time.Now().UTC(),
		Metadata: event.Metadata{
			TenantID:      tenantID,
			SourceService: source,
		},
	}
	delivered := b.broadcaster.BroadcastEnvelope(roomNames, env)
	b.logger.Debug("event broadcast",
		"event", eventName,
		"tenant_id", tenantID,
		"rooms", len(roomNames),
		"delivered", delivered,
	)
}
