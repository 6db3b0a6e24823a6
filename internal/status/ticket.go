package status

import (
	"time"

	"github.com/appetiteclub/realtime/internal/rooms"
)

// TicketStatus is the preparation lifecycle of a kitchen ticket.
type TicketStatus string

const (
	TicketPending    TicketStatus = "pending"
	TicketInProgress TicketStatus = "in_progress"
	TicketReady      TicketStatus = "ready"
	TicketCompleted  TicketStatus = "completed"
	TicketCancelled  TicketStatus = "cancelled"
)

func (s TicketStatus) Terminal() bool {
	return s == TicketCompleted || s == TicketCancelled
}

func (s TicketStatus) Known() bool {
	switch s {
	case TicketPending, TicketInProgress, TicketReady, TicketCompleted, TicketCancelled:
		return true
	}
	return false
}

// Priority is a triage signal for the kitchen. Changing it never alters the
// ticket status.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
	PriorityFire   Priority = "fire"
)

func (p Priority) Known() bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityUrgent, PriorityFire:
		return true
	}
	return false
}

// Ticket tracks the status, priority and pausable elapsed-time timer of a
// kitchen ticket. The kitchen service owns persistence; the gateway keeps
// this state only to validate transitions and compute elapsed time for
// broadcasts.
type Ticket struct {
	TenantID string
	TicketID string
	OrderID  string
	Status   TicketStatus
	Priority Priority

	StartedAt   *time.Time
	PausedAt    *time.Time
	PausedTotal time.Duration
}

func NewTicket(tenantID, ticketID, orderID string) *Ticket {
	return &Ticket{
		TenantID: tenantID,
		TicketID: ticketID,
		OrderID:  orderID,
		Status:   TicketPending,
		Priority: PriorityNormal,
	}
}

// Start moves a pending ticket into preparation and starts its timer. The
// waiter room is targeted alongside the kitchen so pickup staff see work
// begin.
func (t *Ticket) Start(now time.Time) ([]string, error) {
	if t.Status != TicketPending {
		return nil, ErrInvalidTransition
	}
	t.Status = TicketInProgress
	t.StartedAt = &now
	return []string{
		rooms.KitchenRoom(t.TenantID),
		rooms.WaitersRoom(t.TenantID),
		rooms.OrderRoom(t.TenantID, t.OrderID),
	}, nil
}

// MarkReady signals all items on the ticket are ready for pickup.
func (t *Ticket) MarkReady() ([]string, error) {
	if t.Status != TicketInProgress {
		return nil, ErrInvalidTransition
	}
	t.Status = TicketReady
	return []string{
		rooms.KitchenRoom(t.TenantID),
		rooms.WaitersRoom(t.TenantID),
		rooms.OrderRoom(t.TenantID, t.OrderID),
	}, nil
}

// Complete bumps a ready ticket off the board.
func (t *Ticket) Complete() ([]string, error) {
	if t.Status != TicketReady {
		return nil, ErrInvalidTransition
	}
	t.Status = TicketCompleted
	return []string{
		rooms.KitchenRoom(t.TenantID),
		rooms.WaitersRoom(t.TenantID),
	}, nil
}

// Cancel is only legal before the ticket is ready.
func (t *Ticket) Cancel() ([]string, error) {
	if t.Status != TicketPending && t.Status != TicketInProgress {
		return nil, ErrInvalidTransition
	}
	t.Status = TicketCancelled
	return []string{
		rooms.KitchenRoom(t.TenantID),
		rooms.WaitersRoom(t.TenantID),
	}, nil
}

// SetPriority changes the triage priority. It is legal from any non-terminal
// status and only the kitchen room is notified.
func (t *Ticket) SetPriority(p Priority) ([]string, error) {
	if !p.Known() || t.Status.Terminal() {
		return nil, ErrInvalidTransition
	}
	t.Priority = p
	return []string{rooms.KitchenRoom(t.TenantID)}, nil
}

// PauseTimer pauses the elapsed-time timer. Legal only while the ticket is
// in progress and not already paused.
func (t *Ticket) PauseTimer(now time.Time) error {
	if t.Status != TicketInProgress || t.PausedAt != nil {
		return ErrInvalidTimerState
	}
	t.PausedAt = &now
	return nil
}

// ResumeTimer resumes a paused timer, accumulating the paused duration.
func (t *Ticket) ResumeTimer(now time.Time) error {
	if t.Status != TicketInProgress || t.PausedAt == nil {
		return ErrInvalidTimerState
	}
	t.PausedTotal += now.Sub(*t.PausedAt)
	t.PausedAt = nil
	return nil
}

// Paused reports whether the timer is currently paused.
func (t *Ticket) Paused() bool {
	return t.PausedAt != nil
}

// Elapsed recomputes active preparation time. It is never cached: the value
// must stay correct across pause/resume cycles.
func (t *Ticket) Elapsed(now time.Time) time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	end := now
	if t.PausedAt != nil {
		end = *t.PausedAt
	}
	elapsed := end.Sub(*t.StartedAt) - t.PausedTotal
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// TimerRooms returns the broadcast target for timer updates.
func (t *Ticket) TimerRooms() []string {
	return []string{rooms.KitchenRoom(t.TenantID)}
}

// NewTicketRooms returns the rooms notified when a ticket first appears on
// the board.
func NewTicketRooms(tenantID, orderID string) []string {
	return []string{
		rooms.KitchenRoom(tenantID),
		rooms.OrderRoom(tenantID, orderID),
	}
}

// RecallRooms returns the rooms notified when served items are recalled to
// the kitchen.
func RecallRooms(tenantID, orderID string) []string {
	return []string{
		rooms.KitchenRoom(tenantID),
		rooms.WaitersRoom(tenantID),
		rooms.OrderRoom(tenantID, orderID),
	}
}
