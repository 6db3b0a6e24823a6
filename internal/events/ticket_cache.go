package events

import (
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/realtime/internal/status"
)

// TicketCache holds the live kitchen tickets the bridge has seen, so status
// and timer events can be validated against current state and elapsed time
// can be recomputed for broadcasts. It is rebuilt from the event flow per
// process lifetime; the kitchen service remains the source of truth.
type TicketCache struct {
	mu      sync.RWMutex
	tickets map[string]*status.Ticket
	logger  apt.Logger
}

func NewTicketCache(logger apt.Logger) *TicketCache {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &TicketCache{
		tickets: make(map[string]*status.Ticket),
		logger:  logger,
	}
}

func (c *TicketCache) Set(t *status.Ticket) {
	if t == nil {
		return
	}
	c.mu.Lock()
	c.tickets[t.TicketID] = t
	c.mu.Unlock()
}

func (c *TicketCache) Get(ticketID string) (*status.Ticket, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tickets[ticketID]
	return t, ok
}

func (c *TicketCache) Remove(ticketID string) {
	c.mu.Lock()
	delete(c.tickets, ticketID)
	c.mu.Unlock()
}

func (c *TicketCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tickets)
}

// ByTenant returns the live tickets for one tenant.
func (c *TicketCache) ByTenant(tenantID string) []*status.Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []*status.Ticket
	for _, t := range c.tickets {
		if t.TenantID == tenantID {
			result = append(result, t)
		}
	}
	return result
}
