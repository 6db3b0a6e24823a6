package realtime

import (
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/realtime/internal/identity"
)

// Connection is the tracker's record of one live connection.
type Connection struct {
	ID             string
	Identity       identity.Identity
	ConnectedAt    time.Time
	LastActivityAt time.Time
}

// Tracker is the in-memory registry of live connections. State is rebuilt
// from scratch per process lifetime: clients re-authenticate and re-join
// rooms on reconnect.
type Tracker struct {
	mu     sync.RWMutex
	conns  map[string]*Connection
	logger apt.Logger
}

func NewTracker(logger apt.Logger) *Tracker {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Tracker{
		conns:  make(map[string]*Connection),
		logger: logger,
	}
}

func (t *Tracker) Register(connectionID string, ident identity.Identity) {
	now := time.Now()
	t.mu.Lock()
	t.conns[connectionID] = &Connection{
		ID:             connectionID,
		Identity:       ident,
		ConnectedAt:    now,
		LastActivityAt: now,
	}
	t.mu.Unlock()

	t.logger.Debug("connection registered",
		"connection_id", connectionID,
		"tenant_id", ident.TenantID,
		"role", string(ident.Role),
	)
}

// Touch refreshes the activity timestamp. Touching an absent connection is a
// no-op, never an error: disconnects race with in-flight messages.
func (t *Tracker) Touch(connectionID string) {
	t.mu.Lock()
	if conn, ok := t.conns[connectionID]; ok {
		conn.LastActivityAt = time.Now()
	}
	t.mu.Unlock()
}

func (t *Tracker) Remove(connectionID string) {
	t.mu.Lock()
	delete(t.conns, connectionID)
	t.mu.Unlock()
}

// Get returns a copy of the record for the given connection.
func (t *Tracker) Get(connectionID string) (Connection, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	conn, ok := t.conns[connectionID]
	if !ok {
		return Connection{}, false
	}
	return *conn, true
}

func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.conns)
}

// ListByTenant scans the table for a tenant's connections. Linear in the
// number of live connections, which is acceptable at gateway scale.
func (t *Tracker) ListByTenant(tenantID string) []Connection {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []Connection
	for _, conn := range t.conns {
		if conn.Identity.TenantID == tenantID {
			result = append(result, *conn)
		}
	}
	return result
}

// CountByTenantAndRole returns per-role connection counts for a tenant.
func (t *Tracker) CountByTenantAndRole(tenantID string) map[identity.Role]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	counts := make(map[identity.Role]int)
	for _, conn := range t.conns {
		if conn.Identity.TenantID == tenantID {
			counts[conn.Identity.Role]++
		}
	}
	return counts
}
