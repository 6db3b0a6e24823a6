package realtime

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/appetiteclub/realtime/internal/identity"
)

func TestTrackerRegisterAndGet(t *testing.T) {
	tracker := NewTracker(nil)

	ident := identity.Identity{UserID: "user_1", TenantID: "rest_1", Role: identity.RoleWaiter}
	tracker.Register("conn_1", ident)

	conn, ok := tracker.Get("conn_1")
	if !ok {
		t.Fatal("Get() did not find registered connection")
	}
	if conn.ID != "conn_1" || conn.Identity.UserID != "user_1" {
		t.Errorf("Get() = %+v, want conn_1/user_1", conn)
	}
	if conn.ConnectedAt.IsZero() || conn.LastActivityAt.IsZero() {
		t.Error("timestamps not set on register")
	}
	if tracker.Count() != 1 {
		t.Errorf("Count() = %d, want 1", tracker.Count())
	}
}

func TestTrackerTouch(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Register("conn_1", identity.Identity{TenantID: "rest_1", Role: identity.RoleWaiter})

	before, _ := tracker.Get("conn_1")
	time.Sleep(5 * time.Millisecond)
	tracker.Touch("conn_1")

	after, _ := tracker.Get("conn_1")
	if !after.LastActivityAt.After(before.LastActivityAt) {
		t.Error("Touch() did not advance LastActivityAt")
	}
	if !after.ConnectedAt.Equal(before.ConnectedAt) {
		t.Error("Touch() changed ConnectedAt")
	}

	// Touching an unknown connection is a silent no-op.
	tracker.Touch("conn_missing")
}

func TestTrackerRemove(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Register("conn_1", identity.Identity{TenantID: "rest_1"})

	tracker.Remove("conn_1")
	if _, ok := tracker.Get("conn_1"); ok {
		t.Error("Get() found removed connection")
	}
	if tracker.Count() != 0 {
		t.Errorf("Count() = %d, want 0", tracker.Count())
	}

	tracker.Remove("conn_1")
}

func TestTrackerTenantQueries(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Register("c1", identity.Identity{TenantID: "rest_a", Role: identity.RoleWaiter})
	tracker.Register("c2", identity.Identity{TenantID: "rest_a", Role: identity.RoleWaiter})
	tracker.Register("c3", identity.Identity{TenantID: "rest_a", Role: identity.RoleKitchen})
	tracker.Register("c4", identity.Identity{TenantID: "rest_b", Role: identity.RoleCustomer})

	if got := len(tracker.ListByTenant("rest_a")); got != 3 {
		t.Errorf("ListByTenant(rest_a) returned %d connections, want 3", got)
	}
	if got := len(tracker.ListByTenant("rest_c")); got != 0 {
		t.Errorf("ListByTenant(rest_c) returned %d connections, want 0", got)
	}

	counts := tracker.CountByTenantAndRole("rest_a")
	if counts[identity.RoleWaiter] != 2 || counts[identity.RoleKitchen] != 1 {
		t.Errorf("CountByTenantAndRole(rest_a) = %v, want waiter:2 kitchen:1", counts)
	}
	if _, ok := counts[identity.RoleCustomer]; ok {
		t.Error("rest_b connection leaked into rest_a counts")
	}
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tracker := NewTracker(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("conn_%d", n)
			tracker.Register(id, identity.Identity{TenantID: "rest_1", Role: identity.RoleCustomer})
			tracker.Touch(id)
			tracker.Get(id)
			tracker.CountByTenantAndRole("rest_1")
			if n%2 == 0 {
				tracker.Remove(id)
			}
		}(i)
	}
	wg.Wait()

	if got := tracker.Count(); got != 25 {
		t.Errorf("Count() = %d, want 25", got)
	}
}
