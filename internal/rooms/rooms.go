package rooms

import (
	"fmt"

	"github.com/appetiteclub/realtime/internal/identity"
)

// Room names form a fixed tenant-scoped hierarchy. Every builder takes the
// tenant id as its first argument so a room name can never be constructed
// across a tenant boundary.

func TenantRoom(tenantID string) string {
	return fmt.Sprintf("tenant:%s", tenantID)
}

func WaitersRoom(tenantID string) string {
	return fmt.Sprintf("tenant:%s:waiters", tenantID)
}

func KitchenRoom(tenantID string) string {
	return fmt.Sprintf("tenant:%s:kitchen", tenantID)
}

func CustomersRoom(tenantID string) string {
	return fmt.Sprintf("tenant:%s:customers", tenantID)
}

func OwnersRoom(tenantID string) string {
	return fmt.Sprintf("tenant:%s:owners", tenantID)
}

func TableRoom(tenantID, tableID string) string {
	return fmt.Sprintf("tenant:%s:table:%s", tenantID, tableID)
}

func OrderRoom(tenantID, orderID string) string {
	return fmt.Sprintf("tenant:%s:order:%s", tenantID, orderID)
}

func WaiterRoom(tenantID, staffID string) string {
	return fmt.Sprintf("tenant:%s:waiter:%s", tenantID, staffID)
}

// RoomsFor computes the rooms a connection joins at authentication time. It
// is a pure function of the identity; malformed optional fields simply omit
// the dependent room.
func RoomsFor(id identity.Identity) []string {
	result := []string{TenantRoom(id.TenantID)}

	switch id.Role {
	case identity.RoleCustomer, identity.RoleGuest:
		result = append(result, CustomersRoom(id.TenantID))
		if id.TableID != "" {
			result = append(result, TableRoom(id.TenantID, id.TableID))
		}
	case identity.RoleWaiter:
		result = append(result, WaitersRoom(id.TenantID))
		if id.StaffID != "" {
			result = append(result, WaiterRoom(id.TenantID, id.StaffID))
		}
	case identity.RoleKitchen:
		result = append(result, KitchenRoom(id.TenantID))
	case identity.RoleOwner:
		result = append(result, OwnersRoom(id.TenantID), WaitersRoom(id.TenantID), KitchenRoom(id.TenantID))
	case identity.RoleAdmin:
		result = append(result,
			OwnersRoom(id.TenantID),
			WaitersRoom(id.TenantID),
			KitchenRoom(id.TenantID),
			CustomersRoom(id.TenantID),
		)
	}

	return result
}
