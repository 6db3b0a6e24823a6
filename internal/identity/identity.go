package identity

import (
	"errors"
	"strings"
	"time"
)

var ErrNoValidRole = errors.New("no recognized role claim")

// Role is the single primary role attached to a live connection.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOwner    Role = "owner"
	RoleWaiter   Role = "waiter"
	RoleKitchen  Role = "kitchen"
	RoleCustomer Role = "customer"
	RoleGuest    Role = "guest"
)

// All lists every role the gateway recognizes.
var All = []Role{RoleAdmin, RoleOwner, RoleWaiter, RoleKitchen, RoleCustomer, RoleGuest}

// Precedence returns the total ordering used to pick a primary role when a
// token carries several role claims. Higher wins.
func (r Role) Precedence() int {
	switch r {
	case RoleAdmin:
		return 6
	case RoleOwner:
		return 5
	case RoleWaiter:
		return 4
	case RoleKitchen:
		return 3
	case RoleCustomer:
		return 2
	case RoleGuest:
		return 1
	}
	return 0
}

// roleAliases maps raw claim strings to gateway roles. Tokens minted by older
// authn releases carry STAFF and CHEF instead of waiter/kitchen.
var roleAliases = map[string]Role{
	"admin":    RoleAdmin,
	"owner":    RoleOwner,
	"waiter":   RoleWaiter,
	"staff":    RoleWaiter,
	"kitchen":  RoleKitchen,
	"chef":     RoleKitchen,
	"cook":     RoleKitchen,
	"customer": RoleCustomer,
}

// RoleFromClaims maps raw role claims to the highest-precedence recognized
// role. Guest is never derivable from a token claim.
func RoleFromClaims(claims []string) (Role, error) {
	var best Role
	for _, claim := range claims {
		role, ok := roleAliases[strings.ToLower(strings.TrimSpace(claim))]
		if !ok {
			continue
		}
		if role.Precedence() > best.Precedence() {
			best = role
		}
	}
	if best == "" {
		return "", ErrNoValidRole
	}
	return best, nil
}

// Identity describes an authenticated connection. It is created once per
// connection and never mutated afterwards.
type Identity struct {
	ConnectionID string    `json:"connection_id"`
	UserID       string    `json:"user_id"`
	TenantID     string    `json:"tenant_id"`
	Role         Role      `json:"role"`
	TableID      string    `json:"table_id,omitempty"`
	StaffID      string    `json:"staff_id,omitempty"`
	Permissions  []string  `json:"permissions,omitempty"`
	ConnectedAt  time.Time `json:"connected_at"`
	IsGuest      bool      `json:"is_guest"`
}

// CanViewStats reports whether the role may query connection statistics.
func (i Identity) CanViewStats() bool {
	return i.Role == RoleAdmin || i.Role == RoleOwner
}
