package realtime

import (
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/realtime/internal/identity"
)

// Handshake is the authentication payload a client sends right after the
// transport connection opens.
type Handshake struct {
	Token     string `json:"token,omitempty"`
	TenantID  string `json:"tenant_id,omitempty"`
	TableID   string `json:"table_id,omitempty"`
	StaffID   string `json:"staff_id,omitempty"`
	GuestName string `json:"guest_name,omitempty"`
}

// Authenticator turns handshake data into an immutable Identity, or fails.
// It never downgrades a failed token to guest access.
type Authenticator struct {
	verifier TokenVerifier
	logger   apt.Logger
}

func NewAuthenticator(verifier TokenVerifier, logger apt.Logger) *Authenticator {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Authenticator{
		verifier: verifier,
		logger:   logger,
	}
}

// Authenticate validates the handshake. With a token the signature, expiry,
// role claims and tenant binding are checked; without one, only tenant+table
// guest declarations are accepted.
func (a *Authenticator) Authenticate(hs Handshake) (*identity.Identity, error) {
	if hs.Token != "" {
		return a.authenticateToken(hs)
	}

	if hs.TenantID == "" || hs.TableID == "" {
		return nil, ErrGuestMissingContext
	}

	now := time.Now()
	return &identity.Identity{
		UserID:      fmt.Sprintf("guest_%s_%d", hs.TableID, now.UnixNano()),
		TenantID:    hs.TenantID,
		Role:        identity.RoleGuest,
		TableID:     hs.TableID,
		ConnectedAt: now,
		IsGuest:     true,
	}, nil
}

func (a *Authenticator) authenticateToken(hs Handshake) (*identity.Identity, error) {
	claims, err := a.verifier.Verify(hs.Token)
	if err != nil {
		return nil, err
	}

	if claims.TenantID == "" {
		return nil, ErrInvalidToken
	}

	// Anti-spoofing: a handshake tenant, when present, must match the token.
	if hs.TenantID != "" && hs.TenantID != claims.TenantID {
		return nil, ErrTenantMismatch
	}

	role, err := identity.RoleFromClaims(claims.Roles)
	if err != nil {
		return nil, err
	}

	tableID := claims.TableID
	if tableID == "" {
		tableID = hs.TableID
	}
	staffID := claims.StaffID
	if staffID == "" {
		staffID = hs.StaffID
	}

	return &identity.Identity{
		UserID:      claims.Subject,
		TenantID:    claims.TenantID,
		Role:        role,
		TableID:     tableID,
		StaffID:     staffID,
		Permissions: claims.Permissions,
		ConnectedAt: time.Now(),
		IsGuest:     false,
	}, nil
}
