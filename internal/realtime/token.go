package realtime

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token expired")
	ErrTenantMismatch      = errors.New("token tenant does not match handshake tenant")
	ErrGuestMissingContext = errors.New("guest connections require tenant and table")
)

// Claims is the payload of a session token minted by the authn service.
type Claims struct {
	Subject     string   `json:"sub"`
	TenantID    string   `json:"tenant_id"`
	Roles       []string `json:"roles"`
	TableID     string   `json:"table_id,omitempty"`
	StaffID     string   `json:"staff_id,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	IssuedAt    int64    `json:"iat"`
	ExpiresAt   int64    `json:"exp"`
}

// TokenVerifier checks a session token's signature and expiry.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Ed25519Verifier verifies tokens signed by the authn service. The token is
// base64url(claims JSON) + "." + base64url(ed25519 signature over the
// encoded claims).
type Ed25519Verifier struct {
	key ed25519.PublicKey
}

// NewEd25519Verifier decodes a base64 public key, typically read from the
// auth.token.key.public config entry.
func NewEd25519Verifier(encoded string) (*Ed25519Verifier, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(keyBytes))
	}
	return &Ed25519Verifier{key: ed25519.PublicKey(keyBytes)}, nil
}

func (v *Ed25519Verifier) Verify(token string) (*Claims, error) {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok {
		return nil, ErrInvalidToken
	}

	sigBytes, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !ed25519.Verify(v.key, []byte(payload), sigBytes) {
		return nil, ErrInvalidToken
	}

	claimBytes, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(claimBytes, &claims); err != nil {
		return nil, ErrInvalidToken
	}

	if claims.ExpiresAt != 0 && time.Now().Unix() >= claims.ExpiresAt {
		return nil, ErrExpiredToken
	}

	return &claims, nil
}

// Ed25519Signer mints tokens in the verifier's format. The service itself
// never signs; this exists for the gen-token utility and tests.
type Ed25519Signer struct {
	key ed25519.PrivateKey
}

func NewEd25519Signer(encoded string) (*Ed25519Signer, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(keyBytes))
	}
	return &Ed25519Signer{key: ed25519.PrivateKey(keyBytes)}, nil
}

// GenerateKeyPair returns a fresh base64-encoded ed25519 key pair, used for
// development setups that have no configured keys.
func GenerateKeyPair() (publicKey, privateKey string, err error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return "", "", fmt.Errorf("generate key pair: %w", err)
	}
	return base64.StdEncoding.EncodeToString(pub), base64.StdEncoding.EncodeToString(priv), nil
}

func (s *Ed25519Signer) Sign(claims Claims) (string, error) {
	claimBytes, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(claimBytes)
	sig := ed25519.Sign(s.key, []byte(payload))
	return payload + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}
