package commands

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/realtime/internal/realtime"
)

// GenToken mints a signed development token using the same key material the
// authn service signs with (auth.token.key.private).
func GenToken(config *apt.Config, logger apt.Logger, args []string) error {
	fs := flag.NewFlagSet("gen-token", flag.ContinueOnError)
	sub := fs.String("sub", "dev-user", "subject (user id)")
	tenant := fs.String("tenant", "", "tenant id")
	roles := fs.String("roles", "waiter", "comma-separated role claims")
	table := fs.String("table", "", "table id")
	staff := fs.String("staff", "", "staff id")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *tenant == "" {
		return fmt.Errorf("-tenant is required")
	}

	privateKey, _ := config.GetString("auth.token.key.private")
	if privateKey == "" {
		return fmt.Errorf("auth.token.key.private is not configured (run gen-keys first)")
	}

	signer, err := realtime.NewEd25519Signer(privateKey)
	if err != nil {
		return fmt.Errorf("load signing key: %w", err)
	}

	now := time.Now()
	token, err := signer.Sign(realtime.Claims{
		Subject:   *sub,
		TenantID:  *tenant,
		Roles:     strings.Split(*roles, ","),
		TableID:   *table,
		StaffID:   *staff,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(*ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	logger.Info("token generated", "tenant_id", *tenant, "roles", *roles, "expires", now.Add(*ttl).Format(time.RFC3339))
	fmt.Println(token)
	return nil
}
