package commands

import (
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/realtime/internal/realtime"
)

// GenKeys prints a fresh base64 ed25519 key pair. The private half belongs
// in the authn service (and UTILS_AUTH_TOKEN_KEY_PRIVATE for gen-token); the
// public half is the gateway's auth.token.key.public.
func GenKeys(logger apt.Logger) error {
	publicKey, privateKey, err := realtime.GenerateKeyPair()
	if err != nil {
		return err
	}

	logger.Info("key pair generated")
	fmt.Printf("public:  %s\n", publicKey)
	fmt.Printf("private: %s\n", privateKey)
	return nil
}
