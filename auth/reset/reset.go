package reset

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenLifetime is how long a reset token stays redeemable.
const TokenLifetime = 1 * time.Hour

const tokenByteLength = 16 // 128 bits of entropy

// PasswordResetToken is the standalone ledger row for one issued reset token.
// The same token and expiry are also written onto the user record, which is
// the canonical consumption guard: once the user's fields are cleared, the
// token is dead even if this row is never deleted.
type PasswordResetToken struct {
	Token      string    // The token string itself, primary key
	Email      string    // Address the reset was requested for
	UserID     uuid.UUID // Owning user
	Expiration time.Time // Redemption deadline
}

// GenerateToken produces a URL-safe random token with padding and separator
// characters stripped, safe to embed in a reset link without escaping.
func GenerateToken() (string, error) {
	raw := make([]byte, tokenByteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("[GenerateToken] rand.Read: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(raw)
	return strings.NewReplacer("-", "", "_", "", "=", "").Replace(token), nil
}
