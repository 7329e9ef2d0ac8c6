package utils // token value derivation for the capability token authority

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// NewCapabilityToken derives a unique opaque token value from a SHA-256
// hash of the current timestamp, the owning actor's id and a random
// nonce. The result is a 64-character hex string. Collisions would be
// caught by the unique index on the token column, but the nonce makes
// them practically impossible even for tokens issued in the same
// nanosecond.
func NewCapabilityToken(actorID uint64) (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d%d%x",
		time.Now().UTC().UnixNano(), actorID, nonce)))
	return hex.EncodeToString(sum[:]), nil
}
