package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrBadVerification is returned for an expired, malformed or
// forged email-verification token.
var ErrBadVerification = errors.New("invalid verification token")

// NewVerificationToken builds the signed HS256 token embedded in the
// verification link that is mailed to a new account. The subject claim
// carries the actor id; the token expires after ttl. Unlike capability
// tokens it is never persisted; possession of a valid signature is the
// proof that the address received the mail.
func NewVerificationToken(secret string, actorID uint64, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(actorID, 10),
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseVerificationToken validates a verification token and returns the
// actor id it was issued for.
func ParseVerificationToken(secret, raw string) (uint64, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadVerification
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, ErrBadVerification
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrBadVerification
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, ErrBadVerification
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrBadVerification
	}
	return id, nil
}
