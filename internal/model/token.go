package model

import "time"

// Capability names the individual permissions a token can carry.
// Each capability maps to one boolean column on the capability_tokens
// table; a token is never escalated after issue, changing permissions
// requires issuing a new token.
type Capability string

const (
	CanPostCharms     Capability = "can_post_charms"
	CanChangePassword Capability = "can_change_password"
	CanChangeUsername Capability = "can_change_username"
	CanChangeEmail    Capability = "can_change_email"
	CanDeleteAccount  Capability = "can_delete_account"
)

// CapabilitySet holds the requested permission flags for a new token.
// It doubles as the wire shape of the token-issue request body.
type CapabilitySet struct {
	CanPostCharms     bool `json:"can_post_charms"`
	CanChangePassword bool `json:"can_change_password"`
	CanChangeUsername bool `json:"can_change_username"`
	CanChangeEmail    bool `json:"can_change_email"`
	CanDeleteAccount  bool `json:"can_delete_account"`
}

// CapabilityToken models an entry in the `capability_tokens` table.
// A token is an opaque credential scoped to a fixed set of named
// permissions. Multiple live tokens per actor are permitted (session
// semantics). Revocation flips IsActive and is terminal.
//
// Fields:
//  ID        – primary key identifier.
//  ActorID   – owner of the token; must reference an existing actor.
//  Token     – unique opaque value, a SHA-256 digest of (timestamp, actor id, nonce).
//  IsActive  – false once revoked.
//  Caps      – the permission flags fixed at issue time.
//  CreatedAt – timestamp of issue.
type CapabilityToken struct {
	ID        uint64        // capability_tokens.id
	ActorID   uint64        // capability_tokens.actor_id
	Token     string        // capability_tokens.token
	IsActive  bool          // capability_tokens.is_active
	Caps      CapabilitySet // capability_tokens.can_* columns
	CreatedAt time.Time     // capability_tokens.created_at
}

// Has reports whether the token carries the named capability.
func (t CapabilityToken) Has(c Capability) bool {
	switch c {
	case CanPostCharms:
		return t.Caps.CanPostCharms
	case CanChangePassword:
		return t.Caps.CanChangePassword
	case CanChangeUsername:
		return t.Caps.CanChangeUsername
	case CanChangeEmail:
		return t.Caps.CanChangeEmail
	case CanDeleteAccount:
		return t.Caps.CanDeleteAccount
	}
	return false
}
