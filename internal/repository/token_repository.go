package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/charms-backend/internal/model"
)

// TokenRepo is the capability token authority's persistence layer. A
// token row is looked up by its unique `token` column (indexed point
// query); the owning actor is resolved in the same statement with a
// join, so authorization never needs a second round trip.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store persists a freshly issued token with its capability flags and
// is_active = true. The issue timestamp is fixed here and written with
// the row, so callers report the same created_at the store holds.
// The token value itself is derived by the caller
// (utils.NewCapabilityToken) from a cryptographic hash of the issue
// timestamp, the actor id and a random nonce.
func (r *TokenRepo) Store(ctx context.Context, t *model.CapabilityToken) error {
	t.CreatedAt = time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO capability_tokens (actor_id, token, is_active, can_post_charms, can_change_password, can_change_username, can_change_email, can_delete_account, created_at) VALUES (?,?,1,?,?,?,?,?,?)",
		t.ActorID, t.Token,
		t.Caps.CanPostCharms, t.Caps.CanChangePassword, t.Caps.CanChangeUsername,
		t.Caps.CanChangeEmail, t.Caps.CanDeleteAccount, t.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return storeErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storeErr(err)
	}
	t.ID = uint64(id)
	t.IsActive = true
	return nil
}

// Lookup resolves a raw token value to the token record and its owning
// actor. A missing token and a revoked one both yield ErrUnauthorized;
// the caller cannot tell the two apart.
func (r *TokenRepo) Lookup(ctx context.Context, token string) (model.CapabilityToken, model.Actor, error) {
	const q = `SELECT t.id, t.actor_id, t.token, t.is_active,
		t.can_post_charms, t.can_change_password, t.can_change_username, t.can_change_email, t.can_delete_account,
		t.created_at,
		a.id, a.username, a.display_name, a.description, a.email, a.password_hash, a.host, a.avatar_url,
		a.public_key_pem, a.private_key_pem, a.is_private, a.is_active, a.is_admin, a.created_at, a.updated_at
		FROM capability_tokens t JOIN actors a ON a.id = t.actor_id
		WHERE t.token=? LIMIT 1`
	var (
		t model.CapabilityToken
		a model.Actor
	)
	err := r.DB.QueryRowContext(ctx, q, token).Scan(
		&t.ID, &t.ActorID, &t.Token, &t.IsActive,
		&t.Caps.CanPostCharms, &t.Caps.CanChangePassword, &t.Caps.CanChangeUsername,
		&t.Caps.CanChangeEmail, &t.Caps.CanDeleteAccount,
		&t.CreatedAt,
		&a.ID, &a.Username, &a.DisplayName, &a.Description, &a.Email, &a.PasswordHash,
		&a.Host, &a.AvatarURL, &a.PublicKeyPEM, &a.PrivateKeyPEM,
		&a.IsPrivate, &a.IsActive, &a.IsAdmin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CapabilityToken{}, model.Actor{}, ErrUnauthorized
		}
		return model.CapabilityToken{}, model.Actor{}, storeErr(err)
	}
	if !t.IsActive {
		return model.CapabilityToken{}, model.Actor{}, ErrUnauthorized
	}
	return t, a, nil
}

// Authorize resolves a token and checks one required capability. It
// returns ErrUnauthorized if the token does not exist or is revoked,
// and ErrForbidden if it exists but lacks the capability flag.
func (r *TokenRepo) Authorize(ctx context.Context, token string, required model.Capability) (model.Actor, error) {
	t, a, err := r.Lookup(ctx, token)
	if err != nil {
		return model.Actor{}, err
	}
	if !t.Has(required) {
		return model.Actor{}, ErrForbidden
	}
	return a, nil
}

// Revoke deactivates a token. The owner check happens before the write:
// revocation succeeds only when the token's actor_id matches ownerID,
// otherwise ErrUnauthorized is returned and the row is untouched.
// Revocation is terminal; a revoked token is never reactivated.
func (r *TokenRepo) Revoke(ctx context.Context, token string, ownerID uint64) error {
	var actorID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT actor_id FROM capability_tokens WHERE token=? LIMIT 1", token).Scan(&actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUnauthorized
		}
		return storeErr(err)
	}
	if actorID != ownerID {
		return ErrUnauthorized
	}
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE capability_tokens SET is_active=0 WHERE token=?", token); err != nil {
		return storeErr(err)
	}
	return nil
}
