package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/charms-backend/internal/model"
)

// ActorRepo is the actor directory: it stores and resolves local actor
// records by id or handle. Handle matching is exact and case-sensitive
// against the unique `username` column.
type ActorRepo struct{ DB *sql.DB }

func NewActorRepo(db *sql.DB) *ActorRepo { return &ActorRepo{DB: db} }

const actorColumns = "id,username,display_name,description,email,password_hash,host,avatar_url,public_key_pem,private_key_pem,is_private,is_active,is_admin,created_at,updated_at"

func scanActor(row *sql.Row) (model.Actor, error) {
	var a model.Actor
	err := row.Scan(&a.ID, &a.Username, &a.DisplayName, &a.Description, &a.Email,
		&a.PasswordHash, &a.Host, &a.AvatarURL, &a.PublicKeyPEM, &a.PrivateKeyPEM,
		&a.IsPrivate, &a.IsActive, &a.IsAdmin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Actor{}, ErrNotFound
		}
		return model.Actor{}, storeErr(err)
	}
	return a, nil
}

// Create inserts a new actor and populates the generated ID. The handle
// is checked for uniqueness before insert and a duplicate fails with
// ErrConflict; the unique index on `username` backs the same guarantee
// under concurrent creation, so an existing handle is never overwritten.
func (r *ActorRepo) Create(ctx context.Context, a *model.Actor) error {
	a.Username = strings.TrimSpace(a.Username)
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM actors WHERE username=?)", a.Username).Scan(&exists)
	if err != nil {
		return storeErr(err)
	}
	if exists {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO actors (username, display_name, description, email, password_hash, host, avatar_url, public_key_pem, private_key_pem, is_private, is_active, is_admin) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)",
		a.Username, a.DisplayName, a.Description, a.Email, a.PasswordHash, a.Host,
		a.AvatarURL, a.PublicKeyPEM, a.PrivateKeyPEM, a.IsPrivate, a.IsActive, a.IsAdmin)
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
	a.ID = uint64(id)
	return nil
}

// ByID resolves an actor by its primary key.
func (r *ActorRepo) ByID(ctx context.Context, id uint64) (model.Actor, error) {
	return scanActor(r.DB.QueryRowContext(ctx,
		"SELECT "+actorColumns+" FROM actors WHERE id=? LIMIT 1", id))
}

// ByUsername resolves an actor by its handle. The comparison is
// case-sensitive, hence the BINARY qualifier.
func (r *ActorRepo) ByUsername(ctx context.Context, username string) (model.Actor, error) {
	return scanActor(r.DB.QueryRowContext(ctx,
		"SELECT "+actorColumns+" FROM actors WHERE BINARY username=? LIMIT 1", username))
}

// UpdateProfile mutates the owner-editable fields: display name,
// description and the privacy flag.
func (r *ActorRepo) UpdateProfile(ctx context.Context, id uint64, displayName, description string, isPrivate bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE actors SET display_name=?, description=?, is_private=? WHERE id=?",
		displayName, description, isPrivate, id)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

// Activate flips is_active after a successful email verification.
func (r *ActorRepo) Activate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE actors SET is_active=1 WHERE id=?", id)
	if err != nil {
		return storeErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an actor and cascades its tokens, relationship edges,
// charms and files in a single transaction. Ownership of the cascade is
// exclusive to the directory; no other component deletes actor rows.
func (r *ActorRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		"DELETE FROM capability_tokens WHERE actor_id=?",
		"DELETE FROM charms WHERE actor_id=?",
		"DELETE FROM actor_files WHERE actor_id=?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return storeErr(err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM relationships WHERE subject_id=? OR object_id=?", id, id); err != nil {
		return storeErr(err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM actors WHERE id=?", id)
	if err != nil {
		return storeErr(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return storeErr(err)
	}
	return nil
}
