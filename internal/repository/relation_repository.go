package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/charms-backend/internal/model"
	"github.com/iliyamo/charms-backend/internal/visibility"
)

// RelationRepo is the relationship index. It stores directed follow and
// block edges between actor ids and answers membership queries with
// indexed point lookups: every query below is keyed on (kind, subject_id)
// or (kind, object_id), both covered by composite indexes, so no lookup
// ever scans the full table. Duplicate edges are prevented by the unique
// key over (kind, subject_id, object_id) inside the store itself, which
// holds under concurrent follow attempts.
type RelationRepo struct{ DB *sql.DB }

func NewRelationRepo(db *sql.DB) *RelationRepo { return &RelationRepo{DB: db} }

// create inserts an edge of the given kind. Self-edges are rejected with
// ErrInvalidArgument, duplicates surface as ErrConflict.
func (r *RelationRepo) create(ctx context.Context, kind model.RelationKind, subject, object uint64) error {
	if subject == object {
		return ErrInvalidArgument
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO relationships (kind, subject_id, object_id) VALUES (?,?,?)",
		string(kind), subject, object)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return storeErr(err)
	}
	return nil
}

// remove deletes an edge of the given kind. Removing a non-existent
// edge is not an error (idempotent unfollow/unblock).
func (r *RelationRepo) remove(ctx context.Context, kind model.RelationKind, subject, object uint64) error {
	if subject == object {
		return ErrInvalidArgument
	}
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM relationships WHERE kind=? AND subject_id=? AND object_id=?",
		string(kind), subject, object)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

// Follow records that subject follows object.
func (r *RelationRepo) Follow(ctx context.Context, subject, object uint64) error {
	return r.create(ctx, model.RelFollow, subject, object)
}

// Unfollow removes the follow edge if present.
func (r *RelationRepo) Unfollow(ctx context.Context, subject, object uint64) error {
	return r.remove(ctx, model.RelFollow, subject, object)
}

// Block records that subject has blocked object.
func (r *RelationRepo) Block(ctx context.Context, subject, object uint64) error {
	return r.create(ctx, model.RelBlock, subject, object)
}

// Unblock removes the block edge if present.
func (r *RelationRepo) Unblock(ctx context.Context, subject, object uint64) error {
	return r.remove(ctx, model.RelBlock, subject, object)
}

func (r *RelationRepo) exists(ctx context.Context, kind model.RelationKind, subject, object uint64) (bool, error) {
	var found bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM relationships WHERE kind=? AND subject_id=? AND object_id=?)",
		string(kind), subject, object).Scan(&found)
	if err != nil {
		return false, storeErr(err)
	}
	return found, nil
}

// IsFollowing reports whether a follows b.
func (r *RelationRepo) IsFollowing(ctx context.Context, a, b uint64) (bool, error) {
	return r.exists(ctx, model.RelFollow, a, b)
}

// IsBlockedBy reports whether b has blocked a.
func (r *RelationRepo) IsBlockedBy(ctx context.Context, a, b uint64) (bool, error) {
	return r.exists(ctx, model.RelBlock, b, a)
}

func (r *RelationRepo) idsByEdge(ctx context.Context, query string, actorID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx, query, actorID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return ids, nil
}

// FollowerIDs returns the ids of actors following actorID, in
// edge-creation order (ascending edge id).
func (r *RelationRepo) FollowerIDs(ctx context.Context, actorID uint64) ([]uint64, error) {
	return r.idsByEdge(ctx,
		"SELECT subject_id FROM relationships WHERE kind='follow' AND object_id=? ORDER BY id", actorID)
}

// FollowingIDs returns the ids of actors actorID follows, in
// edge-creation order.
func (r *RelationRepo) FollowingIDs(ctx context.Context, actorID uint64) ([]uint64, error) {
	return r.idsByEdge(ctx,
		"SELECT object_id FROM relationships WHERE kind='follow' AND subject_id=? ORDER BY id", actorID)
}

func (r *RelationRepo) countByEdge(ctx context.Context, query string, actorID uint64) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, query, actorID).Scan(&n); err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

// FollowerCount returns the number of actors following actorID.
func (r *RelationRepo) FollowerCount(ctx context.Context, actorID uint64) (int, error) {
	return r.countByEdge(ctx,
		"SELECT COUNT(*) FROM relationships WHERE kind='follow' AND object_id=?", actorID)
}

// FollowingCount returns the number of actors actorID follows.
func (r *RelationRepo) FollowingCount(ctx context.Context, actorID uint64) (int, error) {
	return r.countByEdge(ctx,
		"SELECT COUNT(*) FROM relationships WHERE kind='follow' AND subject_id=?", actorID)
}

// Snapshot reads the three visibility inputs (the owner's privacy
// flag, the block edge against the viewer and the viewer's follow edge)
// in one SQL statement, so the gate always evaluates a single consistent
// read and a concurrently created block cannot fall between the cracks.
// A zero viewerID (anonymous) yields false for both edge flags.
func (r *RelationRepo) Snapshot(ctx context.Context, viewerID, ownerID uint64) (visibility.Snapshot, error) {
	const q = `SELECT a.is_private,
		EXISTS(SELECT 1 FROM relationships WHERE kind='block' AND subject_id=a.id AND object_id=?),
		EXISTS(SELECT 1 FROM relationships WHERE kind='follow' AND subject_id=? AND object_id=a.id)
		FROM actors a WHERE a.id=?`
	s := visibility.Snapshot{OwnerID: ownerID}
	err := r.DB.QueryRowContext(ctx, q, viewerID, viewerID, ownerID).
		Scan(&s.OwnerPrivate, &s.ViewerBlocked, &s.ViewerFollows)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return visibility.Snapshot{}, ErrNotFound
		}
		return visibility.Snapshot{}, storeErr(err)
	}
	return s, nil
}
