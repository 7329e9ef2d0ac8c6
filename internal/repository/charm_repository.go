package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/charms-backend/internal/model"
)

// CharmRepo provides the timeline projection: charms by author, newest
// first. Authoring itself lives outside this service.
type CharmRepo struct{ DB *sql.DB }

func NewCharmRepo(db *sql.DB) *CharmRepo { return &CharmRepo{DB: db} }

// ByActor lists an actor's charms keyed on the indexed actor_id column.
func (r *CharmRepo) ByActor(ctx context.Context, actorID uint64) ([]model.Charm, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, actor_id, text, created_at FROM charms WHERE actor_id=? ORDER BY id DESC", actorID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	var out []model.Charm
	for rows.Next() {
		var c model.Charm
		if err := rows.Scan(&c.ID, &c.ActorID, &c.Text, &c.CreatedAt); err != nil {
			return nil, storeErr(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// CountByActor returns the charm count shown on profiles.
func (r *CharmRepo) CountByActor(ctx context.Context, actorID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM charms WHERE actor_id=?", actorID).Scan(&n)
	if err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}
