package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/charms-backend/internal/model"
)

// FileRepo lists an actor's uploaded files. Storage I/O is out of
// scope; only the metadata rows live here.
type FileRepo struct{ DB *sql.DB }

func NewFileRepo(db *sql.DB) *FileRepo { return &FileRepo{DB: db} }

// ByActor lists file rows for one actor. When includePrivate is false,
// rows with is_private=1 are excluded in the query itself; a private
// file never reaches a non-owner view regardless of the overall
// visibility decision.
func (r *FileRepo) ByActor(ctx context.Context, actorID uint64, includePrivate bool) ([]model.ActorFile, error) {
	q := "SELECT id, actor_id, name, path, is_private, created_at FROM actor_files WHERE actor_id=?"
	if !includePrivate {
		q += " AND is_private=0"
	}
	rows, err := r.DB.QueryContext(ctx, q+" ORDER BY id DESC", actorID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()
	var out []model.ActorFile
	for rows.Next() {
		var f model.ActorFile
		if err := rows.Scan(&f.ID, &f.ActorID, &f.Name, &f.Path, &f.IsPrivate, &f.CreatedAt); err != nil {
			return nil, storeErr(err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}
