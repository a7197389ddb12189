package repository

import (
	"context"
	"database/sql"
	"errors"
)

// DirectoryRepo answers existence checks against the editor and festival
// catalogs.  The catalogs themselves are maintained elsewhere; this
// service only needs to know whether an id resolves.
type DirectoryRepo struct {
	db *sql.DB
}

// NewDirectoryRepo returns a new DirectoryRepo bound to the given database.
func NewDirectoryRepo(db *sql.DB) *DirectoryRepo { return &DirectoryRepo{db: db} }

// EditorExists reports whether the editor id resolves.
func (r *DirectoryRepo) EditorExists(ctx context.Context, q DBTX, id uint64) (bool, error) {
	return exists(ctx, q, `SELECT 1 FROM editors WHERE id = ?`, id)
}

// FestivalExists reports whether the festival id resolves.
func (r *DirectoryRepo) FestivalExists(ctx context.Context, q DBTX, id uint64) (bool, error) {
	return exists(ctx, q, `SELECT 1 FROM festivals WHERE id = ?`, id)
}

func exists(ctx context.Context, q DBTX, query string, id uint64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
