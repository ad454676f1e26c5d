package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/lib/pq"

	"homestead/config/database"
	"homestead/internal/record/model"
	"homestead/pkg/logger"
)

const recordColumns = "id, user_email, slug, is_public, created_at, data"

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type RecordRepository struct {
	Pool  *database.Pool
	Table string
}

// NewRecordRepository panics on a table name that is not a plain
// identifier, since it is interpolated into queries.
func NewRecordRepository(pool *database.Pool, table string) *RecordRepository {
	if !tableName.MatchString(table) {
		panic(fmt.Sprintf("repository: invalid table name %q", table))
	}
	return &RecordRepository{Pool: pool, Table: table}
}

// FindByOwnerAndSlug returns sql.ErrNoRows when the owner has no record
// with that slug.
func (r *RecordRepository) FindByOwnerAndSlug(ctx context.Context, owner, slug string) (*model.StoredRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_email = $1 AND slug = $2`, recordColumns, r.Table)
	rec, err := r.queryOne(ctx, query, owner, slug)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get %s record %s for %s: %v", r.Table, slug, owner, err)
	}
	return rec, err
}

// FindPublicBySlug picks the newest public record with the slug across all
// owners.
func (r *RecordRepository) FindPublicBySlug(ctx context.Context, slug string) (*model.StoredRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE is_public = true AND slug = $1 ORDER BY created_at DESC LIMIT 1`, recordColumns, r.Table)
	rec, err := r.queryOne(ctx, query, slug)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get public %s record %s: %v", r.Table, slug, err)
	}
	return rec, err
}

// ListByOwner returns one page of the owner's records, newest first.
func (r *RecordRepository) ListByOwner(ctx context.Context, owner string, slugs []string, limit, offset int) ([]model.StoredRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_email = $1`, recordColumns, r.Table)
	args := []any{owner}
	if len(slugs) > 0 {
		query += ` AND slug = ANY($2)`
		args = append(args, pq.Array(slugs))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	recs, err := r.queryMany(ctx, query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to list %s records for %s: %v", r.Table, owner, err)
	}
	return recs, err
}

func (r *RecordRepository) ListPublic(ctx context.Context, slugs []string, limit, offset int) ([]model.StoredRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE is_public = true`, recordColumns, r.Table)
	var args []any
	if len(slugs) > 0 {
		query += ` AND slug = ANY($1)`
		args = append(args, pq.Array(slugs))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	recs, err := r.queryMany(ctx, query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to list public %s records: %v", r.Table, err)
	}
	return recs, err
}

func (r *RecordRepository) queryOne(ctx context.Context, query string, args ...any) (*model.StoredRecord, error) {
	ctx, release, err := r.Pool.Acquire(ctx)
	defer release()
	if err != nil {
		return nil, err
	}

	var rec model.StoredRecord
	var data []byte
	err = r.Pool.DB.QueryRowContext(ctx, query, args...).
		Scan(&rec.ID, &rec.OwnerEmail, &rec.Slug, &rec.IsPublic, &rec.CreatedAt, &data)
	if err != nil {
		return nil, err
	}
	rec.Document = data
	return &rec, nil
}

func (r *RecordRepository) queryMany(ctx context.Context, query string, args ...any) ([]model.StoredRecord, error) {
	ctx, release, err := r.Pool.Acquire(ctx)
	defer release()
	if err != nil {
		return nil, err
	}

	rows, err := r.Pool.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []model.StoredRecord{}
	for rows.Next() {
		var rec model.StoredRecord
		var data []byte
		if err := rows.Scan(&rec.ID, &rec.OwnerEmail, &rec.Slug, &rec.IsPublic, &rec.CreatedAt, &data); err != nil {
			return nil, err
		}
		rec.Document = data
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
