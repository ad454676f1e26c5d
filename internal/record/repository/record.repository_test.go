package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestead/config/database"
)

var columns = []string{"id", "user_email", "slug", "is_public", "created_at", "data"}

func newRepo(t *testing.T) (*RecordRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRecordRepository(database.NewPool(db, 2, time.Second, time.Second), "field_notes"), mock
}

func TestFindByOwnerAndSlug(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_email, slug, is_public, created_at, data FROM field_notes WHERE user_email = $1 AND slug = $2")).
		WithArgs("bob@x.com", "trip-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(7, "bob@x.com", "trip-1", false, created, `{"title":"Trip"}`))

	rec, err := repo.FindByOwnerAndSlug(context.Background(), "bob@x.com", "trip-1")
	require.NoError(t, err)
	assert.Equal(t, "7", rec.ID)
	assert.Equal(t, "bob@x.com", rec.OwnerEmail)
	assert.False(t, rec.IsPublic)
	assert.Equal(t, created, rec.CreatedAt)
	assert.JSONEq(t, `{"title":"Trip"}`, string(rec.Document))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByOwnerAndSlugNoRows(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery("FROM field_notes WHERE user_email").
		WithArgs("bob@x.com", "missing").
		WillReturnRows(sqlmock.NewRows(columns))

	rec, err := repo.FindByOwnerAndSlug(context.Background(), "bob@x.com", "missing")
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindPublicBySlug(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE is_public = true AND slug = $1 ORDER BY created_at DESC LIMIT 1")).
		WithArgs("trip-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(3, "ann@x.com", "trip-1", true, time.Now(), `{}`))

	rec, err := repo.FindPublicBySlug(context.Background(), "trip-1")
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", rec.OwnerEmail)
	assert.True(t, rec.IsPublic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreFailureIsReturned(t *testing.T) {
	repo, mock := newRepo(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery("FROM field_notes").WillReturnError(boom)

	_, err := repo.FindPublicBySlug(context.Background(), "trip-1")
	assert.ErrorIs(t, err, boom)
}

func TestListByOwnerWithSlugFilter(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_email = $1 AND slug = ANY($2) ORDER BY created_at DESC LIMIT $3 OFFSET $4")).
		WithArgs("bob@x.com", sqlmock.AnyArg(), 50, 0).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(2, "bob@x.com", "b", false, time.Now(), `{}`).
			AddRow(1, "bob@x.com", "a", true, time.Now(), `{}`))

	recs, err := repo.ListByOwner(context.Background(), "bob@x.com", []string{"a", "b"}, 50, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPublicWithoutFilter(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM field_notes WHERE is_public = true ORDER BY created_at DESC LIMIT $1 OFFSET $2")).
		WithArgs(10, 20).
		WillReturnRows(sqlmock.NewRows(columns))

	recs, err := repo.ListPublic(context.Background(), nil, 10, 20)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NotNil(t, recs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListScanErrorFailsWholeList(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery("FROM field_notes").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("1", "bob@x.com", "a", "not-a-bool", time.Now(), `{}`))

	recs, err := repo.ListPublic(context.Background(), nil, 10, 0)
	assert.Error(t, err)
	assert.Nil(t, recs)
}

func TestInvalidTableNamePanics(t *testing.T) {
	assert.Panics(t, func() { NewRecordRepository(nil, "notes; DROP TABLE x") })
}
