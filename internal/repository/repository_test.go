package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/go-unveil/internal/content"
)

// Helper to set up a mock DB and repository
func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *ContentRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := CreateContentRepository(db, DriverPostgres, zap.NewNop())
	return db, mock, repo
}

func TestModels(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"app_label", "name", "kind", "multisite"}).
		AddRow("home", "GlobalSettings", "settings", false).
		AddRow("home", "SocialMediaSettings", "settings", true)

	mock.ExpectQuery(`SELECT app_label, name, kind, multisite FROM unveil_models WHERE kind = \$1`).
		WithArgs("settings").
		WillReturnRows(rows)

	models, err := repo.Models(context.Background(), content.KindSettings)

	assert.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "home.GlobalSettings", models[0].Label())
	assert.True(t, models[1].MultiSite)
	assert.Equal(t, content.KindSettings, models[1].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstances(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	cols := []string{"model", "id", "title", "hostname", "port", "url", "live", "depth", "site_id", "site_hostname", "submissions"}
	rows := sqlmock.NewRows(cols).
		AddRow("blog.BlogPage", 4, "First post", "", 0, "/blog/first-post/", true, 3, 0, "", 0)

	mock.ExpectQuery(`FROM unveil_instances WHERE model = \$1 AND live = \$2 ORDER BY id LIMIT \$3`).
		WithArgs("blog.BlogPage", true, 1).
		WillReturnRows(rows)

	got, err := repo.Instances(context.Background(), content.Query{Model: "blog.BlogPage", LiveOnly: true, Limit: 1})

	assert.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(4), got[0].ID)
	assert.Equal(t, "/blog/first-post/", got[0].URL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstances_OrderByTitle(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	cols := []string{"model", "id", "title", "hostname", "port", "url", "live", "depth", "site_id", "site_hostname", "submissions"}
	rows := sqlmock.NewRows(cols).
		AddRow(content.RedirectLabel, 2, "/about-us/", "", 0, "", false, 0, 0, "", 0)

	mock.ExpectQuery(`FROM unveil_instances WHERE model = \$1 ORDER BY title, id LIMIT \$2`).
		WithArgs(content.RedirectLabel, 1).
		WillReturnRows(rows)

	got, err := repo.Instances(context.Background(), content.Query{
		Model: content.RedirectLabel,
		Limit: 1,
		Order: content.OrderByTitle,
	})

	assert.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/about-us/", got[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstances_UndefinedTable(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`FROM unveil_instances`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UndefinedTable, Message: "relation does not exist"})

	_, err := repo.Instances(context.Background(), content.Query{Model: content.RedirectLabel})

	assert.ErrorIs(t, err, content.ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstances_OtherError(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	boom := errors.New("connection reset")
	mock.ExpectQuery(`FROM unveil_instances`).WillReturnError(boom)

	_, err := repo.Instances(context.Background(), content.Query{Model: content.RedirectLabel})

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, content.ErrUnavailable)
}

func TestWriteModels_Rollback(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO unveil_models`).
		WithArgs("blog", "BlogPage", "page", false).
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	err := repo.WriteModels(context.Background(), []content.Model{{AppLabel: "blog", Name: "BlogPage", Kind: content.KindPage}})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteInstances(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO unveil_instances`).
		WithArgs("wagtailredirects.Redirect", int64(1), "/old/", "", 0, "", false, 0, int64(0), "", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WriteInstances(context.Background(), []content.Instance{{Model: content.RedirectLabel, ID: 1, Title: "/old/"}})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteRoundTrip(t *testing.T) {
	db, err := InitDB(DriverSQLite, ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := CreateContentRepository(db, DriverSQLite, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.WriteModels(ctx, []content.Model{
		{AppLabel: "home", Name: "GlobalSettings", Kind: content.KindSettings},
		{AppLabel: "blog", Name: "BlogCategory", Kind: content.KindSnippet},
	}))
	require.NoError(t, repo.WriteInstances(ctx, []content.Instance{
		{Model: content.CollectionLabel, ID: 1, Title: "Root", Depth: 1},
		{Model: content.CollectionLabel, ID: 3, Title: "Press", Depth: 2},
		{Model: content.CollectionLabel, ID: 2, Title: "Marketing", Depth: 2},
		{Model: content.CollectionLabel, ID: 2, Title: "Duplicate", Depth: 2},
	}))

	snippets, err := repo.Models(ctx, content.KindSnippet)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "blog.BlogCategory", snippets[0].Label())

	all, err := repo.Models(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := repo.Instances(ctx, content.Query{Model: content.CollectionLabel, ExcludeDepth: 1})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, "Marketing", got[0].Title)

	got, err = repo.Instances(ctx, content.Query{Model: content.CollectionLabel, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	assert.NoError(t, repo.Ping(ctx))
}

func TestSQLiteMissingTable(t *testing.T) {
	db, err := sql.Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo := CreateContentRepository(db, DriverSQLite, zap.NewNop())
	_, err = repo.Models(context.Background(), "")
	assert.ErrorIs(t, err, content.ErrUnavailable)
}
