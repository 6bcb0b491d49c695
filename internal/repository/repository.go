// Package repository implements the content store on top of a SQL database.
// PostgreSQL (pgx) and SQLite are supported.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/atinyakov/go-unveil/internal/content"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

const createModels = `
	CREATE TABLE IF NOT EXISTS unveil_models (
		app_label TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		multisite BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (app_label, name)
	);`

const createInstances = `
	CREATE TABLE IF NOT EXISTS unveil_instances (
		model TEXT NOT NULL,
		id BIGINT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		hostname TEXT NOT NULL DEFAULT '',
		port INTEGER NOT NULL DEFAULT 0,
		url TEXT NOT NULL DEFAULT '',
		live BOOLEAN NOT NULL DEFAULT FALSE,
		depth INTEGER NOT NULL DEFAULT 0,
		site_id BIGINT NOT NULL DEFAULT 0,
		site_hostname TEXT NOT NULL DEFAULT '',
		submissions INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (model, id)
	);`

// InitDB opens the database, checks the connection and creates the tables.
func InitDB(driver, dsn string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Database connected and tables ready.", zap.String("driver", driver))
	return db, nil
}

// Migrate creates the content tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range []string{createModels, createInstances} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// ContentRepository is a content.Store backed by SQL tables.
type ContentRepository struct {
	db       *sql.DB
	logger   *zap.Logger
	numbered bool
}

// CreateContentRepository wraps db. driver selects the placeholder style.
func CreateContentRepository(db *sql.DB, driver string, logger *zap.Logger) *ContentRepository {
	return &ContentRepository{
		db:       db,
		logger:   logger,
		numbered: driver != DriverSQLite,
	}
}

type args struct {
	numbered bool
	values   []any
}

func (a *args) add(v any) string {
	a.values = append(a.values, v)
	if a.numbered {
		return "$" + strconv.Itoa(len(a.values))
	}
	return "?"
}

// Models returns the models of kind, or every model when kind is empty.
func (r *ContentRepository) Models(ctx context.Context, kind content.Kind) ([]content.Model, error) {
	a := &args{numbered: r.numbered}
	query := "SELECT app_label, name, kind, multisite FROM unveil_models"
	if kind != "" {
		query += " WHERE kind = " + a.add(string(kind))
	}
	query += " ORDER BY app_label, name;"

	rows, err := r.db.QueryContext(ctx, query, a.values...)
	if err != nil {
		return nil, r.wrap("Models", err)
	}
	defer rows.Close()

	models := make([]content.Model, 0)
	for rows.Next() {
		var m content.Model
		var k string
		if err := rows.Scan(&m.AppLabel, &m.Name, &k, &m.MultiSite); err != nil {
			return nil, err
		}
		m.Kind = content.Kind(k)
		models = append(models, m)
	}

	return models, rows.Err()
}

// Instances returns the instances matching q in q.Order.
func (r *ContentRepository) Instances(ctx context.Context, q content.Query) ([]content.Instance, error) {
	a := &args{numbered: r.numbered}

	var b strings.Builder
	b.WriteString("SELECT model, id, title, hostname, port, url, live, depth, site_id, site_hostname, submissions FROM unveil_instances")
	b.WriteString(" WHERE model = " + a.add(q.Model))
	if q.LiveOnly {
		b.WriteString(" AND live = " + a.add(true))
	}
	if q.Depth != 0 {
		b.WriteString(" AND depth = " + a.add(q.Depth))
	}
	if q.ExcludeDepth != 0 {
		b.WriteString(" AND depth <> " + a.add(q.ExcludeDepth))
	}
	if q.WithSubmissions {
		b.WriteString(" AND submissions > 0")
	}
	if q.Order == content.OrderByTitle {
		b.WriteString(" ORDER BY title, id")
	} else {
		b.WriteString(" ORDER BY id")
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + a.add(q.Limit))
	}
	b.WriteString(";")

	rows, err := r.db.QueryContext(ctx, b.String(), a.values...)
	if err != nil {
		return nil, r.wrap("Instances", err)
	}
	defer rows.Close()

	instances := make([]content.Instance, 0)
	for rows.Next() {
		var in content.Instance
		err := rows.Scan(&in.Model, &in.ID, &in.Title, &in.Hostname, &in.Port, &in.URL,
			&in.Live, &in.Depth, &in.SiteID, &in.SiteHostname, &in.Submissions)
		if err != nil {
			return nil, err
		}
		instances = append(instances, in)
	}

	return instances, rows.Err()
}

// WriteModels inserts models, ignoring ones that already exist.
func (r *ContentRepository) WriteModels(ctx context.Context, models []content.Model) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, m := range models {
		a := &args{numbered: r.numbered}
		query := fmt.Sprintf(
			"INSERT INTO unveil_models(app_label, name, kind, multisite) VALUES (%s, %s, %s, %s) ON CONFLICT DO NOTHING;",
			a.add(m.AppLabel), a.add(m.Name), a.add(string(m.Kind)), a.add(m.MultiSite),
		)
		if _, err := tx.ExecContext(ctx, query, a.values...); err != nil {
			_ = tx.Rollback()
			r.logger.Error("failed to write model, rolled back", zap.String("model", m.Label()), zap.Error(err))
			return r.wrap("WriteModels", err)
		}
	}

	return tx.Commit()
}

// WriteInstances inserts instances, ignoring ones that already exist.
func (r *ContentRepository) WriteInstances(ctx context.Context, instances []content.Instance) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, in := range instances {
		a := &args{numbered: r.numbered}
		query := fmt.Sprintf(
			"INSERT INTO unveil_instances(model, id, title, hostname, port, url, live, depth, site_id, site_hostname, submissions) "+
				"VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s) ON CONFLICT DO NOTHING;",
			a.add(in.Model), a.add(in.ID), a.add(in.Title), a.add(in.Hostname), a.add(in.Port), a.add(in.URL),
			a.add(in.Live), a.add(in.Depth), a.add(in.SiteID), a.add(in.SiteHostname), a.add(in.Submissions),
		)
		if _, err := tx.ExecContext(ctx, query, a.values...); err != nil {
			_ = tx.Rollback()
			r.logger.Error("failed to write instance, rolled back",
				zap.String("model", in.Model), zap.Int64("id", in.ID), zap.Error(err))
			return r.wrap("WriteInstances", err)
		}
	}

	return tx.Commit()
}

// Ping checks the database connection.
func (r *ContentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// wrap maps "table does not exist" errors to content.ErrUnavailable.
func (r *ContentRepository) wrap(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return fmt.Errorf("%s: %w: %s", op, content.ErrUnavailable, pgErr.Message)
	}
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%s: %w: %v", op, content.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
