// Package bootstrap opens the content store and builds the route table the
// server and the CLI share.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/atinyakov/go-unveil/internal/app/service"
	"github.com/atinyakov/go-unveil/internal/config"
	"github.com/atinyakov/go-unveil/internal/content"
	"github.com/atinyakov/go-unveil/internal/repository"
	"github.com/atinyakov/go-unveil/internal/routes"
	"github.com/atinyakov/go-unveil/internal/storage"
)

// Store is an open content store. Close releases its database, if any.
type Store struct {
	content.Store
	// Repository is set for database backed stores.
	Repository *repository.ContentRepository
	db         *sql.DB
}

// Close closes the database of a database backed store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// OpenStore picks the store: PostgreSQL when a DSN is set, then SQLite, then
// a fixtures file, then the bundled demo site.
func OpenStore(opts *config.Options, logger *zap.Logger) (*Store, error) {
	switch {
	case opts.DatabaseDSN != "":
		logger.Info("using postgres")
		return openDB(repository.DriverPostgres, opts.DatabaseDSN, logger)
	case opts.SQLitePath != "":
		logger.Info("using sqlite", zap.String("path", opts.SQLitePath))
		return openDB(repository.DriverSQLite, opts.SQLitePath, logger)
	case opts.FixturesPath != "":
		logger.Info("using fixtures", zap.String("path", opts.FixturesPath))
		m, err := storage.NewFromFixtures(opts.FixturesPath)
		if err != nil {
			return nil, err
		}
		return &Store{Store: m}, nil
	default:
		logger.Info("using the demo site")
		m, err := storage.NewDemo()
		if err != nil {
			return nil, err
		}
		return &Store{Store: m}, nil
	}
}

func openDB(driver, dsn string, logger *zap.Logger) (*Store, error) {
	db, err := repository.InitDB(driver, dsn, logger)
	if err != nil {
		return nil, err
	}
	repo := repository.CreateContentRepository(db, driver, logger)
	return &Store{Store: repo, Repository: repo, db: db}, nil
}

// Routes builds the admin route table: the built-in admin routes, one
// viewset per snippet and generic model, then the overrides of the routes
// file.
func Routes(ctx context.Context, store content.Store, opts *config.Options, logger *zap.Logger) (*routes.Registry, error) {
	r := routes.Admin()

	snippets, err := store.Models(ctx, content.KindSnippet)
	if err != nil {
		logger.Warn("cannot list snippet models", zap.Error(err))
	}
	for _, m := range snippets {
		r.RegisterSnippet(m.AppLabel, m.Name)
	}

	generic, err := genericModels(ctx, store, opts.GenericModels)
	if err != nil {
		logger.Warn("cannot list generic models", zap.Error(err))
	}
	for _, m := range generic {
		r.RegisterModelViewSet(m.Name)
	}

	if opts.RoutesPath != "" {
		if err := r.LoadFile(opts.RoutesPath); err != nil {
			return nil, fmt.Errorf("routes file %s: %w", opts.RoutesPath, err)
		}
	}

	return r, nil
}

func genericModels(ctx context.Context, store content.Store, labels []string) ([]content.Model, error) {
	if len(labels) == 0 {
		return store.Models(ctx, content.KindGeneric)
	}

	out := make([]content.Model, 0, len(labels))
	for _, l := range labels {
		m, err := content.ParseLabel(l, content.KindGeneric)
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ReportOptions maps the configuration to report service options.
func ReportOptions(opts *config.Options) service.Options {
	return service.Options{
		BaseURL:       opts.BaseURL,
		MaxInstances:  opts.MaxInstances,
		PerReportMax:  opts.PerReportMax,
		GenericModels: opts.GenericModels,
	}
}

// Seed writes fixtures into a database backed store.
func Seed(ctx context.Context, repo *repository.ContentRepository, f *storage.Fixtures) error {
	if err := repo.WriteModels(ctx, f.Models); err != nil {
		return fmt.Errorf("seed models: %w", err)
	}
	if err := repo.WriteInstances(ctx, f.Instances); err != nil {
		return fmt.Errorf("seed instances: %w", err)
	}
	return nil
}
