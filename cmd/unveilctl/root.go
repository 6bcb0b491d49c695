package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/go-unveil/internal/app/bootstrap"
	"github.com/atinyakov/go-unveil/internal/app/service"
	"github.com/atinyakov/go-unveil/internal/config"
	"github.com/atinyakov/go-unveil/internal/logger"
	"github.com/atinyakov/go-unveil/internal/routes"
)

// env is the state shared by the subcommands.
type env struct {
	opts   *config.Options
	logger *zap.Logger

	// overrides set by persistent flags
	baseURL      string
	dsn          string
	sqlite       string
	fixtures     string
	routesFile   string
	maxInstances int
	logLevel     string
	secret       string
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "unveilctl",
		Short:         "Lists the admin and frontend URLs of a content site",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&e.baseURL, "base-url", "", "base url of report links")
	pf.StringVar(&e.dsn, "dsn", "", "postgres dsn")
	pf.StringVar(&e.sqlite, "sqlite", "", "sqlite database file")
	pf.StringVar(&e.fixtures, "fixtures", "", "yaml content fixtures")
	pf.StringVar(&e.routesFile, "routes", "", "yaml file of extra routes")
	pf.IntVar(&e.maxInstances, "max-instances", 0, "max instances per model")
	pf.StringVar(&e.logLevel, "log-level", "warn", "log level")
	pf.StringVar(&e.secret, "secret", "", "admin token signing secret")

	root.AddCommand(
		reportCmd(e),
		reportsCmd(e),
		routesCmd(e),
		tokenCmd(e),
		seedCmd(e),
	)
	return root
}

// load reads the configuration from the environment and the config file,
// then applies the flags that were set.
func (e *env) load(cmd *cobra.Command) error {
	opts, err := config.Parse(nil)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("base-url", func() { opts.BaseURL = e.baseURL })
	set("dsn", func() { opts.DatabaseDSN = e.dsn })
	set("sqlite", func() { opts.SQLitePath = e.sqlite })
	set("fixtures", func() { opts.FixturesPath = e.fixtures })
	set("routes", func() { opts.RoutesPath = e.routesFile })
	set("max-instances", func() { opts.MaxInstances = e.maxInstances })
	set("secret", func() { opts.AuthSecret = e.secret })
	opts.LogLevel = e.logLevel

	l := logger.New()
	if err := l.InitConsole(opts.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	e.opts = opts
	e.logger = l.Log
	return nil
}

// open returns the store, the route table and a report service over them.
func (e *env) open(ctx context.Context) (*bootstrap.Store, *routes.Registry, *service.ReportService, error) {
	store, err := bootstrap.OpenStore(e.opts, e.logger)
	if err != nil {
		return nil, nil, nil, err
	}

	reg, err := bootstrap.Routes(ctx, store, e.opts, e.logger)
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, err
	}

	svc := service.NewReport(store, reg, e.logger, bootstrap.ReportOptions(e.opts))
	return store, reg, svc, nil
}
