package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/atinyakov/go-unveil/internal/app/bootstrap"
	"github.com/atinyakov/go-unveil/internal/app/service"
	"github.com/atinyakov/go-unveil/internal/report"
	"github.com/atinyakov/go-unveil/internal/storage"
)

const formatTable = "table"

func reportCmd(e *env) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <slug>",
		Short: "Prints one report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var f report.Format
			if format != formatTable {
				var ok bool
				if f, ok = report.ParseFormat(format); !ok {
					return fmt.Errorf("unknown format %q", format)
				}
			}

			store, _, svc, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			r, err := svc.Report(cmd.Context(), args[0])
			if errors.Is(err, service.ErrUnknownReport) {
				return fmt.Errorf("unknown report %q, see unveilctl reports", args[0])
			}
			if err != nil {
				return err
			}

			if f == "" {
				return writeTable(cmd.OutOrStdout(), r.Rows)
			}
			return report.Export(cmd.OutOrStdout(), f, r.Info.Label, r.Rows)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "table, csv, json or markdown")
	return cmd
}

func writeTable(out io.Writer, rows []report.Row) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODEL NAME\tURL TYPE\tURL")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.ModelName, r.URLType, r.URL)
	}
	return tw.Flush()
}

func reportsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "Lists the available reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := service.NewReport(nil, nil, e.logger, bootstrap.ReportOptions(e.opts))

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLUG\tLABEL\tPATH")
			for _, i := range svc.Reports() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", i.Slug, i.Label, i.URL)
			}
			return tw.Flush()
		},
	}
}

func routesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Lists the admin route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, reg, _, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range reg.Names() {
				for _, p := range reg.Patterns(name) {
					fmt.Fprintf(tw, "%s\t%s\n", name, p)
				}
			}
			return tw.Flush()
		},
	}
}

func tokenCmd(e *env) *cobra.Command {
	var (
		user      string
		superuser bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Signs an admin token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, _, err := service.NewAuth(e.opts.AuthSecret).BuildJWTString(user, superuser)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&user, "user", "admin", "user name")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "grant superuser access")
	return cmd
}

func seedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Writes the fixtures, or the demo site, into the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if e.opts.DatabaseDSN == "" && e.opts.SQLitePath == "" {
				return errors.New("seed needs --dsn or --sqlite")
			}

			f, err := storage.ReadFixtures(e.opts.FixturesPath)
			if err != nil {
				return err
			}

			store, err := bootstrap.OpenStore(e.opts, e.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := bootstrap.Seed(cmd.Context(), store.Repository, f); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d models, %d instances\n", len(f.Models), len(f.Instances))
			return err
		},
	}
}
