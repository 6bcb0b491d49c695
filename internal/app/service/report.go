// Package service assembles reports from the content store and the route
// table, and handles admin authentication with JWT tokens.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/go-unveil/internal/collector"
	"github.com/atinyakov/go-unveil/internal/content"
	"github.com/atinyakov/go-unveil/internal/metrics"
	"github.com/atinyakov/go-unveil/internal/models"
	"github.com/atinyakov/go-unveil/internal/report"
	"github.com/atinyakov/go-unveil/internal/resolver"
	"github.com/atinyakov/go-unveil/internal/routes"
)

// ErrUnknownReport is returned for a slug no report is registered under.
var ErrUnknownReport = errors.New("unknown report")

// ReportServiceIface is the report API used by the HTTP and gRPC handlers.
type ReportServiceIface interface {
	Reports() []models.ReportInfo
	Report(ctx context.Context, slug string) (*models.Report, error)
	PingContext(ctx context.Context) error
}

// Options tunes report collection.
type Options struct {
	// BaseURL prefixes every admin path.
	BaseURL string
	// MaxInstances overrides the per-report default cap when positive.
	MaxInstances int
	// PerReportMax overrides the cap of single reports by slug.
	PerReportMax map[string]int
	// GenericModels lists the models of the generic report.
	GenericModels []string
	// PathPrefix is where the reports are mounted, e.g. "/admin/unveil".
	PathPrefix string
}

// ReportService builds reports. It keeps no state between calls.
type ReportService struct {
	store   content.Store
	routes  routes.Reverser
	logger  *zap.Logger
	options Options
}

// NewReport creates a ReportService.
func NewReport(store content.Store, r routes.Reverser, logger *zap.Logger, opts Options) *ReportService {
	if opts.PathPrefix == "" {
		opts.PathPrefix = "/admin/unveil"
	}

	return &ReportService{
		store:   store,
		routes:  r,
		logger:  logger,
		options: opts,
	}
}

// PingContext checks the content store.
func (s *ReportService) PingContext(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Reports lists every report in menu order.
func (s *ReportService) Reports() []models.ReportInfo {
	defs := collector.Definitions()
	out := make([]models.ReportInfo, 0, len(defs))
	for _, d := range defs {
		out = append(out, s.info(d))
	}
	return out
}

func (s *ReportService) info(d collector.Definition) models.ReportInfo {
	title := d.DisplayTitle()
	return models.ReportInfo{
		Slug:  d.Slug,
		Title: title,
		Label: "Unveil " + title + " URL's",
		Icon:  d.Icon,
		Order: d.Order,
		URL:   s.options.PathPrefix + "/" + d.Slug + "-report/",
	}
}

// MaxInstances returns the instance cap of a report: the per-report
// override, then the global override, then the report default.
func (s *ReportService) MaxInstances(d collector.Definition) int {
	if n, ok := s.options.PerReportMax[d.Slug]; ok && n > 0 {
		return n
	}
	if s.options.MaxInstances > 0 {
		return s.options.MaxInstances
	}
	return d.DefaultMax
}

// Report collects the report registered under slug.
func (s *ReportService) Report(ctx context.Context, slug string) (*models.Report, error) {
	def, ok := collector.Lookup(slug)
	if !ok {
		return nil, ErrUnknownReport
	}

	start := time.Now()
	res := resolver.New(s.routes, s.logger)
	limit := s.MaxInstances(def)

	entries := collector.Collect(ctx, def, collector.Env{
		Store:         s.store,
		Resolver:      res,
		BaseURL:       s.options.BaseURL,
		MaxInstances:  limit,
		GenericModels: s.options.GenericModels,
		Logger:        s.logger,
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := report.Build(entries)

	metrics.ReportDurationSeconds.WithLabelValues(slug).Observe(time.Since(start).Seconds())
	metrics.ReportRows.WithLabelValues(slug).Set(float64(len(rows)))
	metrics.UnresolvedRoutes.WithLabelValues(slug).Add(float64(res.Misses()))
	metrics.RouteLookups.WithLabelValues(slug).Add(float64(res.Len()))

	s.logger.Debug("report collected",
		zap.String("report", slug),
		zap.Int("rows", len(rows)),
		zap.Int("lookups", res.Len()),
		zap.Int("unresolved", res.Misses()),
		zap.Int("max_instances", limit),
	)

	return &models.Report{
		Info:         s.info(def),
		Rows:         rows,
		MaxInstances: limit,
		Unresolved:   res.Misses(),
	}, nil
}
