// Package server assembles the HTTP router of the report service.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atinyakov/go-unveil/internal/app/handler"
	"github.com/atinyakov/go-unveil/internal/app/service"
	"github.com/atinyakov/go-unveil/internal/middleware"
)

// DefaultPrefix is where the reports are mounted.
const DefaultPrefix = "/admin/unveil"

// Options configures the router.
type Options struct {
	// Prefix is the mount point of the reports, DefaultPrefix when empty.
	Prefix        string
	JSONToken     string
	TrustedSubnet string
}

// Init builds the router.
func Init(svc service.ReportServiceIface, auth service.AuthIface, logger *zap.Logger, opts Options) (*chi.Mux, error) {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}

	subnet, err := middleware.WithSubnet(opts.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	h := handler.NewReport(svc, logger, opts.JSONToken)

	r := chi.NewRouter()
	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/ping", h.Ping)
	r.Handle("/metrics", promhttp.Handler())

	r.Route(opts.Prefix, func(r chi.Router) {
		r.Use(subnet)
		r.Use(middleware.WithAdmin(auth))
		r.Use(middleware.WithGzip)

		r.With(middleware.RequireElevated).Get("/", h.Menu)

		r.Route("/{report}", func(r chi.Router) {
			r.With(middleware.RequireElevated).Get("/", h.Index)
			r.With(middleware.RequireElevated).Get("/results/", h.Results)
			r.Get("/json/", h.JSON)
		})
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Route not found", http.StatusNotFound)
	})

	return r, nil
}
