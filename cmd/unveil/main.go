// Command unveil serves the URL reports of a content site over HTTP and,
// when a port is configured, gRPC.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/atinyakov/go-unveil/internal/app/bootstrap"
	grpcserver "github.com/atinyakov/go-unveil/internal/app/server/grpc"
	"github.com/atinyakov/go-unveil/internal/app/server"
	"github.com/atinyakov/go-unveil/internal/app/service"
	"github.com/atinyakov/go-unveil/internal/config"
	"github.com/atinyakov/go-unveil/internal/logger"

	_ "net/http/pprof"
)

var buildVersion string
var buildDate string
var buildCommit string

func valueOrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func main() {
	fmt.Printf("Build version: %s\n", valueOrNA(buildVersion))
	fmt.Printf("Build date: %s\n", valueOrNA(buildDate))
	fmt.Printf("Build commit: %s\n", valueOrNA(buildCommit))

	options, err := config.Parse(os.Args[1:])
	if err != nil {
		panic(err)
	}

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, log.Log); err != nil {
		log.Log.Fatal("server stopped", zap.Error(err))
	}
}

// app is everything the servers need.
type app struct {
	store   *bootstrap.Store
	service *service.ReportService
	auth    *service.Auth
	router  *chi.Mux
}

func newApp(ctx context.Context, options *config.Options, zapLogger *zap.Logger) (*app, error) {
	store, err := bootstrap.OpenStore(options, zapLogger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	reg, err := bootstrap.Routes(ctx, store, options, zapLogger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	svc := service.NewReport(store, reg, zapLogger, bootstrap.ReportOptions(options))
	auth := service.NewAuth(options.AuthSecret)

	r, err := server.Init(svc, auth, zapLogger, server.Options{
		JSONToken:     options.JSONToken,
		TrustedSubnet: options.TrustedSubnet,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{store: store, service: svc, auth: auth, router: r}, nil
}

func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	if options.EnablePprof {
		go func() {
			zapLogger.Info("Starting pprof server", zap.String("addr", "localhost:6060"))
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				zapLogger.Error("pprof server error", zap.Error(err))
			}
		}()
	}

	a, err := newApp(ctx, options, zapLogger)
	if err != nil {
		return err
	}
	defer a.store.Close()

	if options.AuthSecret == "" {
		zapLogger.Warn("no auth secret: admin pages are unreachable, JSON needs the token")
	}

	errs := make(chan error, 2)

	if options.GRPCPort != 0 {
		g, err := grpcserver.New(a.service, a.auth, zapLogger, grpcserver.Options{
			Port:          options.GRPCPort,
			JSONToken:     options.JSONToken,
			TrustedSubnet: options.TrustedSubnet,
		})
		if err != nil {
			return err
		}
		go func() { errs <- g.Start() }()
		defer g.GracefulStop()
	}

	srv := &http.Server{
		Addr:              options.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if options.EnableHTTPS {
		manager := &autocert.Manager{
			Cache:      autocert.DirCache("cache-dir"),
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(hostOf(options.BaseURL)),
		}
		srv.Addr = ":443"
		srv.TLSConfig = manager.TLSConfig()
		zapLogger.Info("Server is running with TLS", zap.String("host", hostOf(options.BaseURL)))
		go func() { errs <- srv.ListenAndServeTLS("", "") }()
	} else {
		zapLogger.Info("Server is running", zap.String("addr", options.Port))
		go func() { errs <- srv.ListenAndServe() }()
	}

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func hostOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return "localhost"
	}
	return u.Hostname()
}
