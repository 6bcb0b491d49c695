// Package config reads the service options from command-line flags,
// environment variables and an optional JSON file, in that order of
// increasing precedence.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the HTTP server's listening address (ip:port).
	Port string `json:"server_address"`

	// GRPCPort is the gRPC listening port. Zero disables the gRPC server.
	GRPCPort int `json:"grpc_port"`

	// BaseURL prefixes every URL in a report.
	BaseURL string `json:"base_url"`

	// DatabaseDSN is a PostgreSQL connection string.
	DatabaseDSN string `json:"database_dsn"`

	// SQLitePath is a SQLite database file, used when DatabaseDSN is empty.
	SQLitePath string `json:"sqlite_path"`

	// FixturesPath is a YAML content file loaded into memory when no
	// database is configured.
	FixturesPath string `json:"fixtures_path"`

	// RoutesPath is a YAML file of extra admin routes.
	RoutesPath string `json:"routes_path"`

	// MaxInstances caps instances per model in every report. Zero keeps the
	// per-report defaults.
	MaxInstances int `json:"max_instances"`

	// PerReportMax caps instances of single reports, keyed by slug.
	PerReportMax map[string]int `json:"per_report_max"`

	// GenericModels lists "app_label.ModelName" labels for the generic report.
	GenericModels []string `json:"generic_models"`

	// JSONToken unlocks the JSON endpoints. Empty disables token access.
	JSONToken string `json:"json_token"`

	// AuthSecret signs admin tokens.
	AuthSecret string `json:"auth_secret"`

	// TrustedSubnet restricts the report endpoints to a CIDR range.
	TrustedSubnet string `json:"trusted_subnet"`

	LogLevel string `json:"log_level"`

	// EnablePprof starts a pprof server on localhost:6060.
	EnablePprof bool `json:"enable_pprof"`

	// EnableHTTPS serves with certificates from Let's Encrypt.
	EnableHTTPS bool `json:"enable_https"`

	// Config is the path of the JSON config file.
	Config string `json:"-"`
}

// Parse reads options from args (without the program name), then the
// environment, then the config file.
func Parse(args []string) (*Options, error) {
	return parse(args, os.LookupEnv)
}

func parse(args []string, lookup func(string) (string, bool)) (*Options, error) {
	options := &Options{}

	fs := flag.NewFlagSet("unveil", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var perReport, generic string
	fs.StringVar(&options.Port, "a", "localhost:8000", "run on ip:port server")
	fs.IntVar(&options.GRPCPort, "g", 0, "gRPC port, 0 disables gRPC")
	fs.StringVar(&options.BaseURL, "b", "http://localhost:8000", "base url of report links")
	fs.StringVar(&options.DatabaseDSN, "d", "", "postgres dsn")
	fs.StringVar(&options.SQLitePath, "q", "", "sqlite database file")
	fs.StringVar(&options.FixturesPath, "f", "", "yaml content fixtures")
	fs.StringVar(&options.RoutesPath, "r", "", "yaml file of extra routes")
	fs.IntVar(&options.MaxInstances, "m", 0, "max instances per model")
	fs.StringVar(&perReport, "per-report-max", "", "per report caps, e.g. page=10,redirect=5")
	fs.StringVar(&generic, "generic", "", "comma separated generic model labels")
	fs.StringVar(&options.JSONToken, "token", "", "json endpoint token")
	fs.StringVar(&options.AuthSecret, "k", "", "admin token signing secret")
	fs.StringVar(&options.TrustedSubnet, "t", "", "trusted subnet in CIDR notation")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.BoolVar(&options.EnablePprof, "p", false, "enable pprof")
	fs.BoolVar(&options.EnableHTTPS, "s", false, "enable https")
	fs.StringVar(&options.Config, "c", "", "path to json config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var err error
	if options.PerReportMax, err = ParsePerReport(perReport); err != nil {
		return nil, err
	}
	options.GenericModels = splitList(generic)

	if err := applyEnv(options, lookup); err != nil {
		return nil, err
	}

	if options.Config != "" {
		if err := applyFile(options, options.Config); err != nil {
			return nil, err
		}
	}

	return options, nil
}

func applyEnv(options *Options, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("SERVER_ADDRESS", &options.Port)
	str("BASE_URL", &options.BaseURL)
	str("DATABASE_DSN", &options.DatabaseDSN)
	str("SQLITE_PATH", &options.SQLitePath)
	str("FIXTURES_PATH", &options.FixturesPath)
	str("ROUTES_PATH", &options.RoutesPath)
	str("UNVEIL_JSON_TOKEN", &options.JSONToken)
	str("AUTH_SECRET", &options.AuthSecret)
	str("TRUSTED_SUBNET", &options.TrustedSubnet)
	str("LOG_LEVEL", &options.LogLevel)
	str("CONFIG", &options.Config)

	if v, ok := lookup("UNVEIL_GENERIC_MODELS"); ok && v != "" {
		options.GenericModels = splitList(v)
	}
	if v, ok := lookup("UNVEIL_PER_REPORT_MAX"); ok && v != "" {
		m, err := ParsePerReport(v)
		if err != nil {
			return fmt.Errorf("UNVEIL_PER_REPORT_MAX: %w", err)
		}
		options.PerReportMax = m
	}

	return errors.Join(
		integer("GRPC_PORT", &options.GRPCPort),
		integer("UNVEIL_MAX_INSTANCES", &options.MaxInstances),
		boolean("ENABLE_PPROF", &options.EnablePprof),
		boolean("ENABLE_HTTPS", &options.EnableHTTPS),
	)
}

// applyFile overrides options with the non-zero values of the JSON file.
func applyFile(options *Options, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var file Options
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&options.Port, file.Port)
	override(&options.BaseURL, file.BaseURL)
	override(&options.DatabaseDSN, file.DatabaseDSN)
	override(&options.SQLitePath, file.SQLitePath)
	override(&options.FixturesPath, file.FixturesPath)
	override(&options.RoutesPath, file.RoutesPath)
	override(&options.JSONToken, file.JSONToken)
	override(&options.AuthSecret, file.AuthSecret)
	override(&options.TrustedSubnet, file.TrustedSubnet)
	override(&options.LogLevel, file.LogLevel)

	if file.GRPCPort != 0 {
		options.GRPCPort = file.GRPCPort
	}
	if file.MaxInstances != 0 {
		options.MaxInstances = file.MaxInstances
	}
	if len(file.PerReportMax) > 0 {
		options.PerReportMax = file.PerReportMax
	}
	if len(file.GenericModels) > 0 {
		options.GenericModels = file.GenericModels
	}
	options.EnablePprof = options.EnablePprof || file.EnablePprof
	options.EnableHTTPS = options.EnableHTTPS || file.EnableHTTPS

	return nil
}

// ParsePerReport parses "slug=n,slug=n".
func ParsePerReport(s string) (map[string]int, error) {
	out := map[string]int{}
	for _, item := range splitList(s) {
		slug, n, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("per report max %q: want slug=n", item)
		}
		v, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return nil, fmt.Errorf("per report max %q: %w", item, err)
		}
		out[strings.TrimSpace(slug)] = v
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
