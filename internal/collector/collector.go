// Package collector turns the content of a site into report entries: one
// entry per admin URL that should exist for a content type or one of its
// instances.
//
// A single Collect function walks every report. What differs between
// content types lives in a Definition.
package collector

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/atinyakov/go-unveil/internal/content"
)

// Entry is one (model name, URL type, URL) triple.
type Entry struct {
	ModelName string `json:"model_name"`
	URLType   string `json:"url_type"`
	URL       string `json:"url"`
}

// Resolver resolves a route name to a path. A failed resolution returns
// false and is never an error.
type Resolver interface {
	Resolve(name string, args ...any) (string, bool)
}

// Env carries what one render needs. It is built per request.
type Env struct {
	Store    content.Store
	Resolver Resolver
	// BaseURL prefixes every admin path.
	BaseURL string
	// MaxInstances caps instances per model. Zero or less means no cap.
	MaxInstances int
	// GenericModels lists "app_label.ModelName" labels for the generic report.
	GenericModels []string
	Logger        *zap.Logger
}

// Target is what an action builds its route arguments from.
type Target struct {
	Model    content.Model
	Instance content.Instance
	Root     *content.Instance
}

// Action produces at most one entry.
type Action struct {
	URLType string
	// Route is the route name. A leading ":" is appended to the model's
	// namespace.
	Route string
	// Args returns the route arguments. false skips the action.
	Args func(t Target) ([]any, bool)
	// Frontend builds an absolute public URL instead of resolving a route.
	Frontend func(baseURL string, t Target) string
}

// Definition describes one report.
type Definition struct {
	Slug       string
	// Title is the display name. Empty means derived from Slug.
	Title      string
	Icon       string
	Order      int
	DefaultMax int

	// Models lists the models walked by the report.
	Models func(ctx context.Context, env Env) ([]content.Model, error)
	// Namespace returns the route namespace used by relative routes.
	Namespace func(m content.Model) string
	// NeedsRoot restricts type-level actions to sites that have a root page.
	NeedsRoot bool

	TypeActions     []Action
	InstanceActions []Action

	// Query returns the instance query of a model, without Limit.
	Query        func(m content.Model) content.Query
	TypeName     func(m content.Model) string
	InstanceName func(m content.Model, in content.Instance) string

	// Fallback runs when the report found models but no instances.
	Fallback func(ctx context.Context, env Env, models []content.Model) []Entry
}

// DisplayTitle returns Title, or the slug in title case.
func (d Definition) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return cases.Title(language.English).String(strings.ReplaceAll(d.Slug, "-", " "))
}

// Collect runs def against env. Route failures drop single entries; store
// failures drop the rest of one model's instances. Neither aborts the report.
func Collect(ctx context.Context, def Definition, env Env) []Entry {
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	env.Logger = env.Logger.With(zap.String("report", def.Slug))
	logger := env.Logger

	models, err := def.Models(ctx, env)
	if err != nil {
		logger.Warn("cannot list models", zap.Error(err))
		return nil
	}

	var root *content.Instance
	if def.NeedsRoot {
		root = findRoot(ctx, env, logger)
	}

	entries := make([]Entry, 0)
	instances := 0
	for _, m := range models {
		ns := ""
		if def.Namespace != nil {
			ns = def.Namespace(m)
		}

		if !def.NeedsRoot || root != nil {
			t := Target{Model: m, Root: root}
			for _, a := range def.TypeActions {
				if e, ok := run(a, ns, def.TypeName(m), t, env); ok {
					entries = append(entries, e)
				}
			}
		}

		if def.Query == nil {
			continue
		}

		q := def.Query(m)
		q.Limit = env.MaxInstances
		found, err := env.Store.Instances(ctx, q)
		if err != nil {
			level := logger.Warn
			if errors.Is(err, content.ErrUnavailable) {
				level = logger.Info
			}
			level("abandoning instances", zap.String("model", m.Label()), zap.Error(err))
			continue
		}

		if env.MaxInstances > 0 && len(found) > env.MaxInstances {
			found = found[:env.MaxInstances]
		}

		for _, in := range found {
			instances++
			t := Target{Model: m, Instance: in, Root: root}
			name := def.InstanceName(m, in)
			for _, a := range def.InstanceActions {
				if e, ok := run(a, ns, name, t, env); ok {
					entries = append(entries, e)
				}
			}
		}
	}

	if instances == 0 && len(models) > 0 && def.Fallback != nil {
		entries = append(entries, def.Fallback(ctx, env, models)...)
	}

	return entries
}

func run(a Action, namespace, modelName string, t Target, env Env) (Entry, bool) {
	if a.Frontend != nil {
		u := a.Frontend(env.BaseURL, t)
		if u == "" {
			return Entry{}, false
		}
		return Entry{ModelName: modelName, URLType: a.URLType, URL: u}, true
	}

	var args []any
	if a.Args != nil {
		var ok bool
		if args, ok = a.Args(t); !ok {
			return Entry{}, false
		}
	}

	route := a.Route
	if strings.HasPrefix(route, ":") {
		route = namespace + route
	}

	path, ok := env.Resolver.Resolve(route, args...)
	if !ok || path == "" {
		return Entry{}, false
	}

	return Entry{ModelName: modelName, URLType: a.URLType, URL: env.BaseURL + path}, true
}

func findRoot(ctx context.Context, env Env, logger *zap.Logger) *content.Instance {
	roots, err := env.Store.Instances(ctx, content.Query{Model: content.PageLabel, Depth: 1, Limit: 1})
	if err != nil {
		logger.Warn("cannot find root page", zap.Error(err))
		return nil
	}
	if len(roots) == 0 {
		return nil
	}
	return &roots[0]
}
