// Package routes is a registry of named admin routes with reverse
// resolution, mirroring the host admin's URL configuration.
//
// A route name has the form "namespace:action". Several patterns may share
// one name; Reverse picks the first pattern whose placeholder count equals
// the number of arguments.
package routes

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrNoReverseMatch is returned when no pattern matches the name and arguments.
	ErrNoReverseMatch = errors.New("no reverse match")
	// ErrImproperlyConfigured is returned when the registry or a pattern is unusable.
	ErrImproperlyConfigured = errors.New("improperly configured")
)

// Reverser resolves a route name plus positional arguments into a path.
type Reverser interface {
	Reverse(name string, args ...any) (string, error)
}

type placeholder struct {
	name    string
	integer bool
}

type pattern struct {
	raw    string
	parts  []string // literal segments, len(parts) == len(params)+1
	params []placeholder
}

// Registry is a concurrency-safe table of named routes.
type Registry struct {
	mu     sync.RWMutex
	routes map[string][]pattern
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{routes: make(map[string][]pattern)}
}

// Register adds a pattern for name. Placeholders are written as {name} or
// {name:int}.
func (r *Registry) Register(name, raw string) error {
	if name == "" {
		return fmt.Errorf("%w: empty route name", ErrImproperlyConfigured)
	}

	p, err := compile(raw)
	if err != nil {
		return fmt.Errorf("route %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[name] = append(r.routes[name], p)
	return nil
}

// Remove deletes every pattern registered under name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.routes, name)
}

// MustRegister is Register that panics on error. It is meant for static tables.
func (r *Registry) MustRegister(name, raw string) {
	if err := r.Register(name, raw); err != nil {
		panic(err)
	}
}

// Reverse fills the placeholders of the pattern registered under name.
func (r *Registry) Reverse(name string, args ...any) (string, error) {
	if r == nil {
		return "", ErrImproperlyConfigured
	}

	r.mu.RLock()
	patterns, ok := r.routes[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %q is not a registered route name", ErrNoReverseMatch, name)
	}

	for _, p := range patterns {
		if len(p.params) != len(args) {
			continue
		}
		path, err := p.fill(args)
		if err != nil {
			return "", fmt.Errorf("%w: %q with arguments %v: %v", ErrNoReverseMatch, name, args, err)
		}
		return path, nil
	}

	return "", fmt.Errorf("%w: %q with %d arguments", ErrNoReverseMatch, name, len(args))
}

// Names returns every registered route name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Patterns returns the raw patterns registered under name.
func (r *Registry) Patterns(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, p := range r.routes[name] {
		out = append(out, p.raw)
	}
	return out
}

// RegisterViewSet registers the standard model viewset family under
// namespace: index, add, edit, delete, copy, history and usage.
func (r *Registry) RegisterViewSet(namespace, prefix string) {
	prefix = "/" + strings.Trim(prefix, "/") + "/"
	r.MustRegister(namespace+":index", prefix)
	r.MustRegister(namespace+":list", prefix)
	r.MustRegister(namespace+":add", prefix+"add/")
	r.MustRegister(namespace+":edit", prefix+"edit/{pk}/")
	r.MustRegister(namespace+":delete", prefix+"delete/{pk}/")
	r.MustRegister(namespace+":copy", prefix+"copy/{pk}/")
	r.MustRegister(namespace+":history", prefix+"history/{pk}/")
	r.MustRegister(namespace+":usage", prefix+"usage/{pk}/")
}

func compile(raw string) (pattern, error) {
	if raw == "" {
		return pattern{}, fmt.Errorf("%w: empty pattern", ErrImproperlyConfigured)
	}

	p := pattern{raw: raw}
	rest := raw
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return pattern{}, fmt.Errorf("%w: unbalanced '}' in %q", ErrImproperlyConfigured, raw)
			}
			p.parts = append(p.parts, rest)
			return p, nil
		}

		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return pattern{}, fmt.Errorf("%w: unterminated placeholder in %q", ErrImproperlyConfigured, raw)
		}
		end += open

		ph, err := parsePlaceholder(rest[open+1 : end])
		if err != nil {
			return pattern{}, fmt.Errorf("%w: %v in %q", ErrImproperlyConfigured, err, raw)
		}

		p.parts = append(p.parts, rest[:open])
		p.params = append(p.params, ph)
		rest = rest[end+1:]
	}
}

func parsePlaceholder(s string) (placeholder, error) {
	name, typ, _ := strings.Cut(s, ":")
	if name == "" {
		return placeholder{}, errors.New("placeholder without a name")
	}

	switch typ {
	case "":
		return placeholder{name: name}, nil
	case "int":
		return placeholder{name: name, integer: true}, nil
	default:
		return placeholder{}, fmt.Errorf("unknown placeholder type %q", typ)
	}
}

func (p pattern) fill(args []any) (string, error) {
	var b strings.Builder
	for i, ph := range p.params {
		b.WriteString(p.parts[i])

		v := fmt.Sprint(args[i])
		if v == "" || strings.Contains(v, "/") {
			return "", fmt.Errorf("invalid value %q for %s", v, ph.name)
		}
		if ph.integer {
			if _, err := strconv.ParseUint(v, 10, 64); err != nil {
				return "", fmt.Errorf("%s must be a positive integer, got %q", ph.name, v)
			}
		}
		b.WriteString(v)
	}
	b.WriteString(p.parts[len(p.parts)-1])
	return b.String(), nil
}
