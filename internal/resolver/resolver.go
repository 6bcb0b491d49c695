// Package resolver wraps route reversal so that an unresolvable route
// yields an absent value instead of an error.
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/go-unveil/internal/routes"
)

type result struct {
	url string
	ok  bool
}

// Resolver memoises route resolutions for the lifetime of one report
// render. It is not safe for concurrent use.
type Resolver struct {
	reverser routes.Reverser
	logger   *zap.Logger
	cache    map[string]result
	misses   int
}

// New creates a Resolver over r.
func New(r routes.Reverser, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		reverser: r,
		logger:   logger,
		cache:    make(map[string]result),
	}
}

// Resolve returns the path for name and args. The boolean is false when the
// route does not exist or cannot be reversed with these arguments.
func (r *Resolver) Resolve(name string, args ...any) (string, bool) {
	key := cacheKey(name, args)
	if res, ok := r.cache[key]; ok {
		return res.url, res.ok
	}

	res := r.reverse(name, args)
	if !res.ok {
		r.misses++
	}
	r.cache[key] = res
	return res.url, res.ok
}

func (r *Resolver) reverse(name string, args []any) result {
	if r.reverser == nil {
		return result{}
	}

	url, err := r.reverser.Reverse(name, args...)
	switch {
	case err == nil && url != "":
		return result{url: url, ok: true}
	case err == nil:
		r.logger.Debug("route reversed to an empty path", zap.String("route", name))
	case errors.Is(err, routes.ErrNoReverseMatch), errors.Is(err, routes.ErrImproperlyConfigured):
		r.logger.Debug("route not resolved", zap.String("route", name), zap.Error(err))
	default:
		r.logger.Warn("unexpected route resolution error", zap.String("route", name), zap.Error(err))
	}
	return result{}
}

// Misses returns how many distinct resolutions failed.
func (r *Resolver) Misses() int {
	return r.misses
}

// Len returns the number of distinct resolutions made so far.
func (r *Resolver) Len() int {
	return len(r.cache)
}

// cacheKey keeps the argument count and quotes each argument, so arguments
// containing the separator cannot collide with a longer argument list.
func cacheKey(name string, args []any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%d", name, len(args))
	for _, a := range args {
		fmt.Fprintf(&b, "|%q", fmt.Sprint(a))
	}
	return b.String()
}
