package guard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nitro-dev/nitro/pkg/route"
	"github.com/nitro-dev/nitro/pkg/store"
)

// StateSource gives guards access to the AppState once it is populated.
type StateSource interface {
	// Ready is closed once the state guards should read has loaded.
	Ready() <-chan struct{}

	// Snapshot returns the latest committed state.
	Snapshot() store.State
}

// Resolver turns guard names into guard chains and runs them.
type Resolver struct {
	table  Table
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for configuration problems.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithPaths changes the redirect targets of the built-in guards.
// It must come before any option that depends on the default table.
func WithPaths(p Paths) Option {
	return func(r *Resolver) {
		r.table = Merge(r.table, Defaults(p))
	}
}

// NewResolver creates a resolver from the built-in guards overlaid with custom.
func NewResolver(custom Table, opts ...Option) *Resolver {
	r := &Resolver{
		table:  Defaults(DefaultPaths()),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.table = Merge(r.table, custom)
	return r
}

// Has reports whether a guard is registered under name.
func (r *Resolver) Has(name string) bool {
	_, ok := r.table[name]
	return ok
}

// Link is one resolved guard of a chain.
type Link struct {
	Name  string
	Guard Guard
}

// Chain resolves names in order. The public sentinel is dropped silently;
// unknown names are logged and dropped.
func (r *Resolver) Chain(names []string) []Link {
	chain := make([]Link, 0, len(names))
	for _, name := range names {
		if name == route.PublicSentinel {
			continue
		}
		g, ok := r.table[name]
		if !ok {
			r.logger.Error("unknown route middleware, skipping",
				"middleware", name,
			)
			continue
		}
		chain = append(chain, Link{Name: name, Guard: g})
	}
	return chain
}

// Decision is the outcome of resolving a route.
type Decision struct {
	// Redirect is nil when the navigation may proceed.
	Redirect *Redirect

	// By names the guard that redirected.
	By string
}

// Resolve waits for src to be ready, then evaluates the route's guards in
// declaration order. The first guard asking for a redirect wins.
func (r *Resolver) Resolve(ctx context.Context, d route.Descriptor, src StateSource) (Decision, error) {
	chain := r.Chain(d.Guards)
	if len(chain) == 0 {
		return Decision{}, nil
	}

	select {
	case <-src.Ready():
	case <-ctx.Done():
		return Decision{}, fmt.Errorf("waiting for app state: %w", ctx.Err())
	}

	for _, link := range chain {
		if redirect := link.Guard(d, src.Snapshot()); redirect != nil {
			return Decision{Redirect: redirect, By: link.Name}, nil
		}
	}
	return Decision{}, nil
}

// Validate reports every guard name in reg that no guard is registered for.
// Unknown names are tolerated at navigation time; Validate lets tooling flag them.
func (r *Resolver) Validate(reg *route.Registry) []string {
	seen := make(map[string]bool)
	var unknown []string
	for _, d := range reg.Descriptors() {
		for _, name := range d.Guards {
			if name == route.PublicSentinel || r.Has(name) || seen[name] {
				continue
			}
			seen[name] = true
			unknown = append(unknown, fmt.Sprintf("%s (%s)", name, d.ID()))
		}
	}
	return unknown
}
