// Package nitro mounts a guarded, layout-based router over server-rendered
// pages.
//
// Pages register themselves with route annotations (see package route);
// Setup discovers them, groups them per layout, wires each page's guards
// into a loader and returns an App serving them over HTTP:
//
//	app, err := nitro.Setup(ctx, nitro.Config{
//	    Name:    "Acme",
//	    Modules: []route.Module{home.Module, admin.Module},
//	    Loader:  store.NewHTTPLoader("http://localhost:8080"),
//	}, layouts.App, layouts.Admin)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":3000", app.Handler())
//
// Every browser session owns an AppState store. Its initial state is
// fetched in the background when the session starts; guarded navigations
// wait for it, public ones do not. Guards that ask for a redirect become
// HTTP 302 responses, or JSON redirects in hash mode.
package nitro

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nitro-dev/nitro/pkg/guard"
	"github.com/nitro-dev/nitro/pkg/middleware"
	"github.com/nitro-dev/nitro/pkg/route"
	"github.com/nitro-dev/nitro/pkg/router"
	"github.com/nitro-dev/nitro/pkg/scroll"
	"github.com/nitro-dev/nitro/pkg/session"
	"github.com/nitro-dev/nitro/pkg/store"
)

// DefaultStateTimeout bounds the initial state fetch of a session.
const DefaultStateTimeout = 10 * time.Second

// Config configures Setup.
type Config struct {
	// Name is the application name, appended to every page title.
	Name string

	// TitleSeparator joins page and application titles (default " - ").
	TitleSeparator string

	// Modules are the page modules routes are discovered from.
	Modules []route.Module

	// Middleware adds or overrides guards by name. The built-in isUser,
	// isAdmin and isSubscribed are always available.
	Middleware guard.Table

	// Paths changes the redirect targets of the built-in guards.
	Paths guard.Paths

	// BeforeApp runs once the router is assembled and before the App is
	// returned. An error aborts Setup.
	BeforeApp func(ctx context.Context, app *App) error

	// BeforeStoreUpdate replaces the default shallow merge of state updates.
	BeforeStoreUpdate store.MergeFunc

	// IsStatic selects hash routing ("/#/path") for static hosting.
	IsStatic bool

	// Loader fetches the initial state of each session. Nil starts every
	// session signed out.
	Loader store.Loader

	// StateTimeout bounds Loader (default 10s).
	StateTimeout time.Duration

	// ScrollStorage keeps scroll offsets. Nil selects an in-memory LRU.
	ScrollStorage scroll.Storage

	// MaxSessions bounds the sessions held in memory.
	MaxSessions int

	// Cookie configures the session cookie.
	Cookie session.CookieConfig

	// Static serves files under StaticPrefix when set.
	Static       fs.FS
	StaticPrefix string

	// Metrics records navigation metrics and serves them on /metrics.
	Metrics *middleware.Metrics

	// MetricsHandler overrides the /metrics handler (default promhttp.Handler()).
	MetricsHandler http.Handler

	// Tracing wraps navigations in OpenTelemetry spans configured by
	// TracingOptions.
	Tracing        bool
	TracingOptions []middleware.OTelOption

	// Wrap adds loader middleware after metrics and tracing.
	Wrap []router.LoaderMiddleware

	Logger *slog.Logger
}

// App is a mounted application.
type App struct {
	config   Config
	logger   *slog.Logger
	resolver *guard.Resolver
	scroll   *scroll.Manager
	sessions *session.Manager[*Session]
	tree     atomic.Pointer[router.Tree]
	layouts  []router.Layout
}

// Setup builds the route registry from cfg.Modules, assembles it over
// layouts and returns the App. Missing modules, missing layouts and
// routes referencing an unknown layout are fatal.
func Setup(ctx context.Context, cfg Config, layouts ...router.Layout) (*App, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TitleSeparator == "" {
		cfg.TitleSeparator = route.DefaultTitleSeparator
	}
	if cfg.StateTimeout <= 0 {
		cfg.StateTimeout = DefaultStateTimeout
	}
	if cfg.Cookie.Name == "" {
		cfg.Cookie = session.DefaultCookieConfig()
	}
	if cfg.StaticPrefix == "" {
		cfg.StaticPrefix = "/static/"
	}
	if cfg.Metrics != nil && cfg.MetricsHandler == nil {
		cfg.MetricsHandler = promhttp.Handler()
	}

	opts := []guard.Option{guard.WithLogger(cfg.Logger)}
	if cfg.Paths != (guard.Paths{}) {
		opts = append(opts, guard.WithPaths(cfg.Paths))
	}

	a := &App{
		config:   cfg,
		logger:   cfg.Logger,
		resolver: guard.NewResolver(cfg.Middleware, opts...),
		scroll:   scroll.NewManager(cfg.ScrollStorage, scroll.WithLogger(cfg.Logger)),
		layouts:  layouts,
	}
	a.sessions = session.NewManager(session.ManagerConfig[*Session]{
		MaxSessions: cfg.MaxSessions,
		New:         a.newSession,
		OnEvict: func(_ string, s *Session) {
			s.close()
			if cfg.Metrics != nil {
				cfg.Metrics.SessionEvicted()
			}
		},
	})

	tree, err := a.build(cfg.Modules)
	if err != nil {
		return nil, err
	}
	a.tree.Store(tree)

	if cfg.BeforeApp != nil {
		if err := cfg.BeforeApp(ctx, a); err != nil {
			return nil, fmt.Errorf("before app: %w", err)
		}
	}

	a.logger.Info("router mounted",
		"app", cfg.Name,
		"mode", tree.Mode.String(),
		"layouts", len(tree.Layouts),
		"routes", len(tree.Pages()),
	)
	return a, nil
}

func (a *App) build(modules []route.Module) (*router.Tree, error) {
	reg, err := route.Build(modules)
	if err != nil {
		return nil, err
	}
	for _, unknown := range a.resolver.Validate(reg) {
		a.logger.Warn("route uses an unknown middleware", "middleware", unknown)
	}

	mode := router.PathMode
	if a.config.IsStatic {
		mode = router.HashMode
	}

	var wrap []router.LoaderMiddleware
	if a.config.Tracing {
		wrap = append(wrap, middleware.OpenTelemetry(a.config.TracingOptions...))
	}
	if a.config.Metrics != nil {
		wrap = append(wrap, a.config.Metrics.Loader())
	}
	wrap = append(wrap, a.config.Wrap...)

	return router.Assemble(reg, a.layouts, router.Options{
		Resolver: a.resolver,
		Scroll:   a.scroll,
		Mode:     mode,
		Site: router.Site{
			Name:           a.config.Name,
			TitleSeparator: a.config.TitleSeparator,
			IsStatic:       a.config.IsStatic,
		},
		Wrap:   wrap,
		Logger: a.logger,
	})
}

// Rebuild rediscovers routes from modules and swaps the router in one
// step. Navigations already running finish on the previous router. On
// error the previous router stays in place.
func (a *App) Rebuild(modules []route.Module) error {
	tree, err := a.build(modules)
	if err != nil {
		return err
	}
	a.tree.Store(tree)
	if a.config.Metrics != nil {
		a.config.Metrics.Rebuilt()
	}
	a.logger.Info("router rebuilt", "routes", len(tree.Pages()))
	return nil
}

// Tree returns the current router.
func (a *App) Tree() *router.Tree {
	return a.tree.Load()
}

// Scroll returns the scroll manager shared by all layouts.
func (a *App) Scroll() *scroll.Manager {
	return a.scroll
}

// Close drops every session, cancelling pending state fetches.
func (a *App) Close() {
	a.sessions.Purge()
}
