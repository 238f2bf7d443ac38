package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v8"

	"github.com/nitro-dev/nitro"
	"github.com/nitro-dev/nitro/internal/config"
	"github.com/nitro-dev/nitro/pkg/guard"
	"github.com/nitro-dev/nitro/pkg/manifest"
	"github.com/nitro-dev/nitro/pkg/middleware"
	"github.com/nitro-dev/nitro/pkg/scroll"
	"github.com/nitro-dev/nitro/pkg/session"
	"github.com/nitro-dev/nitro/pkg/store"
)

// project is a loaded nitro.json and its route manifest.
type project struct {
	config   *config.Config
	manifest *manifest.Manifest

	// closers release what appConfig opened.
	closers []func() error
}

func loadProject(dir string) (*project, error) {
	var (
		cfg *config.Config
		err error
	)
	if dir == "" {
		cfg, err = config.LoadFromWorkingDir()
	} else {
		cfg, err = config.Load(dir)
	}
	if err != nil {
		return nil, err
	}

	routes := cfg.RoutesPath()
	m, err := manifest.Load(os.DirFS(filepath.Dir(routes)), filepath.Base(routes))
	if err != nil {
		return nil, err
	}
	return &project{config: cfg, manifest: m}, nil
}

// appConfig turns the project into the configuration of nitro.Setup.
func (p *project) appConfig(logger *slog.Logger) nitro.Config {
	cfg := p.config

	name := cfg.Name
	if name == "" {
		name = p.manifest.Name
	}

	c := nitro.Config{
		Name:           name,
		TitleSeparator: cfg.TitleSeparator,
		Modules:        p.manifest.Modules,
		Paths:          guard.Paths{SignIn: cfg.Paths.SignIn, Plans: cfg.Paths.Plans},
		IsStatic:       cfg.IsStatic,
		MaxSessions:    cfg.Session.MaxSessions,
		Tracing:        cfg.Tracing,
		Logger:         logger,
	}

	c.Cookie = session.DefaultCookieConfig()
	c.Cookie.Secure = cfg.Session.CookieSecure

	if cfg.API.URL != "" {
		loader := store.NewHTTPLoader(cfg.API.URL)
		loader.Path = cfg.API.StatePath
		loader.Cookie = c.Cookie.Name
		c.Loader = loader
	}

	switch cfg.Scroll.Storage {
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Scroll.Redis.Addr,
			Password: cfg.Scroll.Redis.Password,
			DB:       cfg.Scroll.Redis.DB,
		})
		p.closers = append(p.closers, client.Close)
		c.ScrollStorage = scroll.NewRedisStorage(client, scroll.WithRedisTTL(cfg.ScrollTTL()))
	default:
		c.ScrollStorage = scroll.NewMemoryStorage(cfg.Scroll.Capacity)
	}

	if info, err := os.Stat(cfg.StaticPath()); err == nil && info.IsDir() {
		c.Static = os.DirFS(cfg.StaticPath())
		c.StaticPrefix = cfg.Static.Prefix
	}
	if cfg.Metrics {
		c.Metrics = middleware.NewMetrics()
	}
	return c
}

func (p *project) close() {
	for _, fn := range p.closers {
		fn()
	}
}
