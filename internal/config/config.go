package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/nitro-dev/nitro/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "nitro.json"

	// EnvFileName is the optional dotenv file next to nitro.json.
	EnvFileName = ".env"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultRoutes is the default route manifest.
	DefaultRoutes = "routes.yaml"
)

// Scroll storage backends.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config represents nitro.json.
type Config struct {
	// Name is the application name, appended to page titles.
	Name string `json:"name,omitempty"`

	// TitleSeparator joins page and application titles (default " - ").
	TitleSeparator string `json:"titleSeparator,omitempty"`

	// IsStatic selects hash-based routing for static hosting.
	IsStatic bool `json:"isStatic,omitempty"`

	Server  ServerConfig  `json:"server,omitempty"`
	API     APIConfig     `json:"api,omitempty"`
	Static  StaticConfig  `json:"static,omitempty"`
	Scroll  ScrollConfig  `json:"scroll,omitempty"`
	Session SessionConfig `json:"session,omitempty"`
	Paths   PathsConfig   `json:"paths,omitempty"`

	// Routes is the route manifest, relative to the project root.
	Routes string `json:"routes,omitempty"`

	// Metrics exposes Prometheus metrics on /metrics.
	Metrics bool `json:"metrics,omitempty"`

	// Tracing wraps navigations in OpenTelemetry spans.
	Tracing bool `json:"tracing,omitempty"`

	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// APIConfig locates the backend serving the initial app state.
type APIConfig struct {
	// URL is the API base URL. Empty disables the state fetch; sessions
	// start logged out.
	URL string `json:"url,omitempty"`

	// StatePath is the state endpoint (default "/api/state").
	StatePath string `json:"statePath,omitempty"`
}

// StaticConfig contains static file serving configuration.
type StaticConfig struct {
	// Dir is the directory containing static files.
	Dir string `json:"dir,omitempty"`

	// Prefix is the URL prefix for static files (default: "/static/").
	Prefix string `json:"prefix,omitempty"`
}

// ScrollConfig selects where scroll offsets are kept.
type ScrollConfig struct {
	// Storage is "memory" (default) or "redis".
	Storage string `json:"storage,omitempty"`

	// Capacity bounds the in-memory store.
	Capacity int `json:"capacity,omitempty"`

	Redis RedisConfig `json:"redis,omitempty"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`

	// TTL is how long a session's offsets live (e.g. "24h").
	TTL string `json:"ttl,omitempty"`
}

// SessionConfig contains session settings.
type SessionConfig struct {
	// MaxSessions bounds the sessions held in memory.
	MaxSessions int `json:"maxSessions,omitempty"`

	// CookieSecure sets the Secure flag on the session cookie.
	CookieSecure bool `json:"cookieSecure,omitempty"`
}

// PathsConfig overrides the redirect targets of the built-in guards.
type PathsConfig struct {
	SignIn string `json:"signIn,omitempty"`
	Plans  string `json:"plans,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads nitro.json, and .env when present, from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path. A .env file
// in the same directory is loaded into the environment first; variables
// already set win.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No nitro.json found in " + filepath.Dir(path))
		}
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	envPath := filepath.Join(filepath.Dir(path), EnvFileName)
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithSubject(envPath).
			Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse nitro.json: " + err.Error()).
			WithSuggestion("Check that nitro.json is valid JSON")
	}
	cfg.configPath = path

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from NITRO_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError(key, v, err)
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError(key, v, err)
		}
		*dst = b
		return nil
	}

	str("NITRO_NAME", &c.Name)
	str("NITRO_HOST", &c.Server.Host)
	str("NITRO_API_URL", &c.API.URL)
	str("NITRO_SCROLL_STORAGE", &c.Scroll.Storage)
	str("NITRO_REDIS_ADDR", &c.Scroll.Redis.Addr)
	str("NITRO_REDIS_PASSWORD", &c.Scroll.Redis.Password)

	for _, err := range []error{
		num("NITRO_PORT", &c.Server.Port),
		num("NITRO_REDIS_DB", &c.Scroll.Redis.DB),
		flag("NITRO_STATIC", &c.IsStatic),
		flag("NITRO_METRICS", &c.Metrics),
		flag("NITRO_TRACING", &c.Tracing),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func envError(key, value string, err error) error {
	return errors.New(errors.CodeConfigInvalid).
		WithSubject(key).
		WithDetail(fmt.Sprintf("cannot use %q: %v", value, err))
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.API.StatePath == "" {
		c.API.StatePath = "/api/state"
	}
	if c.Static.Dir == "" {
		c.Static.Dir = "public"
	}
	if c.Static.Prefix == "" {
		c.Static.Prefix = "/static/"
	}
	if c.Scroll.Storage == "" {
		c.Scroll.Storage = StorageMemory
	}
	if c.Scroll.Redis.TTL == "" {
		c.Scroll.Redis.TTL = "24h"
	}
	if c.Routes == "" {
		c.Routes = DefaultRoutes
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New(errors.CodeConfigInvalid).
			WithSubject("server.port").
			WithDetail("Port must be between 0 and 65535")
	}
	switch c.Scroll.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.Scroll.Redis.Addr == "" {
			return errors.New(errors.CodeConfigInvalid).
				WithSubject("scroll.redis.addr").
				WithDetail("Redis scroll storage needs an address")
		}
	default:
		return errors.New(errors.CodeConfigInvalid).
			WithSubject("scroll.storage").
			WithDetail(fmt.Sprintf("unknown storage %q, want %q or %q", c.Scroll.Storage, StorageMemory, StorageRedis))
	}
	if _, err := time.ParseDuration(c.Scroll.Redis.TTL); err != nil {
		return errors.New(errors.CodeConfigInvalid).
			WithSubject("scroll.redis.ttl").
			Wrap(err)
	}
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// Address returns the listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// URL returns the base URL of the server.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// ScrollTTL returns the parsed Redis TTL.
func (c *Config) ScrollTTL() time.Duration {
	d, _ := time.ParseDuration(c.Scroll.Redis.TTL)
	return d
}

// RoutesPath returns the absolute path to the route manifest.
func (c *Config) RoutesPath() string {
	return c.resolve(c.Routes)
}

// StaticPath returns the absolute path to the static directory.
func (c *Config) StaticPath() string {
	return c.resolve(c.Static.Dir)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing nitro.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigNotFound).
				WithDetail("No nitro.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
