package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultCookieName is the name of the session cookie.
const DefaultCookieName = "nitro_sid"

// CookieConfig configures the session cookie.
type CookieConfig struct {
	// Name is the cookie name. Default: "nitro_sid".
	Name string

	// Path is the cookie path. Default: "/".
	Path   string
	Domain string

	// MaxAge bounds the cookie lifetime; zero makes it a browser-session
	// cookie.
	MaxAge time.Duration

	Secure   bool
	HTTPOnly bool

	// SameSite defaults to Lax.
	SameSite http.SameSite
}

// DefaultCookieConfig returns the default cookie settings.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Name:     DefaultCookieName,
		Path:     "/",
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

type idKey struct{}

// WithID returns a context carrying the session ID.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

// ID returns the session ID carried by ctx, or "".
func ID(ctx context.Context) string {
	id, _ := ctx.Value(idKey{}).(string)
	return id
}

// Middleware ensures every request belongs to a session. A request without
// a valid session cookie gets a fresh ID and a Set-Cookie header.
func Middleware(cfg CookieConfig) func(http.Handler) http.Handler {
	if cfg.Name == "" {
		cfg.Name = DefaultCookieName
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := fromCookie(r, cfg.Name)
			if !ok {
				id = uuid.NewString()
				http.SetCookie(w, cfg.cookie(id))
			}
			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}

func (cfg CookieConfig) cookie(id string) *http.Cookie {
	c := &http.Cookie{
		Name:     cfg.Name,
		Value:    id,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		Secure:   cfg.Secure,
		HttpOnly: cfg.HTTPOnly,
		SameSite: cfg.SameSite,
	}
	if cfg.MaxAge > 0 {
		c.MaxAge = int(cfg.MaxAge.Seconds())
	}
	return c
}

// fromCookie returns the session ID of r if its cookie holds a valid UUID.
func fromCookie(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
