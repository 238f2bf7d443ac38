package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Loader fetches the initial state of a session.
type Loader interface {
	Load(ctx context.Context, sessionID string) (State, error)
}

// LoaderFunc is a function adapter for Loader.
type LoaderFunc func(ctx context.Context, sessionID string) (State, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, sessionID string) (State, error) {
	return f(ctx, sessionID)
}

type cookiesKey struct{}

// WithCookies returns a context carrying the browser cookies a Loader
// forwards to the API.
func WithCookies(ctx context.Context, cookies []*http.Cookie) context.Context {
	return context.WithValue(ctx, cookiesKey{}, cookies)
}

// CookiesFrom returns the cookies carried by ctx.
func CookiesFrom(ctx context.Context) []*http.Cookie {
	cookies, _ := ctx.Value(cookiesKey{}).([]*http.Cookie)
	return cookies
}

// DefaultStatePath is the endpoint HTTPLoader reads the session state from.
const DefaultStatePath = "/api/state"

// HTTPLoader loads state from a JSON endpoint of the backend API.
type HTTPLoader struct {
	// BaseURL is the API origin (e.g., "http://localhost:8080").
	BaseURL string

	// Path defaults to DefaultStatePath.
	Path string

	// Cookie is the name of the cookie carrying the session ID to the API.
	// It is added when the browser cookies in the context lack it.
	Cookie string

	// Client defaults to a client with a 10s timeout.
	Client *http.Client
}

// NewHTTPLoader creates a loader for the given API origin.
func NewHTTPLoader(baseURL string) *HTTPLoader {
	return &HTTPLoader{BaseURL: baseURL}
}

// Load implements Loader. The browser cookies carried by ctx (see
// WithCookies) are forwarded so the API can recognise the user.
func (l *HTTPLoader) Load(ctx context.Context, sessionID string) (State, error) {
	path := l.Path
	if path == "" {
		path = DefaultStatePath
	}
	url := strings.TrimSuffix(l.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return State{}, fmt.Errorf("build state request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	hasSession := false
	for _, c := range CookiesFrom(ctx) {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		hasSession = hasSession || c.Name == l.Cookie
	}
	if l.Cookie != "" && sessionID != "" && !hasSession {
		req.AddCookie(&http.Cookie{Name: l.Cookie, Value: sessionID})
	}

	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return State{}, fmt.Errorf("fetch state: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return State{}, fmt.Errorf("fetch state: unexpected status %d", resp.StatusCode)
	}

	var st State
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	st.APIAvailable = true
	return st, nil
}

// Bootstrap fetches the state of s and opens its readiness gate. It may
// run again later to pick up a newer state.
// A failed fetch is not fatal: the session continues signed out with
// APIAvailable=false, a warning is logged and the error is returned so the
// caller can retry.
func Bootstrap(ctx context.Context, s *Store, loader Loader, sessionID string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if loader == nil {
		s.MarkReady()
		return nil
	}

	st, err := loader.Load(ctx, sessionID)
	if err != nil {
		logger.Warn("initial state fetch failed, continuing signed out",
			"session", sessionID,
			"error", err,
		)
		s.Update(Patch{
			User:         Some[*User](nil),
			APIAvailable: Some(false),
		})
		return err
	}

	s.Update(Patch{
		User:         Some(st.User),
		Message:      Some(st.Message),
		APIAvailable: Some(st.APIAvailable),
		Extra:        st.Extra,
	})
	return nil
}
