package nitro

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sync"

	"github.com/nitro-dev/nitro/pkg/route"
	"github.com/nitro-dev/nitro/pkg/router"
	"github.com/nitro-dev/nitro/pkg/store"
)

// ErrNotFound is returned when no route matches a navigation.
var ErrNotFound = errors.New("nitro: no route matches")

// Session is one browser session.
type Session struct {
	ID    string
	Store *store.Store

	app *App

	mu      sync.Mutex
	fetch   *fetch
	cookies []*http.Cookie
	closed  bool
}

// fetch is one run of the state loader.
type fetch struct {
	done   chan struct{}
	cancel context.CancelFunc

	// err is set before done is closed.
	err error
}

func (f *fetch) finished() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// sessionState is what guards read: the session store, ready once the
// latest fetch has finished.
type sessionState struct {
	*store.Store
	ready <-chan struct{}
}

func (st sessionState) Ready() <-chan struct{} {
	return st.ready
}

// Result is the outcome of a navigation.
type Result struct {
	// Status is http.StatusOK for a render and http.StatusFound for a
	// redirect.
	Status int

	// Redirect is the target of a redirect; By names the guard, or
	// router.RedirectRoute for a static redirect.
	Redirect string
	By       string

	Title string
	HTML  template.HTML

	// Page is the matched page.
	Page *router.PageNode
}

// Session returns the session for id, creating it on first use. Its state
// is fetched on the first navigation or page load.
func (a *App) Session(id string) *Session {
	s, created := a.sessions.Get(id)
	if created && a.config.Metrics != nil {
		a.config.Metrics.SessionCreated()
	}
	return s
}

func (a *App) newSession(id string) *Session {
	st := store.New(store.State{}, store.WithBeforeUpdate(a.config.BeforeStoreUpdate))
	return &Session{ID: id, Store: st, app: a}
}

// Refresh fetches the session state again in the background, forwarding
// cookies to the loader. Full page loads call it so that a sign-in on the
// backend is seen. Guarded navigations wait for the fetch; a fetch already
// running is reused. The returned channel closes when it finishes.
func (s *Session) Refresh(cookies []*http.Cookie) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cookies != nil {
		s.cookies = cookies
	}
	if s.fetch != nil && !s.fetch.finished() {
		return s.fetch.done
	}
	return s.start()
}

// state returns the state guards read, starting a fetch when none ran yet
// or the last one failed.
func (s *Session) state() sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.fetch
	if f == nil || (f.finished() && f.err != nil) {
		return sessionState{Store: s.Store, ready: s.start()}
	}
	return sessionState{Store: s.Store, ready: f.done}
}

func (s *Session) useCookies(cookies []*http.Cookie) {
	s.mu.Lock()
	s.cookies = cookies
	s.mu.Unlock()
}

// start runs the loader. s.mu must be held.
func (s *Session) start() <-chan struct{} {
	done := make(chan struct{})
	if s.closed {
		close(done)
		return done
	}

	a := s.app
	ctx, cancel := context.WithTimeout(store.WithCookies(context.Background(), s.cookies), a.config.StateTimeout)
	f := &fetch{done: done, cancel: cancel}
	s.fetch = f

	go func() {
		defer cancel()
		f.err = store.Bootstrap(ctx, s.Store, a.config.Loader, s.ID, a.logger)
		close(done)
	}()
	return done
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.fetch != nil {
		s.fetch.cancel()
	}
}

// Navigate resolves a GET navigation to target, which may carry a query
// string.
func (s *Session) Navigate(ctx context.Context, target string) (*Result, error) {
	return s.Handle(ctx, http.MethodGet, target)
}

// Handle resolves a navigation: it matches target, runs the page loader
// (static redirect, then guards in order) and renders the page inside its
// layout when nothing redirected. A session whose last state fetch failed
// fetches again first.
func (s *Session) Handle(ctx context.Context, method, target string) (*Result, error) {
	tree := s.app.Tree()

	m, ok := tree.Match(method, target)
	if !ok {
		return nil, ErrNotFound
	}

	out, err := m.Page.Load(ctx, router.Navigation{
		Route: m.Page.Route,
		Path:  m.Path,
		State: s.state(),
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", m.Path, err)
	}
	if out.Redirect != "" {
		return &Result{
			Status:   http.StatusFound,
			Redirect: out.Redirect,
			By:       out.By,
			Page:     m.Page,
		}, nil
	}

	query, _ := url.ParseQuery(m.Query)
	html, err := m.Page.Render(ctx, tree, route.Props{
		Path:   m.Path,
		Params: m.Params,
		Query:  query,
		State:  s.Store.Snapshot(),
		Href:   tree.Href,
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		Status: http.StatusOK,
		Title:  m.Page.Title,
		HTML:   html,
		Page:   m.Page,
	}, nil
}
