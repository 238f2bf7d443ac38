package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != DefaultStatePath {
			t.Errorf("path = %q, want %q", r.URL.Path, DefaultStatePath)
		}
		c, err := r.Cookie("sid")
		if err != nil || c.Value != "abc" {
			t.Errorf("session cookie = %v, %v", c, err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"user":{"_id":"u1","type":"admin","company":{"stripeSubscriptionId":"sub_1"}},"message":"hi"}`)
	}))
	defer srv.Close()

	l := NewHTTPLoader(srv.URL + "/")
	l.Cookie = "sid"

	st, err := l.Load(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st.User == nil || st.User.ID != "u1" || st.Role() != "admin" {
		t.Errorf("User = %+v", st.User)
	}
	if !st.Company().Subscribed() {
		t.Error("company should be subscribed")
	}
	if !st.APIAvailable {
		t.Error("APIAvailable should be true after a successful load")
	}
}

func TestHTTPLoaderForwardsBrowserCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("backend_session"); err != nil || c.Value != "xyz" {
			t.Errorf("backend cookie = %v, %v", c, err)
		}
		if n := len(r.Cookies()); n != 2 {
			t.Errorf("got %d cookies, want 2: %v", n, r.Cookies())
		}
		io.WriteString(w, `{"user":{"_id":"u1"}}`)
	}))
	defer srv.Close()

	l := NewHTTPLoader(srv.URL)
	l.Cookie = "sid"

	// The session cookie is already among the browser cookies, so it is
	// not added a second time.
	ctx := WithCookies(context.Background(), []*http.Cookie{
		{Name: "sid", Value: "abc"},
		{Name: "backend_session", Value: "xyz"},
	})
	st, err := l.Load(ctx, "abc")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st.Role() != RoleUser {
		t.Errorf("Role() = %q, want %q", st.Role(), RoleUser)
	}
}

func TestHTTPLoaderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewHTTPLoader(srv.URL).Load(context.Background(), ""); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestBootstrapSuccess(t *testing.T) {
	s := New(State{})
	loader := LoaderFunc(func(ctx context.Context, id string) (State, error) {
		return State{User: &User{ID: id}, APIAvailable: true}, nil
	})

	Bootstrap(context.Background(), s, loader, "s1", slog.New(slog.NewTextHandler(io.Discard, nil)))

	if !s.IsReady() {
		t.Fatal("store should be ready")
	}
	st := s.Snapshot()
	if st.User == nil || st.User.ID != "s1" {
		t.Errorf("User = %+v", st.User)
	}
	if !st.APIAvailable {
		t.Error("APIAvailable should be true")
	}
}

func TestBootstrapFailureIsRecovered(t *testing.T) {
	s := New(State{User: &User{ID: "stale"}})
	loader := LoaderFunc(func(ctx context.Context, id string) (State, error) {
		return State{}, errors.New("connection refused")
	})

	err := Bootstrap(context.Background(), s, loader, "s1", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err == nil {
		t.Error("Bootstrap() should report the failed fetch")
	}

	if !s.IsReady() {
		t.Fatal("store should be ready even after a failed fetch")
	}
	st := s.Snapshot()
	if st.User != nil {
		t.Errorf("User = %+v, want signed out", st.User)
	}
	if st.APIAvailable {
		t.Error("APIAvailable should be false")
	}
}

func TestBootstrapNilLoader(t *testing.T) {
	s := New(State{})
	Bootstrap(context.Background(), s, nil, "", nil)
	if !s.IsReady() {
		t.Error("store should be ready without a loader")
	}
}
