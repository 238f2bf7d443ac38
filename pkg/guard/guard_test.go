package guard

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/nitro-dev/nitro/pkg/route"
	"github.com/nitro-dev/nitro/pkg/store"
)

func readyStore(st store.State) *store.Store {
	s := store.New(st)
	s.MarkReady()
	return s
}

func desc(guards ...string) route.Descriptor {
	return route.Descriptor{Path: "/x", Guards: guards}
}

func TestDefaults(t *testing.T) {
	defaults := Defaults(DefaultPaths())

	member := &store.User{ID: "u", Role: "user"}
	admin := &store.User{ID: "a", Role: "admin"}
	subscribed := &store.User{ID: "s", Role: "user", Company: &store.Company{SubscriptionID: "sub_1"}}
	roleless := &store.User{ID: "u1", Email: "a@b.c"}

	tests := []struct {
		name  string
		guard string
		state store.State
		want  string
	}{
		{"isUser visitor", IsUser, store.State{}, "/signin?signin"},
		{"isUser member", IsUser, store.State{User: member}, ""},
		{"isUser without role", IsUser, store.State{User: roleless}, ""},
		{"isAdmin admin", IsAdmin, store.State{User: admin}, ""},
		{"isAdmin superadmin", IsAdmin, store.State{User: &store.User{Role: "SuperAdmin"}}, ""},
		{"isAdmin member", IsAdmin, store.State{User: member}, "/signin?unauthorized"},
		{"isAdmin visitor", IsAdmin, store.State{}, "/signin?signin"},
		{"isAdmin without role", IsAdmin, store.State{User: roleless}, "/signin?unauthorized"},
		{"isSubscribed none", IsSubscribed, store.State{User: member}, "/plans?subscribe"},
		{"isSubscribed visitor", IsSubscribed, store.State{}, "/plans?subscribe"},
		{"isSubscribed active", IsSubscribed, store.State{User: subscribed}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := defaults[tt.guard](desc(tt.guard), tt.state)
			switch {
			case tt.want == "" && got != nil:
				t.Errorf("redirect = %q, want none", got.To)
			case tt.want != "" && got == nil:
				t.Errorf("no redirect, want %q", tt.want)
			case tt.want != "" && got.To != tt.want:
				t.Errorf("redirect = %q, want %q", got.To, tt.want)
			}
		})
	}
}

func TestWithMarker(t *testing.T) {
	if got := withMarker("/signin?next=%2Fa", MarkerSignIn); got != "/signin?next=%2Fa&signin" {
		t.Errorf("withMarker() = %q", got)
	}
}

func TestResolveIsUser(t *testing.T) {
	r := NewResolver(nil)

	dec, err := r.Resolve(context.Background(), desc(IsUser), readyStore(store.State{User: nil}))
	if err != nil {
		t.Fatal(err)
	}
	if dec.Redirect == nil || dec.Redirect.To != "/signin?signin" {
		t.Errorf("Redirect = %+v, want /signin?signin", dec.Redirect)
	}
	if dec.By != IsUser {
		t.Errorf("By = %q, want %q", dec.By, IsUser)
	}

	dec, err = r.Resolve(context.Background(), desc(IsUser), readyStore(store.State{User: &store.User{ID: "u1", Role: "user"}}))
	if err != nil {
		t.Fatal(err)
	}
	if dec.Redirect != nil {
		t.Errorf("Redirect = %+v, want none", dec.Redirect)
	}

	// A signed-in user is never a visitor, whatever the role field says.
	dec, err = r.Resolve(context.Background(), desc(IsUser), readyStore(store.State{User: &store.User{ID: "u1", Email: "a@b.c"}}))
	if err != nil {
		t.Fatal(err)
	}
	if dec.Redirect != nil {
		t.Errorf("user without role: Redirect = %+v, want none", dec.Redirect)
	}
}

func TestResolveUnknownNameIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	r := NewResolver(nil, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	dec, err := r.Resolve(context.Background(), desc("totallyUnknownName"), readyStore(store.State{}))
	if err != nil {
		t.Fatal(err)
	}
	if dec.Redirect != nil {
		t.Errorf("Redirect = %+v, want none", dec.Redirect)
	}
	if !strings.Contains(buf.String(), "totallyUnknownName") || !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("log = %q, want an error mentioning the name", buf.String())
	}
}

func TestResolveFirstRedirectWins(t *testing.T) {
	var calls []string
	track := func(name string, redirect *Redirect) Guard {
		return func(route.Descriptor, store.State) *Redirect {
			calls = append(calls, name)
			return redirect
		}
	}

	r := NewResolver(Table{
		"a": track("a", nil),
		"b": track("b", To("/b")),
		"c": track("c", To("/c")),
	})

	dec, err := r.Resolve(context.Background(), desc(route.PublicSentinel, "a", "b", "c"), readyStore(store.State{}))
	if err != nil {
		t.Fatal(err)
	}
	if dec.Redirect == nil || dec.Redirect.To != "/b" {
		t.Errorf("Redirect = %+v, want /b", dec.Redirect)
	}
	if strings.Join(calls, ",") != "a,b" {
		t.Errorf("calls = %v, want [a b]", calls)
	}
}

func TestCustomGuardOverridesDefault(t *testing.T) {
	r := NewResolver(Table{
		IsUser: func(route.Descriptor, store.State) *Redirect { return To("/custom") },
	})
	dec, _ := r.Resolve(context.Background(), desc(IsUser), readyStore(store.State{User: &store.User{Role: "user"}}))
	if dec.Redirect == nil || dec.Redirect.To != "/custom" {
		t.Errorf("Redirect = %+v, want /custom", dec.Redirect)
	}
	if !r.Has(IsAdmin) {
		t.Error("defaults should remain available")
	}
}

func TestWithPaths(t *testing.T) {
	r := NewResolver(nil, WithPaths(Paths{SignIn: "/login", Plans: "/pricing"}))
	dec, _ := r.Resolve(context.Background(), desc(IsUser), readyStore(store.State{}))
	if dec.Redirect == nil || dec.Redirect.To != "/login?signin" {
		t.Errorf("Redirect = %+v, want /login?signin", dec.Redirect)
	}
	dec, _ = r.Resolve(context.Background(), desc(IsSubscribed), readyStore(store.State{}))
	if dec.Redirect == nil || dec.Redirect.To != "/pricing?subscribe" {
		t.Errorf("Redirect = %+v, want /pricing?subscribe", dec.Redirect)
	}
}

func TestResolveWaitsForReadiness(t *testing.T) {
	s := store.New(store.State{})
	r := NewResolver(nil)

	done := make(chan Decision, 1)
	go func() {
		dec, _ := r.Resolve(context.Background(), desc(IsUser), s)
		done <- dec
	}()

	select {
	case <-done:
		t.Fatal("Resolve returned before the state was ready")
	case <-time.After(20 * time.Millisecond):
	}

	s.Update(store.Patch{User: store.Some(&store.User{ID: "u1", Role: "user"})})

	select {
	case dec := <-done:
		if dec.Redirect != nil {
			t.Errorf("Redirect = %+v, want none after user loaded", dec.Redirect)
		}
	case <-time.After(time.Second):
		t.Fatal("Resolve did not return after readiness")
	}
}

func TestResolveContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver(nil).Resolve(ctx, desc(IsUser), store.New(store.State{}))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestResolvePublicDoesNotWait(t *testing.T) {
	dec, err := NewResolver(nil).Resolve(context.Background(), desc(route.PublicSentinel), store.New(store.State{}))
	if err != nil || dec.Redirect != nil {
		t.Errorf("Resolve() = %+v, %v", dec, err)
	}
}

func TestValidate(t *testing.T) {
	reg := &route.Registry{Groups: []route.LayoutGroup{{
		Routes: []route.Descriptor{
			{Module: "m", Page: "P", Path: "/a", Guards: []string{IsUser, "isBeta"}},
			{Module: "m", Page: "Q", Path: "/b", Guards: []string{"isBeta", route.PublicSentinel}},
		},
	}}}
	unknown := NewResolver(nil).Validate(reg)
	if len(unknown) != 1 || !strings.HasPrefix(unknown[0], "isBeta") {
		t.Errorf("Validate() = %v, want [isBeta ...]", unknown)
	}
}
