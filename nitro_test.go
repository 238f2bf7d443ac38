package nitro

import (
	"context"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	nerrors "github.com/nitro-dev/nitro/internal/errors"
	"github.com/nitro-dev/nitro/pkg/guard"
	"github.com/nitro-dev/nitro/pkg/route"
	"github.com/nitro-dev/nitro/pkg/router"
	"github.com/nitro-dev/nitro/pkg/store"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func text(s string) route.Component {
	return func(_ context.Context, p route.Props) (template.HTML, error) {
		return template.HTML(s), nil
	}
}

func layout(name string) router.Layout {
	return func(_ context.Context, p router.LayoutProps) (template.HTML, error) {
		return template.HTML("<" + name + ">" + string(p.Outlet) + "</" + name + ">"), nil
	}
}

func testModules() []route.Module {
	return []route.Module{{
		Name: "app/pages",
		Pages: []route.Page{
			{Name: "Home", Component: text("home"), Route: []route.Annotation{{
				Paths: []route.Path{route.At("/")},
				Meta:  route.MetaSpec{Title: "Home", Layout: 1},
			}}},
			{Name: "Dashboard", Component: text("dashboard"), Route: []route.Annotation{{
				Paths: []route.Path{route.At("/dashboard", guard.IsUser)},
				Meta:  route.MetaSpec{Title: "Dashboard"},
			}}},
			{Name: "Billing", Component: text("billing"), Route: []route.Annotation{{
				Paths: []route.Path{route.At("/billing", guard.IsUser, "noSuchGuard", guard.IsSubscribed)},
				Meta:  route.MetaSpec{Layout: 2},
			}}},
			{Name: "Project", Component: func(_ context.Context, p route.Props) (template.HTML, error) {
				return template.HTML("project " + p.Params["id"] + " " + p.Query.Get("tab")), nil
			}, Route: []route.Annotation{{
				Paths: []route.Path{route.At("/projects/:id")},
			}}},
		},
	}}
}

func setup(t *testing.T, cfg Config) *App {
	t.Helper()
	if cfg.Modules == nil {
		cfg.Modules = testModules()
	}
	if cfg.Logger == nil {
		cfg.Logger = quiet
	}
	app, err := Setup(context.Background(), cfg, layout("l1"), layout("l2"))
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

func userLoader(u *store.User) store.Loader {
	return store.LoaderFunc(func(context.Context, string) (store.State, error) {
		return store.State{User: u, APIAvailable: true}, nil
	})
}

func TestNavigatePublicPageWithoutUser(t *testing.T) {
	app := setup(t, Config{Name: "Acme"})

	res, err := app.Session("s1").Navigate(context.Background(), "/")
	if err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if res.Redirect != "" {
		t.Errorf("Redirect = %q, want none", res.Redirect)
	}
	if res.HTML != "<l1>home</l1>" {
		t.Errorf("HTML = %q, want L1 wrapping the page", res.HTML)
	}
	if res.Title != "Home - Acme" {
		t.Errorf("Title = %q", res.Title)
	}
}

func TestNavigateGuards(t *testing.T) {
	ctx := context.Background()

	visitor := setup(t, Config{})
	res, err := visitor.Session("v").Navigate(ctx, "/dashboard")
	if err != nil {
		t.Fatal(err)
	}
	if res.Redirect != "/signin?signin" || res.By != guard.IsUser {
		t.Errorf("visitor: redirect = %q by %q", res.Redirect, res.By)
	}

	member := setup(t, Config{Loader: userLoader(&store.User{ID: "u1", Role: "user"})})
	res, err = member.Session("m").Navigate(ctx, "/dashboard")
	if err != nil {
		t.Fatal(err)
	}
	if res.Redirect != "" || res.HTML != "<l1>dashboard</l1>" {
		t.Errorf("member: %+v", res)
	}

	// Unknown guard names are skipped; the next guard still runs.
	res, _ = member.Session("m").Navigate(ctx, "/billing")
	if res.Redirect != "/plans?subscribe" || res.By != guard.IsSubscribed {
		t.Errorf("billing: redirect = %q by %q", res.Redirect, res.By)
	}

	subscriber := setup(t, Config{Loader: userLoader(&store.User{
		ID:      "u2",
		Role:    "user",
		Company: &store.Company{ID: "c", SubscriptionID: "sub_1"},
	})})
	res, _ = subscriber.Session("s").Navigate(ctx, "/billing")
	if res.Redirect != "" || res.HTML != "<l2>billing</l2>" {
		t.Errorf("subscriber: %+v", res)
	}
}

func TestNavigateParamsAndQuery(t *testing.T) {
	app := setup(t, Config{})
	res, err := app.Session("s").Navigate(context.Background(), "/projects/42?tab=files")
	if err != nil {
		t.Fatal(err)
	}
	if res.HTML != "<l1>project 42 files</l1>" {
		t.Errorf("HTML = %q", res.HTML)
	}
}

func TestNavigateNotFound(t *testing.T) {
	app := setup(t, Config{})
	_, err := app.Session("s").Navigate(context.Background(), "/nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFailedStateFetchContinuesSignedOut(t *testing.T) {
	app := setup(t, Config{Loader: store.LoaderFunc(func(context.Context, string) (store.State, error) {
		return store.State{}, errors.New("connection refused")
	})})
	s := app.Session("s")

	res, err := s.Navigate(context.Background(), "/dashboard")
	if err != nil {
		t.Fatal(err)
	}
	if res.Redirect != "/signin?signin" {
		t.Errorf("Redirect = %q", res.Redirect)
	}
	if st := s.Store.Snapshot(); st.APIAvailable || st.User != nil {
		t.Errorf("state = %+v, want signed out with API unavailable", st)
	}
}

func TestFailedStateFetchIsRetried(t *testing.T) {
	var calls atomic.Int32
	app := setup(t, Config{Loader: store.LoaderFunc(func(context.Context, string) (store.State, error) {
		if calls.Add(1) == 1 {
			return store.State{}, errors.New("connection refused")
		}
		return store.State{User: &store.User{ID: "u1"}, APIAvailable: true}, nil
	})})
	s := app.Session("s")
	ctx := context.Background()

	res, err := s.Navigate(ctx, "/dashboard")
	if err != nil {
		t.Fatal(err)
	}
	if res.Redirect != "/signin?signin" {
		t.Errorf("first navigation: Redirect = %q, want /signin?signin", res.Redirect)
	}

	for i := 0; i < 2; i++ {
		res, err = s.Navigate(ctx, "/dashboard")
		if err != nil {
			t.Fatal(err)
		}
		if res.Redirect != "" || res.HTML != "<l1>dashboard</l1>" {
			t.Errorf("navigation %d after recovery: %+v", i+2, res)
		}
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("loader calls = %d, want 2", n)
	}
}

func TestRefreshSeesBackendSignIn(t *testing.T) {
	var signedIn atomic.Bool
	app := setup(t, Config{Loader: store.LoaderFunc(func(context.Context, string) (store.State, error) {
		if !signedIn.Load() {
			return store.State{APIAvailable: true}, nil
		}
		return store.State{User: &store.User{ID: "u1"}, APIAvailable: true}, nil
	})})
	s := app.Session("s")
	ctx := context.Background()

	res, _ := s.Navigate(ctx, "/dashboard")
	if res.Redirect == "" {
		t.Fatal("visitor should be redirected")
	}

	signedIn.Store(true)
	<-s.Refresh(nil)

	res, err := s.Navigate(ctx, "/dashboard")
	if err != nil {
		t.Fatal(err)
	}
	if res.Redirect != "" {
		t.Errorf("Redirect = %q after refresh, want none", res.Redirect)
	}
}

func TestCustomMiddlewareAndStoreHook(t *testing.T) {
	var merged bool
	app := setup(t, Config{
		Middleware: guard.Table{
			guard.IsUser: func(route.Descriptor, store.State) *guard.Redirect {
				return guard.To("/custom-login")
			},
		},
		BeforeStoreUpdate: func(prev store.State, p store.Patch) store.State {
			merged = true
			return store.Merge(prev, p)
		},
		Loader: userLoader(&store.User{ID: "u"}),
	})

	res, err := app.Session("s").Navigate(context.Background(), "/dashboard")
	if err != nil {
		t.Fatal(err)
	}
	if res.Redirect != "/custom-login" {
		t.Errorf("Redirect = %q, want the overriding guard's target", res.Redirect)
	}
	if !merged {
		t.Error("BeforeStoreUpdate was not used for the initial state")
	}
}

func TestSetupErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Setup(ctx, Config{Logger: quiet}, layout("l1"))
	if !nerrors.HasCode(err, nerrors.CodeNoModules) {
		t.Errorf("no modules: err = %v", err)
	}

	_, err = Setup(ctx, Config{Modules: testModules(), Logger: quiet})
	if !nerrors.HasCode(err, nerrors.CodeNoLayouts) {
		t.Errorf("no layouts: err = %v", err)
	}

	_, err = Setup(ctx, Config{Modules: testModules(), Logger: quiet}, layout("l1"))
	if !nerrors.HasCode(err, nerrors.CodeUnknownLayout) {
		t.Errorf("missing layout 2: err = %v", err)
	}

	boom := errors.New("boom")
	_, err = Setup(ctx, Config{
		Modules:   testModules(),
		Logger:    quiet,
		BeforeApp: func(context.Context, *App) error { return boom },
	}, layout("l1"), layout("l2"))
	if !errors.Is(err, boom) {
		t.Errorf("BeforeApp error: err = %v", err)
	}
}

func TestBeforeAppSeesAssembledRouter(t *testing.T) {
	var routes int
	setup(t, Config{BeforeApp: func(_ context.Context, a *App) error {
		routes = len(a.Tree().Pages())
		return nil
	}})
	if routes != 4 {
		t.Errorf("BeforeApp saw %d routes, want 4", routes)
	}
}

func TestRebuild(t *testing.T) {
	app := setup(t, Config{})
	ctx := context.Background()

	extra := append(testModules(), route.Module{Name: "app/pages/about", Pages: []route.Page{{
		Name:      "About",
		Component: text("about"),
		Route:     []route.Annotation{{Paths: []route.Path{route.At("/about")}}},
	}}})
	if err := app.Rebuild(extra); err != nil {
		t.Fatal(err)
	}
	res, err := app.Session("s").Navigate(ctx, "/about")
	if err != nil || res.HTML != "<l1>about</l1>" {
		t.Errorf("after rebuild: %+v, %v", res, err)
	}

	if err := app.Rebuild(nil); err == nil {
		t.Fatal("Rebuild(nil) should fail")
	}
	if _, err := app.Session("s").Navigate(ctx, "/about"); err != nil {
		t.Errorf("failed rebuild replaced the router: %v", err)
	}
}

func TestSessionsAreReused(t *testing.T) {
	app := setup(t, Config{MaxSessions: 1})
	a := app.Session("a")
	if app.Session("a") != a {
		t.Error("Session(a) returned a different session")
	}
	app.Session("b")
	if app.Session("a") == a {
		t.Error("a should have been evicted")
	}
}

func TestStaticModeHref(t *testing.T) {
	app := setup(t, Config{IsStatic: true})
	if got := app.Tree().Href("/dashboard"); got != "/#/dashboard" {
		t.Errorf("Href = %q", got)
	}
	if app.Tree().Mode != router.HashMode {
		t.Errorf("Mode = %v, want hash", app.Tree().Mode)
	}
}
