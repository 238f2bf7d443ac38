package middleware

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nitro-dev/nitro/pkg/router"
	"github.com/nitro-dev/nitro/pkg/store"
)

func TestOpenTelemetryPassesOutcome(t *testing.T) {
	var gotCtx context.Context
	next := func(ctx context.Context, _ router.Navigation) (router.Outcome, error) {
		gotCtx = ctx
		return router.Outcome{Redirect: "/signin?signin", By: "isUser"}, nil
	}

	st := store.New(store.State{User: &store.User{ID: "u1"}})
	st.MarkReady()
	n := nav("/dashboard")
	n.State = st

	mw := OpenTelemetry(
		WithTracerProvider(noop.NewTracerProvider()),
		WithIncludeUserID(true),
		WithAttributeExtractor(func(router.Navigation) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)
	out, err := mw(next)(context.Background(), n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Redirect != "/signin?signin" || out.By != "isUser" {
		t.Errorf("outcome = %+v", out)
	}
	if gotCtx == nil {
		t.Fatal("next was not called")
	}
	if trace.SpanFromContext(gotCtx) == nil {
		t.Error("expected a span in the loader context")
	}
}

func TestOpenTelemetryPropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	mw := OpenTelemetry(WithTracerProvider(noop.NewTracerProvider()))

	_, err := mw(loaderReturning(router.Outcome{}, wantErr))(context.Background(), nav("/"))
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

type parentKey struct{}

func TestOpenTelemetryFilterSkipsTracing(t *testing.T) {
	parent := context.WithValue(context.Background(), parentKey{}, "parent")
	var gotCtx context.Context
	next := func(ctx context.Context, _ router.Navigation) (router.Outcome, error) {
		gotCtx = ctx
		return router.Outcome{}, nil
	}

	mw := OpenTelemetry(WithNavigationFilter(func(n router.Navigation) bool {
		return n.Path != "/healthz"
	}))
	mw(next)(parent, nav("/healthz"))

	if gotCtx != parent {
		t.Error("filtered navigation should reach the loader with the original context")
	}
}

func TestGuardNames(t *testing.T) {
	if got := guardNames([]string{"true"}); got != "" {
		t.Errorf("guardNames(public) = %q", got)
	}
	if got := guardNames([]string{"isUser", "isAdmin"}); got != "isUser,isAdmin" {
		t.Errorf("guardNames = %q", got)
	}
}
