package middleware

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nitro-dev/nitro/pkg/route"
	"github.com/nitro-dev/nitro/pkg/router"
)

const defaultTracerName = "nitro"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "nitro").
	TracerName string

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// IncludeUserID records the signed-in user's ID once the loader ran.
	// Disabled by default.
	IncludeUserID bool

	// Filter decides which navigations are traced. Nil traces all.
	Filter func(nav router.Navigation) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(nav router.Navigation) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeUserID enables including the user ID in spans.
func WithIncludeUserID(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeUserID = include
	}
}

// WithNavigationFilter sets a filter for traced navigations.
func WithNavigationFilter(filter func(nav router.Navigation) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(nav router.Navigation) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OpenTelemetry returns loader middleware that wraps every navigation in a
// span. The span travels in the context handed to the rest of the chain,
// so the wait on app state and every guard run inside it.
//
// The tracer comes from the global provider unless WithTracerProvider is
// given; configure it in main() before serving.
func OpenTelemetry(opts ...OTelOption) router.LoaderMiddleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.TracerProvider != nil {
		tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}

	return func(next router.Loader) router.Loader {
		return func(ctx context.Context, nav router.Navigation) (router.Outcome, error) {
			if config.Filter != nil && !config.Filter(nav) {
				return next(ctx, nav)
			}

			attrs := []attribute.KeyValue{
				attribute.String("nitro.route", nav.Route.Path),
				attribute.String("nitro.path", nav.Path),
				attribute.String("nitro.page", nav.Route.Module+"."+nav.Route.Page),
				attribute.Int("nitro.layout", nav.Route.Meta.Layout+1),
			}
			if guards := guardNames(nav.Route.Guards); guards != "" {
				attrs = append(attrs, attribute.String("nitro.guards", guards))
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(nav)...)
			}

			spanCtx, span := tracer.Start(ctx, "nitro.navigate "+nav.Route.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			out, err := next(spanCtx, nav)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return out, err
			}
			if out.Redirect != "" {
				span.SetAttributes(
					attribute.String("nitro.redirect", out.Redirect),
					attribute.String("nitro.redirect_by", out.By),
				)
			}
			if config.IncludeUserID && nav.State != nil {
				if user := nav.State.Snapshot().User; user != nil {
					span.SetAttributes(attribute.String("nitro.user_id", user.ID))
				}
			}
			span.SetStatus(codes.Ok, "")
			return out, nil
		}
	}
}

func guardNames(guards []string) string {
	var names []string
	for _, g := range guards {
		if g != route.PublicSentinel {
			names = append(names, g)
		}
	}
	return strings.Join(names, ",")
}
