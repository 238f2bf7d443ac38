// Package middleware provides loader middleware for the router: Prometheus
// metrics and OpenTelemetry tracing of navigations.
//
// Both wrap a router.Loader and are installed through router.Options.Wrap
// (or nitro.Config.Metrics / nitro.Config.Tracing):
//
//	m := middleware.NewMetrics(middleware.WithNamespace("acme"))
//	tree, _ := router.Assemble(reg, layouts, router.Options{
//	    Wrap: []router.LoaderMiddleware{
//	        middleware.OpenTelemetry(),
//	        m.Loader(),
//	    },
//	})
package middleware
