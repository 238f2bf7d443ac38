// Package errors provides structured, actionable error messages for Nitro.
//
// Fatal bootstrap problems (no page modules, missing layouts, a route that points
// at a layout nobody registered) are reported as coded errors so the developer
// sees what broke and how to fix it before the first request is served.
//
// # Error Codes
//
// Each error has a unique code (e.g., "N003") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Usage
//
//	err := errors.New("N003").
//	    WithDetail("route /admin references layout 3 but only 2 layouts were supplied").
//	    WithSuggestion("Pass a third layout to nitro.Setup or change meta.layout")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR N003: Route references an unregistered layout
//	//
//	//   route /admin references layout 3 but only 2 layouts were supplied
//	//
//	//   Hint: Pass a third layout to nitro.Setup or change meta.layout
//	//
//	//   Learn more: https://nitro.dev/docs/errors/N003
package errors
