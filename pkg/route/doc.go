// Package route builds the route registry of a Nitro application.
//
// Pages register themselves explicitly: each Module lists its Pages, and each
// Page carries zero or more Annotations. An Annotation maps path patterns to
// the names of the guards that must pass before the page renders:
//
//	var Dashboard = route.Page{
//	    Name:      "Dashboard",
//	    Component: dashboard,
//	    Route: []route.Annotation{{
//	        Paths: []route.Path{
//	            route.At("/dashboard", "isUser"),
//	            route.At("/dashboard/billing", "isUser", "isSubscribed"),
//	        },
//	        Meta: route.MetaSpec{Title: "Dashboard", Layout: 1},
//	    }},
//	}
//
// Path patterns are "/path", "<method> /path" (e.g. "get /reports") or "*".
// Layout indexes are 1-based in annotations and 0-based in the built
// Descriptors.
//
// Build turns a set of modules into LayoutGroups. It is pure: every call
// allocates a fresh Registry, so hot reload simply calls Build again.
package route
