// Package router assembles a route registry into the tree a session
// navigates.
//
// Each layout group of the registry becomes one LayoutNode holding the
// layout renderer, a scroll manager and the group's pages. Every page gets
// a loader that enforces the page's guards before it renders:
//
//	reg, _ := route.Build(modules)
//	tree, err := router.Assemble(reg, []router.Layout{shell}, router.Options{
//	    Resolver: guard.NewResolver(nil),
//	    Site:     router.Site{Name: "Acme"},
//	})
//	m, ok := tree.Match("GET", "/projects/42")
//
// Matching uses a radix tree: static segments win over ":param" segments,
// which win over catch-alls. Assemble fails when a group references a
// layout that was not supplied.
package router
