package route

import (
	"context"
	"html/template"
	"net/url"
	"slices"

	"github.com/nitro-dev/nitro/pkg/store"
)

// PublicSentinel is the guard entry meaning "this path has no middleware".
const PublicSentinel = "true"

// Public is the guard list of an unguarded path.
var Public = []string{PublicSentinel}

// Props is what a page component receives when it renders.
type Props struct {
	// Path is the canonical request path.
	Path string

	// Params are the values of ":name" and "*name" segments.
	Params map[string]string

	// Query is the parsed query string.
	Query url.Values

	// State is the AppState snapshot taken for this render.
	State store.State

	// Route is the descriptor that matched.
	Route Descriptor

	// Href builds a link for the active routing mode.
	Href func(path string) string
}

// Component renders a page.
type Component func(ctx context.Context, p Props) (template.HTML, error)

// Path is one path pattern of an annotation and the guards protecting it.
type Path struct {
	Pattern string
	Guards  []string
}

// At declares a path pattern guarded by the named guards.
// With no guards the path is public.
func At(pattern string, guards ...string) Path {
	if len(guards) == 0 {
		return Path{Pattern: pattern, Guards: Public}
	}
	return Path{Pattern: pattern, Guards: slices.Clone(guards)}
}

// MetaSpec is the metadata declared on an annotation.
type MetaSpec struct {
	// Title is the page title, combined with the application name.
	Title string

	// Layout is the 1-based layout index. Zero selects the first layout.
	Layout int
}

// Annotation is the route metadata attached to a page.
type Annotation struct {
	Paths    []Path
	Meta     MetaSpec
	Redirect string
}

// Page is a renderable unit annotated with route metadata.
type Page struct {
	// Name identifies the page inside its module. Pages are discovered in
	// name order.
	Name string

	// Component renders the page. Pages without a component are skipped.
	Component Component

	// Route lists the page's annotations. When empty, the module-level
	// annotations apply.
	Route []Annotation
}

// Module is a source unit that registers pages.
type Module struct {
	// Name is the source identifier (e.g. "app/pages/auth"). Modules are
	// discovered in name order.
	Name string

	Pages []Page

	// Route is the module-level fallback annotation.
	Route []Annotation
}

// Meta is the normalized metadata of a Descriptor.
type Meta struct {
	Title string

	// Layout is the 0-based layout index.
	Layout int
}

// Descriptor is one extracted route: a single path of a single page.
type Descriptor struct {
	// Path is the URL pattern ("/users/:id", "/*").
	Path string

	// Method is the HTTP method restriction, empty for any.
	Method string

	// Pattern is the annotation key as declared.
	Pattern string

	// Guards are the guard names in declaration order.
	Guards []string

	Meta Meta

	// Redirect, when set, sends the navigation elsewhere without rendering.
	Redirect string

	Module    string
	Page      string
	Component Component
}

// ID returns a stable identifier of the descriptor.
func (d Descriptor) ID() string {
	id := d.Module + "." + d.Page + " "
	if d.Method != "" {
		id += d.Method + " "
	}
	return id + d.Path
}
