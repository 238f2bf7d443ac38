package router

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"slices"
	"strings"

	"github.com/nitro-dev/nitro/internal/errors"
	"github.com/nitro-dev/nitro/pkg/guard"
	"github.com/nitro-dev/nitro/pkg/route"
	"github.com/nitro-dev/nitro/pkg/scroll"
)

// Mode selects how links address pages.
type Mode int

const (
	// PathMode uses the URL path ("/projects/42").
	PathMode Mode = iota

	// HashMode keeps the document at "/" and addresses pages in the
	// fragment ("/#/projects/42"), for static hosting.
	HashMode
)

func (m Mode) String() string {
	if m == HashMode {
		return "hash"
	}
	return "path"
}

// Site is the application configuration handed to layouts.
type Site struct {
	Name           string
	TitleSeparator string
	IsStatic       bool
}

// LayoutProps is what a layout receives.
type LayoutProps struct {
	Config Site

	// Title is the composed document title.
	Title string

	// Path is the path being rendered.
	Path string

	// Outlet is the rendered page.
	Outlet template.HTML

	// Href builds a link for the active mode.
	Href func(path string) string
}

// Layout renders the shell around a page.
type Layout func(ctx context.Context, p LayoutProps) (template.HTML, error)

// Navigation is the input of a loader.
type Navigation struct {
	Route route.Descriptor

	// Path is the concrete path being navigated to.
	Path string

	State guard.StateSource
}

// Outcome is the result of a loader. A non-empty Redirect replaces the
// render.
type Outcome struct {
	Redirect string

	// By names the guard that redirected, or "redirect" for a static
	// redirect route.
	By string
}

// Loader decides whether a navigation may render.
type Loader func(ctx context.Context, nav Navigation) (Outcome, error)

// LoaderMiddleware wraps a loader.
type LoaderMiddleware func(next Loader) Loader

// RedirectRoute is the Outcome.By value of a static redirect.
const RedirectRoute = "redirect"

// LayoutNode is one top-level node of the tree: a layout and its pages.
type LayoutNode struct {
	// Index is the 0-based layout index.
	Index  int
	Layout Layout
	Scroll *scroll.Manager
	Pages  []*PageNode
}

// PageNode is a routable page.
type PageNode struct {
	Route route.Descriptor

	// Title is the composed document title.
	Title string

	Layout *LayoutNode
	Load   Loader
}

// Options configure Assemble.
type Options struct {
	// Resolver evaluates guards. Nil means the built-in guards only.
	Resolver *guard.Resolver

	// Scroll is shared by every layout node. Nil selects an in-memory manager.
	Scroll *scroll.Manager

	Mode Mode
	Site Site

	// Wrap decorates every page loader; the first entry is outermost.
	Wrap []LoaderMiddleware

	Logger *slog.Logger
}

// Tree is the assembled router.
type Tree struct {
	Mode    Mode
	Site    Site
	Layouts []*LayoutNode

	root   *node
	logger *slog.Logger
}

// Assemble converts a registry into a tree. Every layout group must have
// a layout in layouts (0-indexed).
func Assemble(reg *route.Registry, layouts []Layout, opts Options) (*Tree, error) {
	if len(layouts) == 0 {
		return nil, errors.New(errors.CodeNoLayouts).
			WithDetail("at least one layout renderer is required to mount the router")
	}
	for _, g := range reg.Groups {
		if g.Index < 0 || g.Index >= len(layouts) || layouts[g.Index] == nil {
			subjects := make([]string, 0, len(g.Routes))
			for _, d := range g.Routes {
				subjects = append(subjects, d.ID())
			}
			return nil, errors.New(errors.CodeUnknownLayout).
				WithSubject(strings.Join(subjects, ", ")).
				WithDetail(fmt.Sprintf("routes use layout %d but %d layout(s) were supplied",
					g.Index+1, len(layouts)))
		}
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Resolver == nil {
		opts.Resolver = guard.NewResolver(nil, guard.WithLogger(opts.Logger))
	}
	if opts.Scroll == nil {
		opts.Scroll = scroll.NewManager(nil, scroll.WithLogger(opts.Logger))
	}
	if opts.Site.TitleSeparator == "" {
		opts.Site.TitleSeparator = route.DefaultTitleSeparator
	}

	t := &Tree{
		Mode:   opts.Mode,
		Site:   opts.Site,
		root:   newNode(""),
		logger: opts.Logger,
	}

	base := guardLoader(opts.Resolver)
	for _, g := range reg.Groups {
		ln := &LayoutNode{
			Index:  g.Index,
			Layout: layouts[g.Index],
			Scroll: opts.Scroll,
			Pages:  make([]*PageNode, 0, len(g.Routes)),
		}
		for _, d := range g.Routes {
			pn := &PageNode{
				Route:  d,
				Title:  route.Title(d.Meta.Title, opts.Site.Name, opts.Site.TitleSeparator),
				Layout: ln,
				Load:   wrap(base, opts.Wrap),
			}
			if t.add(pn) {
				ln.Pages = append(ln.Pages, pn)
			}
		}
		t.Layouts = append(t.Layouts, ln)
	}
	return t, nil
}

// add inserts pn into the matcher. It reports false, keeping the existing
// page, when the path and method are already taken.
func (t *Tree) add(pn *PageNode) bool {
	n := t.root.insert(pn.Route.Path)
	for _, existing := range n.pages {
		if existing.Route.Method == pn.Route.Method {
			t.logger.Warn("duplicate route, keeping the first registration",
				"path", pn.Route.Path,
				"method", pn.Route.Method,
				"kept", existing.Route.ID(),
				"ignored", pn.Route.ID(),
			)
			return false
		}
	}
	n.pages = append(n.pages, pn)
	return true
}

// guardLoader is the loader every page starts from: static redirects
// short-circuit, otherwise the page's guards decide.
func guardLoader(r *guard.Resolver) Loader {
	return func(ctx context.Context, nav Navigation) (Outcome, error) {
		if nav.Route.Redirect != "" {
			return Outcome{Redirect: nav.Route.Redirect, By: RedirectRoute}, nil
		}
		dec, err := r.Resolve(ctx, nav.Route, nav.State)
		if err != nil {
			return Outcome{}, err
		}
		if dec.Redirect != nil {
			return Outcome{Redirect: dec.Redirect.To, By: dec.By}, nil
		}
		return Outcome{}, nil
	}
}

func wrap(l Loader, mw []LoaderMiddleware) Loader {
	for i := len(mw) - 1; i >= 0; i-- {
		l = mw[i](l)
	}
	return l
}

// Match is a matched page.
type Match struct {
	Page   *PageNode
	Params map[string]string

	// Path is the canonical path; Query the raw query string.
	Path  string
	Query string
}

// Match finds the page serving method and path. path may carry a query
// string. Paths that fail canonicalization never match.
func (t *Tree) Match(method, path string) (*Match, bool) {
	clean, query, err := Canonicalize(path)
	if err != nil {
		return nil, false
	}
	params := make(map[string]string)
	p := t.root.match(strings.ToUpper(method), splitPath(clean), params)
	if p == nil {
		return nil, false
	}
	return &Match{Page: p, Params: params, Path: clean, Query: query}, true
}

// Href renders a link to path for the tree's mode.
func (t *Tree) Href(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if t.Mode == HashMode {
		return "/#" + path
	}
	return path
}

// Pages returns every page, layout by layout.
func (t *Tree) Pages() []*PageNode {
	var out []*PageNode
	for _, ln := range t.Layouts {
		out = append(out, ln.Pages...)
	}
	return out
}

// Render renders the page inside its layout.
func (p *PageNode) Render(ctx context.Context, t *Tree, props route.Props) (template.HTML, error) {
	if props.Href == nil {
		props.Href = t.Href
	}
	props.Route = p.Route

	body, err := p.Route.Component(ctx, props)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", p.Route.ID(), err)
	}
	html, err := p.Layout.Layout(ctx, LayoutProps{
		Config: t.Site,
		Title:  p.Title,
		Path:   props.Path,
		Outlet: body,
		Href:   props.Href,
	})
	if err != nil {
		return "", fmt.Errorf("render layout %d: %w", p.Layout.Index+1, err)
	}
	return html, nil
}

// Row is one line of the route table.
type Row struct {
	// Layout is 1-based, as declared.
	Layout   int
	Method   string
	Path     string
	Guards   []string
	Redirect string
	Page     string
	Title    string
}

// Table lists the routes in tree order. The result is stable across
// assemblies of the same registry.
func (t *Tree) Table() []Row {
	var rows []Row
	for _, p := range t.Pages() {
		method := p.Route.Method
		if method == "" {
			method = "*"
		}
		guards := slices.DeleteFunc(slices.Clone(p.Route.Guards), func(g string) bool {
			return g == route.PublicSentinel
		})
		rows = append(rows, Row{
			Layout:   p.Layout.Index + 1,
			Method:   method,
			Path:     p.Route.Path,
			Guards:   guards,
			Redirect: p.Route.Redirect,
			Page:     p.Route.Module + "." + p.Route.Page,
			Title:    p.Title,
		})
	}
	return rows
}
