package route

import (
	"slices"
	"strings"

	"github.com/nitro-dev/nitro/internal/errors"
)

// LayoutGroup is the set of routes rendered under one layout.
type LayoutGroup struct {
	// Index is the 0-based layout index.
	Index  int
	Routes []Descriptor
}

// Registry is the immutable result of Build.
type Registry struct {
	// Groups are ordered by ascending layout index.
	Groups []LayoutGroup
}

// Descriptors returns all routes, group by group.
func (r *Registry) Descriptors() []Descriptor {
	var out []Descriptor
	for _, g := range r.Groups {
		out = append(out, g.Routes...)
	}
	return out
}

// Len returns the number of routes.
func (r *Registry) Len() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Routes)
	}
	return n
}

// Group returns the group for a layout index.
func (r *Registry) Group(index int) (LayoutGroup, bool) {
	for _, g := range r.Groups {
		if g.Index == index {
			return g, true
		}
	}
	return LayoutGroup{}, false
}

// Build extracts route descriptors from modules and groups them by layout.
//
// Modules are visited in name order and pages in name order within a
// module, so repeated builds over the same input produce identical
// registries. Build never mutates its input.
func Build(modules []Module) (*Registry, error) {
	if len(modules) == 0 {
		return nil, errors.New(errors.CodeNoModules).
			WithDetail("the module list is empty; no page could be discovered").
			WithSuggestion("Pass your page modules in nitro.Config.Modules or list them in the route manifest")
	}

	ordered := slices.Clone(modules)
	slices.SortStableFunc(ordered, func(a, b Module) int {
		return strings.Compare(a.Name, b.Name)
	})

	byLayout := make(map[int][]Descriptor)
	for _, mod := range ordered {
		pages := slices.Clone(mod.Pages)
		slices.SortStableFunc(pages, func(a, b Page) int {
			return strings.Compare(a.Name, b.Name)
		})

		for _, page := range pages {
			if page.Component == nil {
				continue
			}
			annotations := page.Route
			if len(annotations) == 0 {
				annotations = mod.Route
			}
			for _, a := range annotations {
				descs, err := extract(mod.Name, page, a)
				if err != nil {
					return nil, err
				}
				for _, d := range descs {
					byLayout[d.Meta.Layout] = append(byLayout[d.Meta.Layout], d)
				}
			}
		}
	}

	indexes := make([]int, 0, len(byLayout))
	for idx := range byLayout {
		indexes = append(indexes, idx)
	}
	slices.Sort(indexes)

	reg := &Registry{Groups: make([]LayoutGroup, 0, len(indexes))}
	for _, idx := range indexes {
		reg.Groups = append(reg.Groups, LayoutGroup{Index: idx, Routes: byLayout[idx]})
	}
	return reg, nil
}

func extract(module string, page Page, a Annotation) ([]Descriptor, error) {
	layout := a.Meta.Layout
	if layout <= 0 {
		layout = 1
	}

	out := make([]Descriptor, 0, len(a.Paths))
	for _, p := range a.Paths {
		method, path, ok := ParsePattern(p.Pattern)
		if !ok {
			return nil, errors.New(errors.CodeInvalidPattern).
				WithSubject(module + "." + page.Name).
				WithDetail("pattern " + quote(p.Pattern) + " is not \"/path\", \"<method> /path\" or \"*\"")
		}
		guards := slices.Clone(p.Guards)
		if len(guards) == 0 {
			guards = slices.Clone(Public)
		}
		out = append(out, Descriptor{
			Path:      path,
			Method:    method,
			Pattern:   p.Pattern,
			Guards:    guards,
			Meta:      Meta{Title: a.Meta.Title, Layout: layout - 1},
			Redirect:  a.Redirect,
			Module:    module,
			Page:      page.Name,
			Component: page.Component,
		})
	}
	return out, nil
}

func quote(s string) string {
	return "\"" + s + "\""
}
