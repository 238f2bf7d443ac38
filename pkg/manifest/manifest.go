// Package manifest declares routes in a YAML file instead of Go code.
//
// A manifest names the application, lists its layout templates and groups
// page templates into modules. Each page carries a route annotation in the
// same loose shape Go modules use:
//
//	name: Acme
//	layouts:
//	  - layouts/app.html
//	  - layouts/admin.html
//	modules:
//	  - name: app/pages/dashboard
//	    pages:
//	      - name: Dashboard
//	        template: pages/dashboard.html
//	        route:
//	          /dashboard: [isUser]
//	          meta: {title: Dashboard}
//	      - name: Users
//	        template: pages/users.html
//	        route:
//	          /admin/users: [isUser, isAdmin]
//	          meta: {title: Users, layout: 2}
//
// Page templates execute with route.Props, layout templates with
// router.LayoutProps; a layout places the page with {{.Outlet}}.
package manifest

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/nitro-dev/nitro/internal/errors"
	"github.com/nitro-dev/nitro/pkg/route"
	"github.com/nitro-dev/nitro/pkg/router"
)

// DefaultFile is the manifest file name looked up in a project.
const DefaultFile = "routes.yaml"

// File is the decoded YAML document.
type File struct {
	Name    string       `yaml:"name"`
	Layouts []string     `yaml:"layouts"`
	Modules []ModuleSpec `yaml:"modules"`
}

// ModuleSpec declares a module.
type ModuleSpec struct {
	Name  string     `yaml:"name"`
	Pages []PageSpec `yaml:"pages"`

	// Route is the module-level fallback annotation.
	Route any `yaml:"route"`
}

// PageSpec declares a page.
type PageSpec struct {
	Name     string `yaml:"name"`
	Template string `yaml:"template"`
	Route    any    `yaml:"route"`
}

// Manifest is a loaded manifest, ready for nitro.Setup.
type Manifest struct {
	Name    string
	Modules []route.Module
	Layouts []router.Layout
}

// Parse decodes a manifest document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.New(errors.CodeManifestInvalid).Wrap(err)
	}
	return &f, nil
}

// Load reads the manifest at name in fsys and compiles its templates.
// Template paths are relative to the manifest's directory.
func Load(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.New(errors.CodeManifestInvalid).
			WithSubject(name).
			Wrap(err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.FromError(err, errors.CodeManifestInvalid).WithSubject(name)
	}
	return f.Compile(fsys, path.Dir(name))
}

// Compile turns the decoded document into modules and layouts. dir is the
// directory template paths are resolved against.
func (f *File) Compile(fsys fs.FS, dir string) (*Manifest, error) {
	m := &Manifest{Name: f.Name}

	for _, file := range f.Layouts {
		tmpl, err := parse(fsys, dir, file)
		if err != nil {
			return nil, err
		}
		m.Layouts = append(m.Layouts, layout(tmpl))
	}

	for _, ms := range f.Modules {
		mod := route.Module{Name: ms.Name}
		annotations, err := route.DecodeAnnotations(ms.Route)
		if err != nil {
			return nil, invalid(ms.Name, err)
		}
		mod.Route = annotations

		for _, ps := range ms.Pages {
			page := route.Page{Name: ps.Name}
			if page.Route, err = route.DecodeAnnotations(ps.Route); err != nil {
				return nil, invalid(ms.Name+"."+ps.Name, err)
			}
			if ps.Template != "" {
				tmpl, err := parse(fsys, dir, ps.Template)
				if err != nil {
					return nil, err
				}
				page.Component = component(tmpl)
			}
			mod.Pages = append(mod.Pages, page)
		}
		m.Modules = append(m.Modules, mod)
	}
	return m, nil
}

func invalid(subject string, err error) error {
	return errors.New(errors.CodeManifestInvalid).WithSubject(subject).Wrap(err)
}

func parse(fsys fs.FS, dir, file string) (*template.Template, error) {
	full := path.Join(dir, file)
	tmpl, err := template.ParseFS(fsys, full)
	if err != nil {
		return nil, errors.New(errors.CodeTemplateNotFound).WithSubject(full).Wrap(err)
	}
	return tmpl, nil
}

func component(tmpl *template.Template) route.Component {
	return func(_ context.Context, p route.Props) (template.HTML, error) {
		return execute(tmpl, p)
	}
}

func layout(tmpl *template.Template) router.Layout {
	return func(_ context.Context, p router.LayoutProps) (template.HTML, error) {
		return execute(tmpl, p)
	}
}

func execute(tmpl *template.Template, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", tmpl.Name(), err)
	}
	// html/template has escaped the output.
	return template.HTML(buf.String()), nil
}
