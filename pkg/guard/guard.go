package guard

import (
	"maps"
	"net/url"
	"regexp"

	"github.com/nitro-dev/nitro/pkg/route"
	"github.com/nitro-dev/nitro/pkg/store"
)

// Redirect asks the router to navigate elsewhere instead of rendering.
type Redirect struct {
	To string
}

// To returns a redirect to path.
func To(path string) *Redirect {
	return &Redirect{To: path}
}

// Guard inspects the state for a route and optionally redirects.
// Guards must not have side effects: a superseded navigation may have
// evaluated them for nothing.
type Guard func(d route.Descriptor, s store.State) *Redirect

// Table maps guard names to guards.
type Table map[string]Guard

// Built-in guard names.
const (
	IsUser       = "isUser"
	IsAdmin      = "isAdmin"
	IsSubscribed = "isSubscribed"
)

// Query markers attached to sign-in and plan redirects.
const (
	MarkerSignIn       = "signin"
	MarkerUnauthorized = "unauthorized"
	MarkerSubscribe    = "subscribe"
)

// Paths are the redirect targets of the built-in guards.
type Paths struct {
	SignIn string
	Plans  string
}

// DefaultPaths returns the stock redirect targets.
func DefaultPaths() Paths {
	return Paths{SignIn: "/signin", Plans: "/plans"}
}

var adminRole = regexp.MustCompile(`(?i)admin`)

// Defaults returns the built-in guards.
func Defaults(p Paths) Table {
	if p.SignIn == "" {
		p.SignIn = DefaultPaths().SignIn
	}
	if p.Plans == "" {
		p.Plans = DefaultPaths().Plans
	}

	return Table{
		IsUser: func(_ route.Descriptor, s store.State) *Redirect {
			if s.User == nil {
				return To(withMarker(p.SignIn, MarkerSignIn))
			}
			return nil
		},
		IsAdmin: func(_ route.Descriptor, s store.State) *Redirect {
			role := s.Role()
			switch {
			case adminRole.MatchString(role):
				return nil
			case s.User != nil:
				return To(withMarker(p.SignIn, MarkerUnauthorized))
			default:
				return To(withMarker(p.SignIn, MarkerSignIn))
			}
		},
		IsSubscribed: func(_ route.Descriptor, s store.State) *Redirect {
			if !s.Company().Subscribed() {
				return To(withMarker(p.Plans, MarkerSubscribe))
			}
			return nil
		},
	}
}

// Merge overlays custom on base. Custom entries win on name clashes.
func Merge(base, custom Table) Table {
	out := make(Table, len(base)+len(custom))
	maps.Copy(out, base)
	for name, g := range custom {
		if g != nil {
			out[name] = g
		}
	}
	return out
}

// withMarker appends a bare query marker: "/signin" + "signin" → "/signin?signin".
func withMarker(path, marker string) string {
	u, err := url.Parse(path)
	if err != nil {
		return path + "?" + marker
	}
	if u.RawQuery == "" {
		u.RawQuery = marker
	} else {
		u.RawQuery += "&" + marker
	}
	return u.String()
}
