// Package guard resolves the named middleware of a route into guard functions
// and evaluates them before a navigation commits.
//
// A Guard reads the current AppState and either allows the navigation (nil)
// or asks for a redirect. Guards are looked up by name in a Table made of the
// built-in defaults (isUser, isAdmin, isSubscribed) overlaid with the
// application's own guards:
//
//	r := guard.NewResolver(guard.Table{
//	    "isBeta": func(d route.Descriptor, s store.State) *guard.Redirect {
//	        if s.Extra["beta"] != true {
//	            return guard.To("/waitlist")
//	        }
//	        return nil
//	    },
//	})
//
// Unknown names are logged and skipped: a typo in a route annotation never
// blocks navigation.
package guard
