package route

import (
	"regexp"
	"strings"
)

var pathPattern = regexp.MustCompile(`^(?:\*|/\S*|(?i:get|post|put|patch|delete|head|options)\s+/\S*)$`)

// IsPathPattern reports whether key is a path-like annotation key:
// "/path", "<method> /path" or "*".
func IsPathPattern(key string) bool {
	return pathPattern.MatchString(strings.TrimSpace(key))
}

// ParsePattern splits a path pattern into its method and path.
// "*" becomes the catch-all "/*".
func ParsePattern(pattern string) (method, path string, ok bool) {
	pattern = strings.TrimSpace(pattern)
	if !IsPathPattern(pattern) {
		return "", "", false
	}
	if pattern == "*" {
		return "", "/*", true
	}
	if strings.HasPrefix(pattern, "/") {
		return "", pattern, true
	}
	fields := strings.Fields(pattern)
	return strings.ToUpper(fields[0]), fields[1], true
}

// DefaultTitleSeparator joins page and application titles.
const DefaultTitleSeparator = " - "

// Title composes the document title of a page.
func Title(page, app, sep string) string {
	if page == "" {
		return app
	}
	if app == "" {
		return page
	}
	if sep == "" {
		sep = DefaultTitleSeparator
	}
	return page + sep + app
}
