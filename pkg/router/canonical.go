package router

import (
	"errors"
	"strings"
)

// Path canonicalization errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Canonicalize normalizes a request path before matching: it collapses
// repeated slashes, drops "." segments, resolves ".." and removes the
// trailing slash. Any query string is split off and returned unchanged.
//
// Backslashes, NUL bytes, malformed percent escapes and ".." above the root
// are rejected.
func Canonicalize(input string) (path, query string, err error) {
	path, query, _ = strings.Cut(input, "?")
	if path == "" {
		return "/", query, nil
	}

	if strings.Contains(path, "\\") {
		return "", "", ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return "", "", ErrNullByteInPath
	}
	if strings.Contains(path, "%") && !validEscapes(path) {
		return "", "", ErrInvalidPercentEscape
	}

	var out []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return "", "", ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/"), query, nil
}

// LocalPath validates a navigation target supplied by a client and
// returns it canonicalized. Only site-relative paths are accepted, which
// keeps navigations and redirects on the current origin.
func LocalPath(target string) (string, error) {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "", ErrInvalidPath
	}
	path, query, err := Canonicalize(target)
	if err != nil {
		return "", err
	}
	if query != "" {
		return path + "?" + query, nil
	}
	return path, nil
}

func validEscapes(path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHex(path[i+1]) || !isHex(path[i+2]) {
			return false
		}
		i += 2
	}
	return true
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
