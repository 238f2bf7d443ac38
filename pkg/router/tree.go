package router

import (
	"net/url"
	"strings"
)

// node is a node in the radix tree.
type node struct {
	// segment is the static path segment this node matches.
	segment string

	// isParam marks a ":name" segment.
	isParam bool

	// isCatchAll marks a "*" or "*name" segment.
	isCatchAll bool

	// paramName is the parameter name without ":" or "*".
	paramName string

	// pages registered at this node, in registration order.
	pages []*PageNode

	children      []*node
	paramChild    *node
	catchAllChild *node
}

func newNode(segment string) *node {
	return &node{segment: segment}
}

func (n *node) findChild(segment string) *node {
	for _, child := range n.children {
		if child.segment == segment {
			return child
		}
	}
	return nil
}

func (n *node) addChild(segment string) *node {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := newNode(segment)
	n.children = append(n.children, child)
	return child
}

func (n *node) addParamChild(name string) *node {
	if n.paramChild == nil {
		n.paramChild = &node{isParam: true, paramName: name}
	}
	return n.paramChild
}

func (n *node) addCatchAllChild(name string) *node {
	if n.catchAllChild == nil {
		if name == "" {
			name = "*"
		}
		n.catchAllChild = &node{isCatchAll: true, paramName: name}
	}
	return n.catchAllChild
}

// insert returns the node for path, creating it as needed.
func (n *node) insert(path string) *node {
	current := n
	for _, seg := range splitPath(path) {
		switch {
		case strings.HasPrefix(seg, "*"):
			// Catch-all consumes the rest of the path.
			return current.addCatchAllChild(seg[1:])
		case strings.HasPrefix(seg, ":"):
			current = current.addParamChild(seg[1:])
		default:
			current = current.addChild(seg)
		}
	}
	return current
}

// page returns the first page at n accepting method.
func (n *node) page(method string) *PageNode {
	for _, p := range n.pages {
		if p.Route.Method == "" || p.Route.Method == method {
			return p
		}
	}
	return nil
}

// match walks segments, trying static children before parameters and
// parameters before catch-alls. params receives the decoded values of
// the segments on the matched branch.
func (n *node) match(method string, segments []string, params map[string]string) *PageNode {
	if len(segments) == 0 {
		if p := n.page(method); p != nil {
			return p
		}
		// "/docs/*" also serves "/docs".
		if n.catchAllChild != nil {
			if p := n.catchAllChild.page(method); p != nil {
				params[n.catchAllChild.paramName] = ""
				return p
			}
		}
		return nil
	}

	segment := segments[0]
	remaining := segments[1:]

	if child := n.findChild(segment); child != nil {
		if p := child.match(method, remaining, params); p != nil {
			return p
		}
	}

	if n.paramChild != nil {
		value, err := url.PathUnescape(segment)
		// An encoded slash never fits a single segment.
		if err == nil && !strings.Contains(value, "/") {
			params[n.paramChild.paramName] = value
			if p := n.paramChild.match(method, remaining, params); p != nil {
				return p
			}
			delete(params, n.paramChild.paramName)
		}
	}

	if n.catchAllChild != nil {
		if p := n.catchAllChild.page(method); p != nil {
			rest := strings.Join(segments, "/")
			if value, err := url.PathUnescape(rest); err == nil {
				rest = value
			}
			params[n.catchAllChild.paramName] = rest
			return p
		}
	}

	return nil
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
