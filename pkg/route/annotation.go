package route

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
)

// ToArray normalizes an annotation value: nil becomes an empty slice, a
// slice is returned element by element, anything else is wrapped.
func ToArray(v any) []any {
	if v == nil {
		return []any{}
	}
	if a, ok := v.([]any); ok {
		return a
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}

// DecodeAnnotations converts the loose annotation shape found in manifests
// and JSON payloads into Annotations.
//
// The value may be one object or a list of objects. Object keys that are
// path patterns map to true (public) or a list of guard names; "meta" holds
// {title, layout}; "redirect" holds a target path. Other keys are ignored.
// Keys are processed in sorted order.
func DecodeAnnotations(v any) ([]Annotation, error) {
	var out []Annotation
	for i, item := range ToArray(v) {
		obj, ok := asObject(item)
		if !ok {
			return nil, fmt.Errorf("route annotation %d: expected object, got %T", i, item)
		}
		a, err := decodeAnnotation(obj)
		if err != nil {
			return nil, fmt.Errorf("route annotation %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func decodeAnnotation(obj map[string]any) (Annotation, error) {
	var a Annotation

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := obj[key]
		switch {
		case key == "meta":
			meta, err := decodeMeta(val)
			if err != nil {
				return a, err
			}
			a.Meta = meta
		case key == "redirect":
			s, ok := val.(string)
			if !ok {
				return a, fmt.Errorf("redirect: expected string, got %T", val)
			}
			a.Redirect = s
		case IsPathPattern(key):
			guards, keep, err := DecodeGuards(val)
			if err != nil {
				return a, fmt.Errorf("%s: %w", key, err)
			}
			if keep {
				a.Paths = append(a.Paths, Path{Pattern: key, Guards: guards})
			}
		}
	}
	return a, nil
}

// DecodeGuards reads a path value: true (public), false (path disabled), a
// guard name, or a list of guard names. The bool result is false when the
// path should be dropped.
func DecodeGuards(v any) ([]string, bool, error) {
	switch t := v.(type) {
	case nil:
		return slices.Clone(Public), true, nil
	case bool:
		if !t {
			return nil, false, nil
		}
		return slices.Clone(Public), true, nil
	case string:
		return []string{t}, true, nil
	}

	items := ToArray(v)
	guards := make([]string, 0, len(items))
	for _, item := range items {
		switch g := item.(type) {
		case string:
			guards = append(guards, g)
		case bool:
			if g {
				guards = append(guards, PublicSentinel)
			}
		default:
			return nil, false, fmt.Errorf("guard: expected string, got %T", item)
		}
	}
	if len(guards) == 0 {
		guards = slices.Clone(Public)
	}
	return guards, true, nil
}

func decodeMeta(v any) (MetaSpec, error) {
	var m MetaSpec
	if v == nil {
		return m, nil
	}
	obj, ok := asObject(v)
	if !ok {
		return m, fmt.Errorf("meta: expected object, got %T", v)
	}
	if t, ok := obj["title"]; ok && t != nil {
		s, ok := t.(string)
		if !ok {
			return m, fmt.Errorf("meta.title: expected string, got %T", t)
		}
		m.Title = s
	}
	if l, ok := obj["layout"]; ok && l != nil {
		n, ok := asInt(l)
		if !ok {
			return m, fmt.Errorf("meta.layout: expected integer, got %v", l)
		}
		m.Layout = n
	}
	return m, nil
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[strings.TrimSpace(fmt.Sprint(k))] = val
		}
		return out, true
	}
	return nil, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
