// Package toolchain is a read-only view over the compiler toolchain's
// object graph (targets, compilations, binaries) as declared by the host
// build. The graph's shape drifts between toolchain releases, so every
// accessor goes through a probe chain chosen once per build by Detect.
package toolchain

import (
	"sort"

	"github.com/spf13/cast"
)

// Object is one node of the toolchain object graph, decoded from a project
// descriptor. Values are whatever the decoder produced (TOML and YAML give
// slightly different scalar and map types), so reads go through cast.
type Object map[string]any

// Lookup returns the value stored under key
func (o Object) Lookup(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o[key]
	return v, ok
}

// Match returns the first key, in sorted order, accepted by pred
func (o Object) Match(pred func(key string) bool) (string, any, bool) {
	for _, k := range o.Keys() {
		if pred(k) {
			return k, o[k], true
		}
	}
	return "", nil, false
}

// Keys returns the object's keys sorted
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String reads key as a string, "" when absent or not scalar
func (o Object) String(key string) string {
	v, ok := o.Lookup(key)
	if !ok {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// Strings reads key as a string list
func (o Object) Strings(key string) []string {
	v, ok := o.Lookup(key)
	if !ok {
		return nil
	}
	s, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil
	}
	return s
}

// AsObject converts a decoded map value into an Object
func AsObject(v any) (Object, bool) {
	switch m := v.(type) {
	case Object:
		return m, true
	case map[string]any:
		return Object(m), true
	case nil:
		return nil, false
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, false
	}
	return Object(m), true
}

// AsObjects converts a decoded collection into Objects. Lists keep their
// order; maps keyed by name become objects carrying that name, in key order.
// Entries that are not objects are dropped.
func AsObjects(v any) ([]Object, bool) {
	if v == nil {
		return nil, false
	}
	if list, ok := v.([]any); ok {
		out := make([]Object, 0, len(list))
		for _, item := range list {
			if obj, ok := AsObject(item); ok {
				out = append(out, obj)
			}
		}
		return out, true
	}
	if list, ok := v.([]map[string]any); ok {
		out := make([]Object, 0, len(list))
		for _, item := range list {
			out = append(out, Object(item))
		}
		return out, true
	}
	if list, ok := v.([]Object); ok {
		return list, true
	}

	byName, ok := AsObject(v)
	if !ok {
		return nil, false
	}
	out := make([]Object, 0, len(byName))
	for _, name := range byName.Keys() {
		obj, ok := AsObject(byName[name])
		if !ok {
			continue
		}
		if _, has := obj["name"]; !has {
			named := make(Object, len(obj)+1)
			for k, val := range obj {
				named[k] = val
			}
			named["name"] = name
			obj = named
		}
		out = append(out, obj)
	}
	return out, true
}
