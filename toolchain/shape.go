package toolchain

import (
	"strings"

	"github.com/spf13/cast"
)

// Shape is one generation of the toolchain object graph. It decides which
// keys each capability is read from, newest layout first.
type Shape interface {
	Name() string
	// MinVersion is the first toolchain release using this layout
	MinVersion() string
	// Fits reports whether a sample JS target object looks like this layout
	Fits(obj Object) bool

	compilations() []strategy[[]Object]
	binaries() []strategy[[]Object]
	generateTS() []strategy[bool]
	mode() []strategy[string]
}

// Key layouts across generations
const (
	keyCompilations = "compilations"
	keyBinaries     = "binaries"
	keyGenerateTS   = "generate_ts"
	keyMode         = "mode"

	legacyCompilations = "_compilations"
	legacyBinaries     = "_binaries"
	legacyGenerateTS   = "_generateTs"
	legacyMode         = "_mode"
)

// irShape is the current layout: plain keys on every object
type irShape struct{}

func (irShape) Name() string       { return "ir" }
func (irShape) MinVersion() string { return "1.9.20" }
func (irShape) Fits(obj Object) bool {
	_, ok := obj.Lookup(keyBinaries)
	return ok
}
func (irShape) compilations() []strategy[[]Object] {
	return []strategy[[]Object]{directObjects(keyCompilations), matchObjects("compilations", ""), directObjects(legacyCompilations)}
}
func (irShape) binaries() []strategy[[]Object] {
	return []strategy[[]Object]{directObjects(keyBinaries), matchObjects("binaries", "getBinaries"), directObjects(legacyBinaries)}
}
func (irShape) generateTS() []strategy[bool] {
	return []strategy[bool]{directBool(keyGenerateTS), matchBool("generatets"), directBool(legacyGenerateTS)}
}
func (irShape) mode() []strategy[string] {
	return []strategy[string]{directMode(keyMode), matchMode("mode"), directMode(legacyMode)}
}

// compilationShape exposes binaries through accessor-named keys
// ("getBinaries") rather than plain ones
type compilationShape struct{}

func (compilationShape) Name() string       { return "compilation" }
func (compilationShape) MinVersion() string { return "1.8.0" }
func (compilationShape) Fits(obj Object) bool {
	_, _, ok := obj.Match(func(k string) bool { return strings.HasPrefix(k, "getBinaries") })
	return ok
}
func (compilationShape) compilations() []strategy[[]Object] {
	return []strategy[[]Object]{matchObjects("compilations", "getCompilations"), directObjects(legacyCompilations)}
}
func (compilationShape) binaries() []strategy[[]Object] {
	return []strategy[[]Object]{matchObjects("binaries", "getBinaries"), directObjects(legacyBinaries)}
}
func (compilationShape) generateTS() []strategy[bool] {
	return []strategy[bool]{matchBool("generatets"), directBool(legacyGenerateTS)}
}
func (compilationShape) mode() []strategy[string] {
	return []strategy[string]{matchMode("mode"), directMode(legacyMode)}
}

// legacyShape keeps everything in underscore-prefixed backing fields
type legacyShape struct{}

func (legacyShape) Name() string       { return "legacy" }
func (legacyShape) MinVersion() string { return "1.6.20" }
func (legacyShape) Fits(obj Object) bool {
	_, ok := obj.Lookup(legacyBinaries)
	return ok
}
func (legacyShape) compilations() []strategy[[]Object] {
	return []strategy[[]Object]{directObjects(legacyCompilations), matchObjects("compilations", "")}
}
func (legacyShape) binaries() []strategy[[]Object] {
	return []strategy[[]Object]{directObjects(legacyBinaries), matchObjects("binaries", "getBinaries")}
}
func (legacyShape) generateTS() []strategy[bool] {
	return []strategy[bool]{directBool(legacyGenerateTS), matchBool("generatets")}
}
func (legacyShape) mode() []strategy[string] {
	return []strategy[string]{directMode(legacyMode), matchMode("mode")}
}

// shapes lists every known layout, newest first
var shapes = []Shape{irShape{}, compilationShape{}, legacyShape{}}

func directObjects(key string) strategy[[]Object] {
	return strategy[[]Object]{
		name: "key:" + key,
		read: func(o Object) ([]Object, bool) {
			v, ok := o.Lookup(key)
			if !ok {
				return nil, false
			}
			return AsObjects(v)
		},
	}
}

// matchObjects finds a key starting with prefix, else one containing
// fragment (case-insensitive)
func matchObjects(fragment, prefix string) strategy[[]Object] {
	return strategy[[]Object]{
		name: "match:" + fragment,
		read: func(o Object) ([]Object, bool) {
			if prefix != "" {
				if _, v, ok := o.Match(func(k string) bool { return strings.HasPrefix(k, prefix) }); ok {
					return AsObjects(v)
				}
			}
			_, v, ok := o.Match(func(k string) bool {
				return strings.Contains(strings.ToLower(k), fragment)
			})
			if !ok {
				return nil, false
			}
			return AsObjects(v)
		},
	}
}

func directBool(key string) strategy[bool] {
	return strategy[bool]{
		name: "key:" + key,
		read: func(o Object) (bool, bool) {
			v, ok := o.Lookup(key)
			if !ok || v == nil {
				return false, false
			}
			b, err := cast.ToBoolE(v)
			return b, err == nil
		},
	}
}

func matchBool(fragment string) strategy[bool] {
	return strategy[bool]{
		name: "match:" + fragment,
		read: func(o Object) (bool, bool) {
			_, v, ok := o.Match(func(k string) bool {
				return strings.Contains(strings.ToLower(strings.ReplaceAll(k, "_", "")), fragment)
			})
			if !ok || v == nil {
				return false, false
			}
			b, err := cast.ToBoolE(v)
			return b, err == nil
		},
	}
}

func directMode(key string) strategy[string] {
	return strategy[string]{
		name: "key:" + key,
		read: func(o Object) (string, bool) {
			v, ok := o.Lookup(key)
			if !ok {
				return "", false
			}
			return normalizeMode(v)
		},
	}
}

func matchMode(fragment string) strategy[string] {
	return strategy[string]{
		name: "match:" + fragment,
		read: func(o Object) (string, bool) {
			_, v, ok := o.Match(func(k string) bool {
				return strings.Contains(strings.ToLower(k), fragment)
			})
			if !ok {
				return "", false
			}
			return normalizeMode(v)
		},
	}
}

func normalizeMode(v any) (string, bool) {
	s, err := cast.ToStringE(v)
	if err != nil || s == "" {
		return "", false
	}
	return strings.ToLower(s), true
}
