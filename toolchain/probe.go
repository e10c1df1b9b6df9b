package toolchain

import (
	"fmt"
	"strings"
)

// ProbeMiss records that no strategy could read a capability. It is a
// value, not a failure: callers treat the capability as absent.
type ProbeMiss struct {
	Accessor string
	Shape    string
	Tried    []string
	// Panic holds the last recovered panic, if a strategy panicked
	Panic any
}

func (m *ProbeMiss) Error() string {
	msg := fmt.Sprintf("%s: no strategy matched (shape %s, tried %s)", m.Accessor, m.Shape, strings.Join(m.Tried, ", "))
	if m.Panic != nil {
		msg += fmt.Sprintf(", recovered: %v", m.Panic)
	}
	return msg
}

// Probe is the result of a capability read: either a value or a miss
type Probe[T any] struct {
	value T
	miss  *ProbeMiss
}

// Hit wraps a successfully probed value
func Hit[T any](v T) Probe[T] {
	return Probe[T]{value: v}
}

// Miss wraps a failed probe
func Miss[T any](m *ProbeMiss) Probe[T] {
	return Probe[T]{miss: m}
}

// Ok reports whether a strategy produced a value
func (p Probe[T]) Ok() bool {
	return p.miss == nil
}

// Get returns the value and whether it was found
func (p Probe[T]) Get() (T, bool) {
	return p.value, p.miss == nil
}

// Or returns the value, or fallback on a miss
func (p Probe[T]) Or(fallback T) T {
	if p.miss != nil {
		return fallback
	}
	return p.value
}

// Miss returns the miss details, nil on a hit
func (p Probe[T]) Miss() *ProbeMiss {
	return p.miss
}

// strategy is one way of reading a capability from an object
type strategy[T any] struct {
	name string
	read func(Object) (T, bool)
}

// run tries each strategy in order. A panicking strategy counts as a miss.
func run[T any](accessor, shape string, obj Object, chain []strategy[T]) Probe[T] {
	miss := &ProbeMiss{Accessor: accessor, Shape: shape}
	for _, s := range chain {
		v, ok, recovered := attempt(s, obj)
		if recovered != nil {
			miss.Panic = recovered
		}
		if ok {
			return Hit(v)
		}
		miss.Tried = append(miss.Tried, s.name)
	}
	return Miss[T](miss)
}

func attempt[T any](s strategy[T], obj Object) (v T, ok bool, recovered any) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, ok, recovered = zero, false, r
		}
	}()
	v, ok = s.read(obj)
	return v, ok, nil
}
