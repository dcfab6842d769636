// Package match provides the event matchers that guard flow transitions.
//
// Matchers are ordered by specificity: when several transitions leave the same
// state, the most specific matcher is evaluated first. Exact matchers sort before
// patterns, and patterns sort before the catch-all matcher.
package match

import (
	"cmp"
	"fmt"
	"reflect"
)

// Kind identifies the matcher variant. Kinds are declared from most to least specific.
type Kind int

const (
	// KindEquals matches one exact template event.
	KindEquals Kind = iota
	// KindPattern matches the textual form of an event against a wildcard pattern.
	KindPattern
	// KindAlways matches every event.
	KindAlways
)

func (k Kind) String() string {
	switch k {
	case KindEquals:
		return "equals"
	case KindPattern:
		return "pattern"
	case KindAlways:
		return "always"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Wildcard is the descriptor of a matcher that accepts any event.
const Wildcard = "*"

// Matcher is a predicate over events with a total specificity order.
type Matcher[E comparable] interface {
	// Match reports whether the event satisfies this matcher.
	Match(event E) bool

	// Compare returns a negative number when this matcher is more specific than
	// the other one (and so must be tried first), zero when they are equivalent,
	// and a positive number otherwise.
	Compare(other Matcher[E]) int

	// Kind returns the matcher variant.
	Kind() Kind

	// String returns the trigger descriptor of the matcher.
	String() string
}

// Equal reports whether two matchers are interchangeable. Exact matchers are
// equal when their templates are, patterns when their texts are. Matchers of
// other implementations fall back to kind and descriptor.
func Equal[E comparable](a, b Matcher[E]) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch x := a.(type) {
	case equals[E]:
		y, ok := b.(equals[E])

		return ok && x.template == y.template
	case pattern[E]:
		y, ok := b.(pattern[E])

		return ok && x.text == y.text
	case always[E]:
		_, ok := b.(always[E])

		return ok
	}

	return a.Kind() == b.Kind() && a.String() == b.String()
}

// Value returns the matcher a literal trigger value stands for. Text values
// (any type whose underlying kind is string) become patterns so that wildcards
// can be authored inline; every other value becomes an exact match.
func Value[E comparable](value E) Matcher[E] {
	if isText(value) {
		return Pattern[E](textOf(value))
	}

	return Equals(value)
}

// compareKinds orders matchers of different variants.
func compareKinds[E comparable](a, b Matcher[E]) int {
	return cmp.Compare(a.Kind(), b.Kind())
}

func isText[E comparable](value E) bool {
	rv := reflect.ValueOf(value)

	return rv.IsValid() && rv.Kind() == reflect.String
}

// textOf renders an event as text for pattern matching and descriptors.
func textOf[E comparable](value E) string {
	switch v := any(value).(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	if rv.IsValid() && rv.Kind() == reflect.String {
		return rv.String()
	}

	return fmt.Sprint(value)
}
