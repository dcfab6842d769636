package match

import "strings"

type equals[E comparable] struct {
	template E
}

// Equals returns a matcher that accepts exactly the given event. Two equality
// matchers are ordered by the natural order of their templates.
func Equals[E comparable](template E) Matcher[E] {
	return equals[E]{template: template}
}

func (m equals[E]) Match(event E) bool {
	return m.template == event
}

func (equals[E]) Kind() Kind { return KindEquals }

func (m equals[E]) String() string {
	return textOf(m.template)
}

// Template returns the event this matcher accepts.
func (m equals[E]) Template() E {
	return m.template
}

func (m equals[E]) Compare(other Matcher[E]) int {
	if other == nil {
		return -1
	}

	if other.Kind() != KindEquals {
		return compareKinds[E](m, other)
	}

	if o, ok := other.(equals[E]); ok {
		return NaturalOrder(m.template, o.template)
	}

	return strings.Compare(m.String(), other.String())
}
