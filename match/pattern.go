package match

import (
	"cmp"
	"strings"
)

type pattern[E comparable] struct {
	text     string
	stars    int
	singles  int
	wildcard bool
}

// Pattern returns a matcher over the textual form of events. A '*' matches any
// run of characters (including none) and a '?' matches exactly one character;
// the pattern must cover the whole event. A blank pattern is treated as "*".
func Pattern[E comparable](text string) Matcher[E] {
	if strings.TrimSpace(text) == "" {
		text = Wildcard
	}

	return pattern[E]{
		text:     text,
		stars:    strings.Count(text, "*"),
		singles:  strings.Count(text, "?"),
		wildcard: text == Wildcard,
	}
}

func (p pattern[E]) Match(event E) bool {
	if p.wildcard {
		return true
	}

	return glob(p.text, textOf(event))
}

func (pattern[E]) Kind() Kind { return KindPattern }

func (p pattern[E]) String() string { return p.text }

// Compare orders patterns by generality. "*" is the most general pattern; the
// rest go fewer stars first, then fewer single-character wildcards, then lexically.
func (p pattern[E]) Compare(other Matcher[E]) int {
	if other == nil {
		return -1
	}

	if other.Kind() != KindPattern {
		return compareKinds[E](p, other)
	}

	text := other.String()
	if otherWildcard := text == Wildcard; p.wildcard != otherWildcard {
		if p.wildcard {
			return 1
		}

		return -1
	}

	return cmp.Or(
		cmp.Compare(p.stars, strings.Count(text, "*")),
		cmp.Compare(p.singles, strings.Count(text, "?")),
		strings.Compare(p.text, text),
	)
}
