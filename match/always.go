package match

type always[E comparable] struct{}

// Always returns the catch-all matcher. It accepts every event and sorts after
// every other matcher, so it is only consulted once nothing more specific applied.
func Always[E comparable]() Matcher[E] {
	return always[E]{}
}

func (always[E]) Match(E) bool { return true }

func (always[E]) Kind() Kind { return KindAlways }

func (always[E]) String() string { return Wildcard }

func (a always[E]) Compare(other Matcher[E]) int {
	if other == nil {
		return -1
	}

	return compareKinds[E](a, other)
}
