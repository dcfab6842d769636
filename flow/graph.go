package flow

import (
	"fmt"
	"slices"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/amp-flow/match"
	"github.com/zeebo/xxh3"
)

// Graph is the compiled, immutable form of a flow definition. It is safe for
// concurrent use.
type Graph[C any, E comparable] struct {
	name        string
	start       State[C, E]
	states      map[string]State[C, E]
	names       []string
	outgoing    map[string][]Transition[C, E]
	transitions []Transition[C, E]
	fingerprint uint64
}

// Compile validates transitions and turns them into a Graph. When start is
// empty the start state is inferred as the only source without incoming
// transitions. Duplicate transitions are collapsed, and the transitions leaving
// each state are ordered by matcher specificity with ties kept in declaration order.
func Compile[C any, E comparable](name string, transitions []Transition[C, E], start string) (*Graph[C, E], error) {
	if len(transitions) == 0 {
		return nil, wrapDefinitionError(name, ErrNoTransitions)
	}

	graph := &Graph[C, E]{
		name:     name,
		states:   make(map[string]State[C, E]),
		outgoing: make(map[string][]Transition[C, E]),
	}

	for i, t := range transitions {
		if t.source == nil {
			return nil, wrapDefinitionError(name, fmt.Errorf("transition %d: %w", i, ErrNilState))
		}

		if slices.ContainsFunc(graph.transitions, t.Equal) {
			continue
		}

		graph.transitions = append(graph.transitions, t)

		src := t.source.Name()
		if _, ok := graph.states[src]; !ok {
			graph.states[src] = t.source
			graph.names = append(graph.names, src)
		}

		graph.outgoing[src] = append(graph.outgoing[src], t)
	}

	hasEnd := false
	incoming := make(map[string]bool)

	for _, t := range graph.transitions {
		if t.IsEnd() {
			hasEnd = true

			continue
		}

		if _, ok := graph.states[t.next]; !ok {
			return nil, wrapDefinitionError(name,
				fmt.Errorf("%w %q referenced by %s", ErrMissingState, t.next, t))
		}

		incoming[t.next] = true
	}

	if !hasEnd {
		return nil, wrapDefinitionError(name, ErrNoEndState)
	}

	for src, out := range graph.outgoing {
		slices.SortStableFunc(out, func(a, b Transition[C, E]) int {
			return a.Matcher().Compare(b.Matcher())
		})

		graph.outgoing[src] = out
	}

	natsort.Sort(graph.names)

	resolved, err := resolveStart(graph, incoming, start)
	if err != nil {
		return nil, wrapDefinitionError(name, err)
	}

	graph.start = resolved
	graph.fingerprint = xxh3.HashString(graph.canonical())

	return graph, nil
}

func resolveStart[C any, E comparable](graph *Graph[C, E], incoming map[string]bool, start string) (State[C, E], error) {
	if start != "" {
		state, ok := graph.states[start]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStartState, start)
		}

		return state, nil
	}

	var candidates []string

	for _, n := range graph.names {
		if !incoming[n] {
			candidates = append(candidates, n)
		}
	}

	switch len(candidates) {
	case 0:
		return nil, ErrNoStartState
	case 1:
		return graph.states[candidates[0]], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousStartState, strings.Join(candidates, ", "))
	}
}

// canonical renders the graph as text, one transition per line in evaluation order.
func (g *Graph[C, E]) canonical() string {
	var sb strings.Builder

	sb.WriteString("start=")
	sb.WriteString(g.start.Name())
	sb.WriteByte('\n')

	for _, n := range g.names {
		for _, t := range g.outgoing[n] {
			fmt.Fprintf(&sb, "%s|%s|%s|%s|%s\n",
				n, g.states[n].Descriptor().Kind, t.Matcher().Kind(), t.Matcher(), t.next)
		}
	}

	return sb.String()
}

func (g *Graph[C, E]) Name() string {
	return g.name
}

// Start returns the state every execution begins with.
func (g *Graph[C, E]) Start() State[C, E] {
	return g.start
}

// States returns the state names in natural order.
func (g *Graph[C, E]) States() []string {
	return slices.Clone(g.names)
}

// State looks a state up by name.
func (g *Graph[C, E]) State(name string) (State[C, E], bool) {
	state, ok := g.states[name]

	return state, ok
}

// Outgoing returns the transitions leaving a state, most specific first.
func (g *Graph[C, E]) Outgoing(name string) []Transition[C, E] {
	return slices.Clone(g.outgoing[name])
}

// Transitions returns the distinct transitions in declaration order.
func (g *Graph[C, E]) Transitions() []Transition[C, E] {
	return slices.Clone(g.transitions)
}

// Fingerprint is a hash of the graph structure. It changes whenever a state,
// matcher or destination changes, so that stored mementos can be checked
// against the definition they were produced by.
func (g *Graph[C, E]) Fingerprint() uint64 {
	return g.fingerprint
}

// Next resolves the state that follows state when it produced event. It
// returns nil without error when the matching transition ends the flow.
func (g *Graph[C, E]) Next(state string, event E) (State[C, E], error) {
	out, ok := g.outgoing[state]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, state)
	}

	for _, t := range out {
		if !t.Matches(event) {
			continue
		}

		if t.IsEnd() {
			return nil, nil //nolint:nilnil
		}

		next, ok := g.states[t.next]
		if !ok {
			// Compile guarantees every destination is a source.
			return nil, fmt.Errorf("%w %q", ErrMissingState, t.next)
		}

		return next, nil
	}

	return nil, fmt.Errorf("%w in flow=%s for state=%s with event=%v",
		ErrNoMatchingTransition, g.name, state, event)
}

// Triggers is documented on Engine.Triggers.
func (g *Graph[C, E]) Triggers(state string) ([]string, error) {
	out, ok := g.outgoing[state]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, state)
	}

	descriptors := make([]string, 0, len(out))

	for _, t := range out {
		d := t.Matcher().String()
		if !slices.Contains(descriptors, d) {
			descriptors = append(descriptors, d)
		}
	}

	return substituteWildcard(descriptors), nil
}

// Synonyms reported in place of a literal wildcard trigger, in order of preference.
var wildcardSynonyms = []string{"COMPLETED", "FAILED", "UNKNOWN"} //nolint:gochecknoglobals

const wildcardFallback = "ANYTHING"

func substituteWildcard(descriptors []string) []string {
	used := make(map[string]bool, len(descriptors))

	for _, d := range descriptors {
		if d != match.Wildcard {
			used[d] = true
		}
	}

	out := make([]string, 0, len(descriptors))

	for _, d := range descriptors {
		if d == match.Wildcard {
			d = nextSynonym(used)
			used[d] = true
		}

		out = append(out, d)
	}

	natsort.Sort(out)

	return out
}

func nextSynonym(used map[string]bool) string {
	for _, s := range wildcardSynonyms {
		if !used[s] {
			return s
		}
	}

	if !used[wildcardFallback] {
		return wildcardFallback
	}

	for i := 0; ; i++ {
		if s := fmt.Sprintf("%s%d", wildcardFallback, i); !used[s] {
			return s
		}
	}
}
