// Package visualizer renders flows as Mermaid state diagrams, either from a
// compiled graph or straight from a config document.
//
//nolint:varnamelen // short names idiomatic
package visualizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amp-labs/amp-flow/config"
	"github.com/amp-labs/amp-flow/flow"
	"github.com/amp-labs/amp-flow/match"
)

var (
	ErrGraphNil     = errors.New("graph cannot be nil")
	ErrFlowNotFound = errors.New("flow not found in document")
	ErrNoStartState = errors.New("cannot tell the start state")
	ErrBadDirection = errors.New("direction must be TB or LR")
)

type node struct {
	name     string
	kind     flow.Kind
	branches []string
}

type edge struct {
	from    string
	to      string // empty for end transitions
	trigger string
}

type diagram struct {
	start string
	nodes []node
	edges []edge
}

// Mermaid renders a compiled graph. Edges leaving a state appear in the
// order they are evaluated.
func Mermaid[C any, E comparable](graph *flow.Graph[C, E], opts Options) (string, error) {
	if graph == nil {
		return "", ErrGraphNil
	}

	d := diagram{start: graph.Start().Name()}

	for _, name := range graph.States() {
		state, _ := graph.State(name)
		descriptor := state.Descriptor()

		d.nodes = append(d.nodes, node{
			name:     name,
			kind:     descriptor.Kind,
			branches: descriptor.Branches,
		})

		for _, t := range graph.Outgoing(name) {
			d.edges = append(d.edges, edge{
				from:    name,
				to:      t.Next(),
				trigger: t.Matcher().String(),
			})
		}
	}

	return d.render(opts)
}

// MermaidFromFile loads a config document and renders the named flow.
func MermaidFromFile(path, flowName string, opts Options) (string, error) {
	doc, err := config.Load(path)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	return MermaidFromDocument(doc, flowName, opts)
}

// MermaidFromDocument renders a flow of a config document without building
// it, so no handlers are needed. States without outgoing transitions are drawn
// as ends, like Build treats them.
func MermaidFromDocument(doc *config.Document, flowName string, opts Options) (string, error) {
	cfg, ok := doc.Flow(flowName)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrFlowNotFound, flowName)
	}

	d := diagram{start: cfg.Start}

	incoming := make(map[string]bool)
	outgoing := make(map[string]bool)

	for _, t := range cfg.Transitions {
		outgoing[t.From] = true

		if t.To != "" {
			incoming[t.To] = true
		}
	}

	var candidates []string

	for _, s := range cfg.States {
		n := node{name: s.Name, kind: flow.KindTask}

		switch {
		case s.Split != nil:
			n.kind = flow.KindSplit
			n.branches = s.Split.Flows
		case s.Pause:
			n.kind = flow.KindPause
		}

		d.nodes = append(d.nodes, n)

		if !incoming[s.Name] {
			candidates = append(candidates, s.Name)
		}
	}

	if d.start == "" {
		if len(candidates) != 1 {
			return "", fmt.Errorf("%w: candidates %v", ErrNoStartState, candidates)
		}

		d.start = candidates[0]
	}

	for _, t := range cfg.Transitions {
		trigger := t.On
		if trigger == "" {
			trigger = match.Wildcard
		}

		d.edges = append(d.edges, edge{from: t.From, to: t.To, trigger: trigger})
	}

	for _, s := range cfg.States {
		if !outgoing[s.Name] {
			d.edges = append(d.edges, edge{from: s.Name, trigger: match.Wildcard})
		}
	}

	return d.render(opts)
}

func (d diagram) render(opts Options) (string, error) {
	direction := opts.Direction
	if direction == "" {
		direction = "TB"
	}

	if direction != "TB" && direction != "LR" {
		return "", fmt.Errorf("%w: %q", ErrBadDirection, direction)
	}

	highlight := make(map[string]bool, len(opts.HighlightPath))
	for _, name := range opts.HighlightPath {
		highlight[name] = true
	}

	var sb strings.Builder

	if opts.Fenced {
		sb.WriteString("```mermaid\n")
	}

	sb.WriteString("stateDiagram-v2\n")
	fmt.Fprintf(&sb, "    direction %s\n", direction)
	fmt.Fprintf(&sb, "    [*] --> %s\n", id(d.start))

	for _, n := range d.nodes {
		label := n.name
		if opts.ShowBranches && len(n.branches) > 0 {
			label += "\\n[" + strings.Join(n.branches, ", ") + "]"
		}

		if label != id(n.name) {
			fmt.Fprintf(&sb, "    %s: %s\n", id(n.name), label)
		}

		switch {
		case highlight[n.name]:
			fmt.Fprintf(&sb, "    class %s highlighted\n", id(n.name))
		case n.kind == flow.KindPause:
			fmt.Fprintf(&sb, "    class %s pauseState\n", id(n.name))
		case n.kind == flow.KindSplit:
			fmt.Fprintf(&sb, "    class %s splitState\n", id(n.name))
		}
	}

	for _, e := range d.edges {
		to := "[*]"
		if e.to != "" {
			to = id(e.to)
		}

		label := ""
		if opts.ShowTriggers && e.trigger != match.Wildcard {
			label = ": " + e.trigger
		}

		fmt.Fprintf(&sb, "    %s --> %s%s\n", id(e.from), to, label)
	}

	sb.WriteString("\n")
	sb.WriteString("    classDef pauseState fill:#e1f5ff,stroke:#01579b,stroke-width:2px\n")
	sb.WriteString("    classDef splitState fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px\n")
	sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")

	if opts.Fenced {
		sb.WriteString("```\n")
	}

	return sb.String(), nil
}

// id turns a state name into a Mermaid identifier.
func id(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
