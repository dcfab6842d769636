package config

import (
	"context"
	"fmt"

	"github.com/amp-labs/amp-flow/flow"
	"github.com/amp-labs/amp-flow/match"
	"github.com/amp-labs/amp-flow/split"
)

// Build validates doc and builds an initialized engine for every flow in it.
// Flows run by split states are built before the flows that use them. The
// options are applied to every engine.
func Build[C any, E comparable](
	doc *Document, registry *Registry[C, E], opts ...flow.Option,
) (map[string]*flow.Engine[C, E], error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	order, err := doc.buildOrder()
	if err != nil {
		return nil, err
	}

	engines := make(map[string]*flow.Engine[C, E], len(order))

	for _, name := range order {
		cfg, _ := doc.Flow(name)

		engine, err := buildFlow(cfg, registry, engines, opts)
		if err != nil {
			return nil, fmt.Errorf("flow %s: %w", name, err)
		}

		engines[name] = engine
	}

	return engines, nil
}

func buildFlow[C any, E comparable](
	cfg FlowConfig, registry *Registry[C, E], built map[string]*flow.Engine[C, E], opts []flow.Option,
) (*flow.Engine[C, E], error) {
	states := make(map[string]flow.State[C, E], len(cfg.States))

	for _, sc := range cfg.States {
		state, err := buildState(sc, registry, built)
		if err != nil {
			return nil, fmt.Errorf("state %s: %w", sc.Name, err)
		}

		states[sc.Name] = state
	}

	transitions := make([]flow.Transition[C, E], 0, len(cfg.Transitions)+len(cfg.States))
	outgoing := make(map[string]bool, len(cfg.States))

	for i, tc := range cfg.Transitions {
		matcher, err := buildMatcher(tc.On, registry)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}

		source := states[tc.From]
		outgoing[tc.From] = true

		if tc.End {
			transitions = append(transitions, flow.NewEndTransition(source, matcher))
		} else {
			transitions = append(transitions, flow.NewTransition(source, matcher, tc.To))
		}
	}

	for _, sc := range cfg.States {
		if !outgoing[sc.Name] {
			transitions = append(transitions, flow.End(states[sc.Name]))
		}
	}

	if cfg.Start != "" {
		opts = append([]flow.Option{flow.WithStartState(cfg.Start)}, opts...)
	}

	engine := flow.New(cfg.Name, transitions, opts...)
	if err := engine.Initialize(); err != nil {
		return nil, err
	}

	return engine, nil
}

//nolint:ireturn
func buildState[C any, E comparable](
	sc StateConfig, registry *Registry[C, E], built map[string]*flow.Engine[C, E],
) (flow.State[C, E], error) {
	switch {
	case sc.Split != nil:
		state, err := buildSplit(sc, registry, built)
		if err != nil {
			return nil, err
		}

		return state, nil
	case sc.Event != "":
		event, err := registry.event(sc.Event)
		if err != nil {
			return nil, err
		}

		if sc.Pause {
			return flow.NewPauseState[C, E](sc.Name, func(_ context.Context, _ C) (E, error) {
				return event, nil
			}), nil
		}

		return flow.NewStatic[C, E](sc.Name, event), nil
	default:
		handler, err := lookup(ErrUnknownHandler, registry.handlers, sc.Handler)
		if err != nil {
			return nil, err
		}

		if sc.Pause {
			return flow.NewPauseState[C, E](sc.Name, handler), nil
		}

		return flow.NewState[C, E](sc.Name, handler), nil
	}
}

func buildSplit[C any, E comparable](
	sc StateConfig, registry *Registry[C, E], built map[string]*flow.Engine[C, E],
) (*split.State[C, E], error) {
	cfg := sc.Split

	flows := make([]flow.Flow[C, E], 0, len(cfg.Flows))
	for _, name := range cfg.Flows {
		flows = append(flows, built[name])
	}

	var opts []split.Option[C, E]

	if cfg.Executor != "" {
		executor, err := lookup(ErrUnknownExecutor, registry.executors, cfg.Executor)
		if err != nil {
			return nil, err
		}

		opts = append(opts, split.WithExecutor[C, E](executor))
	}

	if cfg.Adapter != "" {
		adapter, err := lookup(ErrUnknownAdapter, registry.adapters, cfg.Adapter)
		if err != nil {
			return nil, err
		}

		opts = append(opts, split.WithAdapter[C, E](adapter))
	}

	switch {
	case cfg.Aggregator != "":
		aggregator, err := lookup(ErrUnknownAggregator, registry.aggregators, cfg.Aggregator)
		if err != nil {
			return nil, err
		}

		opts = append(opts, split.WithAggregator[C, E](aggregator))
	case cfg.Fallback != "":
		fallback, err := registry.event(cfg.Fallback)
		if err != nil {
			return nil, err
		}

		opts = append(opts, split.WithAggregator[C, E](split.MaxValue(split.WithFallback(fallback))))
	}

	return split.New(sc.Name, flows, opts...), nil
}

//nolint:ireturn
func buildMatcher[C any, E comparable](on string, registry *Registry[C, E]) (match.Matcher[E], error) {
	if on == "" {
		return match.Always[E](), nil
	}

	event, err := registry.event(on)
	if err != nil {
		return nil, err
	}

	return match.Value(event), nil
}
