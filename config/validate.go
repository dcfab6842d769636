package config

import (
	"errors"
	"fmt"
	"slices"
)

// Validate checks the structure of the document and reports every problem it
// finds, joined. It does not resolve handlers; Build does that.
func (d *Document) Validate() error {
	if len(d.Flows) == 0 {
		return ErrNoFlows
	}

	var errs []error

	names := make(map[string]bool, len(d.Flows))

	for i, f := range d.Flows {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("flow %d: %w", i, ErrFlowNameRequired))

			continue
		}

		if names[f.Name] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateFlowName, f.Name))
		}

		names[f.Name] = true
	}

	for _, f := range d.Flows {
		if f.Name == "" {
			continue
		}

		errs = append(errs, f.validate(names)...)
	}

	if len(errs) == 0 {
		if _, err := d.buildOrder(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (f FlowConfig) validate(flows map[string]bool) []error {
	var errs []error

	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("flow %s: "+format, append([]any{f.Name}, args...)...))
	}

	if len(f.States) == 0 {
		fail("%w", ErrNoStates)

		return errs
	}

	states := make(map[string]bool, len(f.States))

	for i, s := range f.States {
		if s.Name == "" {
			fail("state %d: %w", i, ErrStateNameRequired)

			continue
		}

		if states[s.Name] {
			fail("%w: %s", ErrDuplicateStateName, s.Name)
		}

		states[s.Name] = true

		if s.behaviors() != 1 {
			fail("state %s: %w", s.Name, ErrStateBehavior)
		}

		if s.Split == nil {
			continue
		}

		if s.Pause {
			fail("state %s: %w", s.Name, ErrPausedSplit)
		}

		if len(s.Split.Flows) == 0 {
			fail("state %s: %w", s.Name, ErrSplitFlowsRequired)
		}

		for _, name := range s.Split.Flows {
			if !flows[name] {
				fail("state %s: %w: %s", s.Name, ErrUnknownFlow, name)
			}
		}
	}

	if f.Start != "" && !states[f.Start] {
		fail("%w: %s", ErrStartNotFound, f.Start)
	}

	for i, t := range f.Transitions {
		if t.From == "" {
			fail("transition %d: %w", i, ErrTransitionFrom)
		} else if !states[t.From] {
			fail("transition %d: %w: %s", i, ErrTransitionStateAbsent, t.From)
		}

		if (t.To == "") == !t.End {
			fail("transition %d: %w", i, ErrTransitionTarget)
		} else if t.To != "" && !states[t.To] {
			fail("transition %d: %w: %s", i, ErrTransitionStateAbsent, t.To)
		}
	}

	return errs
}

// buildOrder returns the flow names ordered so that every flow comes after
// the flows its split states run.
func (d *Document) buildOrder() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)

	marks := make(map[string]int, len(d.Flows))
	order := make([]string, 0, len(d.Flows))

	var visit func(name string, path []string) error

	visit = func(name string, path []string) error {
		switch marks[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %v", ErrSplitCycle, append(slices.Clip(path), name))
		}

		marks[name] = visiting

		f, _ := d.Flow(name)
		for _, s := range f.States {
			if s.Split == nil {
				continue
			}

			for _, sub := range s.Split.Flows {
				if err := visit(sub, append(slices.Clip(path), name)); err != nil {
					return err
				}
			}
		}

		marks[name] = done
		order = append(order, name)

		return nil
	}

	for _, f := range d.Flows {
		if err := visit(f.Name, nil); err != nil {
			return nil, err
		}
	}

	return order, nil
}
