package config

import "errors"

var (
	ErrEmptyDocument         = errors.New("empty document")
	ErrNoFlows               = errors.New("at least one flow is required")
	ErrFlowNameRequired      = errors.New("flow name is required")
	ErrDuplicateFlowName     = errors.New("duplicate flow name")
	ErrNoStates              = errors.New("at least one state is required")
	ErrStateNameRequired     = errors.New("state name is required")
	ErrDuplicateStateName    = errors.New("duplicate state name")
	ErrStateBehavior         = errors.New("state needs exactly one of handler, event or split")
	ErrPausedSplit           = errors.New("split states cannot pause")
	ErrSplitFlowsRequired    = errors.New("split needs at least one flow")
	ErrUnknownFlow           = errors.New("unknown flow")
	ErrSplitCycle            = errors.New("split flows form a cycle")
	ErrStartNotFound         = errors.New("start state not found")
	ErrTransitionFrom        = errors.New("transition from is required")
	ErrTransitionTarget      = errors.New("transition needs exactly one of to or end")
	ErrTransitionStateAbsent = errors.New("transition references an unknown state")
	ErrUnknownHandler        = errors.New("unknown handler")
	ErrUnknownExecutor       = errors.New("unknown executor")
	ErrUnknownAggregator     = errors.New("unknown aggregator")
	ErrUnknownAdapter        = errors.New("unknown adapter")
	ErrBadEvent              = errors.New("cannot parse event")
)
