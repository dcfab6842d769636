// Package flow implements a resumable flow-execution engine.
//
// A flow is a named graph of states joined by transitions. Each state handles a
// context and produces an event; the most specific transition whose matcher
// accepts the event decides which state runs next, or whether the flow ends.
// A pause state suspends the execution right after it ran. The returned Result
// carries a Memento (the name of the state reached) which the caller persists
// and later hands to Resume together with the event to continue from.
//
// Definitions are compiled once into an immutable Graph. Compile fails with a
// *DefinitionError when the graph has no transitions, points at unknown states,
// has no end, or has no unique start state. Execution failures are reported as
// *ExecutionError naming the flow and the state they occurred in.
package flow
