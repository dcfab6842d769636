package flow

import (
	"context"
	"testing"

	"github.com/amp-labs/amp-flow/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func static(name string) State[string, string] {
	return NewStatic[string, string](name, "COMPLETED")
}

func on(pattern string) match.Matcher[string] {
	return match.Pattern[string](pattern)
}

func TestCompileDefinitionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		transitions []Transition[string, string]
		start       string
		wantErr     error
	}{
		{
			name:    "no transitions",
			wantErr: ErrNoTransitions,
		},
		{
			name:        "next state is not a source",
			transitions: []Transition[string, string]{To(static("step"), "foo")},
			wantErr:     ErrMissingState,
		},
		{
			name:        "no end transition",
			transitions: []Transition[string, string]{NewTransition(static("step"), on("FAILED"), "step")},
			wantErr:     ErrNoEndState,
		},
		{
			name: "two states without incoming transitions",
			transitions: []Transition[string, string]{
				End(static("step1")),
				End(static("step2")),
			},
			wantErr: ErrAmbiguousStartState,
		},
		{
			name: "every state has an incoming transition",
			transitions: []Transition[string, string]{
				NewTransition(static("step"), on("FAILED"), "step"),
				End(static("step")),
			},
			wantErr: ErrNoStartState,
		},
		{
			name:        "explicit start is unknown",
			transitions: []Transition[string, string]{End(static("step"))},
			start:       "other",
			wantErr:     ErrUnknownStartState,
		},
		{
			name:        "nil source",
			transitions: []Transition[string, string]{End[string, string](nil)},
			wantErr:     ErrNilState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			graph, err := Compile("job", tt.transitions, tt.start)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, graph)

			var defErr *DefinitionError
			require.ErrorAs(t, err, &defErr)
			assert.Equal(t, "job", defErr.Flow)
		})
	}
}

func TestCompileExplicitStartOverridesInference(t *testing.T) {
	t.Parallel()

	step := static("step")

	graph, err := Compile("job", []Transition[string, string]{
		NewTransition(step, on("FAILED"), "step"),
		End(step),
	}, "step")
	require.NoError(t, err)

	assert.Equal(t, "step", graph.Start().Name())

	triggers, err := graph.Triggers("step")
	require.NoError(t, err)
	assert.Contains(t, triggers, "FAILED")
}

func TestCompileInfersStartWithoutIncomingTransition(t *testing.T) {
	t.Parallel()

	graph, err := Compile("job", []Transition[string, string]{
		To(static("b"), "c"),
		To(static("a"), "b"),
		End(static("c")),
	}, "")
	require.NoError(t, err)

	start := graph.Start().Name()
	assert.Equal(t, "a", start)

	for _, tr := range graph.Transitions() {
		assert.NotEqual(t, start, tr.Next(), "start state must have no incoming transition")
	}

	assert.Equal(t, []string{"a", "b", "c"}, graph.States())
}

func TestCompileOrdersBySpecificityRegardlessOfInsertion(t *testing.T) {
	t.Parallel()

	orders := [][]string{
		{"*", "COMP*", "C?MPLETED", "COMPLETED"},
		{"COMPLETED", "C?MPLETED", "COMP*", "*"},
		{"COMP*", "*", "COMPLETED", "C?MPLETED"},
	}

	for _, patterns := range orders {
		src := static("src")

		var transitions []Transition[string, string]
		for _, p := range patterns {
			transitions = append(transitions, NewTransition(src, on(p), p))
		}

		for _, p := range patterns {
			transitions = append(transitions, End(static(p)))
		}

		graph, err := Compile("job", transitions, "src")
		require.NoError(t, err)

		var got []string
		for _, tr := range graph.Outgoing("src") {
			got = append(got, tr.Matcher().String())
		}

		assert.Equal(t, []string{"COMPLETED", "C?MPLETED", "COMP*", "*"}, got)

		next, err := graph.Next("src", "COMPLETED")
		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", next.Name())

		next, err = graph.Next("src", "COMPOSED")
		require.NoError(t, err)
		assert.Equal(t, "COMP*", next.Name())
	}
}

func TestCompileKeepsDeclarationOrderForTies(t *testing.T) {
	t.Parallel()

	src := static("src")

	graph, err := Compile("job", []Transition[string, string]{
		To(src, "b"),
		To(src, "a"),
		End(static("a")),
		End(static("b")),
	}, "src")
	require.NoError(t, err)

	next, err := graph.Next("src", "ANY")
	require.NoError(t, err)
	assert.Equal(t, "b", next.Name())
}

func TestCompileCollapsesDuplicates(t *testing.T) {
	t.Parallel()

	graph, err := Compile("job", []Transition[string, string]{
		To(static("foo"), "bar"),
		NewTransition(static("foo"), match.Always[string](), "bar"),
		End(static("bar")),
		End(static("bar")),
	}, "")
	require.NoError(t, err)

	assert.Len(t, graph.Transitions(), 2)
	assert.Len(t, graph.Outgoing("foo"), 1)
}

type code struct{ n int }

func (code) String() string { return "code" }

func TestCompileKeepsExactMatchersWithSameText(t *testing.T) {
	t.Parallel()

	step := NewStatic[string, code]("a", code{2})

	graph, err := Compile("codes", []Transition[string, code]{
		NewTransition(step, match.Equals(code{1}), "b"),
		NewTransition(step, match.Equals(code{2}), "b"),
		End(NewStatic[string, code]("b", code{0})),
	}, "")
	require.NoError(t, err)
	assert.Len(t, graph.Outgoing("a"), 2)

	for _, event := range []code{{1}, {2}} {
		next, err := graph.Next("a", event)
		require.NoError(t, err)
		assert.Equal(t, "b", next.Name())
	}

	_, err = graph.Next("a", code{3})
	require.ErrorIs(t, err, ErrNoMatchingTransition)
}

func TestNextNoMatchingTransition(t *testing.T) {
	t.Parallel()

	graph, err := Compile("job", []Transition[string, string]{
		NewTransition(static("step1"), on("FOO"), "step2"),
		End(static("step2")),
	}, "")
	require.NoError(t, err)

	_, err = graph.Next("step1", "COMPLETED")
	require.ErrorIs(t, err, ErrNoMatchingTransition)
	assert.NotErrorIs(t, err, ErrMissingState)
	assert.Contains(t, err.Error(), "next state not found")
	assert.Contains(t, err.Error(), "flow=job")
	assert.Contains(t, err.Error(), "state=step1")
	assert.Contains(t, err.Error(), "event=COMPLETED")

	_, err = graph.Next("nope", "COMPLETED")
	require.ErrorIs(t, err, ErrUnknownState)
}

func TestNextEndTransition(t *testing.T) {
	t.Parallel()

	graph, err := Compile("job", []Transition[string, string]{End(static("step1"))}, "")
	require.NoError(t, err)

	next, err := graph.Next("step1", "ANYTHING")
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	build := func(pattern string) *Graph[string, string] {
		graph, err := Compile("job", []Transition[string, string]{
			NewTransition(static("a"), on(pattern), "b"),
			End(static("b")),
		}, "")
		require.NoError(t, err)

		return graph
	}

	assert.Equal(t, build("OK").Fingerprint(), build("OK").Fingerprint())
	assert.NotEqual(t, build("OK").Fingerprint(), build("OK*").Fingerprint())
}

func TestTriggers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{name: "lone wildcard", patterns: []string{"*"}, want: []string{"COMPLETED"}},
		{name: "distinct", patterns: []string{"FAILED", "COMPLETED"}, want: []string{"COMPLETED", "FAILED"}},
		{name: "wildcard skips used synonym", patterns: []string{"COMPLETED", "*"}, want: []string{"COMPLETED", "FAILED"}},
		{
			name:     "wildcard after all synonyms",
			patterns: []string{"COMPLETED", "FAILED", "UNKNOWN", "*"},
			want:     []string{"ANYTHING", "COMPLETED", "FAILED", "UNKNOWN"},
		},
		{
			name:     "natural order",
			patterns: []string{"STEP10", "STEP2", "STEP1"},
			want:     []string{"STEP1", "STEP2", "STEP10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := static("src")

			transitions := []Transition[string, string]{}
			for _, p := range tt.patterns {
				transitions = append(transitions, NewEndTransition(src, on(p)))
			}

			graph, err := Compile("job", transitions, "")
			require.NoError(t, err)

			got, err := graph.Triggers("src")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextSynonym(t *testing.T) {
	t.Parallel()

	used := map[string]bool{"COMPLETED": true, "FAILED": true, "UNKNOWN": true}
	assert.Equal(t, "ANYTHING", nextSynonym(used))

	used["ANYTHING"] = true
	assert.Equal(t, "ANYTHING0", nextSynonym(used))

	used["ANYTHING0"] = true
	assert.Equal(t, "ANYTHING1", nextSynonym(used))
}

func TestStates(t *testing.T) {
	t.Parallel()

	state := NewState[string, string]("foo", func(_ context.Context, c string) (string, error) { return c, nil })
	assert.Contains(t, state.(interface{ String() string }).String(), ":foo")
	assert.False(t, state.Pause())
	assert.Equal(t, KindTask, state.Descriptor().Kind)

	pause := NewPauseState[string, string]("foo", func(_ context.Context, c string) (string, error) { return c, nil })
	assert.Contains(t, pause.(interface{ String() string }).String(), ":foo(pause)")
	assert.True(t, pause.Pause())

	event, err := NewStatic[string, string]("s", "DONE").Handle(t.Context(), "ctx")
	require.NoError(t, err)
	assert.Equal(t, "DONE", event)

	type counter struct{ n int }

	c := &counter{}
	transform := NewTransform[*counter, string]("t", func(_ context.Context, c *counter) error {
		c.n++

		return nil
	}, "NEXT")

	event2, err := transform.Handle(t.Context(), c)
	require.NoError(t, err)
	assert.Equal(t, "NEXT", event2)
	assert.Equal(t, 1, c.n)
}

type marker struct{ id int }

func TestTransitions(t *testing.T) {
	t.Parallel()

	end := NewEndTransition[string, string](nil, match.Always[string]())
	assert.True(t, end.IsEnd())
	assert.Empty(t, end.Next())

	eq := NewEndTransition[string, marker](nil, match.Equals(marker{1}))
	assert.True(t, eq.Matches(marker{1}))
	assert.False(t, eq.Matches(marker{2}))

	star := NewTransition[string, string](nil, on("*"), "start")
	assert.True(t, star.Matches("CONTINUABLE"))

	nilMatcher := NewTransition[string, string](nil, nil, "start")
	assert.True(t, nilMatcher.Matches("CONTINUABLE"))

	assert.True(t, NewTransition[string, string](nil, match.Value("*"), "start").Equal(star))
	assert.False(t, star.Equal(nilMatcher))

	str := NewTransition[string, string](nil, on("CONTIN???LE"), "start").String()
	assert.Contains(t, str, "Transition")
	assert.Contains(t, str, "start")
	assert.Contains(t, str, "CONTIN???LE")
	assert.Contains(t, str, "next=")
}
