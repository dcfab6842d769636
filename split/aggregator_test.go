package split

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type severity int

const (
	info severity = iota
	warning
	critical
)

func TestMaxValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		agg     Aggregator[severity]
		events  []severity
		want    severity
		wantErr error
	}{
		{
			name:   "natural order",
			agg:    MaxValue[severity](),
			events: []severity{info, critical, warning},
			want:   critical,
		},
		{
			name:   "single",
			agg:    MaxValue[severity](),
			events: []severity{warning},
			want:   warning,
		},
		{
			name:    "empty without fallback",
			agg:     MaxValue[severity](),
			wantErr: ErrNoOutcomes,
		},
		{
			name: "empty with fallback",
			agg:  MaxValue(WithFallback(warning)),
			want: warning,
		},
		{
			name: "custom order",
			agg: MaxValue(WithOrder(func(a, b severity) int {
				return cmp.Compare(b, a)
			})),
			events: []severity{warning, info, critical},
			want:   info,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.agg.Aggregate(tt.events)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaxValueIsOrderIndependent(t *testing.T) {
	t.Parallel()

	agg := MaxValue[string]()

	for _, events := range [][]string{{"A", "B", "C"}, {"C", "B", "A"}, {"B", "C", "A"}} {
		got, err := agg.Aggregate(events)
		require.NoError(t, err)
		assert.Equal(t, "C", got)
	}
}

func TestAggregatorFunc(t *testing.T) {
	t.Parallel()

	count := AggregatorFunc[string](func(events []string) (string, error) {
		return string(rune('0' + len(events))), nil
	})

	got, err := count.Aggregate([]string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}
