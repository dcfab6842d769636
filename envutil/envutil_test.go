package envutil

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	t.Setenv("AMP_FLOW_TEST_STRING", "hello")

	val, err := String("AMP_FLOW_TEST_STRING").Value()
	require.NoError(t, err)
	assert.Equal(t, "hello", val)

	_, err = String("AMP_FLOW_TEST_MISSING").Value()
	require.ErrorIs(t, err, ErrEnvVarMissing)

	assert.Equal(t, "dflt", String("AMP_FLOW_TEST_MISSING", Default("dflt")).ValueOrFatal())

	t.Setenv("AMP_FLOW_TEST_BLANK", "  ")

	assert.False(t, String("AMP_FLOW_TEST_BLANK").HasValue())
	assert.Equal(t, "dflt", String("AMP_FLOW_TEST_BLANK", Default("dflt")).ValueOrFatal())
}

func TestBool(t *testing.T) {
	tests := []struct {
		raw     string
		want    bool
		wantErr bool
	}{
		{raw: "true", want: true},
		{raw: "YES", want: true},
		{raw: "1", want: true},
		{raw: "false", want: false},
		{raw: "off", want: false},
		{raw: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("AMP_FLOW_TEST_BOOL", tt.raw)

			val, err := Bool("AMP_FLOW_TEST_BOOL").Value()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrBadEnvVar)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, val)
		})
	}
}

func TestIntWithValidation(t *testing.T) {
	t.Setenv("AMP_FLOW_TEST_INT", "-3")

	errNegative := errors.New("negative")

	rdr := Int("AMP_FLOW_TEST_INT", Validate(func(v int) error {
		if v < 0 {
			return errNegative
		}

		return nil
	}))

	assert.Error(t, rdr.Error())
	assert.Equal(t, 8, rdr.ValueOrElse(8))

	t.Setenv("AMP_FLOW_TEST_INT", "12")
	assert.Equal(t, 12, Int("AMP_FLOW_TEST_INT").ValueOrElse(8))
}

func TestDuration(t *testing.T) {
	t.Setenv("AMP_FLOW_TEST_DURATION", "1500")
	assert.Equal(t, 1500*time.Millisecond, Duration("AMP_FLOW_TEST_DURATION").ValueOrElse(0))

	t.Setenv("AMP_FLOW_TEST_DURATION", "2s")
	assert.Equal(t, 2*time.Second, Duration("AMP_FLOW_TEST_DURATION").ValueOrElse(0))
}

func TestSlogLevel(t *testing.T) {
	t.Setenv("AMP_FLOW_TEST_LEVEL", " Debug ")
	assert.Equal(t, slog.LevelDebug, SlogLevel("AMP_FLOW_TEST_LEVEL").ValueOrElse(slog.LevelInfo))

	t.Setenv("AMP_FLOW_TEST_LEVEL", "warning")
	assert.Equal(t, slog.LevelWarn, SlogLevel("AMP_FLOW_TEST_LEVEL").ValueOrElse(slog.LevelInfo))
}

func TestContextOverride(t *testing.T) {
	t.Setenv("AMP_FLOW_TEST_OVERRIDE", "env")

	ctx := WithEnvOverride(context.Background(), "AMP_FLOW_TEST_OVERRIDE", "ctx")

	assert.Equal(t, "ctx", StringContext(ctx, "AMP_FLOW_TEST_OVERRIDE").ValueOrElse(""))
	assert.Equal(t, "env", String("AMP_FLOW_TEST_OVERRIDE").ValueOrElse(""))

	ctx = WithEnvOverride(ctx, "AMP_FLOW_TEST_WORKERS", "7")
	assert.Equal(t, 7, IntContext(ctx, "AMP_FLOW_TEST_WORKERS").ValueOrElse(1))
}

func TestReaderString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "K=v", NewReader("K", true, nil, "v").String())
	assert.Equal(t, "K=<not set>", NewReader("K", false, nil, "").String())
}
