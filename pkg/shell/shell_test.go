package shell

import (
	"context"
	"runtime"
	"testing"

	herrors "github.com/lucid-vigil/winharden/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	assert.Equal(t, "'plain'", Quote("plain"))
	assert.Equal(t, "'it''s'", Quote("it's"))
	assert.Equal(t, "'a','b''c'", QuoteList([]string{"a", "b'c"}))
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX utilities")
	}
	r := NewExecRunner(zerolog.Nop())

	out, err := r.Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))

	_, err = r.Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	require.Error(t, err)
	assert.ErrorIs(t, err, herrors.ErrExternal)

	var he *herrors.HardenError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "boom", he.Details["output"])
}
