package consistency

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err        error
		kind       Kind
		statusCode int
	}{
		{Validationf("bad input"), KindValidation, 400},
		{NotFoundf("missing"), KindNotFound, 404},
		{Conflictf(ReasonOverlap, "time conflict"), KindConflict, 409},
		{Exclusivityf("taken"), KindExclusivity, 409},
		{Transaction("rollover", errors.New("connection reset")), KindTransaction, 500},
	}

	for _, tc := range cases {
		kind, ok := KindOf(tc.err)
		require.True(t, ok)
		assert.Equal(t, tc.kind, kind)
		assert.Equal(t, tc.statusCode, StatusCode(tc.err))
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("marking attendance: %w", Conflictf(ReasonAlreadyActive, "already active"))

	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindConflict, kind)

	reason, ok := ReasonOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, ReasonAlreadyActive, reason)
}

func TestTransactionUnwrapsCause(t *testing.T) {
	cause := errors.New("broken pipe")
	err := Transaction("activate year", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "activate year")

	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, 500, StatusCode(errors.New("plain")))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsValidation(Validationf("x")))
	assert.True(t, IsConflict(Conflictf(ReasonDuplicateName, "x")))
	assert.True(t, IsNotFound(NotFoundf("x")))
	assert.False(t, IsConflict(Validationf("x")))
}
