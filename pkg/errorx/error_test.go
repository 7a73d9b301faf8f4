package errorx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	err := New(InvalidStateTransition, "Reward %s is not pending", "r1")
	require.Equal(t, "Reward r1 is not pending", err.Error())
	require.True(t, Is(err, InvalidStateTransition))
	require.True(t, Is(fmt.Errorf("wrapped: %w", err), InvalidStateTransition))

	cause := errors.New("connection reset")
	partial := NewPartialError("reward_confirmed", "balance_credit", "intent1", cause)
	require.True(t, Is(partial, PartialApplication))
	require.ErrorIs(t, partial, cause)

	require.Equal(t, Unknown.Code, CodeOf(errors.New("foo")))
	require.False(t, Is(nil, BadRequest))
}
