package tdterr_test

import (
	"errors"
	"testing"

	"github.com/geoinvert/tdtcount/tdterr"
	"github.com/stretchr/testify/require"
)

func TestErrorWrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := tdterr.New(tdterr.IOFailure, "persist.Save", cause)

	require.ErrorIs(t, err, cause)
	require.True(t, tdterr.Is(err, tdterr.IOFailure))
	require.False(t, tdterr.Is(err, tdterr.ShapeMismatch))
	require.Contains(t, err.Error(), "persist.Save")
	require.Contains(t, err.Error(), "io failure")
}

func TestErrorWithoutCause(t *testing.T) {
	err := tdterr.New(tdterr.InvalidArgument, "archetype.Count", nil)
	require.Nil(t, err.Unwrap())
	require.Contains(t, err.Error(), "invalid argument")
}
