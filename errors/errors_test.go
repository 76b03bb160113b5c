// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package errors_test

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/measnet/gateway/errors"
)

func TestErrorUnwrap(t *testing.T) {
	e := &errors.Error{
		Kind:        errors.Transport,
		Message:     "i/o error: unexpected EOF",
		NestedError: io.ErrUnexpectedEOF,
	}

	require.Equal(t, "i/o error: unexpected EOF", e.Error())
	require.ErrorIs(t, e, io.ErrUnexpectedEOF)

	var target *errors.Error
	require.True(t, stderrors.As(error(e), &target))
	require.Equal(t, errors.Transport, target.Kind)
}

func TestIsFatal(t *testing.T) {
	fatal := []errors.Kind{errors.Framing, errors.Transport}
	for _, k := range fatal {
		require.True(t, (&errors.Error{Kind: k}).IsFatal(), "kind %s", k)
	}

	recoverable := []errors.Kind{
		errors.Syntax,
		errors.UnknownSensor,
		errors.FreqOutOfRange,
		errors.NotConnected,
		errors.AlreadyRunning,
		errors.NotRunning,
		errors.DisallowedWhileRunning,
		errors.ConfigurationInvalid,
	}
	for _, k := range recoverable {
		require.False(t, (&errors.Error{Kind: k}).IsFatal(), "kind %s", k)
	}
}

func TestKindString(t *testing.T) {
	require.Equal(t, "syntax", errors.Syntax.String())
	require.Equal(t, "framing", errors.Framing.String())
	require.Equal(t, "unknown", errors.Kind(99).String())
}

func TestAttrs(t *testing.T) {
	e := &errors.Error{
		Kind:          errors.FreqOutOfRange,
		Message:       "rate must be between 10 and 1000 Hz",
		PropertyName:  "rate_hz",
		PropertyValue: uint32(9),
	}

	attrs := e.Attrs()
	require.Len(t, attrs, 3)
	require.Equal(t, "kind", attrs[0].Key)
	require.Equal(t, "frequency out of range", attrs[0].Value.String())
}
