// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory()

	lines := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, line := range lines {
		h.Add(line)
	}

	require.Equal(t, []string{"c", "d", "e", "f", "g"}, h.Entries())
}

func TestHistoryNavigation(t *testing.T) {
	h := NewHistory()
	h.Add("first")
	h.Add("second")
	h.Add("third")

	// Prev walks back to the oldest entry and pins there.
	for _, want := range []string{"third", "second", "first", "first"} {
		got, ok := h.Prev()
		require.True(t, ok)
		require.Equal(t, want, got)
	}

	// Next walks forward; stepping past the newest clears the line.
	got, ok := h.Next()
	require.True(t, ok)
	require.Equal(t, "second", got)

	got, ok = h.Next()
	require.True(t, ok)
	require.Equal(t, "third", got)

	_, ok = h.Next()
	require.False(t, ok)
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory()

	_, ok := h.Prev()
	require.False(t, ok)
	_, ok = h.Next()
	require.False(t, ok)
	require.Empty(t, h.Entries())
}

func TestHistoryAddResetsCursor(t *testing.T) {
	h := NewHistory()
	h.Add("one")
	h.Add("two")

	_, _ = h.Prev()
	_, _ = h.Prev()

	h.Add("three")
	got, ok := h.Prev()
	require.True(t, ok)
	require.Equal(t, "three", got)
}
