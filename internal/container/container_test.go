// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package container

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collect[T any](l *AppendableListWithRemoval[T]) []T {
	var out []T
	for v := range l.All() {
		out = append(out, v)
	}
	return out
}

func TestAppendableListOrderAndRemoval(t *testing.T) {
	l := NewAppendableListWithRemoval[int]()

	removeOne := l.AppendEntry(1)
	removeTwo := l.AppendEntry(2)
	l.AppendEntry(3)

	require.Equal(t, []int{1, 2, 3}, collect(l))

	removeTwo()
	require.Equal(t, []int{1, 3}, collect(l))

	// Removing twice is a no-op.
	removeTwo()
	require.Equal(t, []int{1, 3}, collect(l))

	removeOne()
	require.Equal(t, []int{3}, collect(l))
}

func TestAppendableListEmpty(t *testing.T) {
	l := NewAppendableListWithRemoval[string]()
	require.Empty(t, collect(l))
}

func TestBufferChanDropsWhenFull(t *testing.T) {
	ch := NewBufferChan[int](1)

	require.True(t, ch.Send(1))
	require.False(t, ch.Send(2))

	require.Equal(t, 1, <-ch.C)
	require.True(t, ch.Send(3))
}

func TestBufferChanClose(t *testing.T) {
	ch := NewBufferChan[int](1)
	ch.Close()

	require.False(t, ch.Send(1))

	// Close is idempotent.
	ch.Close()

	_, ok := <-ch.C
	require.False(t, ok)
}
