// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package container

import (
	"sync"
)

// BufferChan is a concurrency-safe generic buffered channel. Send never
// blocks; a value is dropped if the buffer is full or the channel closed.
type BufferChan[T any] struct {
	C      chan T
	mu     sync.RWMutex
	closed bool
}

func NewBufferChan[T any](size int) *BufferChan[T] {
	return &BufferChan[T]{
		C: make(chan T, size),
	}
}

func (ch *BufferChan[T]) Send(value T) bool {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if ch.closed {
		return false
	}

	select {
	case ch.C <- value:
		return true
	default:
		return false
	}
}

func (ch *BufferChan[T]) Close() {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if !ch.closed {
		close(ch.C)
		ch.closed = true
	}
}
