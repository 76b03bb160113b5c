// Copyright (c) Measurement Network.
// Licensed under the MIT License.

// Package wallclock indirects the time-dependent pieces of packages context
// and time used by the client: log record timestamps and the connect
// timeout. Tests can swap Instance to control apparent time.
package wallclock

import (
	"context"
	"time"
)

// WallClock is the subset of time functionality the client depends on.
type WallClock interface {
	WithTimeoutCause(
		parent context.Context,
		timeout time.Duration,
		cause error,
	) (context.Context, context.CancelFunc)
	Now() time.Time
}

type wallClock struct{}

func (wallClock) WithTimeoutCause(
	parent context.Context,
	timeout time.Duration,
	cause error,
) (context.Context, context.CancelFunc) {
	return context.WithTimeoutCause(parent, timeout, cause)
}

func (wallClock) Now() time.Time {
	return time.Now()
}

// Instance is the process-wide clock.
var Instance WallClock = wallClock{}
