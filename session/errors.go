// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/measnet/gateway/errors"
)

// ErrTransitionInProgress is returned when a state-changing call arrives
// while another transition is in flight. Calls fail closed; they are never
// queued.
var ErrTransitionInProgress = stderrors.New(
	"another connection state transition is in progress",
)

// Human-readable transport failure reasons. Connection failures are not
// retried automatically; retry is an explicit operator action.
const (
	ReasonTimeout     = "connection timed out"
	ReasonRefused     = "connection refused"
	ReasonUnreachable = "host unreachable"
	ReasonIO          = "i/o error"
	ReasonPeerClosed  = "server closed the connection"
)

// classifyDialError converts a dial failure into a Transport error with a
// distinct, user-facing reason.
func classifyDialError(err error) *errors.Error {
	reason := ReasonIO

	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		reason = ReasonTimeout
	case stderrors.As(err, &netErr) && netErr.Timeout():
		reason = ReasonTimeout
	case stderrors.Is(err, syscall.ECONNREFUSED):
		reason = ReasonRefused
	case stderrors.Is(err, syscall.EHOSTUNREACH),
		stderrors.Is(err, syscall.ENETUNREACH):
		reason = ReasonUnreachable
	}

	return &errors.Error{
		Kind:        errors.Transport,
		Message:     fmt.Sprintf("%s: %v", reason, err),
		NestedError: err,
	}
}

// classifyStreamError converts a mid-stream receive failure into the reason
// string surfaced with the unsolicited disconnect notification. Framing
// errors keep their own message.
func classifyStreamError(err error) string {
	var gwErr *errors.Error
	if stderrors.As(err, &gwErr) && gwErr.Kind == errors.Framing {
		return fmt.Sprintf("protocol framing error: %s", gwErr.Message)
	}

	if stderrors.Is(err, io.EOF) || stderrors.Is(err, net.ErrClosed) {
		return ReasonPeerClosed
	}
	return fmt.Sprintf("%s: %v", ReasonIO, err)
}
