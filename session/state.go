// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package session

// ConnectionState is the client's position in the connection lifecycle.
// Transitions are strictly ordered: a client must pass through Connected in
// both directions, and every transition is driven either by a user command
// or by a connection loss detected on the receive loop.
type ConnectionState int32

const (
	// Disconnected means no connection exists. The initial state.
	Disconnected ConnectionState = iota

	// Connected means a live session exists but samples are not streaming.
	Connected

	// Running means the device is actively streaming samples.
	Running
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}
