// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package session

type (
	// ConnectEvent carries the details of an established connection.
	ConnectEvent struct {
		// ConnectionID uniquely identifies this connection lifetime.
		ConnectionID string

		// Address is the device host the client connected to.
		Address string
	}

	// DisconnectEvent carries the details of a terminated connection. It is
	// published exactly once per connection lifetime.
	DisconnectEvent struct {
		ConnectionID string

		// Unsolicited is true when the connection was lost rather than
		// closed by a user-initiated Disconnect or Shutdown.
		Unsolicited bool

		// Reason is a human-readable description of why the connection
		// ended.
		Reason string

		// Err is the underlying receive failure for unsolicited
		// disconnects, nil otherwise.
		Err error
	}

	// ConnectEventHandler is a user-defined callback for successful
	// connections.
	ConnectEventHandler = func(ConnectEvent)

	// DisconnectEventHandler is a user-defined callback for connection
	// teardown, both user-initiated and unsolicited.
	DisconnectEventHandler = func(DisconnectEvent)
)

// RegisterConnectEventHandler registers a handler called on each successful
// Connect. Returns a function to remove the handler.
func (c *Client) RegisterConnectEventHandler(
	handler ConnectEventHandler,
) (unregister func()) {
	return c.connectHandlers.AppendEntry(handler)
}

// RegisterDisconnectEventHandler registers a handler called on each
// disconnection. Returns a function to remove the handler.
func (c *Client) RegisterDisconnectEventHandler(
	handler DisconnectEventHandler,
) (unregister func()) {
	return c.disconnectHandlers.AppendEntry(handler)
}
