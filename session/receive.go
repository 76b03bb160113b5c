// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package session

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/measnet/gateway/internal/container"
	"github.com/measnet/gateway/wire"
)

// connectionSession owns one connection lifetime: the socket, the decoder
// reading from it, and the receive loop's join/cancellation bookkeeping.
// The loop is guaranteed joined (done closed) before the session is dropped.
type connectionSession struct {
	id   string
	conn net.Conn
	dec  *wire.Decoder

	// Serializes outgoing command lines so they never interleave.
	writeMu sync.Mutex

	// Cooperative shutdown flag checked by the receive loop. Set before
	// the socket is closed so the resulting read error is not reported as
	// a connection loss.
	closing atomic.Bool

	// Closed when the receive loop has exited.
	done chan struct{}

	// Receives the loop's exit error when the connection was lost rather
	// than closed deliberately. Buffered, sent at most once.
	lost *container.BufferChan[error]
}

func newConnectionSession(conn net.Conn) *connectionSession {
	return &connectionSession{
		id:   uuid.NewString(),
		conn: conn,
		dec:  wire.NewDecoder(conn),
		done: make(chan struct{}),
		lost: container.NewBufferChan[error](1),
	}
}

// writeLine sends one ASCII command line over the socket.
func (s *connectionSession) writeLine(line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.conn.Write([]byte(line)); err != nil {
		return classifyDialError(err)
	}
	return nil
}

// receiveLoop runs on its own goroutine for the lifetime of the connection,
// decoding frames and routing them into the sample store and rate table.
// All blocking happens inside the transport reads owned by the decoder.
func (c *Client) receiveLoop(s *connectionSession) {
	ctx := context.Background()
	defer close(s.done)

	for !s.closing.Load() {
		msg, err := s.dec.Next()
		if err != nil {
			// Deliberate teardown closes the socket out from under the
			// read; only a genuine loss is reported, and only once.
			if !s.closing.Load() {
				s.lost.Send(err)
			}
			return
		}

		switch m := msg.(type) {
		case *wire.RateMessage:
			c.log.Message(ctx, "rate table received", m)

			if dropped := c.rates.Apply(m.Rates); dropped > 0 {
				c.dropped.Add(uint64(dropped))
				c.log.Warn(ctx, "dropped rate records with unknown sensor ids",
					slog.Int("count", dropped),
				)
			}

			if rate, ok := c.rates.Get(ReferenceSensor); ok {
				c.window.Update(rate)
			}

		case *wire.BatchMessage:
			for _, rec := range m.Samples {
				if !rec.ID.Valid() {
					c.dropped.Add(1)
					continue
				}
				c.store.Push(rec.ID, float64(rec.Value), rec.TimestampUS)
			}
		}
	}
}

// watch waits for the receive loop to exit and performs the forced
// transition to Disconnected when the exit was unsolicited.
func (c *Client) watch(s *connectionSession) {
	<-s.done

	select {
	case err := <-s.lost.C:
		c.handleConnectionLoss(s, err)
	default:
		// Deliberate teardown; the transition owner did the bookkeeping.
	}
}

// handleConnectionLoss is the forced Disconnected transition driven by the
// receive loop rather than by a user call.
func (c *Client) handleConnectionLoss(s *connectionSession, err error) {
	ctx := context.Background()

	c.mu.Lock()
	defer c.mu.Unlock()

	// A user-initiated transition may have torn this session down while we
	// waited for the lock.
	if c.sess != s {
		return
	}

	_ = s.conn.Close()
	c.sess = nil
	c.peer = ""
	c.store.Reset()
	c.state.Store(int32(Disconnected))

	reason := classifyStreamError(err)
	c.log.Warn(ctx, "connection lost",
		slog.String("connection_id", s.id),
		slog.String("reason", reason),
	)

	event := DisconnectEvent{
		ConnectionID: s.id,
		Unsolicited:  true,
		Reason:       reason,
		Err:          err,
	}
	for handler := range c.disconnectHandlers.All() {
		handler(event)
	}
}
