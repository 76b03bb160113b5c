// Copyright (c) Measurement Network.
// Licensed under the MIT License.

// Package session owns the TCP session with the measurement device: the
// connection lifecycle state machine, the background receive loop, and the
// windowed view handed to consumers.
package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/measnet/gateway/errors"
	"github.com/measnet/gateway/internal/container"
	"github.com/measnet/gateway/internal/log"
	"github.com/measnet/gateway/internal/wallclock"
	"github.com/measnet/gateway/sensor"
	"github.com/measnet/gateway/store"
	"github.com/measnet/gateway/wire"
)

// ErrClientClosed is returned for any call made after Shutdown.
var ErrClientClosed = stderrors.New("the session client has been shut down")

type (
	// Client maintains at most one live connection to a measurement device
	// and mediates every state transition. State-changing calls are
	// serialized by a single transition lock; a call arriving while a
	// transition is in flight fails with ErrTransitionInProgress.
	Client struct {
		// Transition lock. Guards sess, peer, and all state changes.
		mu    sync.Mutex
		state atomic.Int32

		settings *Settings
		provider ConnectionProvider

		store  *store.SampleStore
		rates  *sensor.RateTable
		window *TimeWindow

		// Current connection, nil when disconnected.
		sess *connectionSession
		peer string

		// CONFIGURE commands accepted while disconnected, transmitted in
		// order on the next successful Connect.
		pendingMu sync.Mutex
		pending   []sensor.Rate

		connectHandlers    *container.AppendableListWithRemoval[ConnectEventHandler]
		disconnectHandlers *container.AppendableListWithRemoval[DisconnectEventHandler]

		// Malformed-but-benign records dropped from otherwise well-framed
		// messages.
		dropped atomic.Uint64

		closed atomic.Bool
		log    log.Logger
	}

	// ClientOption configures the client at construction.
	ClientOption func(*Client)
)

// WithLogger sets the slog logger for the session client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log.Wrap(logger)
	}
}

// WithSettings sets the transport settings for the session client.
func WithSettings(settings *Settings) ClientOption {
	return func(c *Client) {
		c.settings = settings
	}
}

// WithConnectionProvider overrides the connection provider built from the
// settings. Intended for injecting test transports.
func WithConnectionProvider(provider ConnectionProvider) ClientOption {
	return func(c *Client) {
		c.provider = provider
	}
}

// NewClient constructs a disconnected client with user options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		store:  store.New(),
		rates:  sensor.NewRateTable(),
		window: NewTimeWindow(),

		connectHandlers:    container.NewAppendableListWithRemoval[ConnectEventHandler](),
		disconnectHandlers: container.NewAppendableListWithRemoval[DisconnectEventHandler](),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.settings == nil {
		c.settings = NewSettings()
	}
	if c.settings.ConnectTimeout == 0 {
		c.settings.ConnectTimeout = DefaultConnectTimeout
	}

	return c
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// Rates returns the configured-rate table.
func (c *Client) Rates() *sensor.RateTable {
	return c.rates
}

// WindowUS returns the current visible-window width in microseconds.
func (c *Client) WindowUS() uint64 {
	return c.window.US()
}

// DataReady returns a channel signaled whenever new samples arrive.
func (c *Client) DataReady() <-chan struct{} {
	return c.store.Ready()
}

// DroppedRecords returns the count of benign malformed records dropped from
// otherwise well-framed messages.
func (c *Client) DroppedRecords() uint64 {
	return c.dropped.Load()
}

// Connect opens a TCP session to the device at the given IPv4 host. The
// attempt is bounded by the configured connect timeout, and failures are not
// retried automatically; reissuing Connect is the operator's retry.
func (c *Client) Connect(ctx context.Context, host string) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	if !c.mu.TryLock() {
		return ErrTransitionInProgress
	}
	defer c.mu.Unlock()

	if c.State() != Disconnected {
		return &errors.Error{
			Kind: errors.Syntax,
			Message: fmt.Sprintf(
				"already connected to %s; disconnect first",
				c.peer,
			),
		}
	}

	if !ValidIPv4(host) {
		return &errors.Error{
			Kind:          errors.Syntax,
			Message:       "invalid IPv4 address",
			PropertyName:  "host",
			PropertyValue: host,
		}
	}

	provider := c.provider
	if provider == nil {
		var err error
		if provider, err = c.settings.provider(); err != nil {
			return err
		}
	}

	dialCtx, cancel := wallclock.Instance.WithTimeoutCause(
		ctx,
		c.settings.ConnectTimeout,
		context.DeadlineExceeded,
	)
	defer cancel()

	conn, err := provider(dialCtx, host)
	if err != nil {
		var gwErr *errors.Error
		if stderrors.As(err, &gwErr) {
			return gwErr
		}
		return classifyDialError(err)
	}

	c.store.Reset()
	c.window.Reset()

	sess := newConnectionSession(conn)
	c.sess = sess
	c.peer = host
	c.state.Store(int32(Connected))

	go c.receiveLoop(sess)
	go c.watch(sess)

	c.log.Info(ctx, "connected",
		slog.String("connection_id", sess.id),
		slog.String("host", host),
	)

	c.flushPending(ctx, sess)

	event := ConnectEvent{ConnectionID: sess.id, Address: host}
	for handler := range c.connectHandlers.All() {
		handler(event)
	}

	return nil
}

// Start begins streaming. The device acknowledges with rate-table messages
// multiplexed into the sample stream; the receive loop picks those up and
// sizes the time window.
func (c *Client) Start(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	if !c.mu.TryLock() {
		return ErrTransitionInProgress
	}
	defer c.mu.Unlock()

	switch c.State() {
	case Disconnected:
		return &errors.Error{
			Kind:    errors.NotConnected,
			Message: "cannot start streaming while disconnected",
		}
	case Running:
		return &errors.Error{
			Kind:    errors.AlreadyRunning,
			Message: "streaming is already running",
		}
	}

	if err := c.sess.writeLine(wire.StartLine); err != nil {
		return err
	}

	c.state.Store(int32(Running))
	c.log.Info(ctx, "streaming started",
		slog.String("connection_id", c.sess.id),
	)
	return nil
}

// Stop halts streaming but keeps the connection open.
func (c *Client) Stop(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	if !c.mu.TryLock() {
		return ErrTransitionInProgress
	}
	defer c.mu.Unlock()

	switch c.State() {
	case Disconnected:
		return &errors.Error{
			Kind:    errors.NotConnected,
			Message: "cannot stop streaming while disconnected",
		}
	case Connected:
		return &errors.Error{
			Kind:    errors.NotRunning,
			Message: "streaming is not running",
		}
	}

	if err := c.sess.writeLine(wire.StopLine); err != nil {
		return err
	}

	c.state.Store(int32(Connected))
	c.log.Info(ctx, "streaming stopped",
		slog.String("connection_id", c.sess.id),
	)
	return nil
}

// Disconnect closes the connection, stopping and joining the receive loop
// before returning. Streaming must be stopped first.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	if !c.mu.TryLock() {
		return ErrTransitionInProgress
	}
	defer c.mu.Unlock()

	if err := c.checkDisconnectLocked(); err != nil {
		return err
	}

	c.teardownLocked(ctx, "disconnected by user")
	return nil
}

// Shutdown sends the device SHUTDOWN command, then disconnects and renders
// the client terminal. The process-exit decision belongs to the caller.
func (c *Client) Shutdown(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	if !c.mu.TryLock() {
		return ErrTransitionInProgress
	}
	defer c.mu.Unlock()

	if err := c.checkDisconnectLocked(); err != nil {
		return err
	}

	// The device powers down on receipt; a write failure here still ends
	// in a local disconnect.
	if err := c.sess.writeLine(wire.ShutdownLine); err != nil {
		c.log.Warn(ctx, "failed to send SHUTDOWN",
			slog.Any("error", err),
		)
	}

	c.teardownLocked(ctx, "device shutdown requested")
	c.closed.Store(true)
	return nil
}

// Configure validates and applies a rate configuration. The local rate
// table is updated immediately; the device's own rate-table broadcast is
// the authority that can later override it. While disconnected the command
// is queued and transmitted on the next successful Connect.
func (c *Client) Configure(
	ctx context.Context,
	id sensor.ID,
	rateHz uint32,
) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	if !id.Valid() {
		return &errors.Error{
			Kind:          errors.UnknownSensor,
			Message:       "unknown sensor id",
			PropertyName:  "sensor_id",
			PropertyValue: uint32(id),
		}
	}

	if rateHz < sensor.MinRateHz || rateHz > sensor.MaxRateHz {
		return &errors.Error{
			Kind: errors.FreqOutOfRange,
			Message: fmt.Sprintf(
				"rate must be between %d and %d Hz",
				sensor.MinRateHz,
				sensor.MaxRateHz,
			),
			PropertyName:  "rate_hz",
			PropertyValue: rateHz,
		}
	}

	// Optimistic local update, independent of transmission.
	c.rates.Set(id, rateHz)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		c.pendingMu.Lock()
		c.pending = append(c.pending, sensor.Rate{ID: id, RateHz: rateHz})
		c.pendingMu.Unlock()

		c.log.Debug(ctx, "queued CONFIGURE while disconnected",
			slog.String("sensor", id.Code()),
			slog.Uint64("rate_hz", uint64(rateHz)),
		)
		return nil
	}

	return c.sess.writeLine(wire.ConfigureLine(id, rateHz))
}

// View is the boundary handed to the renderer: connection state, rate
// table, and the windowed sample series for the selected sensors (all
// sensors when none are given).
type View struct {
	State    ConnectionState
	Peer     string
	WindowUS uint64
	Rates    map[string]uint32
	Samples  store.Snapshot
}

// View returns a consistent snapshot for display purposes.
func (c *Client) View(ids ...sensor.ID) View {
	window := c.window.US()
	snap := c.store.Snapshot(window)

	if len(ids) > 0 {
		var filtered store.Snapshot
		filtered.TMin, filtered.TMax = snap.TMin, snap.TMax
		for _, id := range ids {
			if id.Valid() {
				filtered.Series[id] = snap.Series[id]
			}
		}
		snap = filtered
	}

	c.mu.Lock()
	peer := c.peer
	c.mu.Unlock()

	return View{
		State:    c.State(),
		Peer:     peer,
		WindowUS: window,
		Rates:    c.rates.Snapshot(),
		Samples:  snap,
	}
}

// checkDisconnectLocked enforces the shared preconditions of Disconnect and
// Shutdown.
func (c *Client) checkDisconnectLocked() error {
	switch c.State() {
	case Running:
		return &errors.Error{
			Kind:    errors.DisallowedWhileRunning,
			Message: "stop streaming before disconnecting",
		}
	case Disconnected:
		return &errors.Error{
			Kind:    errors.NotConnected,
			Message: "not connected",
		}
	}
	return nil
}

// teardownLocked stops and joins the receive loop, closes the socket, and
// publishes a user-initiated disconnect event. Caller holds the transition
// lock.
func (c *Client) teardownLocked(ctx context.Context, reason string) {
	sess := c.sess

	// Flag first, then close the socket to unblock a pending read; the
	// loop observes one or the other and exits promptly.
	sess.closing.Store(true)
	_ = sess.conn.Close()
	<-sess.done

	c.sess = nil
	c.peer = ""
	c.store.Reset()
	c.state.Store(int32(Disconnected))

	c.log.Info(ctx, "disconnected",
		slog.String("connection_id", sess.id),
		slog.String("reason", reason),
	)

	event := DisconnectEvent{
		ConnectionID: sess.id,
		Unsolicited:  false,
		Reason:       reason,
	}
	for handler := range c.disconnectHandlers.All() {
		handler(event)
	}
}

// flushPending transmits CONFIGURE commands queued while disconnected.
// Caller holds the transition lock.
func (c *Client) flushPending(ctx context.Context, sess *connectionSession) {
	c.pendingMu.Lock()
	pending := c.pending
	c.pending = nil
	c.pendingMu.Unlock()

	for i, r := range pending {
		if err := sess.writeLine(wire.ConfigureLine(r.ID, r.RateHz)); err != nil {
			c.log.Warn(ctx, "failed to send queued CONFIGURE",
				slog.String("sensor", r.ID.Code()),
				slog.Any("error", err),
			)

			// Keep the unsent tail, failed entry included, for the next
			// successful connection.
			c.pendingMu.Lock()
			c.pending = append(pending[i:], c.pending...)
			c.pendingMu.Unlock()
			return
		}
	}
}

// ValidIPv4 accepts strictly dotted-quad IPv4 addresses: a.b.c.d with each
// octet in 0..255 and nothing else. Leading zeros within an octet are
// tolerated, matching the device's own address handling.
func ValidIPv4(host string) bool {
	parts := strings.Split(host, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if part == "" || len(part) > 3 {
			return false
		}
		n := 0
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
			n = n*10 + int(r-'0')
		}
		if n > 255 {
			return false
		}
	}
	return true
}
