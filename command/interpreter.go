// Copyright (c) Measurement Network.
// Licensed under the MIT License.

// Package command parses and validates operator text commands and
// dispatches them to the session client. Validation alone never changes
// connection state.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/measnet/gateway/errors"
	"github.com/measnet/gateway/sensor"
	"github.com/measnet/gateway/session"
)

// Action identifies a parsed operator command.
type Action int

const (
	ActionConnect Action = iota
	ActionDisconnect
	ActionStart
	ActionStop
	ActionShutdown
	ActionConfigure
	ActionHelp
)

func (a Action) String() string {
	switch a {
	case ActionConnect:
		return "CONNECT"
	case ActionDisconnect:
		return "DISCONNECT"
	case ActionStart:
		return "START"
	case ActionStop:
		return "STOP"
	case ActionShutdown:
		return "SHUTDOWN"
	case ActionConfigure:
		return "CONFIGURE"
	case ActionHelp:
		return "HELP"
	default:
		return "unknown"
	}
}

// Request is a validated operator command.
type Request struct {
	Action Action

	// Host is set for CONNECT.
	Host string

	// Sensor and RateHz are set for CONFIGURE.
	Sensor sensor.ID
	RateHz uint32
}

// Parse validates a single line of operator input against the grammar, the
// value ranges, and the current connection state, in that order. Keywords
// and sensor identifiers are case-insensitive.
func Parse(line string, state session.ConnectionState) (*Request, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil, syntaxErr("empty command")
	}

	keyword := strings.ToUpper(tokens[0])
	switch keyword {
	case "CONNECT":
		return parseConnect(tokens, state)
	case "DISCONNECT":
		if len(tokens) != 1 {
			return nil, syntaxErr("DISCONNECT takes no arguments")
		}
		if err := checkDisconnectState(state); err != nil {
			return nil, err
		}
		return &Request{Action: ActionDisconnect}, nil
	case "START":
		if len(tokens) != 1 {
			return nil, syntaxErr("START takes no arguments")
		}
		switch state {
		case session.Disconnected:
			return nil, &errors.Error{
				Kind:    errors.NotConnected,
				Message: "START requires an active connection",
			}
		case session.Running:
			return nil, &errors.Error{
				Kind:    errors.AlreadyRunning,
				Message: "streaming is already running",
			}
		}
		return &Request{Action: ActionStart}, nil
	case "STOP":
		if len(tokens) != 1 {
			return nil, syntaxErr("STOP takes no arguments")
		}
		switch state {
		case session.Disconnected:
			return nil, &errors.Error{
				Kind:    errors.NotConnected,
				Message: "STOP requires an active connection",
			}
		case session.Connected:
			return nil, &errors.Error{
				Kind:    errors.NotRunning,
				Message: "streaming is not running",
			}
		}
		return &Request{Action: ActionStop}, nil
	case "SHUTDOWN":
		if len(tokens) != 1 {
			return nil, syntaxErr("SHUTDOWN takes no arguments")
		}
		if err := checkDisconnectState(state); err != nil {
			return nil, err
		}
		return &Request{Action: ActionShutdown}, nil
	case "CONFIGURE":
		return parseConfigure(tokens)
	case "HELP":
		if len(tokens) != 1 {
			return nil, syntaxErr("HELP takes no arguments")
		}
		return &Request{Action: ActionHelp}, nil
	default:
		return nil, syntaxErr(
			fmt.Sprintf("unknown command %q", tokens[0]),
		)
	}
}

func parseConnect(tokens []string, state session.ConnectionState) (*Request, error) {
	if len(tokens) != 2 {
		return nil, syntaxErr("CONNECT requires exactly one IP address")
	}

	host := tokens[1]
	if !session.ValidIPv4(host) {
		return nil, &errors.Error{
			Kind:          errors.Syntax,
			Message:       "IP address must be valid IPv4 format",
			PropertyName:  "ip_address",
			PropertyValue: host,
		}
	}

	// Reconnection while connected is rejected, not queued.
	if state != session.Disconnected {
		return nil, syntaxErr("already connected; DISCONNECT first")
	}

	return &Request{Action: ActionConnect, Host: host}, nil
}

func parseConfigure(tokens []string) (*Request, error) {
	if len(tokens) != 3 {
		return nil, syntaxErr("CONFIGURE requires a sensor id and a rate")
	}

	id, ok := sensor.Canonical(tokens[1])
	if !ok {
		return nil, &errors.Error{
			Kind:          errors.UnknownSensor,
			Message:       fmt.Sprintf("unknown sensor %q", tokens[1]),
			PropertyName:  "sensor_id",
			PropertyValue: tokens[1],
		}
	}

	rate, err := parseRate(tokens[2])
	if err != nil {
		return nil, err
	}

	return &Request{Action: ActionConfigure, Sensor: id, RateHz: rate}, nil
}

// parseRate accepts an all-decimal-digit token within the valid rate range.
func parseRate(token string) (uint32, error) {
	rangeErr := &errors.Error{
		Kind: errors.FreqOutOfRange,
		Message: fmt.Sprintf(
			"rate must be an integer between %d and %d Hz",
			sensor.MinRateHz,
			sensor.MaxRateHz,
		),
		PropertyName:  "rate_hz",
		PropertyValue: token,
	}

	if token == "" {
		return 0, rangeErr
	}

	var rate uint64
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, rangeErr
		}
		rate = rate*10 + uint64(r-'0')
		if rate > sensor.MaxRateHz {
			return 0, rangeErr
		}
	}

	if rate < sensor.MinRateHz {
		return 0, rangeErr
	}
	return uint32(rate), nil
}

// checkDisconnectState enforces the shared DISCONNECT/SHUTDOWN
// preconditions: not running first, then actually connected.
func checkDisconnectState(state session.ConnectionState) error {
	switch state {
	case session.Running:
		return &errors.Error{
			Kind:    errors.DisallowedWhileRunning,
			Message: "stop streaming first",
		}
	case session.Disconnected:
		return &errors.Error{
			Kind:    errors.NotConnected,
			Message: "not connected",
		}
	}
	return nil
}

func syntaxErr(msg string) *errors.Error {
	return &errors.Error{Kind: errors.Syntax, Message: msg}
}

// Interpreter dispatches validated commands to the session client.
type Interpreter struct {
	client  *session.Client
	history *History
}

// NewInterpreter returns an interpreter bound to a session client.
func NewInterpreter(client *session.Client) *Interpreter {
	return &Interpreter{
		client:  client,
		history: NewHistory(),
	}
}

// History exposes the interpreter's command history.
func (i *Interpreter) History() *History {
	return i.history
}

// Execute parses a line against the client's current state and, if valid,
// performs the requested action. The returned request reports what was
// done; the error, if any, carries the precise rejection kind.
func (i *Interpreter) Execute(ctx context.Context, line string) (*Request, error) {
	req, err := Parse(line, i.client.State())
	if err != nil {
		return nil, err
	}

	switch req.Action {
	case ActionConnect:
		err = i.client.Connect(ctx, req.Host)
	case ActionDisconnect:
		err = i.client.Disconnect(ctx)
	case ActionStart:
		err = i.client.Start(ctx)
	case ActionStop:
		err = i.client.Stop(ctx)
	case ActionShutdown:
		err = i.client.Shutdown(ctx)
	case ActionConfigure:
		err = i.client.Configure(ctx, req.Sensor, req.RateHz)
	case ActionHelp:
		// Display only; nothing to dispatch.
	}

	if err != nil {
		return nil, err
	}

	// Only successful commands enter the history.
	i.history.Add(strings.TrimSpace(line))
	return req, nil
}
