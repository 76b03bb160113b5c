// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/measnet/gateway/command"
	"github.com/measnet/gateway/errors"
	"github.com/measnet/gateway/sensor"
	"github.com/measnet/gateway/session"
)

func TestParseValidationTable(t *testing.T) {
	cases := []struct {
		name  string
		line  string
		state session.ConnectionState
		kind  errors.Kind
		ok    bool
	}{
		{"configure while connected", "CONFIGURE TEMP 50", session.Connected, 0, true},
		{"configure rate below range", "CONFIGURE TEMP 9", session.Connected, errors.FreqOutOfRange, false},
		{"configure rate above range", "CONFIGURE TEMP 1001", session.Connected, errors.FreqOutOfRange, false},
		{"configure unknown sensor", "CONFIGURE XYZ 100", session.Connected, errors.UnknownSensor, false},
		{"configure non-numeric rate", "CONFIGURE ADC0 fast", session.Connected, errors.FreqOutOfRange, false},
		{"configure missing rate", "CONFIGURE ADC0", session.Connected, errors.Syntax, false},
		{"start while disconnected", "START", session.Disconnected, errors.NotConnected, false},
		{"start while running", "START", session.Running, errors.AlreadyRunning, false},
		{"start while connected", "START", session.Connected, 0, true},
		{"stop while connected", "STOP", session.Connected, errors.NotRunning, false},
		{"stop while disconnected", "STOP", session.Disconnected, errors.NotConnected, false},
		{"stop while running", "STOP", session.Running, 0, true},
		{"disconnect while running", "DISCONNECT", session.Running, errors.DisallowedWhileRunning, false},
		{"disconnect while disconnected", "DISCONNECT", session.Disconnected, errors.NotConnected, false},
		{"disconnect while connected", "DISCONNECT", session.Connected, 0, true},
		{"shutdown while running", "SHUTDOWN", session.Running, errors.DisallowedWhileRunning, false},
		{"shutdown while disconnected", "SHUTDOWN", session.Disconnected, errors.NotConnected, false},
		{"connect while connected", "CONNECT 10.0.0.1", session.Connected, errors.Syntax, false},
		{"connect malformed address", "CONNECT 300.1.2.3", session.Disconnected, errors.Syntax, false},
		{"connect hostname rejected", "CONNECT device.local", session.Disconnected, errors.Syntax, false},
		{"connect missing address", "CONNECT", session.Disconnected, errors.Syntax, false},
		{"connect valid", "CONNECT 192.168.1.20", session.Disconnected, 0, true},
		{"unknown keyword", "RESTART", session.Connected, errors.Syntax, false},
		{"empty line", "   ", session.Connected, errors.Syntax, false},
		{"trailing tokens", "START now", session.Connected, errors.Syntax, false},
		{"help", "HELP", session.Disconnected, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := command.Parse(tc.line, tc.state)
			if tc.ok {
				require.NoError(t, err)
				require.NotNil(t, req)
				return
			}

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			require.Equal(t, tc.kind, e.Kind, "got kind %s", e.Kind)
		})
	}
}

func TestParseIsCaseInsensitive(t *testing.T) {
	req, err := command.Parse("configure temp 50", session.Connected)
	require.NoError(t, err)
	require.Equal(t, command.ActionConfigure, req.Action)
	require.Equal(t, sensor.Temp, req.Sensor)
	require.Equal(t, uint32(50), req.RateHz)

	req, err = command.Parse("connect 127.0.0.1", session.Disconnected)
	require.NoError(t, err)
	require.Equal(t, command.ActionConnect, req.Action)
	require.Equal(t, "127.0.0.1", req.Host)
}

func TestParseConfigureAcceptsLabels(t *testing.T) {
	// Multi-word labels do not survive whitespace tokenization, but the
	// single-word ones resolve like codes do.
	req, err := command.Parse("CONFIGURE Switches 100", session.Connected)
	require.NoError(t, err)
	require.Equal(t, sensor.Switches, req.Sensor)
}

func TestParseConfigureBoundaryRates(t *testing.T) {
	for _, rate := range []string{"10", "1000"} {
		req, err := command.Parse("CONFIGURE ADC1 "+rate, session.Connected)
		require.NoError(t, err, "rate %s", rate)
		require.Equal(t, command.ActionConfigure, req.Action)
	}
}

func TestParseConnectAgreesWithDispatch(t *testing.T) {
	// Addresses the parser accepts must also clear Connect's own check, or
	// the operator would see two differently worded rejections. Leading
	// zeros are the historically divergent case.
	for _, host := range []string{"01.2.3.4", "192.168.001.010"} {
		req, err := command.Parse("CONNECT "+host, session.Disconnected)
		require.NoError(t, err, "host %q", host)
		require.Equal(t, host, req.Host)
		require.True(t, session.ValidIPv4(host), "host %q", host)
	}
}

func TestExecuteConfigureUpdatesRateTable(t *testing.T) {
	client := session.NewClient()
	interp := command.NewInterpreter(client)

	req, err := interp.Execute(context.Background(), "CONFIGURE TEMP 50")
	require.NoError(t, err)
	require.Equal(t, command.ActionConfigure, req.Action)

	rate, ok := client.Rates().Get(sensor.Temp)
	require.True(t, ok)
	require.Equal(t, uint32(50), rate)
}

func TestExecuteRejectsInvalidWithoutDispatch(t *testing.T) {
	client := session.NewClient()
	interp := command.NewInterpreter(client)

	_, err := interp.Execute(context.Background(), "START")
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, errors.NotConnected, e.Kind)

	// Rejected commands do not enter the history.
	require.Empty(t, interp.History().Entries())
	require.Equal(t, session.Disconnected, client.State())
}

func TestExecuteRecordsHistory(t *testing.T) {
	client := session.NewClient()
	interp := command.NewInterpreter(client)

	_, err := interp.Execute(context.Background(), "  CONFIGURE PB 100  ")
	require.NoError(t, err)
	_, err = interp.Execute(context.Background(), "HELP")
	require.NoError(t, err)

	require.Equal(t, []string{"CONFIGURE PB 100", "HELP"}, interp.History().Entries())
}
