// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/measnet/gateway/errors"
)

func TestDefaultSettings(t *testing.T) {
	s := NewSettings()
	require.Equal(t, DefaultPort, s.Port)
	require.Equal(t, DefaultConnectTimeout, s.ConnectTimeout)
	require.False(t, s.UseTLS)
}

func TestSettingsFromConnectionString(t *testing.T) {
	s, err := NewSettingsFromConnectionString(
		"Port=50013;ConnectTimeout=PT5S",
	)
	require.NoError(t, err)
	require.Equal(t, 50013, s.Port)
	require.Equal(t, 5*time.Second, s.ConnectTimeout)
	require.False(t, s.UseTLS)
}

func TestSettingsFromConnectionStringTrailingDelimiter(t *testing.T) {
	s, err := NewSettingsFromConnectionString("Port=50013;")
	require.NoError(t, err)
	require.Equal(t, 50013, s.Port)
}

func TestSettingsTLSFields(t *testing.T) {
	s, err := NewSettingsFromConnectionString(
		"UseTls=true;CaFile=/etc/measnet/ca.pem;" +
			"CertFile=/etc/measnet/client.pem;KeyFile=/etc/measnet/client.key",
	)
	require.NoError(t, err)
	require.True(t, s.UseTLS)
	require.Equal(t, "/etc/measnet/ca.pem", s.CAFile)
	require.Equal(t, "/etc/measnet/client.pem", s.CertFile)
	require.Equal(t, "/etc/measnet/client.key", s.KeyFile)
}

func TestSettingsInvalidPort(t *testing.T) {
	for _, port := range []string{"nope", "0", "-1", "70000"} {
		_, err := NewSettingsFromConnectionString("Port=" + port)

		var e *errors.Error
		require.ErrorAs(t, err, &e, "port %q", port)
		require.Equal(t, errors.ConfigurationInvalid, e.Kind)
		require.Equal(t, "Port", e.PropertyName)
	}
}

func TestSettingsInvalidTimeout(t *testing.T) {
	_, err := NewSettingsFromConnectionString("ConnectTimeout=5s")

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, errors.ConfigurationInvalid, e.Kind)
	require.Equal(t, "ConnectTimeout", e.PropertyName)
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("MEASGW_PORT", "50014")
	t.Setenv("MEASGW_CONNECT_TIMEOUT", "PT1S")

	s, err := NewSettingsFromEnv()
	require.NoError(t, err)
	require.Equal(t, 50014, s.Port)
	require.Equal(t, time.Second, s.ConnectTimeout)
}

func TestValidateTLSRejectsOrphanFiles(t *testing.T) {
	s := NewSettings()
	s.CAFile = "/etc/measnet/ca.pem"

	err := s.validateTLS()
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, errors.ConfigurationInvalid, e.Kind)
	require.Equal(t, "UseTls", e.PropertyName)
}
