// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package session

import (
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/measnet/gateway/errors"
	"github.com/sosodev/duration"
)

// DefaultPort is the device's well-known TCP port.
const DefaultPort = 50012

// DefaultConnectTimeout bounds a single connect attempt.
const DefaultConnectTimeout = 3 * time.Second

// Settings holds the transport configuration of the client. The device host
// itself is not part of the settings; it is an argument to Connect.
type Settings struct {
	Port           int
	ConnectTimeout time.Duration

	UseTLS          bool
	CertFile        string
	KeyFile         string
	KeyFilePassword string
	CAFile          string

	tlsConfig *tls.Config
}

// NewSettings returns default settings: plain TCP on the well-known port
// with a bounded connect timeout.
func NewSettings() *Settings {
	return &Settings{
		Port:           DefaultPort,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// Connection string example:
// Port=50012;ConnectTimeout=PT3S;UseTls=true;CaFile=/etc/measnet/ca.pem.
func NewSettingsFromConnectionString(connStr string) (*Settings, error) {
	s := NewSettings()
	if err := s.applySettingsMap(parseToSettingsMap(connStr, ";")); err != nil {
		return nil, err
	}
	return s, nil
}

// Environment variable example:
// MEASGW_PORT=50012
// MEASGW_CONNECT_TIMEOUT=PT3S
// MEASGW_USE_TLS=true.
func NewSettingsFromEnv() (*Settings, error) {
	s := NewSettings()
	if err := s.applySettingsMap(
		parseToSettingsMap(os.Environ(), "="),
	); err != nil {
		return nil, err
	}
	return s, nil
}

func parseToSettingsMap(input any, delimiter string) map[string]string {
	settingsMap := make(map[string]string)

	switch v := input.(type) {
	case string:
		// Parse connection string.
		v = strings.TrimSuffix(v, delimiter)
		params := strings.Split(v, delimiter)
		for _, param := range params {
			kv := strings.SplitN(param, "=", 2)
			if len(kv) == 2 {
				k := strings.ToLower(strings.TrimSpace(kv[0]))
				v := strings.TrimSpace(kv[1])
				settingsMap[k] = v
			}
		}
	case []string:
		// Parse environment variables.
		for _, envVar := range v {
			kv := strings.SplitN(envVar, delimiter, 2)
			if len(kv) == 2 && strings.HasPrefix(kv[0], "MEASGW_") {
				k := strings.ToLower(
					strings.ReplaceAll(
						strings.TrimPrefix(kv[0], "MEASGW_"),
						"_",
						"",
					),
				)
				v := strings.TrimSpace(kv[1])
				settingsMap[k] = v
			}
		}
	}
	return settingsMap
}

func (s *Settings) applySettingsMap(settingsMap map[string]string) error {
	if value, exists := settingsMap["port"]; exists {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			return &errors.Error{
				Kind:          errors.ConfigurationInvalid,
				Message:       "invalid Port in settings",
				PropertyName:  "Port",
				PropertyValue: value,
			}
		}
		s.Port = port
	}

	if value, exists := settingsMap["connecttimeout"]; exists {
		timeout, err := duration.Parse(value)
		if err != nil {
			return &errors.Error{
				Kind:          errors.ConfigurationInvalid,
				Message:       "invalid ConnectTimeout in settings",
				PropertyName:  "ConnectTimeout",
				PropertyValue: value,
			}
		}
		s.ConnectTimeout = timeout.ToTimeDuration()
	}

	s.UseTLS = settingsMap["usetls"] == "true"

	assignIfExists(settingsMap, "certfile", &s.CertFile)
	assignIfExists(settingsMap, "keyfile", &s.KeyFile)
	assignIfExists(settingsMap, "keyfilepassword", &s.KeyFilePassword)
	assignIfExists(settingsMap, "cafile", &s.CAFile)

	return nil
}

// validateTLS validates and sets TLS related config.
func (s *Settings) validateTLS() error {
	if s.UseTLS {
		if s.tlsConfig == nil {
			s.tlsConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
				MaxVersion: tls.VersionTLS13,
			}
		}

		// Both CertFile and KeyFile must be provided together.
		// An error will be returned if only one of them is provided.
		if s.CertFile != "" || s.KeyFile != "" {
			var cert tls.Certificate
			var err error

			if s.KeyFilePassword != "" {
				cert, err = loadX509KeyPairWithPassword(
					s.CertFile,
					s.KeyFile,
					s.KeyFilePassword,
				)
			} else {
				cert, err = tls.LoadX509KeyPair(s.CertFile, s.KeyFile)
			}

			if err != nil {
				return &errors.Error{
					Kind:         errors.ConfigurationInvalid,
					Message:      "X509 key pair cannot be loaded",
					PropertyName: "CertFile/KeyFile",
					NestedError:  err,
				}
			}

			s.tlsConfig.Certificates = []tls.Certificate{cert}
		}

		if s.CAFile != "" {
			caCertPool, err := loadCACertPool(s.CAFile)
			if err != nil {
				return &errors.Error{
					Kind: errors.ConfigurationInvalid,
					Message: "cannot load a CA certificate pool " +
						"from CaFile",
					PropertyName:  "CaFile",
					PropertyValue: s.CAFile,
					NestedError:   err,
				}
			}
			// Set RootCAs for server verification.
			s.tlsConfig.RootCAs = caCertPool
		}
	} else if s.CertFile != "" ||
		s.KeyFile != "" ||
		s.CAFile != "" ||
		s.tlsConfig != nil {
		return &errors.Error{
			Kind:          errors.ConfigurationInvalid,
			Message:       "TLS should not be set when UseTls is disabled",
			PropertyName:  "UseTls",
			PropertyValue: s.UseTLS,
		}
	}

	return nil
}

// provider builds the ConnectionProvider described by the settings.
func (s *Settings) provider() (ConnectionProvider, error) {
	if err := s.validateTLS(); err != nil {
		return nil, err
	}

	if s.UseTLS {
		return TLSConnection(s.Port, ConstantTLSConfig(s.tlsConfig)), nil
	}
	return TCPConnection(s.Port), nil
}

// assignIfExists assigns non-empty string values from settingsMap to the
// corresponding fields in settings.
func assignIfExists(
	settingsMap map[string]string,
	key string,
	field *string,
) {
	if value, exists := settingsMap[key]; exists && value != "" {
		*field = value
	}
}
