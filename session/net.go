// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package session

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"

	"github.com/measnet/gateway/errors"
)

// ConnectionProvider is a function that returns a net.Conn connected to a
// measurement device that is ready to read from and write to. The host is
// supplied at Connect time; everything else (port, timeouts, TLS) is bound
// when the provider is built.
type ConnectionProvider func(ctx context.Context, host string) (net.Conn, error)

// TCPConnection is a ConnectionProvider that connects to a device over
// plain TCP.
func TCPConnection(port int) ConnectionProvider {
	return func(ctx context.Context, host string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(
			ctx,
			"tcp",
			net.JoinHostPort(host, strconv.Itoa(port)),
		)
		if err != nil {
			return nil, classifyDialError(err)
		}
		return conn, nil
	}
}

// TLSConfigProvider is a function that returns a *tls.Config to be used when
// opening a TLS connection to a device. See tls.Config for more information
// on TLS configuration options.
type TLSConfigProvider func(context.Context) (*tls.Config, error)

// ConstantTLSConfig is a TLSConfigProvider that returns an unchanging
// *tls.Config. This can be used if the TLS configuration does not need to
// be updated between connections to the device.
func ConstantTLSConfig(config *tls.Config) TLSConfigProvider {
	return func(context.Context) (*tls.Config, error) {
		return config, nil
	}
}

// TLSConnection is a ConnectionProvider that connects to a device with TLS
// over TCP given a TLSConfigProvider.
func TLSConnection(
	port int,
	tlsConfigProvider TLSConfigProvider,
) ConnectionProvider {
	return func(ctx context.Context, host string) (net.Conn, error) {
		if tlsConfigProvider == nil {
			// use the zero configuration by default
			tlsConfigProvider = ConstantTLSConfig(nil)
		}

		config, err := tlsConfigProvider(ctx)
		if err != nil {
			return nil, &errors.Error{
				Kind:        errors.ConfigurationInvalid,
				Message:     "error getting TLS configuration",
				NestedError: err,
			}
		}

		d := tls.Dialer{Config: config}
		conn, err := d.DialContext(
			ctx,
			"tcp",
			net.JoinHostPort(host, strconv.Itoa(port)),
		)
		if err != nil {
			return nil, classifyDialError(err)
		}
		return conn, nil
	}
}
