// Copyright (c) Measurement Network.
// Licensed under the MIT License.

// measgw is the operator console for the measurement gateway client. It
// reads commands from stdin, dispatches them through the command
// interpreter, and reports session events.
package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/measnet/gateway/command"
	"github.com/measnet/gateway/errors"
	"github.com/measnet/gateway/session"
)

func main() {
	var (
		configFile string
		logLevel   string
		connectTo  string
	)
	pflag.StringVar(&configFile, "config", "", "path to a measgw config file")
	pflag.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pflag.StringVar(&connectTo, "connect", "", "device IPv4 address to connect to at startup")
	pflag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	}))

	settings, err := loadSettings(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	client := session.NewClient(
		session.WithLogger(logger),
		session.WithSettings(settings),
	)

	client.RegisterDisconnectEventHandler(func(ev session.DisconnectEvent) {
		if ev.Unsolicited {
			fmt.Printf("\nconnection lost: %s\n> ", ev.Reason)
		}
	})

	interp := command.NewInterpreter(client)
	ctx := context.Background()

	if connectTo == "" {
		// The config file may name a default device.
		connectTo = viper.GetString("device.host")
	}
	if connectTo != "" {
		dispatch(ctx, interp, "CONNECT "+connectTo)
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}

		if !dispatch(ctx, interp, line) {
			return
		}
		fmt.Print("> ")
	}
}

// dispatch runs one operator command; it returns false once the application
// should exit.
func dispatch(ctx context.Context, interp *command.Interpreter, line string) bool {
	req, err := interp.Execute(ctx, line)
	if err != nil {
		var gwErr *errors.Error
		if stderrors.As(err, &gwErr) {
			fmt.Printf("error (%s): %s\n", gwErr.Kind, gwErr.Message)
		} else {
			fmt.Printf("error: %v\n", err)
		}
		return true
	}

	switch req.Action {
	case command.ActionHelp:
		fmt.Print(command.HelpText)
	case command.ActionShutdown:
		fmt.Println("device shut down; exiting")
		return false
	default:
		fmt.Println("ok")
	}
	return true
}

// loadSettings reads configuration from a TOML-formatted file called
// "measgw.toml", looked up in /etc/measnet and then the current directory
// for convenience, unless an explicit path was given. Missing files fall
// back to defaults; the environment overrides the file.
func loadSettings(configFile string) (*session.Settings, error) {
	settings := session.NewSettings()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("measgw")
		viper.AddConfigPath("/etc/measnet")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err == nil {
		if err := viper.UnmarshalKey("device", settings); err != nil {
			return nil, err
		}
	} else if configFile != "" {
		return nil, err
	}

	env, err := session.NewSettingsFromEnv()
	if err != nil {
		return nil, err
	}
	if env.Port != session.DefaultPort {
		settings.Port = env.Port
	}
	if env.ConnectTimeout != session.DefaultConnectTimeout {
		settings.ConnectTimeout = env.ConnectTimeout
	}
	if env.UseTLS {
		settings.UseTLS = true
		settings.CertFile = env.CertFile
		settings.KeyFile = env.KeyFile
		settings.KeyFilePassword = env.KeyFilePassword
		settings.CAFile = env.CAFile
	}

	return settings, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
