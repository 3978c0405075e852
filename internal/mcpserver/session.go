package mcpserver

import (
	"fmt"
	"log"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/bridgeclient"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/launcher"
)

// Session owns one bridge connection and, when this process launched the
// host, the host itself.
type Session struct {
	client *bridgeclient.Client
	host   *launcher.Host
	logger *log.Logger
}

// Attach connects to a bridge that is already running.
func Attach(port int, token string, logger *log.Logger) (*Session, error) {
	client := bridgeclient.New(port, token, logger)
	if err := client.ConnectWithRetry(5); err != nil {
		return nil, err
	}
	return &Session{client: client, logger: logger}, nil
}

// LaunchAndAttach spawns the host, waits for its banner, and connects.
func LaunchAndAttach(opts launcher.Options, logger *log.Logger) (*Session, error) {
	opts.Logger = logger
	host, err := launcher.Launch(opts)
	if err != nil {
		return nil, err
	}

	client := bridgeclient.New(host.Banner.Port, host.Banner.Token, logger)
	if err := client.ConnectWithRetry(10); err != nil {
		host.Close()
		return nil, fmt.Errorf("host ready but unreachable: %w", err)
	}
	return &Session{client: client, host: host, logger: logger}, nil
}

// Client returns the bridge connection.
func (s *Session) Client() *bridgeclient.Client {
	return s.client
}

// Close disconnects and, when this session owns the host, shuts it down.
func (s *Session) Close() {
	s.client.Close()
	if s.host != nil {
		s.host.Close()
	}
}
