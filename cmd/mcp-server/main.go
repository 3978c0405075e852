package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/launcher"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/mcpserver"
)

func main() {
	dataDir := os.Getenv("GDRB_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		dataDir = filepath.Join(home, ".gdrb")
	}
	logger := mcpserver.SetupLogger(dataDir)

	var session *mcpserver.Session
	var err error

	if portStr := os.Getenv("GDRB_ATTACH_PORT"); portStr != "" {
		// Attach to a bridge that is already running (e.g. the editor
		// started the game with GDRB_TOKEN exported).
		port, convErr := strconv.Atoi(portStr)
		if convErr != nil || port <= 0 {
			fmt.Fprintf(os.Stderr, "Invalid GDRB_ATTACH_PORT: %q\n", portStr)
			os.Exit(1)
		}
		token := os.Getenv("GDRB_TOKEN")
		if token == "" {
			fmt.Fprintln(os.Stderr, "GDRB_ATTACH_PORT requires GDRB_TOKEN")
			os.Exit(1)
		}
		session, err = mcpserver.Attach(port, token, logger)
	} else {
		hostCmd := os.Getenv("GDRB_HOST_CMD")
		if hostCmd == "" {
			fmt.Fprintln(os.Stderr, "Set GDRB_HOST_CMD to the game command, or GDRB_ATTACH_PORT + GDRB_TOKEN to attach")
			os.Exit(1)
		}

		tier := 1
		if t, convErr := strconv.Atoi(os.Getenv("GDRB_TIER")); convErr == nil {
			tier = t
		}
		session, err = mcpserver.LaunchAndAttach(launcher.Options{
			Command:       strings.Fields(hostCmd),
			Dir:           os.Getenv("GDRB_HOST_DIR"),
			Tier:          tier,
			DangerEnabled: os.Getenv("GDRB_ENABLE_DANGER") == "1",
			InputMode:     os.Getenv("GDRB_INPUT_MODE"),
			ForceWindowed: os.Getenv("GDRB_FORCE_WINDOWED") == "1",
			ReadyFile:     os.Getenv("GDRB_READY_FILE"),
		}, logger)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bridge session: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	app := mcpserver.NewMCPServerApp(session, logger)
	if err := app.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
