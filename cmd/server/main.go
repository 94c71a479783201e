// Package main is the entry point for the joinAGame roster server.
//
// The main package stays minimal: read configuration, build the logger, hand
// both to internal/server and block until shutdown. Everything else lives in
// internal/.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sakif/joinagame/internal/config"
	"github.com/sakif/joinagame/internal/logging"
	"github.com/sakif/joinagame/internal/server"
)

func main() {
	// === 1. FLAGS ===
	// -config points at a YAML file. Without it, joinagame.yaml is looked up
	// in "." and "./config"; JOINAGAME_* environment variables override both.
	configPath := flag.String("config", os.Getenv("JOINAGAME_CONFIG"), "path to a YAML config file")
	flag.Parse()

	// === 2. CONFIGURATION ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		// No logger yet; the level and format come from the config.
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	// === 3. LOGGING ===
	logger := logging.Setup(os.Stderr, cfg.Log.Format, cfg.Log.Level)

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
