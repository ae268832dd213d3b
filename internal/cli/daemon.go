package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/compd-sh/compd/internal/config"
	"github.com/compd-sh/compd/internal/daemon"
	"github.com/compd-sh/compd/internal/logger"
)

// DaemonParams configures the daemon subcommand.
type DaemonParams struct {
	ConfigPath string
	Socket     string
	LogLevel   string
}

// RunDaemon starts the completion daemon and blocks until SIGINT or
// SIGTERM.
func RunDaemon(p DaemonParams) error {
	cfg, err := config.Load(p.ConfigPath)
	if err != nil {
		return err
	}
	if p.Socket != "" {
		cfg.Socket = p.Socket
	}
	if p.LogLevel != "" {
		cfg.LogLevel = p.LogLevel
	}

	log := logger.New(cfg.LogLevel, os.Stderr)
	reg := buildRegistry(cfg, log)
	handler := daemon.NewHandler(reg, log)

	server := daemon.New(daemon.Config{
		Socket:          cfg.Socket,
		MaxConns:        int64(cfg.MaxConns),
		RequestTimeout:  cfg.RequestTimeout(),
		MaxRequestBytes: cfg.MaxRequestBytes,
	}, handler, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}
