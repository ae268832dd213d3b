package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/compd-sh/compd/internal/client"
	"github.com/compd-sh/compd/internal/config"
	"github.com/compd-sh/compd/internal/daemon"
	"github.com/compd-sh/compd/internal/logger"
)

// CompleteParams configures the one-shot complete subcommand.
type CompleteParams struct {
	ConfigPath string
	Socket     string
	Buffer     string
	Cursor     int
	LogLevel   string
	Out        io.Writer
}

// Complete asks the daemon for suggestions and prints them one per
// line as "text<TAB>description", the format the shell integration
// scripts parse. When the daemon is not running the pipeline runs
// in-process instead, so completion works without a daemon (just
// without the warm spec cache).
func Complete(p CompleteParams) error {
	if p.Out == nil {
		p.Out = os.Stdout
	}

	cfg, err := config.Load(p.ConfigPath)
	if err != nil {
		return err
	}
	if p.Socket != "" {
		cfg.Socket = p.Socket
	}

	suggestions, err := client.New(cfg.Socket).Complete(p.Buffer, p.Cursor)
	if err != nil {
		suggestions, err = completeInProcess(cfg, p)
		if err != nil {
			return err
		}
	}

	for _, s := range suggestions {
		if s.Description != "" {
			fmt.Fprintf(p.Out, "%s\t%s\n", s.Text, s.Description)
		} else {
			fmt.Fprintln(p.Out, s.Text)
		}
	}
	return nil
}

func completeInProcess(cfg config.Config, p CompleteParams) ([]daemon.WireSuggestion, error) {
	log := logger.New(p.LogLevel, os.Stderr)
	handler := daemon.NewHandler(buildRegistry(cfg, log), log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()

	suggestions, err := handler.Complete(ctx, p.Buffer, p.Cursor)
	if err != nil {
		return nil, err
	}
	return daemon.ToWire(suggestions), nil
}
