package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/compd-sh/compd/internal/client"
	"github.com/compd-sh/compd/internal/config"
	"github.com/compd-sh/compd/internal/logger"
	"github.com/compd-sh/compd/pkg/version"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

// StatusParams configures the status subcommand.
type StatusParams struct {
	ConfigPath string
	Out        io.Writer
}

// Status prints the daemon configuration, socket liveness and the set
// of completable commands.
func Status(p StatusParams) error {
	if p.Out == nil {
		p.Out = os.Stdout
	}

	cfg, err := config.Load(p.ConfigPath)
	if err != nil {
		return err
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("compd %s", version.Version)))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Daemon"))
	b.WriteString("\n")
	writeKV(&b, "socket", cfg.Socket)
	if client.New(cfg.Socket).Ping() {
		writeKV(&b, "state", successStyle.Render("running"))
	} else {
		writeKV(&b, "state", errorStyle.Render("not running"))
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Configuration"))
	b.WriteString("\n")
	configFile := p.ConfigPath
	if configFile == "" {
		configFile = config.Find(config.DefaultDir())
	}
	if configFile == "" {
		configFile = "(defaults)"
	}
	writeKV(&b, "file", configFile)
	writeKV(&b, "cache_size", fmt.Sprintf("%d", cfg.CacheSize))
	writeKV(&b, "max_conns", fmt.Sprintf("%d", cfg.MaxConns))
	writeKV(&b, "request_timeout", fmt.Sprintf("%dms", cfg.RequestTimeoutMs))
	if cfg.SpecDir != "" {
		writeKV(&b, "spec_dir", cfg.SpecDir)
	}
	b.WriteString("\n")

	reg := buildRegistry(cfg, logger.New("error", os.Stderr))
	known := reg.Known()
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Specs (%d)", len(known))))
	b.WriteString("\n")
	writeKV(&b, "commands", strings.Join(known, ", "))

	fmt.Fprintln(p.Out, b.String())
	return nil
}

func writeKV(b *strings.Builder, key, value string) {
	b.WriteString(fmt.Sprintf("  %s %s\n", keyStyle.Render(key+":"), valueStyle.Render(value)))
}
