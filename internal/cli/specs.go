package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/compd-sh/compd/internal/config"
	"github.com/compd-sh/compd/internal/logger"
	"github.com/compd-sh/compd/internal/source"
)

// SpecsParams configures the specs subcommand.
type SpecsParams struct {
	ConfigPath string
	Out        io.Writer
}

// Specs lists every completable command and where its spec comes from.
func Specs(p SpecsParams) error {
	if p.Out == nil {
		p.Out = os.Stdout
	}

	cfg, err := config.Load(p.ConfigPath)
	if err != nil {
		return err
	}

	userSpecs := make(map[string]struct{})
	if cfg.SpecDir != "" {
		for _, name := range source.NewDir(cfg.SpecDir).List() {
			userSpecs[name] = struct{}{}
		}
	}

	reg := buildRegistry(cfg, logger.New("error", os.Stderr))
	for _, name := range reg.Known() {
		origin := "embedded"
		if _, ok := userSpecs[name]; ok {
			origin = cfg.SpecDir
		}
		fmt.Fprintf(p.Out, "%s\t%s\n", name, origin)
	}
	return nil
}
