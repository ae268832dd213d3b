// Package cli implements the compd subcommands.
package cli

import (
	"github.com/compd-sh/compd/internal/config"
	"github.com/compd-sh/compd/internal/logger"
	"github.com/compd-sh/compd/internal/registry"
	"github.com/compd-sh/compd/internal/source"
)

// buildRegistry assembles the spec source chain and the registry from
// config: a user spec directory, when configured, shadows the embedded
// set.
func buildRegistry(cfg config.Config, log *logger.Logger) *registry.Registry {
	var src source.Source = source.NewEmbedded()
	if cfg.SpecDir != "" {
		src = source.NewLayered(source.NewDir(cfg.SpecDir), source.NewEmbedded())
	}
	return registry.New(src, cfg.CacheSize, log)
}
