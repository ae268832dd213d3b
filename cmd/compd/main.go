// Package main is the entry point for the compd CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	compdcli "github.com/compd-sh/compd/internal/cli"
	"github.com/compd-sh/compd/internal/setup"
	"github.com/compd-sh/compd/internal/shell"
	"github.com/compd-sh/compd/pkg/version"
)

func main() {
	app := &cli.Command{
		Name:    "compd",
		Usage:   "Fast, universal terminal autocomplete",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("COMPD_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to config file",
				Sources: cli.EnvVars("COMPD_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "daemon",
				Usage: "Start the autocomplete daemon",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "socket",
						Aliases: []string{"s"},
						Usage:   "Unix socket path",
						Sources: cli.EnvVars("COMPD_SOCKET"),
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					return compdcli.RunDaemon(compdcli.DaemonParams{
						ConfigPath: cmd.String("config"),
						Socket:     cmd.String("socket"),
						LogLevel:   cmd.String("log-level"),
					})
				},
			},
			{
				Name:      "complete",
				Usage:     "Get completion suggestions for a command buffer",
				ArgsUsage: "BUFFER",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "cursor",
						Aliases: []string{"c"},
						Value:   -1,
						Usage:   "Cursor position in the buffer (defaults to end of buffer)",
					},
					&cli.StringFlag{
						Name:    "socket",
						Aliases: []string{"s"},
						Usage:   "Unix socket path",
						Sources: cli.EnvVars("COMPD_SOCKET"),
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() == 0 {
						return fmt.Errorf("buffer argument required")
					}
					buffer := cmd.Args().Get(0)
					cursor := int(cmd.Int("cursor"))
					if cursor < 0 {
						cursor = len(buffer)
					}

					return compdcli.Complete(compdcli.CompleteParams{
						ConfigPath: cmd.String("config"),
						Socket:     cmd.String("socket"),
						Buffer:     buffer,
						Cursor:     cursor,
						LogLevel:   cmd.String("log-level"),
					})
				},
			},
			{
				Name:  "hook",
				Usage: "Print shell integration code",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "shell",
						Value:   "auto",
						Usage:   "Shell type: bash, zsh, fish or auto",
						Sources: cli.EnvVars("COMPD_SHELL"),
					},
					&cli.StringFlag{
						Name:    "socket",
						Aliases: []string{"s"},
						Usage:   "Unix socket path baked into the hook",
						Sources: cli.EnvVars("COMPD_SOCKET"),
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					binary, _ := os.Executable()
					script, err := shell.Script(shell.Detect(cmd.String("shell")), shell.Params{
						Binary: binary,
						Socket: cmd.String("socket"),
					})
					if err != nil {
						return err
					}
					fmt.Println(script)
					return nil
				},
			},
			{
				Name:  "setup",
				Usage: "Install or uninstall the shell integration hook",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "shell",
						Value:   "auto",
						Usage:   "Shell type: bash, zsh, fish or auto",
						Sources: cli.EnvVars("COMPD_SHELL"),
					},
					&cli.BoolFlag{
						Name:    "uninstall",
						Aliases: []string{"u"},
						Usage:   "Remove the hook instead of installing it",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					shellName := shell.Detect(cmd.String("shell"))

					var result *setup.Result
					var err error
					if cmd.Bool("uninstall") {
						result, err = setup.UninstallHook(shellName)
					} else {
						result, err = setup.InstallHook(shellName)
					}
					if err != nil {
						return err
					}

					fmt.Println(result.Message)
					if result.Updated && !cmd.Bool("uninstall") {
						fmt.Println("\nTo activate in the current shell, run:")
						fmt.Printf("  source %s\n", result.RCFile)
					}
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "Show daemon and configuration status",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return compdcli.Status(compdcli.StatusParams{
						ConfigPath: cmd.String("config"),
					})
				},
			},
			{
				Name:  "specs",
				Usage: "List completable commands and their spec origin",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return compdcli.Specs(compdcli.SpecsParams{
						ConfigPath: cmd.String("config"),
					})
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
