package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/uvatlas/internal/config"
	"github.com/Faultbox/uvatlas/internal/logger"
)

// app carries state shared by subcommands once flags are parsed.
type app struct {
	overrides *config.Overrides
	cfg       *config.Config
	log       *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "atlastool",
		Short: "Generate UV atlases for triangle meshes",
		Long: `atlastool segments a mesh into charts, packs them into one or more
texture atlases and writes the re-indexed mesh with its new texture
coordinates. Settings come from atlastool.yaml, the user config
directory and command-line flags, in increasing priority.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	a.overrides = config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newGenerateCommand(a))
	cmd.AddCommand(newInfoCommand(a))
	cmd.AddCommand(newConfigCommand(a))

	return cmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.overrides)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	a.cfg = cfg
	a.log = logger.Log
	return nil
}
