package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go2tv.app/clipper/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigSampleCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigSampleCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "sample",
		Short:       "Print a commented configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), config.SampleConfig())
			return err
		},
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load and validate the configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configFlag)
			if err != nil {
				return err
			}
			source := path
			if !exists {
				source = "built-in defaults"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "configuration OK (%s)\n", source)
			fmt.Fprintln(out, renderFields([]field{
				{"capture.backend", cfg.Capture.Backend},
				{"capture.fps", fmt.Sprint(cfg.Capture.FPS)},
				{"capture.downsample", fmt.Sprint(cfg.Capture.Downsample)},
				{"encode.delay_policy", cfg.Encode.DelayPolicy},
				{"encode.dither", fmt.Sprint(cfg.Encode.Dither)},
				{"session.default_path", cfg.Session.DefaultPath},
				{"session.default_seconds", fmt.Sprint(cfg.Session.DefaultSeconds)},
				{"logging.level", cfg.Logging.Level},
			}))
			return nil
		},
	}
}
