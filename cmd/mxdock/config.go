// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mxdock/mxdock/internal/config"
)

// newConfigCommand creates the `mxdock config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage mxdock configuration",
		Long: `Manage mxdock configuration.

Configuration is stored in:
  - Linux: ~/.config/mxdock/config.cue
  - macOS: ~/Library/Application Support/mxdock/config.cue
  - Windows: %LOCALAPPDATA%\mxdock\config.cue

A config.cue in the working directory is used when the user file is absent.
MXDOCK_* environment variables override file values (for example
MXDOCK_TOOLCHAIN_REBUILD=true) and command-line flags override both.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showConfig(cmd)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.initConfig(cmd)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showConfigPath(cmd)
		},
	})

	return cfgCmd
}

func (a *App) showConfig(cmd *cobra.Command) error {
	s, err := a.newSession(cmd)
	if err != nil {
		return a.fail(nil, opLoadConfig, a.flags.configFile, err)
	}

	source := "defaults"
	if s.configPath != "" {
		source = s.configPath
	}
	fmt.Fprintf(a.stdout, "// source: %s\n", source)
	fmt.Fprint(a.stdout, config.GenerateCUE(s.cfg))
	return nil
}

func (a *App) initConfig(cmd *cobra.Command) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return a.fail(nil, "create configuration", "", err)
	}
	cfgPath := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
	_, statErr := os.Stat(cfgPath)

	if _, err := config.CreateDefaultConfig(cfgDir); err != nil {
		return a.fail(nil, "create configuration", cfgDir, err)
	}

	if statErr == nil {
		fmt.Fprintf(a.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("•"), cfgPath)
		return nil
	}
	fmt.Fprintf(a.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), cfgPath)
	return nil
}

func (a *App) showConfigPath(cmd *cobra.Command) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return a.fail(nil, "resolve configuration directory", "", err)
	}
	active, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: a.flags.configFile})
	if err != nil {
		return a.fail(nil, opLoadConfig, a.flags.configFile, err)
	}
	if active == "" {
		active = SubtitleStyle.Render("(none, using defaults)")
	}

	fmt.Fprintf(a.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(a.stdout, "Config file: %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
	fmt.Fprintf(a.stdout, "Active file: %s\n", active)
	return nil
}
