// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func newInspectCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path>",
		Short: "Show what mxdock finds in a path without building",
		Long: `Show what mxdock finds in a path without building.

The report names the input form, the platform and Java versions and, for
project files, the compiler toolchain and image that a build would use.
Packaged projects are unpacked to a temporary directory that is removed
afterwards. No container engine is needed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runInspect(cmd, args[0])
		},
	}
}

func (a *App) runInspect(cmd *cobra.Command, input string) error {
	s, err := a.newSession(cmd)
	if err != nil {
		return a.fail(nil, opLoadConfig, a.flags.configFile, err)
	}
	if err := checkInput(input); err != nil {
		return a.fail(s, opReadInput, input, err)
	}

	ins, err := s.pipeline().Inspect(cmd.Context(), input)
	if err != nil {
		return a.fail(s, "inspect input", input, err)
	}

	out, err := toml.Marshal(ins)
	if err != nil {
		return a.fail(s, "encode report", input, err)
	}
	_, err = a.stdout.Write(out)
	return err
}
