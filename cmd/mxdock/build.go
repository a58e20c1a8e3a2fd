// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mxdock/mxdock/internal/issue"
)

func newBuildCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "build <path>",
		Short: "Prepare the compiled application for an image build",
		Long: `Prepare the compiled application for an image build.

<path> is a packaged project (.mpk), a project file (.mpr), an application
archive (.mda), or a directory holding one of them or an extracted
application. Project files are compiled in a container first.

On success the platform version of the application is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runBuild(cmd, args[0])
		},
	}
}

func (a *App) runBuild(cmd *cobra.Command, input string) error {
	s, err := a.newSession(cmd)
	if err != nil {
		return a.fail(nil, opLoadConfig, a.flags.configFile, err)
	}
	if err := checkInput(input); err != nil {
		return a.fail(s, opReadInput, input, err)
	}

	report, err := s.pipeline().Run(cmd.Context(), input, nil)
	if err != nil {
		return a.fail(s, "build application", input, err)
	}
	s.logger.Debug("application ready", "source", report.Source, "java", report.JavaVersion)

	fmt.Fprintln(a.stdout, report.RuntimeVersion)
	return nil
}

// checkInput reports a missing or unreadable input path before any work
// is done.
func checkInput(input string) error {
	if _, err := os.Stat(input); err != nil {
		return issue.NewErrorContext().
			WithOperation(opReadInput).
			WithResource(input).
			WithIssue(issue.InputNotFoundId).
			WithSuggestion("Check the spelling of the path").
			Wrap(err).
			BuildError()
	}
	return nil
}
