// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type (
	// doctorCheck is one line of the doctor report.
	doctorCheck struct {
		name   string
		detail string
		err    error
	}
)

func newDoctorCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the container engine and toolchain definitions",
		Long: `Check the container engine and toolchain definitions.

Only project files (.mpr) need a container engine and the definitions
directory. Application archives and extracted applications are handled
without either.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runDoctor(cmd)
		},
	}
}

func (a *App) runDoctor(cmd *cobra.Command) error {
	s, err := a.newSession(cmd)
	if err != nil {
		return a.fail(nil, opLoadConfig, a.flags.configFile, err)
	}

	checks := []doctorCheck{
		s.checkEngine(cmd.Context()),
		s.checkDefinitions(),
	}

	fmt.Fprintln(a.stdout, TitleStyle.Render("mxdock doctor"))
	fmt.Fprintln(a.stdout)
	configFile := SubtitleStyle.Render("(using defaults)")
	if s.configPath != "" {
		configFile = s.configPath
	}
	fmt.Fprintf(a.stdout, "  %s %s: %s\n", SubtitleStyle.Render("•"), CmdStyle.Render("Config file"), configFile)
	fmt.Fprintf(a.stdout, "  %s %s: %s\n", SubtitleStyle.Render("•"), CmdStyle.Render("Cache"), s.cacheDir())

	failed := 0
	for _, c := range checks {
		if c.err != nil {
			failed++
			fmt.Fprintf(a.stdout, "  %s %s: %s\n", ErrorStyle.Render("✗"), CmdStyle.Render(c.name), formatErrorForDisplay(c.err, s.cfg.UI.Verbose))
			continue
		}
		fmt.Fprintf(a.stdout, "  %s %s: %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(c.name), c.detail)
	}

	if failed > 0 {
		fmt.Fprintln(a.stdout)
		fmt.Fprintln(a.stdout, WarningStyle.Render(fmt.Sprintf("%d check(s) failed; project files cannot be compiled", failed)))
		cmd.SilenceErrors = true
		return &ExitError{Code: ExitFailure}
	}
	return nil
}

func (s *session) checkEngine(ctx context.Context) doctorCheck {
	c := doctorCheck{name: "Container engine"}
	engine, err := s.engine()
	if err != nil {
		c.err = err
		return c
	}
	v, err := engine.Version(ctx)
	if err != nil {
		c.err = fmt.Errorf("%s found at %s but not responding: %w", engine.Name(), engine.BinaryPath(), err)
		return c
	}
	c.detail = fmt.Sprintf("%s %s (%s)", engine.Name(), v, engine.BinaryPath())
	return c
}

func (s *session) checkDefinitions() doctorCheck {
	c := doctorCheck{name: "Definitions"}
	c.detail, c.err = resolveDefinitionsDir(string(s.cfg.DefinitionsDir))
	return c
}
