// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the mxdock command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mxdock",
		Short: "Turn low-code projects into container images",
		Long: TitleStyle.Render("mxdock") + SubtitleStyle.Render(" - Turn low-code projects into container images") + `

mxdock accepts a project in any of its delivery forms and prepares the
compiled application for the image build:

  - a packaged project (.mpk)
  - a project directory holding a project file (.mpr)
  - a pre-built application archive (.mda)
  - an extracted application (a directory with model/metadata.json)

Project files are compiled inside a container with the compiler that
matches the project's platform version.

` + SubtitleStyle.Render("Examples:") + `
  mxdock build ./MyApp.mpk      Prepare a packaged project
  mxdock inspect ./MyApp        Show what mxdock finds in a directory
  mxdock doctor                 Check the container engine
  mxdock config show            Show the effective configuration`,
		SilenceUsage: true,
	}

	f := &app.flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/mxdock/config.cue)")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&f.engine, "engine", "", "container engine to try first (podman or docker)")
	pf.StringVar(&f.cacheDir, "cache-dir", "", "directory for downloaded compiler archives")
	pf.StringVar(&f.tempDir, "temp-dir", "", "parent directory for temporary working directories")
	pf.StringVar(&f.definitionsDir, "definitions-dir", "", "directory holding the compiler script and Dockerfiles")
	pf.BoolVar(&f.keepTemp, "keep-temp", false, "keep temporary directories for inspection")
	pf.BoolVar(&f.rebuild, "rebuild", false, "rebuild the compiler image even if it exists")

	rootCmd.AddCommand(
		newBuildCommand(app),
		newInspectCommand(app),
		newDoctorCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the CLI and exits the process with the command's exit code.
// This is called by main.main().
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))

	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}

// handleError prints errors that commands have not reported themselves,
// such as flag parsing failures.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// fail reports err on stderr and returns the ExitError for it. s may be nil
// when the failure happened before the configuration was loaded.
func (a *App) fail(s *session, operation, resource string, err error) error {
	issueID, code := classifyError(err)
	err = wrapActionable(err, operation, resource, issueID)

	verbose, stylePath := a.flags.verbose, ""
	logger := discardLogger
	if s != nil {
		verbose, stylePath, logger = s.cfg.UI.Verbose, s.stylePath(), s.logger
	} else if verbose {
		stylePath = "auto"
	}

	styled := fmt.Sprintf("%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
	svcErr := newServiceError(err, issueID, styled)
	renderServiceError(a.stderr, svcErr, stylePath, logger)
	return &ExitError{Code: code, Err: svcErr}
}
