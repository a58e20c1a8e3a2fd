// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/mxdock/mxdock/internal/archive"
	"github.com/mxdock/mxdock/internal/classify"
	"github.com/mxdock/mxdock/internal/config"
	"github.com/mxdock/mxdock/internal/container"
	"github.com/mxdock/mxdock/internal/issue"
	"github.com/mxdock/mxdock/internal/metadata"
	"github.com/mxdock/mxdock/internal/pipeline"
	"github.com/mxdock/mxdock/internal/toolchain"
	"github.com/mxdock/mxdock/internal/version"
)

const (
	opReadInput  = "read input"
	opLoadConfig = "load configuration"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. Always create via newServiceError.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// hints are the one-line suggestions attached to errors that do not already
// carry their own.
var hints = map[issue.Id]string{
	issue.InputNotFoundId:           "Check the path; mxdock accepts .mpk, .mpr and .mda files or their directories",
	issue.AmbiguousInputId:          "Pass the file you want to use directly",
	issue.UnsupportedInputId:        "Run 'mxdock inspect <path>' to see what mxdock finds",
	issue.MetadataReadId:            "Export the application archive again from the modeler",
	issue.VersionFormatId:           "Versions are dot-separated integers such as 10.6.1.0",
	issue.ExtractionFailedId:        "Check that the archive is a complete zip file",
	issue.ContainerEngineNotFoundId: "Install Podman or Docker, then run 'mxdock doctor'",
	issue.BuilderFailedId:           "Re-run with --verbose to see the engine output",
	issue.DownloadFailedId:          "Check your network connection or set download_base_url",
	issue.DefinitionsNotFoundId:     "Pass --definitions-dir or run mxdock next to definitions/",
	issue.PermissionDeniedId:        "Check the permissions of the input, cache and temporary directories",
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError maps a failure to an issue catalog ID and a process exit code.
func classifyError(err error) (issueID issue.Id, code int) {
	code = ExitFailure

	switch {
	case errors.Is(err, classify.ErrAmbiguousInput):
		return issue.AmbiguousInputId, ExitUsage
	case errors.Is(err, pipeline.ErrUnsupportedInput):
		return issue.UnsupportedInputId, ExitUsage
	case errors.Is(err, metadata.ErrMetadataRead):
		issueID = issue.MetadataReadId
	case errors.Is(err, version.ErrVersionFormat):
		issueID = issue.VersionFormatId
	case errors.Is(err, archive.ErrExtraction):
		issueID = issue.ExtractionFailedId
	case errors.Is(err, container.ErrNoEngineAvailable):
		issueID = issue.ContainerEngineNotFoundId
	case errors.Is(err, container.ErrBuilderFailed):
		issueID = issue.BuilderFailedId
	case errors.Is(err, toolchain.ErrNetwork):
		issueID = issue.DownloadFailedId
	case errors.Is(err, ErrDefinitionsNotFound):
		issueID = issue.DefinitionsNotFoundId
	case errors.Is(err, config.ErrInvalidConfig):
		issueID = issue.ConfigLoadFailedId
	case errors.Is(err, os.ErrPermission):
		issueID = issue.PermissionDeniedId
	default:
		issueID, _ = issue.IssueOf(err)
	}

	return issueID, code
}

// wrapActionable gives err an operation, a resource and the catalog hint for
// issueID unless it is already an ActionableError.
func wrapActionable(err error, operation, resource string, issueID issue.Id) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}
	ctx := issue.NewErrorContext().WithOperation(operation).WithResource(resource)
	if hint, ok := hints[issueID]; ok {
		ctx = ctx.WithSuggestion(hint)
	}
	return ctx.Wrap(err).BuildError()
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderServiceError prints the styled message, then the issue help section
// when stylePath is set.
func renderServiceError(stderr io.Writer, svcErr *ServiceError, stylePath string, logger *log.Logger) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	if svcErr.IssueID == 0 || stylePath == "" {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render(stylePath)
		if renderErr != nil {
			logger.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "err", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}
