// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

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

func TestNewServiceError_PanicsOnNilErr(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on nil Err, got none")
		}
		if msg, ok := r.(string); !ok || msg != "ServiceError: Err must not be nil" {
			t.Fatalf("unexpected panic value: %v", r)
		}
	}()

	newServiceError(nil, 0, "")
}

func TestServiceError_ErrorAndUnwrap(t *testing.T) {
	t.Parallel()

	underlying := errors.New("underlying error")
	svcErr := newServiceError(underlying, 0, "")

	if svcErr.Error() != "underlying error" {
		t.Errorf("Error() = %q, want %q", svcErr.Error(), "underlying error")
	}
	if !errors.Is(svcErr, underlying) {
		t.Error("errors.Is should find underlying error via Unwrap")
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantID   issue.Id
		wantCode int
	}{
		{"ambiguous", &classify.AmbiguousInputError{Dir: "/in", Ext: ".mda", Candidates: []string{"a.mda", "b.mda"}}, issue.AmbiguousInputId, ExitUsage},
		{"unsupported", &pipeline.UnsupportedInputError{Path: "/in"}, issue.UnsupportedInputId, ExitUsage},
		{"metadata", &metadata.MetadataReadError{Path: "/in/model/metadata.json"}, issue.MetadataReadId, ExitFailure},
		{"version", fmt.Errorf("parse: %w", version.ErrVersionFormat), issue.VersionFormatId, ExitFailure},
		{"extraction", fmt.Errorf("unzip: %w", archive.ErrExtraction), issue.ExtractionFailedId, ExitFailure},
		{"no engine", &container.EngineNotAvailableError{Engine: "any"}, issue.ContainerEngineNotFoundId, ExitFailure},
		{"builder", &container.BuilderFailedError{Engine: "docker", ExitCode: 2}, issue.BuilderFailedId, ExitFailure},
		{"network", &toolchain.NetworkError{URL: "https://example.com/a.tar.gz", Status: "404 Not Found"}, issue.DownloadFailedId, ExitFailure},
		{"definitions", &DefinitionsNotFoundError{Searched: []string{"definitions"}}, issue.DefinitionsNotFoundId, ExitFailure},
		{"invalid config", &config.InvalidConfigError{}, issue.ConfigLoadFailedId, ExitFailure},
		{"permission", fmt.Errorf("open: %w", fs.ErrPermission), issue.PermissionDeniedId, ExitFailure},
		{"input", issue.NewErrorContext().WithOperation(opReadInput).WithIssue(issue.InputNotFoundId).Wrap(fs.ErrNotExist).BuildError(), issue.InputNotFoundId, ExitFailure},
		{"config file", issue.NewErrorContext().WithOperation(opLoadConfig).WithIssue(issue.ConfigLoadFailedId).Wrap(errors.New("syntax")).BuildError(), issue.ConfigLoadFailedId, ExitFailure},
		{"input permission", issue.NewErrorContext().WithOperation(opReadInput).WithIssue(issue.InputNotFoundId).Wrap(fs.ErrPermission).BuildError(), issue.PermissionDeniedId, ExitFailure},
		{"untagged actionable", issue.NewErrorContext().WithOperation("build application").Wrap(errors.New("boom")).BuildError(), 0, ExitFailure},
		{"wrapped service error", newServiceError(&pipeline.UnsupportedInputError{Path: "/in"}, 0, ""), issue.UnsupportedInputId, ExitUsage},
		{"unknown", errors.New("boom"), 0, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotID, gotCode := classifyError(tt.err)
			if gotID != tt.wantID {
				t.Errorf("issue ID = %d, want %d", gotID, tt.wantID)
			}
			if gotCode != tt.wantCode {
				t.Errorf("exit code = %d, want %d", gotCode, tt.wantCode)
			}
		})
	}
}

func TestWrapActionable(t *testing.T) {
	t.Parallel()

	err := wrapActionable(&pipeline.UnsupportedInputError{Path: "/in"}, "build application", "/in", issue.UnsupportedInputId)
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *issue.ActionableError, got %T", err)
	}
	if ae.Operation != "build application" || ae.Resource != "/in" || len(ae.Suggestions) == 0 {
		t.Errorf("unexpected actionable error %+v", ae)
	}
	if !errors.Is(err, pipeline.ErrUnsupportedInput) {
		t.Error("wrapping must keep the sentinel reachable")
	}

	// Already actionable errors keep their own context.
	orig := issue.NewErrorContext().WithOperation(opReadInput).Wrap(fs.ErrNotExist).BuildError()
	if got := wrapActionable(orig, "build application", "/in", issue.InputNotFoundId); got != orig {
		t.Errorf("wrapActionable rewrapped an actionable error: %v", got)
	}
}

func TestRenderServiceError(t *testing.T) {
	t.Parallel()

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		renderServiceError(&buf, nil, "notty", discardLogger)
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("styled message only", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		renderServiceError(&buf, newServiceError(errors.New("test"), issue.UnsupportedInputId, "styled output\n"), "", discardLogger)
		if buf.String() != "styled output\n" {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("with issue", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		renderServiceError(&buf, newServiceError(errors.New("test"), issue.AmbiguousInputId, "styled\n"), "notty", log.New(&buf))
		out := buf.String()
		if !strings.HasPrefix(out, "styled\n") || !strings.Contains(out, "More than one candidate") {
			t.Errorf("output = %q", out)
		}
	})
}
