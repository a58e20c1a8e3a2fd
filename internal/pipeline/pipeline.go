// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/mxdock/mxdock/internal/archive"
	"github.com/mxdock/mxdock/internal/classify"
	"github.com/mxdock/mxdock/internal/metadata"
	"github.com/mxdock/mxdock/internal/toolchain"
)

var (
	// ErrUnsupportedInput is the sentinel error wrapped by UnsupportedInputError.
	ErrUnsupportedInput = errors.New("unsupported input")

	// ErrNoCompiler is returned when a project-model database is found but
	// the pipeline was built without a Compiler.
	ErrNoCompiler = errors.New("no compiler configured")
)

type (
	// Compiler turns a project-model database into an application directory.
	// *toolchain.Builder implements it.
	Compiler interface {
		Build(ctx context.Context, projectDir, mprPath string) (*archive.Workspace, error)
	}

	// Pipeline turns any supported input form into an application directory.
	Pipeline struct {
		Compiler Compiler
		// Resolver is used by Inspect to name the toolchain of a database.
		Resolver toolchain.Resolver
		// TempDir is the parent of every temp directory; empty means the OS default.
		TempDir string
		// KeepTemp retains temp directories instead of deleting them.
		KeepTemp bool
		Logger   *log.Logger
	}

	// AppDir is a directory laid out as a compiled application. It owns the
	// temp directories created while producing it.
	AppDir struct {
		Path     string
		Metadata *metadata.Project
		// Source is the classification that produced the directory. For a
		// packaged project it describes the form found inside the package.
		Source classify.Source
		// Packaged reports whether the input was a packaged project.
		Packaged bool

		owned *scope
	}

	// UnsupportedInputError is returned when the input is none of the
	// supported forms.
	UnsupportedInputError struct {
		Path string
	}
)

var _ Compiler = (*toolchain.Builder)(nil)

// Error implements the error interface.
func (e *UnsupportedInputError) Error() string {
	return fmt.Sprintf("no supported files found in %s (expected a .mpk, .mpr or .mda file, or an extracted application)", e.Path)
}

// Unwrap returns ErrUnsupportedInput for errors.Is() compatibility.
func (e *UnsupportedInputError) Unwrap() error { return ErrUnsupportedInput }

// Close removes the temp directories owned by the app directory. It is safe
// to call more than once and on a nil AppDir.
func (a *AppDir) Close() error {
	if a == nil {
		return nil
	}
	return a.owned.release()
}

// PrepareApp classifies input and produces its application directory:
// a packaged project is unpacked first and its contents classified; a
// project-model database is compiled; a pre-built archive is extracted; an
// extracted application is used in place. The result must carry metadata
// with a parseable RuntimeVersion. On error every temp directory created
// here has been removed.
func (p *Pipeline) PrepareApp(ctx context.Context, input string) (_ *AppDir, err error) {
	logger := p.logger()
	sc := &scope{keep: p.KeepTemp, logger: logger}
	defer func() {
		if err != nil {
			_ = sc.release()
		}
	}()

	src, err := classify.Classify(input)
	if err != nil {
		return nil, err
	}
	logger.Debug("classified input", "path", src.Path, "kind", src.Kind)

	packaged := src.Kind == classify.PackagedProject
	if packaged {
		logger.Info("unpacking project package", "file", src.Path)
		ws, err := archive.Extract(ctx, src.Path, archive.WithTempDir(p.TempDir))
		if err != nil {
			return nil, err
		}
		sc.track(ws)

		src, err = classify.ClassifyContents(ws.Path())
		if err != nil {
			return nil, err
		}
		logger.Debug("classified package contents", "kind", src.Kind)
	}

	var dir string
	switch src.Kind {
	case classify.ModelDatabase:
		if p.Compiler == nil {
			return nil, ErrNoCompiler
		}
		ws, err := p.Compiler.Build(ctx, src.Root, src.Path)
		if err != nil {
			return nil, err
		}
		sc.track(ws)
		dir = ws.Path()
	case classify.PrebuiltArchive:
		logger.Info("extracting application archive", "file", src.Path)
		ws, err := archive.Extract(ctx, src.Path, archive.WithTempDir(p.TempDir))
		if err != nil {
			return nil, err
		}
		sc.track(ws)
		dir = ws.Path()
	case classify.ExtractedApp:
		dir = src.Path
	default:
		return nil, &UnsupportedInputError{Path: input}
	}

	meta, err := metadata.Require(dir)
	if err != nil {
		return nil, err
	}
	if _, err := meta.Version(); err != nil {
		return nil, err
	}

	return &AppDir{
		Path:     dir,
		Metadata: meta,
		Source:   src,
		Packaged: packaged,
		owned:    sc,
	}, nil
}

func (p *Pipeline) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.New(io.Discard)
}

// scope tracks the temp directories of one run so that they are released
// together.
type scope struct {
	workspaces []*archive.Workspace
	keep       bool
	logger     *log.Logger
}

func (s *scope) track(ws *archive.Workspace) {
	s.workspaces = append(s.workspaces, ws)
}

func (s *scope) release() error {
	if s == nil {
		return nil
	}
	var errs []error
	for i := len(s.workspaces) - 1; i >= 0; i-- {
		ws := s.workspaces[i]
		if s.keep {
			if !ws.Kept() {
				ws.Keep()
				s.logger.Info("keeping temporary directory", "path", ws.Path())
			}
			continue
		}
		if err := ws.Remove(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
