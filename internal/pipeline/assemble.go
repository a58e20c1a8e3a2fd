// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
)

type (
	// Assembler turns a prepared application directory into an image.
	Assembler interface {
		Assemble(ctx context.Context, app *AppDir) (*Report, error)
	}

	// Report describes an assembled application.
	Report struct {
		RuntimeVersion string `toml:"runtime_version"`
		JavaVersion    int    `toml:"java_version"`
		Path           string `toml:"path"`
		Source         string `toml:"source"`
	}

	// ReportAssembler is the default Assembler. It reads the application
	// metadata and reports it without building an image.
	ReportAssembler struct{}
)

var _ Assembler = ReportAssembler{}

// Assemble implements Assembler.
func (ReportAssembler) Assemble(_ context.Context, app *AppDir) (*Report, error) {
	if app == nil || app.Metadata == nil {
		return nil, errors.New("application directory has no metadata")
	}
	return &Report{
		RuntimeVersion: app.Metadata.RuntimeVersion,
		JavaVersion:    app.Metadata.JavaVersion,
		Path:           app.Path,
		Source:         app.Source.Kind.String(),
	}, nil
}

// Run prepares input, hands the result to asm and releases the application
// directory afterwards. A nil asm means ReportAssembler.
func (p *Pipeline) Run(ctx context.Context, input string, asm Assembler) (_ *Report, err error) {
	if asm == nil {
		asm = ReportAssembler{}
	}

	app, err := p.PrepareApp(ctx, input)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return asm.Assemble(ctx, app)
}
