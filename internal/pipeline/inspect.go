// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"io/fs"

	"github.com/mxdock/mxdock/internal/archive"
	"github.com/mxdock/mxdock/internal/classify"
	"github.com/mxdock/mxdock/internal/metadata"
)

// Inspection describes an input without compiling it or touching a
// container engine.
type Inspection struct {
	Input    string `toml:"input"`
	Kind     string `toml:"kind"`
	Path     string `toml:"path"`
	Packaged bool   `toml:"packaged"`
	// Version is the RuntimeVersion of an application, or the product version
	// of a project-model database.
	Version     string `toml:"version"`
	JavaVersion int    `toml:"java_version,omitempty"`

	// Toolchain fields are only set for project-model databases.
	Variant     string `toml:"variant,omitempty"`
	Image       string `toml:"image,omitempty"`
	ArchiveName string `toml:"archive,omitempty"`
}

// Inspect classifies input and reports its version. Packaged projects are
// unpacked into a temp directory that is always removed before returning.
func (p *Pipeline) Inspect(ctx context.Context, input string) (*Inspection, error) {
	src, err := classify.Classify(input)
	if err != nil {
		return nil, err
	}

	ins := &Inspection{Input: input}
	if src.Kind == classify.PackagedProject {
		ins.Packaged = true
		ws, err := archive.Extract(ctx, src.Path, archive.WithTempDir(p.TempDir))
		if err != nil {
			return nil, err
		}
		defer func() { _ = ws.Remove() }()

		src, err = classify.ClassifyContents(ws.Path())
		if err != nil {
			return nil, err
		}
	}
	ins.Kind = src.Kind.String()
	ins.Path = src.Path

	switch src.Kind {
	case classify.ModelDatabase:
		pv, err := metadata.ReadProductVersion(ctx, src.Path)
		if err != nil {
			return nil, err
		}
		sel, err := p.Resolver.Resolve(pv)
		if err != nil {
			return nil, err
		}
		ins.Version = pv
		ins.JavaVersion = sel.JavaVersion
		ins.Variant = sel.Variant.String()
		ins.Image = sel.ImageTag()
		ins.ArchiveName = sel.ArchiveName
	case classify.PrebuiltArchive:
		data, err := archive.ReadEntry(src.Path, metadata.RelPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &metadata.MetadataReadError{Path: src.Path, Reason: "archive has no " + metadata.RelPath}
			}
			return nil, err
		}
		meta, err := metadata.Parse(src.Path, data)
		if err != nil {
			return nil, err
		}
		if err := fillApp(ins, meta); err != nil {
			return nil, err
		}
	case classify.ExtractedApp:
		meta, err := metadata.Require(src.Path)
		if err != nil {
			return nil, err
		}
		if err := fillApp(ins, meta); err != nil {
			return nil, err
		}
	default:
		return nil, &UnsupportedInputError{Path: input}
	}

	// Paths inside a removed package directory are meaningless to callers.
	if ins.Packaged {
		ins.Path = ""
	}
	return ins, nil
}

func fillApp(ins *Inspection, meta *metadata.Project) error {
	if _, err := meta.Version(); err != nil {
		return err
	}
	ins.Version = meta.RuntimeVersion
	ins.JavaVersion = meta.JavaVersion
	return nil
}
