// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/mxdock/mxdock/internal/archive"
	"github.com/mxdock/mxdock/internal/classify"
	"github.com/mxdock/mxdock/internal/container"
	"github.com/mxdock/mxdock/internal/metadata"
)

const (
	// ScriptRelPath is the compiler entry script inside the definitions directory.
	ScriptRelPath = "scripts/mxbuild"

	// ProjectMount is where the project directory is mounted in the compiler container.
	ProjectMount = "/workdir/project"
	// OutputMount is where the compiler container writes the compiled archive.
	OutputMount = "/workdir/output"

	// EnvProjectFile names the project-model database inside ProjectMount.
	EnvProjectFile = "MPR_FILE"

	buildArgArchive = "MXBUILD_ARCHIVE"
	buildArgJava    = "JAVA_VERSION"
)

type (
	// Builder compiles a project-model database into an application archive
	// by running the version-matched compiler inside a container.
	Builder struct {
		Engine   container.Engine
		Cache    *Cache
		Resolver Resolver
		// DefinitionsDir holds the Dockerfiles and ScriptRelPath.
		DefinitionsDir string
		// BaseURL is the download location of compiler archives.
		BaseURL string
		// TempDir is the parent of every temp directory; empty means the OS default.
		TempDir string
		// Rebuild forces a fresh base image even if the tag exists.
		Rebuild bool
		// KeepTemp retains intermediate directories for inspection.
		KeepTemp bool
		Logger   *log.Logger
	}

	// Plan is what Builder would do for one project-model database.
	Plan struct {
		ProductVersion string
		Selection      Selection
		Image          string
		ArchiveURL     string
	}
)

// Plan reads the product version from mprPath and resolves the toolchain
// without touching the container engine or the network.
func (b *Builder) Plan(ctx context.Context, mprPath string) (*Plan, error) {
	raw, err := metadata.ReadProductVersion(ctx, mprPath)
	if err != nil {
		return nil, err
	}
	sel, err := b.Resolver.Resolve(raw)
	if err != nil {
		return nil, err
	}
	return &Plan{
		ProductVersion: raw,
		Selection:      sel,
		Image:          sel.ImageTag(),
		ArchiveURL:     DownloadURL(b.baseURL(), sel.ArchiveName),
	}, nil
}

// Build compiles the project at projectDir whose model database is mprPath.
// The returned workspace holds the extracted application archive; every
// other directory created along the way is removed before returning.
func (b *Builder) Build(ctx context.Context, projectDir, mprPath string) (*archive.Workspace, error) {
	plan, err := b.Plan(ctx, mprPath)
	if err != nil {
		return nil, err
	}

	logger := b.logger()
	logger.Info("compiling project",
		"version", plan.ProductVersion,
		"toolchain", plan.Selection.Variant,
		"java", plan.Selection.JavaVersion)

	if err := b.ensureImage(ctx, plan); err != nil {
		return nil, err
	}

	absProject, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolve project directory: %w", err)
	}

	out, err := archive.NewWorkspace(b.TempDir, "output")
	if err != nil {
		return nil, err
	}
	defer b.release(out)

	// The container takes the output workspace's unique name.
	opts := container.RunOptions{
		Image:   plan.Image,
		Name:    filepath.Base(out.Path()),
		Remove:  true,
		WorkDir: ProjectMount,
		Env:     map[string]string{EnvProjectFile: filepath.Base(mprPath)},
		Volumes: []container.VolumeMount{
			{HostPath: absProject, ContainerPath: ProjectMount},
			{HostPath: out.Path(), ContainerPath: OutputMount},
		},
	}
	if _, err := b.Engine.Run(ctx, opts); err != nil {
		return nil, err
	}

	mda, err := classify.Find(out.Path(), classify.ExtPrebuiltArchive)
	if err != nil {
		var ambErr *classify.AmbiguousInputError
		if errors.As(err, &ambErr) {
			return nil, &container.BuilderFailedError{
				Engine: b.Engine.Name(),
				Args:   []string{"run"},
				Reason: fmt.Sprintf("compiler produced %d application archives, expected one", len(ambErr.Candidates)),
			}
		}
		return nil, err
	}
	if mda == "" {
		return nil, &container.BuilderFailedError{
			Engine: b.Engine.Name(),
			Args:   []string{"run"},
			Reason: "compiler produced no application archive",
		}
	}

	logger.Info("compiled application archive", "file", filepath.Base(mda))
	return archive.Extract(ctx, mda, archive.WithTempDir(b.TempDir))
}

// ensureImage builds the compiler base image unless it already exists.
func (b *Builder) ensureImage(ctx context.Context, plan *Plan) error {
	logger := b.logger()
	if !b.Rebuild {
		exists, err := b.Engine.ImageExists(ctx, plan.Image)
		if err != nil {
			return err
		}
		if exists {
			logger.Info("reusing compiler image", "image", plan.Image)
			return nil
		}
	}

	sel := plan.Selection
	archivePath, err := b.Cache.Fetch(ctx, plan.ArchiveURL, sel.ArchiveName)
	if err != nil {
		return err
	}

	buildCtx, err := archive.NewWorkspace(b.TempDir, "context")
	if err != nil {
		return err
	}
	defer b.release(buildCtx)

	stage := []struct {
		src, name string
		mode      os.FileMode
	}{
		{archivePath, sel.ArchiveName, 0o644},
		{filepath.Join(b.DefinitionsDir, filepath.FromSlash(ScriptRelPath)), "mxbuild", 0o755},
		{filepath.Join(b.DefinitionsDir, sel.Dockerfile), sel.Dockerfile, 0o644},
	}
	for _, f := range stage {
		if err := linkOrCopy(f.src, filepath.Join(buildCtx.Path(), f.name), f.mode); err != nil {
			return fmt.Errorf("stage build context: %w", err)
		}
	}

	logger.Info("building compiler image", "image", plan.Image, "dockerfile", sel.Dockerfile)
	_, err = b.Engine.Build(ctx, container.BuildOptions{
		ContextDir: buildCtx.Path(),
		Dockerfile: sel.Dockerfile,
		Tag:        plan.Image,
		NoCache:    b.Rebuild,
		BuildArgs: map[string]string{
			buildArgArchive: sel.ArchiveName,
			buildArgJava:    strconv.Itoa(sel.JavaVersion),
		},
	})
	return err
}

func (b *Builder) release(ws *archive.Workspace) {
	if b.KeepTemp {
		ws.Keep()
		b.logger().Info("keeping temporary directory", "path", ws.Path())
		return
	}
	if err := ws.Remove(); err != nil {
		b.logger().Warn("cleanup failed", "err", err)
	}
}

func (b *Builder) baseURL() string {
	if b.BaseURL != "" {
		return b.BaseURL
	}
	return DefaultBaseURL
}

func (b *Builder) logger() *log.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return log.New(io.Discard)
}

// linkOrCopy hard-links src to dst when src already carries mode, and
// otherwise copies it so the permissions of src stay untouched. The copy is
// also the fallback across filesystems.
func linkOrCopy(src, dst string, mode os.FileMode) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&mode == mode {
		if err := os.Link(src, dst); err == nil {
			return nil
		}
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }() // read-only handle

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	// OpenFile applies the umask.
	return out.Chmod(mode)
}
