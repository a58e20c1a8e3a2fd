// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mxdock/mxdock/internal/container"
	"github.com/mxdock/mxdock/internal/container/containertest"
	"github.com/mxdock/mxdock/internal/metadata"
	"github.com/mxdock/mxdock/internal/testutil"
)

type builderFixture struct {
	builder   *Builder
	engine    *containertest.Engine
	project   string
	mpr       string
	tempRoot  string
	downloads *atomic.Int32
}

// newBuilderFixture wires a Builder to a fake engine and a local download
// server. The fake compiler writes an application archive carrying
// productVersion into the output mount.
func newBuilderFixture(t *testing.T, productVersion string) *builderFixture {
	t.Helper()

	downloads := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		downloads.Add(1)
		_, _ = w.Write([]byte("compiler archive"))
	}))
	t.Cleanup(srv.Close)

	root := t.TempDir()
	defs := filepath.Join(root, "defs")
	testutil.WriteDefinitions(t, defs)
	project := filepath.Join(root, "project")
	mpr := filepath.Join(project, "App.mpr")
	testutil.WriteModelDatabase(t, mpr, productVersion)
	tempRoot := filepath.Join(root, "tmp")
	testutil.MustMkdirAll(t, tempRoot, 0o755)

	engine := containertest.New("podman")
	engine.OnRun = func(opts container.RunOptions) error {
		out := containertest.MountFor(opts, OutputMount)
		testutil.WriteAppArchive(t, filepath.Join(out, "App.mda"), productVersion)
		return nil
	}

	return &builderFixture{
		builder: &Builder{
			Engine:         engine,
			Cache:          &Cache{Root: filepath.Join(root, "cache"), Client: srv.Client()},
			Resolver:       DefaultResolver(),
			DefinitionsDir: defs,
			BaseURL:        srv.URL,
			TempDir:        tempRoot,
		},
		engine:    engine,
		project:   project,
		mpr:       mpr,
		tempRoot:  tempRoot,
		downloads: downloads,
	}
}

func TestBuilder_Build_Modern(t *testing.T) {
	t.Parallel()

	f := newBuilderFixture(t, "10.1.0.1")
	f.builder.Resolver.GOARCH = "amd64"
	f.engine.OnBuild = func(opts container.BuildOptions) error {
		for _, name := range []string{"mxbuild-10.1.0.1.tar.gz", "mxbuild", DefaultModernDockerfile} {
			if _, err := os.Stat(filepath.Join(opts.ContextDir, name)); err != nil {
				t.Errorf("build context missing %s: %v", name, err)
			}
		}
		return nil
	}

	ws, err := f.builder.Build(context.Background(), f.project, f.mpr)
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}
	t.Cleanup(func() { _ = ws.Remove() })

	p, err := metadata.Require(ws.Path())
	if err != nil {
		t.Fatalf("compiled app has no metadata: %v", err)
	}
	if p.RuntimeVersion != "10.1.0.1" {
		t.Errorf("RuntimeVersion = %q", p.RuntimeVersion)
	}

	if len(f.engine.Builds) != 1 {
		t.Fatalf("expected 1 image build, got %d", len(f.engine.Builds))
	}
	build := f.engine.Builds[0]
	if build.Tag != "mxdock-mxbuild:10.1.0.1-java21" || build.Dockerfile != DefaultModernDockerfile {
		t.Errorf("unexpected build options %+v", build)
	}
	wantArgs := map[string]string{"MXBUILD_ARCHIVE": "mxbuild-10.1.0.1.tar.gz", "JAVA_VERSION": "21"}
	if diff := cmp.Diff(wantArgs, build.BuildArgs); diff != "" {
		t.Errorf("BuildArgs mismatch (-want +got):\n%s", diff)
	}

	run := f.engine.Runs[0]
	if run.Image != build.Tag || !run.Remove {
		t.Errorf("unexpected run options %+v", run)
	}
	if run.WorkDir != ProjectMount {
		t.Errorf("WorkDir = %q, want %q", run.WorkDir, ProjectMount)
	}
	if !strings.HasPrefix(run.Name, "mxdock-output-") {
		t.Errorf("container name = %q, want the output workspace name", run.Name)
	}
	if build.NoCache {
		t.Error("first image build should use the build cache")
	}
	if run.Env[EnvProjectFile] != "App.mpr" {
		t.Errorf("MPR_FILE = %q, want %q", run.Env[EnvProjectFile], "App.mpr")
	}
	if got := containertest.MountFor(run, ProjectMount); got != f.project {
		t.Errorf("project mount = %q, want %q", got, f.project)
	}

	// Only the returned workspace survives.
	if diff := cmp.Diff([]string{ws.Path()}, testutil.TempEntries(t, f.tempRoot)); diff != "" {
		t.Errorf("temp entries mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_Build_KeepsRecordedRelease(t *testing.T) {
	t.Parallel()

	f := newBuilderFixture(t, "10.01.0.1")
	f.builder.Resolver.GOARCH = "amd64"
	ws, err := f.builder.Build(context.Background(), f.project, f.mpr)
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}
	t.Cleanup(func() { _ = ws.Remove() })

	build := f.engine.Builds[0]
	if build.Tag != "mxdock-mxbuild:10.01.0.1-java21" {
		t.Errorf("Tag = %q", build.Tag)
	}
	if got := build.BuildArgs["MXBUILD_ARCHIVE"]; got != "mxbuild-10.01.0.1.tar.gz" {
		t.Errorf("MXBUILD_ARCHIVE = %q", got)
	}
}

func TestBuilder_Build_Legacy(t *testing.T) {
	t.Parallel()

	f := newBuilderFixture(t, "9.24.0.2")
	ws, err := f.builder.Build(context.Background(), f.project, f.mpr)
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}
	t.Cleanup(func() { _ = ws.Remove() })

	build := f.engine.Builds[0]
	if build.Dockerfile != DefaultLegacyDockerfile || build.BuildArgs["JAVA_VERSION"] != "11" {
		t.Errorf("expected legacy toolchain, got %+v", build)
	}
}

func TestBuilder_ReusesImageAndDownload(t *testing.T) {
	t.Parallel()

	f := newBuilderFixture(t, "10.1.0.1")
	for range 2 {
		ws, err := f.builder.Build(context.Background(), f.project, f.mpr)
		if err != nil {
			t.Fatalf("Build() returned error: %v", err)
		}
		_ = ws.Remove()
	}

	if len(f.engine.Builds) != 1 {
		t.Errorf("image built %d times, want 1", len(f.engine.Builds))
	}
	if len(f.engine.Runs) != 2 {
		t.Errorf("compiler ran %d times, want 2", len(f.engine.Runs))
	}

	f.builder.Rebuild = true
	ws, err := f.builder.Build(context.Background(), f.project, f.mpr)
	if err != nil {
		t.Fatalf("Build() with Rebuild returned error: %v", err)
	}
	_ = ws.Remove()
	if len(f.engine.Builds) != 2 {
		t.Fatalf("Rebuild did not rebuild the image")
	}
	if !f.engine.Builds[1].NoCache {
		t.Error("Rebuild should bypass the build cache")
	}
	if n := f.downloads.Load(); n != 1 {
		t.Errorf("archive downloaded %d times, want 1", n)
	}
}

func TestBuilder_CompilerFailureCleansUp(t *testing.T) {
	t.Parallel()

	f := newBuilderFixture(t, "10.1.0.1")
	f.engine.OnRun = func(container.RunOptions) error {
		return &container.BuilderFailedError{Engine: "podman", Args: []string{"run"}, ExitCode: 2}
	}

	_, err := f.builder.Build(context.Background(), f.project, f.mpr)
	if !errors.Is(err, container.ErrBuilderFailed) {
		t.Fatalf("expected ErrBuilderFailed, got %v", err)
	}
	if left := testutil.TempEntries(t, f.tempRoot); len(left) != 0 {
		t.Errorf("temp directories leaked: %v", left)
	}
}

func TestBuilder_NoArchiveProduced(t *testing.T) {
	t.Parallel()

	f := newBuilderFixture(t, "10.1.0.1")
	f.engine.OnRun = func(container.RunOptions) error { return nil }

	_, err := f.builder.Build(context.Background(), f.project, f.mpr)
	var bfErr *container.BuilderFailedError
	if !errors.As(err, &bfErr) {
		t.Fatalf("expected *BuilderFailedError, got %v", err)
	}
	if bfErr.Reason == "" {
		t.Error("expected a reason on the BuilderFailedError")
	}
	if left := testutil.TempEntries(t, f.tempRoot); len(left) != 0 {
		t.Errorf("temp directories leaked: %v", left)
	}
}

func TestBuilder_ImageBuildFailure(t *testing.T) {
	t.Parallel()

	f := newBuilderFixture(t, "10.1.0.1")
	f.engine.OnBuild = func(container.BuildOptions) error {
		return &container.BuilderFailedError{Engine: "podman", Args: []string{"build"}, ExitCode: 1}
	}

	_, err := f.builder.Build(context.Background(), f.project, f.mpr)
	if !errors.Is(err, container.ErrBuilderFailed) {
		t.Fatalf("expected ErrBuilderFailed, got %v", err)
	}
	if len(f.engine.Runs) != 0 {
		t.Error("compiler ran after the image build failed")
	}
	if left := testutil.TempEntries(t, f.tempRoot); len(left) != 0 {
		t.Errorf("temp directories leaked: %v", left)
	}
}

func TestBuilder_BadProductVersion(t *testing.T) {
	t.Parallel()

	f := newBuilderFixture(t, "ten")
	if _, err := f.builder.Build(context.Background(), f.project, f.mpr); err == nil {
		t.Fatal("expected a version format error")
	}
	if len(f.engine.Builds)+len(f.engine.Runs) != 0 {
		t.Error("engine invoked despite an unparseable version")
	}
}

func TestBuilder_KeepTemp(t *testing.T) {
	t.Parallel()

	f := newBuilderFixture(t, "10.1.0.1")
	f.builder.KeepTemp = true

	ws, err := f.builder.Build(context.Background(), f.project, f.mpr)
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}
	t.Cleanup(func() { _ = ws.Remove() })

	// context, output and the extracted app
	if left := testutil.TempEntries(t, f.tempRoot); len(left) != 3 {
		t.Errorf("expected 3 retained directories, got %v", left)
	}
}

func TestLinkOrCopy(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not tracked on Windows")
	}

	tests := []struct {
		name    string
		srcMode os.FileMode
		mode    os.FileMode
	}{
		{name: "matching mode", srcMode: 0o644, mode: 0o644},
		{name: "needs exec bit", srcMode: 0o644, mode: 0o755},
		{name: "wider source", srcMode: 0o755, mode: 0o644},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			src := filepath.Join(dir, "src")
			if err := os.WriteFile(src, []byte("#!/bin/sh\n"), 0o600); err != nil {
				t.Fatal(err)
			}
			if err := os.Chmod(src, tt.srcMode); err != nil {
				t.Fatal(err)
			}
			dst := filepath.Join(dir, "dst")

			if err := linkOrCopy(src, dst, tt.mode); err != nil {
				t.Fatalf("linkOrCopy() returned error: %v", err)
			}

			info, err := os.Stat(dst)
			if err != nil {
				t.Fatal(err)
			}
			if got := info.Mode().Perm(); got&tt.mode != tt.mode {
				t.Errorf("dst mode = %v, want at least %v", got, tt.mode)
			}
			srcInfo, err := os.Stat(src)
			if err != nil {
				t.Fatal(err)
			}
			if got := srcInfo.Mode().Perm(); got != tt.srcMode {
				t.Errorf("src mode changed to %v, want %v", got, tt.srcMode)
			}
			data, err := os.ReadFile(dst)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != "#!/bin/sh\n" {
				t.Errorf("dst content = %q", data)
			}
		})
	}
}
