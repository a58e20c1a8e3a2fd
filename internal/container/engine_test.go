// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEngineNotAvailableError_Error(t *testing.T) {
	t.Parallel()

	err := &EngineNotAvailableError{
		Engine: "podman",
		Reason: "not installed",
	}

	expected := "container engine 'podman' is not available: not installed"
	if err.Error() != expected {
		t.Errorf("EngineNotAvailableError.Error() = %s, want %s", err.Error(), expected)
	}
	if !errors.Is(err, ErrNoEngineAvailable) {
		t.Error("EngineNotAvailableError should unwrap to ErrNoEngineAvailable")
	}
}

func TestBuilderFailedError_Error(t *testing.T) {
	t.Parallel()

	err := &BuilderFailedError{Engine: "docker", Args: []string{"build", "."}, ExitCode: 2}
	expected := "docker build returned with error (exit status 2)"
	if err.Error() != expected {
		t.Errorf("BuilderFailedError.Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrBuilderFailed) {
		t.Error("BuilderFailedError should unwrap to ErrBuilderFailed")
	}
}

func TestEngine_AvailableWithNoPath(t *testing.T) {
	t.Parallel()

	docker := &DockerEngine{BaseCLIEngine: NewBaseCLIEngine("")}
	if docker.Available() {
		t.Error("DockerEngine with empty path should not be available")
	}
	podman := &PodmanEngine{BaseCLIEngine: NewBaseCLIEngine("")}
	if podman.Available() {
		t.Error("PodmanEngine with empty path should not be available")
	}
}

func TestNewEngine_UnknownType(t *testing.T) {
	t.Parallel()

	if _, err := NewEngine("unknown"); err == nil {
		t.Error("NewEngine with unknown type should return error")
	}
	if err := EngineType("lxc").Validate(); err == nil {
		t.Error("Validate() should reject unknown engine types")
	}
}

func TestPriorityFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		preferred EngineType
		want      []EngineType
	}{
		{"", []EngineType{EngineTypePodman, EngineTypeDocker}},
		{EngineTypePodman, []EngineType{EngineTypePodman, EngineTypeDocker}},
		{EngineTypeDocker, []EngineType{EngineTypeDocker, EngineTypePodman}},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, PriorityFor(tt.preferred)); diff != "" {
			t.Errorf("PriorityFor(%q) mismatch (-want +got):\n%s", tt.preferred, diff)
		}
	}
}

// stubLookPath replaces lookPath for the duration of the test. Tests using
// it must not run in parallel.
func stubLookPath(t *testing.T, found map[string]string) {
	t.Helper()
	orig := lookPath
	lookPath = func(name string) (string, error) {
		if p, ok := found[name]; ok {
			return p, nil
		}
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	t.Cleanup(func() { lookPath = orig })
}

func TestDiscover(t *testing.T) {
	tests := []struct {
		name      string
		found     map[string]string
		preferred EngineType
		want      string
		wantErr   bool
	}{
		{"both present prefers podman", map[string]string{"podman": "/usr/bin/podman", "docker": "/usr/bin/docker"}, "", "podman", false},
		{"only docker", map[string]string{"docker": "/usr/bin/docker"}, "", "docker", false},
		{"preference honored", map[string]string{"podman": "/usr/bin/podman", "docker": "/usr/bin/docker"}, EngineTypeDocker, "docker", false},
		{"preference falls back", map[string]string{"podman": "/usr/bin/podman"}, EngineTypeDocker, "podman", false},
		{"neither", nil, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubLookPath(t, tt.found)

			engine, err := Discover(tt.preferred)
			if tt.wantErr {
				if !errors.Is(err, ErrNoEngineAvailable) {
					t.Fatalf("expected ErrNoEngineAvailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Discover() returned error: %v", err)
			}
			if engine.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", engine.Name(), tt.want)
			}
			if engine.BinaryPath() != tt.found[tt.want] {
				t.Errorf("BinaryPath() = %q, want %q", engine.BinaryPath(), tt.found[tt.want])
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	t.Parallel()

	for _, engineType := range []EngineType{EngineTypeDocker, EngineTypePodman} {
		t.Run(string(engineType), func(t *testing.T) {
			t.Parallel()

			present := NewMockCommandRecorder()
			engine := newTestEngine(t, engineType, present, io.Discard)
			ok, err := engine.ImageExists(context.Background(), "mxdock-mxbuild:10.0.0-java21")
			if err != nil || !ok {
				t.Errorf("ImageExists() = %v, %v; want true, nil", ok, err)
			}
			present.AssertFirstArg(t, "image")

			absent := NewMockCommandRecorder()
			absent.ExitCode = 1
			engine = newTestEngine(t, engineType, absent, io.Discard)
			ok, err = engine.ImageExists(context.Background(), "missing:latest")
			if err != nil || ok {
				t.Errorf("ImageExists() = %v, %v; want false, nil", ok, err)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	recorder := NewMockCommandRecorder()
	recorder.Stdout = "5.2.1\n"
	engine := newTestEngine(t, EngineTypePodman, recorder, io.Discard)

	v, err := engine.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() returned error: %v", err)
	}
	if v != "5.2.1" {
		t.Errorf("Version() = %q, want %q", v, "5.2.1")
	}
	if !recorder.HasArgPair("--format", "{{.Version}}") {
		t.Errorf("unexpected args %v", recorder.LastArgs())
	}
}
