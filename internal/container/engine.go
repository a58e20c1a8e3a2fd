// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	// EngineTypePodman selects the Podman CLI.
	EngineTypePodman EngineType = "podman"
	// EngineTypeDocker selects the Docker CLI.
	EngineTypeDocker EngineType = "docker"
)

var (
	// ErrNoEngineAvailable is returned when no container engine can be found on PATH.
	ErrNoEngineAvailable = errors.New("no container engine available")

	// ErrBuilderFailed is the sentinel error wrapped by BuilderFailedError.
	ErrBuilderFailed = errors.New("container engine invocation failed")

	// DefaultPriority is the probing order used when no preference is given.
	DefaultPriority = []EngineType{EngineTypePodman, EngineTypeDocker}

	// lookPath resolves an executable name on PATH. Tests replace it.
	lookPath = exec.LookPath
)

type (
	// Engine drives one container engine CLI.
	Engine interface {
		// Name returns the engine name (docker or podman).
		Name() string
		// BinaryPath returns the resolved executable path.
		BinaryPath() string
		// Available reports whether the executable was found.
		Available() bool
		// Version returns the engine version.
		Version(ctx context.Context) (string, error)

		// Invoke runs the engine with args, draining stdout and stderr
		// concurrently until both are closed, then waits for exit.
		Invoke(ctx context.Context, args ...string) (*InvocationResult, error)
		// Build builds an image from a Dockerfile.
		Build(ctx context.Context, opts BuildOptions) (*InvocationResult, error)
		// Run runs a container to completion.
		Run(ctx context.Context, opts RunOptions) (*InvocationResult, error)
		// ImageExists checks if an image exists locally.
		ImageExists(ctx context.Context, image string) (bool, error)
	}

	// EngineType identifies the container engine type.
	EngineType string

	// BuildOptions contains options for building an image.
	BuildOptions struct {
		// ContextDir is the build context directory.
		ContextDir string
		// Dockerfile is the path to the Dockerfile (relative to ContextDir).
		Dockerfile string
		// Tag is the image tag.
		Tag string
		// BuildArgs are build-time variables.
		BuildArgs map[string]string
		// NoCache disables the build cache.
		NoCache bool
	}

	// RunOptions contains options for running a container.
	RunOptions struct {
		// Image is the image to run.
		Image string
		// Command overrides the image entrypoint arguments.
		Command []string
		// WorkDir is the working directory inside the container.
		WorkDir string
		// Env contains environment variables.
		Env map[string]string
		// Volumes are bind mounts.
		Volumes []VolumeMount
		// Remove automatically removes the container after exit.
		Remove bool
		// Name is the container name.
		Name string
	}

	// VolumeMount is a host directory bound into the container.
	VolumeMount struct {
		HostPath      string
		ContainerPath string
		ReadOnly      bool
	}

	// InvocationResult is the outcome of one engine invocation.
	InvocationResult struct {
		// ExitCode is the engine's exit status.
		ExitCode int
		// LastLine is the final stdout line without trailing whitespace, e.g.
		// an image ID. It is "" when the engine ended on a blank line.
		LastLine string
		// StdoutLines counts lines read from stdout.
		StdoutLines int
		// StderrLines counts lines read from stderr.
		StderrLines int
	}

	// EngineNotAvailableError is returned when a container engine is not available.
	EngineNotAvailableError struct {
		Engine string
		Reason string
	}

	// BuilderFailedError is returned when the engine exits with a non-zero status.
	BuilderFailedError struct {
		Engine   string
		Args     []string
		ExitCode int
		// Reason describes a failure detected after a clean exit, such as
		// missing build output.
		Reason string
	}
)

// Error implements the error interface.
func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrNoEngineAvailable for errors.Is() compatibility.
func (e *EngineNotAvailableError) Unwrap() error { return ErrNoEngineAvailable }

// Error implements the error interface.
func (e *BuilderFailedError) Error() string {
	sub := ""
	if len(e.Args) > 0 {
		sub = " " + e.Args[0]
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s%s: %s", e.Engine, sub, e.Reason)
	}
	return fmt.Sprintf("%s%s returned with error (exit status %d)", e.Engine, sub, e.ExitCode)
}

// Unwrap returns ErrBuilderFailed for errors.Is() compatibility.
func (e *BuilderFailedError) Unwrap() error { return ErrBuilderFailed }

// String returns the mount in "host:container:rw" or "host:container:ro" form.
func (v VolumeMount) String() string {
	mode := "rw"
	if v.ReadOnly {
		mode = "ro"
	}
	return v.HostPath + ":" + v.ContainerPath + ":" + mode
}

// String returns the engine type name.
func (t EngineType) String() string { return string(t) }

// Validate returns an error if the EngineType is not podman or docker.
func (t EngineType) Validate() error {
	switch t {
	case EngineTypePodman, EngineTypeDocker:
		return nil
	default:
		return fmt.Errorf("unknown container engine type: %s", t)
	}
}

// NewEngine returns the engine of the given type regardless of availability.
func NewEngine(engineType EngineType, opts ...BaseCLIEngineOption) (Engine, error) {
	switch engineType {
	case EngineTypePodman:
		return NewPodmanEngine(opts...), nil
	case EngineTypeDocker:
		return NewDockerEngine(opts...), nil
	default:
		return nil, fmt.Errorf("unknown container engine type: %s", engineType)
	}
}

// Discover tries the engines in priority order and returns the first one
// whose executable is on PATH. A non-empty preferred type is tried first.
func Discover(preferred EngineType, opts ...BaseCLIEngineOption) (Engine, error) {
	order := PriorityFor(preferred)
	for _, engineType := range order {
		engine, err := NewEngine(engineType, opts...)
		if err != nil {
			return nil, err
		}
		if engine.Available() {
			return engine, nil
		}
	}

	names := make([]string, len(order))
	for i, t := range order {
		names[i] = string(t)
	}
	return nil, &EngineNotAvailableError{
		Engine: "any",
		Reason: "none of " + strings.Join(names, ", ") + " was found on PATH",
	}
}

// PriorityFor returns DefaultPriority with preferred moved to the front.
func PriorityFor(preferred EngineType) []EngineType {
	order := make([]EngineType, 0, len(DefaultPriority))
	if preferred != "" {
		order = append(order, preferred)
	}
	for _, t := range DefaultPriority {
		if t != preferred {
			order = append(order, t)
		}
	}
	return order
}
