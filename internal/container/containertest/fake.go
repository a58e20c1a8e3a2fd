// SPDX-License-Identifier: MPL-2.0

// Package containertest provides an in-memory container.Engine for tests
// that exercise callers of the engine without a real Docker or Podman.
package containertest

import (
	"context"
	"sync"

	"github.com/mxdock/mxdock/internal/container"
)

type (
	// Engine is a scripted container.Engine. Hooks run in place of the real
	// subprocess; a nil hook succeeds with an empty result.
	Engine struct {
		mu sync.Mutex

		EngineName string
		Images     map[string]bool

		OnBuild func(opts container.BuildOptions) error
		OnRun   func(opts container.RunOptions) error

		Builds []container.BuildOptions
		Runs   []container.RunOptions
	}
)

var _ container.Engine = (*Engine)(nil)

// New returns a fake engine reporting the given name.
func New(name string) *Engine {
	return &Engine{EngineName: name, Images: map[string]bool{}}
}

// Name returns the configured engine name.
func (e *Engine) Name() string { return e.EngineName }

// BinaryPath returns a fixed fake path.
func (e *Engine) BinaryPath() string { return "/fake/" + e.EngineName }

// Available always reports true.
func (e *Engine) Available() bool { return true }

// Version returns a fixed version string.
func (e *Engine) Version(context.Context) (string, error) { return "0.0.0-fake", nil }

// Invoke records nothing and succeeds.
func (e *Engine) Invoke(context.Context, ...string) (*container.InvocationResult, error) {
	return &container.InvocationResult{}, nil
}

// Build records opts, runs OnBuild and marks the tag as present on success.
func (e *Engine) Build(_ context.Context, opts container.BuildOptions) (*container.InvocationResult, error) {
	e.mu.Lock()
	e.Builds = append(e.Builds, opts)
	hook := e.OnBuild
	e.mu.Unlock()

	if hook != nil {
		if err := hook(opts); err != nil {
			return &container.InvocationResult{ExitCode: 1}, err
		}
	}

	e.mu.Lock()
	e.Images[opts.Tag] = true
	e.mu.Unlock()
	return &container.InvocationResult{LastLine: "sha256:fake"}, nil
}

// Run records opts and runs OnRun.
func (e *Engine) Run(_ context.Context, opts container.RunOptions) (*container.InvocationResult, error) {
	e.mu.Lock()
	e.Runs = append(e.Runs, opts)
	hook := e.OnRun
	e.mu.Unlock()

	if hook != nil {
		if err := hook(opts); err != nil {
			return &container.InvocationResult{ExitCode: 1}, err
		}
	}
	return &container.InvocationResult{}, nil
}

// ImageExists reports whether image was built or preloaded.
func (e *Engine) ImageExists(_ context.Context, image string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Images[image], nil
}

// MountFor returns the host path mounted at containerPath in opts, or "".
func MountFor(opts container.RunOptions, containerPath string) string {
	for _, v := range opts.Volumes {
		if v.ContainerPath == containerPath {
			return v.HostPath
		}
	}
	return ""
}
