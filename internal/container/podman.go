// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"os"
	"strings"
)

const selinuxEnforcePath = "/sys/fs/selinux/enforce"

// SELinuxCheckFunc reports whether SELinux is enforcing.
type SELinuxCheckFunc func() bool

// PodmanEngine implements the Engine interface using Podman CLI.
// It embeds BaseCLIEngine for common CLI operations.
type PodmanEngine struct {
	*BaseCLIEngine
}

// NewPodmanEngine creates a new Podman engine.
// On Linux with SELinux enforcing, volume mounts are labeled with z.
func NewPodmanEngine(opts ...BaseCLIEngineOption) *PodmanEngine {
	path, _ := lookPath("podman")

	allOpts := append([]BaseCLIEngineOption{
		WithName(string(EngineTypePodman)),
		WithVolumeFormatter(makeSELinuxLabelAdder(isSELinuxEnabled)),
	}, opts...)

	return &PodmanEngine{
		BaseCLIEngine: NewBaseCLIEngine(path, allOpts...),
	}
}

// Version returns the Podman version.
func (e *PodmanEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "version", "--format", "{{.Version}}")
	if err != nil {
		return "", fmt.Errorf("failed to get podman version: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ImageExists checks if an image exists.
func (e *PodmanEngine) ImageExists(ctx context.Context, image string) (bool, error) {
	return e.exitStatus(ctx, "image", "exists", image)
}

// isSELinuxEnabled checks if SELinux is enforcing on the system
func isSELinuxEnabled() bool {
	data, err := os.ReadFile(selinuxEnforcePath)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}

// makeSELinuxLabelAdder returns a formatter that appends the shared z label
// whenever check reports SELinux as enforcing.
func makeSELinuxLabelAdder(check SELinuxCheckFunc) VolumeFormatFunc {
	return func(volume VolumeMount) string {
		s := volume.String()
		if !check() {
			return s
		}
		return s + ",z"
	}
}
