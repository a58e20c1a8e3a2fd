// SPDX-License-Identifier: MPL-2.0

// Package container drives the Docker and Podman command-line tools.
//
// The Engine interface exposes the operations the build pipeline needs:
// Build, Run, ImageExists and the lower-level Invoke. DockerEngine and
// PodmanEngine both embed BaseCLIEngine for argument construction and
// command execution.
//
// Discover searches PATH in priority order (Podman first, then Docker, or the
// caller's preference first) and returns the first engine whose executable
// exists.
//
// Invoke reads the child's stdout and stderr concurrently and keeps reading
// until both streams are closed, so a child that floods one stream while the
// caller waits on the other cannot stall. Every line is forwarded to the
// engine's logger; only the last stdout line is kept in the result.
package container
