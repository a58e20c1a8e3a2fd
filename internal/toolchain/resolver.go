// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"fmt"
	"runtime"

	"github.com/mxdock/mxdock/internal/version"
)

const (
	// VariantModern is the .NET-hosted compiler toolchain.
	VariantModern Variant = "dotnet"
	// VariantLegacy is the Mono-hosted compiler toolchain.
	VariantLegacy Variant = "mono"

	// DefaultModernDockerfile builds the modern compiler base image.
	DefaultModernDockerfile = "rootfs-mxbuild-dotnet.dockerfile"
	// DefaultLegacyDockerfile builds the legacy compiler base image.
	DefaultLegacyDockerfile = "rootfs-mxbuild-mono.dockerfile"

	// DefaultModernJava is the Java major version bundled with the modern toolchain.
	DefaultModernJava = 21
	// DefaultLegacyJava is the Java major version bundled with the legacy toolchain.
	DefaultLegacyJava = 11

	// arm64ArchivePrefix marks compiler archives built for 64-bit ARM hosts.
	arm64ArchivePrefix = "arm64-"
)

// DefaultThreshold is the first version compiled by the modern toolchain.
var DefaultThreshold = version.Version{10, 0, 0, 0}

type (
	// Variant names a compiler toolchain family.
	Variant string

	// Selection is the toolchain chosen for one project version.
	Selection struct {
		Variant Variant
		// Release is the product version exactly as the project records it.
		// Download names and image tags use it unchanged.
		Release     string
		Version     version.Version
		Dockerfile  string
		JavaVersion int
		// ArchivePrefix is "arm64-" on arm64 hosts and "" elsewhere.
		ArchivePrefix string
		// ArchiveName is the file name of the compiler download.
		ArchiveName string
	}

	// Resolver maps a project version to a toolchain Selection.
	Resolver struct {
		// Threshold is the lowest version served by the modern variant.
		Threshold        version.Version
		ModernJava       int
		LegacyJava       int
		ModernDockerfile string
		LegacyDockerfile string
		// GOARCH selects the archive flavour; empty means runtime.GOARCH.
		GOARCH string
	}
)

// DefaultResolver returns a Resolver with the built-in threshold and images.
func DefaultResolver() Resolver {
	return Resolver{
		Threshold:        DefaultThreshold,
		ModernJava:       DefaultModernJava,
		LegacyJava:       DefaultLegacyJava,
		ModernDockerfile: DefaultModernDockerfile,
		LegacyDockerfile: DefaultLegacyDockerfile,
	}
}

// String returns the variant name.
func (v Variant) String() string { return string(v) }

// Resolve parses the product version release and picks the legacy variant
// when it sorts below the threshold (after zero padding), the modern one
// otherwise.
func (r Resolver) Resolve(release string) (Selection, error) {
	v, err := version.Parse(release)
	if err != nil {
		return Selection{}, err
	}

	sel := Selection{Release: release, Version: v}
	if v.Less(r.Threshold) {
		sel.Variant = VariantLegacy
		sel.Dockerfile = r.LegacyDockerfile
		sel.JavaVersion = r.LegacyJava
	} else {
		sel.Variant = VariantModern
		sel.Dockerfile = r.ModernDockerfile
		sel.JavaVersion = r.ModernJava
	}

	goarch := r.GOARCH
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	if goarch == "arm64" {
		sel.ArchivePrefix = arm64ArchivePrefix
	}
	sel.ArchiveName = ArchiveName(sel.ArchivePrefix, release)
	return sel, nil
}

// ArchiveName returns the compiler download name for a product version.
func ArchiveName(prefix, release string) string {
	return fmt.Sprintf("%smxbuild-%s.tar.gz", prefix, release)
}

// ImageTag returns the local tag of the compiler base image for s.
func (s Selection) ImageTag() string {
	return fmt.Sprintf("mxdock-mxbuild:%s-java%d", s.Release, s.JavaVersion)
}
