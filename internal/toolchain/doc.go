// SPDX-License-Identifier: MPL-2.0

// Package toolchain selects and runs the project compiler.
//
// Resolver maps a product version to one of two compiler variants. Builder
// prepares the matching base image (downloading the compiler archive through
// Cache, which keeps one copy per file name) and runs it against a project
// directory, collecting the single application archive it produces.
package toolchain
