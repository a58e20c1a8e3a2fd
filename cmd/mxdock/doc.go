// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the mxdock command-line interface.
//
// App is the composition root: it loads the configuration, applies the
// global flags and wires the pipeline, the toolchain builder and the
// container engine for each command. Failures are classified into issue
// catalog entries and exit codes before they reach Execute.
package cmd
