// SPDX-License-Identifier: MPL-2.0

// Package version parses dot-delimited product versions such as "10.1.0.1"
// into comparable numeric tuples.
package version
