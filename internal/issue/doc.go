// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions for the user. The issue catalogue holds one Markdown guide per
// failure kind, rendered with glamour when the CLI runs in verbose mode.
package issue
