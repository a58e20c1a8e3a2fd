// SPDX-License-Identifier: MPL-2.0

// Package classify decides which supported form an input path has.
//
// Forms are tried in a fixed priority order (packaged project, project-model
// database, pre-built archive, extracted application) and the first match
// wins. More than one candidate file of the same kind is an error rather
// than a guess.
package classify
