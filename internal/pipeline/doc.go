// SPDX-License-Identifier: MPL-2.0

// Package pipeline turns a user-supplied input path into an application
// directory ready for image assembly.
//
// PrepareApp accepts a packaged project, a project-model database, a
// pre-built archive or an already extracted application. Each temp directory
// created along the way is owned by the returned AppDir and removed by
// AppDir.Close, or immediately when preparation fails. Inspect answers the
// same classification question without compiling anything.
package pipeline
