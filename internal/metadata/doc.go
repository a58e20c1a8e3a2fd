// SPDX-License-Identifier: MPL-2.0

// Package metadata reads the version records that drive toolchain selection:
// the model/metadata.json descriptor of an application directory, and the
// _MetaData table of a project-model database.
package metadata
