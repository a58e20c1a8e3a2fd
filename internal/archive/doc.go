// SPDX-License-Identifier: MPL-2.0

// Package archive unpacks zip-format project and application archives into
// temporary workspaces.
//
// Every directory created here is a Workspace: the holder owns it and must
// call Remove when done. Extract refuses entries that would be written
// outside the workspace root.
package archive
