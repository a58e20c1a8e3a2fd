// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from config.cue in the XDG config directory
// (~/.config/mxdock on Linux), then from ./config.cue, or exclusively from the
// path given with --config. Values are validated against the embedded CUE
// schema (config_schema.cue); MXDOCK_* environment variables override file
// values and are validated afterwards by Config.IsValid.
package config
