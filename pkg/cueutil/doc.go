// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema
// definition and decodes them into Go values.
//
//	//go:embed config_schema.cue
//	var configSchema string
//
//	var schema = cueutil.NewSchema(configSchema, "#Config")
//
//	var doc map[string]any
//	if err := schema.Decode(data, "config.cue", &doc); err != nil {
//		return err // "config.cue: toolchain.modern_java: invalid value 6 ..."
//	}
package cueutil
