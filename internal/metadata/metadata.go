// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mxdock/mxdock/internal/version"
)

const (
	// RelPath is the location of the descriptor inside an application directory.
	RelPath = "model/metadata.json"

	// DefaultJavaVersion applies when the descriptor has no JavaVersion key.
	DefaultJavaVersion = 11

	keyRuntimeVersion = "RuntimeVersion"
	keyJavaVersion    = "JavaVersion"
)

// ErrMetadataRead is the sentinel error wrapped by MetadataReadError.
var ErrMetadataRead = errors.New("project metadata unreadable")

type (
	// Project is the parsed application descriptor.
	Project struct {
		// RuntimeVersion is the dot-delimited platform version the app targets.
		RuntimeVersion string
		// JavaVersion is the JVM major version, DefaultJavaVersion when absent.
		JavaVersion int
		// Raw holds the whole document.
		Raw map[string]any
	}

	// MetadataReadError is returned when a descriptor or project-model
	// database is missing, malformed, or lacks the version record.
	MetadataReadError struct {
		Path   string
		Reason string
		Cause  error
	}
)

// Error implements the error interface.
func (e *MetadataReadError) Error() string {
	msg := "read metadata " + e.Path + ": " + e.Reason
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns ErrMetadataRead so callers can use errors.Is for programmatic detection.
func (e *MetadataReadError) Unwrap() error { return ErrMetadataRead }

// Path returns the descriptor location for an application directory.
func Path(dir string) string {
	return filepath.Join(dir, filepath.FromSlash(RelPath))
}

// Exists reports whether dir contains a descriptor file.
func Exists(dir string) bool {
	info, err := os.Stat(Path(dir))
	return err == nil && info.Mode().IsRegular()
}

// Read parses the descriptor in dir. A missing descriptor is not an error:
// Read returns (nil, nil) so callers can test directories.
func Read(dir string) (*Project, error) {
	path := Path(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &MetadataReadError{Path: path, Reason: "cannot read file", Cause: err}
	}
	return Parse(path, data)
}

// Require is like Read but treats a missing descriptor as MetadataReadError.
func Require(dir string) (*Project, error) {
	p, err := Read(dir)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &MetadataReadError{Path: Path(dir), Reason: "descriptor not found"}
	}
	return p, nil
}

// Parse decodes a descriptor document. path is used for error messages only.
func Parse(path string, data []byte) (*Project, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &MetadataReadError{Path: path, Reason: "malformed JSON", Cause: err}
	}
	if raw == nil {
		return nil, &MetadataReadError{Path: path, Reason: "document is not an object"}
	}

	p := &Project{JavaVersion: DefaultJavaVersion, Raw: raw}

	if v, ok := raw[keyRuntimeVersion]; ok {
		s, isString := v.(string)
		if !isString {
			return nil, &MetadataReadError{Path: path, Reason: keyRuntimeVersion + " must be a string"}
		}
		p.RuntimeVersion = s
	}

	if v, ok := raw[keyJavaVersion]; ok && v != nil {
		java, err := javaVersion(v)
		if err != nil {
			return nil, &MetadataReadError{Path: path, Reason: keyJavaVersion + " must be an integer", Cause: err}
		}
		p.JavaVersion = java
	}

	return p, nil
}

// Version parses RuntimeVersion. An absent value is a MetadataReadError,
// a malformed one a version.VersionFormatError.
func (p *Project) Version() (version.Version, error) {
	if p.RuntimeVersion == "" {
		return nil, &MetadataReadError{Path: RelPath, Reason: keyRuntimeVersion + " is missing"}
	}
	return version.Parse(p.RuntimeVersion)
}

func javaVersion(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return 0, err
		}
		return i, nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
