// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrVersionFormat is the sentinel error wrapped by VersionFormatError.
var ErrVersionFormat = errors.New("invalid version format")

type (
	// Version is a dot-delimited product version decoded into its numeric
	// components, most significant first.
	Version []int

	// VersionFormatError is returned when a version string contains an empty
	// or non-numeric component.
	VersionFormatError struct {
		Value     string
		Component string
	}
)

// Error implements the error interface.
func (e *VersionFormatError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("invalid version %q: empty component", e.Value)
	}
	return fmt.Sprintf("invalid version %q: component %q is not a non-negative integer", e.Value, e.Component)
}

// Unwrap returns ErrVersionFormat so callers can use errors.Is for programmatic detection.
func (e *VersionFormatError) Unwrap() error { return ErrVersionFormat }

// Parse splits s on '.' and converts every component to an integer.
// Signs, whitespace and empty components are rejected.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	v := make(Version, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, &VersionFormatError{Value: s}
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return nil, &VersionFormatError{Value: s, Component: part}
			}
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, &VersionFormatError{Value: s, Component: part}
		}
		v = append(v, n)
	}
	return v, nil
}

// Compare returns -1, 0 or +1. The shorter version is padded with zero
// components, so "10.0" and "10.0.0.0" compare equal.
func Compare(a, b Version) int {
	n := max(len(a), len(b))
	for i := range n {
		x, y := a.component(i), b.component(i)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func (v Version) component(i int) int {
	if i < len(v) {
		return v[i]
	}
	return 0
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool { return Compare(v, other) < 0 }

// String returns the dot-delimited representation.
func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}
