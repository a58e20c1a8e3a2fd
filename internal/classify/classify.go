// SPDX-License-Identifier: MPL-2.0

package classify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mxdock/mxdock/internal/metadata"
)

const (
	// ExtPackagedProject marks a zipped project export.
	ExtPackagedProject = ".mpk"
	// ExtModelDatabase marks a project-model database.
	ExtModelDatabase = ".mpr"
	// ExtPrebuiltArchive marks a compiled application archive.
	ExtPrebuiltArchive = ".mda"
)

const (
	// Unrecognized means no supported input form was found.
	Unrecognized Kind = iota
	// PackagedProject is a zip bundle that may contain any other form.
	PackagedProject
	// ModelDatabase is a project-model database that must be compiled.
	ModelDatabase
	// PrebuiltArchive is a zip bundle of a compiled application.
	PrebuiltArchive
	// ExtractedApp is a directory already laid out as a compiled application.
	ExtractedApp
)

// ErrAmbiguousInput is the sentinel error wrapped by AmbiguousInputError.
var ErrAmbiguousInput = errors.New("ambiguous input")

type (
	// Kind identifies one of the supported input forms.
	Kind int

	// Source is the outcome of classifying an input path.
	Source struct {
		Kind Kind
		// Path is the matched file, or the directory itself for ExtractedApp
		// and Unrecognized.
		Path string
		// Root is the directory the match was found in.
		Root string
	}

	// AmbiguousInputError is returned when a directory holds more than one
	// candidate file for the same extension.
	AmbiguousInputError struct {
		Dir        string
		Ext        string
		Candidates []string
	}
)

type rule struct {
	ext  string
	kind Kind
}

// priority is the fixed order in which file-based forms are tried.
var priority = []rule{
	{ExtPackagedProject, PackagedProject},
	{ExtModelDatabase, ModelDatabase},
	{ExtPrebuiltArchive, PrebuiltArchive},
}

// Error implements the error interface.
func (e *AmbiguousInputError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = filepath.Base(c)
	}
	return fmt.Sprintf("more than one %s file found in %s (%s), cannot continue", e.Ext, e.Dir, strings.Join(names, ", "))
}

// Unwrap returns ErrAmbiguousInput so callers can use errors.Is for programmatic detection.
func (e *AmbiguousInputError) Unwrap() error { return ErrAmbiguousInput }

// String returns the human-readable kind name.
func (k Kind) String() string {
	switch k {
	case PackagedProject:
		return "packaged-project"
	case ModelDatabase:
		return "model-database"
	case PrebuiltArchive:
		return "prebuilt-archive"
	case ExtractedApp:
		return "extracted-app"
	default:
		return "unrecognized"
	}
}

// Extension returns the file extension of a file-based kind, or "".
func (k Kind) Extension() string {
	for _, p := range priority {
		if p.kind == k {
			return p.ext
		}
	}
	return ""
}

// Find looks for exactly one file ending in ext. If path is a file it
// matches only on its own name. If path is a directory its immediate
// entries are listed: none yields "", one yields its path, several yield
// AmbiguousInputError.
func Find(path, ext string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("inspect input %s: %w", path, err)
	}

	if !info.IsDir() {
		if strings.HasSuffix(info.Name(), ext) {
			return path, nil
		}
		return "", nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("list input directory %s: %w", path, err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		matches = append(matches, filepath.Join(path, entry.Name()))
	}

	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		return matches[0], nil
	default:
		slices.Sort(matches)
		return "", &AmbiguousInputError{Dir: path, Ext: ext, Candidates: matches}
	}
}

// Classify inspects path once and returns the highest-priority form found.
func Classify(path string) (Source, error) {
	return classify(path, priority)
}

// ClassifyContents classifies a directory produced by unpacking a packaged
// project. Nested packaged projects are not considered.
func ClassifyContents(dir string) (Source, error) {
	return classify(dir, priority[1:])
}

func classify(path string, order []rule) (Source, error) {
	root := path
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("inspect input %s: %w", path, err)
	}
	if !info.IsDir() {
		root = filepath.Dir(path)
	}

	for _, p := range order {
		match, err := Find(path, p.ext)
		if err != nil {
			return Source{}, err
		}
		if match != "" {
			return Source{Kind: p.kind, Path: match, Root: root}, nil
		}
	}

	if info.IsDir() && metadata.Exists(path) {
		return Source{Kind: ExtractedApp, Path: path, Root: path}, nil
	}

	return Source{Kind: Unrecognized, Path: path, Root: root}, nil
}
