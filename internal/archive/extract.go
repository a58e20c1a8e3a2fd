// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrExtraction is the sentinel error wrapped by ExtractionError.
var ErrExtraction = errors.New("archive extraction failed")

type (
	// ExtractionError is returned when an archive cannot be opened, contains
	// an entry that would land outside the destination, or fails to unpack.
	ExtractionError struct {
		Archive string
		Entry   string
		Cause   error
	}

	// Option configures Extract.
	Option func(*options)

	options struct {
		tempDir string
	}
)

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	msg := "extract " + e.Archive
	if e.Entry != "" {
		msg += " (entry " + e.Entry + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns ErrExtraction so callers can use errors.Is for programmatic detection.
func (e *ExtractionError) Unwrap() error { return ErrExtraction }

// WithTempDir sets the parent directory for the extraction workspace.
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// Extract unpacks the zip archive at archivePath into a new Workspace.
// On failure the partially populated workspace is removed before returning.
func Extract(ctx context.Context, archivePath string, opts ...Option) (out *Workspace, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ws, err := NewWorkspace(o.tempDir, "extract")
	if err != nil {
		return nil, &ExtractionError{Archive: archivePath, Cause: err}
	}
	defer func() {
		if err != nil {
			_ = ws.Remove() // Best-effort cleanup of partial output
			out = nil
		}
	}()

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		if reader != nil {
			_ = reader.Close()
		}
		return nil, &ExtractionError{Archive: archivePath, Cause: err}
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = &ExtractionError{Archive: archivePath, Cause: closeErr}
		}
	}()

	for _, file := range reader.File {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("extract %s: %w", archivePath, ctxErr)
		}
		if entryErr := extractEntry(ws.Path(), file); entryErr != nil {
			return nil, &ExtractionError{Archive: archivePath, Entry: file.Name, Cause: entryErr}
		}
	}

	return ws, nil
}

// DestPath joins name to root and rejects names that escape root.
func DestPath(root, name string) (string, error) {
	if name == "" {
		return "", errors.New("empty entry name")
	}
	slashed := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("absolute entry path %q", name)
	}
	dest := filepath.Join(root, filepath.FromSlash(slashed))
	rel, err := filepath.Rel(root, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry path %q escapes destination", name)
	}
	return dest, nil
}

func extractEntry(root string, file *zip.File) error {
	dest, err := DestPath(root, file.Name)
	if err != nil {
		return err
	}

	mode := file.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return errors.New("symbolic links are not supported")
	case file.FileInfo().IsDir():
		return os.MkdirAll(dest, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}
	return extractFile(file, dest, mode.Perm()|0o600)
}

func extractFile(file *zip.File, dest string, perm os.FileMode) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // G110: archives come from the user's own project
	_, err = io.Copy(out, rc)
	return err
}
