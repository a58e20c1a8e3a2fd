// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"errors"
	"io"
	"io/fs"
	"strings"
)

// maxEntrySize bounds ReadEntry; descriptors are small.
const maxEntrySize = 16 << 20

// ReadEntry returns the content of the slash-separated entry name inside the
// zip archive at archivePath without unpacking anything to disk. A missing
// entry yields an error matching fs.ErrNotExist.
func ReadEntry(archivePath, name string) (_ []byte, err error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &ExtractionError{Archive: archivePath, Cause: err}
	}
	defer func() { _ = reader.Close() }() // read-only

	name = strings.TrimPrefix(name, "/")
	for _, file := range reader.File {
		if strings.TrimPrefix(strings.ReplaceAll(file.Name, `\`, "/"), "./") != name {
			continue
		}
		rc, openErr := file.Open()
		if openErr != nil {
			return nil, &ExtractionError{Archive: archivePath, Entry: file.Name, Cause: openErr}
		}
		defer func() { _ = rc.Close() }()

		data, readErr := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
		if readErr != nil {
			return nil, &ExtractionError{Archive: archivePath, Entry: file.Name, Cause: readErr}
		}
		if len(data) > maxEntrySize {
			return nil, &ExtractionError{Archive: archivePath, Entry: file.Name, Cause: errors.New("entry too large")}
		}
		return data, nil
	}

	return nil, &fs.PathError{Op: "open", Path: archivePath + "!" + name, Err: fs.ErrNotExist}
}
