// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"os"
	"sync"
)

// TempPrefix is the name prefix of every temporary directory created by mxdock.
const TempPrefix = "mxdock-"

// Workspace is a temporary directory owned by whoever holds it.
// Remove deletes it and is safe to call more than once.
type Workspace struct {
	path string
	keep bool
	once sync.Once
	err  error
}

// NewWorkspace creates a uniquely named directory below parent (the OS temp
// directory when parent is empty). The name is TempPrefix + purpose + a
// random suffix.
func NewWorkspace(parent, purpose string) (*Workspace, error) {
	dir, err := os.MkdirTemp(parent, TempPrefix+purpose+"-*")
	if err != nil {
		return nil, fmt.Errorf("create temporary directory: %w", err)
	}
	return &Workspace{path: dir}, nil
}

// Path returns the absolute directory path.
func (w *Workspace) Path() string {
	return w.path
}

// Keep marks the workspace as retained; Remove becomes a no-op.
func (w *Workspace) Keep() {
	w.keep = true
}

// Kept reports whether Keep was called.
func (w *Workspace) Kept() bool {
	return w.keep
}

// Remove deletes the directory tree unless the workspace is kept.
func (w *Workspace) Remove() error {
	if w == nil || w.keep {
		return nil
	}
	w.once.Do(func() {
		if err := os.RemoveAll(w.path); err != nil {
			w.err = fmt.Errorf("remove temporary directory %s: %w", w.path, err)
		}
	})
	return w.err
}
