// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// MustWriteFile writes data to path, creating parent directories.
func MustWriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// MetadataJSON returns a model/metadata.json document. A zero javaVersion
// omits the JavaVersion key.
func MetadataJSON(t testing.TB, runtimeVersion string, javaVersion int) []byte {
	t.Helper()
	doc := map[string]any{
		"RuntimeVersion": runtimeVersion,
		"ModelVersion":   "1.0.0.0",
	}
	if javaVersion != 0 {
		doc["JavaVersion"] = javaVersion
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("failed to marshal metadata: %v", err)
	}
	return data
}

// WriteExtractedApp lays out an extracted application directory in dir.
func WriteExtractedApp(t testing.TB, dir, runtimeVersion string) {
	t.Helper()
	MustWriteFile(t, filepath.Join(dir, "model", "metadata.json"), MetadataJSON(t, runtimeVersion, 0))
	MustWriteFile(t, filepath.Join(dir, "web", "index.html"), []byte("<html></html>"))
}

// WriteZip writes a zip archive containing files (slash-separated name to
// content). Names ending in "/" become directory entries.
func WriteZip(t testing.TB, path string, files map[string][]byte) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path), 0o755)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer MustClose(t, f)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to add %s to zip: %v", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			t.Fatalf("failed to write %s to zip: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finalize zip %s: %v", path, err)
	}
}

// WriteAppArchive writes a pre-built application archive whose metadata
// carries runtimeVersion.
func WriteAppArchive(t testing.TB, path, runtimeVersion string) {
	t.Helper()
	WriteZip(t, path, map[string][]byte{
		"model/":              nil,
		"model/metadata.json": MetadataJSON(t, runtimeVersion, 0),
		"web/index.html":      []byte("<html></html>"),
	})
}

// WriteModelDatabase creates a project-model database at path whose
// _MetaData table holds productVersion. An empty productVersion creates the
// table without rows.
func WriteModelDatabase(t testing.TB, path, productVersion string) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path), 0o755)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer MustClose(t, db)

	if _, err := db.Exec(`CREATE TABLE _MetaData (_ProductVersion TEXT, _BuildVersion TEXT)`); err != nil {
		t.Fatalf("failed to create _MetaData: %v", err)
	}
	if productVersion == "" {
		return
	}
	if _, err := db.Exec(`INSERT INTO _MetaData (_ProductVersion, _BuildVersion) VALUES (?, ?)`, productVersion, productVersion); err != nil {
		t.Fatalf("failed to insert product version: %v", err)
	}
}

// TempEntries lists the mxdock-* directories directly below dir. Tests point
// the pipeline's temp root at a private directory and assert on this to
// detect leaked workspaces.
func TempEntries(t testing.TB, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "mxdock-*"))
	if err != nil {
		t.Fatalf("failed to glob %s: %v", dir, err)
	}
	return matches
}

// WriteDefinitions lays out a toolchain definitions directory in dir: the
// compiler entry script and both base image Dockerfiles.
func WriteDefinitions(t testing.TB, dir string) {
	t.Helper()
	MustWriteFile(t, filepath.Join(dir, "scripts", "mxbuild"), []byte("#!/bin/sh\nexec mxbuild \"$@\"\n"))
	MustWriteFile(t, filepath.Join(dir, "rootfs-mxbuild-dotnet.dockerfile"), []byte("FROM scratch\nARG MXBUILD_ARCHIVE\nARG JAVA_VERSION\n"))
	MustWriteFile(t, filepath.Join(dir, "rootfs-mxbuild-mono.dockerfile"), []byte("FROM scratch\nARG MXBUILD_ARCHIVE\nARG JAVA_VERSION\n"))
}
