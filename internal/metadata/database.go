// SPDX-License-Identifier: MPL-2.0

package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const productVersionQuery = `SELECT _ProductVersion FROM _MetaData LIMIT 1`

// ReadProductVersion returns the product version recorded in a project-model
// database. The file is opened read-only; a missing file, a missing table,
// no rows, or an empty value yield MetadataReadError.
func ReadProductVersion(ctx context.Context, path string) (_ string, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &MetadataReadError{Path: path, Reason: "cannot open project database", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return "", &MetadataReadError{Path: path, Reason: "project database is not a regular file"}
	}

	dsn, err := readOnlyDSN(path)
	if err != nil {
		return "", &MetadataReadError{Path: path, Reason: "cannot resolve project database path", Cause: err}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return "", &MetadataReadError{Path: path, Reason: "cannot open project database", Cause: err}
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = &MetadataReadError{Path: path, Reason: "close project database", Cause: closeErr}
		}
	}()

	var productVersion sql.NullString
	if err := db.QueryRowContext(ctx, productVersionQuery).Scan(&productVersion); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", &MetadataReadError{Path: path, Reason: "no product version record"}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("read product version: %w", ctxErr)
		}
		return "", &MetadataReadError{Path: path, Reason: "query product version", Cause: err}
	}

	v := strings.TrimSpace(productVersion.String)
	if !productVersion.Valid || v == "" {
		return "", &MetadataReadError{Path: path, Reason: "empty product version"}
	}
	return v, nil
}

// readOnlyDSN returns a read-only SQLite URI for path. The path is made
// absolute first: in a relative URI the first segment would be parsed as the
// authority.
func readOnlyDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // C:/... on Windows
	}
	u := url.URL{Scheme: "file", Path: p, RawQuery: "mode=ro"}
	return u.String(), nil
}
