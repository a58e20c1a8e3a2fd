// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

const (
	// DefaultBaseURL is where compiler archives are downloaded from.
	DefaultBaseURL = "https://download.mendix.com/runtimes"

	cacheDirName = "mxdock"
)

// ErrNetwork is the sentinel error wrapped by NetworkError.
var ErrNetwork = errors.New("download failed")

type (
	// Cache is a persistent directory of downloaded files keyed by name.
	// A file is fetched at most once; later calls return the stored copy.
	Cache struct {
		// Root is the cache directory. It is created on first use.
		Root string
		// Client performs the downloads; nil means http.DefaultClient.
		Client *http.Client
		Logger *log.Logger
	}

	// NetworkError is returned when a download fails.
	NetworkError struct {
		URL    string
		Status string
		Cause  error
	}
)

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("download %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("download %s: unexpected status %s", e.URL, e.Status)
}

// Unwrap returns ErrNetwork for errors.Is() compatibility.
func (e *NetworkError) Unwrap() error { return ErrNetwork }

// DefaultCacheDir returns the user-scoped cache directory.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, cacheDirName)
}

// DownloadURL joins the base URL and an archive name.
func DownloadURL(baseURL, name string) string {
	return strings.TrimRight(baseURL, "/") + "/" + name
}

// Path returns where name is stored in the cache.
func (c *Cache) Path(name string) string {
	return filepath.Join(c.Root, name)
}

// Fetch returns the cached copy of name, downloading it from url first if
// absent. The body is streamed to a temp file in Root and renamed into place,
// so an interrupted download never leaves a partial file under name.
func (c *Cache) Fetch(ctx context.Context, url, name string) (_ string, err error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid cache entry name %q", name)
	}

	dest := c.Path(name)
	if info, statErr := os.Stat(dest); statErr == nil && info.Mode().IsRegular() {
		c.logger().Debug("using cached download", "path", dest)
		return dest, nil
	}

	if err := os.MkdirAll(c.Root, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}

	c.logger().Info("downloading", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", &NetworkError{URL: url, Cause: err}
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return "", &NetworkError{URL: url, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }() // read-only HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &NetworkError{URL: url, Status: resp.Status}
	}

	tmp, err := os.CreateTemp(c.Root, "."+name+".part-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath) // Best-effort cleanup
		}
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return "", &NetworkError{URL: url, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("store %s: %w", dest, err)
	}

	return dest, nil
}

func (c *Cache) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func (c *Cache) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.New(io.Discard)
}
