// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestCache_FetchOnce(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("compiler bits"))
	}))
	t.Cleanup(srv.Close)

	c := &Cache{Root: filepath.Join(t.TempDir(), "cache"), Client: srv.Client()}
	url := DownloadURL(srv.URL+"/", "mxbuild-10.1.0.1.tar.gz")

	for range 2 {
		path, err := c.Fetch(context.Background(), url, "mxbuild-10.1.0.1.tar.gz")
		if err != nil {
			t.Fatalf("Fetch() returned error: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading cached file: %v", err)
		}
		if string(data) != "compiler bits" {
			t.Errorf("cached content = %q", data)
		}
	}

	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestCache_HTTPErrorLeavesNoFile(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	root := t.TempDir()
	c := &Cache{Root: root, Client: srv.Client()}

	_, err := c.Fetch(context.Background(), srv.URL+"/missing.tar.gz", "missing.tar.gz")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) || netErr.Status == "" {
		t.Errorf("expected NetworkError with status, got %#v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir() returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cache directory not empty after failed download: %v", entries)
	}
}

func TestCache_TruncatedBodyLeavesNoFile(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("short"))
	}))
	t.Cleanup(srv.Close)

	root := t.TempDir()
	c := &Cache{Root: root, Client: srv.Client()}

	_, err := c.Fetch(context.Background(), srv.URL+"/a.tar.gz", "a.tar.gz")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "a.tar.gz")); !os.IsNotExist(statErr) {
		t.Errorf("partial download left under final name: %v", statErr)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestCache_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/x.tar.gz"
	srv.Close()

	c := &Cache{Root: t.TempDir()}
	if _, err := c.Fetch(context.Background(), url, "x.tar.gz"); !errors.Is(err, ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestCache_RejectsPathNames(t *testing.T) {
	t.Parallel()

	c := &Cache{Root: t.TempDir()}
	for _, name := range []string{"", "../escape.tar.gz", "sub/dir.tar.gz"} {
		if _, err := c.Fetch(context.Background(), "http://127.0.0.1:0/", name); err == nil {
			t.Errorf("Fetch(name=%q) succeeded, want error", name)
		}
	}
}
