// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mxdock/mxdock/internal/issue"
	"github.com/mxdock/mxdock/internal/testutil"
	"github.com/mxdock/mxdock/internal/toolchain"
	"github.com/mxdock/mxdock/internal/version"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.cue")
	testutil.MustWriteFile(t, path, []byte(content))
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.ContainerEngine != ContainerEnginePodman {
		t.Errorf("expected default container engine to be podman, got %s", cfg.ContainerEngine)
	}
	if cfg.DownloadBaseURL != toolchain.DefaultBaseURL {
		t.Errorf("DownloadBaseURL = %q", cfg.DownloadBaseURL)
	}
	if cfg.Toolchain.ModernThreshold != "10.0.0.0" {
		t.Errorf("ModernThreshold = %q, want 10.0.0.0", cfg.Toolchain.ModernThreshold)
	}
	if cfg.KeepTemp || cfg.Toolchain.Rebuild || cfg.UI.Verbose {
		t.Error("expected boolean options to default to false")
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("default config is invalid: %v", errs)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, path, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if path != "" {
		t.Errorf("expected no config file, got %q", path)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), []byte(`
container_engine: "docker"
keep_temp: true
toolchain: {
	modern_threshold: "9.20"
	modern_java: 17
}
`))

	cfg, path, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("resolved path = %q", path)
	}
	if cfg.ContainerEngine != ContainerEngineDocker || !cfg.KeepTemp {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Toolchain.ModernJava != 17 || cfg.Toolchain.LegacyJava != toolchain.DefaultLegacyJava {
		t.Errorf("toolchain = %+v", cfg.Toolchain)
	}

	r := cfg.Toolchain.Resolver()
	if diff := cmp.Diff(version.Version{9, 20}, r.Threshold); diff != "" {
		t.Errorf("Resolver threshold mismatch (-want +got):\n%s", diff)
	}
	if r.ModernJava != 17 {
		t.Errorf("Resolver ModernJava = %d, want 17", r.ModernJava)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `definitions_dir: "/opt/mxdock/definitions"`)
	cfg, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.DefinitionsDir != "/opt/mxdock/definitions" {
		t.Errorf("DefinitionsDir = %q", cfg.DefinitionsDir)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue")})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *issue.ActionableError, got %T: %v", err, err)
	}
	if len(ae.Suggestions) == 0 {
		t.Error("expected suggestions on the error")
	}
	if ae.Issue != issue.ConfigLoadFailedId {
		t.Errorf("Issue = %d, want ConfigLoadFailedId", ae.Issue)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{name: "unknown engine", content: `container_engine: "lxc"`, contains: "container_engine"},
		{name: "unknown key", content: `registry: "quay.io"`, contains: "registry"},
		{name: "bad threshold", content: `toolchain: modern_threshold: "ten"`, contains: "modern_threshold"},
		{name: "java too old", content: `toolchain: legacy_java: 6`, contains: "legacy_java"},
		{name: "bad url", content: `download_base_url: "ftp://example.com"`, contains: "download_base_url"},
		{name: "syntax", content: `container_engine: `, contains: "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, tt.content)
			_, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not mention %q", err, tt.contains)
			}
		})
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MXDOCK_CONTAINER_ENGINE", "docker")
	t.Setenv("MXDOCK_TOOLCHAIN_REBUILD", "true")
	t.Setenv("MXDOCK_TOOLCHAIN_MODERN_JAVA", "25")

	cfg, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.ContainerEngine != ContainerEngineDocker || !cfg.Toolchain.Rebuild || cfg.Toolchain.ModernJava != 25 {
		t.Errorf("environment overrides not applied: %+v", cfg)
	}
}

func TestLoad_InvalidEnvOverride(t *testing.T) {
	t.Setenv("MXDOCK_CONTAINER_ENGINE", "lxc")

	_, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if !strings.Contains(err.Error(), "lxc") {
		t.Errorf("error does not name the bad value: %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	want := DefaultConfig()
	want.ContainerEngine = ContainerEngineDocker
	want.CacheDir = "/var/cache/mxdock"
	want.Toolchain.Rebuild = true
	want.UI.ColorScheme = ColorSchemeDark

	path := writeConfig(t, GenerateCUE(want))
	got, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "mxdock")
	path, err := CreateDefaultConfig(dir)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() returned error: %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}

	// An existing file is left alone.
	testutil.MustWriteFile(t, path, []byte(`keep_temp: true`))
	if _, err := CreateDefaultConfig(dir); err != nil {
		t.Fatalf("second CreateDefaultConfig() returned error: %v", err)
	}
	cfg, _, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if !cfg.KeepTemp {
		t.Error("existing config was overwritten")
	}
}

func TestConfigDir_Override(t *testing.T) {
	SetConfigDirOverride("/tmp/mxdock-config")
	t.Cleanup(Reset)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if dir != "/tmp/mxdock-config" {
		t.Errorf("ConfigDir() = %q", dir)
	}
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	got, err := ResolvePath(LoadOptions{ConfigDirPath: dir})
	if err != nil || got != "" {
		t.Fatalf("ResolvePath() = %q, %v; want no file", got, err)
	}

	want := filepath.Join(dir, "config.cue")
	testutil.MustWriteFile(t, want, []byte(`keep_temp: true`))
	if got, err = ResolvePath(LoadOptions{ConfigDirPath: dir}); err != nil || got != want {
		t.Errorf("ResolvePath() = %q, %v; want %q", got, err, want)
	}

	explicit := writeConfig(t, `keep_temp: false`)
	if got, err = ResolvePath(LoadOptions{ConfigFilePath: explicit, ConfigDirPath: dir}); err != nil || got != explicit {
		t.Errorf("explicit ResolvePath() = %q, %v; want %q", got, err, explicit)
	}
}

func TestLoad_ReportsSource(t *testing.T) {
	t.Parallel()

	explicit := writeConfig(t, `keep_temp: true`)
	cfg, source, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: explicit, ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if source != explicit || !cfg.KeepTemp {
		t.Errorf("Load() = %+v from %q, want keep_temp from %q", cfg, source, explicit)
	}
}

func TestDefaultValues_CoverEveryField(t *testing.T) {
	t.Parallel()

	var keys []string
	var walk func(prefix string, typ reflect.Type)
	walk = func(prefix string, typ reflect.Type) {
		for i := range typ.NumField() {
			f := typ.Field(i)
			key := prefix + f.Tag.Get("mapstructure")
			if f.Type.Kind() == reflect.Struct {
				walk(key+".", f.Type)
				continue
			}
			keys = append(keys, key)
		}
	}
	walk("", reflect.TypeOf(Config{}))

	defaults := defaultValues(DefaultConfig())
	for _, key := range keys {
		if _, ok := defaults[key]; !ok {
			t.Errorf("no default for %q, so MXDOCK_%s is ignored", key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
		}
	}
	if len(defaults) != len(keys) {
		t.Errorf("defaultValues has %d keys, Config has %d fields", len(defaults), len(keys))
	}
}
