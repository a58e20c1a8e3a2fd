// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mxdock/mxdock/internal/issue"
)

type (
	// LoadOptions selects the configuration file.
	LoadOptions struct {
		// ConfigFilePath is read instead of the lookup when set. It must exist.
		ConfigFilePath string
		// ConfigDirPath replaces ConfigDir in the lookup when set.
		ConfigDirPath string
	}

	// Provider returns the effective configuration: built-in defaults, then
	// the config file, then MXDOCK_* variables. The second result names the
	// file that was read, "" when there was none.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, string, error)
	}

	fileProvider struct{}
)

// NewProvider returns the Provider that reads config.cue files.
func NewProvider() Provider {
	return fileProvider{}
}

func (fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config canceled: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaultValues(DefaultConfig()) {
		v.SetDefault(key, value)
	}

	source, err := ResolvePath(opts)
	if err != nil {
		return nil, "", err
	}
	if source != "" {
		if err := loadCUEIntoViper(v, source); err != nil {
			return nil, "", invalidFileError(source, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// MXDOCK_* values never pass through the CUE schema.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(source).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check the values set in the config file and MXDOCK_* environment variables").
			Wrap(joinFieldErrors(errs)).
			BuildError()
	}

	return &cfg, source, nil
}

// defaultValues flattens d into the dotted keys viper resolves environment
// variables for. Every key must be present or its MXDOCK_* variable is
// ignored.
func defaultValues(d *Config) map[string]any {
	return map[string]any{
		"container_engine":            d.ContainerEngine,
		"cache_dir":                   d.CacheDir,
		"temp_dir":                    d.TempDir,
		"keep_temp":                   d.KeepTemp,
		"definitions_dir":             d.DefinitionsDir,
		"download_base_url":           d.DownloadBaseURL,
		"toolchain.modern_threshold":  d.Toolchain.ModernThreshold,
		"toolchain.modern_java":       d.Toolchain.ModernJava,
		"toolchain.legacy_java":       d.Toolchain.LegacyJava,
		"toolchain.modern_dockerfile": d.Toolchain.ModernDockerfile,
		"toolchain.legacy_dockerfile": d.Toolchain.LegacyDockerfile,
		"toolchain.rebuild":           d.Toolchain.Rebuild,
		"ui.color_scheme":             d.UI.ColorScheme,
		"ui.verbose":                  d.UI.Verbose,
	}
}
