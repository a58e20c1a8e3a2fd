// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/mxdock/mxdock/internal/issue"
	"github.com/mxdock/mxdock/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "mxdock"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment variable overrides, e.g.
	// MXDOCK_TOOLCHAIN_REBUILD=true.
	EnvPrefix = "MXDOCK"
)

//go:embed config_schema.cue
var configSchema string

var configSchemaDef = cueutil.NewSchema(configSchema, "#Config")

// ConfigDir returns the mxdock configuration directory below the platform's
// XDG config home ($XDG_CONFIG_HOME or ~/.config on Linux, ~/Library/Application
// Support on macOS, %LOCALAPPDATA% on Windows).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	if xdg.ConfigHome == "" {
		return "", errors.New("failed to resolve the user config directory")
	}
	return filepath.Join(xdg.ConfigHome, AppName), nil
}

// ResolvePath returns the config file Load reads for opts, or "" when only
// defaults apply. An explicit ConfigFilePath must exist. Otherwise the user
// config directory wins over a config.cue in the working directory.
func ResolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'mxdock config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	for _, candidate := range []string{
		filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
		ConfigFileName + "." + ConfigFileExt,
	} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

func invalidFileError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithIssue(issue.ConfigLoadFailedId).
		WithSuggestion(
			"Check that the file contains valid CUE syntax",
			"Verify the configuration values match the expected schema",
			"See 'mxdock config --help' for configuration options",
		).
		Wrap(err).
		BuildError()
}

// joinFieldErrors returns the single InvalidConfigError from IsValid,
// flattened so that the field messages reach the user.
func joinFieldErrors(errs []error) error {
	if len(errs) == 1 {
		if cfgErr, ok := errs[0].(*InvalidConfigError); ok {
			return fmt.Errorf("%w: %s", cfgErr, fieldMessages(cfgErr.FieldErrors))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fieldMessages(errs))
}

func fieldMessages(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper. Fields are optional, so the document is
// decoded to a map rather than to Config.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var doc map[string]any
	if err := configSchemaDef.Decode(data, path, &doc); err != nil {
		return err
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(doc); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file into dir (ConfigDir when
// empty) unless one exists, and returns its path.
func CreateDefaultConfig(dir string) (string, error) {
	cfgDir, err := configDirWithOverride(dir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// mxdock configuration file\n\n")

	sb.WriteString(fmt.Sprintf("container_engine: %q\n", cfg.ContainerEngine))
	if cfg.CacheDir != "" {
		sb.WriteString(fmt.Sprintf("cache_dir: %q\n", cfg.CacheDir))
	}
	if cfg.TempDir != "" {
		sb.WriteString(fmt.Sprintf("temp_dir: %q\n", cfg.TempDir))
	}
	sb.WriteString(fmt.Sprintf("keep_temp: %v\n", cfg.KeepTemp))
	if cfg.DefinitionsDir != "" {
		sb.WriteString(fmt.Sprintf("definitions_dir: %q\n", cfg.DefinitionsDir))
	}
	sb.WriteString(fmt.Sprintf("download_base_url: %q\n", cfg.DownloadBaseURL))

	// Toolchain config
	sb.WriteString("\ntoolchain: {\n")
	sb.WriteString(fmt.Sprintf("\tmodern_threshold: %q\n", cfg.Toolchain.ModernThreshold))
	sb.WriteString(fmt.Sprintf("\tmodern_java: %d\n", cfg.Toolchain.ModernJava))
	sb.WriteString(fmt.Sprintf("\tlegacy_java: %d\n", cfg.Toolchain.LegacyJava))
	sb.WriteString(fmt.Sprintf("\tmodern_dockerfile: %q\n", cfg.Toolchain.ModernDockerfile))
	sb.WriteString(fmt.Sprintf("\tlegacy_dockerfile: %q\n", cfg.Toolchain.LegacyDockerfile))
	sb.WriteString(fmt.Sprintf("\trebuild: %v\n", cfg.Toolchain.Rebuild))
	sb.WriteString("}\n")

	// UI config
	sb.WriteString("\nui: {\n")
	sb.WriteString(fmt.Sprintf("\tcolor_scheme: %q\n", cfg.UI.ColorScheme))
	sb.WriteString(fmt.Sprintf("\tverbose: %v\n", cfg.UI.Verbose))
	sb.WriteString("}\n")

	return sb.String()
}
