// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mxdock/mxdock/internal/toolchain"
	"github.com/mxdock/mxdock/internal/version"
)

const (
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidDirPath is returned when a DirPath value is whitespace-only.
	ErrInvalidDirPath = errors.New("invalid directory path")
	// ErrInvalidToolchainConfig is the sentinel error wrapped by InvalidToolchainConfigError.
	ErrInvalidToolchainConfig = errors.New("invalid toolchain config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container runtime to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	// It wraps ErrInvalidContainerEngine for errors.Is() compatibility.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// DirPath is a filesystem path to a directory.
	// The zero value ("") is valid and means "use the default location".
	DirPath string

	// InvalidDirPathError is returned when a DirPath value is non-empty but
	// whitespace-only.
	InvalidDirPathError struct {
		Field string
		Value DirPath
	}

	// InvalidToolchainConfigError is returned when a ToolchainConfig has invalid fields.
	// It wraps ErrInvalidToolchainConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidToolchainConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// ContainerEngine is tried first during engine discovery.
		ContainerEngine ContainerEngine `json:"container_engine" mapstructure:"container_engine"`
		// CacheDir holds downloaded compiler archives.
		CacheDir DirPath `json:"cache_dir" mapstructure:"cache_dir"`
		// TempDir is the parent of temporary working directories.
		TempDir DirPath `json:"temp_dir" mapstructure:"temp_dir"`
		// KeepTemp retains temporary directories after a run.
		KeepTemp bool `json:"keep_temp" mapstructure:"keep_temp"`
		// DefinitionsDir holds the compiler entry script and Dockerfiles.
		DefinitionsDir DirPath `json:"definitions_dir" mapstructure:"definitions_dir"`
		// DownloadBaseURL is the compiler archive download location.
		DownloadBaseURL string `json:"download_base_url" mapstructure:"download_base_url"`
		// Toolchain configures compiler image selection.
		Toolchain ToolchainConfig `json:"toolchain" mapstructure:"toolchain"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// ToolchainConfig configures compiler image selection.
	ToolchainConfig struct {
		ModernThreshold  string `json:"modern_threshold" mapstructure:"modern_threshold"`
		ModernJava       int    `json:"modern_java" mapstructure:"modern_java"`
		LegacyJava       int    `json:"legacy_java" mapstructure:"legacy_java"`
		ModernDockerfile string `json:"modern_dockerfile" mapstructure:"modern_dockerfile"`
		LegacyDockerfile string `json:"legacy_dockerfile" mapstructure:"legacy_dockerfile"`
		// Rebuild forces the compiler image to be rebuilt.
		Rebuild bool `json:"rebuild" mapstructure:"rebuild"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// Threshold parses ModernThreshold.
func (c ToolchainConfig) Threshold() (version.Version, error) {
	return version.Parse(c.ModernThreshold)
}

// Resolver returns a toolchain.Resolver for the configured values. The
// configuration must have passed IsValid.
func (c ToolchainConfig) Resolver() toolchain.Resolver {
	r := toolchain.DefaultResolver()
	if threshold, err := c.Threshold(); err == nil {
		r.Threshold = threshold
	}
	r.ModernJava = c.ModernJava
	r.LegacyJava = c.LegacyJava
	r.ModernDockerfile = c.ModernDockerfile
	r.LegacyDockerfile = c.LegacyDockerfile
	return r
}

// IsValid returns whether the ToolchainConfig has valid fields.
func (c ToolchainConfig) IsValid() (bool, []error) {
	var errs []error
	if _, err := c.Threshold(); err != nil {
		errs = append(errs, fmt.Errorf("modern_threshold: %w", err))
	}
	if c.ModernJava <= 0 {
		errs = append(errs, fmt.Errorf("modern_java: must be positive, got %d", c.ModernJava))
	}
	if c.LegacyJava <= 0 {
		errs = append(errs, fmt.Errorf("legacy_java: must be positive, got %d", c.LegacyJava))
	}
	if strings.TrimSpace(c.ModernDockerfile) == "" {
		errs = append(errs, errors.New("modern_dockerfile: must be non-empty"))
	}
	if strings.TrimSpace(c.LegacyDockerfile) == "" {
		errs = append(errs, errors.New("legacy_dockerfile: must be non-empty"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidToolchainConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidToolchainConfigError.
func (e *InvalidToolchainConfigError) Error() string {
	return fmt.Sprintf("invalid toolchain config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidToolchainConfig for errors.Is() compatibility.
func (e *InvalidToolchainConfigError) Unwrap() error { return ErrInvalidToolchainConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to each field type's IsValid and to Toolchain.IsValid().
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ContainerEngine.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, d := range []struct {
		field string
		path  DirPath
	}{
		{"cache_dir", c.CacheDir},
		{"temp_dir", c.TempDir},
		{"definitions_dir", c.DefinitionsDir},
	} {
		if valid, fieldErrs := d.path.isValid(d.field); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if u, err := url.Parse(c.DownloadBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("download_base_url: %q is not an http(s) URL", c.DownloadBaseURL))
	}
	if valid, fieldErrs := c.Toolchain.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// String returns the string representation of the DirPath.
func (p DirPath) String() string { return string(p) }

func (p DirPath) isValid(field string) (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidDirPathError{Field: field, Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDirPathError.
func (e *InvalidDirPathError) Error() string {
	return fmt.Sprintf("invalid %s %q: non-empty value must not be whitespace-only", e.Field, e.Value)
}

// Unwrap returns ErrInvalidDirPath for errors.Is() compatibility.
func (e *InvalidDirPathError) Unwrap() error { return ErrInvalidDirPath }

// Error implements the error interface for InvalidContainerEngineError.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: podman, docker)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error {
	return ErrInvalidContainerEngine
}

// String returns the string representation of the ContainerEngine.
func (ce ContainerEngine) String() string { return string(ce) }

// IsValid returns whether the ContainerEngine is one of the defined engine types,
// and a list of validation errors if it is not.
func (ce ContainerEngine) IsValid() (bool, []error) {
	switch ce {
	case ContainerEnginePodman, ContainerEngineDocker:
		return true, nil
	default:
		return false, []error{&InvalidContainerEngineError{Value: ce}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: ContainerEnginePodman,
		CacheDir:        "", // xdg cache dir when empty
		TempDir:         "", // OS temp dir when empty
		KeepTemp:        false,
		DefinitionsDir:  "", // ./definitions when empty
		DownloadBaseURL: toolchain.DefaultBaseURL,
		Toolchain: ToolchainConfig{
			ModernThreshold:  toolchain.DefaultThreshold.String(),
			ModernJava:       toolchain.DefaultModernJava,
			LegacyJava:       toolchain.DefaultLegacyJava,
			ModernDockerfile: toolchain.DefaultModernDockerfile,
			LegacyDockerfile: toolchain.DefaultLegacyDockerfile,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}
