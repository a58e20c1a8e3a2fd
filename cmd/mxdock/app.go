// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mxdock/mxdock/internal/archive"
	"github.com/mxdock/mxdock/internal/config"
	"github.com/mxdock/mxdock/internal/container"
	"github.com/mxdock/mxdock/internal/pipeline"
	"github.com/mxdock/mxdock/internal/toolchain"
)

// definitionsDirName is looked up in the working directory and next to the
// executable when no definitions directory is configured.
const definitionsDirName = "definitions"

// ErrDefinitionsNotFound is the sentinel error wrapped by DefinitionsNotFoundError.
var ErrDefinitionsNotFound = errors.New("toolchain definitions not found")

type (
	// EngineFinder locates a container engine, trying preferred first.
	EngineFinder func(preferred container.EngineType, logger *log.Logger) (container.Engine, error)

	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer; command handlers receive an App reference.
	App struct {
		Config     config.Provider
		FindEngine EngineFinder
		HTTPClient *http.Client

		stdout io.Writer
		stderr io.Writer
		flags  rootFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     config.Provider
		FindEngine EngineFinder
		// HTTPClient downloads compiler archives; nil means http.DefaultClient.
		HTTPClient *http.Client
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// rootFlags are the global flags. Set flags override configuration values.
	rootFlags struct {
		configFile     string
		verbose        bool
		engine         string
		cacheDir       string
		tempDir        string
		definitionsDir string
		keepTemp       bool
		rebuild        bool
	}

	// session is the effective configuration of one command invocation.
	session struct {
		app        *App
		cfg        *config.Config
		configPath string
		logger     *log.Logger
	}

	// engineCompiler compiles project-model databases with a toolchain.Builder.
	// The engine and the definitions directory are resolved on first use, so
	// inputs that need no compilation work without either.
	engineCompiler struct {
		s *session
	}

	// DefinitionsNotFoundError is returned when no directory holding the
	// compiler entry script can be found.
	DefinitionsNotFoundError struct {
		Searched []string
	}
)

var (
	_ pipeline.Compiler = (*engineCompiler)(nil)

	discardLogger = log.New(io.Discard)
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.FindEngine == nil {
		deps.FindEngine = discoverEngine
	}
	return &App{
		Config:     deps.Config,
		FindEngine: deps.FindEngine,
		HTTPClient: deps.HTTPClient,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
}

func discoverEngine(preferred container.EngineType, logger *log.Logger) (container.Engine, error) {
	return container.Discover(preferred, container.WithLogger(logger))
}

// Error implements the error interface.
func (e *DefinitionsNotFoundError) Error() string {
	return fmt.Sprintf("no %s found in %s", toolchain.ScriptRelPath, strings.Join(e.Searched, ", "))
}

// Unwrap returns ErrDefinitionsNotFound for errors.Is() compatibility.
func (e *DefinitionsNotFoundError) Unwrap() error { return ErrDefinitionsNotFound }

// newSession loads the configuration and applies the flags that were set.
func (a *App) newSession(cmd *cobra.Command) (*session, error) {
	cfg, path, err := a.loadConfig(cmd.Context())
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd.Flags(), &a.flags, cfg); err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: "mxdock",
		Level:  log.InfoLevel,
	})
	if cfg.UI.Verbose {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportTimestamp(true)
	}
	if path != "" {
		logger.Debug("loaded configuration", "file", path)
	}

	return &session{app: a, cfg: cfg, configPath: path, logger: logger}, nil
}

// loadConfig returns the configuration and the file it was read from.
func (a *App) loadConfig(ctx context.Context) (*config.Config, string, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configFile})
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(fs *pflag.FlagSet, f *rootFlags, cfg *config.Config) error {
	if fs.Changed("engine") {
		engine := config.ContainerEngine(f.engine)
		if valid, errs := engine.IsValid(); !valid {
			return errors.Join(errs...)
		}
		cfg.ContainerEngine = engine
	}
	if fs.Changed("cache-dir") {
		cfg.CacheDir = config.DirPath(f.cacheDir)
	}
	if fs.Changed("temp-dir") {
		cfg.TempDir = config.DirPath(f.tempDir)
	}
	if fs.Changed("definitions-dir") {
		cfg.DefinitionsDir = config.DirPath(f.definitionsDir)
	}
	if fs.Changed("keep-temp") {
		cfg.KeepTemp = f.keepTemp
	}
	if fs.Changed("rebuild") {
		cfg.Toolchain.Rebuild = f.rebuild
	}
	if fs.Changed("verbose") {
		cfg.UI.Verbose = f.verbose
	}
	return nil
}

// stylePath returns the glamour style for issue rendering, or "" when
// catalog entries are not shown.
func (s *session) stylePath() string {
	if !s.cfg.UI.Verbose {
		return ""
	}
	return string(s.cfg.UI.ColorScheme)
}

func (s *session) pipeline() *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Compiler: &engineCompiler{s: s},
		Resolver: s.cfg.Toolchain.Resolver(),
		TempDir:  string(s.cfg.TempDir),
		KeepTemp: s.cfg.KeepTemp,
		Logger:   s.logger,
	}
}

func (s *session) cacheDir() string {
	if s.cfg.CacheDir != "" {
		return string(s.cfg.CacheDir)
	}
	return toolchain.DefaultCacheDir()
}

func (s *session) engine() (container.Engine, error) {
	return s.app.FindEngine(container.EngineType(s.cfg.ContainerEngine), s.logger)
}

// Build implements pipeline.Compiler.
func (c *engineCompiler) Build(ctx context.Context, projectDir, mprPath string) (*archive.Workspace, error) {
	s := c.s
	defs, err := resolveDefinitionsDir(string(s.cfg.DefinitionsDir))
	if err != nil {
		return nil, err
	}
	engine, err := s.engine()
	if err != nil {
		return nil, err
	}
	s.logger.Debug("using container engine", "engine", engine.Name(), "path", engine.BinaryPath())

	builder := &toolchain.Builder{
		Engine: engine,
		Cache: &toolchain.Cache{
			Root:   s.cacheDir(),
			Client: s.app.HTTPClient,
			Logger: s.logger,
		},
		Resolver:       s.cfg.Toolchain.Resolver(),
		DefinitionsDir: defs,
		BaseURL:        s.cfg.DownloadBaseURL,
		TempDir:        string(s.cfg.TempDir),
		Rebuild:        s.cfg.Toolchain.Rebuild,
		KeepTemp:       s.cfg.KeepTemp,
		Logger:         s.logger,
	}
	return builder.Build(ctx, projectDir, mprPath)
}

// resolveDefinitionsDir returns configured when set, otherwise the first of
// ./definitions and <executable dir>/definitions that holds the entry script.
func resolveDefinitionsDir(configured string) (string, error) {
	var candidates []string
	if configured != "" {
		candidates = append(candidates, configured)
	} else {
		candidates = append(candidates, definitionsDirName)
		if exe, err := os.Executable(); err == nil {
			candidates = append(candidates, filepath.Join(filepath.Dir(exe), definitionsDirName))
		}
	}

	for _, dir := range candidates {
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(toolchain.ScriptRelPath)))
		if err == nil && info.Mode().IsRegular() {
			return filepath.Abs(dir)
		}
	}
	return "", &DefinitionsNotFoundError{Searched: candidates}
}
