package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/patterngridgo/internal/artifact"
	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/ctxlog"
	"github.com/vk/patterngridgo/internal/evaluator"
	"github.com/vk/patterngridgo/internal/graphstore"
	"github.com/vk/patterngridgo/internal/inmemorycache"
	"github.com/vk/patterngridgo/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	registry  *registry.Registry
	converter config.Converter
	evaluator *evaluator.Evaluator
	store     *graphstore.Store
	uploader  *artifact.Uploader
	config    *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, registry,
// evaluator and graph store.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Create and populate the registry with Go handlers.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	// Each modifier package embeds its own manifest; fold them all into a
	// single model before applying any user-supplied overrides.
	model := config.NewModel()
	for _, mod := range modules {
		provider, ok := mod.(registry.ManifestProvider)
		if !ok {
			continue
		}
		filename, src := provider.Manifest()
		embedded, _, err := loader.LoadBytes(ctx, filename, src)
		if err != nil {
			// A broken embedded manifest is a build defect, not user error.
			panic(fmt.Errorf("failed to load embedded manifest %s: %w", filename, err))
		}
		model.Merge(embedded)
	}
	logger.Debug("Embedded manifests loaded.", "modifiers", len(model.Modifiers))

	// User manifests apply last so they can replace built-in definitions.
	var manifestPaths []string
	if cfg.ManifestPath != "" {
		manifestPaths = append(manifestPaths, cfg.ManifestPath)
	}
	userModel, converter, err := loader.Load(ctx, manifestPaths...)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	if replaced := model.Merge(userModel); len(replaced) > 0 {
		logger.Info("User manifests replaced built-in modifier definitions.", "modifiers", replaced)
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	// Populate the registry's definitions from the merged config model.
	reg.PopulateDefinitionsFromModel(ctx, model)
	logger.Debug("Registry definitions populated from config model.")

	// Validate the integrity of the registry.
	if err := reg.ValidateRegistry(ctx); err != nil {
		// This is a programmer error (mismatch between code and config), so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	eval := evaluator.New(reg, converter, inmemorycache.New())
	store := graphstore.New(eval, cfg.DebounceInterval)
	logger.Debug("Evaluator and graph store wired.")

	var uploader *artifact.Uploader
	if cfg.Artifact.Bucket != "" {
		uploader, err = artifact.NewUploader(cfg.Artifact)
		if err != nil {
			panic(fmt.Errorf("failed to configure artifact uploads: %w", err))
		}
		logger.Debug("Artifact uploader configured.", "bucket", cfg.Artifact.Bucket)
	}

	return &App{
		outW:      outW,
		logger:    logger,
		registry:  reg,
		converter: converter,
		evaluator: eval,
		store:     store,
		uploader:  uploader,
		config:    cfg,
	}
}

// Logger returns the application's isolated logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Store returns the application's graph store.
func (a *App) Store() *graphstore.Store {
	return a.store
}

// Evaluator returns the application's pattern evaluator.
func (a *App) Evaluator() *evaluator.Evaluator {
	return a.evaluator
}

// Converter returns the parameter converter produced by the config loader.
func (a *App) Converter() config.Converter {
	return a.converter
}

// Uploader returns the artifact uploader, or nil when uploads are disabled.
func (a *App) Uploader() *artifact.Uploader {
	return a.uploader
}
