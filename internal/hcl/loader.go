package hcl

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/patterngridgo/internal/config"
	"github.com/vk/patterngridgo/internal/ctxlog"
	"github.com/vk/patterngridgo/internal/fsutil"
	"github.com/vk/patterngridgo/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot is a struct used to decode all top-level blocks from a manifest.
type fileRoot struct {
	Modifiers []*schema.ModifierDefinition `hcl:"modifier,block"`
	Remain    hcl.Body                     `hcl:",remain"`
}

// Load orchestrates manifest loading from the given paths. Each path may be
// a single .hcl file or a directory searched recursively; files apply in
// sorted order with later definitions replacing earlier ones by type name.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findManifestFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered manifest files.", "count", len(files))

	model := config.NewModel()
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse manifest %s: %w", file, diags)
		}
		if err := l.mergeFile(ctx, model, hclFile.Body, file); err != nil {
			return nil, nil, err
		}
	}

	logger.Debug("HCL loading complete.", "modifiers", len(model.Modifiers))
	return model, NewConverter(), nil
}

// LoadBytes translates a single in-memory manifest, typically one embedded
// in a modifier package via go:embed.
func (l *Loader) LoadBytes(ctx context.Context, filename string, src []byte) (*config.Model, config.Converter, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}

	model := config.NewModel()
	if err := l.mergeFile(ctx, model, hclFile.Body, filename); err != nil {
		return nil, nil, err
	}
	return model, NewConverter(), nil
}

// mergeFile decodes one manifest body and folds its definitions into the
// model, last-write-wins by modifier type name.
func (l *Loader) mergeFile(ctx context.Context, model *config.Model, body hcl.Body, filename string) error {
	logger := ctxlog.FromContext(ctx)

	var root fileRoot
	diags := gohcl.DecodeBody(body, nil, &root)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode manifest %s: %w", filename, diags)
	}

	for _, mod := range root.Modifiers {
		def, err := l.translateModifierDefinition(ctx, mod)
		if err != nil {
			return fmt.Errorf("manifest %s: %w", filename, err)
		}
		if _, exists := model.Modifiers[def.Type]; exists {
			logger.Warn("Manifest replaces an earlier definition of the same modifier.",
				"modifier", def.Type, "file", filename)
		}
		model.Modifiers[def.Type] = def
	}
	return nil
}

// findManifestFiles expands the given paths into a flat, de-duplicated,
// sorted list of .hcl files.
func (l *Loader) findManifestFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		if filepath.Ext(path) == ".hcl" {
			if _, dup := seen[path]; !dup {
				all = append(all, path)
				seen[path] = struct{}{}
			}
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("error searching manifest path %s: %w", path, err)
		}
		for _, f := range found {
			if _, dup := seen[f]; !dup {
				all = append(all, f)
				seen[f] = struct{}{}
			}
		}
	}
	return all, nil
}
