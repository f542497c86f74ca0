// Package config loads and normalizes engine configuration. The config
// file format has no schema validation of its own, so RawConfig is
// intentionally permissive and Resolve is the only place that enforces the
// one real configuration error (mutually exclusive models-only/mixins-only).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AliasSource is a configured (import-pattern, directory-pattern) pair, both
// halves optionally ending in a wildcard.
type AliasSource struct {
	ImportPattern    string `yaml:"import"`
	DirectoryPattern string `yaml:"dir"`
}

// RawConfig mirrors the on-disk YAML shape before root-relative paths are
// resolved. Unrecognized keys are reported by the caller as warnings; the
// decoder silently skips them.
type RawConfig struct {
	InputDir  string `yaml:"input-dir"`
	OutputDir string `yaml:"output-dir"`

	ModelSourceDir string `yaml:"model-source-dir"`
	MixinSourceDir string `yaml:"mixin-source-dir"`

	ResourcesDir  string `yaml:"resources-dir"`
	TraitsDir     string `yaml:"traits-dir"`
	ExtensionsDir string `yaml:"extensions-dir"`

	ResourcesImport  string `yaml:"resources-import"`
	TraitsImport     string `yaml:"traits-import"`
	ExtensionsImport string `yaml:"extensions-import"`

	ModelImportSource string `yaml:"model-import-source"`
	MixinImportSource string `yaml:"mixin-import-source"`

	EmberDataImportSource string `yaml:"ember-data-import-source"`

	AdditionalModelSources []AliasSource `yaml:"additional-model-sources"`
	AdditionalMixinSources []AliasSource `yaml:"additional-mixin-sources"`

	IntermediateModelPaths []string          `yaml:"intermediate-model-paths"`
	TypeMapping            map[string]string `yaml:"type-mapping"`

	DryRun  bool `yaml:"dry-run"`
	Verbose bool `yaml:"verbose"`
	Debug   bool `yaml:"debug"`

	SkipProcessed bool `yaml:"skip-processed"`

	ModelsOnly                bool  `yaml:"models-only"`
	MixinsOnly                bool  `yaml:"mixins-only"`
	GenerateExternalResources *bool `yaml:"generate-external-resources"`
}

// Config is the root-relative, fully-resolved configuration the engine
// consumes. Every directory field is an absolute path; nothing downstream
// reads os.Getwd.
type Config struct {
	RootDir   string
	OutputDir string

	ModelSourceDir string
	MixinSourceDir string

	ResourcesDir  string
	TraitsDir     string
	ExtensionsDir string

	ResourcesImport  string
	TraitsImport     string
	ExtensionsImport string

	ModelImportSource string
	MixinImportSource string

	EmberDataImportSource string

	AdditionalModelSources []AliasSource
	AdditionalMixinSources []AliasSource

	IntermediateModelPaths []string
	TypeMapping            map[string]string

	DryRun  bool
	Verbose bool
	Debug   bool

	SkipProcessed bool

	ModelsOnly                bool
	MixinsOnly                bool
	GenerateExternalResources bool
}

// Load reads and parses the YAML config at path, applying .env overrides
// before returning it. unknownKeys lists top-level YAML keys that don't
// match any RawConfig field, for the caller to log as warnings — the
// decoder itself never rejects them.
func Load(path string) (raw RawConfig, unknownKeys []string, err error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return raw, nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return raw, nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err == nil {
		known := knownYAMLKeys(reflect.TypeOf(raw))
		for key := range doc {
			if !known[key] {
				unknownKeys = append(unknownKeys, key)
			}
		}
	}

	return raw, unknownKeys, nil
}

// knownYAMLKeys collects every `yaml:"..."` tag declared on t's fields.
func knownYAMLKeys(t reflect.Type) map[string]bool {
	known := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		known[tag] = true
	}
	return known
}

// ConfigError signals an invariant violated in the input config; it aborts
// the run immediately, unlike every other warning kind.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "configuration error: " + e.Reason }

// Resolve rewrites every configured path against raw.InputDir (defaulting
// to the process cwd only here, at the single entry point) and applies
// the engine's defaults, returning the all-absolute Config the rest of the
// engine consumes.
func Resolve(raw RawConfig) (Config, error) {
	if raw.ModelsOnly && raw.MixinsOnly {
		return Config{}, &ConfigError{Reason: "models-only and mixins-only are mutually exclusive"}
	}

	root := raw.InputDir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve input-dir: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return Config{}, fmt.Errorf("resolve input-dir: %w", err)
	}

	abs := func(p, fallback string) string {
		if p == "" {
			p = fallback
		}
		if p == "" {
			return ""
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(root, p)
	}

	modelSourceDir := abs(raw.ModelSourceDir, "./app/models")
	mixinSourceDir := abs(raw.MixinSourceDir, "./app/mixins")

	resourcesDir := abs(raw.ResourcesDir, firstNonEmpty(raw.OutputDir, "./app/data/resources"))
	traitsDir := abs(raw.TraitsDir, firstNonEmpty(raw.OutputDir, "./app/data/traits"))
	extensionsDir := abs(raw.ExtensionsDir, firstNonEmpty(raw.OutputDir, "./app/data/extensions"))

	aliasModel := make([]AliasSource, 0, len(raw.AdditionalModelSources))
	for _, a := range raw.AdditionalModelSources {
		aliasModel = append(aliasModel, AliasSource{
			ImportPattern:    a.ImportPattern,
			DirectoryPattern: abs(a.DirectoryPattern, ""),
		})
	}
	aliasMixin := make([]AliasSource, 0, len(raw.AdditionalMixinSources))
	for _, a := range raw.AdditionalMixinSources {
		aliasMixin = append(aliasMixin, AliasSource{
			ImportPattern:    a.ImportPattern,
			DirectoryPattern: abs(a.DirectoryPattern, ""),
		})
	}

	genExternal := true
	if raw.GenerateExternalResources != nil {
		genExternal = *raw.GenerateExternalResources
	}

	return Config{
		RootDir:   root,
		OutputDir: raw.OutputDir,

		ModelSourceDir: modelSourceDir,
		MixinSourceDir: mixinSourceDir,

		ResourcesDir:  resourcesDir,
		TraitsDir:     traitsDir,
		ExtensionsDir: extensionsDir,

		ResourcesImport:  firstNonEmpty(raw.ResourcesImport, "my-app/data/resources"),
		TraitsImport:     firstNonEmpty(raw.TraitsImport, "my-app/data/traits"),
		ExtensionsImport: firstNonEmpty(raw.ExtensionsImport, "my-app/data/extensions"),

		ModelImportSource: firstNonEmpty(raw.ModelImportSource, "my-app/models"),
		MixinImportSource: firstNonEmpty(raw.MixinImportSource, "my-app/mixins"),

		EmberDataImportSource: firstNonEmpty(raw.EmberDataImportSource, "ember-data"),

		AdditionalModelSources: aliasModel,
		AdditionalMixinSources: aliasMixin,

		IntermediateModelPaths: raw.IntermediateModelPaths,
		TypeMapping:            raw.TypeMapping,

		DryRun:  raw.DryRun,
		Verbose: raw.Verbose,
		Debug:   raw.Debug,

		SkipProcessed: raw.SkipProcessed,

		ModelsOnly:                raw.ModelsOnly,
		MixinsOnly:                raw.MixinsOnly,
		GenerateExternalResources: genExternal,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
