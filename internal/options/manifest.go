package options

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a loaded tpp.toml. Scopes: [preprocessor].default applies to
// every template, [preprocessor.apps].<name> overrides it for templates
// whose first path segment under the template root is <name>.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Preprocessor PreprocessorConfig `toml:"preprocessor"`
}

type PreprocessorConfig struct {
	TemplateRoot string              `toml:"template_root"`
	Default      []string            `toml:"default"`
	Apps         map[string][]string `toml:"apps"`
}

// FindManifest walks up from startDir looking for tpp.toml.
func FindManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "tpp.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest finds and parses tpp.toml. Missing manifest is not an
// error: callers fall back to Default().
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := ParseManifest(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// ParseManifest parses one tpp.toml file and validates its flag lists.
func ParseManifest(path string) (*Manifest, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	for _, written := range cfg.Preprocessor.Default {
		if _, _, err := ParseFlag(written); err != nil {
			return nil, fmt.Errorf("%s: [preprocessor].default: %w", path, err)
		}
	}
	for app, flags := range cfg.Preprocessor.Apps {
		for _, written := range flags {
			if _, _, err := ParseFlag(written); err != nil {
				return nil, fmt.Errorf("%s: [preprocessor.apps].%s: %w", path, app, err)
			}
		}
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, nil
}

// TemplateRoot returns the configured template root resolved against the
// manifest directory, defaulting to the manifest directory itself.
func (m *Manifest) TemplateRoot() string {
	root := m.Config.Preprocessor.TemplateRoot
	if root == "" {
		return m.Root
	}
	if filepath.IsAbs(root) {
		return root
	}
	return filepath.Join(m.Root, root)
}

// Resolve builds the option set for one template path (relative to the
// template root): defaults, then [preprocessor].default, then the owning
// application's overrides.
func (m *Manifest) Resolve(relPath string) (Set, error) {
	s := Default()
	if err := s.ApplyAll(m.Config.Preprocessor.Default); err != nil {
		return s, err
	}
	app := appOf(relPath)
	if app != "" {
		if flags, ok := m.Config.Preprocessor.Apps[app]; ok {
			if err := s.ApplyAll(flags); err != nil {
				return s, err
			}
		}
	}
	return s, nil
}

// appOf returns the owning-application identifier: the first path segment.
func appOf(relPath string) string {
	rel := filepath.ToSlash(relPath)
	if idx := strings.IndexByte(rel, '/'); idx > 0 {
		return rel[:idx]
	}
	return ""
}
