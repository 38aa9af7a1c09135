// Package config provides the makefile.yaml loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the makefile at path. When path is a directory, the nearest
// makefile.yaml in it or one of its parents is used.
func (l *Loader) Load(path string) (*domain.Manifest, error) {
	configPath, err := findMakefile(path)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- configPath is provided by the user
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", configPath)
	}

	var mf Makefile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", configPath)
	}

	root := resolvePath(filepath.Dir(configPath), mf.Root)
	manifest := &domain.Manifest{
		Root:     root,
		Database: domain.DefaultDatabasePath(root),
		Rules:    make([]domain.RuleSpec, 0, len(mf.Rules)),
	}
	if mf.Database != "" {
		manifest.Database = resolvePath(root, mf.Database)
	}

	seen := make(map[string]bool)
	for i, dto := range mf.Rules {
		if dto.Target == "" {
			return nil, zerr.With(domain.ErrMissingTarget, "rule", i)
		}
		if seen[dto.Target] {
			l.Logger.Warn(fmt.Sprintf("target %q is declared more than once, the last declaration wins", dto.Target))
		}
		seen[dto.Target] = true

		manifest.Rules = append(manifest.Rules, domain.RuleSpec{
			Target:        dto.Target,
			Regexp:        dto.Regexp,
			Prerequisites: dto.Prerequisites.toSpec(),
			Recipe:        dto.Recipe,
			Dynamic:       dto.Dynamic,
		})
	}

	return manifest, nil
}

func findMakefile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", zerr.With(domain.ErrConfigNotFound, "path", abs)
	}
	if !info.IsDir() {
		return abs, nil
	}

	for dir := abs; ; {
		candidate := domain.DefaultMakefilePath(dir)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", zerr.With(domain.ErrConfigNotFound, "cwd", abs)
		}
		dir = parent
	}
}

func resolvePath(base, p string) string {
	if p == "" {
		return base
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
