package dialect

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// DialectFilePattern matches dialect definitions anywhere under a directory.
const DialectFilePattern = "**/*.{yaml,yml,json,toml}"

// Registry resolves dialects by name. It starts with the built-ins; files loaded later
// override built-ins of the same name.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]Config
	sources map[string]string
}

func NewRegistry() *Registry {
	r := &Registry{configs: map[string]Config{}, sources: map[string]string{}}
	for _, n := range BuiltinNames() {
		c, _ := Builtin(n)
		r.configs[n] = c
		r.sources[n] = "builtin"
	}
	return r
}

// Register validates and stores cfg under its name.
func (r *Registry) Register(cfg Config, source string) error {
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.Name] = cfg
	r.sources[cfg.Name] = source
	return nil
}

// LoadDir registers every dialect file below dir and returns the paths it loaded.
// A missing directory is not an error.
func (r *Registry) LoadDir(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	matches, err := doublestar.Glob(os.DirFS(dir), DialectFilePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("scan dialect dir %s: %w", dir, err)
	}
	sort.Strings(matches)
	loaded := make([]string, 0, len(matches))
	for _, rel := range matches {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		cfg, err := LoadFile(path)
		if err != nil {
			return loaded, err
		}
		if err := r.Register(cfg, path); err != nil {
			return loaded, err
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// Lookup returns a copy of the named dialect.
func (r *Registry) Lookup(name string) (Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.configs[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown dialect %q", name)
	}
	return c.Clone(), nil
}

// Source reports where the named dialect came from: "builtin" or a file path.
func (r *Registry) Source(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[name]
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.configs))
	for n := range r.configs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
