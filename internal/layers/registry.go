package layers

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pavletto/forestdata/internal/domain"
)

// Registry maps layer names to the commands computing them.
type Registry struct {
	commands map[string]*Command
}

type yamlRegistry struct {
	Layers map[string]yamlCommand `yaml:"layers"`
}

type yamlCommand struct {
	Program string   `yaml:"program"`
	Args    []string `yaml:"args"`
	Env     []string `yaml:"env"`
}

// LoadRegistry reads a layers file of the form
//
//	layers:
//	  osm:
//	    program: python3
//	    args: ["-m", "far_osm", "--proj", "{proj}", "--out", "{dir}"]
func LoadRegistry(path string, log *slog.Logger) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.OpError{Op: "layers.load_registry", Kind: domain.KindNotFound, Path: path, Err: err}
	}
	r, err := ParseRegistry(b, log)
	if err != nil {
		return nil, &domain.OpError{Op: "layers.load_registry", Kind: domain.KindInvalidConfig, Path: path, Err: err}
	}
	return r, nil
}

// ParseRegistry decodes a layers document, rejecting unknown layer names and
// entries without a program.
func ParseRegistry(b []byte, log *slog.Logger) (*Registry, error) {
	var dto yamlRegistry
	if err := yaml.Unmarshal(b, &dto); err != nil {
		return nil, err
	}
	r := &Registry{commands: map[string]*Command{}}
	for name, c := range dto.Layers {
		if !slices.Contains(Known, name) {
			return nil, fmt.Errorf("unknown layer %q", name)
		}
		if c.Program == "" {
			return nil, fmt.Errorf("layer %q has no program", name)
		}
		r.commands[name] = &Command{
			Layer:   name,
			Program: c.Program,
			Args:    c.Args,
			Env:     c.Env,
			Logger:  log,
		}
	}
	return r, nil
}

// Get returns the computer configured for name.
func (r *Registry) Get(name string) (Computer, error) {
	if r != nil {
		if c, ok := r.commands[name]; ok {
			return c, nil
		}
	}
	return nil, &domain.OpError{
		Op:   "layers.get",
		Kind: domain.KindInvalidConfig,
		Err:  fmt.Errorf("layer %q is not configured", name),
	}
}

// Names lists the configured layers.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.commands))
	for n := range r.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
