package core

import (
	"bytes"
	"fmt"
	"os"
	"reflect"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/habitat-build/habitat/internal/types"
)

// DefaultDepsFileName is the DEPS file name used when a solution or
// solution entry does not override it.
const DefaultDepsFileName = "DEPS"

// DefaultSolutionFileName is the solution file name habitat looks for at
// the root of a checkout.
const DefaultSolutionFileName = ".habitat"

// templateVars exposes the globals a DEPS file's string fields may
// reference via text/template: {{.Target}} and {{.RootDir}}.
type templateVars struct {
	Target  string
	RootDir string
}

// depsDocument is the on-disk shape of a DEPS file: a mapping under the
// `deps` key, name -> node config.
type depsDocument struct {
	Deps map[string]types.NodeConfig `yaml:"deps"`
}

// LoadDepsFile reads and parses a DEPS file, rendering every field through
// a text/template pass with Target and RootDir exposed as globals before
// the YAML is parsed. Each node's Name is set from its map key if absent.
func LoadDepsFile(path, target, rootDir string) (map[string]types.NodeConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(path, "", "reading DEPS file: "+err.Error())
	}

	rendered, err := renderTemplate(path, string(raw), templateVars{Target: target, RootDir: rootDir})
	if err != nil {
		return nil, NewConfigError(path, "", "evaluating DEPS template: "+err.Error())
	}

	var doc depsDocument
	if err := yaml.Unmarshal([]byte(rendered), &doc); err != nil {
		return nil, NewConfigError(path, "", "parsing DEPS file: "+err.Error())
	}

	for name, cfg := range doc.Deps {
		if cfg.Name == "" {
			cfg.Name = name
			doc.Deps[name] = cfg
		}
		if err := validateNodeConfig(path, name, cfg); err != nil {
			return nil, err
		}
	}
	return doc.Deps, nil
}

func renderTemplate(path, raw string, vars templateVars) (string, error) {
	tmpl, err := template.New(path).Parse(raw)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// validateNodeConfig checks the structural invariants every node must
// satisfy regardless of type, and the required fields for its declared type.
func validateNodeConfig(file, name string, cfg types.NodeConfig) error {
	switch cfg.Type {
	case types.NodeGit, types.NodeSolution:
		if cfg.URL == "" {
			return NewConfigError(file, name, "git/solution node requires url")
		}
		set := 0
		for _, v := range []string{cfg.Commit, cfg.Branch, cfg.Tag} {
			if v != "" {
				set++
			}
		}
		if set > 1 {
			return NewConfigError(file, name, "at most one of commit, branch, tag may be set")
		}
	case types.NodeHTTP:
		if cfg.URL == "" {
			return NewConfigError(file, name, "http node requires url")
		}
	case types.NodeAction:
		if len(cfg.Commands) == 0 {
			return NewConfigError(file, name, "action node requires at least one command")
		}
		for i, cmd := range cfg.Commands {
			if cmd.Shell == "" && len(cmd.Argv) == 0 {
				return NewConfigError(file, name, fmt.Sprintf("command %d has neither shell nor argv", i))
			}
		}
	default:
		return NewConfigError(file, name, fmt.Sprintf("unknown node type %q", cfg.Type))
	}
	return nil
}

// LoadSolutionFile reads and parses a solution file (default `.habitat`).
func LoadSolutionFile(path string) (*types.SolutionFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(path, "", "reading solution file: "+err.Error())
	}
	var sf types.SolutionFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, NewConfigError(path, "", "parsing solution file: "+err.Error())
	}
	for _, entry := range sf.Solutions {
		if entry.Name == "" || entry.URL == "" {
			return nil, NewConfigError(path, entry.Name, "solution entry requires name and url")
		}
	}
	return &sf, nil
}

// LoadMappingFile reads an optional `.habitat`-style mapping file holding
// only a `mappings` key, used as a node's own mapping_file override.
func LoadMappingFile(path string) (types.MappingTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(path, "", "reading mapping file: "+err.Error())
	}
	var doc struct {
		Mappings types.MappingTable `yaml:"mappings"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, NewConfigError(path, "", "parsing mapping file: "+err.Error())
	}
	return doc.Mappings, nil
}

// ApplyMappings rewrites cfg's exported string fields in place according to
// table, keyed by cfg.Type then field name then old value -> new value.
func ApplyMappings(cfg *types.NodeConfig, table types.MappingTable) {
	attrs, ok := table[cfg.Type]
	if !ok {
		return
	}
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		rewrites, ok := attrs[field.Name]
		if !ok {
			continue
		}
		fv := v.Field(i)
		if fv.Kind() != reflect.String {
			continue
		}
		if newVal, ok := rewrites[fv.String()]; ok {
			fv.SetString(newVal)
		}
	}
}
