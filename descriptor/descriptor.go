// Package descriptor loads project trees from tsapi-project.toml or
// tsapi-project.yaml files.
//
// A descriptor declares what the surrounding build would otherwise supply:
// the applied plugins, the toolchain version and target object graph, the
// peer validator settings and the host tasks (link steps and commands).
//
//	name = "widgets"
//	plugins = ["org.jetbrains.kotlin.js"]
//
//	[toolchain]
//	version = "1.9.22"
//
//	[[toolchain.targets]]
//	name = "js"
//	platform = "js"
//
//	[[tasks]]
//	name = "compileProductionExecutableKotlinJs"
//	kind = "link"
//	mode = "production"
//	destination = "build/js/productionExecutable"
//	command = "./compile.sh"
package descriptor

import (
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/teranos/tsapi/errors"
	"github.com/teranos/tsapi/host"
	"github.com/teranos/tsapi/toolchain"
)

// File names searched in a project directory, in order
var FileNames = []string{"tsapi-project.toml", "tsapi-project.yaml", "tsapi-project.yml"}

// Descriptor is one project node
type Descriptor struct {
	Name string `toml:"name" yaml:"name"`
	// Dir is relative to the parent project; defaults to Name for subprojects
	Dir         string             `toml:"dir" yaml:"dir"`
	Plugins     []string           `toml:"plugins" yaml:"plugins"`
	Peer        *host.PeerSettings `toml:"peer" yaml:"peer"`
	Toolchain   Toolchain          `toml:"toolchain" yaml:"toolchain"`
	Tasks       []Task             `toml:"tasks" yaml:"tasks"`
	Subprojects []Descriptor       `toml:"subprojects" yaml:"subprojects"`
}

// Toolchain declares the compiler setup. Targets stay loosely typed: their
// layout differs between toolchain generations and is read by probing.
type Toolchain struct {
	Version       string           `toml:"version" yaml:"version"`
	Multiplatform bool             `toml:"multiplatform" yaml:"multiplatform"`
	Targets       []map[string]any `toml:"targets" yaml:"targets"`
}

// Task declares a host task
type Task struct {
	Name        string   `toml:"name" yaml:"name"`
	Kind        string   `toml:"kind" yaml:"kind"`
	Mode        string   `toml:"mode" yaml:"mode"`
	Destination string   `toml:"destination" yaml:"destination"`
	Command     string   `toml:"command" yaml:"command"`
	Group       string   `toml:"group" yaml:"group"`
	Description string   `toml:"description" yaml:"description"`
	DependsOn   []string `toml:"depends_on" yaml:"depends_on"`
	Disabled    bool     `toml:"disabled" yaml:"disabled"`
}

// Find returns the descriptor file in dir, or "" when there is none
func Find(fs afero.Fs, dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if ok, _ := afero.Exists(fs, path); ok {
			return path
		}
	}
	return ""
}

// Parse decodes a descriptor; format is "toml" or "yaml"
func Parse(data []byte, format string) (*Descriptor, error) {
	var d Descriptor
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &d); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to parse TOML descriptor"), errors.ErrInvalidDescriptor)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "failed to parse YAML descriptor"), errors.ErrInvalidDescriptor)
		}
	default:
		return nil, errors.Mark(errors.Newf("unknown descriptor format %q", format), errors.ErrInvalidDescriptor)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ReadFile parses the descriptor at path, picking the format from its extension
func ReadFile(fs afero.Fs, path string) (*Descriptor, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	d, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, errors.WithDetailf(err, "descriptor %s", path)
	}
	return d, nil
}

// Load finds and reads the descriptor in dir and builds its project tree
func Load(fs afero.Fs, dir string) (*host.Project, error) {
	path := Find(fs, dir)
	if path == "" {
		err := errors.Mark(errors.Newf("no project descriptor in %s", dir), errors.ErrInvalidDescriptor)
		return nil, errors.WithHintf(err, "create %s describing the project", FileNames[0])
	}
	d, err := ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return Build(d, dir, fs)
}

// Validate checks names and task declarations across the tree
func (d *Descriptor) Validate() error {
	return d.validate(":")
}

func (d *Descriptor) validate(at string) error {
	invalid := func(format string, args ...interface{}) error {
		return errors.Mark(errors.WithDetailf(errors.Newf(format, args...), "project %s", at), errors.ErrInvalidDescriptor)
	}

	if d.Name == "" {
		return invalid("project name is required")
	}
	if strings.Contains(d.Name, ":") {
		return invalid("project name %q must not contain ':'", d.Name)
	}

	seen := make(map[string]bool)
	for _, t := range d.Tasks {
		if t.Name == "" {
			return invalid("task name is required")
		}
		if seen[t.Name] {
			return invalid("task %q is declared twice", t.Name)
		}
		seen[t.Name] = true

		switch t.Kind {
		case host.KindLink:
			if t.Destination == "" {
				return invalid("link task %q needs a destination", t.Name)
			}
			if t.Mode != toolchain.ModeProduction && t.Mode != toolchain.ModeDevelopment {
				return invalid("link task %q has unknown mode %q", t.Name, t.Mode)
			}
		case host.KindExec:
			if t.Command == "" {
				return invalid("exec task %q needs a command", t.Name)
			}
		case "":
		default:
			return invalid("task %q has unknown kind %q", t.Name, t.Kind)
		}
	}

	names := make(map[string]bool)
	for i := range d.Subprojects {
		sub := &d.Subprojects[i]
		if names[sub.Name] {
			return invalid("subproject %q is declared twice", sub.Name)
		}
		names[sub.Name] = true

		childAt := ":" + sub.Name
		if at != ":" {
			childAt = at + ":" + sub.Name
		}
		if err := sub.validate(childAt); err != nil {
			return err
		}
	}
	return nil
}

// Build creates the project tree rooted at dir
func Build(d *Descriptor, dir string, fs afero.Fs) (*host.Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve %s", dir)
	}
	root := host.NewRootProject(d.Name, abs, fs)
	if err := populate(root, d); err != nil {
		return nil, err
	}
	return root, nil
}

func populate(p *host.Project, d *Descriptor) error {
	p.Plugins = d.Plugins
	p.Peer = d.Peer
	p.Toolchain = host.Toolchain{
		Version:       d.Toolchain.Version,
		Multiplatform: d.Toolchain.Multiplatform,
	}
	for _, obj := range d.Toolchain.Targets {
		t := toolchain.NewTarget(toolchain.Object(obj))
		if t.Name == "" {
			return errors.Mark(errors.Newf("target without a name in project %s", p.Path), errors.ErrInvalidDescriptor)
		}
		p.Toolchain.Targets = append(p.Toolchain.Targets, t)
	}

	for _, td := range d.Tasks {
		td := td
		if _, err := p.Tasks.Register(td.Name, func(t *host.Task) {
			t.Kind = td.Kind
			t.Mode = td.Mode
			t.Destination = td.Destination
			t.Command = td.Command
			t.Group = td.Group
			t.Description = td.Description
			t.Enabled = !td.Disabled
			t.DependsOn(td.DependsOn...)
			if td.Destination != "" {
				t.Outputs = []string{p.File(td.Destination)}
			}
			if td.Command != "" {
				t.DoLast(host.ExecAction(td.Command))
			}
		}); err != nil {
			return err
		}
	}

	for i := range d.Subprojects {
		sub := &d.Subprojects[i]
		rel := sub.Dir
		if rel == "" {
			rel = sub.Name
		}
		child := p.AddSubproject(sub.Name, p.File(rel))
		if err := populate(child, sub); err != nil {
			return err
		}
	}
	return nil
}
