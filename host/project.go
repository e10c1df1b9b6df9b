// Package host is a small stand-in for the build system the API wiring
// attaches to: a project tree, a lazily configured task container and an
// executor that runs the requested tasks in dependency order.
package host

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/teranos/tsapi/toolchain"
)

// Plugin identifiers a project may declare
const (
	PluginMultiplatform = "org.jetbrains.kotlin.multiplatform"
	PluginJS            = "org.jetbrains.kotlin.js"
	PluginPeerValidator = "org.jetbrains.kotlinx.binary-compatibility-validator"
)

// Lifecycle task names every project has
const (
	TaskCheck = "check"
	TaskClean = "clean"

	GroupVerification = "verification"
	GroupBuild        = "build"
	GroupOther        = "other"
)

// PeerSettings is the configuration of the peer compatibility validator
// (the JVM-side API checker the wiring cooperates with)
type PeerSettings struct {
	APIDumpDirectory   string   `toml:"api_dump_directory" yaml:"api_dump_directory"`
	IgnoredProjects    []string `toml:"ignored_projects" yaml:"ignored_projects"`
	ValidationDisabled bool     `toml:"validation_disabled" yaml:"validation_disabled"`
}

// Toolchain describes the compiler setup of a project
type Toolchain struct {
	Version string
	// Multiplatform is true when the project declares several targets through
	// the multiplatform plugin rather than a single-target plugin
	Multiplatform bool
	Targets       []toolchain.Target
}

// Project is one node of the build's project tree
type Project struct {
	Name string
	// Path is the colon-separated project path: ":" for the root, ":a:b" below it
	Path     string
	Dir      string
	BuildDir string
	Parent   *Project

	Plugins   []string
	Peer      *PeerSettings
	Toolchain Toolchain

	Tasks       *TaskContainer
	Subprojects []*Project

	// Fs is shared by the whole tree
	Fs     afero.Fs
	Stdout io.Writer
}

// NewRootProject creates the root of a project tree rooted at dir
func NewRootProject(name, dir string, fs afero.Fs) *Project {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	p := &Project{
		Name:     name,
		Path:     ":",
		Dir:      dir,
		BuildDir: filepath.Join(dir, "build"),
		Fs:       fs,
		Stdout:   os.Stdout,
	}
	p.init()
	return p
}

// AddSubproject creates a child project in dir
func (p *Project) AddSubproject(name, dir string) *Project {
	childPath := ":" + name
	if p.Path != ":" {
		childPath = p.Path + ":" + name
	}
	child := &Project{
		Name:     name,
		Path:     childPath,
		Dir:      dir,
		BuildDir: filepath.Join(dir, "build"),
		Parent:   p,
		Fs:       p.Fs,
		Stdout:   p.Stdout,
	}
	child.init()
	p.Subprojects = append(p.Subprojects, child)
	return child
}

func (p *Project) init() {
	p.Tasks = newTaskContainer(p)
	registerLifecycle(p)
}

// Root returns the root project of the tree
func (p *Project) Root() *Project {
	for p.Parent != nil {
		p = p.Parent
	}
	return p
}

// RootDir is the directory of the root project
func (p *Project) RootDir() string {
	return p.Root().Dir
}

// HasPlugin reports whether the project declares the plugin id
func (p *Project) HasPlugin(id string) bool {
	for _, plugin := range p.Plugins {
		if plugin == id {
			return true
		}
	}
	return false
}

// FindPeerSettings returns the peer validator settings of the nearest
// project, walking up through parents, or nil when none declares them
func (p *Project) FindPeerSettings() *PeerSettings {
	for cur := p; cur != nil; cur = cur.Parent {
		if cur.Peer != nil {
			return cur.Peer
		}
	}
	return nil
}

// TaskPath is the absolute path of a task of this project
func (p *Project) TaskPath(task string) string {
	if p.Path == ":" {
		return ":" + task
	}
	return p.Path + ":" + task
}

// AllProjects returns this project and every descendant, depth first
func (p *Project) AllProjects() []*Project {
	all := []*Project{p}
	for _, sub := range p.Subprojects {
		all = append(all, sub.AllProjects()...)
	}
	return all
}

// FindProject resolves a colon-separated project path from the root
func (p *Project) FindProject(projectPath string) (*Project, bool) {
	root := p.Root()
	if projectPath == ":" || projectPath == "" {
		return root, true
	}
	cur := root
	for _, name := range strings.Split(strings.TrimPrefix(projectPath, ":"), ":") {
		var next *Project
		for _, sub := range cur.Subprojects {
			if sub.Name == name {
				next = sub
				break
			}
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// File resolves a slash-separated path relative to the project directory
func (p *Project) File(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Dir, filepath.FromSlash(path.Clean(rel)))
}

// BuildFile resolves a slash-separated path relative to the build directory
func (p *Project) BuildFile(rel string) string {
	return filepath.Join(p.BuildDir, filepath.FromSlash(path.Clean(rel)))
}

// RelativeToRoot renders a path relative to the root project directory,
// falling back to the path itself when it lies elsewhere
func (p *Project) RelativeToRoot(file string) string {
	rel, err := filepath.Rel(p.RootDir(), file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return file
	}
	return rel
}

func registerLifecycle(p *Project) {
	_, _ = p.Tasks.Register(TaskCheck, func(t *Task) {
		t.Group = GroupVerification
		t.Description = "Runs all checks."
	})
	_, _ = p.Tasks.Register(TaskClean, func(t *Task) {
		t.Group = GroupBuild
		t.Description = "Deletes the build directory."
		t.DoLast(func(context.Context, *Task) error {
			return p.Fs.RemoveAll(p.BuildDir)
		})
	})
}
