package commands

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/teranos/tsapi/am"
	"github.com/teranos/tsapi/descriptor"
	"github.com/teranos/tsapi/errors"
	"github.com/teranos/tsapi/host"
	"github.com/teranos/tsapi/logger"
	"github.com/teranos/tsapi/wiring"
)

// Workspace is a loaded project tree with the API tasks wired in
type Workspace struct {
	Config    *am.Config
	Root      *host.Project
	Modules   []*wiring.Module
	Verbosity int
}

// LoadWorkspace reads the project descriptor found in dir, or at the root
// of the repository containing dir, and wires every project
func LoadWorkspace(cfg *am.Config, dir string, verbosity int) (*Workspace, error) {
	fs := afero.NewOsFs()

	found := dir
	if descriptor.Find(fs, dir) == "" {
		repoRoot, err := host.FindRootDir(dir)
		if err != nil {
			return nil, err
		}
		found = repoRoot
		logger.Infow("Using the project descriptor at the repository root", logger.FieldDir, repoRoot)
	}

	root, err := descriptor.Load(fs, found)
	if err != nil {
		return nil, err
	}

	modules, err := wiring.Apply(root, wiring.OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	logger.Debugw("Workspace loaded", logger.FieldDir, root.Dir, logger.FieldCount, len(modules))

	return &Workspace{Config: cfg, Root: root, Modules: modules, Verbosity: verbosity}, nil
}

// workspaceFromFlags loads configuration and the workspace selected by --dir
func workspaceFromFlags(cmd *cobra.Command) (*Workspace, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return nil, errors.Wrap(err, "failed to get working directory")
		}
	}
	return LoadWorkspace(cfg, dir, Verbosity(cmd, cfg))
}

// Verbosity is the -v count, or the configured level when higher
func Verbosity(cmd *cobra.Command, cfg *am.Config) int {
	v, _ := cmd.Flags().GetCount("verbose")
	if cfg != nil && cfg.Log.Verbosity > v {
		v = cfg.Log.Verbosity
	}
	return v
}
