// Package snapshot produces, compares and syncs the textual API snapshot
// of a target's TypeScript declarations.
package snapshot

import (
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"

	"github.com/teranos/tsapi/errors"
)

// DeclarationFileSet is the set of declaration files directly inside a
// list of directories. Directories are resolved and read only when Files
// is called, so the set can be built before the producing tasks run.
type DeclarationFileSet struct {
	fs      afero.Fs
	dirs    func() []string
	pattern string
	matcher glob.Glob
}

// NewDeclarationFileSet matches "*<ext>" in each directory returned by dirs
func NewDeclarationFileSet(fs afero.Fs, ext string, dirs func() []string) (*DeclarationFileSet, error) {
	pattern := "*" + ext
	matcher, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, errors.Wrapf(err, "invalid declaration pattern %q", pattern)
	}
	return &DeclarationFileSet{fs: fs, dirs: dirs, pattern: pattern, matcher: matcher}, nil
}

// Pattern returns the file name pattern
func (s *DeclarationFileSet) Pattern() string {
	return s.pattern
}

// Dirs resolves the directories searched
func (s *DeclarationFileSet) Dirs() []string {
	if s.dirs == nil {
		return nil
	}
	return s.dirs()
}

// Files lists matching files in discovery order: directory order first,
// then file name order inside each directory. Missing directories are
// treated as empty.
func (s *DeclarationFileSet) Files() ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, dir := range s.Dirs() {
		if dir == "" {
			continue
		}
		entries, err := afero.ReadDir(s.fs, dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "failed to list %s", dir)
		}
		for _, entry := range entries {
			if !entry.Mode().IsRegular() || !s.matcher.Match(entry.Name()) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if seen[path] {
				continue
			}
			seen[path] = true
			files = append(files, path)
		}
	}
	return files, nil
}
