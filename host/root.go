package host

import (
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"github.com/teranos/tsapi/errors"
)

// FindRootDir returns the top of the git work tree containing dir, or dir
// itself when it is not inside a repository
func FindRootDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", dir)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return abs, nil
		}
		return "", errors.Wrapf(err, "failed to open repository at %s", abs)
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no work tree to build in
		return abs, nil
	}
	return wt.Filesystem.Root(), nil
}
