package snapshot

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/teranos/tsapi/errors"
	"github.com/teranos/tsapi/host"
	"github.com/teranos/tsapi/logger"
)

// DiffContext is the number of unchanged lines shown around each change
const DiffContext = 3

// Comparator checks the canonical snapshot against the checked-in reference
type Comparator struct {
	Fs        afero.Fs
	Reference string
	Build     string
	// Project owns both snapshots; messages name it and show paths
	// relative to its root
	Project *host.Project
	// DumpTask is the task path that regenerates the reference
	DumpTask string
	Log      *zap.SugaredLogger
}

// Action adapts Compare to a host task action
func (c *Comparator) Action() host.Action {
	return func(ctx context.Context, _ *host.Task) error {
		return c.Compare(ctx)
	}
}

// Compare fails when the reference is missing, the build snapshot is
// missing, or their lines differ. Line endings do not matter.
func (c *Comparator) Compare(ctx context.Context) error {
	log := logger.LoggerFromContext(ctx, c.log())

	refExists, err := afero.Exists(c.Fs, c.Reference)
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", c.Reference)
	}
	if !refExists {
		err := errors.Newf("Expected TS API declaration '%s' does not exist.\n"+
			"Please ensure that ':apiDump' was executed in order to get API dump to compare the build against",
			c.Reference)
		return errors.WithHintf(errors.Mark(err, errors.ErrReferenceMissing), "run %s to create it", c.DumpTask)
	}

	buildExists, err := afero.Exists(c.Fs, c.Build)
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", c.Build)
	}
	if !buildExists {
		err := errors.Newf("File %s is missing from %s, please run %s task to generate one",
			filepath.Base(c.Build), c.relativeDir(c.Build), c.DumpTask)
		return errors.WithHint(errors.Mark(err, errors.ErrBuildOutputMissing),
			"check that declaration generation is enabled for the target")
	}

	refText, err := afero.ReadFile(c.Fs, c.Reference)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", c.Reference)
	}
	buildText, err := afero.ReadFile(c.Fs, c.Build)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", c.Build)
	}

	refLines := SplitLines(string(refText))
	buildLines := SplitLines(string(buildText))
	if equalLines(refLines, buildLines) {
		log.Debugw("API check passed", logger.FieldFile, filepath.Base(c.Build), logger.FieldProject, c.Project.Path)
		return nil
	}

	diff, err := UnifiedDiff(c.Reference, c.Build, refLines, buildLines)
	if err != nil {
		return errors.Wrap(err, "failed to render API diff")
	}
	mismatch := errors.Newf("API check failed for project %s.\n%s\n\nYou can run %s task to overwrite API declarations",
		c.Project.Path, diff, c.DumpTask)
	return errors.WithHintf(errors.Mark(mismatch, errors.ErrSnapshotMismatch), "run %s if the API change is intended", c.DumpTask)
}

func (c *Comparator) relativeDir(file string) string {
	return c.Project.RelativeToRoot(filepath.Dir(file)) + string(filepath.Separator)
}

func (c *Comparator) log() *zap.SugaredLogger {
	if c.Log != nil {
		return c.Log
	}
	return logger.ComponentLogger("snapshot.compare")
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// UnifiedDiff renders a unified diff from a to b with DiffContext lines
// of context. Lines are given without terminators.
func UnifiedDiff(fromFile, toFile string, a, b []string) (string, error) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        withNewlines(a),
		B:        withNewlines(b),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  DiffContext,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(diff, "\n"), nil
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line + "\n"
	}
	return out
}
