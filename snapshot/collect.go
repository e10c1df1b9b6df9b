package snapshot

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/teranos/tsapi/errors"
	"github.com/teranos/tsapi/host"
	"github.com/teranos/tsapi/logger"
)

// Collector turns the declarations emitted by link tasks into the
// canonical snapshot file
type Collector struct {
	Fs     afero.Fs
	Files  *DeclarationFileSet
	Output string
	// Module names the module in diagnostics
	Module string
	// HasGenerateTSDefinitions adds the generateTypeScriptDefinitions()
	// switch to the "nothing found" diagnostic
	HasGenerateTSDefinitions bool
	Log                      *zap.SugaredLogger
}

// Action adapts Collect to a host task action
func (c *Collector) Action() host.Action {
	return func(ctx context.Context, _ *host.Task) error {
		return c.Collect(ctx)
	}
}

// Collect writes the canonical snapshot. No declarations is not a failure:
// the task ends as skipped and any stale snapshot is removed so a later
// comparison cannot pass against old output.
func (c *Collector) Collect(ctx context.Context) error {
	log := logger.LoggerFromContext(ctx, c.log())

	files, err := c.Files.Files()
	if err != nil {
		return errors.Wrap(err, "failed to discover declarations")
	}

	if len(files) == 0 {
		code := ""
		if c.HasGenerateTSDefinitions {
			code = " and `generateTypeScriptDefinitions()`"
		}
		log.Errorw("No generated TS definitions found for :" + c.Module + "! TS API verification is not possible.\n" +
			"Please, enable TS definitions with `binaries.executable()`" + code + ".")
		if _, err := RemoveIfExists(c.Fs, c.Output); err != nil {
			return err
		}
		return host.Skipf("no %s files in %s", c.Files.Pattern(), strings.Join(c.Files.Dirs(), ", "))
	}

	if len(files) > 1 {
		log.Warnw("Ambiguous generated TS definitions, taking only first:\n  "+strings.Join(files, "\n  "),
			logger.FieldFiles, files)
	}

	chosen := files[0]
	in, err := c.Fs.Open(chosen)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", chosen)
	}
	defer in.Close()

	text, err := Normalize(in)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", chosen)
	}

	if err := WriteAtomic(c.Fs, c.Output, []byte(text)); err != nil {
		return err
	}
	log.Debugw("Collected declarations", logger.FieldFile, chosen, "output", c.Output, logger.FieldSize, len(text))
	return nil
}

func (c *Collector) log() *zap.SugaredLogger {
	if c.Log != nil {
		return c.Log
	}
	return logger.ComponentLogger("snapshot.collect")
}

// WriteAtomic writes data through a temp file in the target directory and
// renames it into place
func WriteAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file in %s", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = fs.Remove(tmpName)
		return errors.Wrapf(err, "failed to write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName)
		return errors.Wrapf(err, "failed to close %s", tmpName)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		_ = fs.Remove(tmpName)
		return errors.Wrapf(err, "failed to move snapshot into %s", path)
	}
	return nil
}

// RemoveIfExists deletes a file, reporting whether it was there
func RemoveIfExists(fs afero.Fs, path string) (bool, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return false, errors.Wrapf(err, "failed to stat %s", path)
	}
	if !exists {
		return false, nil
	}
	if err := fs.Remove(path); err != nil {
		return false, errors.Wrapf(err, "failed to remove %s", path)
	}
	return true, nil
}
