package snapshot

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/teranos/tsapi/errors"
	"github.com/teranos/tsapi/host"
	"github.com/teranos/tsapi/logger"
)

// Syncer overwrites the reference snapshot with the canonical one
type Syncer struct {
	Fs        afero.Fs
	Build     string
	Reference string
	Log       *zap.SugaredLogger
}

// Action adapts Sync to a host task action
func (s *Syncer) Action() host.Action {
	return func(ctx context.Context, _ *host.Task) error {
		return s.Sync(ctx)
	}
}

// Sync copies the canonical snapshot byte for byte, creating parent
// directories of the reference as needed
func (s *Syncer) Sync(ctx context.Context) error {
	data, err := afero.ReadFile(s.Fs, s.Build)
	if err != nil {
		exists, _ := afero.Exists(s.Fs, s.Build)
		if !exists {
			err = errors.Mark(errors.Newf("File %s does not exist, nothing to dump", s.Build), errors.ErrBuildOutputMissing)
			return errors.WithHint(err, "enable TS definitions with `binaries.executable()` for the target")
		}
		return errors.Wrapf(err, "failed to read %s", s.Build)
	}

	if err := s.Fs.MkdirAll(filepath.Dir(s.Reference), 0755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(s.Reference))
	}
	if err := afero.WriteFile(s.Fs, s.Reference, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", s.Reference)
	}

	log := logger.LoggerFromContext(ctx, s.Log)
	log.Infow("Copied API file", logger.FieldFile, s.Reference)
	return nil
}
