package am

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/tsapi/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Workers: 0 = default (NumCPU), negative = invalid
	if c.Build.Workers < 0 {
		return errors.Newf("build.workers must be >= 0, got %d", c.Build.Workers)
	}

	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}

	if c.API.Extension != "" && !strings.HasPrefix(c.API.Extension, ".") {
		return errors.Newf("api.extension must start with '.', got %q", c.API.Extension)
	}

	if strings.ContainsAny(c.API.DumpDirectory, `\`) {
		return errors.Newf("api.dump_directory must use '/' separators, got %q", c.API.DumpDirectory)
	}

	if c.Toolchain.MinVersion != "" {
		if _, err := semver.NewVersion(c.Toolchain.MinVersion); err != nil {
			return errors.Wrapf(err, "toolchain.min_version %q is not a version", c.Toolchain.MinVersion)
		}
	}

	if c.Watch.DebounceMs < 0 {
		return errors.Newf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMs)
	}

	return nil
}
