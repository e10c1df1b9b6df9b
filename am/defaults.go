package am

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

// Default values shared with code that runs without a loaded config
const (
	DefaultExtension     = ".d.ts"
	DefaultDumpDirectory = "api"
	DefaultMinVersion    = "1.6.20"
	DefaultDebounceMs    = 300
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)

	v.SetDefault("build.workers", runtime.NumCPU())
	v.SetDefault("build.continue", false)

	v.SetDefault("api.extension", DefaultExtension)
	v.SetDefault("api.dump_directory", DefaultDumpDirectory)

	v.SetDefault("toolchain.min_version", DefaultMinVersion)

	v.SetDefault("watch.debounce_ms", DefaultDebounceMs)
}

// GetWorkers returns the executor concurrency, never less than 1
func (c *Config) GetWorkers() int {
	if c.Build.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Build.Workers
}

// GetExtension returns the declaration file extension with defaults applied
func (c *Config) GetExtension() string {
	if c.API.Extension == "" {
		return DefaultExtension
	}
	return c.API.Extension
}

// GetDumpDirectory returns the fallback API directory name
func (c *Config) GetDumpDirectory() string {
	if c.API.DumpDirectory == "" {
		return DefaultDumpDirectory
	}
	return c.API.DumpDirectory
}

// GetMinVersion returns the minimum supported toolchain version
func (c *Config) GetMinVersion() string {
	if c.Toolchain.MinVersion == "" {
		return DefaultMinVersion
	}
	return c.Toolchain.MinVersion
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Build: {Workers: %d, Continue: %t}, API: {Extension: %s, DumpDirectory: %s}, Toolchain: {MinVersion: %s}}",
		c.Build.Workers, c.Build.Continue, c.API.Extension, c.API.DumpDirectory, c.Toolchain.MinVersion)
}
