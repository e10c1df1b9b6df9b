package am

// Config represents the tsapi configuration
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Build     BuildConfig     `mapstructure:"build"`
	API       APIConfig       `mapstructure:"api"`
	Toolchain ToolchainConfig `mapstructure:"toolchain"`
	Watch     WatchConfig     `mapstructure:"watch"`
}

// LogConfig configures the global logger
type LogConfig struct {
	JSON      bool `mapstructure:"json"`      // Structured JSON output (for CI)
	Verbosity int  `mapstructure:"verbosity"` // Same as passing -v this many times
}

// BuildConfig configures the task executor
type BuildConfig struct {
	Workers  int  `mapstructure:"workers"`  // Concurrent task actions (default: number of CPUs)
	Continue bool `mapstructure:"continue"` // Keep running independent tasks after a failure
}

// APIConfig configures snapshot naming and location
type APIConfig struct {
	Extension     string `mapstructure:"extension"`      // Declaration file extension (default: .d.ts)
	DumpDirectory string `mapstructure:"dump_directory"` // Used when the peer validator does not set one (default: api)
}

// ToolchainConfig configures the toolchain gate
type ToolchainConfig struct {
	MinVersion string `mapstructure:"min_version"` // Oldest supported toolchain (default: 1.6.20)
}

// WatchConfig configures `tsapi watch`
type WatchConfig struct {
	DebounceMs int `mapstructure:"debounce_ms"` // Quiet period before re-running (default: 300)
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
