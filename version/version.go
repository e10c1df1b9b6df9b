package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build information. These variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/teranos/tsapi/version.Version=v0.3.0"
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// MinToolchain is the oldest compiler toolchain the wiring supports
const MinToolchain = "1.6.20"

// Info contains version and build information
type Info struct {
	CommitHash   string `json:"commit_hash"`
	BuildTime    string `json:"build_time"`
	Version      string `json:"version"`
	MinToolchain string `json:"min_toolchain"`
	GoVersion    string `json:"go_version"`
	Platform     string `json:"platform"`
}

// Get returns the current version information.
// A binary installed with `go install` has no ldflags, so the module
// version recorded by the Go toolchain is used instead.
func Get() Info {
	v := Version
	if v == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			v = bi.Main.Version
		}
	}
	return Info{
		CommitHash:   CommitHash,
		BuildTime:    BuildTime,
		Version:      v,
		MinToolchain: MinToolchain,
		GoVersion:    runtime.Version(),
		Platform:     fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	return fmt.Sprintf("tsapi %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildTime)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
