package wiring

import (
	"path"

	"github.com/teranos/tsapi/host"
)

// Task name suffixes
const (
	SuffixBuild = "Build"
	SuffixCheck = "Check"
	SuffixDump  = "Dump"
)

// Umbrella task names
const (
	TaskAPIDump  = "api" + SuffixDump
	TaskAPICheck = "api" + SuffixCheck
)

// APITaskName names an API task of a target; an empty target names the
// module-wide umbrella
func APITaskName(tsName, suffix string) string {
	if tsName == "" {
		return "api" + suffix
	}
	return tsName + "Api" + suffix
}

// TargetConfig carries the naming and layout decisions for one target
type TargetConfig struct {
	Project *host.Project
	// APIDumpDirectory is the module's dump directory, e.g. "api"
	APIDumpDirectory string
	TargetName       string
	TSName           string
	Strategy         DirStrategy
}

// TaskName names this target's task with the given suffix
func (c TargetConfig) TaskName(suffix string) string {
	return APITaskName(c.TSName, suffix)
}

// APIDirName is the slash-separated directory, relative to the project
// (for references) or the build directory (for canonical snapshots)
func (c TargetConfig) APIDirName() string {
	if c.Strategy.Kind == StrategyTargetDir {
		return path.Join(c.APIDumpDirectory, c.TSName)
	}
	return c.APIDumpDirectory
}

// APIDir is the reference directory inside the project
func (c TargetConfig) APIDir() string {
	return c.Project.File(c.APIDirName())
}

// SnapshotFileName is "<module><ext>" for single-target projects and
// "<module>.<target><ext>" for multiplatform ones
func (c TargetConfig) SnapshotFileName(ext string) string {
	if !c.Project.Toolchain.Multiplatform {
		return c.Project.Name + ext
	}
	return c.Project.Name + "." + c.TargetName + ext
}
