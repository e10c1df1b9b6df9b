// Package targets finds the JS-family compilation targets of a project and
// the production link tasks whose output holds their declarations.
package targets

import (
	"os"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/teranos/tsapi/errors"
	"github.com/teranos/tsapi/host"
	"github.com/teranos/tsapi/logger"
	"github.com/teranos/tsapi/toolchain"
)

// Resolved is one JS target with everything needed to wire its API tasks
type Resolved struct {
	Target toolchain.Target
	// TSName is the prefix of the target's API task names
	TSName string
	// LinkTasks are link task names in the project, in discovery order
	LinkTasks []string
}

// Resolver maps a project's targets to Resolved entries
type Resolver struct {
	caps *toolchain.Capabilities
	log  *zap.SugaredLogger
}

// NewResolver creates a resolver using the detected capabilities
func NewResolver(caps *toolchain.Capabilities) *Resolver {
	return &Resolver{caps: caps, log: logger.ComponentLogger("targets")}
}

// Resolve returns the project's targets that can take part in API checks
func (r *Resolver) Resolve(p *host.Project) []Resolved {
	var out []Resolved
	for _, t := range p.Toolchain.Targets {
		if res, ok := r.ResolveTarget(p, t); ok {
			out = append(out, res)
		}
	}
	return out
}

// ResolveTarget resolves one target; ok is false when it has nothing to check
func (r *Resolver) ResolveTarget(p *host.Project, t toolchain.Target) (Resolved, bool) {
	log := r.log.With(logger.FieldProject, p.Path, logger.FieldTarget, t.Name)

	if !r.caps.IsJSTarget(t) {
		return Resolved{}, false
	}
	if enabled, ok := r.caps.GenerateTSDefinitionsEnabled(t).Get(); ok && !enabled {
		log.Debugw("TS definitions generation is turned off for the target")
		return Resolved{}, false
	}

	var mains []toolchain.Compilation
	comps := r.caps.Compilations(t)
	if miss := comps.Miss(); miss != nil {
		log.Debugw("No compilations", logger.FieldError, miss)
	}
	for _, c := range comps.Or(nil) {
		if c.Name == toolchain.MainCompilation {
			mains = append(mains, c)
		}
	}
	if len(mains) == 0 {
		return Resolved{}, false
	}

	if allSourcesEmpty(p, mains) {
		log.Infow("Skipping target with no sources")
		return Resolved{}, false
	}

	binaries := r.productionBinaries(t, mains, log)
	linkTasks := r.linkTasks(p, t, binaries, log)
	if len(linkTasks) > 1 {
		log.Warnw("Ambiguous link tasks for "+t.Name+" target TS API verification!",
			logger.FieldCount, len(linkTasks), "tasks", linkTasks)
	}

	return Resolved{
		Target:    t,
		TSName:    TSName(t.Name),
		LinkTasks: linkTasks,
	}, true
}

// productionBinaries collects target and main-compilation binaries that
// produce declarations in production mode
func (r *Resolver) productionBinaries(t toolchain.Target, mains []toolchain.Compilation, log *zap.SugaredLogger) []toolchain.Binary {
	all := r.caps.TargetBinaries(t).Or(nil)
	for _, c := range mains {
		all = append(all, r.caps.CompilationBinaries(c).Or(nil)...)
	}

	var out []toolchain.Binary
	seen := make(map[string]bool)
	for _, b := range all {
		key := b.Name + "\x00" + b.LinkTask
		if seen[key] {
			continue
		}
		seen[key] = true

		if r.caps.LinkMode(b).Or("") != toolchain.ModeProduction {
			continue
		}
		// Only an explicit false opts out
		if gen, ok := r.caps.GenerateTS(b).Get(); ok && !gen {
			log.Debugw("Binary does not generate declarations", "binary", b.Name)
			continue
		}
		out = append(out, b)
	}
	return out
}

// linkTasks unions the binaries' link tasks with matching link tasks
// registered in the project, deduplicated, order preserved
func (r *Resolver) linkTasks(p *host.Project, t toolchain.Target, binaries []toolchain.Binary, log *zap.SugaredLogger) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, b := range binaries {
		if b.LinkTask == "" {
			continue
		}
		if !p.Tasks.Has(b.LinkTask) {
			log.Debugw("Binary link task is not registered", "binary", b.Name, logger.FieldTask, b.LinkTask)
			continue
		}
		add(b.LinkTask)
	}

	// Only tasks whose name fits are realized
	filter := LinkTaskFilter(t)
	p.Tasks.NamedMatching(linkTaskName(t), func(tp *host.TaskProvider) {
		if filter(tp.Get()) {
			add(tp.Name())
		}
	})
	return names
}

// LinkTaskFilter accepts production link tasks that belong to the target:
// the name contains the target name, is not a test task, and for the js
// platform is not a wasm task
func LinkTaskFilter(t toolchain.Target) func(*host.Task) bool {
	nameOK := linkTaskName(t)
	return func(task *host.Task) bool {
		if task.Kind != host.KindLink || !strings.EqualFold(task.Mode, toolchain.ModeProduction) {
			return false
		}
		return nameOK(task.Name)
	}
}

func linkTaskName(t toolchain.Target) func(string) bool {
	target := strings.ToLower(t.Name)
	return func(name string) bool {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "test") || !strings.Contains(lower, target) {
			return false
		}
		return t.Platform != toolchain.PlatformJS || !strings.Contains(lower, "wasm")
	}
}

var jsPattern = regexp.MustCompile(`(?i)js`)

var errStopWalk = errors.New("stop walk")

// TSName derives the API task prefix for a target:
// js -> ts, wasmJs -> wasmTs, jsBrowser -> TsBrowser, wasm -> wasmTs
func TSName(target string) string {
	switch {
	case strings.EqualFold(target, "js"):
		return "ts"
	case jsPattern.MatchString(target):
		return jsPattern.ReplaceAllString(target, "Ts")
	default:
		return target + "Ts"
	}
}

// allSourcesEmpty reports whether every declared source dir of the main
// compilations is absent or holds no files. No declared dirs means unknown,
// which is not empty.
func allSourcesEmpty(p *host.Project, mains []toolchain.Compilation) bool {
	declared := 0
	for _, c := range mains {
		for _, dir := range c.SourceDirs {
			declared++
			if hasFiles(p.Fs, p.File(dir)) {
				return false
			}
		}
	}
	return declared > 0
}

func hasFiles(fs afero.Fs, dir string) bool {
	found := false
	_ = afero.Walk(fs, dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			found = true
			return errStopWalk
		}
		return nil
	})
	return found
}
