// Package wiring registers the TypeScript API build, check and dump tasks
// of each project and attaches them to the module-wide umbrellas and to
// the peer validator's tasks.
package wiring

import (
	"context"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/teranos/tsapi/am"
	"github.com/teranos/tsapi/errors"
	"github.com/teranos/tsapi/host"
	"github.com/teranos/tsapi/logger"
	"github.com/teranos/tsapi/snapshot"
	"github.com/teranos/tsapi/targets"
	"github.com/teranos/tsapi/toolchain"
)

// apiSubject names the checked API in diagnostics
const apiSubject = "TS API"

// Options are the module-independent settings of the wiring
type Options struct {
	// Extension of declaration and snapshot files
	Extension string
	// DumpDirectory is used when the peer validator does not name one
	DumpDirectory string
	// MinVersion is the oldest supported toolchain
	MinVersion string
	Log        *zap.SugaredLogger
}

// OptionsFromConfig reads Options from loaded configuration
func OptionsFromConfig(cfg *am.Config) Options {
	return Options{
		Extension:     cfg.GetExtension(),
		DumpDirectory: cfg.GetDumpDirectory(),
		MinVersion:    cfg.GetMinVersion(),
	}
}

func (o Options) withDefaults() Options {
	if o.Extension == "" {
		o.Extension = am.DefaultExtension
	}
	if o.DumpDirectory == "" {
		o.DumpDirectory = am.DefaultDumpDirectory
	}
	if o.MinVersion == "" {
		o.MinVersion = am.DefaultMinVersion
	}
	if o.Log == nil {
		o.Log = logger.ComponentLogger("wiring")
	}
	return o
}

// Module is the wiring result for one project
type Module struct {
	Project      *host.Project
	Capabilities *toolchain.Capabilities
	Strategy     DirStrategy
	Targets      []TargetConfig
}

// Apply configures every project of the tree containing root. Projects
// that cannot take part are skipped with a diagnostic and return no Module.
func Apply(root *host.Project, opts Options) ([]*Module, error) {
	var modules []*Module
	var errs error
	for _, p := range root.Root().AllProjects() {
		m, err := Configure(p, opts)
		if err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "failed to configure %s", p.Path))
			continue
		}
		if m != nil {
			modules = append(modules, m)
		}
	}
	return modules, errs
}

// Configure registers the API tasks of one project. A nil Module with a nil
// error means the project is not checked; the reason has been logged.
func Configure(p *host.Project, opts Options) (*Module, error) {
	opts = opts.withDefaults()
	log := opts.Log.With(logger.FieldProject, p.Path)

	if !reportPlugins(p, log) {
		return nil, nil
	}

	if err := toolchain.ValidateVersion(p.Toolchain.Version, opts.MinVersion); err != nil {
		log.Errorw(err.Error(), "hint", errors.FlattenHints(err))
		return nil, nil
	}

	peer := p.FindPeerSettings()
	if !checksEnabled(p.Name, peer) {
		log.Infow(apiSubject + " checks are disabled for " + p.Path)
		return nil, nil
	}

	caps, err := toolchain.Detect(p.Toolchain.Version, p.Toolchain.Targets)
	if err != nil {
		log.Errorw("Cannot read toolchain capabilities", logger.FieldError, err)
		return nil, nil
	}
	log.Debugw("Toolchain capabilities", logger.FieldShape, caps.Shape().Name(), logger.FieldVersion, caps.Version().String())

	hasJS := false
	for _, t := range p.Toolchain.Targets {
		if caps.IsJSTarget(t) {
			hasJS = true
			break
		}
	}
	if !hasJS {
		log.Warnw(apiSubject + " checks are disabled for " + p.Path + " as no compatible targets found")
	}

	dumpDir := opts.DumpDirectory
	if peer != nil && peer.APIDumpDirectory != "" {
		dumpDir = peer.APIDumpDirectory
	}

	apiDump := p.Tasks.MaybeRegister(TaskAPIDump, nil)
	apiCheck := p.Tasks.MaybeRegister(TaskAPICheck, nil)
	if check, err := p.Tasks.Named(host.TaskCheck); err == nil {
		check.Configure(func(t *host.Task) { t.DependsOn(TaskAPICheck) })
	}

	m := &Module{
		Project:      p,
		Capabilities: caps,
		Strategy:     SelectStrategy(p.Toolchain.Targets),
	}
	log.Debugw("Directory strategy", logger.FieldStrategy, m.Strategy.String())

	resolver := targets.NewResolver(caps)
	for _, res := range resolver.Resolve(p) {
		cfg := TargetConfig{
			Project:          p,
			APIDumpDirectory: dumpDir,
			TargetName:       res.Target.Name,
			TSName:           res.TSName,
			Strategy:         m.Strategy,
		}
		if err := configureTarget(p, m, cfg, res, peer, apiDump, apiCheck, opts, log.With(logger.FieldTarget, res.Target.Name)); err != nil {
			return nil, err
		}
		m.Targets = append(m.Targets, cfg)
	}
	return m, nil
}

// reportPlugins logs the missing plugins and reports whether the project
// has a toolchain plugin the wiring can work with
func reportPlugins(p *host.Project, log *zap.SugaredLogger) bool {
	ok := true
	if !p.HasPlugin(host.PluginMultiplatform) && !p.HasPlugin(host.PluginJS) {
		log.Errorw("Neither the multiplatform nor the JS toolchain plugin is applied to the " + p.Path +
			" project. There is no TS API to provide stability for, nothing will be checked.")
		ok = false
	}
	if !p.HasPlugin(host.PluginPeerValidator) {
		log.Errorw("The peer compatibility validator plugin is not applied to the " + p.Path +
			" project. TS API snapshots will not be coordinated with its API dumps.")
	}
	return ok
}

// checksEnabled applies the peer validator switches to this module
func checksEnabled(name string, peer *host.PeerSettings) bool {
	if peer == nil {
		return true
	}
	if peer.ValidationDisabled {
		return false
	}
	for _, ignored := range peer.IgnoredProjects {
		if ignored == name {
			return false
		}
	}
	return true
}

func configureTarget(
	p *host.Project,
	m *Module,
	cfg TargetConfig,
	res targets.Resolved,
	peer *host.PeerSettings,
	apiDump, apiCheck *host.TaskProvider,
	opts Options,
	log *zap.SugaredLogger,
) error {
	fileName := cfg.SnapshotFileName(opts.Extension)
	buildFile := p.BuildFile(path.Join(cfg.APIDirName(), fileName))
	referenceFile := filepath.Join(cfg.APIDir(), fileName)
	enabled := checksEnabled(p.Name, peer)

	files, err := snapshot.NewDeclarationFileSet(p.Fs, opts.Extension, linkDestinations(p, res.LinkTasks))
	if err != nil {
		return err
	}
	collector := &snapshot.Collector{
		Fs:                       p.Fs,
		Files:                    files,
		Output:                   buildFile,
		Module:                   p.Name,
		HasGenerateTSDefinitions: m.Capabilities.HasGenerateTSDefinitions,
		Log:                      log,
	}

	buildName := cfg.TaskName(SuffixBuild)
	build, err := p.Tasks.Register(buildName, func(t *host.Task) {
		t.Enabled = enabled
		t.Description = "Collects built TS definitions as API for '" + res.Target.Name + "' compilations of :" + p.Name +
			". Complementary task and shouldn't be called manually"
		t.Outputs = []string{buildFile}
		t.DependsOn(res.LinkTasks...)
		t.DoLast(collector.Action())
	})
	if err != nil {
		return err
	}

	comparator := &snapshot.Comparator{
		Fs:        p.Fs,
		Reference: referenceFile,
		Build:     buildFile,
		Project:   p,
		DumpTask:  p.TaskPath(TaskAPIDump),
		Log:       log,
	}
	checkName := cfg.TaskName(SuffixCheck)
	if _, err := p.Tasks.Register(checkName, func(t *host.Task) {
		t.Enabled = enabled && build.Get().Enabled
		t.Group = host.GroupVerification
		t.Description = "Checks signatures of public TypeScript API against the golden value in API folder for :" + p.Name
		t.Inputs = []string{buildFile, referenceFile}
		t.DependsOn(buildName)
		t.DoLast(comparator.Action())
	}); err != nil {
		return err
	}

	syncer := &snapshot.Syncer{Fs: p.Fs, Build: buildFile, Reference: referenceFile, Log: log}
	dumpName := cfg.TaskName(SuffixDump)
	if _, err := p.Tasks.Register(dumpName, func(t *host.Task) {
		t.Enabled = enabled && build.Get().Enabled
		t.Group = host.GroupOther
		t.Description = "Syncs API from build dir to " + cfg.APIDirName() + " dir for :" + p.Name
		t.Inputs = []string{buildFile}
		t.Outputs = []string{referenceFile}
		t.DependsOn(buildName)
		t.DoLast(syncer.Action())
	}); err != nil {
		return err
	}

	if cfg.Strategy.Kind == StrategyCommon && cfg.Strategy.PeerTarget != "" {
		registerPeerShim(p, cfg.Strategy.PeerTarget, build, buildFile, log)
	}

	apiDump.Configure(func(t *host.Task) { t.DependsOn(dumpName) })
	apiCheck.Configure(func(t *host.Task) { t.DependsOn(checkName) })
	return nil
}

// linkDestinations resolves link task output directories when the file
// set is read, after the link tasks have been configured
func linkDestinations(p *host.Project, linkTasks []string) func() []string {
	return func() []string {
		dirs := make([]string, 0, len(linkTasks))
		for _, name := range linkTasks {
			provider, err := p.Tasks.Named(name)
			if err != nil {
				continue
			}
			if dest := provider.Get().Destination; dest != "" {
				dirs = append(dirs, p.File(dest))
			}
		}
		return dirs
	}
}

// registerPeerShim orders our collector around the peer validator's tasks
// when both write into the same build directory. The peer check does not
// accept foreign files there, so a cleaner removes ours before it runs and
// our collector runs after it.
func registerPeerShim(p *host.Project, peerTarget string, build *host.TaskProvider, buildFile string, log *zap.SugaredLogger) {
	peerBuild := APITaskName(peerTarget, SuffixBuild)
	peerCheck := APITaskName(peerTarget, SuffixCheck)
	peerDump := APITaskName(peerTarget, SuffixDump)

	var missing []string
	for _, name := range []string{peerBuild, peerCheck, peerDump} {
		if !p.Tasks.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		log.Warnw("Peer validator tasks not found, shared API directory ordering is not applied",
			"missing", missing, logger.FieldTarget, peerTarget)
		return
	}

	log.Infow("Sharing the API directory with the peer validator", "peer_target", peerTarget)

	cleanerName := peerCheck + "TsCompatCleaner"
	p.Tasks.MaybeRegister(cleanerName, func(t *host.Task) {
		t.Group = host.GroupOther
		t.Description = "Removes TS API snapshots the " + peerCheck + " task does not expect"
		t.DoLast(func(ctx context.Context, _ *host.Task) error {
			removed, err := snapshot.RemoveIfExists(p.Fs, buildFile)
			if err != nil {
				return err
			}
			if removed {
				logger.LoggerFromContext(ctx, log).Infow("Removed "+apiSubject+" file for compatibility with '"+peerCheck+"' task",
					logger.FieldFile, buildFile)
			}
			return nil
		})
	})

	// Every peer task exists, checked above
	checkProvider, _ := p.Tasks.Named(peerCheck)
	checkProvider.Configure(func(t *host.Task) { t.DependsOn(cleanerName) })

	build.Configure(func(t *host.Task) { t.MustRunAfter(cleanerName, peerBuild, peerCheck) })

	dumpProvider, _ := p.Tasks.Named(peerDump)
	dumpProvider.Configure(func(t *host.Task) { t.DependsOn(build.Name()) })
}
