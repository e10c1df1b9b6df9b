package descriptor

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tsapi/errors"
	"github.com/teranos/tsapi/host"
	"github.com/teranos/tsapi/toolchain"
)

const widgetsTOML = `
name = "root"
plugins = ["org.jetbrains.kotlinx.binary-compatibility-validator"]

[peer]
api_dump_directory = "api"
ignored_projects = ["samples"]

[[subprojects]]
name = "widgets"
plugins = ["org.jetbrains.kotlin.multiplatform", "org.jetbrains.kotlinx.binary-compatibility-validator"]

[subprojects.toolchain]
version = "1.9.22"
multiplatform = true

[[subprojects.toolchain.targets]]
name = "js"
platform = "js"

[[subprojects.toolchain.targets.binaries]]
name = "productionExecutable"
mode = "production"
link_task = "compileProductionExecutableKotlinJs"

[[subprojects.toolchain.targets.compilations]]
name = "main"
source_dirs = ["src/jsMain/kotlin"]

[[subprojects.toolchain.targets]]
name = "jvm"
platform = "jvm"

[[subprojects.tasks]]
name = "compileProductionExecutableKotlinJs"
kind = "link"
mode = "production"
destination = "build/js/productionExecutable"
command = "./gradlew-stub link"

[[subprojects.tasks]]
name = "lint"
kind = "exec"
command = "echo lint"
depends_on = ["compileProductionExecutableKotlinJs"]
disabled = true

[[subprojects]]
name = "samples"
dir = "examples/samples"
`

const widgetsYAML = `
name: root
plugins: [org.jetbrains.kotlinx.binary-compatibility-validator]
peer:
  api_dump_directory: api
  ignored_projects: [samples]
subprojects:
  - name: widgets
    plugins: [org.jetbrains.kotlin.multiplatform, org.jetbrains.kotlinx.binary-compatibility-validator]
    toolchain:
      version: 1.9.22
      multiplatform: true
      targets:
        - name: js
          platform: js
          binaries:
            - name: productionExecutable
              mode: production
              link_task: compileProductionExecutableKotlinJs
          compilations:
            - name: main
              source_dirs: [src/jsMain/kotlin]
        - name: jvm
          platform: jvm
    tasks:
      - name: compileProductionExecutableKotlinJs
        kind: link
        mode: production
        destination: build/js/productionExecutable
        command: ./gradlew-stub link
      - name: lint
        kind: exec
        command: echo lint
        depends_on: [compileProductionExecutableKotlinJs]
        disabled: true
  - name: samples
    dir: examples/samples
`

func assertWidgetsTree(t *testing.T, root *host.Project) {
	t.Helper()
	assert.Equal(t, ":", root.Path)
	assert.Equal(t, "/work", root.Dir)
	require.NotNil(t, root.Peer)
	assert.Equal(t, []string{"samples"}, root.Peer.IgnoredProjects)

	widgets, ok := root.FindProject(":widgets")
	require.True(t, ok)
	assert.Equal(t, "/work/widgets", widgets.Dir)
	assert.True(t, widgets.HasPlugin(host.PluginMultiplatform))
	assert.Equal(t, "1.9.22", widgets.Toolchain.Version)
	assert.True(t, widgets.Toolchain.Multiplatform)
	require.Len(t, widgets.Toolchain.Targets, 2)
	assert.Equal(t, "js", widgets.Toolchain.Targets[0].Name)
	assert.Equal(t, toolchain.PlatformJVM, widgets.Toolchain.Targets[1].Platform)
	assert.Same(t, root.Peer, widgets.FindPeerSettings())

	// the target object graph is readable through the probes
	caps, err := toolchain.Detect(widgets.Toolchain.Version, widgets.Toolchain.Targets)
	require.NoError(t, err)
	comps := caps.Compilations(widgets.Toolchain.Targets[0]).Or(nil)
	require.Len(t, comps, 1)
	assert.Equal(t, []string{"src/jsMain/kotlin"}, comps[0].SourceDirs)
	bins := caps.TargetBinaries(widgets.Toolchain.Targets[0]).Or(nil)
	require.Len(t, bins, 1)
	assert.Equal(t, "compileProductionExecutableKotlinJs", bins[0].LinkTask)
	assert.Equal(t, toolchain.ModeProduction, caps.LinkMode(bins[0]).Or(""))

	linkProvider, err := widgets.Tasks.Named("compileProductionExecutableKotlinJs")
	require.NoError(t, err)
	link := linkProvider.Get()
	assert.Equal(t, host.KindLink, link.Kind)
	assert.Equal(t, "build/js/productionExecutable", link.Destination)
	assert.Equal(t, []string{"/work/widgets/build/js/productionExecutable"}, link.Outputs)
	assert.Len(t, link.Actions(), 1)

	lintProvider, err := widgets.Tasks.Named("lint")
	require.NoError(t, err)
	lint := lintProvider.Get()
	assert.False(t, lint.Enabled)
	assert.Equal(t, []string{"compileProductionExecutableKotlinJs"}, lint.Dependencies())

	samples, ok := root.FindProject(":samples")
	require.True(t, ok)
	assert.Equal(t, "/work/examples/samples", samples.Dir)
}

func TestLoadTOML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/tsapi-project.toml", []byte(widgetsTOML), 0644))

	root, err := Load(fs, "/work")
	require.NoError(t, err)
	assertWidgetsTree(t, root)
}

func TestLoadYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/tsapi-project.yaml", []byte(widgetsYAML), 0644))

	root, err := Load(fs, "/work")
	require.NoError(t, err)
	assertWidgetsTree(t, root)
}

func TestFindPrefersTOML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/tsapi-project.yml", []byte("name: a\n"), 0644))
	assert.Equal(t, "/work/tsapi-project.yml", Find(fs, "/work"))

	require.NoError(t, afero.WriteFile(fs, "/work/tsapi-project.toml", []byte(`name = "a"`), 0644))
	assert.Equal(t, "/work/tsapi-project.toml", Find(fs, "/work"))
	assert.Empty(t, Find(fs, "/elsewhere"))
}

func TestLoadWithoutDescriptor(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/work")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidDescriptor))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "missing name", doc: `plugins = []`, want: "project name is required"},
		{name: "colon in name", doc: `name = "a:b"`, want: "must not contain ':'"},
		{name: "duplicate task", doc: `
name = "a"
[[tasks]]
name = "x"
[[tasks]]
name = "x"
`, want: `task "x" is declared twice`},
		{name: "link without destination", doc: `
name = "a"
[[tasks]]
name = "link"
kind = "link"
mode = "production"
`, want: "needs a destination"},
		{name: "link with bad mode", doc: `
name = "a"
[[tasks]]
name = "link"
kind = "link"
mode = "fast"
destination = "out"
`, want: `unknown mode "fast"`},
		{name: "exec without command", doc: `
name = "a"
[[tasks]]
name = "run"
kind = "exec"
`, want: "needs a command"},
		{name: "unknown kind", doc: `
name = "a"
[[tasks]]
name = "x"
kind = "copy"
`, want: `unknown kind "copy"`},
		{name: "nested error", doc: `
name = "a"
[[subprojects]]
name = "b"
[[subprojects.tasks]]
name = ""
`, want: "task name is required"},
		{name: "duplicate subproject", doc: `
name = "a"
[[subprojects]]
name = "b"
[[subprojects]]
name = "b"
`, want: `subproject "b" is declared twice`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), "toml")
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidDescriptor))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("name = "), "toml")
	assert.True(t, errors.Is(err, errors.ErrInvalidDescriptor))

	_, err = Parse([]byte("name: [unclosed"), "yaml")
	assert.True(t, errors.Is(err, errors.ErrInvalidDescriptor))

	_, err = Parse([]byte("{}"), "json")
	assert.True(t, errors.Is(err, errors.ErrInvalidDescriptor))
}

func TestBuildRejectsUnnamedTarget(t *testing.T) {
	d, err := Parse([]byte(`
name = "a"
[toolchain]
version = "2.0.0"
[[toolchain.targets]]
platform = "js"
`), "toml")
	require.NoError(t, err)

	_, err = Build(d, "/work", afero.NewMemMapFs())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidDescriptor))
}
