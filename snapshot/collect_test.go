package snapshot

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/tsapi/host"
)

func newCollector(t *testing.T, fs afero.Fs, dirs ...string) (*Collector, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	set, err := NewDeclarationFileSet(fs, ".d.ts", func() []string { return dirs })
	require.NoError(t, err)
	return &Collector{
		Fs:     fs,
		Files:  set,
		Output: "/widgets/build/api/widgets.d.ts",
		Module: "widgets",
		Log:    zap.New(core).Sugar(),
	}, logs
}

func TestCollectNormalizes(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/widgets/build/js/widgets.d.ts", decl+"   \r\n\r\n\r\n")
	c, _ := newCollector(t, fs, "/widgets/build/js")

	require.NoError(t, c.Collect(context.Background()))

	got, err := afero.ReadFile(fs, c.Output)
	require.NoError(t, err)
	assert.Equal(t, decl+"\n", string(got))

	// no temp files left behind
	entries, err := afero.ReadDir(fs, "/widgets/build/api")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCollectEmptySkips(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/widgets/build/api/widgets.d.ts", "stale")
	c, logs := newCollector(t, fs, "/widgets/build/js")
	c.HasGenerateTSDefinitions = true

	err := c.Collect(context.Background())
	require.Error(t, err)
	assert.True(t, host.IsSkip(err))

	errorsLogged := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errorsLogged, 1)
	assert.Contains(t, errorsLogged[0].Message, "binaries.executable()")
	assert.Contains(t, errorsLogged[0].Message, "generateTypeScriptDefinitions()")

	exists, err := afero.Exists(fs, c.Output)
	require.NoError(t, err)
	assert.False(t, exists, "stale snapshot must be removed")
}

func TestCollectEmptyWithoutGenerateSwitch(t *testing.T) {
	c, logs := newCollector(t, afero.NewMemMapFs(), "/nowhere")
	assert.True(t, host.IsSkip(c.Collect(context.Background())))
	msg := logs.FilterLevelExact(zapcore.ErrorLevel).All()[0].Message
	assert.NotContains(t, msg, "generateTypeScriptDefinitions")
}

func TestCollectAmbiguousPicksFirst(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/widgets/build/js/b.d.ts", "export declare const b: number;\n")
	writeFile(t, fs, "/widgets/build/js/a.d.ts", "export declare const a: number;\n")

	for run := 0; run < 3; run++ {
		c, logs := newCollector(t, fs, "/widgets/build/js")
		require.NoError(t, c.Collect(context.Background()))

		got, err := afero.ReadFile(fs, c.Output)
		require.NoError(t, err)
		assert.Equal(t, "export declare const a: number;\n", string(got))
		assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	}
}

func TestCollectActionRunsInExecutor(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/widgets/build/js/widgets.d.ts", decl)
	c, _ := newCollector(t, fs, "/widgets/build/js")

	p := host.NewRootProject("widgets", "/widgets", fs)
	_, err := p.Tasks.Register("tsApiBuild", func(task *host.Task) { task.DoLast(c.Action()) })
	require.NoError(t, err)

	result, err := host.NewExecutor(p, 1).Run(context.Background(), "tsApiBuild")
	require.NoError(t, err)
	assert.Equal(t, host.StateSuccess, result.States[":tsApiBuild"])
}

func TestRemoveIfExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	removed, err := RemoveIfExists(fs, "/a.d.ts")
	require.NoError(t, err)
	assert.False(t, removed)

	writeFile(t, fs, "/a.d.ts", "x")
	removed, err = RemoveIfExists(fs, "/a.d.ts")
	require.NoError(t, err)
	assert.True(t, removed)
}
