package wiring

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/teranos/tsapi/host"
	"github.com/teranos/tsapi/toolchain"
)

func target(name, platform string) toolchain.Target {
	return toolchain.Target{Name: name, Platform: platform, Object: toolchain.Object{"name": name, "platform": platform}}
}

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name    string
		targets []toolchain.Target
		want    DirStrategy
	}{
		{name: "js only", targets: []toolchain.Target{target("js", "js")}, want: DirStrategy{Kind: StrategyCommon}},
		{name: "one jvm", targets: []toolchain.Target{target("js", "js"), target("jvm", "jvm")},
			want: DirStrategy{Kind: StrategyCommon, PeerTarget: "jvm"}},
		{name: "one android", targets: []toolchain.Target{target("android", "androidJvm"), target("iosArm64", "native")},
			want: DirStrategy{Kind: StrategyCommon, PeerTarget: "android"}},
		{name: "jvm and android", targets: []toolchain.Target{target("jvm", "jvm"), target("android", "androidJvm"), target("js", "js")},
			want: DirStrategy{Kind: StrategyTargetDir}},
		{name: "no targets", want: DirStrategy{Kind: StrategyCommon}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectStrategy(tt.targets))
		})
	}
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "common", DirStrategy{}.String())
	assert.Equal(t, "common(jvm)", DirStrategy{PeerTarget: "jvm"}.String())
	assert.Equal(t, "target-dir", DirStrategy{Kind: StrategyTargetDir}.String())
}

func TestAPITaskName(t *testing.T) {
	assert.Equal(t, "apiDump", APITaskName("", SuffixDump))
	assert.Equal(t, "tsApiBuild", APITaskName("ts", SuffixBuild))
	assert.Equal(t, "wasmTsApiCheck", APITaskName("wasmTs", SuffixCheck))
	assert.Equal(t, "jvmApiCheck", APITaskName("jvm", SuffixCheck))
}

func TestTargetConfigLayout(t *testing.T) {
	p := host.NewRootProject("widgets", "/work/widgets", afero.NewMemMapFs())

	common := TargetConfig{Project: p, APIDumpDirectory: "api", TargetName: "js", TSName: "ts"}
	assert.Equal(t, "api", common.APIDirName())
	assert.Equal(t, "/work/widgets/api", common.APIDir())
	assert.Equal(t, "tsApiCheck", common.TaskName(SuffixCheck))
	assert.Equal(t, "widgets.d.ts", common.SnapshotFileName(".d.ts"))

	p.Toolchain.Multiplatform = true
	perTarget := TargetConfig{Project: p, APIDumpDirectory: "api", TargetName: "wasmJs", TSName: "wasmTs",
		Strategy: DirStrategy{Kind: StrategyTargetDir}}
	assert.Equal(t, "api/wasmTs", perTarget.APIDirName())
	assert.Equal(t, "widgets.wasmJs.d.ts", perTarget.SnapshotFileName(".d.ts"))
}
