package toolchain

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cast"

	"github.com/teranos/tsapi/errors"
)

// KeyGenerateTSDefinitions is the target switch that turns on declaration
// generation in toolchains that have it
const KeyGenerateTSDefinitions = "generate_typescript_definitions"

// Capabilities answers questions about the toolchain object graph using
// the probe chains of one Shape. Obtain it from Detect.
type Capabilities struct {
	shape   Shape
	version *semver.Version

	// HasGenerateTSDefinitions is true when the toolchain exposes the
	// generate_typescript_definitions switch on its JS targets
	HasGenerateTSDefinitions bool
}

// Shape returns the layout the probe chains were chosen for
func (c *Capabilities) Shape() Shape {
	return c.shape
}

// Version returns the detected toolchain version
func (c *Capabilities) Version() *semver.Version {
	return c.version
}

// ValidateVersion checks the toolchain is at least minVersion
func ValidateVersion(version, minVersion string) error {
	minV, err := semver.NewVersion(minVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid minimum toolchain version %q", minVersion)
	}

	found := ""
	if strings.TrimSpace(version) != "" {
		found = ", your version is '" + version + "'"
	}
	v, err := semver.NewVersion(version)
	if err != nil || v.LessThan(minV) {
		err := errors.Newf("You need at least toolchain %s to enable TS API verification%s", minVersion, found)
		return errors.WithHint(err, "Please update the compiler toolchain")
	}
	return nil
}

// Detect picks the probe shape for a toolchain version. The version narrows
// the candidates; the sample targets then confirm which layout is actually
// present, newest first. No sample evidence falls back to the newest layout
// the version allows.
func Detect(version string, samples []Target) (*Capabilities, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, errors.Wrapf(err, "unparseable toolchain version %q", version)
	}

	var allowed []Shape
	for _, s := range shapes {
		if !v.LessThan(semver.MustParse(s.MinVersion())) {
			allowed = append(allowed, s)
		}
	}
	if len(allowed) == 0 {
		return nil, ValidateVersion(version, legacyShape{}.MinVersion())
	}

	caps := &Capabilities{shape: allowed[0], version: v}
	chosen := false
	for _, s := range allowed {
		for _, t := range samples {
			if caps.IsJSTarget(t) && s.Fits(t.Object) {
				caps.shape = s
				chosen = true
				break
			}
		}
		if chosen {
			break
		}
	}

	for _, t := range samples {
		if _, ok := t.Object.Lookup(KeyGenerateTSDefinitions); ok {
			caps.HasGenerateTSDefinitions = true
			break
		}
	}
	return caps, nil
}

// IsJSTarget reports whether declarations can be generated for the target
func (c *Capabilities) IsJSTarget(t Target) bool {
	chain := []strategy[bool]{
		{name: "name", read: func(Object) (bool, bool) {
			return t.Name == "js" || t.Name == "wasmJs", t.Name == "js" || t.Name == "wasmJs"
		}},
		{name: "platform:js", read: func(Object) (bool, bool) {
			return true, t.Platform == PlatformJS
		}},
		{name: "kind", read: func(o Object) (bool, bool) {
			k := o.String("kind")
			return true, k == "ir" || k == "js-dsl"
		}},
		{name: "platform:wasm", read: func(Object) (bool, bool) {
			return true, t.Platform == PlatformWasm
		}},
	}
	return run("IsJSTarget", c.shapeName(), t.Object, chain).Or(false)
}

// IsWASI reports whether the target is a WASI flavour of wasm
func (c *Capabilities) IsWASI(t Target) bool {
	if strings.Contains(strings.ToLower(t.Name), "wasi") {
		return true
	}
	return strings.EqualFold(t.Object.String("wasm_target_type"), "wasi")
}

// Compilations returns the target's compilations. WASI targets have none
// usable since declaration generation does not support them.
func (c *Capabilities) Compilations(t Target) Probe[[]Compilation] {
	if c.IsWASI(t) {
		return Miss[[]Compilation](&ProbeMiss{Accessor: "Compilations", Shape: c.shapeName(), Tried: []string{"wasi-excluded"}})
	}
	objs := run("Compilations", c.shapeName(), t.Object, c.shape.compilations())
	list, ok := objs.Get()
	if !ok {
		return Miss[[]Compilation](objs.Miss())
	}
	out := make([]Compilation, 0, len(list))
	for _, o := range list {
		out = append(out, newCompilation(o))
	}
	return Hit(out)
}

// TargetBinaries returns the binaries declared directly on the target
func (c *Capabilities) TargetBinaries(t Target) Probe[[]Binary] {
	return c.binariesOf("TargetBinaries", t.Object)
}

// CompilationBinaries returns the binaries declared on a compilation
func (c *Capabilities) CompilationBinaries(comp Compilation) Probe[[]Binary] {
	return c.binariesOf("CompilationBinaries", comp.Object)
}

func (c *Capabilities) binariesOf(accessor string, obj Object) Probe[[]Binary] {
	objs := run(accessor, c.shapeName(), obj, c.shape.binaries())
	list, ok := objs.Get()
	if !ok {
		return Miss[[]Binary](objs.Miss())
	}
	out := make([]Binary, 0, len(list))
	for _, o := range list {
		out = append(out, newBinary(o))
	}
	return Hit(out)
}

// GenerateTS reads the binary's declaration generation flag
func (c *Capabilities) GenerateTS(b Binary) Probe[bool] {
	return run("GenerateTS", c.shapeName(), b.Object, c.shape.generateTS())
}

// LinkMode reads the binary's link mode (production or development)
func (c *Capabilities) LinkMode(b Binary) Probe[string] {
	return run("LinkMode", c.shapeName(), b.Object, c.shape.mode())
}

// GenerateTSDefinitionsEnabled reads the target-level switch, if present
func (c *Capabilities) GenerateTSDefinitionsEnabled(t Target) Probe[bool] {
	return run("GenerateTSDefinitions", c.shapeName(), t.Object, []strategy[bool]{{
		name: "key:" + KeyGenerateTSDefinitions,
		read: func(o Object) (bool, bool) {
			v, ok := o.Lookup(KeyGenerateTSDefinitions)
			if !ok {
				return false, false
			}
			b, err := cast.ToBoolE(v)
			return b, err == nil
		},
	}})
}

func (c *Capabilities) shapeName() string {
	if c == nil || c.shape == nil {
		return "none"
	}
	return c.shape.Name()
}
