package toolchain

// Platform identifiers as declared by the host toolchain
const (
	PlatformJS         = "js"
	PlatformWasm       = "wasm"
	PlatformJVM        = "jvm"
	PlatformAndroidJVM = "androidJvm"
	PlatformNative     = "native"
	PlatformCommon     = "common"
)

// Binary modes
const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)

// MainCompilation is the name of the production compilation of a target
const MainCompilation = "main"

// Target is one compilation target of a module
type Target struct {
	Name     string
	Platform string
	Object   Object
}

// NewTarget reads a target's identity from its object
func NewTarget(obj Object) Target {
	return Target{
		Name:     obj.String("name"),
		Platform: obj.String("platform"),
		Object:   obj,
	}
}

// TargetsFrom decodes a list (or name-keyed map) of target objects
func TargetsFrom(v any) []Target {
	objs, _ := AsObjects(v)
	targets := make([]Target, 0, len(objs))
	for _, obj := range objs {
		t := NewTarget(obj)
		if t.Name == "" {
			continue
		}
		targets = append(targets, t)
	}
	return targets
}

// Compilation is a named compilation of a target
type Compilation struct {
	Name       string
	SourceDirs []string
	Object     Object
}

func newCompilation(obj Object) Compilation {
	return Compilation{
		Name:       obj.String("name"),
		SourceDirs: obj.Strings("source_dirs"),
		Object:     obj,
	}
}

// Binary is an output artifact configuration of a compilation
type Binary struct {
	Name string
	// LinkTask is the host task that produces this binary, "" if unknown
	LinkTask string
	Object   Object
}

func newBinary(obj Object) Binary {
	return Binary{
		Name:     obj.String("name"),
		LinkTask: obj.String("link_task"),
		Object:   obj,
	}
}
