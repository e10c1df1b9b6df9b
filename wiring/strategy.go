package wiring

import (
	"github.com/teranos/tsapi/toolchain"
)

// StrategyKind selects where reference snapshots live
type StrategyKind int

const (
	// StrategyCommon keeps every snapshot directly in the dump directory
	StrategyCommon StrategyKind = iota
	// StrategyTargetDir gives each target its own subdirectory
	StrategyTargetDir
)

func (k StrategyKind) String() string {
	if k == StrategyTargetDir {
		return "target-dir"
	}
	return "common"
}

// DirStrategy mirrors the directory layout the peer validator uses for
// the same module, so both validators agree on where files go
type DirStrategy struct {
	Kind StrategyKind
	// PeerTarget is the single comparable target of a Common layout,
	// "" when the module has none
	PeerTarget string
}

func (s DirStrategy) String() string {
	if s.Kind == StrategyCommon && s.PeerTarget != "" {
		return s.Kind.String() + "(" + s.PeerTarget + ")"
	}
	return s.Kind.String()
}

// comparablePlatforms are the platforms the peer validator dumps
var comparablePlatforms = map[string]bool{
	toolchain.PlatformJVM:        true,
	toolchain.PlatformAndroidJVM: true,
}

// SelectStrategy picks TargetDir when more than one target is comparable,
// Common otherwise
func SelectStrategy(targets []toolchain.Target) DirStrategy {
	var comparable []string
	for _, t := range targets {
		if comparablePlatforms[t.Platform] {
			comparable = append(comparable, t.Name)
		}
	}
	if len(comparable) > 1 {
		return DirStrategy{Kind: StrategyTargetDir}
	}
	s := DirStrategy{Kind: StrategyCommon}
	if len(comparable) == 1 {
		s.PeerTarget = comparable[0]
	}
	return s
}
