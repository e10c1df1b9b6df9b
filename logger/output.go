package logger

// Output controls what categories of information the CLI prints at each
// verbosity level. Unlike log levels (which filter by severity), output
// categories control WHAT is displayed.
//
//	0 (default) - task failures with hints, final status
//	1 (-v)      - + per-task summary table
//	2 (-vv)     - + execution plan, timing
//	3 (-vvv)    - + watched paths and file events

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputErrors     OutputCategory = iota // Failures with hints
	OutputUserStatus                       // Final success/failure status

	// Level 1 (-v)
	OutputTaskSummary // Per-task state table

	// Level 2 (-vv)
	OutputPlan   // Resolved execution order
	OutputTiming // Invocation duration

	// Level 3 (-vvv)
	OutputFileEvents // Watch mode file events
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputErrors:      VerbosityUser,
	OutputUserStatus:  VerbosityUser,
	OutputTaskSummary: VerbosityInfo,
	OutputPlan:        VerbosityDebug,
	OutputTiming:      VerbosityDebug,
	OutputFileEvents:  VerbosityTrace,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityTrace
	}
	return verbosity >= minLevel
}
