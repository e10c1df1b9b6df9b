package host

import (
	"context"
	"strings"
)

// Task kinds understood by the executor and the wiring
const (
	KindLink = "link" // compiler link step producing declarations in Destination
	KindExec = "exec" // runs a shell command
)

// Action is one unit of work of a task. Returning an error marked with
// ErrSkipTask stops the task without failing the build.
type Action func(ctx context.Context, t *Task) error

// Task is a realized build task. Tasks are configured through their
// TaskProvider and must not be mutated once the executor starts.
type Task struct {
	Name    string
	Project *Project

	// Group "" hides the task from default listings
	Group       string
	Description string
	Enabled     bool

	Kind        string
	Mode        string
	Destination string
	Command     string

	Inputs  []string
	Outputs []string

	actions      []Action
	dependsOn    []string
	mustRunAfter []string
	finalizedBy  []string
}

// Path is the absolute task path, e.g. ":widgets:jsApiCheck"
func (t *Task) Path() string {
	return t.Project.TaskPath(t.Name)
}

// DoLast appends an action
func (t *Task) DoLast(a Action) {
	t.actions = append(t.actions, a)
}

// Actions returns the task actions in execution order
func (t *Task) Actions() []Action {
	return t.actions
}

// DependsOn adds hard dependencies: they run first and must not fail.
// References are task names in this project or absolute task paths.
func (t *Task) DependsOn(refs ...string) {
	t.dependsOn = appendUnique(t.dependsOn, refs...)
}

// MustRunAfter orders this task after refs when both are scheduled,
// without pulling refs into the build
func (t *Task) MustRunAfter(refs ...string) {
	t.mustRunAfter = appendUnique(t.mustRunAfter, refs...)
}

// FinalizedBy schedules refs to run once this task has executed, whatever
// its outcome, even when the failure stops the rest of the build
func (t *Task) FinalizedBy(refs ...string) {
	t.finalizedBy = appendUnique(t.finalizedBy, refs...)
}

// Dependencies returns the hard dependency references
func (t *Task) Dependencies() []string { return t.dependsOn }

// RunsAfter returns the ordering-only references
func (t *Task) RunsAfter() []string { return t.mustRunAfter }

// Finalizers returns the finalizer references
func (t *Task) Finalizers() []string { return t.finalizedBy }

// resolve turns a task reference into an absolute task path
func (t *Task) resolve(ref string) string {
	if strings.HasPrefix(ref, ":") {
		return ref
	}
	return t.Project.TaskPath(ref)
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		if item == "" {
			continue
		}
		dup := false
		for _, existing := range list {
			if existing == item {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, item)
		}
	}
	return list
}
