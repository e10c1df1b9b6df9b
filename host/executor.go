package host

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/tsapi/errors"
	"github.com/teranos/tsapi/logger"
)

// TaskState is the outcome of one task in an invocation
type TaskState string

const (
	StateSuccess  TaskState = "success"
	StateSkipped  TaskState = "skipped"
	StateDisabled TaskState = "disabled"
	StateFailed   TaskState = "failed"
	StateNotRun   TaskState = "not-run"
)

// Result describes one executor invocation
type Result struct {
	InvocationID string
	// Order is the scheduled task paths in execution order
	Order    []string
	States   map[string]TaskState
	Errors   []error
	Duration time.Duration
}

// Failed reports whether any task failed
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// Executor runs tasks of a project tree
type Executor struct {
	Root *Project
	// Workers bounds concurrently running actions; <= 0 means 1
	Workers int
	// Continue keeps running tasks that do not depend on a failed one
	Continue bool

	log *zap.SugaredLogger
}

// NewExecutor creates an executor for the tree containing p
func NewExecutor(p *Project, workers int) *Executor {
	return &Executor{
		Root:    p.Root(),
		Workers: workers,
		log:     logger.ComponentLogger("host.exec"),
	}
}

// Plan is a resolved, ordered set of tasks
type Plan struct {
	Tasks map[string]*Task
	Order []string
	// hard holds dependsOn edges: task -> dependencies
	hard map[string][]string
	// preds holds every ordering edge: task -> tasks that must finish first
	preds map[string][]string
	// finalizes holds finalizedBy edges: finalizer -> finalized tasks
	finalizes map[string][]string
}

// Resolve turns a task request into task paths. Absolute paths (":a:x")
// name one task; bare names select that task in every project of the tree.
func (e *Executor) Resolve(request string) ([]string, error) {
	if strings.HasPrefix(request, ":") {
		idx := strings.LastIndex(request, ":")
		projectPath, name := request[:idx], request[idx+1:]
		if projectPath == "" {
			projectPath = ":"
		}
		p, ok := e.Root.FindProject(projectPath)
		if !ok || !p.Tasks.Has(name) {
			return nil, errors.Mark(errors.Newf("task '%s' not found", request), errors.ErrTaskNotFound)
		}
		return []string{p.TaskPath(name)}, nil
	}

	var paths []string
	for _, p := range e.Root.AllProjects() {
		if p.Tasks.Has(request) {
			paths = append(paths, p.TaskPath(request))
		}
	}
	if len(paths) == 0 {
		return nil, errors.WithHint(
			errors.Mark(errors.Newf("task '%s' not found in any project", request), errors.ErrTaskNotFound),
			"run `tsapi tasks --all` to list available tasks",
		)
	}
	return paths, nil
}

// lookup realizes a task by absolute path
func (e *Executor) lookup(taskPath string) (*Task, error) {
	idx := strings.LastIndex(taskPath, ":")
	projectPath, name := taskPath[:idx], taskPath[idx+1:]
	if projectPath == "" {
		projectPath = ":"
	}
	p, ok := e.Root.FindProject(projectPath)
	if !ok {
		return nil, errors.Mark(errors.Newf("project '%s' not found", projectPath), errors.ErrTaskNotFound)
	}
	provider, err := p.Tasks.Named(name)
	if err != nil {
		return nil, err
	}
	return provider.Get(), nil
}

// Plan computes the closure of the requested tasks and orders it
func (e *Executor) Plan(requests ...string) (*Plan, error) {
	plan := &Plan{
		Tasks: make(map[string]*Task),
		hard:      make(map[string][]string),
		preds:     make(map[string][]string),
		finalizes: make(map[string][]string),
	}

	var queue []string
	for _, req := range requests {
		paths, err := e.Resolve(req)
		if err != nil {
			return nil, err
		}
		queue = append(queue, paths...)
	}

	// Closure over dependsOn and finalizedBy
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if _, seen := plan.Tasks[path]; seen {
			continue
		}
		t, err := e.lookup(path)
		if err != nil {
			return nil, err
		}
		plan.Tasks[path] = t
		for _, ref := range t.Dependencies() {
			queue = append(queue, t.resolve(ref))
		}
		for _, ref := range t.Finalizers() {
			queue = append(queue, t.resolve(ref))
		}
	}

	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	paths := make([]string, 0, len(plan.Tasks))
	for path := range plan.Tasks {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := g.AddVertex(path); err != nil {
			return nil, errors.Wrapf(err, "failed to add task %s", path)
		}
	}

	addEdge := func(before, after string) error {
		err := g.AddEdge(before, after)
		switch {
		case err == nil:
			plan.preds[after] = append(plan.preds[after], before)
			return nil
		case errors.Is(err, graph.ErrEdgeAlreadyExists):
			return nil
		case errors.Is(err, graph.ErrEdgeCreatesCycle):
			return errors.Mark(errors.Newf("circular dependency between %s and %s", before, after), errors.ErrCycle)
		default:
			return errors.Wrapf(err, "failed to order %s before %s", before, after)
		}
	}

	for _, path := range paths {
		t := plan.Tasks[path]
		for _, ref := range t.Dependencies() {
			dep := t.resolve(ref)
			plan.hard[path] = append(plan.hard[path], dep)
			if err := addEdge(dep, path); err != nil {
				return nil, err
			}
		}
		for _, ref := range t.Finalizers() {
			finalizer := t.resolve(ref)
			plan.finalizes[finalizer] = append(plan.finalizes[finalizer], path)
			if err := addEdge(path, finalizer); err != nil {
				return nil, err
			}
		}
	}
	// Soft ordering last, and only between scheduled tasks
	for _, path := range paths {
		t := plan.Tasks[path]
		for _, ref := range t.RunsAfter() {
			before := t.resolve(ref)
			if _, scheduled := plan.Tasks[before]; !scheduled {
				continue
			}
			if err := addEdge(before, path); err != nil {
				return nil, err
			}
		}
	}

	order, err := graph.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, errors.Wrap(err, "failed to order tasks")
	}
	plan.Order = order
	return plan, nil
}

// Run plans and executes the requested tasks. The returned error is the
// first task failure (a *errors.BuildFailure) or a planning error.
func (e *Executor) Run(ctx context.Context, requests ...string) (*Result, error) {
	start := time.Now()
	result := &Result{
		InvocationID: uuid.NewString(),
		States:       make(map[string]TaskState),
	}

	plan, err := e.Plan(requests...)
	if err != nil {
		return result, err
	}
	result.Order = plan.Order

	ctx = logger.WithInvocationID(ctx, result.InvocationID)
	base := e.componentLog()
	log := logger.LoggerFromContext(ctx, base)
	log.Debugw("Execution plan", logger.FieldCount, len(plan.Order), "order", plan.Order)

	var mu sync.Mutex
	done := make(map[string]chan struct{}, len(plan.Order))
	for _, path := range plan.Order {
		done[path] = make(chan struct{})
		result.States[path] = StateNotRun
	}

	setState := func(path string, state TaskState, taskErr error) {
		mu.Lock()
		defer mu.Unlock()
		result.States[path] = state
		if taskErr != nil {
			result.Errors = append(result.Errors, taskErr)
		}
	}
	stateOf := func(path string) TaskState {
		mu.Lock()
		defer mu.Unlock()
		return result.States[path]
	}

	workers := e.Workers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	// Tasks are launched in topological order and only wait on earlier ones,
	// so a bounded pool always has a runnable goroutine.
	for _, path := range plan.Order {
		path := path
		g.Go(func() error {
			defer close(done[path])

			// Finalizers outlive a failed build: they wait for their
			// predecessors and run once any finalized task has executed.
			finalized := plan.finalizes[path]
			runCtx := gctx
			if len(finalized) > 0 {
				for _, pred := range plan.preds[path] {
					<-done[pred]
				}
				if !anyExecuted(finalized, stateOf) {
					return nil
				}
				runCtx = ctx
			} else {
				for _, pred := range plan.preds[path] {
					select {
					case <-done[pred]:
					case <-gctx.Done():
						return nil
					}
				}
				if gctx.Err() != nil {
					return nil
				}
			}

			for _, dep := range plan.hard[path] {
				switch stateOf(dep) {
				case StateFailed, StateNotRun:
					return nil
				}
			}

			t := plan.Tasks[path]
			state, taskErr := e.execute(runCtx, base, t)
			setState(path, state, taskErr)
			if taskErr != nil && !e.Continue {
				return taskErr
			}
			return nil
		})
	}
	_ = g.Wait()

	result.Duration = time.Since(start)
	log.Infow("Invocation finished",
		logger.FieldDurationMS, result.Duration.Milliseconds(),
		"failed", result.Failed())

	if len(result.Errors) > 0 {
		return result, result.Errors[0]
	}
	if err := ctx.Err(); err != nil {
		return result, errors.Wrap(err, "invocation interrupted")
	}
	return result, nil
}

// anyExecuted reports whether one of the tasks got to run its actions
func anyExecuted(paths []string, stateOf func(string) TaskState) bool {
	for _, path := range paths {
		switch stateOf(path) {
		case StateSuccess, StateSkipped, StateFailed:
			return true
		}
	}
	return false
}

// execute runs one task's actions
func (e *Executor) execute(ctx context.Context, base *zap.SugaredLogger, t *Task) (TaskState, error) {
	ctx = logger.WithTask(ctx, t.Path())
	log := logger.LoggerFromContext(ctx, base)

	if !t.Enabled {
		log.Debugw("Task disabled")
		return StateDisabled, nil
	}

	start := time.Now()
	for _, action := range t.Actions() {
		err := runAction(ctx, t, action)
		if err == nil {
			continue
		}
		if IsSkip(err) {
			log.Infow("Task skipped", "reason", err.Error())
			return StateSkipped, nil
		}
		log.Debugw("Task failed", logger.FieldError, err)
		return StateFailed, errors.NewBuildFailure(t.Path(), err)
	}

	log.Infow("Task finished", logger.FieldDurationMS, time.Since(start).Milliseconds())
	return StateSuccess, nil
}

// runAction converts a panicking action into an error
func runAction(ctx context.Context, t *Task, action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.AssertionFailedf("task %s panicked: %v", t.Path(), r)
		}
	}()
	return action(ctx, t)
}

func (e *Executor) componentLog() *zap.SugaredLogger {
	if e.log == nil {
		e.log = logger.ComponentLogger("host.exec")
	}
	return e.log
}
