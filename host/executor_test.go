package host

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tsapi/errors"
)

// recorder collects task paths in execution order
type recorder struct {
	mu  sync.Mutex
	ran []string
}

func (r *recorder) action() Action {
	return func(_ context.Context, t *Task) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.ran = append(r.ran, t.Path())
		return nil
	}
}

func (r *recorder) order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

func register(p *Project, name string, fn func(*Task)) {
	_, err := p.Tasks.Register(name, fn)
	if err != nil {
		panic(err)
	}
}

func TestPlanOrdersDependencies(t *testing.T) {
	p := newTestProject()
	register(p, "link", func(t *Task) { t.Kind = KindLink })
	register(p, "build", func(t *Task) { t.DependsOn("link") })
	register(p, "verify", func(t *Task) { t.DependsOn("build") })

	plan, err := NewExecutor(p, 1).Plan("verify")
	require.NoError(t, err)

	want := []string{":link", ":build", ":verify"}
	if diff := cmp.Diff(want, plan.Order); diff != "" {
		t.Errorf("plan order mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanMustRunAfterOnlyOrders(t *testing.T) {
	p := newTestProject()
	register(p, "peerCheck", nil)
	register(p, "tsBuild", func(t *Task) { t.MustRunAfter("peerCheck") })

	plan, err := NewExecutor(p, 1).Plan("tsBuild")
	require.NoError(t, err)
	assert.Equal(t, []string{":tsBuild"}, plan.Order)

	plan, err = NewExecutor(p, 1).Plan("tsBuild", "peerCheck")
	require.NoError(t, err)
	assert.Equal(t, []string{":peerCheck", ":tsBuild"}, plan.Order)
}

func TestPlanFinalizers(t *testing.T) {
	p := newTestProject()
	register(p, "report", nil)
	register(p, "work", func(t *Task) { t.FinalizedBy("report") })

	plan, err := NewExecutor(p, 1).Plan("work")
	require.NoError(t, err)
	assert.Equal(t, []string{":work", ":report"}, plan.Order)
}

func TestPlanDetectsCycles(t *testing.T) {
	p := newTestProject()
	register(p, "a", func(t *Task) { t.DependsOn("b") })
	register(p, "b", func(t *Task) { t.DependsOn("a") })

	_, err := NewExecutor(p, 1).Plan("a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCycle))
}

func TestPlanUnknownTask(t *testing.T) {
	p := newTestProject()
	_, err := NewExecutor(p, 1).Plan("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTaskNotFound))

	register(p, "broken", func(t *Task) { t.DependsOn("missing") })
	_, err = NewExecutor(p, 1).Plan("broken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTaskNotFound))
}

func TestResolveAcrossProjects(t *testing.T) {
	root := newTestProject()
	lib := root.AddSubproject("lib", "/work/widgets/lib")
	app := root.AddSubproject("app", "/work/widgets/app")
	register(lib, "apiCheck", nil)
	register(app, "apiCheck", nil)

	e := NewExecutor(lib, 1)
	paths, err := e.Resolve("apiCheck")
	require.NoError(t, err)
	assert.Equal(t, []string{":lib:apiCheck", ":app:apiCheck"}, paths)

	paths, err = e.Resolve(":app:apiCheck")
	require.NoError(t, err)
	assert.Equal(t, []string{":app:apiCheck"}, paths)

	// root-level lifecycle task by absolute path
	paths, err = e.Resolve(":check")
	require.NoError(t, err)
	assert.Equal(t, []string{":check"}, paths)

	_, err = e.Resolve(":app:nope")
	assert.Error(t, err)
}

func TestRunStates(t *testing.T) {
	p := newTestProject()
	rec := &recorder{}
	register(p, "link", func(t *Task) { t.DoLast(rec.action()) })
	register(p, "collect", func(t *Task) {
		t.DependsOn("link")
		t.DoLast(func(context.Context, *Task) error { return Skip("no declarations") })
		t.DoLast(rec.action())
	})
	register(p, "off", func(t *Task) {
		t.Enabled = false
		t.DoLast(rec.action())
	})
	register(p, "after", func(t *Task) {
		t.DependsOn("collect", "off")
		t.DoLast(rec.action())
	})

	result, err := NewExecutor(p, 4).Run(context.Background(), "after")
	require.NoError(t, err)
	assert.NotEmpty(t, result.InvocationID)

	assert.Equal(t, map[string]TaskState{
		":link":    StateSuccess,
		":collect": StateSkipped,
		":off":     StateDisabled,
		":after":   StateSuccess,
	}, result.States)
	// skipped and disabled tasks did not run their later actions
	assert.Equal(t, []string{":link", ":after"}, rec.order())
}

func TestRunFailurePropagates(t *testing.T) {
	p := newTestProject()
	rec := &recorder{}
	cause := errors.Mark(errors.New("API check failed for project :"), errors.ErrSnapshotMismatch)
	register(p, "check1", func(t *Task) {
		t.DoLast(func(context.Context, *Task) error { return cause })
	})
	register(p, "dependent", func(t *Task) {
		t.DependsOn("check1")
		t.DoLast(rec.action())
	})

	result, err := NewExecutor(p, 2).Run(context.Background(), "dependent")
	require.Error(t, err)
	assert.True(t, errors.IsBuildFailure(err))
	assert.True(t, errors.Is(err, errors.ErrSnapshotMismatch))

	var failure *errors.BuildFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, ":check1", failure.Task)

	assert.Equal(t, StateFailed, result.States[":check1"])
	assert.Equal(t, StateNotRun, result.States[":dependent"])
	assert.Empty(t, rec.order())
	assert.True(t, result.Failed())
}

func TestRunContinueRunsIndependentTasks(t *testing.T) {
	p := newTestProject()
	rec := &recorder{}
	register(p, "bad", func(t *Task) {
		t.DoLast(func(context.Context, *Task) error { return errors.New("boom") })
	})
	register(p, "good", func(t *Task) { t.DoLast(rec.action()) })

	e := NewExecutor(p, 1)
	e.Continue = true
	result, err := e.Run(context.Background(), "bad", "good")
	require.Error(t, err)
	assert.Equal(t, StateSuccess, result.States[":good"])
	assert.Equal(t, []string{":good"}, rec.order())
}

func TestRunRecoversPanics(t *testing.T) {
	p := newTestProject()
	register(p, "explode", func(t *Task) {
		t.DoLast(func(context.Context, *Task) error { panic("nil destination") })
	})

	result, err := NewExecutor(p, 1).Run(context.Background(), "explode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, StateFailed, result.States[":explode"])
}

func TestRunFinalizerAfterFailure(t *testing.T) {
	p := newTestProject()
	rec := &recorder{}
	register(p, "report", func(t *Task) { t.DoLast(rec.action()) })
	register(p, "work", func(t *Task) {
		t.FinalizedBy("report")
		t.DoLast(func(context.Context, *Task) error { return errors.New("boom") })
	})

	e := NewExecutor(p, 1)
	e.Continue = true
	result, err := e.Run(context.Background(), "work")
	require.Error(t, err)
	assert.Equal(t, StateSuccess, result.States[":report"])
}

func TestRunFinalizerAfterFailureStopsBuild(t *testing.T) {
	p := newTestProject()
	rec := &recorder{}
	register(p, "report", func(t *Task) { t.DoLast(rec.action()) })
	register(p, "work", func(t *Task) {
		t.FinalizedBy("report")
		t.DoLast(func(context.Context, *Task) error { return errors.New("boom") })
	})
	register(p, "publish", func(t *Task) {
		t.DependsOn("work")
		t.DoLast(rec.action())
	})

	result, err := NewExecutor(p, 1).Run(context.Background(), "publish")
	require.Error(t, err)
	assert.True(t, errors.IsBuildFailure(err))
	assert.Equal(t, StateFailed, result.States[":work"])
	assert.Equal(t, StateSuccess, result.States[":report"])
	assert.Equal(t, StateNotRun, result.States[":publish"])
	assert.Equal(t, []string{":report"}, rec.order())
}

func TestRunFinalizerSkippedWhenTaskNeverRan(t *testing.T) {
	p := newTestProject()
	rec := &recorder{}
	register(p, "compile", func(t *Task) {
		t.DoLast(func(context.Context, *Task) error { return errors.New("boom") })
	})
	register(p, "report", func(t *Task) { t.DoLast(rec.action()) })
	register(p, "work", func(t *Task) {
		t.DependsOn("compile")
		t.FinalizedBy("report")
		t.DoLast(rec.action())
	})

	result, err := NewExecutor(p, 2).Run(context.Background(), "work")
	require.Error(t, err)
	assert.Equal(t, StateNotRun, result.States[":work"])
	assert.Equal(t, StateNotRun, result.States[":report"])
	assert.Empty(t, rec.order())
}

func TestRunManyWorkersRespectsEdges(t *testing.T) {
	p := newTestProject()
	rec := &recorder{}
	register(p, "base", func(t *Task) { t.DoLast(rec.action()) })
	names := []string{"t1", "t2", "t3", "t4", "t5", "t6"}
	for _, name := range names {
		register(p, name, func(t *Task) {
			t.DependsOn("base")
			t.DoLast(rec.action())
		})
	}
	register(p, "all", func(t *Task) {
		t.DependsOn(names...)
		t.DoLast(rec.action())
	})

	result, err := NewExecutor(p, 3).Run(context.Background(), "all")
	require.NoError(t, err)

	order := rec.order()
	require.Len(t, order, 8)
	assert.Equal(t, ":base", order[0])
	assert.Equal(t, ":all", order[7])
	for _, state := range result.States {
		assert.Equal(t, StateSuccess, state)
	}
}

func TestCleanLifecycleTask(t *testing.T) {
	p := newTestProject()
	require.NoError(t, p.Fs.MkdirAll(p.BuildFile("api"), 0755))

	_, err := NewExecutor(p, 1).Run(context.Background(), "clean")
	require.NoError(t, err)

	exists, err := afero.DirExists(p.Fs, p.BuildDir)
	require.NoError(t, err)
	assert.False(t, exists)
}
