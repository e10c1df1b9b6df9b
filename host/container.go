package host

import (
	"sort"

	"github.com/teranos/tsapi/errors"
)

// TaskProvider is a lazily configured task. Configuration runs when the
// task is first realized (Get), or immediately if it already was.
type TaskProvider struct {
	name      string
	container *TaskContainer
	configs   []func(*Task)
	task      *Task
}

// Name returns the task name without realizing the task
func (p *TaskProvider) Name() string {
	return p.name
}

// Configure adds a configuration action
func (p *TaskProvider) Configure(fn func(*Task)) {
	if fn == nil {
		return
	}
	if p.task != nil {
		fn(p.task)
		return
	}
	p.configs = append(p.configs, fn)
}

// Realized reports whether the task object has been created
func (p *TaskProvider) Realized() bool {
	return p.task != nil
}

// Get realizes and returns the task
func (p *TaskProvider) Get() *Task {
	if p.task != nil {
		return p.task
	}
	t := &Task{Name: p.name, Project: p.container.project, Enabled: true}
	p.task = t

	configs := p.configs
	p.configs = nil
	for _, fn := range configs {
		fn(t)
	}
	for _, fn := range p.container.each {
		fn(t)
	}
	return t
}

// TaskContainer holds the tasks of one project. It is used single-threaded
// during configuration; the executor realizes every task it schedules
// before any action runs.
type TaskContainer struct {
	project   *Project
	providers map[string]*TaskProvider
	each      []func(*Task)
}

func newTaskContainer(p *Project) *TaskContainer {
	return &TaskContainer{
		project:   p,
		providers: make(map[string]*TaskProvider),
	}
}

// Register adds a new lazily configured task
func (c *TaskContainer) Register(name string, configure func(*Task)) (*TaskProvider, error) {
	if name == "" {
		return nil, errors.New("task name cannot be empty")
	}
	if _, exists := c.providers[name]; exists {
		return nil, errors.Mark(errors.Newf("task '%s' already exists in project %s", name, c.project.Path), errors.ErrTaskExists)
	}
	p := &TaskProvider{name: name, container: c}
	p.Configure(configure)
	c.providers[name] = p
	return p, nil
}

// MaybeRegister returns the existing task of that name, or registers it
func (c *TaskContainer) MaybeRegister(name string, configure func(*Task)) *TaskProvider {
	if p, ok := c.providers[name]; ok {
		p.Configure(configure)
		return p
	}
	p, _ := c.Register(name, configure)
	return p
}

// Named looks up a registered task
func (c *TaskContainer) Named(name string) (*TaskProvider, error) {
	p, ok := c.providers[name]
	if !ok {
		return nil, errors.Mark(errors.Newf("task '%s' not found in project %s", name, c.project.Path), errors.ErrTaskNotFound)
	}
	return p, nil
}

// Has reports whether a task is registered, without realizing it
func (c *TaskContainer) Has(name string) bool {
	_, ok := c.providers[name]
	return ok
}

// Names returns the registered task names, sorted
func (c *TaskContainer) Names() []string {
	names := make([]string, 0, len(c.providers))
	for name := range c.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConfigureEach applies fn to every task, now for realized ones and on
// realization for the rest
func (c *TaskContainer) ConfigureEach(fn func(*Task)) {
	c.each = append(c.each, fn)
	for _, p := range c.providers {
		if p.Realized() {
			fn(p.task)
		}
	}
}

// NamedMatching applies fn to the tasks whose name satisfies pred, without
// realizing the others
func (c *TaskContainer) NamedMatching(pred func(name string) bool, fn func(*TaskProvider)) {
	for _, name := range c.Names() {
		if pred(name) {
			fn(c.providers[name])
		}
	}
}

// Matching realizes every task and returns those accepted by pred, in name order
func (c *TaskContainer) Matching(pred func(*Task) bool) []*Task {
	var out []*Task
	for _, name := range c.Names() {
		t := c.providers[name].Get()
		if pred == nil || pred(t) {
			out = append(out, t)
		}
	}
	return out
}
