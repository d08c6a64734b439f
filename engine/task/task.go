package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobObserver is called after every job of a task with the time the job took. task is the
// task's String form, so two tasks sharing a name are reported apart.
type JobObserver func(task, job string, elapsed time.Duration)

// runner is the type-erased form of a job held by a Task.
type runner interface {
	jobName() string
	run(sc *SceneContext, rc *RenderContext)
}

// Task is an ordered chain of jobs built once and run once per frame. Jobs are added with
// AddRootJob and AddJob; each returns a typed handle to the job's output which is passed as
// the input of the next job.
//
// A Task keeps one output slot per job and reuses it every frame. Run is not safe for
// concurrent use against the same Task.
type Task struct {
	id       uuid.UUID
	name     string
	label    string
	jobs     []runner
	observer JobObserver
}

// NewTask creates an empty task.
//
// Parameters:
//   - name: the task name, used in diagnostics
//   - opts: a variadic list of TaskBuilderOption functions
//
// Returns:
//   - *Task: the task
func NewTask(name string, opts ...TaskBuilderOption) *Task {
	t := &Task{
		id:   uuid.New(),
		name: name,
	}
	t.label = fmt.Sprintf("%s(%s)", name, t.id.String()[:8])
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID returns the unique instance identifier of the task.
func (t *Task) ID() uuid.UUID {
	return t.id
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

// String returns the task name and a short form of its ID.
func (t *Task) String() string {
	return t.label
}

// Jobs returns the job names in execution order.
func (t *Task) Jobs() []string {
	names := make([]string, len(t.jobs))
	for i, j := range t.jobs {
		names[i] = j.jobName()
	}
	return names
}

// Len returns the number of jobs.
func (t *Task) Len() int {
	return len(t.jobs)
}

// Ready reports whether sc and rc satisfy the preconditions for running any job: an active
// scene must be present and render arguments must be set.
func Ready(sc *SceneContext, rc *RenderContext) bool {
	return sc != nil && sc.Scene != nil && sc.Scene.Active() && rc != nil && rc.Args != nil
}

// Run executes every job in declaration order, each reading its predecessor's output.
// When the preconditions of Ready do not hold no job runs and nothing is modified.
//
// Parameters:
//   - sc: the scene context
//   - rc: the render context
func (t *Task) Run(sc *SceneContext, rc *RenderContext) {
	if !Ready(sc, rc) {
		return
	}
	if t.observer == nil {
		for _, j := range t.jobs {
			j.run(sc, rc)
		}
		return
	}
	for _, j := range t.jobs {
		start := time.Now()
		j.run(sc, rc)
		t.observer(t.label, j.jobName(), time.Since(start))
	}
}
