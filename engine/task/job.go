package task

import "fmt"

// SourceModel is the computation of a root job. It fills out from the scene and render contexts.
type SourceModel[O any] interface {
	Run(sc *SceneContext, rc *RenderContext, out *O)
}

// JobModel is the computation of a job that consumes the output of its predecessor.
// out is the job's own slot from the previous frame; models reset it before filling it.
type JobModel[I, O any] interface {
	Run(sc *SceneContext, rc *RenderContext, in I, out *O)
}

// Varying is a typed handle to a job's output slot. The zero Varying refers to no job.
type Varying[T any] struct {
	task *Task
	slot *T
}

// Get returns the value currently held in the slot.
func (v Varying[T]) Get() T {
	if v.slot == nil {
		var zero T
		return zero
	}
	return *v.slot
}

// Valid reports whether the handle refers to a job.
func (v Varying[T]) Valid() bool {
	return v.slot != nil
}

type sourceJob[O any] struct {
	name  string
	model SourceModel[O]
	out   *O
}

func (j *sourceJob[O]) jobName() string { return j.name }

func (j *sourceJob[O]) run(sc *SceneContext, rc *RenderContext) {
	j.model.Run(sc, rc, j.out)
}

type job[I, O any] struct {
	name  string
	model JobModel[I, O]
	in    *I
	out   *O
}

func (j *job[I, O]) jobName() string { return j.name }

func (j *job[I, O]) run(sc *SceneContext, rc *RenderContext) {
	j.model.Run(sc, rc, *j.in, j.out)
}

// AddRootJob appends a job with no predecessor to t.
//
// Parameters:
//   - t: the task to extend
//   - name: the job name, used in diagnostics
//   - model: the job's computation
//
// Returns:
//   - Varying[O]: the handle to the job's output
func AddRootJob[O any](t *Task, name string, model SourceModel[O]) Varying[O] {
	if model == nil {
		panic(fmt.Sprintf("task: %s: job %s requires a model", t.name, name))
	}
	j := &sourceJob[O]{name: name, model: model, out: new(O)}
	t.jobs = append(t.jobs, j)
	return Varying[O]{task: t, slot: j.out}
}

// AddJob appends a job reading the output of a prior job of the same task. It panics when
// in is the zero Varying or belongs to a different task.
//
// Parameters:
//   - t: the task to extend
//   - name: the job name, used in diagnostics
//   - in: the predecessor's output handle
//   - model: the job's computation
//
// Returns:
//   - Varying[O]: the handle to the job's output
func AddJob[I, O any](t *Task, name string, in Varying[I], model JobModel[I, O]) Varying[O] {
	switch {
	case !in.Valid():
		panic(fmt.Sprintf("task: %s: job %s has no input", t.name, name))
	case in.task != t:
		panic(fmt.Sprintf("task: %s: job %s reads an output of task %s", t.name, name, in.task.name))
	case model == nil:
		panic(fmt.Sprintf("task: %s: job %s requires a model", t.name, name))
	}
	j := &job[I, O]{name: name, model: model, in: in.slot, out: new(O)}
	t.jobs = append(t.jobs, j)
	return Varying[O]{task: t, slot: j.out}
}
