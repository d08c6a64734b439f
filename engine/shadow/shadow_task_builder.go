package shadow

import "github.com/Carmen-Shannon/oxy-shadow/engine/task"

// TaskBuilderOption is a functional option for configuring a shadow Task.
type TaskBuilderOption func(*Task)

// WithName sets the task name used in diagnostics and profiler output.
func WithName(name string) TaskBuilderOption {
	return func(t *Task) {
		t.name = name
	}
}

// WithNearOffset sets the offset added to the camera near distance for the near bound of
// the shadowed view slice.
//
// Parameters:
//   - offset: the near offset, DefaultNearOffset when unset
//
// Returns:
//   - TaskBuilderOption: option function to apply
func WithNearOffset(offset float32) TaskBuilderOption {
	return func(t *Task) {
		t.nearOffset = offset
	}
}

// WithFarOffset sets the offset added to the camera near distance for the far bound of
// the shadowed view slice.
//
// Parameters:
//   - offset: the far offset, DefaultFarOffset when unset
//
// Returns:
//   - TaskBuilderOption: option function to apply
func WithFarOffset(offset float32) TaskBuilderOption {
	return func(t *Task) {
		t.farOffset = offset
	}
}

// WithDepthBias sets the rasterizer depth bias of both shadow pipelines.
func WithDepthBias(bias int32, slopeScale float32) TaskBuilderOption {
	return func(t *Task) {
		t.depthBias = bias
		t.depthBiasSlope = slopeScale
	}
}

// WithJobObserver reports the duration of every job after it runs.
func WithJobObserver(observer task.JobObserver) TaskBuilderOption {
	return func(t *Task) {
		t.observer = observer
	}
}
