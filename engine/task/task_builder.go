package task

// TaskBuilderOption configures a Task during construction.
type TaskBuilderOption func(*Task)

// WithJobObserver installs a callback invoked after each job with its duration.
// Without an observer jobs are not timed.
func WithJobObserver(observer JobObserver) TaskBuilderOption {
	return func(t *Task) {
		t.observer = observer
	}
}
