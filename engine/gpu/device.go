package gpu

import (
	"errors"
	"sync"
)

// ErrNilCommandList is returned when a device is asked to submit a nil list.
var ErrNilCommandList = errors.New("gpu: nil command list")

// Device executes recorded command lists.
type Device interface {
	// Submit executes list. The device must not retain list after Submit returns.
	//
	// Parameters:
	//   - name: the batch name, used in diagnostics
	//   - list: the recorded commands
	//
	// Returns:
	//   - error: when the device fails to execute the list
	Submit(name string, list *CommandList) error
}

// RecordingDevice is a headless Device that keeps a copy of the most recent submission.
// It is safe for concurrent use.
type RecordingDevice struct {
	mu          sync.Mutex
	last        CommandList
	lastName    string
	submissions int
	draws       int
}

var _ Device = &RecordingDevice{}

// NewRecordingDevice creates an empty RecordingDevice.
func NewRecordingDevice() *RecordingDevice {
	return &RecordingDevice{}
}

func (d *RecordingDevice) Submit(name string, list *CommandList) error {
	if list == nil {
		return ErrNilCommandList
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last.CopyFrom(list)
	d.lastName = name
	d.submissions++
	d.draws += list.DrawCount()
	return nil
}

// Last returns a copy of the most recently submitted list and the name it was submitted under.
func (d *RecordingDevice) Last() (*CommandList, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := &CommandList{}
	out.CopyFrom(&d.last)
	return out, d.lastName
}

// Submissions returns the number of lists submitted so far.
func (d *RecordingDevice) Submissions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submissions
}

// TotalDraws returns the number of draws across all submissions.
func (d *RecordingDevice) TotalDraws() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draws
}
