package gpu

import (
	"fmt"
	"sync"
)

// Context hands out batches and submits them to its device.
type Context interface {
	// DoInBatch records fn into a fresh batch and submits it when fn returns.
	// The batch must not be used after fn returns.
	//
	// Parameters:
	//   - name: the batch name, used in diagnostics
	//   - fn: records commands into the batch
	//
	// Returns:
	//   - error: the wrapped device error, if submission failed
	DoInBatch(name string, fn func(b Batch)) error

	// Device returns the device batches are submitted to.
	Device() Device
}

type context struct {
	device Device
	lists  sync.Pool
}

var _ Context = &context{}

// NewContext creates a Context submitting to device. It panics when device is nil.
// Command lists are pooled so steady-state recording does not allocate, and
// concurrent DoInBatch calls each get their own list.
func NewContext(device Device) Context {
	if device == nil {
		panic("gpu: NewContext requires a device")
	}
	c := &context{device: device}
	c.lists.New = func() any {
		return NewCommandList(64)
	}
	return c
}

func (c *context) Device() Device {
	return c.device
}

func (c *context) DoInBatch(name string, fn func(b Batch)) error {
	list := c.lists.Get().(*CommandList)
	defer func() {
		list.Reset()
		c.lists.Put(list)
	}()

	fn(list)
	if err := c.device.Submit(name, list); err != nil {
		return fmt.Errorf("gpu: batch %s: %w", name, err)
	}
	return nil
}
