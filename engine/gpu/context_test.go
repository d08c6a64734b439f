package gpu

import (
	"errors"
	"sync"
	"testing"
)

type failingDevice struct{ err error }

func (d failingDevice) Submit(string, *CommandList) error { return d.err }

func TestDoInBatchSubmitsRecordedCommands(t *testing.T) {
	dev := NewRecordingDevice()
	ctx := NewContext(dev)

	err := ctx.DoInBatch("shadow", func(b Batch) {
		b.SetFramebuffer(NewFramebuffer("fb", 4, 4))
		b.Draw(DrawCall{Item: 1})
		b.Draw(DrawCall{Item: 2})
	})
	if err != nil {
		t.Fatalf("DoInBatch() error = %v", err)
	}

	last, name := dev.Last()
	if name != "shadow" {
		t.Errorf("name = %q, want %q", name, "shadow")
	}
	if got := last.DrawCount(); got != 2 {
		t.Errorf("DrawCount() = %d, want 2", got)
	}
	if dev.Submissions() != 1 {
		t.Errorf("Submissions() = %d, want 1", dev.Submissions())
	}
}

func TestDoInBatchStartsEmpty(t *testing.T) {
	dev := NewRecordingDevice()
	ctx := NewContext(dev)

	for i := 0; i < 3; i++ {
		if err := ctx.DoInBatch("frame", func(b Batch) { b.Draw(DrawCall{}) }); err != nil {
			t.Fatal(err)
		}
		last, _ := dev.Last()
		if last.Len() != 1 {
			t.Fatalf("frame %d: Len() = %d, want 1", i, last.Len())
		}
	}
	if got := dev.TotalDraws(); got != 3 {
		t.Errorf("TotalDraws() = %d, want 3", got)
	}
}

func TestDoInBatchWrapsDeviceError(t *testing.T) {
	sentinel := errors.New("device lost")
	ctx := NewContext(failingDevice{err: sentinel})

	err := ctx.DoInBatch("shadow", func(Batch) {})
	if !errors.Is(err, sentinel) {
		t.Errorf("DoInBatch() error = %v, want wrapping %v", err, sentinel)
	}
}

func TestDoInBatchConcurrent(t *testing.T) {
	dev := NewRecordingDevice()
	ctx := NewContext(dev)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = ctx.DoInBatch("worker", func(b Batch) {
					b.Draw(DrawCall{})
					b.Draw(DrawCall{})
				})
			}
		}()
	}
	wg.Wait()

	if got := dev.Submissions(); got != 400 {
		t.Errorf("Submissions() = %d, want 400", got)
	}
	if got := dev.TotalDraws(); got != 800 {
		t.Errorf("TotalDraws() = %d, want 800", got)
	}
}

func TestRecordingDeviceRejectsNil(t *testing.T) {
	if err := NewRecordingDevice().Submit("x", nil); !errors.Is(err, ErrNilCommandList) {
		t.Errorf("Submit(nil) error = %v, want ErrNilCommandList", err)
	}
}

func TestNewContextPanicsWithoutDevice(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewContext(nil) did not panic")
		}
	}()
	NewContext(nil)
}
