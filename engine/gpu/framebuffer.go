package gpu

import "fmt"

// Framebuffer is a render target with a fixed size.
type Framebuffer interface {
	// Width returns the width in pixels.
	Width() int
	// Height returns the height in pixels.
	Height() int
	// Label returns a name used in diagnostics.
	Label() string
}

// framebuffer is a size-only target used by headless devices.
type framebuffer struct {
	label         string
	width, height int
}

var _ Framebuffer = &framebuffer{}

// NewFramebuffer creates a size-only framebuffer. It panics when either dimension is not positive.
//
// Parameters:
//   - label: the diagnostic name
//   - width: width in pixels
//   - height: height in pixels
//
// Returns:
//   - Framebuffer: the framebuffer
func NewFramebuffer(label string, width, height int) Framebuffer {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("gpu: framebuffer %s has invalid size %dx%d", label, width, height))
	}
	return &framebuffer{label: label, width: width, height: height}
}

func (f *framebuffer) Width() int    { return f.width }
func (f *framebuffer) Height() int   { return f.height }
func (f *framebuffer) Label() string { return f.label }

// FullRect returns the rectangle covering the whole framebuffer.
func FullRect(fb Framebuffer) Rect {
	return Rect{Width: fb.Width(), Height: fb.Height()}
}
