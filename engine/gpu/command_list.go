package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pipeline"
)

// CommandKind identifies a recorded command.
type CommandKind int

const (
	CommandSetViewport CommandKind = iota
	CommandSetScissor
	CommandSetFramebuffer
	CommandClear
	CommandSetProjection
	CommandSetView
	CommandSetPipeline
	CommandDraw
)

var commandNames = [...]string{
	CommandSetViewport:    "SetViewport",
	CommandSetScissor:     "SetScissor",
	CommandSetFramebuffer: "SetFramebuffer",
	CommandClear:          "Clear",
	CommandSetProjection:  "SetProjection",
	CommandSetView:        "SetView",
	CommandSetPipeline:    "SetPipeline",
	CommandDraw:           "Draw",
}

// String returns the command name.
func (k CommandKind) String() string {
	if k >= 0 && int(k) < len(commandNames) {
		return commandNames[k]
	}
	return fmt.Sprintf("CommandKind(%d)", int(k))
}

// Command is one recorded batch command. Only the fields relevant to Kind are set.
type Command struct {
	Kind        CommandKind
	Rect        Rect
	Framebuffer Framebuffer
	ClearMask   ClearMask
	ClearColor  [4]float32
	ClearDepth  float32
	ClearValue  int32
	Matrix      [16]float32
	Pipeline    pipeline.Pipeline
	Draw        DrawCall
}

// CommandList is an in-memory Batch. Its command storage is kept across Reset so a list
// recorded every frame stops allocating once it has grown to the frame's size.
type CommandList struct {
	commands []Command
}

var _ Batch = &CommandList{}

// NewCommandList creates an empty list with room for capacity commands.
func NewCommandList(capacity int) *CommandList {
	return &CommandList{commands: make([]Command, 0, capacity)}
}

// Reset empties the list and keeps its storage.
func (l *CommandList) Reset() {
	clear(l.commands)
	l.commands = l.commands[:0]
}

// CopyFrom replaces the contents of l with those of other, reusing l's storage.
func (l *CommandList) CopyFrom(other *CommandList) {
	l.commands = append(l.commands[:0], other.commands...)
}

// Commands returns the recorded commands. The slice is only valid until the next Reset.
func (l *CommandList) Commands() []Command {
	return l.commands
}

// Len returns the number of recorded commands.
func (l *CommandList) Len() int {
	return len(l.commands)
}

// DrawCount returns the number of recorded draws.
func (l *CommandList) DrawCount() int {
	n := 0
	for i := range l.commands {
		if l.commands[i].Kind == CommandDraw {
			n++
		}
	}
	return n
}

// Draws returns the recorded draws in order, each paired with the pipeline bound when it was recorded.
func (l *CommandList) Draws() []BoundDraw {
	var (
		out   []BoundDraw
		bound pipeline.Pipeline
	)
	for i := range l.commands {
		switch c := &l.commands[i]; c.Kind {
		case CommandSetPipeline:
			bound = c.Pipeline
		case CommandDraw:
			out = append(out, BoundDraw{Pipeline: bound, Draw: c.Draw})
		}
	}
	return out
}

// BoundDraw is a draw together with the pipeline it was recorded under.
type BoundDraw struct {
	Pipeline pipeline.Pipeline
	Draw     DrawCall
}

// Pipelines returns the pipelines bound by the list, in binding order.
func (l *CommandList) Pipelines() []pipeline.Pipeline {
	var out []pipeline.Pipeline
	for i := range l.commands {
		if l.commands[i].Kind == CommandSetPipeline {
			out = append(out, l.commands[i].Pipeline)
		}
	}
	return out
}

func (l *CommandList) SetViewport(r Rect) {
	l.commands = append(l.commands, Command{Kind: CommandSetViewport, Rect: r})
}

func (l *CommandList) SetScissor(r Rect) {
	l.commands = append(l.commands, Command{Kind: CommandSetScissor, Rect: r})
}

func (l *CommandList) SetFramebuffer(fb Framebuffer) {
	l.commands = append(l.commands, Command{Kind: CommandSetFramebuffer, Framebuffer: fb})
}

func (l *CommandList) ClearFramebuffer(mask ClearMask, color [4]float32, depth float32, stencil int32) {
	l.commands = append(l.commands, Command{
		Kind:       CommandClear,
		ClearMask:  mask,
		ClearColor: color,
		ClearDepth: depth,
		ClearValue: stencil,
	})
}

func (l *CommandList) SetProjectionTransform(m []float32) {
	c := Command{Kind: CommandSetProjection}
	copy(c.Matrix[:], m)
	l.commands = append(l.commands, c)
}

func (l *CommandList) SetViewTransform(m []float32) {
	c := Command{Kind: CommandSetView}
	copy(c.Matrix[:], m)
	l.commands = append(l.commands, c)
}

func (l *CommandList) SetPipeline(p pipeline.Pipeline) {
	l.commands = append(l.commands, Command{Kind: CommandSetPipeline, Pipeline: p})
}

func (l *CommandList) Draw(dc DrawCall) {
	l.commands = append(l.commands, Command{Kind: CommandDraw, Draw: dc})
}
