package shape

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/shader"
)

var (
	// ErrNoPipeline is returned by PickPipeline when no registered filter matches a key.
	ErrNoPipeline = errors.New("shape: no pipeline for key")

	// ErrPlumberFrozen is returned when registering a pipeline after Freeze.
	ErrPlumberFrozen = errors.New("shape: plumber is frozen")
)

// plumberEntry is one registered filter and the pipeline it selects.
type plumberEntry struct {
	filter   Filter
	pipeline pipeline.Pipeline
}

// pick is a memoized PickPipeline answer. Misses are memoized with their error.
type pick struct {
	pipeline pipeline.Pipeline
	err      error
}

// plumber is the implementation of the Plumber interface.
type plumber struct {
	label string

	mu      sync.Mutex
	entries []plumberEntry
	frozen  atomic.Bool

	// picks maps Key to pick. Entries are stored only while holding mu.
	picks sync.Map
}

// Plumber maps shape keys to pipelines. Pipelines are registered against filters in order; the
// first registered filter matching a key selects its pipeline. Answers are memoized per key, so a
// key resolves to the same pipeline (or the same miss) for the lifetime of the plumber once it
// is frozen. Lookups are safe from many goroutines.
type Plumber interface {
	// AddPipeline builds a pipeline from a program and fixed-function options and registers it.
	//
	// Parameters:
	//   - filter: the keys the pipeline serves
	//   - program: the shader program
	//   - opts: fixed-function state for the pipeline
	//
	// Returns:
	//   - pipeline.Pipeline: the registered pipeline
	//   - error: ErrPlumberFrozen after Freeze
	AddPipeline(filter Filter, program shader.Program, opts ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error)

	// AddPipelineObject registers a prebuilt pipeline.
	//
	// Parameters:
	//   - filter: the keys the pipeline serves
	//   - p: the pipeline
	//
	// Returns:
	//   - error: ErrPlumberFrozen after Freeze
	AddPipelineObject(filter Filter, p pipeline.Pipeline) error

	// PickPipeline returns the pipeline of the first registered filter matching key.
	//
	// Parameters:
	//   - key: the shape key
	//
	// Returns:
	//   - pipeline.Pipeline: the selected pipeline, or nil on a miss
	//   - error: ErrNoPipeline wrapped with the key on a miss
	PickPipeline(key Key) (pipeline.Pipeline, error)

	// Warm resolves and memoizes the given keys ahead of the first frame.
	//
	// Parameters:
	//   - keys: the keys to resolve
	Warm(keys ...Key)

	// Freeze forbids further registration.
	Freeze()

	// Frozen reports whether Freeze has been called.
	//
	// Returns:
	//   - bool: true once frozen
	Frozen() bool

	// Len returns the number of registered pipelines.
	//
	// Returns:
	//   - int: the registration count
	Len() int
}

var _ Plumber = &plumber{}

// NewPlumber creates an empty Plumber.
//
// Parameters:
//   - opts: a variadic list of PlumberBuilderOption functions
//
// Returns:
//   - Plumber: the plumber
func NewPlumber(opts ...PlumberBuilderOption) Plumber {
	p := &plumber{
		label: "plumber",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *plumber) AddPipeline(filter Filter, program shader.Program, opts ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error) {
	if p.frozen.Load() {
		return nil, fmt.Errorf("%w: %s: cannot add %s", ErrPlumberFrozen, p.label, filter)
	}
	pl := pipeline.NewPipeline(fmt.Sprintf("%s[%s]", p.label, filter), program, opts...)
	if err := p.AddPipelineObject(filter, pl); err != nil {
		return nil, err
	}
	return pl, nil
}

func (p *plumber) AddPipelineObject(filter Filter, pl pipeline.Pipeline) error {
	if pl == nil {
		panic("shape: AddPipelineObject requires a pipeline")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen.Load() {
		return fmt.Errorf("%w: %s: cannot add %s", ErrPlumberFrozen, p.label, filter)
	}
	p.entries = append(p.entries, plumberEntry{filter: filter, pipeline: pl})
	p.picks.Clear()
	return nil
}

func (p *plumber) PickPipeline(key Key) (pipeline.Pipeline, error) {
	if v, ok := p.picks.Load(key); ok {
		r := v.(pick)
		return r.pipeline, r.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.picks.Load(key); ok {
		r := v.(pick)
		return r.pipeline, r.err
	}
	r := p.resolve(key)
	p.picks.Store(key, r)
	return r.pipeline, r.err
}

// resolve walks the filters in registration order. The caller holds mu.
func (p *plumber) resolve(key Key) pick {
	for _, e := range p.entries {
		if e.filter.Matches(key) {
			return pick{pipeline: e.pipeline}
		}
	}
	return pick{err: fmt.Errorf("%w: %s: %s", ErrNoPipeline, p.label, key)}
}

func (p *plumber) Warm(keys ...Key) {
	for _, k := range keys {
		_, _ = p.PickPipeline(k)
	}
}

func (p *plumber) Freeze() {
	p.frozen.Store(true)
}

func (p *plumber) Frozen() bool {
	return p.frozen.Load()
}

func (p *plumber) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
