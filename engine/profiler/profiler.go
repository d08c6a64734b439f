package profiler

import (
	"cmp"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-shadow/internal/logging"
)

// JobStat aggregates the timings of one job between two reports.
type JobStat struct {
	Task  string
	Job   string
	Count int
	Total time.Duration
	Max   time.Duration
}

// Mean returns the average job duration.
func (s JobStat) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

type jobKey struct {
	task, job string
}

// Profiler tracks frame rate, memory statistics and job timings for performance monitoring.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	mu   sync.Mutex
	jobs map[jobKey]*JobStat
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		jobs:           make(map[jobKey]*JobStat),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// ObserveJob records one run of a job. Its signature matches task.JobObserver, so a
// profiler can be handed to a task with WithJobObserver(p.ObserveJob). Safe for concurrent use.
//
// Parameters:
//   - taskName: the task the job belongs to
//   - job: the job name
//   - elapsed: how long the job ran
func (p *Profiler) ObserveJob(taskName, job string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := jobKey{task: taskName, job: job}
	s, ok := p.jobs[k]
	if !ok {
		s = &JobStat{Task: taskName, Job: job}
		p.jobs[k] = s
	}
	s.Count++
	s.Total += elapsed
	s.Max = max(s.Max, elapsed)
}

// JobStats returns the job timings gathered since the last report, ordered by task then job.
func (p *Profiler) JobStats() []JobStat {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]JobStat, 0, len(p.jobs))
	for _, s := range p.jobs {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b JobStat) int {
		return cmp.Or(strings.Compare(a.Task, b.Task), strings.Compare(a.Job, b.Job))
	})
	return out
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory,
// and the mean and worst time of every observed job. Job timings are reset after each report.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}
	seconds := max(elapsed.Seconds(), 1e-9)
	fps := float64(p.frameCount) / seconds

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap. TotalAlloc: cumulative, tracks churn. Sys: process footprint.
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / seconds

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	logger := logging.Logger()
	logger.Info("profiler: frame stats",
		"fps", fps,
		"heapMB", allocMB,
		"allocRateMBs", allocRateMB,
		"gc", gcCount,
		"lastPauseUs", lastPauseUs,
		"maxPauseUs", maxPauseUs,
		"sysMB", sysMB,
	)
	for _, s := range p.JobStats() {
		logger.Info("profiler: job stats",
			"task", s.Task,
			"job", s.Job,
			"runs", s.Count,
			"mean", s.Mean(),
			"max", s.Max,
		)
	}

	p.mu.Lock()
	clear(p.jobs)
	p.mu.Unlock()

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
