package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the frame step.
const (
	PhaseDrain     = "drain"
	PhasePhysics   = "physics"
	PhaseUpdate    = "update"
	PhaseGrid      = "grid"
	PhaseCull      = "cull"
	PhaseClassify  = "classify"
	PhaseRotate    = "rotate"
	PhaseTelemetry = "telemetry"
)

// PerfSample holds timing data for a single frame step.
type PerfSample struct {
	StepDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	stepStart     time.Time
	phaseStart    time.Time
	lastPhase     string

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of steps to average over (e.g., 60 for 1 second at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartStep begins timing a new simulation step.
func (p *PerfCollector) StartStep() {
	p.stepStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndStep finishes timing the current step and records the sample.
func (p *PerfCollector) EndStep() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := PerfSample{
		StepDuration: now.Sub(p.stepStart),
		Phases:       p.currentPhases,
	}

	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgStepDuration time.Duration
	MinStepDuration time.Duration
	MaxStepDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total step time
	PhasePct map[string]float64

	StepsPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:      make(map[string]time.Duration),
			PhasePct:      make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	var totalStep time.Duration
	var minStep, maxStep time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalStep += s.StepDuration

		if i == 0 || s.StepDuration < minStep {
			minStep = s.StepDuration
		}
		if s.StepDuration > maxStep {
			maxStep = s.StepDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avgStep := totalStep / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avgStep > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avgStep) * 100
		}
	}

	var stepsPerSec float64
	if avgStep > 0 {
		stepsPerSec = float64(time.Second) / float64(avgStep)
	}

	return PerfStats{
		AvgStepDuration: avgStep,
		MinStepDuration: minStep,
		MaxStepDuration: maxStep,
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		StepsPerSecond:  stepsPerSec,
		FrameDuration:   p.frameDuration,
		FPS:             fps,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_step_us", s.AvgStepDuration.Microseconds(),
		"min_step_us", s.MinStepDuration.Microseconds(),
		"max_step_us", s.MaxStepDuration.Microseconds(),
		"steps_per_sec", int(s.StepsPerSecond),
	}
	for phase, pct := range s.PhasePct {
		attrs = append(attrs, "pct_"+phase, int(pct))
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is the flat CSV projection of PerfStats.
type PerfStatsCSV struct {
	WindowEnd   int64   `csv:"window_end"`
	AvgStepUs   int64   `csv:"avg_step_us"`
	MinStepUs   int64   `csv:"min_step_us"`
	MaxStepUs   int64   `csv:"max_step_us"`
	StepsPerSec float64 `csv:"steps_per_sec"`
	FPS         float64 `csv:"fps"`

	DrainPct    float64 `csv:"drain_pct"`
	PhysicsPct  float64 `csv:"physics_pct"`
	UpdatePct   float64 `csv:"update_pct"`
	GridPct     float64 `csv:"grid_pct"`
	CullPct     float64 `csv:"cull_pct"`
	ClassifyPct float64 `csv:"classify_pct"`
	RotatePct   float64 `csv:"rotate_pct"`
}

// ToCSV converts stats into the flat CSV record.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:   windowEnd,
		AvgStepUs:   s.AvgStepDuration.Microseconds(),
		MinStepUs:   s.MinStepDuration.Microseconds(),
		MaxStepUs:   s.MaxStepDuration.Microseconds(),
		StepsPerSec: s.StepsPerSecond,
		FPS:         s.FPS,
		DrainPct:    s.PhasePct[PhaseDrain],
		PhysicsPct:  s.PhasePct[PhasePhysics],
		UpdatePct:   s.PhasePct[PhaseUpdate],
		GridPct:     s.PhasePct[PhaseGrid],
		CullPct:     s.PhasePct[PhaseCull],
		ClassifyPct: s.PhasePct[PhaseClassify],
		RotatePct:   s.PhasePct[PhaseRotate],
	}
}
