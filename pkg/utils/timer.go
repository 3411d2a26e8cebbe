package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is a completed timing phase.
type Phase struct {
	Name     string
	Duration time.Duration
}

type phaseState struct {
	start    time.Time
	duration time.Duration
	done     bool
}

// PhaseTimer tracks a single phase of a Timer. It is meant to be
// stopped with defer.
type PhaseTimer struct {
	timer *Timer
	name  string
}

// Stop records the phase duration. Safe to call more than once; only
// the first call has effect.
func (pt *PhaseTimer) Stop() time.Duration {
	return pt.timer.stopPhase(pt.name)
}

// Timer measures named phases of an operation and reports them through
// a Logger.
type Timer struct {
	mu     sync.Mutex
	name   string
	start  time.Time
	order  []string
	phases map[string]*phaseState
	logger Logger
	clock  Clock
}

// TimerOption configures a Timer instance.
type TimerOption func(*Timer)

// WithLogger sets the logger used by PrintSummary.
func WithLogger(logger Logger) TimerOption {
	return func(t *Timer) {
		t.logger = logger
	}
}

// WithClock sets a custom clock, replacing the real one.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) {
		t.clock = clock
	}
}

// NewTimer creates a new Timer with the given name and options.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{
		name:   name,
		phases: make(map[string]*phaseState),
		clock:  NewRealClock(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.start = t.clock.Now()
	return t
}

// Start begins timing a new phase.
func (t *Timer) Start(phaseName string) *PhaseTimer {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.phases[phaseName]; !ok {
		t.order = append(t.order, phaseName)
	}
	t.phases[phaseName] = &phaseState{start: t.clock.Now()}

	return &PhaseTimer{timer: t, name: phaseName}
}

func (t *Timer) stopPhase(phaseName string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.phases[phaseName]
	if !ok {
		return 0
	}
	if !state.done {
		state.duration = t.clock.Now().Sub(state.start)
		state.done = true
	}
	return state.duration
}

// Elapsed returns the recorded duration of a completed phase.
func (t *Timer) Elapsed(phaseName string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if state, ok := t.phases[phaseName]; ok {
		return state.duration
	}
	return 0
}

// Phases returns the completed phases in start order.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()

	phases := make([]Phase, 0, len(t.order))
	for _, name := range t.order {
		if state := t.phases[name]; state.done {
			phases = append(phases, Phase{Name: name, Duration: state.duration})
		}
	}
	return phases
}

// Summary returns a formatted summary of all completed phases.
func (t *Timer) Summary() string {
	total := t.clock.Since(t.start)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== %s Timing Summary ===\n", t.name))
	for i, phase := range t.Phases() {
		sb.WriteString(fmt.Sprintf("Phase %d - %s: %v\n", i+1, phase.Name, phase.Duration))
	}
	sb.WriteString(fmt.Sprintf("Total: %v\n", total))
	return sb.String()
}

// PrintSummary logs the timing summary through the configured logger.
// A Timer without a logger stays silent.
func (t *Timer) PrintSummary() {
	if t.logger == nil {
		return
	}

	total := t.clock.Since(t.start)

	t.logger.Info("=== %s Timing Summary ===", t.name)
	for i, phase := range t.Phases() {
		t.logger.Info("Phase %d - %s: %v", i+1, phase.Name, phase.Duration)
	}
	t.logger.Info("Total: %v", total)
}
