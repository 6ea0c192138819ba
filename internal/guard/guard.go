// Package guard suppresses duplicate quest submissions caused by one user
// action producing several input events.
package guard

import (
	"sync"
	"time"
)

// DefaultWindow is the minimum spacing between accepted submissions.
const DefaultWindow = 500 * time.Millisecond

// State is the submission state.
type State int

const (
	Idle State = iota
	Submitting
)

func (s State) String() string {
	if s == Submitting {
		return "submitting"
	}
	return "idle"
}

// Submission gates the Idle -> Submitting transition on a time window
// and an in-flight flag. Both must pass.
type Submission struct {
	mu         sync.Mutex
	window     time.Duration
	now        func() time.Time
	state      State
	lastSubmit time.Time
	submitted  bool
}

// NewSubmission creates a guard. A zero window uses DefaultWindow and a
// nil clock uses time.Now.
func NewSubmission(window time.Duration, now func() time.Time) *Submission {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Submission{window: window, now: now}
}

// Begin tries to enter Submitting. It returns false when the previous
// accepted submission is too recent or one is still in flight.
func (g *Submission) Begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if g.submitted && now.Sub(g.lastSubmit) < g.window {
		return false
	}
	if g.state == Submitting {
		return false
	}

	g.state = Submitting
	g.lastSubmit = now
	g.submitted = true
	return true
}

// End returns the guard to Idle.
func (g *Submission) End() {
	g.mu.Lock()
	g.state = Idle
	g.mu.Unlock()
}

// State returns the current state.
func (g *Submission) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Enabled reports whether the submit control should accept input.
func (g *Submission) Enabled() bool {
	return g.State() == Idle
}

// Do runs fn inside Begin/End. The guard returns to Idle however fn
// exits, including by panic. ran is false when Begin rejected the call.
func (g *Submission) Do(fn func() error) (ran bool, err error) {
	if !g.Begin() {
		return false, nil
	}
	defer g.End()
	return true, fn()
}

// TouchFilter drops a click that follows a touch within the window. It
// is independent of Submission.
type TouchFilter struct {
	mu        sync.Mutex
	window    time.Duration
	now       func() time.Time
	lastTouch time.Time
	touched   bool
}

// NewTouchFilter creates a filter with the same defaults as NewSubmission.
func NewTouchFilter(window time.Duration, now func() time.Time) *TouchFilter {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &TouchFilter{window: window, now: now}
}

// Touch records a touch event.
func (f *TouchFilter) Touch() {
	f.mu.Lock()
	f.lastTouch = f.now()
	f.touched = true
	f.mu.Unlock()
}

// AllowClick reports whether a click should be handled.
func (f *TouchFilter) AllowClick() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.touched || f.now().Sub(f.lastTouch) >= f.window
}
