package session

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sorrymonster/pkg/models"
)

type entry struct {
	state   State
	touched time.Time
}

// Tracker keeps one State per session id and enforces a single in-flight
// generation per session. Sessions untouched for ttl are dropped.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
	gauge    prometheus.Gauge
}

func NewTracker(ttl, cleanupInterval time.Duration) *Tracker {
	t := &Tracker{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go t.cleanupLoop(cleanupInterval)
	}
	return t
}

// Observe reports the number of tracked sessions on g.
func (t *Tracker) Observe(g prometheus.Gauge) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gauge = g
	t.report()
}

// report must be called with mu held.
func (t *Tracker) report() {
	if t.gauge != nil {
		t.gauge.Set(float64(len(t.sessions)))
	}
}

func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

func (t *Tracker) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.cleanup()
		case <-t.stop:
			return
		}
	}
}

// Loading sessions are kept until their request finishes.
func (t *Tracker) cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-t.ttl)
	for id, e := range t.sessions {
		if e.state.phase != Loading && e.touched.Before(cutoff) {
			delete(t.sessions, id)
		}
	}
	t.report()
}

// State returns the session's state; unknown sessions are Idle.
func (t *Tracker) State(id string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.sessions[id]; ok {
		return e.state
	}
	return State{}
}

func (t *Tracker) apply(id string, move func(State) (State, error)) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.sessions[id]
	if !ok {
		e = &entry{}
		t.sessions[id] = e
		defer t.report()
	}
	next, err := move(e.state)
	if err != nil {
		return e.state, err
	}
	e.state = next
	e.touched = t.now()
	return next, nil
}

// Begin moves the session to Loading, or returns ErrInFlight.
func (t *Tracker) Begin(id string) error {
	_, err := t.apply(id, State.Submit)
	return err
}

// Finish records the outcome of the generation started by Begin.
func (t *Tracker) Finish(id string, res *models.GenerationResult, notice string, failed bool) (State, error) {
	if failed {
		return t.apply(id, func(s State) (State, error) { return s.Fail(notice) })
	}
	return t.apply(id, func(s State) (State, error) { return s.Succeed(res) })
}

// Acknowledge moves a Failed session back to Idle once its notice was shown.
func (t *Tracker) Acknowledge(id string) {
	_, _ = t.apply(id, func(s State) (State, error) {
		if s.phase != Failed {
			return s, nil
		}
		return s.Reset()
	})
}

func (t *Tracker) Reset(id string) error {
	_, err := t.apply(id, State.Reset)
	return err
}

func (t *Tracker) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
