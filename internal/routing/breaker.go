package routing

import (
	"sync"
	"time"
)

// Breaker defaults: an endpoint opens after 5 consecutive failures and is
// probed again 300s after the last recorded failure.
const (
	DefaultFailureThreshold = 5
	DefaultCooldown         = 300 * time.Second
)

// breakerState tracks one endpoint. Created lazily on first failure.
type breakerState struct {
	failures    int
	open        bool
	lastFailure time.Time
}

// BreakerStatus is a read-only snapshot of one endpoint's breaker.
type BreakerStatus struct {
	Failures    int       `json:"failures"`
	Open        bool      `json:"open"`
	LastFailure time.Time `json:"last_failure"`
}

// BreakerRegistry keeps per-endpoint circuit state, keyed by the literal
// endpoint URL. All mutation happens under one mutex so concurrent pipelines
// never lose a failure increment.
type BreakerRegistry struct {
	mu        sync.Mutex
	states    map[string]*breakerState
	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

// NewBreakerRegistry constructs a registry with the given threshold and
// cool-down, falling back to the defaults for non-positive values.
func NewBreakerRegistry(threshold int, cooldown time.Duration) *BreakerRegistry {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &BreakerRegistry{
		states:    make(map[string]*breakerState),
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Allow reports whether a routing attempt to endpoint may proceed. An open
// breaker auto-resets once the cool-down since the last failure has elapsed:
// the next call is the half-open probe, there is no background timer.
func (r *BreakerRegistry) Allow(endpoint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[endpoint]
	if !ok || !state.open {
		return true
	}
	if r.now().Sub(state.lastFailure) > r.cooldown {
		state.failures = 0
		state.open = false
		return true
	}
	return false
}

// RecordFailure increments the endpoint's consecutive failure count, opening
// the breaker at the threshold.
func (r *BreakerRegistry) RecordFailure(endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[endpoint]
	if !ok {
		state = &breakerState{}
		r.states[endpoint] = state
	}
	state.failures++
	state.lastFailure = r.now()
	if state.failures >= r.threshold {
		state.open = true
	}
}

// RecordSuccess zeroes the failure count and closes the breaker.
func (r *BreakerRegistry) RecordSuccess(endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.states[endpoint]; ok {
		state.failures = 0
		state.open = false
	}
}

// Snapshot returns a copy of all tracked breaker states for diagnostics.
func (r *BreakerRegistry) Snapshot() map[string]BreakerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[string]BreakerStatus, len(r.states))
	for endpoint, state := range r.states {
		snapshot[endpoint] = BreakerStatus{
			Failures:    state.failures,
			Open:        state.open,
			LastFailure: state.lastFailure,
		}
	}
	return snapshot
}
