package resilience

import (
	"context"
	"sync"
	"time"
)

// CooldownState represents the state of a cooldown gate.
type CooldownState int

const (
	// StateNormal is the operating state: trips are counted.
	StateNormal CooldownState = iota
	// StateCooling means the threshold was reached and the caller is
	// blocked for the cooldown period.
	StateCooling
)

func (s CooldownState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateCooling:
		return "cooling"
	default:
		return "unknown"
	}
}

// Sleeper blocks for d or until ctx is done. Tests substitute one that
// records durations instead of waiting.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the real Sleeper. A non-positive d returns immediately.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CooldownConfig controls cooldown gate behavior.
type CooldownConfig struct {
	// Threshold is the number of consecutive trips that starts a cooldown.
	// Default: 5.
	Threshold int

	// Cooldown is how long the caller is blocked once the threshold is
	// reached. Default: 10s.
	Cooldown time.Duration

	// Sleep performs the blocking wait. Default: SleepContext.
	Sleep Sleeper

	// OnStateChange is called when the gate transitions between states.
	OnStateChange func(from, to CooldownState)
}

// DefaultCooldownConfig returns a threshold of 5 and a 10s cooldown.
func DefaultCooldownConfig() CooldownConfig {
	return CooldownConfig{
		Threshold: 5,
		Cooldown:  10 * time.Second,
	}
}

// Cooldown counts consecutive trips and, once Threshold is reached, blocks
// the caller for Cooldown before resetting. Unlike a circuit breaker it
// never rejects work; it only slows the caller down.
type Cooldown struct {
	cfg   CooldownConfig
	mu    sync.Mutex
	state CooldownState

	consecutive int
}

// NewCooldown creates a cooldown gate with the given config.
func NewCooldown(cfg CooldownConfig) *Cooldown {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}
	if cfg.Sleep == nil {
		cfg.Sleep = SleepContext
	}
	return &Cooldown{cfg: cfg, state: StateNormal}
}

// Record registers one outcome. A trip increments the counter and any other
// outcome resets it. When the counter reaches Threshold, Record blocks for
// the cooldown period, resets the counter and reports cooled=true. The
// returned error is non-nil only if ctx ended during the wait.
func (c *Cooldown) Record(ctx context.Context, tripped bool) (cooled bool, err error) {
	c.mu.Lock()
	if !tripped {
		c.consecutive = 0
		c.mu.Unlock()
		return false, nil
	}
	c.consecutive++
	if c.consecutive < c.cfg.Threshold {
		c.mu.Unlock()
		return false, nil
	}
	c.transition(StateCooling)
	c.mu.Unlock()

	err = c.cfg.Sleep(ctx, c.cfg.Cooldown)

	c.mu.Lock()
	c.consecutive = 0
	c.transition(StateNormal)
	c.mu.Unlock()
	return true, err
}

// State returns the current gate state.
func (c *Cooldown) State() CooldownState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Counters returns the current trip count and state for observability.
func (c *Cooldown) Counters() (consecutive int, state CooldownState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consecutive, c.state
}

// Reset forces the gate back to normal with a zero counter.
func (c *Cooldown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutive = 0
	c.transition(StateNormal)
}

func (c *Cooldown) transition(to CooldownState) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(from, to)
	}
}
