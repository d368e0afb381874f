// Package wardgeo runs a geocoding batch over pending wards: it resolves
// each ward in code order, records the outcome, throttles between calls and
// backs off when the geocoding service keeps rejecting requests.
package wardgeo

import (
	"context"
	"time"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/resilience"
	"github.com/VietTranDai/SMART-GARDEN-SERVER/pkg/nominatim"
)

// Config holds batch pacing parameters.
type Config struct {
	// Throttle is the pause after every ward, whatever the outcome.
	Throttle time.Duration
	// Cooldown is the pause once Threshold consecutive 403s are seen.
	Cooldown time.Duration
	// Threshold is the number of consecutive rate-limited results that
	// triggers a cooldown.
	Threshold int
	// Limit caps the number of wards fetched. <= 0 means all.
	Limit int
}

// DefaultConfig returns a 1s throttle, a 10s cooldown after 5 consecutive
// 403s, and no limit.
func DefaultConfig() Config {
	return Config{
		Throttle:  time.Second,
		Cooldown:  10 * time.Second,
		Threshold: 5,
	}
}

// Controller paces the batch. It owns the consecutive rate-limit counter
// and performs both the per-ward throttle and the cooldown sleep.
type Controller struct {
	gate     *resilience.Cooldown
	throttle time.Duration
	sleep    resilience.Sleeper
}

// NewController builds a Controller. onCooldown, if set, is called when a
// cooldown starts, before the sleep.
func NewController(cfg Config, sleep resilience.Sleeper, onCooldown func()) *Controller {
	if sleep == nil {
		sleep = resilience.SleepContext
	}
	throttle := cfg.Throttle
	if throttle < 0 {
		throttle = 0
	}
	return &Controller{
		gate: resilience.NewCooldown(resilience.CooldownConfig{
			Threshold: cfg.Threshold,
			Cooldown:  cfg.Cooldown,
			Sleep:     sleep,
			OnStateChange: func(_, to resilience.CooldownState) {
				if to == resilience.StateCooling && onCooldown != nil {
					onCooldown()
				}
			},
		}),
		throttle: throttle,
		sleep:    sleep,
	}
}

// Observe feeds one lookup outcome into the controller. It reports whether
// a cooldown was served; the error is non-nil only if ctx ended during it.
func (c *Controller) Observe(ctx context.Context, status nominatim.Status) (bool, error) {
	return c.gate.Record(ctx, status == nominatim.StatusRateLimited)
}

// Throttle sleeps for the per-ward pause.
func (c *Controller) Throttle(ctx context.Context) error {
	return c.sleep(ctx, c.throttle)
}

// Consecutive returns the current number of consecutive rate-limited results.
func (c *Controller) Consecutive() int {
	n, _ := c.gate.Counters()
	return n
}

// State returns Normal or Cooling.
func (c *Controller) State() resilience.CooldownState {
	return c.gate.State()
}
