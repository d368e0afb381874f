package wardgeo

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/resilience"
	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/ward"
	"github.com/VietTranDai/SMART-GARDEN-SERVER/pkg/nominatim"
)

// Resolver looks up a single ward. *nominatim.Client implements it.
type Resolver interface {
	Resolve(ctx context.Context, q nominatim.Query) nominatim.Result
}

// Summary counts what one run did.
type Summary struct {
	RunID       string        `json:"run_id"`
	Pending     int           `json:"pending"`
	Processed   int           `json:"processed"`
	Resolved    int           `json:"resolved"`
	NoMatch     int           `json:"no_match"`
	RateLimited int           `json:"rate_limited"`
	Transient   int           `json:"transient"`
	SinkErrors  int           `json:"sink_errors"`
	Cooldowns   int           `json:"cooldowns"`
	Duration    time.Duration `json:"duration"`
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d/%d processed: %d resolved, %d no result, %d rate limited, %d skipped, %d store errors, %d cooldowns in %s",
		s.Processed, s.Pending, s.Resolved, s.NoMatch, s.RateLimited, s.Transient, s.SinkErrors, s.Cooldowns,
		s.Duration.Round(time.Second))
}

// Option configures a Runner.
type Option func(*Runner)

// WithSleeper replaces the sleeper used for throttle and cooldown pauses.
func WithSleeper(s resilience.Sleeper) Option {
	return func(r *Runner) { r.sleep = s }
}

// WithOutput sets where per-ward progress lines are written. Default: stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithMetrics records progress on m.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets the structured logger. Default: zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// Runner processes pending wards one at a time.
type Runner struct {
	store    ward.Store
	resolver Resolver
	cfg      Config
	sleep    resilience.Sleeper
	out      io.Writer
	metrics  *Metrics
	log      *zap.Logger
}

// NewRunner creates a Runner over store and resolver.
func NewRunner(store ward.Store, resolver Resolver, cfg Config, opts ...Option) *Runner {
	r := &Runner{
		store:    store,
		resolver: resolver,
		cfg:      cfg,
		sleep:    resilience.SleepContext,
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = zap.L()
	}
	return r
}

// Run fetches the pending wards once and processes them in code order.
// Only the initial fetch is fatal. Update failures are logged and counted.
// Cancelling ctx stops the run between wards or during a pause; the
// partial summary is returned with the context error.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	sum := &Summary{RunID: uuid.NewString()}
	log := r.log.With(zap.String("component", "wardgeo"), zap.String("run_id", sum.RunID))

	wards, err := r.store.FetchPending(ctx, r.cfg.Limit)
	if err != nil {
		return nil, eris.Wrap(err, "wardgeo: fetch pending wards")
	}
	sum.Pending = len(wards)
	r.metrics.setPending(len(wards))

	fmt.Fprintf(r.out, "⏳ Found %d wards to geocode\n", len(wards))
	log.Info("starting ward geocoding",
		zap.Int("pending", len(wards)),
		zap.Duration("throttle", r.cfg.Throttle),
		zap.Duration("cooldown", r.cfg.Cooldown),
		zap.Int("threshold", r.cfg.Threshold),
	)

	ctrl := NewController(r.cfg, r.sleep, func() {
		fmt.Fprintf(r.out, "🚨 Too many 403 responses, cooling down for %s\n", r.cfg.Cooldown)
	})

	finish := func(err error) (*Summary, error) {
		sum.Duration = time.Since(start)
		fmt.Fprintf(r.out, "🏁 %s\n", sum)
		if err != nil {
			log.Warn("ward geocoding interrupted", zap.Int("processed", sum.Processed), zap.Error(err))
			return sum, err
		}
		log.Info("ward geocoding finished",
			zap.Int("resolved", sum.Resolved),
			zap.Int("no_match", sum.NoMatch),
			zap.Int("rate_limited", sum.RateLimited),
			zap.Int("transient", sum.Transient),
			zap.Int("sink_errors", sum.SinkErrors),
			zap.Int("cooldowns", sum.Cooldowns),
			zap.Duration("elapsed", sum.Duration),
		)
		return sum, nil
	}

	for _, w := range wards {
		if err := ctx.Err(); err != nil {
			return finish(eris.Wrap(err, "wardgeo: run cancelled"))
		}

		status := r.process(ctx, log, w, sum)
		sum.Processed++
		r.metrics.setPending(sum.Pending - sum.Processed)

		cooled, err := ctrl.Observe(ctx, status)
		if cooled {
			sum.Cooldowns++
			r.metrics.cooldown()
		}
		if err != nil {
			return finish(eris.Wrap(err, "wardgeo: cooldown interrupted"))
		}

		if err := ctrl.Throttle(ctx); err != nil {
			return finish(eris.Wrap(err, "wardgeo: throttle interrupted"))
		}
	}

	return finish(nil)
}

// process resolves one ward, applies the outcome to the store and prints
// the progress line. It returns the resolver status for the controller.
func (r *Runner) process(ctx context.Context, log *zap.Logger, w ward.Ward, sum *Summary) nominatim.Status {
	began := time.Now()
	res := r.resolver.Resolve(ctx, nominatim.Query{
		Ward:     w.Name,
		District: w.DistrictName,
		Province: w.ProvinceName,
	})
	r.metrics.observe(res.Status, time.Since(began))

	var detail string
	switch res.Status {
	case nominatim.StatusResolved:
		if err := r.store.MarkResolved(ctx, w.Code, res.Latitude, res.Longitude); err != nil {
			detail = r.sinkFailed(log, w, err, sum)
			break
		}
		sum.Resolved++
		detail = fmt.Sprintf("✅ %.6f, %.6f", res.Latitude, res.Longitude)

	case nominatim.StatusNoMatch:
		if err := r.store.MarkUnresolvable(ctx, w.Code); err != nil {
			detail = r.sinkFailed(log, w, err, sum)
			break
		}
		sum.NoMatch++
		detail = "⚠️ no result, marked unresolvable"

	case nominatim.StatusRateLimited:
		sum.RateLimited++
		detail = "🚫 403 rate limited"

	default:
		sum.Transient++
		detail = "⚠️ lookup failed, will retry next run"
		log.Debug("transient lookup failure", zap.String("code", w.Code), zap.Error(res.Err))
	}

	fmt.Fprintf(r.out, "✏️ %s: %s ... %s\n", w.Code, w.Label(), detail)
	return res.Status
}

func (r *Runner) sinkFailed(log *zap.Logger, w ward.Ward, err error, sum *Summary) string {
	sum.SinkErrors++
	r.metrics.sinkError()
	log.Error("failed to update ward", zap.String("code", w.Code), zap.Error(err))
	return "❌ store update failed"
}
