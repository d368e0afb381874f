package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/config"
	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/resilience"
	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/wardgeo"
	"github.com/VietTranDai/SMART-GARDEN-SERVER/pkg/nominatim"
)

var wardsGeocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Fill in coordinates for pending wards",
	Long: `Looks up every ward that has no coordinates and is not marked as
unresolvable, one at a time in code order, and writes the result back.
Wards with no search result are marked unresolvable; failed lookups stay
pending for the next run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := applyGeocodeFlags(cmd, cfg); err != nil {
			return err
		}
		if err := cfg.Validate("geocode"); err != nil {
			return err
		}

		geocoder, err := newGeocoder(cfg)
		if err != nil {
			return err
		}

		st, err := openWardStore(ctx)
		if err != nil {
			return eris.Wrap(err, "wards geocode: open store")
		}
		defer st.Close() //nolint:errcheck

		reg := prometheus.NewRegistry()
		runner := wardgeo.NewRunner(st, geocoder, batchConfig(cfg),
			wardgeo.WithOutput(cmd.OutOrStdout()),
			wardgeo.WithMetrics(wardgeo.NewMetrics(reg)),
		)

		if cfg.Metrics.Addr == "" {
			_, err := runner.Run(ctx)
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		serverCtx, stopServer := context.WithCancel(gctx)
		defer stopServer()

		g.Go(func() error {
			defer stopServer()
			_, err := runner.Run(gctx)
			return err
		})
		g.Go(func() error {
			return serveMetrics(serverCtx, cfg.Metrics.Addr, newMetricsRouter(reg))
		})

		return g.Wait()
	},
}

func init() {
	f := wardsGeocodeCmd.Flags()
	f.Int("limit", 0, "max wards to process (0 = all pending)")
	f.Duration("throttle", time.Second, "pause after every ward")
	f.Duration("cooldown", 10*time.Second, "pause after too many consecutive 403 responses")
	f.Int("threshold", 5, "consecutive 403 responses that trigger a cooldown")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address while running (e.g. :9090)")
	wardsCmd.AddCommand(wardsGeocodeCmd)
}

// applyGeocodeFlags overrides c with the flags that were set explicitly.
func applyGeocodeFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	if f.Changed("limit") {
		c.Batch.Limit, _ = f.GetInt("limit")
	}
	if f.Changed("throttle") {
		d, _ := f.GetDuration("throttle")
		c.Batch.ThrottleMs = int(d / time.Millisecond)
	}
	if f.Changed("cooldown") {
		d, _ := f.GetDuration("cooldown")
		if d%time.Second != 0 {
			return eris.Errorf("wards geocode: --cooldown must be whole seconds, got %s", d)
		}
		c.Batch.CooldownSecs = int(d / time.Second)
	}
	if f.Changed("threshold") {
		c.Batch.RateLimitThreshold, _ = f.GetInt("threshold")
	}
	if f.Changed("metrics-addr") {
		c.Metrics.Addr, _ = f.GetString("metrics-addr")
	}
	return nil
}

func batchConfig(c *config.Config) wardgeo.Config {
	return wardgeo.Config{
		Throttle:  time.Duration(c.Batch.ThrottleMs) * time.Millisecond,
		Cooldown:  time.Duration(c.Batch.CooldownSecs) * time.Second,
		Threshold: c.Batch.RateLimitThreshold,
		Limit:     c.Batch.Limit,
	}
}

func newGeocoder(c *config.Config) (*nominatim.Client, error) {
	g := c.Geocoder
	lang, err := language.Parse(g.Language)
	if err != nil {
		return nil, eris.Wrapf(err, "wards geocode: parse language %q", g.Language)
	}
	return nominatim.NewClient(
		nominatim.WithBaseURL(g.BaseURL),
		nominatim.WithUserAgent(g.UserAgent),
		nominatim.WithLanguage(lang),
		nominatim.WithCountry(g.CountryCode, g.CountryName),
		nominatim.WithTimeout(time.Duration(g.TimeoutSecs)*time.Second),
		nominatim.WithRetry(resilience.FromRetryConfig(g.MaxAttempts, g.InitialBackoffMs, g.MaxBackoffMs)),
		nominatim.WithRateLimit(g.RateLimit),
	), nil
}
