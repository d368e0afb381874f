// Package nominatim resolves Vietnamese ward names to coordinates through a
// Nominatim-compatible search endpoint.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/resilience"
)

const (
	// DefaultBaseURL is the public OpenStreetMap search endpoint.
	DefaultBaseURL = "https://nominatim.openstreetmap.org/search"
	// DefaultUserAgent identifies the client as the usage policy requires.
	DefaultUserAgent = "SmartGarden/1.0 (+https://github.com/VietTranDai/SMART-GARDEN-SERVER)"
	// DefaultCountryCode restricts results to Vietnam.
	DefaultCountryCode = "vn"
	// DefaultCountryName is appended to every free-text query.
	DefaultCountryName = "Việt Nam"
	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 10 * time.Second
)

// Option configures the Client.
type Option func(*Client)

// WithBaseURL points the client at another search endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithUserAgent sets the client identifier header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLanguage sets the preferred result language.
func WithLanguage(tag language.Tag) Option {
	return func(c *Client) {
		c.language = tag
	}
}

// WithCountry sets the country filter and the country name appended to queries.
func WithCountry(code, name string) Option {
	return func(c *Client) {
		c.countryCode = code
		c.countryName = name
	}
}

// WithTimeout bounds each HTTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetry sets the transport-level retry policy for server errors.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithRateLimit caps outgoing requests per second. rps <= 0 disables the cap.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTransport sets the underlying RoundTripper. Retry is layered on top.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// Client resolves ward queries. It is safe to share across calls but the
// batch runner uses it from a single goroutine.
type Client struct {
	httpClient  *http.Client
	transport   http.RoundTripper
	baseURL     string
	userAgent   string
	language    language.Tag
	countryCode string
	countryName string
	timeout     time.Duration
	retry       resilience.RetryConfig
	limiter     *rate.Limiter
}

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		userAgent:   DefaultUserAgent,
		language:    language.Vietnamese,
		countryCode: DefaultCountryCode,
		countryName: DefaultCountryName,
		timeout:     DefaultTimeout,
		retry:       resilience.DefaultRetryConfig(),
		limiter:     rate.NewLimiter(1, 1), // public Nominatim policy: 1 req/s
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("nominatim", "search")
	}
	c.httpClient = &http.Client{
		Transport: newRetryTransport(c.transport, c.retry, c.timeout),
	}
	return c
}

// Resolve looks up a single ward. It never returns an error: every failure
// is folded into a StatusTransient result so callers switch on Status.
func (c *Client) Resolve(ctx context.Context, q Query) Result {
	log := zap.L().With(zap.String("component", "nominatim"))

	if err := c.limiter.Wait(ctx); err != nil {
		return Transient(eris.Wrap(err, "nominatim: rate limit wait"))
	}

	params := url.Values{
		"q":            {q.FreeText(c.countryName)},
		"format":       {"jsonv2"},
		"limit":        {"1"},
		"countrycodes": {c.countryCode},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Transient(eris.Wrap(err, "nominatim: build request"))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", c.language.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			log.Warn("read timeout, skipping ward for this run", zap.String("ward", q.Ward))
			return Transient(eris.Wrap(err, "nominatim: timeout"))
		}
		log.Warn("geocoding request failed", zap.String("ward", q.Ward), zap.Error(err))
		return Transient(eris.Wrap(err, "nominatim: request"))
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusForbidden {
		_, _ = io.Copy(io.Discard, resp.Body)
		return RateLimited()
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("nominatim: unexpected status %d", resp.StatusCode)
		log.Warn("geocoding request failed", zap.String("ward", q.Ward), zap.Error(err))
		return Transient(err)
	}

	var candidates []candidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		log.Warn("undecodable geocoding response", zap.String("ward", q.Ward), zap.Error(err))
		return Transient(eris.Wrap(err, "nominatim: decode response"))
	}

	if len(candidates) == 0 {
		return NoMatch()
	}

	first := candidates[0]
	if first.Lat == nil || first.Lon == nil {
		return Transient(eris.New("nominatim: candidate without coordinates"))
	}
	lat, lon := float64(*first.Lat), float64(*first.Lon)
	if !ValidCoordinates(lat, lon) {
		return Transient(eris.Errorf("nominatim: coordinate out of range (%s, %s)",
			strconv.FormatFloat(lat, 'f', -1, 64), strconv.FormatFloat(lon, 'f', -1, 64)))
	}

	log.Debug("resolved", zap.String("ward", q.Ward), zap.String("match", first.DisplayName))
	return Resolved(lat, lon)
}
