package nominatim

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/resilience"
)

var testQuery = Query{Ward: "Phường Bến Nghé", District: "Quận 1", Province: "Thành phố Hồ Chí Minh"}

// newTestClient builds a client against srv with no rate limit and
// millisecond retry backoff.
func newTestClient(srv *httptest.Server, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(srv.URL + "/search"),
		WithRateLimit(0),
		WithRetry(resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}),
	}
	return NewClient(append(base, opts...)...)
}

func TestResolve_Resolved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"lat":"10.7769","lon":"106.7009","display_name":"Bến Nghé"}]`)
	}))
	defer srv.Close()

	res := newTestClient(srv).Resolve(context.Background(), testQuery)

	require.Equal(t, StatusResolved, res.Status)
	assert.InDelta(t, 10.7769, res.Latitude, 1e-9)
	assert.InDelta(t, 106.7009, res.Longitude, 1e-9)
	assert.NoError(t, res.Err)
}

func TestResolve_NumericCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"lat":21.0245,"lon":105.8412}]`)
	}))
	defer srv.Close()

	res := newTestClient(srv).Resolve(context.Background(), testQuery)

	require.Equal(t, StatusResolved, res.Status)
	assert.InDelta(t, 21.0245, res.Latitude, 1e-9)
	assert.InDelta(t, 105.8412, res.Longitude, 1e-9)
}

func TestResolve_UsesFirstCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"lat":"1.5","lon":"2.5"},{"lat":"9","lon":"9"}]`)
	}))
	defer srv.Close()

	res := newTestClient(srv).Resolve(context.Background(), testQuery)

	require.Equal(t, StatusResolved, res.Status)
	assert.InDelta(t, 1.5, res.Latitude, 1e-9)
	assert.InDelta(t, 2.5, res.Longitude, 1e-9)
}

func TestResolve_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	res := newTestClient(srv).Resolve(context.Background(), testQuery)
	assert.Equal(t, StatusNoMatch, res.Status)
}

func TestResolve_ForbiddenIsRateLimitedWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	res := newTestClient(srv).Resolve(context.Background(), testQuery)

	assert.Equal(t, StatusRateLimited, res.Status)
	assert.Equal(t, int32(1), calls.Load(), "403 must not be retried by the transport")
}

func TestResolve_ServerErrorRetriedThenResolved(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `[{"lat":"16.0544","lon":"108.2022"}]`)
	}))
	defer srv.Close()

	res := newTestClient(srv).Resolve(context.Background(), testQuery)

	require.Equal(t, StatusResolved, res.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestResolve_ServerErrorExhaustsRetries(t *testing.T) {
	for _, code := range []int{500, 502, 503, 504} {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(code)
		}))

		res := newTestClient(srv).Resolve(context.Background(), testQuery)
		srv.Close()

		assert.Equal(t, StatusTransient, res.Status, "status %d", code)
		assert.Error(t, res.Err)
		assert.Equal(t, int32(3), calls.Load(), "status %d should be attempted 3 times", code)
	}
}

func TestResolve_OtherHTTPErrorIsTransient(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusBadRequest} {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(code)
		}))

		res := newTestClient(srv).Resolve(context.Background(), testQuery)
		srv.Close()

		assert.Equal(t, StatusTransient, res.Status, "status %d", code)
		assert.Equal(t, int32(1), calls.Load(), "status %d should not be retried", code)
	}
}

func TestResolve_TimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	res := newTestClient(srv, WithTimeout(50*time.Millisecond)).Resolve(context.Background(), testQuery)

	assert.Equal(t, StatusTransient, res.Status)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "timeout")
}

func TestResolve_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // nothing listens anymore

	res := newTestClient(srv).Resolve(context.Background(), testQuery)

	assert.Equal(t, StatusTransient, res.Status)
	assert.Error(t, res.Err)
}

func TestResolve_MalformedBodyIsTransient(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"error":"Unable to geocode"}`,
		`[{"lat":"abc","lon":"106"}]`,
		`[{"display_name":"no coordinates"}]`,
		`[{"lat":"95.0","lon":"106"}]`,
		`[{"lat":"10","lon":"-181"}]`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, body)
		}))

		res := newTestClient(srv).Resolve(context.Background(), testQuery)
		srv.Close()

		assert.Equal(t, StatusTransient, res.Status, "body %s", body)
	}
}

func TestResolve_RequestShape(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := newTestClient(srv, WithUserAgent("garden-test/0.1 (ops@example.com)"))
	c.Resolve(context.Background(), testQuery)

	require.NotNil(t, got)
	assert.Equal(t, "/search", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "Phường Bến Nghé, Quận 1, Thành phố Hồ Chí Minh, Việt Nam", q.Get("q"))
	assert.Equal(t, "jsonv2", q.Get("format"))
	assert.Equal(t, "1", q.Get("limit"))
	assert.Equal(t, "vn", q.Get("countrycodes"))
	assert.Equal(t, "garden-test/0.1 (ops@example.com)", got.Header.Get("User-Agent"))
	assert.Equal(t, "vi", got.Header.Get("Accept-Language"))
}

func TestResolve_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestClient(srv).Resolve(ctx, testQuery)
	assert.Equal(t, StatusTransient, res.Status)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient()
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultUserAgent, c.userAgent)
	assert.Equal(t, "vi", c.language.String())
	assert.Equal(t, "vn", c.countryCode)
	assert.Equal(t, "Việt Nam", c.countryName)
	assert.Equal(t, 10*time.Second, c.timeout)
	assert.Equal(t, 3, c.retry.MaxAttempts)
	assert.Equal(t, time.Second, c.retry.InitialBackoff)
	assert.InDelta(t, 1.0, float64(c.limiter.Limit()), 1e-9)
}
