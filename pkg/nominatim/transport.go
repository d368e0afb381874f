package nominatim

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/resilience"
)

// retryTransport retries 500/502/503/504 responses with exponential backoff
// and bounds every attempt with its own timeout. Any other response,
// including 403, is returned to the caller untouched.
type retryTransport struct {
	base    http.RoundTripper
	retry   resilience.RetryConfig
	timeout time.Duration
}

func newRetryTransport(base http.RoundTripper, retry resilience.RetryConfig, timeout time.Duration) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &retryTransport{base: base, retry: retry, timeout: timeout}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return resilience.DoVal(req.Context(), t.retry, func(ctx context.Context) (*http.Response, error) {
		return t.attempt(ctx, req)
	})
}

func (t *retryTransport) attempt(ctx context.Context, req *http.Request) (*http.Response, error) {
	cancel := context.CancelFunc(func() {})
	if t.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
	}

	resp, err := t.base.RoundTrip(req.Clone(ctx))
	if err != nil {
		cancel()
		return nil, err
	}

	if resilience.IsRetryableStatus(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		cancel()
		return nil, resilience.NewStatusError(
			eris.Errorf("nominatim: server returned status %d", resp.StatusCode),
			resp.StatusCode,
		)
	}

	// The attempt deadline must outlive RoundTrip so it also bounds the body read.
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
