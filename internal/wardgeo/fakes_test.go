package wardgeo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/ward"
	"github.com/VietTranDai/SMART-GARDEN-SERVER/pkg/nominatim"
)

// fakeStore records every mutation made by the runner.
type fakeStore struct {
	pending  []ward.Ward
	fetchErr error
	markErr  error

	mu           sync.Mutex
	fetchLimit   int
	resolved     map[string][2]float64
	unresolvable []string
}

func newFakeStore(wards ...ward.Ward) *fakeStore {
	return &fakeStore{pending: wards, resolved: make(map[string][2]float64)}
}

func (f *fakeStore) FetchPending(_ context.Context, limit int) ([]ward.Ward, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchLimit = limit
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.pending, nil
}

func (f *fakeStore) MarkResolved(_ context.Context, code string, lat, lon float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.resolved[code] = [2]float64{lat, lon}
	return nil
}

func (f *fakeStore) MarkUnresolvable(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.unresolvable = append(f.unresolvable, code)
	return nil
}

func (f *fakeStore) Stats(context.Context) (*ward.Stats, error) { return &ward.Stats{}, nil }

func (f *fakeStore) ListResolved(context.Context) ([]ward.Located, error) { return nil, nil }

func (f *fakeStore) Migrate(context.Context) error { return nil }

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.resolved) + len(f.unresolvable)
}

// scriptedResolver returns results in order and repeats the last one.
type scriptedResolver struct {
	results []nominatim.Result
	queries []nominatim.Query
	onCall  func(n int)
}

func (s *scriptedResolver) Resolve(_ context.Context, q nominatim.Query) nominatim.Result {
	s.queries = append(s.queries, q)
	n := len(s.queries)
	if s.onCall != nil {
		s.onCall(n)
	}
	if n <= len(s.results) {
		return s.results[n-1]
	}
	return s.results[len(s.results)-1]
}

// recordingSleeper captures requested pauses without waiting.
type recordingSleeper struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.slept = append(r.slept, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordingSleeper) durations() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.slept...)
}

func wardsN(n int) []ward.Ward {
	out := make([]ward.Ward, n)
	for i := range out {
		out[i] = ward.Ward{
			Code:         fmt.Sprintf("%05d", i+1),
			Name:         fmt.Sprintf("Phường %d", i+1),
			DistrictName: "Quận Ba Đình",
			ProvinceName: "Thành phố Hà Nội",
		}
	}
	return out
}

func repeat(r nominatim.Result, n int) []nominatim.Result {
	out := make([]nominatim.Result, n)
	for i := range out {
		out[i] = r
	}
	return out
}
