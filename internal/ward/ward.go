// Package ward reads wards that still need coordinates and records the
// outcome of geocoding them.
package ward

import (
	"context"
	"strings"
)

// Ward is one administrative ward with the names of its district and
// province. Code is the primary key and never changes.
type Ward struct {
	Code         string `json:"code" yaml:"code"`
	Name         string `json:"name" yaml:"name"`
	DistrictName string `json:"district" yaml:"district"`
	ProvinceName string `json:"province" yaml:"province"`
}

// Label renders the ward as "ward, district, province", skipping empty parts.
func (w Ward) Label() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{w.Name, w.DistrictName, w.ProvinceName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Located is a ward with stored coordinates.
type Located struct {
	Ward      `yaml:",inline"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Stats summarises the geocoding state of the whole ward table.
type Stats struct {
	Total        int64 `json:"total" yaml:"total"`
	Resolved     int64 `json:"resolved" yaml:"resolved"`
	Unresolvable int64 `json:"unresolvable" yaml:"unresolvable"`
	Pending      int64 `json:"pending" yaml:"pending"`
}

// Store is the persistence interface for the ward geocoder.
type Store interface {
	// FetchPending returns wards with both coordinates null and the
	// unresolvable flag cleared, ordered by code. limit <= 0 means all.
	FetchPending(ctx context.Context, limit int) ([]Ward, error)
	// MarkResolved stores coordinates and clears the unresolvable flag.
	MarkResolved(ctx context.Context, code string, lat, lon float64) error
	// MarkUnresolvable sets the unresolvable flag. Coordinates are untouched.
	MarkUnresolvable(ctx context.Context, code string) error

	Stats(ctx context.Context) (*Stats, error)
	ListResolved(ctx context.Context) ([]Located, error)

	Migrate(ctx context.Context) error
	Close() error
}
