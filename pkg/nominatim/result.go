package nominatim

// Status classifies the outcome of a single lookup.
type Status int

const (
	// StatusTransient covers timeouts, network failures and any unexpected
	// response. It carries no persisted state change.
	StatusTransient Status = iota
	// StatusResolved means the first candidate's coordinates were returned.
	StatusResolved
	// StatusNoMatch means the service answered 200 with an empty list.
	StatusNoMatch
	// StatusRateLimited means the service rejected the request with 403.
	StatusRateLimited
)

func (s Status) String() string {
	switch s {
	case StatusTransient:
		return "transient"
	case StatusResolved:
		return "resolved"
	case StatusNoMatch:
		return "no_match"
	case StatusRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Result is the outcome of one lookup. Latitude and Longitude are only
// meaningful when Status is StatusResolved; Err only when StatusTransient.
type Result struct {
	Status    Status
	Latitude  float64
	Longitude float64
	Err       error
}

// Resolved builds a StatusResolved result.
func Resolved(lat, lon float64) Result {
	return Result{Status: StatusResolved, Latitude: lat, Longitude: lon}
}

// NoMatch builds a StatusNoMatch result.
func NoMatch() Result {
	return Result{Status: StatusNoMatch}
}

// RateLimited builds a StatusRateLimited result.
func RateLimited() Result {
	return Result{Status: StatusRateLimited}
}

// Transient builds a StatusTransient result carrying the cause.
func Transient(err error) Result {
	return Result{Status: StatusTransient, Err: err}
}

// ValidCoordinates reports whether lat/lon are inside the WGS84 ranges.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
