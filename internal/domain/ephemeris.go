package domain

import (
	"context"
	"time"
)

// AstronomicalUnitKm converts AU distances to kilometers (IAU 2012 definition).
const AstronomicalUnitKm = 149597870.7

// MagnitudeUnknown is the apparent-magnitude sentinel meaning "too faint /
// unknown". Consumers use it to suppress visibility hints.
const MagnitudeUnknown = 99

// CoordinateUnknown marks an RA or Dec that could not be parsed. Coordinates
// use a string marker instead of a numeric zero; see the package doc.
const CoordinateUnknown = "N/A"

// EphemerisType selects which upstream table format a query produces.
type EphemerisType string

const (
	// EphemerisObserver requests sky position as seen from the reference center.
	EphemerisObserver EphemerisType = "OBSERVER"
	// EphemerisElements requests osculating orbital elements.
	EphemerisElements EphemerisType = "ELEMENTS"
)

// QueryWindow bounds an ephemeris query in time. A zero window means
// "from now, 24 hours, hourly steps"; the first returned row is then "now".
type QueryWindow struct {
	Start time.Time
	Stop  time.Time
	Step  string // upstream step-size syntax, e.g. "1h", "1d"
}

// EphemerisSource fetches raw ephemeris text for an object command.
// Implementations return the free-text result blob; callers extract and
// parse the sentinel-delimited table themselves.
type EphemerisSource interface {
	FetchEphemeris(ctx context.Context, command string, typ EphemerisType, w QueryWindow) (string, error)
}

// OrbitalElements holds the elements extracted from the first data row of an
// ELEMENTS block. All-zero when the elements query failed or parsed to
// nothing; a genuine zero is indistinguishable from the default, which is a
// known, accepted ambiguity.
type OrbitalElements struct {
	Eccentricity         float64 `json:"eccentricity"`
	PerihelionDistanceAU float64 `json:"perihelion_distance_au"`
	InclinationDeg       float64 `json:"inclination_deg"`
}

// Hyperbolic reports whether the trajectory is unbound (e > 1), the
// signature of an interstellar visitor.
func (e OrbitalElements) Hyperbolic() bool {
	return e.Eccentricity > 1
}

// ObserverPosition holds the sky position parsed from the first data row of
// an OBSERVER block.
type ObserverPosition struct {
	TimestampUTC        time.Time `json:"timestamp_utc"`
	RightAscension      string    `json:"right_ascension"` // "H M S.SS", decimal degrees, or "N/A"
	Declination         string    `json:"declination"`
	DistanceFromSunAU   float64   `json:"distance_from_sun_au"`
	DistanceFromEarthAU float64   `json:"distance_from_earth_au"`
	DistanceFromEarthKm float64   `json:"distance_from_earth_km"`
	ApparentMagnitude   float64   `json:"apparent_magnitude"`
}

// EphemerisRecord is the composed, UI-facing result for one object. Built
// per request, never persisted.
type EphemerisRecord struct {
	Object   CelestialObject  `json:"object"`
	Orbital  OrbitalElements  `json:"orbital"`
	Position ObserverPosition `json:"position"`

	// VelocityKmS is always zero: OBSERVER ephemerides carry no velocity
	// vectors, which would require a VECTORS query.
	VelocityKmS float64 `json:"velocity_km_s"`

	Hyperbolic  bool      `json:"hyperbolic"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// NewRecord composes the resolver, elements, and observer results into one
// record. elems may be the zero value when the elements query degraded.
func NewRecord(obj CelestialObject, elems OrbitalElements, pos ObserverPosition) EphemerisRecord {
	return EphemerisRecord{
		Object:      obj,
		Orbital:     elems,
		Position:    pos,
		Hyperbolic:  elems.Hyperbolic(),
		RetrievedAt: clock.Now().UTC(),
	}
}
