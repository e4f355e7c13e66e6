package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Sentinel markers delimiting the data table inside a Horizons result blob.
// Exact literals from the upstream deployment; do not change.
const (
	startOfEphemeris = "$$SOE"
	endOfEphemeris   = "$$EOE"
)

var (
	// observerTimestampRe matches the leading "YYYY-Mon-DD HH:MM" token of an
	// OBSERVER data row, e.g. "2025-Aug-20 00:00".
	observerTimestampRe = regexp.MustCompile(`^\s*(\d{4}-[A-Z][a-z]{2}-\d{2})\s+(\d{2}:\d{2})`)

	// raSexagesimalRe matches an unsigned "H M S.SS" triplet. The leading
	// boundary keeps it from matching inside a signed declination triplet.
	raSexagesimalRe = regexp.MustCompile(`(?:^|\s)(\d{1,3})\s+(\d{2})\s+(\d{2}\.\d+)`)

	// raDecimalRe matches unsigned decimal degrees. Four or more fraction
	// digits is what separates a printed angle (e.g. 127.48373) from the
	// shorter distance and magnitude columns.
	raDecimalRe = regexp.MustCompile(`(?:^|\s)(\d{1,3}\.\d{4,})(?:\s|$)`)

	// decSexagesimalRe and decDecimalRe are the signed counterparts; Horizons
	// always prints declination with an explicit sign.
	decSexagesimalRe = regexp.MustCompile(`(?:^|\s)([-+]\d{1,3})\s+(\d{2})\s+(\d{2}\.\d+)`)
	decDecimalRe     = regexp.MustCompile(`(?:^|\s)([-+]\d{1,3}\.\d{4,})(?:\s|$)`)

	// magnitudeRe matches a whitespace-isolated decimal with 1-2 integer
	// digits and the two-decimal fraction this output type prints for
	// apparent magnitudes. The fraction width is what keeps the
	// long-mantissa distance columns from posing as a magnitude.
	magnitudeRe = regexp.MustCompile(`(?:^|\s)(\d{1,2}\.\d{2})(?:\s|$)`)

	// decimalTokenRe feeds the distance heuristic: any decimal-looking token.
	decimalTokenRe = regexp.MustCompile(`\d+\.\d+`)
)

// observerTimestampLayout parses the Horizons calendar format.
const observerTimestampLayout = "2006-Jan-02 15:04"

// ExtractEphemerisBlock returns the non-empty, trimmed lines strictly between
// the $$SOE and $$EOE sentinels, in upstream order. Returns nil when either
// sentinel is absent: that is the expected shape of an error body or an empty
// window, a recoverable no-data condition rather than a fault. Both the
// elements and observer paths share this extractor.
func ExtractEphemerisBlock(text string) []string {
	start := strings.Index(text, startOfEphemeris)
	if start < 0 {
		return nil
	}
	rest := text[start+len(startOfEphemeris):]
	end := strings.Index(rest, endOfEphemeris)
	if end < 0 {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(rest[:end]), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// ElementColumns locates the orbital-element fields in a whitespace-split
// ELEMENTS data row. The positions are assumed fixed per the observed
// upstream layout; an upstream column reorder silently yields wrong values,
// not an error. Kept configurable so the assumption stays auditable.
type ElementColumns struct {
	Eccentricity       int
	PerihelionDistance int
	Inclination        int
}

// DefaultElementColumns matches the observed ELEMENTS row layout:
// JDTDB and calendar date occupy indices 0-1, then EC, QR, IN.
var DefaultElementColumns = ElementColumns{
	Eccentricity:       2,
	PerihelionDistance: 3,
	Inclination:        4,
}

// ParseElementsLine extracts orbital elements from one ELEMENTS data row.
// Only the first row of a block is ever consumed ("most recent" policy);
// callers wanting a time series re-query with narrower steps. Missing or
// non-numeric fields coerce to 0, never an error: a bad field is a
// data-quality condition, not a program fault.
func ParseElementsLine(line string, cols ElementColumns) OrbitalElements {
	fields := strings.Fields(line)
	return OrbitalElements{
		Eccentricity:         fieldOrZero(fields, cols.Eccentricity),
		PerihelionDistanceAU: fieldOrZero(fields, cols.PerihelionDistance),
		InclinationDeg:       fieldOrZero(fields, cols.Inclination),
	}
}

// DistanceHeuristic selects the heliocentric and geocentric distances from
// the residual of an OBSERVER data row, after the timestamp, coordinates,
// and magnitude have claimed their matches. Isolated as a named, swappable
// strategy: it has no semantic anchor beyond token ordering and a magnitude
// window, so replacing it with column-aware parsing later must not touch the
// rest of the pipeline.
type DistanceHeuristic func(line string) (sunAU, earthAU float64)

// DistanceWindow bounds the plausible AU range for a distance token.
// 0.1-100 AU is an empirical window for interstellar objects transiting the
// solar system (1I through 3I all fall well inside it); it has not been
// verified against the full space of upstream output variants.
var DistanceWindow = struct {
	Min, Max float64
}{Min: 0.1, Max: 100}

// WindowedDistanceHeuristic collects every decimal-looking token in the line,
// keeps those inside DistanceWindow, and assigns the first two survivors, in
// order of appearance, to the Sun and Earth distances. A lone survivor fills
// both; no survivors leave both at zero.
func WindowedDistanceHeuristic(line string) (float64, float64) {
	var hits []float64
	for _, tok := range decimalTokenRe.FindAllString(line, -1) {
		v := parseFloatOrZero(tok)
		if v >= DistanceWindow.Min && v < DistanceWindow.Max {
			hits = append(hits, v)
		}
	}

	switch len(hits) {
	case 0:
		return 0, 0
	case 1:
		return hits[0], hits[0]
	default:
		return hits[0], hits[1]
	}
}

// distanceHeuristic is the active strategy; tests and future column-aware
// parsing swap it via SetDistanceHeuristic.
var distanceHeuristic DistanceHeuristic = WindowedDistanceHeuristic

// SetDistanceHeuristic swaps the distance strategy. Pass nil to reset to
// WindowedDistanceHeuristic.
func SetDistanceHeuristic(h DistanceHeuristic) {
	if h == nil {
		h = WindowedDistanceHeuristic
	}
	distanceHeuristic = h
}

// ParseObserverLine parses one OBSERVER data row into a position. Every field
// degrades independently to its documented sentinel; this function never
// fails. Velocity is not parsed because OBSERVER output does not carry it.
func ParseObserverLine(line string) ObserverPosition {
	pos := ObserverPosition{
		RightAscension:    CoordinateUnknown,
		Declination:       CoordinateUnknown,
		ApparentMagnitude: MagnitudeUnknown,
	}

	rest := line
	if m := observerTimestampRe.FindStringSubmatch(line); m != nil {
		if t, err := time.Parse(observerTimestampLayout, m[1]+" "+m[2]); err == nil {
			pos.TimestampUTC = t.UTC()
			rest = strings.Replace(rest, m[0], " ", 1)
		}
	}
	if pos.TimestampUTC.IsZero() {
		// Timestamp loss must never abort the record; substitute wall clock.
		pos.TimestampUTC = clock.Now().UTC()
	}

	ra, raRaw := extractRightAscension(rest)
	if raRaw != "" {
		rest = strings.Replace(rest, raRaw, " ", 1)
	}
	dec, decRaw := extractDeclination(rest)
	if decRaw != "" {
		rest = strings.Replace(rest, decRaw, " ", 1)
	}
	pos.RightAscension = ra
	pos.Declination = dec

	// Each heuristic searches the residual left by the previous one, so RA
	// seconds cannot pose as a magnitude and the magnitude cannot pose as a
	// distance. Within the residual the distance scan has no anchor beyond
	// token order and the plausibility window.
	if m := magnitudeRe.FindStringSubmatch(rest); m != nil {
		pos.ApparentMagnitude = parseFloatOrZero(m[1])
		rest = strings.Replace(rest, m[1], " ", 1)
	}

	pos.DistanceFromSunAU, pos.DistanceFromEarthAU = distanceHeuristic(rest)
	pos.DistanceFromEarthKm = pos.DistanceFromEarthAU * AstronomicalUnitKm

	return pos
}

// extractRightAscension tries the sexagesimal triplet first, then decimal
// degrees; first match wins. Returns the normalized value and the raw matched
// substring so the caller can strike it from the working copy.
func extractRightAscension(s string) (value, raw string) {
	if m := raSexagesimalRe.FindStringSubmatch(s); m != nil {
		triplet := strings.TrimSpace(m[0])
		return strings.Join(strings.Fields(triplet), " "), triplet
	}
	if m := raDecimalRe.FindStringSubmatch(s); m != nil {
		return m[1], m[1]
	}
	return CoordinateUnknown, ""
}

// extractDeclination mirrors extractRightAscension for the signed shapes.
func extractDeclination(s string) (value, raw string) {
	if m := decSexagesimalRe.FindStringSubmatch(s); m != nil {
		triplet := strings.TrimSpace(m[0])
		return strings.Join(strings.Fields(triplet), " "), triplet
	}
	if m := decDecimalRe.FindStringSubmatch(s); m != nil {
		return m[1], m[1]
	}
	return CoordinateUnknown, ""
}

func fieldOrZero(fields []string, index int) float64 {
	if index < 0 || index >= len(fields) {
		return 0
	}
	return parseFloatOrZero(fields[index])
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
// Handles the scientific notation Horizons prints (e.g. "6.139E+00").
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
