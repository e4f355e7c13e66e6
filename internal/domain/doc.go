// Package domain models JPL Horizons ephemeris data for interstellar objects.
//
// # Data Source
//
// Ephemerides come from the JPL Horizons API (https://ssd.jpl.nasa.gov/api/horizons.api),
// which returns a JSON envelope whose "result" field is a multi-kilobyte
// free-text report. The actual data table inside the report is delimited by
// the literal sentinel markers "$$SOE" (start of ephemeris) and "$$EOE"
// (end of ephemeris). Everything outside the sentinels is header/footer prose
// and query echo. A missing sentinel means the query produced no table
// (wrong designation, empty time window, upstream notice) and is a
// recoverable no-data condition, not a fault.
//
// # Ephemeris Types
//
// OBSERVER rows carry sky position as seen from the reference center
// (geocentric by default): a "YYYY-Mon-DD HH:MM" timestamp, right ascension
// and declination (sexagesimal "H M S.SS" triplets or decimal degrees,
// depending on the requested angle format), apparent magnitude, and the
// heliocentric (r) and geocentric (delta) distances in AU. OBSERVER output
// never carries velocity vectors; velocity requires a VECTORS query, which
// this service deliberately does not issue. Velocity fields are therefore
// always zero.
//
// ELEMENTS rows carry osculating orbital elements. Column positions are not
// contractually guaranteed by Horizons; the layout observed for this output
// type puts eccentricity, perihelion distance, and inclination at
// whitespace-split indices 2, 3, and 4. The indices live in [ElementColumns]
// so a layout change is a one-line, auditable fix rather than a buried
// constant. A silent upstream column reorder produces wrong values, not an
// error. That trade-off is inherited from the observed upstream behavior and
// kept as-is.
//
// # Parsing Heuristics
//
// Free-form OBSERVER columns are recovered by pattern, not position:
//
//	timestamp:  leading "YYYY-Mon-DD HH:MM" token; absent -> current time.
//	RA/Dec:     sexagesimal triplet first, decimal degrees (>=4 fraction
//	            digits) second; no match -> the literal string "N/A".
//	magnitude:  first whitespace-isolated decimal with 1-2 integer digits
//	            and a two-digit fraction; absent -> sentinel 99 ("too faint
//	            / unknown", used downstream to suppress visibility hints).
//	distances:  every remaining decimal token filtered to the 0.1-100 AU
//	            plausibility window; first survivor = distance from Sun,
//	            second = distance from Earth, a lone survivor fills both.
//	            See [DistanceWindow] for the window's provenance.
//
// Each heuristic searches the residual left by the previous one: matched
// substrings are struck from a working copy so RA seconds cannot pose as a
// magnitude and a magnitude cannot pose as a distance. Within the residual
// the distance scan still has no anchor beyond token order and the
// plausibility window, which makes it the most failure-prone step in the
// subsystem; it lives behind the swappable [DistanceHeuristic] strategy so
// layout drift is a localized fix, not a rewrite.
//
// # Sentinel Defaults
//
// Numeric fields that fail to parse resolve to 0 (99 for magnitude), never to
// an absent field or an error, so consumers never branch on missing-field
// checks. Coordinates are the one deliberate exception: an unparseable RA or
// Dec is the string "N/A", distinguishing "not parseable" from "genuinely
// zero". Do not make these consistent with each other; downstream consumers
// rely on the asymmetry.
package domain
