package domain

import "strings"

// CelestialObject describes a known interstellar object. Immutable; entries
// come from the static catalog below or are synthesized for designation-style
// tokens.
type CelestialObject struct {
	ShortCode      string `json:"short_code,omitempty"`
	Designation    string `json:"designation"`
	AlternateName  string `json:"alternate_name,omitempty"`
	Classification string `json:"classification"` // "comet" or "object"
	DiscoveryYear  string `json:"discovery_year,omitempty"`
	Observable     bool   `json:"observable"` // currently observable vs historical
}

// QueryCommand returns the upstream COMMAND string for this object.
// The alternate name is preferred when present: Horizons matches the
// "3I/ATLAS"-style names more reliably than provisional designations.
func (o CelestialObject) QueryCommand() string {
	if o.AlternateName != "" {
		return o.AlternateName
	}
	return o.Designation
}

// activeDesignationPrefix marks designations of the currently observable
// interstellar comet; a "C/2025 ..." token resolves to the 3I catalog entry.
const activeDesignationPrefix = "C/2025"

// catalog is the static table of known interstellar objects, ordered by
// discovery. Constructed once, never mutated.
var catalog = []CelestialObject{
	{
		ShortCode:      "1I",
		Designation:    "A/2017 U1",
		AlternateName:  "'Oumuamua",
		Classification: "object",
		DiscoveryYear:  "2017",
		Observable:     false,
	},
	{
		ShortCode:      "2I",
		Designation:    "C/2019 Q4",
		AlternateName:  "2I/Borisov",
		Classification: "comet",
		DiscoveryYear:  "2019",
		Observable:     false,
	},
	{
		ShortCode:      "3I",
		Designation:    "C/2025 N1",
		AlternateName:  "3I/ATLAS",
		Classification: "comet",
		DiscoveryYear:  "2025",
		Observable:     true,
	},
}

// ResolveObject maps a user-supplied token to a catalog entry. Lookup is
// case-sensitive and exact; failing that, a token containing a slash is
// treated as a designation: the active-comet prefix resolves to the 3I entry,
// any other designation passes through literally so the upstream gets a
// chance to match it.
func ResolveObject(token string) (CelestialObject, error) {
	for _, obj := range catalog {
		if obj.ShortCode == token {
			return obj, nil
		}
	}

	if !strings.Contains(token, "/") {
		return CelestialObject{}, ErrUnknownObject
	}

	if strings.HasPrefix(token, activeDesignationPrefix) {
		for _, obj := range catalog {
			if obj.Observable {
				return obj, nil
			}
		}
	}

	classification := "object"
	if strings.HasPrefix(token, "C/") {
		classification = "comet"
	}
	return CelestialObject{
		Designation:    token,
		Classification: classification,
	}, nil
}

// KnownShortCodes returns the catalog short codes, for 404 guidance.
func KnownShortCodes() []string {
	codes := make([]string, 0, len(catalog))
	for _, obj := range catalog {
		codes = append(codes, obj.ShortCode)
	}
	return codes
}

// TrackedObjects returns the catalog entries that are currently observable.
// The snapshot publisher polls these.
func TrackedObjects() []CelestialObject {
	var tracked []CelestialObject
	for _, obj := range catalog {
		if obj.Observable {
			tracked = append(tracked, obj)
		}
	}
	return tracked
}
