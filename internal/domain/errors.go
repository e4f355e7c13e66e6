package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownObject signals that a token matched neither the catalog nor a
// recognizable designation pattern. User-correctable; callers surface it as
// a 404 with guidance.
var ErrUnknownObject = errors.New("unknown object")

// ErrNoData signals that the upstream query succeeded but the response
// carried no sentinel-delimited data table. Distinct from UpstreamError:
// the request itself was valid, a different time window may produce data.
var ErrNoData = errors.New("no ephemeris data in upstream response")

// UpstreamError carries an error reported by the ephemeris service, either
// as a non-2xx status or as an error field embedded in a 2xx envelope.
// Not retried by this subsystem.
type UpstreamError struct {
	StatusCode int // upstream HTTP status, 200 when the error was embedded in a 2xx body
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream ephemeris error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream ephemeris error: %s", e.Message)
}
