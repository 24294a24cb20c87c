package lab

import (
	"errors"
	"fmt"
)

// Kind classifies a failed Lab Service call. The executor's fallback
// message differs per kind, so each failure mode is named rather than
// collapsed into a generic error.
type Kind string

const (
	// KindUnreachable covers connection refusal and call timeouts.
	KindUnreachable Kind = "unreachable"
	// KindUpstreamError is a non-2xx response with a body.
	KindUpstreamError Kind = "upstream_error"
	// KindMalformed is a 2xx response whose body does not satisfy the
	// expected schema.
	KindMalformed Kind = "malformed_response"
)

type Error struct {
	Kind Kind
	Op   string // inference, orchestrate, probe
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("lab %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from err, or "" if err did not
// originate in this package.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
