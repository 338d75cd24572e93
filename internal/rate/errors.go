package rate

import "fmt"

// ValidationError reports malformed or out-of-range request input. It is the
// caller's fault and is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a rate request referencing an unknown carrier or
// service.
type NotFoundError struct {
	Kind string // "carrier" or "service"
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Code)
}
