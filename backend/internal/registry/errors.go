package registry

import (
	"errors"
	"fmt"
)

// ErrNetwork matches every failure surfaced by the registry client.
var ErrNetwork = errors.New("network error")

// NetworkError describes a failed round trip to the backend.
// Status is 0 when no response was received.
type NetworkError struct {
	Method string
	Path   string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: backend returned status %d: %v", e.Method, e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNetwork) true for any *NetworkError.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }
