package yahoo

import (
	"context"
	"errors"
	"net"
)

// Fetch failures are classified so callers can tell timeout-and-skip from
// genuine data absence.
var (
	// ErrTimeout means the fetch exceeded its deadline
	ErrTimeout = errors.New("fetch timed out")

	// ErrNetwork means the request could not complete (DNS, connection,
	// non-2xx status)
	ErrNetwork = errors.New("network error")

	// ErrParse means the provider returned a payload we could not decode
	ErrParse = errors.New("malformed payload")

	// ErrNoData means the provider answered but had nothing for the ticker
	ErrNoData = errors.New("no data returned")
)

// classify maps a transport-level error onto the fetch error taxonomy
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrNetwork
}
