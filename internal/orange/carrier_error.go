package orange

import (
	"context"
	"errors"
	"net"
)

// carrierError is a classified failure from the send endpoint.
type carrierError struct {
	code Code
	text string
}

func (e *carrierError) Error() string {
	return string(e.code) + ": " + e.text
}

// isTimeout reports whether err represents an expired deadline, either from
// the HTTP client timeout or a context deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
