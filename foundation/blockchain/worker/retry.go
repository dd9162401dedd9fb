package worker

import (
	"time"

	"github.com/jpillora/backoff"
)

// Retry policy for requests made to peers.
const (
	retryAttempts = 3
	retryMin      = 100 * time.Millisecond
	retryMax      = 2 * time.Second
)

// retry calls fn until it succeeds, the attempts run out, or shut is closed,
// sleeping an exponential backoff between calls. The last error is
// returned.
func retry(shut <-chan struct{}, bo *backoff.Backoff, attempts int, fn func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if attempt >= attempts {
			return err
		}

		select {
		case <-time.After(bo.Duration()):
		case <-shut:
			return err
		}
	}
}

// newBackoff returns the backoff used for peer requests.
func newBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    retryMin,
		Max:    retryMax,
		Factor: 2,
		Jitter: true,
	}
}
