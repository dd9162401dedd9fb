package worker

import (
	"errors"
	"testing"
	"time"

	"github.com/jpillora/backoff"
)

func TestRetry(t *testing.T) {
	bo := func() *backoff.Backoff {
		return &backoff.Backoff{Min: time.Millisecond, Max: 2 * time.Millisecond}
	}

	errPeer := errors.New("peer down")

	var calls int
	err := retry(nil, bo(), 3, func() error {
		calls++
		if calls < 3 {
			return errPeer
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("Should succeed on the third attempt: calls[%d] err[%v]", calls, err)
	}

	calls = 0
	err = retry(nil, bo(), 3, func() error {
		calls++
		return errPeer
	})
	if !errors.Is(err, errPeer) || calls != 3 {
		t.Fatalf("Should give up after three attempts: calls[%d] err[%v]", calls, err)
	}

	shut := make(chan struct{})
	close(shut)

	calls = 0
	slow := &backoff.Backoff{Min: time.Hour, Max: time.Hour}
	err = retry(shut, slow, 3, func() error {
		calls++
		return errPeer
	})
	if !errors.Is(err, errPeer) || calls != 1 {
		t.Fatalf("Should stop retrying on shutdown: calls[%d] err[%v]", calls, err)
	}
}
