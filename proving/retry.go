package proving

import (
	"context"
	"time"

	"github.com/go-errors/errors"
)

// retryBackend resubmits transient failures with exponential backoff. The
// retry budget lives here, at the transport boundary, and nowhere else:
// callers above this layer see either a result or the final error, never a
// silent resubmission.
type retryBackend struct {
	next     Backend
	attempts int
	backoff  time.Duration
}

// WithRetry decorates a backend with a bounded retry policy of at most
// attempts tries in total. Only transient failures are retried; fatal
// failures and context expiry end the call immediately.
func WithRetry(next Backend, attempts int, backoff time.Duration) Backend {
	if attempts < 1 {
		attempts = 1
	}
	return &retryBackend{next: next, attempts: attempts, backoff: backoff}
}

func (r *retryBackend) Prove(ctx context.Context, req *Request) (*Response, error) {
	var last error
	delay := r.backoff
	for attempt := 1; attempt <= r.attempts; attempt++ {
		resp, err := r.next.Prove(ctx, req)
		if err == nil {
			return resp, nil
		}
		last = err
		if !IsTransient(err) || ctx.Err() != nil {
			return nil, err
		}
		if attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, last
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, errors.WrapPrefix(last, errors.Errorf("giving up after %d attempts", r.attempts).Error(), 0)
}

func (r *retryBackend) VerificationKey() ([]byte, error) {
	return r.next.VerificationKey()
}
